// Package retrieval declares the optional reference-material
// collaborator. Absence of reference text must never break a session.
package retrieval

import "context"

// Fetcher supplies opaque reference text for a topic. Implementations
// live outside the core; the returned text is attached to the first
// turn of a topic as-is.
type Fetcher interface {
	// FetchReferenceText returns reference material for the topic, or
	// empty when none exists. Errors are treated as "no material".
	FetchReferenceText(ctx context.Context, course, topic string) (string, error)
}

// Noop is a Fetcher that always returns nothing.
type Noop struct{}

func (Noop) FetchReferenceText(context.Context, string, string) (string, error) {
	return "", nil
}

// Static serves fixed text per topic; used in tests and demos.
type Static struct {
	// ByTopic maps topic title to reference text.
	ByTopic map[string]string
}

func (s Static) FetchReferenceText(_ context.Context, _, topic string) (string, error) {
	return s.ByTopic[topic], nil
}
