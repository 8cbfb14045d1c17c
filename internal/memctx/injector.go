// Package memctx builds the contextual prefix injected into outbound
// prompts from the learner's knowledge state.
package memctx

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mentorloop/sage/internal/knowledge"
)

// maxContextLen bounds the injected prefix so it cannot crowd out the
// conversation itself.
const maxContextLen = 1200

// Injector reads the concept store and formats a prompt prefix.
type Injector struct {
	svc *knowledge.Service
	log *zap.Logger
}

// New creates an injector over the knowledge service.
func New(svc *knowledge.Service, log *zap.Logger) *Injector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Injector{svc: svc, log: log}
}

// Context returns the memory prefix for the learner's next prompt.
// Returns empty for opted-out learners and on store failure: tutoring
// proceeds without memory rather than blocking on it.
func (i *Injector) Context(ctx context.Context, learnerID string) string {
	st, err := i.svc.Export(ctx, learnerID)
	if err != nil {
		i.log.Warn("memory context skipped", zap.String("learner", learnerID), zap.Error(err))
		return ""
	}
	if st.OptOut {
		return ""
	}
	return Format(st)
}

// Format renders a sectioned plain-text block from a knowledge state.
func Format(st *knowledge.State) string {
	sum := knowledge.Summarize(st)
	if sum.TotalConcepts == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("LEARNER CONTEXT:\n")
	fmt.Fprintf(&b, "  %s\n", sum.Text)

	if sum.Profile.DominantStyle != knowledge.StyleUnknown {
		fmt.Fprintf(&b, "  Learning style: %s, pace: %s\n", sum.Profile.DominantStyle, sum.Profile.Pace)
	}

	if len(sum.FocusAreas) > 0 {
		fmt.Fprintf(&b, "  Focus areas: %s\n", strings.Join(sum.FocusAreas, ", "))
	}

	if len(st.StrugglePatterns) > 0 {
		b.WriteString("  Recurring struggles:\n")
		for _, p := range top(st.StrugglePatterns, 3) {
			fmt.Fprintf(&b, "    - %s (seen %dx)\n", p.Pattern, p.Occurrences)
		}
	}

	if prereqs := completedTopics(st, 5); len(prereqs) > 0 {
		fmt.Fprintf(&b, "  Already completed: %s\n", strings.Join(prereqs, ", "))
	}

	out := b.String()
	if len(out) > maxContextLen {
		out = out[:maxContextLen]
	}
	return out
}

func top(patterns []knowledge.StrugglePattern, n int) []knowledge.StrugglePattern {
	if len(patterns) < n {
		n = len(patterns)
	}
	return patterns[:n]
}

func completedTopics(st *knowledge.State, limit int) []string {
	var out []string
	for _, cp := range st.Courses {
		for _, tc := range cp.CompletedTopics {
			out = append(out, tc.TopicID)
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}
