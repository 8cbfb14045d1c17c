package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"text/template"

	"go.uber.org/zap"

	"github.com/mentorloop/sage/internal/llm"
)

// Config holds classifier tuning.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults. Temperature stays at zero so
// the same reply yields the same judgment.
func DefaultConfig() Config {
	return Config{MaxTokens: 256}
}

// Classifier judges learner replies through the language-model
// collaborator.
type Classifier struct {
	provider llm.Provider
	cfg      Config
	log      *zap.Logger
}

// New creates a classifier.
func New(provider llm.Provider, cfg Config, log *zap.Logger) *Classifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{provider: provider, cfg: cfg, log: log}
}

// Classify judges one learner reply. On any collaborator failure it
// degrades to the conservative default (struggling, which prompts a
// hint) rather than failing the turn.
func (c *Classifier) Classify(ctx context.Context, in Input) *Result {
	ctx = llm.WithPurpose(ctx, "reply-classification")

	userMsg, err := buildClassifyMessage(in)
	if err != nil {
		c.log.Warn("classification prompt build failed", zap.Error(err))
		return fallbackResult()
	}

	req := llm.Request{
		System: classifySystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userMsg},
		},
		Schema:      ResultSchema,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}

	resp, err := c.provider.Generate(ctx, req)
	if err != nil {
		c.log.Warn("classification degraded to conservative default",
			zap.String("topic", in.Topic), zap.Error(err))
		return fallbackResult()
	}

	var result Result
	if err := json.Unmarshal(resp.Content, &result); err != nil {
		c.log.Warn("unparseable classification response", zap.Error(err))
		return fallbackResult()
	}
	if !result.Judgment.Valid() {
		c.log.Warn("classification outside the closed set",
			zap.String("judgment", string(result.Judgment)))
		return fallbackResult()
	}

	return &result
}

// fallbackResult is the conservative default: treat the reply as
// struggling so the move selector offers a hint instead of advancing.
func fallbackResult() *Result {
	return &Result{
		Judgment:   JudgmentStruggling,
		Confidence: 0,
		Fallback:   true,
	}
}

const classifySystemPrompt = `You are assessing a learner's reply in a one-on-one Socratic tutoring session.

Judge the reply against the concept being probed:
- "understood": the reply demonstrates correct understanding of the concept.
- "struggling": the reply shows effort but incomplete or shaky understanding.
- "misconception": the reply reveals a specific wrong belief. Name it.
- "off_topic": the reply does not engage with the question or the concept.

Be strict about "understood": vague agreement or repeating the question back does not qualify. Keep reasoning to one sentence.`

var classifyUserTemplate = template.Must(template.New("classify").Parse(`Concept being probed: {{.Topic}}
Tutor's last question: {{.LastQuestion}}
{{if .RecentTurns}}
Recent conversation:
{{range .RecentTurns}}{{.}}
{{end}}{{end}}
Learner's reply: {{.Reply}}`))

func buildClassifyMessage(in Input) (string, error) {
	var buf bytes.Buffer
	if err := classifyUserTemplate.Execute(&buf, in); err != nil {
		return "", err
	}
	return buf.String(), nil
}
