package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mentorloop/sage/internal/knowledge"
	"github.com/mentorloop/sage/internal/llm"
)

// Config holds analyzer tuning.
type Config struct {
	// Workers is the number of background analysis workers.
	Workers int
	// QueueSize bounds the pending-analysis channel. A full queue drops
	// new triggers rather than blocking the tutoring turn.
	QueueSize int
	// MaxTokens caps each analysis completion.
	MaxTokens int
	// Timeout bounds one background analysis pass end to end.
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:   2,
		QueueSize: 16,
		MaxTokens: 1024,
		Timeout:   90 * time.Second,
	}
}

// maxTranscriptTurns bounds how much transcript one analysis pass sees.
const maxTranscriptTurns = 40

// Service runs transcript analysis: periodically in the background via
// Trigger, and synchronously at session end via Finalize. Concurrent
// passes for the same session coalesce into one.
type Service struct {
	provider  llm.Provider
	knowledge *knowledge.Service
	cfg       Config
	log       *zap.Logger

	jobs      chan job
	group     singleflight.Group
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type job struct {
	sessionID string
	learnerID string
	topic     string
	turns     []Turn
}

// NewService creates the analyzer and starts its workers.
func NewService(provider llm.Provider, ksvc *knowledge.Service, cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultConfig().MaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	s := &Service{
		provider:  provider,
		knowledge: ksvc,
		cfg:       cfg,
		log:       log,
		jobs:      make(chan job, cfg.QueueSize),
	}
	for i := 0; i < cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

// Close stops accepting triggers and waits for in-flight analyses.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.jobs)
	})
	s.wg.Wait()
}

// Trigger queues a background analysis of the session so far. Fire and
// forget: a full queue drops the trigger, and the next periodic trigger
// or the session finalize covers the gap.
func (s *Service) Trigger(sessionID, learnerID, topic string, turns []Turn) {
	j := job{sessionID: sessionID, learnerID: learnerID, topic: topic, turns: turns}
	select {
	case s.jobs <- j:
	default:
		s.log.Warn("analysis queue full, trigger dropped",
			zap.String("session", sessionID))
	}
}

func (s *Service) worker() {
	defer s.wg.Done()
	for j := range s.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
		if _, err := s.analyzeShared(ctx, j); err != nil {
			s.log.Warn("background analysis failed",
				zap.String("session", j.sessionID), zap.Error(err))
		}
		cancel()
	}
}

// Finalize runs the end-of-session analysis synchronously and produces
// the session summary plus exactly one study suggestion. An error here
// is reported but the result is always usable: callers log and move on
// rather than failing the session handoff.
func (s *Service) Finalize(ctx context.Context, sessionID, learnerID, topic string, turns []Turn) (*FinalizeResult, error) {
	j := job{sessionID: sessionID, learnerID: learnerID, topic: topic, turns: turns}

	analysis, err := s.analyzeShared(ctx, j)
	if err != nil {
		return &FinalizeResult{
			Summary:    fmt.Sprintf("Session on %s.", topic),
			Suggestion: &Suggestion{Kind: SuggestionFollowUp, Topic: topic},
		}, err
	}

	if len(analysis.Observations) > 0 {
		if err := s.knowledge.RecordSessionInsight(ctx, learnerID, sessionID, analysis.Observations); err != nil {
			s.log.Warn("session insight not recorded", zap.Error(err))
		}
	}
	if _, err := s.knowledge.DetectRecurringStruggles(ctx, learnerID); err != nil {
		s.log.Warn("struggle detection skipped", zap.Error(err))
	}

	return &FinalizeResult{
		Summary:    analysis.Summary,
		Suggestion: s.suggest(ctx, topic, analysis),
	}, nil
}

// analyzeShared coalesces concurrent passes for the same session: a
// finalize arriving while a periodic trigger is in flight shares its
// result instead of racing it.
func (s *Service) analyzeShared(ctx context.Context, j job) (*Analysis, error) {
	v, err, _ := s.group.Do(j.sessionID, func() (any, error) {
		return s.analyze(ctx, j)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Analysis), nil
}

func (s *Service) analyze(ctx context.Context, j job) (*Analysis, error) {
	if len(j.turns) == 0 {
		return &Analysis{Summary: fmt.Sprintf("Session on %s with no learner turns.", j.topic)}, nil
	}
	ctx = llm.WithPurpose(ctx, "session-analysis")

	resp, err := s.provider.Generate(ctx, llm.Request{
		System: analysisSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildAnalysisMessage(j.topic, j.turns)},
		},
		Schema:    analysisSchema,
		MaxTokens: s.cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("transcript analysis: %w", err)
	}

	var analysis Analysis
	if err := json.Unmarshal(resp.Content, &analysis); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}

	s.apply(ctx, j.learnerID, j.sessionID, &analysis)
	return &analysis, nil
}

// apply folds the extracted assessment into the concept store. Each
// concept is its own atomic read-modify-write, so two concurrent session
// analyses with disjoint concepts both land.
func (s *Service) apply(ctx context.Context, learnerID, sessionID string, analysis *Analysis) {
	st, err := s.knowledge.Export(ctx, learnerID)
	if err != nil {
		s.log.Warn("analysis applied against fresh state", zap.Error(err))
	}

	for _, gap := range analysis.Gaps {
		if strings.TrimSpace(gap.Concept) == "" {
			continue
		}
		delta := deltaForGap(st, gap, sessionID)
		if err := s.knowledge.UpsertConcept(ctx, learnerID, gap.Concept, delta); err != nil {
			s.log.Warn("concept update failed",
				zap.String("concept", gap.Concept), zap.Error(err))
		}
	}

	for _, m := range analysis.Misconceptions {
		if strings.TrimSpace(m.Concept) == "" {
			continue
		}
		err := s.knowledge.UpsertConcept(ctx, learnerID, m.Concept, knowledge.ConceptDelta{
			Misconceptions: []knowledge.Observation{{
				Summary:  m.Description,
				Evidence: m.Evidence,
				At:       time.Now().UTC(),
			}},
		})
		if err != nil {
			s.log.Warn("misconception update failed",
				zap.String("concept", m.Concept), zap.Error(err))
		}
	}
}

// deltaForGap converts a normalized gap score into a mastery-score
// velocity. The blend moves the stored score 30% of the way toward the
// session's evidence, so one session never overwrites history.
func deltaForGap(st *knowledge.State, gap Gap, sessionID string) knowledge.ConceptDelta {
	score := gap.Score
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	old := 0
	if st != nil {
		if rec := st.FindConcept(gap.Concept); rec != nil {
			old = rec.MasteryScore
		}
	}

	delta := knowledge.ConceptDelta{
		Velocity:   (score*100 - float64(old)) * 0.3,
		Interacted: true,
		Successful: score >= 0.6,
	}

	obs := knowledge.Observation{
		Summary:  fmt.Sprintf("session %s assessment", sessionID),
		Evidence: gap.Evidence,
		At:       time.Now().UTC(),
	}
	switch {
	case score >= 0.7:
		delta.Strengths = []knowledge.Observation{obs}
	case score < 0.4:
		delta.Weaknesses = []knowledge.Observation{obs}
		delta.Difficulty = knowledge.DifficultyHigh
	}
	return delta
}

const analysisSystemPrompt = `You are reviewing the transcript of a one-on-one Socratic tutoring session.

Extract a concise assessment of the learner's knowledge:
- Summarize what was covered and how the learner did, in two or three sentences.
- List every concept the session touched as a gap entry with an understanding score from 0.0 to 1.0, weakest first.
- Name any specific wrong beliefs as misconceptions with the evidence that revealed them.
- Note at most five qualitative observations about how this learner learns.

Score only from what the transcript shows. A concept the learner merely heard mentioned scores low.`

func buildAnalysisMessage(topic string, turns []Turn) string {
	if len(turns) > maxTranscriptTurns {
		turns = turns[len(turns)-maxTranscriptTurns:]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n\nTranscript:\n", topic)
	for _, t := range turns {
		role := "Tutor"
		if t.Role == "learner" {
			role = "Learner"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, t.Content)
		if t.Judgment != "" {
			fmt.Fprintf(&b, "  [assessed: %s]\n", t.Judgment)
		}
	}
	return b.String()
}
