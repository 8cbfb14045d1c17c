package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mentorloop/sage/internal/analyzer"
	"github.com/mentorloop/sage/internal/classify"
	"github.com/mentorloop/sage/internal/knowledge"
	"github.com/mentorloop/sage/internal/llm"
	"github.com/mentorloop/sage/internal/memctx"
	"github.com/mentorloop/sage/internal/retrieval"
	"github.com/mentorloop/sage/internal/store"
	"github.com/mentorloop/sage/internal/tutor"
)

const (
	roleLearner = "learner"
	roleTutor   = "tutor"

	// analyzeEveryTurns is the periodic re-analysis cadence, counted in
	// turns that advance the protocol.
	analyzeEveryTurns = 3

	// sessionTTL bounds how long an idle session survives in the cache.
	sessionTTL   = 2 * time.Hour
	sessionSweep = 10 * time.Minute
)

// Engine wires the tutoring components into the single-turn entrypoint.
type Engine struct {
	provider   llm.Provider
	knowledge  *knowledge.Service
	classifier *classify.Classifier
	analyzer   *analyzer.Service
	injector   *memctx.Injector
	retriever  retrieval.Fetcher
	kv         store.KV
	sessions   *store.Cache[*session]
	log        *zap.Logger

	// locks serializes turns per session id. Turns for one session are
	// sequential by nature; the lock makes concurrent duplicates safe.
	locks sync.Map
}

// Options configures engine construction. Provider, Knowledge and KV are
// required; the rest default.
type Options struct {
	Provider  llm.Provider
	Knowledge *knowledge.Service
	KV        store.KV

	Classifier *classify.Classifier
	Analyzer   *analyzer.Service
	Injector   *memctx.Injector
	Retriever  retrieval.Fetcher
	Logger     *zap.Logger
}

// New assembles an engine, constructing any collaborator not supplied.
func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Classifier == nil {
		opts.Classifier = classify.New(opts.Provider, classify.DefaultConfig(), log)
	}
	if opts.Analyzer == nil {
		opts.Analyzer = analyzer.NewService(opts.Provider, opts.Knowledge, analyzer.DefaultConfig(), log)
	}
	if opts.Injector == nil {
		opts.Injector = memctx.New(opts.Knowledge, log)
	}
	if opts.Retriever == nil {
		opts.Retriever = retrieval.Noop{}
	}

	return &Engine{
		provider:   opts.Provider,
		knowledge:  opts.Knowledge,
		classifier: opts.Classifier,
		analyzer:   opts.Analyzer,
		injector:   opts.Injector,
		retriever:  opts.Retriever,
		kv:         opts.KV,
		sessions:   store.NewCache[*session](sessionTTL, sessionSweep),
		log:        log,
	}
}

// Close shuts down background analysis.
func (e *Engine) Close() {
	e.analyzer.Close()
}

func (e *Engine) lockFor(sessionID string) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// TurnResult is what one learner message produces: the directive for the
// chat layer plus the protocol outcome.
type TurnResult struct {
	SessionID string              `json:"session_id"`
	Topic     string              `json:"topic"`
	State     tutor.ProtocolState `json:"state"`
	TurnCount int                 `json:"turn_count"`

	Directive *tutor.Directive `json:"directive"`

	// Judgment is empty on the first turn of a session, which has no
	// prior question to classify against.
	Judgment      classify.Judgment `json:"judgment,omitempty"`
	Misconception string            `json:"misconception,omitempty"`

	MasteryReached bool `json:"mastery_reached"`

	// Final carries the end-of-session summary and suggestion when this
	// turn completed the topic.
	Final *analyzer.FinalizeResult `json:"final,omitempty"`
}

// HandleTurn processes one learner message. An unknown session id starts
// a new session with the message as its topic seed; mastery ends the
// session and attaches the finalize result.
func (e *Engine) HandleTurn(ctx context.Context, sessionID, learnerID, utterance string) (*TurnResult, error) {
	mu := e.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	s, ok := e.loadSession(ctx, sessionID)
	if !ok {
		return e.startSession(ctx, sessionID, learnerID, utterance)
	}
	return e.continueSession(ctx, s, utterance)
}

// startSession derives the topic from the first message and directs an
// introduction question. The first message seeds the topic; it is not a
// reply, so nothing is classified and the turn count stays at zero.
func (e *Engine) startSession(ctx context.Context, sessionID, learnerID, utterance string) (*TurnResult, error) {
	topic := tutor.ExtractTopic(utterance)
	state := tutor.NewSessionState(sessionID, learnerID, topic)

	memory := e.injector.Context(ctx, learnerID)
	reference := e.fetchReference(ctx, state.Module, topic)

	s := &session{State: state}
	s.recordTurn(roleLearner, utterance, "")
	directive := tutor.BuildDirective(state, tutor.MoveIntroduceQuestion, memory, reference)
	e.saveSession(ctx, s)

	e.log.Info("session started",
		zap.String("session", sessionID),
		zap.String("learner", learnerID),
		zap.String("topic", topic))

	return &TurnResult{
		SessionID: sessionID,
		Topic:     topic,
		State:     state.State,
		TurnCount: state.TurnCount,
		Directive: directive,
	}, nil
}

// continueSession classifies the reply, advances the protocol, and
// assembles the next directive.
func (e *Engine) continueSession(ctx context.Context, s *session, utterance string) (*TurnResult, error) {
	state := s.State

	result := e.classifier.Classify(ctx, classify.Input{
		Topic:        state.Topic,
		LastQuestion: state.LastQuestion,
		Reply:        utterance,
		RecentTurns:  recentTurnLines(s, 6),
	})
	if result.Fallback {
		e.log.Info("turn proceeding on fallback judgment",
			zap.String("session", state.SessionID))
	}

	outcome := tutor.Advance(state, result)
	s.recordTurn(roleLearner, utterance, string(result.Judgment))

	if outcome.CountsTurn {
		if err := e.knowledge.RecordTurn(ctx, state.LearnerID); err != nil {
			e.log.Warn("engagement not recorded", zap.Error(err))
		}
	}

	res := &TurnResult{
		SessionID:      state.SessionID,
		Topic:          state.Topic,
		State:          outcome.State,
		TurnCount:      state.TurnCount,
		Judgment:       result.Judgment,
		Misconception:  result.Misconception,
		MasteryReached: outcome.MasteryReached,
	}

	if outcome.MasteryReached {
		res.Directive = tutor.BuildDirective(state, outcome.Move, "", "")
		res.Final = e.finalize(ctx, s)
		e.dropSession(ctx, state.SessionID)
		return res, nil
	}

	memory := e.injector.Context(ctx, state.LearnerID)
	res.Directive = tutor.BuildDirective(state, outcome.Move, memory, "")

	e.compressHistory(ctx, s)
	e.saveSession(ctx, s)

	if outcome.CountsTurn && state.TurnCount%analyzeEveryTurns == 0 {
		e.analyzer.Trigger(state.SessionID, state.LearnerID, state.Topic, snapshotTurns(s))
	}
	return res, nil
}

// RecordTutorUtterance feeds the tutor's generated question back into
// the session so the next reply is classified against it. The chat layer
// calls this after rendering each directive.
func (e *Engine) RecordTutorUtterance(ctx context.Context, sessionID, text string) {
	mu := e.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	s, ok := e.loadSession(ctx, sessionID)
	if !ok {
		return
	}
	s.State.LastQuestion = text
	s.recordTurn(roleTutor, text, "")
	e.saveSession(ctx, s)
}

// FinalizeSession ends a session explicitly, producing the summary and
// suggestion. It never fails the handoff: analysis errors degrade to a
// minimal result. Finalizing an unknown session yields nil.
func (e *Engine) FinalizeSession(ctx context.Context, sessionID string) *analyzer.FinalizeResult {
	mu := e.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	s, ok := e.loadSession(ctx, sessionID)
	if !ok {
		return nil
	}
	final := e.finalize(ctx, s)
	e.dropSession(ctx, sessionID)
	return final
}

func (e *Engine) finalize(ctx context.Context, s *session) *analyzer.FinalizeResult {
	state := s.State
	final, err := e.analyzer.Finalize(ctx, state.SessionID, state.LearnerID, state.Topic, snapshotTurns(s))
	if err != nil {
		e.log.Warn("finalize analysis degraded",
			zap.String("session", state.SessionID), zap.Error(err))
	}

	if state.State == tutor.StateMastery {
		err := e.knowledge.CompleteTopic(ctx, state.LearnerID, "", state.Module, state.Topic, nil)
		if err != nil {
			e.log.Warn("topic completion not recorded", zap.Error(err))
		}
	}

	e.log.Info("session finalized",
		zap.String("session", state.SessionID),
		zap.String("topic", state.Topic),
		zap.Int("turns", state.TurnCount),
		zap.Duration("duration", s.age()))
	return final
}

// EndSession discards a session without analysis.
func (e *Engine) EndSession(ctx context.Context, sessionID string) {
	mu := e.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()
	e.dropSession(ctx, sessionID)
}

// KnowledgeSummary returns the learner's human-readable standing.
func (e *Engine) KnowledgeSummary(ctx context.Context, learnerID string) (*knowledge.Summary, error) {
	return e.knowledge.GenerateSummary(ctx, learnerID)
}

// ExportMemory returns the learner's full stored record.
func (e *Engine) ExportMemory(ctx context.Context, learnerID string) (*knowledge.State, error) {
	return e.knowledge.Export(ctx, learnerID)
}

// ResetMemory erases everything stored about the learner.
func (e *Engine) ResetMemory(ctx context.Context, learnerID string) error {
	return e.knowledge.ResetAll(ctx, learnerID)
}

// SetMemoryOptOut flips the learner's persistence opt-out.
func (e *Engine) SetMemoryOptOut(ctx context.Context, learnerID string, optOut bool) error {
	return e.knowledge.SetOptOut(ctx, learnerID, optOut)
}

// fetchReference pulls reference material for the topic's first turn.
// Absence and failure look the same: no material.
func (e *Engine) fetchReference(ctx context.Context, course, topic string) string {
	text, err := e.retriever.FetchReferenceText(ctx, course, topic)
	if err != nil {
		e.log.Warn("reference retrieval skipped",
			zap.String("topic", topic), zap.Error(err))
		return ""
	}
	return text
}
