// Package engine orchestrates one tutoring turn end to end: session
// lookup, reply classification, protocol transition, directive assembly,
// and the background analysis triggers.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mentorloop/sage/internal/analyzer"
	"github.com/mentorloop/sage/internal/tutor"
)

// session is the engine's unit of transient state: the protocol record
// plus the running transcript. Best effort on both tiers; a lost session
// means the learner's next message starts a fresh topic.
type session struct {
	State *tutor.SessionState `json:"state"`

	// Transcript holds the recent turns, oldest first. Older turns are
	// folded into HistorySummary once the transcript grows long.
	Transcript     []analyzer.Turn `json:"transcript"`
	HistorySummary string          `json:"history_summary,omitempty"`
}

func sessionKey(sessionID string) string {
	return "session/" + sessionID
}

// loadSession checks the in-process cache first, then the keyed store.
// Either tier failing just means "not found".
func (e *Engine) loadSession(ctx context.Context, sessionID string) (*session, bool) {
	if s, ok := e.sessions.Get(sessionID); ok {
		return s, true
	}

	raw, found, err := e.kv.Get(ctx, sessionKey(sessionID))
	if err != nil {
		e.log.Warn("session load failed, starting fresh",
			zap.String("session", sessionID), zap.Error(err))
		return nil, false
	}
	if !found {
		return nil, false
	}

	var s session
	if err := json.Unmarshal(raw, &s); err != nil || s.State == nil {
		e.log.Warn("corrupt session record, starting fresh",
			zap.String("session", sessionID), zap.Error(err))
		return nil, false
	}
	e.sessions.Set(sessionID, &s)
	return &s, true
}

// saveSession writes both tiers. The durable tier is best effort; the
// cache alone carries the session within one process lifetime.
func (e *Engine) saveSession(ctx context.Context, s *session) {
	e.sessions.Set(s.State.SessionID, s)

	raw, err := json.Marshal(s)
	if err != nil {
		e.log.Warn("session encode failed", zap.Error(err))
		return
	}
	if err := e.kv.Put(ctx, sessionKey(s.State.SessionID), raw); err != nil {
		e.log.Warn("session not persisted",
			zap.String("session", s.State.SessionID), zap.Error(err))
	}
}

func (e *Engine) dropSession(ctx context.Context, sessionID string) {
	e.sessions.Delete(sessionID)
	if err := e.kv.Delete(ctx, sessionKey(sessionID)); err != nil {
		e.log.Warn("stored session not removed",
			zap.String("session", sessionID), zap.Error(err))
	}
}

// recordTurn appends one transcript entry and compresses history when
// the transcript outgrows the window.
func (s *session) recordTurn(role, content, judgment string) {
	s.Transcript = append(s.Transcript, analyzer.Turn{
		Role:     role,
		Content:  content,
		Judgment: judgment,
	})
}

// transcriptWindow is how many transcript entries stay verbatim; older
// entries are summarized away.
const transcriptWindow = 10

// compressHistory folds transcript entries beyond the window into the
// rolling history summary. Compression is cosmetic for prompts, so a
// failed summarization call just leaves the transcript long.
func (e *Engine) compressHistory(ctx context.Context, s *session) {
	if len(s.Transcript) <= transcriptWindow {
		return
	}
	older := s.Transcript[:len(s.Transcript)-transcriptWindow]

	summary, err := e.summarizeTurns(ctx, s.HistorySummary, older)
	if err != nil {
		e.log.Warn("history compression skipped",
			zap.String("session", s.State.SessionID), zap.Error(err))
		return
	}
	s.HistorySummary = summary
	s.Transcript = append([]analyzer.Turn(nil), s.Transcript[len(s.Transcript)-transcriptWindow:]...)
}

// recentTurnLines renders the transcript tail as classifier context.
func recentTurnLines(s *session, n int) []string {
	turns := s.Transcript
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		role := "Tutor"
		if t.Role == roleLearner {
			role = "Learner"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", role, t.Content))
	}
	return lines
}

// snapshotTurns copies the transcript for handoff to the analyzer, which
// runs outside the session lock.
func snapshotTurns(s *session) []analyzer.Turn {
	out := make([]analyzer.Turn, len(s.Transcript))
	copy(out, s.Transcript)
	return out
}

func (s *session) age() time.Duration {
	return time.Since(s.State.StartedAt)
}
