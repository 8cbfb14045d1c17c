package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mentorloop/sage/internal/store"
)

// lockStripes is the number of per-learner mutex stripes. Writes for one
// learner serialize on a stripe; different learners rarely contend.
const lockStripes = 64

// Service is the Concept Store and Knowledge State Aggregator. All
// mutation goes through read-modify-write under the learner's stripe
// lock, which is what gives two concurrent session analyses for the same
// learner a consistent merge instead of a lost update.
type Service struct {
	kv    store.KV
	log   *zap.Logger
	locks [lockStripes]sync.Mutex
}

// NewService creates a knowledge service over the given keyed store.
func NewService(kv store.KV, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{kv: kv, log: log}
}

// ConceptDelta is one typed update to a concept record, produced by the
// analyzer or by direct session outcomes.
type ConceptDelta struct {
	Category ConceptCategory
	// Velocity is the learning-velocity term added to the mastery score:
	// newScore = clamp(oldScore + velocity, 0, 100). Scores are blended,
	// never overwritten.
	Velocity float64
	// Interacted increments the interaction counter; Successful also
	// increments the success counter.
	Interacted bool
	Successful bool

	Difficulty Difficulty
	Confidence float64 // 0 means "no update"

	Strengths      []Observation
	Weaknesses     []Observation
	Misconceptions []Observation
	Related        []RelatedConcept
}

// NormalizeConcept produces the case-insensitive identity of a concept
// name.
func NormalizeConcept(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (s *Service) lockFor(learnerID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(learnerID))
	return &s.locks[h.Sum32()%lockStripes]
}

func stateKey(learnerID string) string {
	return "knowledge/" + learnerID
}

// GetOrCreate returns the learner's knowledge state, or a fresh empty
// one if none is stored. A store failure still yields a usable fresh
// state alongside the retryable error so callers can fail open.
func (s *Service) GetOrCreate(ctx context.Context, learnerID string) (*State, error) {
	raw, found, err := s.kv.Get(ctx, stateKey(learnerID))
	if err != nil {
		return NewState(learnerID), fmt.Errorf("load knowledge state: %w", err)
	}
	if !found {
		return NewState(learnerID), nil
	}

	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		// A corrupt document is unrecoverable; treat as absent but say so.
		s.log.Warn("corrupt knowledge state, starting fresh",
			zap.String("learner", learnerID), zap.Error(err))
		return NewState(learnerID), nil
	}
	return &st, nil
}

func (s *Service) save(ctx context.Context, st *State) error {
	st.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode knowledge state: %w", err)
	}
	if err := s.kv.Put(ctx, stateKey(st.LearnerID), raw); err != nil {
		return fmt.Errorf("store knowledge state: %w", err)
	}
	return nil
}

// mutate runs fn against the learner's state under the stripe lock and
// persists the result. Opt-out turns the whole call into a logged no-op.
func (s *Service) mutate(ctx context.Context, learnerID string, fn func(*State)) error {
	mu := s.lockFor(learnerID)
	mu.Lock()
	defer mu.Unlock()

	st, err := s.GetOrCreate(ctx, learnerID)
	if err != nil {
		return err
	}
	if st.OptOut {
		s.log.Info("write skipped for opted-out learner", zap.String("learner", learnerID))
		return nil
	}

	fn(st)
	return s.save(ctx, st)
}

// UpsertConcept merges delta into the named concept, inserting a fresh
// not_exposed record when the concept is new. Matching is
// case-insensitive; the mastery score is blended via the velocity term
// and clamped to [0, 100].
func (s *Service) UpsertConcept(ctx context.Context, learnerID, conceptName string, delta ConceptDelta) error {
	conceptName = strings.TrimSpace(conceptName)
	if conceptName == "" {
		return fmt.Errorf("concept name is empty")
	}

	return s.mutate(ctx, learnerID, func(st *State) {
		now := time.Now().UTC()
		rec := st.FindConcept(conceptName)
		if rec == nil {
			rec = &ConceptRecord{
				Name:          conceptName,
				Category:      CategoryFundamental,
				Level:         LevelNotExposed,
				Difficulty:    DifficultyModerate,
				FirstExposure: now,
			}
			st.Concepts = append(st.Concepts, rec)
		}

		if delta.Category != "" {
			rec.Category = delta.Category
		}
		if delta.Difficulty != "" {
			rec.Difficulty = delta.Difficulty
		}
		if delta.Confidence > 0 {
			rec.Confidence = delta.Confidence
		}

		rec.MasteryScore = ClampScore(rec.MasteryScore + int(delta.Velocity))

		if delta.Interacted {
			rec.TotalInteractions++
			if delta.Successful {
				rec.SuccessfulInteractions++
			}
		}

		rec.Strengths = append(rec.Strengths, delta.Strengths...)
		rec.Weaknesses = append(rec.Weaknesses, delta.Weaknesses...)
		rec.Misconceptions = append(rec.Misconceptions, delta.Misconceptions...)
		rec.Related = mergeRelated(rec.Related, delta.Related)

		rec.LastInteraction = now
		if rec.TotalInteractions > 0 || delta.Velocity != 0 {
			rec.Level = LevelForScore(rec.MasteryScore)
		}

		if rec.Level == LevelMastered {
			st.recordMasteredTopic(rec.Name, now)
		}
	})
}

// recordMasteredTopic adds the topic to the mastered list with a review
// date one week out, unless it is already listed.
func (st *State) recordMasteredTopic(name string, now time.Time) {
	key := NormalizeConcept(name)
	for _, mt := range st.MasteredTopics {
		if NormalizeConcept(mt.Name) == key {
			return
		}
	}
	st.MasteredTopics = append(st.MasteredTopics, MasteredTopic{
		Name:       name,
		MasteredAt: now,
		NextReview: now.AddDate(0, 0, 7),
	})
}

func mergeRelated(existing, added []RelatedConcept) []RelatedConcept {
	for _, r := range added {
		dup := false
		for _, e := range existing {
			if NormalizeConcept(e.Name) == NormalizeConcept(r.Name) && e.Relation == r.Relation {
				dup = true
				break
			}
		}
		if !dup {
			existing = append(existing, r)
		}
	}
	return existing
}

// RecordSessionInsight appends a bounded insight entry, evicting the
// oldest once MaxInsights is reached.
func (s *Service) RecordSessionInsight(ctx context.Context, learnerID, sessionID string, observations []string) error {
	return s.mutate(ctx, learnerID, func(st *State) {
		st.Insights = append(st.Insights, SessionInsight{
			SessionID:    sessionID,
			Observations: observations,
			At:           time.Now().UTC(),
		})
		if len(st.Insights) > MaxInsights {
			st.Insights = st.Insights[len(st.Insights)-MaxInsights:]
		}
		st.Engagement.TotalSessions++
		st.Engagement.LastActive = time.Now().UTC()
	})
}

// RecordTurn bumps engagement counters for one learner turn.
func (s *Service) RecordTurn(ctx context.Context, learnerID string) error {
	return s.mutate(ctx, learnerID, func(st *State) {
		st.Engagement.TotalTurns++
		st.Engagement.LastActive = time.Now().UTC()
	})
}

// DetectRecurringStruggles scans weak concepts, groups them by
// qualitative pattern text, and bumps occurrence counts. Returns the
// updated pattern list.
func (s *Service) DetectRecurringStruggles(ctx context.Context, learnerID string) ([]StrugglePattern, error) {
	var out []StrugglePattern
	err := s.mutate(ctx, learnerID, func(st *State) {
		now := time.Now().UTC()
		for _, rec := range st.Concepts {
			if !isStruggling(rec) {
				continue
			}
			pattern := patternFor(rec)
			idx := -1
			for i := range st.StrugglePatterns {
				if st.StrugglePatterns[i].Pattern == pattern {
					idx = i
					break
				}
			}
			if idx < 0 {
				st.StrugglePatterns = append(st.StrugglePatterns, StrugglePattern{Pattern: pattern})
				idx = len(st.StrugglePatterns) - 1
			}
			p := &st.StrugglePatterns[idx]
			p.Occurrences++
			p.LastSeen = now
			p.Examples = appendUnique(p.Examples, rec.Name)
		}
		out = append(out, st.StrugglePatterns...)
	})
	return out, err
}

// isStruggling mirrors the weak-concept criteria: struggling level, a
// sub-70 score with some exposure, or high per-learner difficulty.
func isStruggling(rec *ConceptRecord) bool {
	if rec.Level == LevelStruggling {
		return true
	}
	if rec.TotalInteractions > 0 && rec.MasteryScore < 70 {
		return true
	}
	return rec.Difficulty == DifficultyHigh
}

func patternFor(rec *ConceptRecord) string {
	if len(rec.Misconceptions) > 0 {
		return fmt.Sprintf("recurring misconceptions in %s concepts", rec.Category)
	}
	if rec.Difficulty == DifficultyHigh {
		return fmt.Sprintf("high difficulty with %s concepts", rec.Category)
	}
	return fmt.Sprintf("slow progress on %s concepts", rec.Category)
}

func appendUnique(list []string, v string) []string {
	for _, e := range list {
		if NormalizeConcept(e) == NormalizeConcept(v) {
			return list
		}
	}
	return append(list, v)
}

// CompleteTopic records a topic-completion event against the learner's
// course progress. This is the only mutation path for CourseProgress.
func (s *Service) CompleteTopic(ctx context.Context, learnerID, course, module, topicID string, subtopics []string) error {
	return s.mutate(ctx, learnerID, func(st *State) {
		if st.Courses == nil {
			st.Courses = make(map[string]*CourseProgress)
		}
		cp := st.Courses[course]
		if cp == nil {
			cp = &CourseProgress{}
			st.Courses[course] = cp
		}
		cp.CompletedTopics = append(cp.CompletedTopics, TopicCompletion{TopicID: topicID, Module: module})
		for _, sub := range subtopics {
			cp.CompletedSubtopics = appendUnique(cp.CompletedSubtopics, sub)
		}
		cp.CurrentTopic = topicID
		cp.CurrentModule = module
		cp.LastActive = time.Now().UTC()
	})
}

// ResetAll hard-deletes the learner's state and recreates it empty.
// Idempotent: resetting an absent learner succeeds.
func (s *Service) ResetAll(ctx context.Context, learnerID string) error {
	mu := s.lockFor(learnerID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.kv.Delete(ctx, stateKey(learnerID)); err != nil {
		return fmt.Errorf("reset knowledge state: %w", err)
	}
	return s.save(ctx, NewState(learnerID))
}

// SetOptOut flips the privacy flag. Unlike other writes this must work
// for an opted-out learner, otherwise opting back in would be impossible.
func (s *Service) SetOptOut(ctx context.Context, learnerID string, optOut bool) error {
	mu := s.lockFor(learnerID)
	mu.Lock()
	defer mu.Unlock()

	st, err := s.GetOrCreate(ctx, learnerID)
	if err != nil {
		return err
	}
	st.OptOut = optOut
	return s.save(ctx, st)
}

// Export returns the full stored record, read-only.
func (s *Service) Export(ctx context.Context, learnerID string) (*State, error) {
	return s.GetOrCreate(ctx, learnerID)
}
