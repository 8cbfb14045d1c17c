package analyzer

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/mentorloop/sage/internal/knowledge"
	"github.com/mentorloop/sage/internal/llm"
	"github.com/mentorloop/sage/internal/store"
)

func newTestAnalyzer(mock *llm.MockProvider) (*Service, *knowledge.Service) {
	ksvc := knowledge.NewService(store.NewMemory(), nil)
	return NewService(mock, ksvc, DefaultConfig(), nil), ksvc
}

func testTurns() []Turn {
	return []Turn{
		{Role: "learner", Content: "teach me recursion"},
		{Role: "tutor", Content: "What do you think happens when a function calls itself?"},
		{Role: "learner", Content: "It loops forever?", Judgment: "struggling"},
	}
}

func TestFinalize_WeakGapGetsStudyPlan(t *testing.T) {
	analysis := json.RawMessage(`{
		"summary": "Covered recursion basics; the learner confused recursion with iteration.",
		"observations": ["responds well to concrete examples"],
		"gaps": [
			{"concept": "Recursion", "score": 0.3, "evidence": "thought recursion loops forever"},
			{"concept": "Functions", "score": 0.8}
		]
	}`)
	plan := json.RawMessage(`{
		"modules": [
			{"topic": "Call Stack", "description": "How calls nest", "subtopics": [{"topic": "Stack frames"}]},
			{"topic": "Base Cases", "subtopics": [{"topic": "Termination"}]}
		]
	}`)
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: analysis},
		llm.MockResponse{Content: plan},
	)

	svc, ksvc := newTestAnalyzer(mock)
	defer svc.Close()

	final, err := svc.Finalize(context.Background(), "s1", "amy", "Recursion", testTurns())
	if err != nil {
		t.Fatal(err)
	}
	if final.Summary == "" {
		t.Error("summary empty")
	}
	sug := final.Suggestion
	if sug == nil {
		t.Fatal("no suggestion")
	}
	if sug.Kind != SuggestionStudyPlan {
		t.Errorf("kind = %q, want study_plan", sug.Kind)
	}
	if sug.Topic != "Recursion" {
		t.Errorf("topic = %q, want Recursion", sug.Topic)
	}
	if len(sug.Plan) != 2 {
		t.Errorf("plan has %d modules, want 2", len(sug.Plan))
	}

	// The extracted gaps land in the concept store: 0.3 against an empty
	// record blends to round(30*0.3) = 9.
	st, _ := ksvc.Export(context.Background(), "amy")
	rec := st.FindConcept("recursion")
	if rec == nil {
		t.Fatal("recursion concept not stored")
	}
	if rec.MasteryScore != 9 {
		t.Errorf("score = %d, want 9", rec.MasteryScore)
	}
	if rec.Difficulty != knowledge.DifficultyHigh {
		t.Errorf("difficulty = %q, want high for a weak gap", rec.Difficulty)
	}
	if len(rec.Weaknesses) != 1 {
		t.Errorf("weaknesses = %d, want 1", len(rec.Weaknesses))
	}
	if len(st.Insights) != 1 {
		t.Errorf("insights = %d, want 1", len(st.Insights))
	}
}

func TestFinalize_SolidSessionGetsFollowUp(t *testing.T) {
	analysis := json.RawMessage(`{
		"summary": "Strong session on photosynthesis.",
		"gaps": [{"concept": "Photosynthesis", "score": 0.9}]
	}`)
	mock := llm.NewMockProvider(llm.MockResponse{Content: analysis})

	svc, _ := newTestAnalyzer(mock)
	defer svc.Close()

	final, err := svc.Finalize(context.Background(), "s1", "amy", "Photosynthesis", testTurns())
	if err != nil {
		t.Fatal(err)
	}
	sug := final.Suggestion
	if sug == nil || sug.Kind != SuggestionFollowUp {
		t.Fatalf("suggestion = %+v, want follow_up", sug)
	}
	if sug.Topic != "Photosynthesis" {
		t.Errorf("topic = %q, want the session topic", sug.Topic)
	}
	// No plan call should have happened.
	if mock.CallCount() != 1 {
		t.Errorf("provider called %d times, want 1", mock.CallCount())
	}
}

func TestFinalize_ProviderFailureDegrades(t *testing.T) {
	mock := llm.NewMockProvider() // empty queue: every call fails

	svc, _ := newTestAnalyzer(mock)
	defer svc.Close()

	final, err := svc.Finalize(context.Background(), "s1", "amy", "Recursion", testTurns())
	if err == nil {
		t.Fatal("expected the analysis error to be reported")
	}
	if final == nil {
		t.Fatal("degraded result must still be usable")
	}
	if final.Summary == "" {
		t.Error("degraded summary empty")
	}
	if final.Suggestion == nil || final.Suggestion.Kind != SuggestionFollowUp {
		t.Errorf("degraded suggestion = %+v, want follow_up", final.Suggestion)
	}
}

func TestFinalize_PlanFailureKeepsSuggestion(t *testing.T) {
	analysis := json.RawMessage(`{
		"summary": "Rough session.",
		"gaps": [{"concept": "Recursion", "score": 0.2}]
	}`)
	// Only the analysis response is queued; the plan call fails.
	mock := llm.NewMockProvider(llm.MockResponse{Content: analysis})

	svc, _ := newTestAnalyzer(mock)
	defer svc.Close()

	final, err := svc.Finalize(context.Background(), "s1", "amy", "Recursion", testTurns())
	if err != nil {
		t.Fatal(err)
	}
	sug := final.Suggestion
	if sug == nil || sug.Kind != SuggestionStudyPlan {
		t.Fatalf("suggestion = %+v, want study_plan", sug)
	}
	if len(sug.Plan) != 0 {
		t.Errorf("plan = %+v, want empty after outline failure", sug.Plan)
	}
}

func TestFinalize_MisconceptionsRecorded(t *testing.T) {
	analysis := json.RawMessage(`{
		"summary": "Session revealed a misconception.",
		"gaps": [{"concept": "Recursion", "score": 0.7}],
		"misconceptions": [
			{"concept": "Recursion", "description": "Recursion cannot terminate", "evidence": "said it loops forever"}
		]
	}`)
	mock := llm.NewMockProvider(llm.MockResponse{Content: analysis})

	svc, ksvc := newTestAnalyzer(mock)
	defer svc.Close()

	if _, err := svc.Finalize(context.Background(), "s1", "amy", "Recursion", testTurns()); err != nil {
		t.Fatal(err)
	}

	st, _ := ksvc.Export(context.Background(), "amy")
	rec := st.FindConcept("recursion")
	if rec == nil {
		t.Fatal("concept missing")
	}
	if len(rec.Misconceptions) != 1 {
		t.Fatalf("misconceptions = %d, want 1", len(rec.Misconceptions))
	}
	if rec.Misconceptions[0].Summary != "Recursion cannot terminate" {
		t.Errorf("misconception = %q", rec.Misconceptions[0].Summary)
	}
}

func TestTrigger_RunsInBackground(t *testing.T) {
	analysis := json.RawMessage(`{
		"summary": "Progress check.",
		"gaps": [{"concept": "Fractions", "score": 0.8}]
	}`)
	mock := llm.NewMockProvider(llm.MockResponse{Content: analysis})

	svc, ksvc := newTestAnalyzer(mock)
	defer svc.Close()

	svc.Trigger("s1", "amy", "Fractions", testTurns())

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		st, _ := ksvc.Export(context.Background(), "amy")
		if st.FindConcept("fractions") != nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("background analysis never landed in the concept store")
}

func TestConcurrentFinalize_DisjointDeltasBothLand(t *testing.T) {
	gapA := json.RawMessage(`{"summary": "A.", "gaps": [{"concept": "Stacks", "score": 0.8}]}`)
	gapB := json.RawMessage(`{"summary": "B.", "gaps": [{"concept": "Queues", "score": 0.9}]}`)
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: gapA},
		llm.MockResponse{Content: gapB},
	)

	svc, ksvc := newTestAnalyzer(mock)
	defer svc.Close()

	var wg sync.WaitGroup
	for _, sessionID := range []string{"s1", "s2"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := svc.Finalize(context.Background(), id, "amy", "Data Structures", testTurns()); err != nil {
				t.Error(err)
			}
		}(sessionID)
	}
	wg.Wait()

	st, _ := ksvc.Export(context.Background(), "amy")
	if st.FindConcept("stacks") == nil || st.FindConcept("queues") == nil {
		t.Fatalf("lost update across concurrent sessions: %+v", st.Concepts)
	}
}

func TestWeakestGap_Ordering(t *testing.T) {
	gaps := []Gap{
		{Concept: "B", Score: 0.5},
		{Concept: "A", Score: 0.2},
		{Concept: "", Score: 0.0},
	}
	g, ok := weakestGap(gaps)
	if !ok {
		t.Fatal("no gap found")
	}
	if g.Concept != "A" {
		t.Errorf("weakest = %q, want A", g.Concept)
	}

	if _, ok := weakestGap(nil); ok {
		t.Error("empty gap list produced a gap")
	}
}
