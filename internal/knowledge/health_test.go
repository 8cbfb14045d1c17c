package knowledge

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mentorloop/sage/internal/store"
)

// seedState writes a crafted state document directly, bypassing the
// service's own clamping, to exercise the invariant checks.
func seedState(t *testing.T, kv *store.Memory, st *State) {
	t.Helper()
	raw, err := json.Marshal(st)
	if err != nil {
		t.Fatal(err)
	}
	if err := kv.Put(context.Background(), stateKey(st.LearnerID), raw); err != nil {
		t.Fatal(err)
	}
}

func TestHealthCheck_CleanState(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if err := svc.UpsertConcept(ctx, "amy", "fractions", ConceptDelta{Velocity: 90, Interacted: true}); err != nil {
		t.Fatal(err)
	}
	issues, err := svc.HealthCheck(ctx, "amy")
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 0 {
		t.Errorf("got issues %+v, want none", issues)
	}
}

func TestHealthCheck_ScoreOutOfRange(t *testing.T) {
	svc, kv := newTestService()
	st := NewState("amy")
	st.Concepts = append(st.Concepts, &ConceptRecord{Name: "fractions", MasteryScore: 150, Level: LevelMastered})
	seedState(t, kv, st)

	issues, err := svc.HealthCheck(context.Background(), "amy")
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) == 0 {
		t.Fatal("expected an out-of-range issue")
	}
	if !strings.Contains(issues[0].Detail, "out of range") {
		t.Errorf("detail = %q, want out-of-range flag", issues[0].Detail)
	}
}

func TestHealthCheck_MasteredBelowThreshold(t *testing.T) {
	svc, kv := newTestService()
	st := NewState("amy")
	st.Concepts = append(st.Concepts, &ConceptRecord{Name: "fractions", MasteryScore: 60, Level: LevelMastered})
	seedState(t, kv, st)

	issues, err := svc.HealthCheck(context.Background(), "amy")
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1: %+v", len(issues), issues)
	}
	if !strings.Contains(issues[0].Detail, "below the threshold") {
		t.Errorf("detail = %q", issues[0].Detail)
	}
}

func TestHealthCheck_MasteredHighDifficultyContradiction(t *testing.T) {
	svc, kv := newTestService()
	st := NewState("amy")
	st.Concepts = append(st.Concepts, &ConceptRecord{
		Name:         "fractions",
		MasteryScore: 95,
		Level:        LevelMastered,
		Difficulty:   DifficultyHigh,
	})
	seedState(t, kv, st)

	issues, err := svc.HealthCheck(context.Background(), "amy")
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1: %+v", len(issues), issues)
	}
	if !strings.Contains(issues[0].Detail, "contradictory") {
		t.Errorf("detail = %q", issues[0].Detail)
	}

	// The check reports; it never repairs.
	after, _ := svc.Export(context.Background(), "amy")
	if after.Concepts[0].Difficulty != DifficultyHigh {
		t.Error("health check mutated the stored record")
	}
}

func TestSummarize_BucketsAndFocus(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if err := svc.UpsertConcept(ctx, "amy", "fractions", ConceptDelta{Velocity: 90, Interacted: true}); err != nil {
		t.Fatal(err)
	}
	if err := svc.UpsertConcept(ctx, "amy", "decimals", ConceptDelta{Velocity: 50, Interacted: true}); err != nil {
		t.Fatal(err)
	}
	if err := svc.UpsertConcept(ctx, "amy", "ratios", ConceptDelta{Velocity: 10, Interacted: true}); err != nil {
		t.Fatal(err)
	}

	sum, err := svc.GenerateSummary(ctx, "amy")
	if err != nil {
		t.Fatal(err)
	}
	if sum.TotalConcepts != 3 {
		t.Errorf("total = %d, want 3", sum.TotalConcepts)
	}
	if sum.Mastered != 1 || sum.Learning != 1 || sum.Struggling != 1 {
		t.Errorf("buckets = %d/%d/%d, want 1/1/1", sum.Mastered, sum.Learning, sum.Struggling)
	}
	if len(sum.TopStruggles) != 1 || sum.TopStruggles[0] != "ratios" {
		t.Errorf("top struggles = %v, want [ratios]", sum.TopStruggles)
	}
	if sum.Text == "" {
		t.Error("summary text empty")
	}
}

func TestSummarize_EmptyState(t *testing.T) {
	sum := Summarize(NewState("amy"))
	if sum.TotalConcepts != 0 {
		t.Errorf("total = %d, want 0", sum.TotalConcepts)
	}
	if sum.Text != "No concepts tracked yet." {
		t.Errorf("text = %q", sum.Text)
	}
}
