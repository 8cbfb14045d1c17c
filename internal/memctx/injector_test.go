package memctx

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mentorloop/sage/internal/knowledge"
	"github.com/mentorloop/sage/internal/store"
)

func newTestInjector() (*Injector, *knowledge.Service, *store.Memory) {
	kv := store.NewMemory()
	svc := knowledge.NewService(kv, nil)
	return New(svc, nil), svc, kv
}

func TestContext_EmptyForNewLearner(t *testing.T) {
	inj, _, _ := newTestInjector()
	if got := inj.Context(context.Background(), "amy"); got != "" {
		t.Errorf("context for untracked learner = %q, want empty", got)
	}
}

func TestContext_IncludesSummaryAndStruggles(t *testing.T) {
	inj, svc, _ := newTestInjector()
	ctx := context.Background()

	if err := svc.UpsertConcept(ctx, "amy", "fractions", knowledge.ConceptDelta{Velocity: 20, Interacted: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.DetectRecurringStruggles(ctx, "amy"); err != nil {
		t.Fatal(err)
	}

	out := inj.Context(ctx, "amy")
	if !strings.HasPrefix(out, "LEARNER CONTEXT:") {
		t.Fatalf("output = %q, want LEARNER CONTEXT prefix", out)
	}
	if !strings.Contains(out, "1 concepts tracked") {
		t.Errorf("missing summary line: %q", out)
	}
	if !strings.Contains(out, "Recurring struggles") {
		t.Errorf("missing struggles section: %q", out)
	}
}

func TestContext_EmptyForOptedOut(t *testing.T) {
	inj, svc, _ := newTestInjector()
	ctx := context.Background()

	if err := svc.UpsertConcept(ctx, "amy", "fractions", knowledge.ConceptDelta{Velocity: 50, Interacted: true}); err != nil {
		t.Fatal(err)
	}
	if err := svc.SetOptOut(ctx, "amy", true); err != nil {
		t.Fatal(err)
	}
	if got := inj.Context(ctx, "amy"); got != "" {
		t.Errorf("context for opted-out learner = %q, want empty", got)
	}
}

func TestContext_FailsOpenOnStoreError(t *testing.T) {
	inj, _, kv := newTestInjector()
	kv.FailNext = errors.New("disk gone")
	if got := inj.Context(context.Background(), "amy"); got != "" {
		t.Errorf("context on store failure = %q, want empty", got)
	}
}

func TestFormat_Truncated(t *testing.T) {
	st := knowledge.NewState("amy")
	long := strings.Repeat("x", 500)
	for i := 0; i < 30; i++ {
		st.StrugglePatterns = append(st.StrugglePatterns, knowledge.StrugglePattern{
			Pattern: long, Occurrences: i + 1,
		})
	}
	st.Concepts = append(st.Concepts, &knowledge.ConceptRecord{
		Name: "fractions", Level: knowledge.LevelLearning,
	})

	out := Format(st)
	if len(out) > 1200 {
		t.Errorf("formatted context is %d chars, want <= 1200", len(out))
	}
}
