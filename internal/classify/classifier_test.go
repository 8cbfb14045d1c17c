package classify

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mentorloop/sage/internal/llm"
)

func testInput() Input {
	return Input{
		Topic:        "Recursion",
		LastQuestion: "What happens when the base case is missing?",
		Reply:        "The function keeps calling itself until the stack overflows.",
		RecentTurns:  []string{"Tutor: What is recursion?", "Learner: A function calling itself."},
	}
}

func TestClassify_ParsesJudgment(t *testing.T) {
	resp := json.RawMessage(`{"judgment":"understood","confidence":0.92,"reasoning":"Correctly identifies unbounded recursion."}`)
	mock := llm.NewMockProvider(llm.MockResponse{Content: resp})

	c := New(mock, DefaultConfig(), nil)
	result := c.Classify(context.Background(), testInput())

	if result.Judgment != JudgmentUnderstood {
		t.Errorf("judgment = %q, want understood", result.Judgment)
	}
	if result.Confidence != 0.92 {
		t.Errorf("confidence = %v, want 0.92", result.Confidence)
	}
	if result.Fallback {
		t.Error("fallback set on a successful classification")
	}

	req := mock.LastCall()
	if req.Schema == nil || req.Schema.Name != "reply-classification" {
		t.Errorf("request schema = %+v, want reply-classification", req.Schema)
	}
	if !strings.Contains(req.Messages[0].Content, "stack overflows") {
		t.Error("prompt missing the learner reply")
	}
	if !strings.Contains(req.Messages[0].Content, "base case") {
		t.Error("prompt missing the last question")
	}
}

func TestClassify_MisconceptionCarriesDetail(t *testing.T) {
	resp := json.RawMessage(`{"judgment":"misconception","confidence":0.8,"misconception":"Believes recursion always uses less memory than iteration.","reasoning":"States it as fact."}`)
	mock := llm.NewMockProvider(llm.MockResponse{Content: resp})

	result := New(mock, DefaultConfig(), nil).Classify(context.Background(), testInput())
	if result.Judgment != JudgmentMisconception {
		t.Fatalf("judgment = %q", result.Judgment)
	}
	if result.Misconception == "" {
		t.Error("misconception detail missing")
	}
}

func TestClassify_ProviderFailureFallsBack(t *testing.T) {
	mock := llm.NewMockProvider() // empty queue: provider unavailable

	result := New(mock, DefaultConfig(), nil).Classify(context.Background(), testInput())
	if result.Judgment != JudgmentStruggling {
		t.Errorf("judgment = %q, want struggling", result.Judgment)
	}
	if !result.Fallback {
		t.Error("fallback flag not set")
	}
}

func TestClassify_UnparseableFallsBack(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`certainly not json`)})

	result := New(mock, DefaultConfig(), nil).Classify(context.Background(), testInput())
	if result.Judgment != JudgmentStruggling || !result.Fallback {
		t.Errorf("got %+v, want struggling fallback", result)
	}
}

func TestClassify_OutOfSetJudgmentFallsBack(t *testing.T) {
	resp := json.RawMessage(`{"judgment":"brilliant","confidence":1.0,"reasoning":"n/a"}`)
	mock := llm.NewMockProvider(llm.MockResponse{Content: resp})

	result := New(mock, DefaultConfig(), nil).Classify(context.Background(), testInput())
	if result.Judgment != JudgmentStruggling || !result.Fallback {
		t.Errorf("got %+v, want struggling fallback", result)
	}
}

func TestJudgmentValid(t *testing.T) {
	for _, j := range []Judgment{JudgmentUnderstood, JudgmentStruggling, JudgmentMisconception, JudgmentOffTopic} {
		if !j.Valid() {
			t.Errorf("%q should be valid", j)
		}
	}
	if Judgment("confused").Valid() {
		t.Error("out-of-set judgment reported valid")
	}
}
