package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/mentorloop/sage/internal/llm"
)

// weakGapThreshold splits the two suggestion paths: a gap scoring below
// it earns a remedial study plan, otherwise the learner gets a deeper
// follow-up on the session's own topic.
const weakGapThreshold = 0.6

// suggest produces the single study suggestion for a finished session.
func (s *Service) suggest(ctx context.Context, topic string, analysis *Analysis) *Suggestion {
	if weakest, ok := weakestGap(analysis.Gaps); ok && weakest.Score < weakGapThreshold {
		sug := &Suggestion{
			Kind:   SuggestionStudyPlan,
			Topic:  weakest.Concept,
			Reason: fmt.Sprintf("Understanding of %s looked shaky this session; a short structured review should firm it up.", weakest.Concept),
		}
		sug.Plan = s.buildPlan(ctx, weakest)
		return sug
	}

	return &Suggestion{
		Kind:   SuggestionFollowUp,
		Topic:  topic,
		Reason: fmt.Sprintf("The session on %s went well; a deeper pass would consolidate it.", topic),
	}
}

func weakestGap(gaps []Gap) (Gap, bool) {
	candidates := make([]Gap, 0, len(gaps))
	for _, g := range gaps {
		if strings.TrimSpace(g.Concept) != "" {
			candidates = append(candidates, g)
		}
	}
	if len(candidates) == 0 {
		return Gap{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score < candidates[j].Score
	})
	return candidates[0], true
}

// buildPlan asks the collaborator for a short module outline targeting
// the weak concept. Outline generation is best effort: on failure the
// suggestion simply carries no plan.
func (s *Service) buildPlan(ctx context.Context, gap Gap) []PlanModule {
	ctx = llm.WithPurpose(ctx, "study-plan")

	userMsg := fmt.Sprintf(
		"The learner needs a short remedial study plan for %q. Their demonstrated understanding scored %.1f out of 1.0.",
		gap.Concept, gap.Score)
	if gap.Evidence != "" {
		userMsg += fmt.Sprintf(" Evidence of the gap: %s", gap.Evidence)
	}

	resp, err := s.provider.Generate(ctx, llm.Request{
		System: planSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userMsg},
		},
		Schema:    planSchema,
		MaxTokens: s.cfg.MaxTokens,
	})
	if err != nil {
		s.log.Warn("study-plan outline skipped", zap.String("concept", gap.Concept), zap.Error(err))
		return nil
	}

	var out struct {
		Modules []PlanModule `json:"modules"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		s.log.Warn("unparseable study-plan outline", zap.Error(err))
		return nil
	}
	return out.Modules
}

const planSystemPrompt = `You design short remedial study plans for one-on-one tutoring.

Produce two to four modules, ordered from prerequisite to goal, each with a one-line description and two or three subtopics. Keep the whole plan achievable in a week of short sessions.`
