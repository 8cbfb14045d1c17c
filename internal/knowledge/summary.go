package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Summary is the computed read-only view of a learner's standing, used
// by the API surface and the memory injector.
type Summary struct {
	LearnerID string `json:"learner_id"`

	TotalConcepts int `json:"total_concepts"`
	Mastered      int `json:"mastered"`
	Learning      int `json:"learning"`
	Struggling    int `json:"struggling"`
	NotExposed    int `json:"not_exposed"`

	// FocusAreas is the top 3 most recently active non-mastered concepts.
	FocusAreas []string `json:"focus_areas,omitempty"`

	// TopStruggles is the top 3 weakest concepts by score.
	TopStruggles []string `json:"top_struggles,omitempty"`

	Profile LearningProfile `json:"profile"`

	Text string `json:"text"`
}

// GenerateSummary computes counts and top-3 focus/struggle lists.
// Pure read: it never mutates stored state.
func (s *Service) GenerateSummary(ctx context.Context, learnerID string) (*Summary, error) {
	st, err := s.GetOrCreate(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	return Summarize(st), nil
}

// Summarize builds a Summary from an already-loaded state.
func Summarize(st *State) *Summary {
	sum := &Summary{
		LearnerID: st.LearnerID,
		Profile:   st.Profile,
	}

	var active, weak []*ConceptRecord
	for _, rec := range st.Concepts {
		sum.TotalConcepts++
		switch rec.Level {
		case LevelMastered:
			sum.Mastered++
		case LevelComfortable, LevelLearning:
			sum.Learning++
			active = append(active, rec)
		case LevelStruggling:
			sum.Struggling++
			active = append(active, rec)
			weak = append(weak, rec)
		default:
			sum.NotExposed++
		}
	}

	// Most recently touched first.
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].LastInteraction.After(active[j].LastInteraction)
	})
	for _, rec := range active[:min(3, len(active))] {
		sum.FocusAreas = append(sum.FocusAreas, rec.Name)
	}

	// Weakest first.
	sort.SliceStable(weak, func(i, j int) bool {
		return weak[i].MasteryScore < weak[j].MasteryScore
	})
	for _, rec := range weak[:min(3, len(weak))] {
		sum.TopStruggles = append(sum.TopStruggles, rec.Name)
	}

	sum.Text = summaryText(sum)
	return sum
}

func summaryText(sum *Summary) string {
	if sum.TotalConcepts == 0 {
		return "No concepts tracked yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d concepts tracked: %d mastered, %d in progress, %d struggling.",
		sum.TotalConcepts, sum.Mastered, sum.Learning, sum.Struggling)
	if len(sum.FocusAreas) > 0 {
		fmt.Fprintf(&b, " Current focus: %s.", strings.Join(sum.FocusAreas, ", "))
	}
	if len(sum.TopStruggles) > 0 {
		fmt.Fprintf(&b, " Needs work: %s.", strings.Join(sum.TopStruggles, ", "))
	}
	return b.String()
}
