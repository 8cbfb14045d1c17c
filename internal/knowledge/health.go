package knowledge

import (
	"context"
	"fmt"
)

// Issue is one invariant violation found by HealthCheck.
type Issue struct {
	Concept string `json:"concept"`
	Detail  string `json:"detail"`
}

// HealthCheck scans a learner's concepts for data-invariant violations:
// out-of-range mastery scores, mastered records below the mastery
// threshold, and the contradictory mastered + high-difficulty pairing.
// Read-only and non-mutating; violations are reported, never
// auto-corrected, because the corrective intent is ambiguous.
func (s *Service) HealthCheck(ctx context.Context, learnerID string) ([]Issue, error) {
	st, err := s.GetOrCreate(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	var issues []Issue
	for _, rec := range st.Concepts {
		if rec.MasteryScore < 0 || rec.MasteryScore > 100 {
			issues = append(issues, Issue{
				Concept: rec.Name,
				Detail:  fmt.Sprintf("mastery score %d out of range [0,100]", rec.MasteryScore),
			})
		}
		if rec.Level == LevelMastered {
			if rec.MasteryScore < MasteryThreshold {
				issues = append(issues, Issue{
					Concept: rec.Name,
					Detail: fmt.Sprintf("marked mastered but score %d is below the threshold %d",
						rec.MasteryScore, MasteryThreshold),
				})
			}
			if rec.Difficulty == DifficultyHigh {
				issues = append(issues, Issue{
					Concept: rec.Name,
					Detail:  "marked mastered while difficulty is still high; contradictory and must be reconciled",
				})
			}
		}
	}
	return issues, nil
}
