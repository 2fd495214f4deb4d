// internal/matching/admin.go

package matching

import (
	"context"
	"fmt"
	"time"
)

// PromptStats summarises the stored records of one prompt.
type PromptStats struct {
	PromptKey     string              `json:"prompt_key"`
	Records       int                 `json:"records"`
	Pairs         int                 `json:"pairs"`
	Distribution  [MaxMatches + 1]int `json:"distribution"`
	Revealed      int                 `json:"revealed"`
	RevealRate    float64             `json:"reveal_rate"`
	AverageShown  float64             `json:"average_matches"`
	LastUpdated   time.Time           `json:"last_updated"`
	MutualityOK   bool                `json:"mutuality_ok"`
	MutualityErrs int                 `json:"mutuality_errors"`
}

func (s *service) GetPromptStats(ctx context.Context, promptKey string) (*PromptStats, error) {
	if promptKey == "" {
		return nil, ErrInvalidPrompt
	}

	records, err := s.repo.ListMatchRecords(ctx, promptKey)
	if err != nil {
		return nil, fmt.Errorf("listing match records: %w", err)
	}
	return ComputePromptStats(promptKey, records), nil
}

// ComputePromptStats counts partners, reveals and the 0..3 distribution over records.
// Pairs counts each partner slot once per side, halved.
func ComputePromptStats(promptKey string, records []*MatchRecord) *PromptStats {
	stats := &PromptStats{PromptKey: promptKey, Records: len(records)}

	slots := 0
	for _, r := range records {
		n := len(r.Matches)
		if n > MaxMatches {
			n = MaxMatches
		}
		stats.Distribution[n]++
		slots += len(r.Matches)
		for _, revealed := range r.Revealed {
			if revealed {
				stats.Revealed++
			}
		}
		if r.UpdatedAt.After(stats.LastUpdated) {
			stats.LastUpdated = r.UpdatedAt
		}
	}

	stats.Pairs = slots / 2
	if slots > 0 {
		stats.RevealRate = float64(stats.Revealed) / float64(slots)
	}
	if len(records) > 0 {
		stats.AverageShown = float64(slots) / float64(len(records))
	}

	check := CheckMutuality(promptKey, records)
	stats.MutualityOK = check.IsValid
	stats.MutualityErrs = len(check.Errors)
	return stats
}
