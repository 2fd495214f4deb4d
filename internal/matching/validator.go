package matching

import (
	"context"
	"fmt"
	"strings"
)

// ValidationResult lists mutuality and integrity problems found in stored records.
type ValidationResult struct {
	PromptKey string   `json:"prompt_key"`
	Records   int      `json:"records"`
	IsValid   bool     `json:"is_valid"`
	Errors    []string `json:"errors"`
}

func (v *ValidationResult) addf(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
	v.IsValid = false
}

func (v *ValidationResult) String() string {
	if v.IsValid {
		return fmt.Sprintf("prompt %s: %d records, all mutual", v.PromptKey, v.Records)
	}
	return fmt.Sprintf("prompt %s: %d records, %d problems:\n  %s",
		v.PromptKey, v.Records, len(v.Errors), strings.Join(v.Errors, "\n  "))
}

// MutualityValidator re-reads a prompt's stored records and checks that every pairing is present on
// both sides. Problems it finds come from outside the generator, such as manual edits.
type MutualityValidator struct {
	store RecordStore
}

func NewMutualityValidator(store RecordStore) *MutualityValidator {
	return &MutualityValidator{store: store}
}

func (v *MutualityValidator) Validate(ctx context.Context, promptKey string) (*ValidationResult, error) {
	if promptKey == "" {
		return nil, ErrInvalidPrompt
	}

	records, err := v.store.ListMatchRecords(ctx, promptKey)
	if err != nil {
		return nil, fmt.Errorf("listing match records: %w", err)
	}
	return CheckMutuality(promptKey, records), nil
}

// CheckMutuality validates a set of records belonging to one prompt.
func CheckMutuality(promptKey string, records []*MatchRecord) *ValidationResult {
	result := &ValidationResult{PromptKey: promptKey, Records: len(records), IsValid: true, Errors: []string{}}

	byOwner := make(map[string]*MatchRecord, len(records))
	for _, r := range records {
		if _, dup := byOwner[r.UserID]; dup {
			result.addf("%s: more than one record", r.UserID)
			continue
		}
		byOwner[r.UserID] = r
	}

	for _, r := range records {
		if byOwner[r.UserID] != r {
			continue
		}
		if len(r.Matches) > MaxMatches {
			result.addf("%s: %d matches exceeds capacity %d", r.UserID, len(r.Matches), MaxMatches)
		}
		if len(r.Matches) != len(r.Revealed) {
			result.addf("%s: %d matches but %d revealed flags", r.UserID, len(r.Matches), len(r.Revealed))
		}

		seen := make(KeySet, len(r.Matches))
		for i, partner := range r.Matches {
			switch {
			case partner == "":
				result.addf("%s: empty match at index %d", r.UserID, i)
				continue
			case partner == r.UserID:
				result.addf("%s: matched with self at index %d", r.UserID, i)
				continue
			case seen.Has(partner):
				result.addf("%s: %s listed more than once", r.UserID, partner)
				continue
			}
			seen.Add(partner)

			other, ok := byOwner[partner]
			if !ok {
				result.addf("%s -> %s: %s has no record", r.UserID, partner, partner)
				continue
			}
			if !other.Contains(r.UserID) {
				result.addf("%s -> %s: %s does not list %s", r.UserID, partner, partner, r.UserID)
			}
		}
	}
	return result
}
