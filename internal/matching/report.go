package matching

import (
	"errors"
	"fmt"
	"time"
)

// Report summarises one generation run. Skip and write failures are collected here rather than
// aborting the run.
type Report struct {
	RunID       string `json:"run_id"`
	PromptKey   string `json:"prompt_key"`
	DryRun      bool   `json:"dry_run"`
	Respondents int    `json:"respondents"`

	// Skipped holds respondents without a profile or preferences.
	Skipped []string `json:"skipped"`
	// Relaxed holds respondents whose candidates came from the relaxed retry.
	Relaxed []string `json:"relaxed"`
	// Unmatched holds respondents who ended the run with no final match.
	Unmatched []string `json:"unmatched"`

	// Distribution[n] counts respondents with n final matches.
	Distribution    [MaxMatches + 1]int `json:"distribution"`
	MutualPairs     int                 `json:"mutual_pairs"`
	NonMutual       int                 `json:"non_mutual"`
	CapacityDropped []Pair              `json:"capacity_dropped"`

	// Matched counts respondents with at least one final match.
	Matched int `json:"matched"`
	Written int `json:"written"`
	// Cleared counts earlier records for this prompt removed because their owner has no match now.
	Cleared     int          `json:"cleared"`
	WriteErrors []*UserError `json:"write_errors"`

	Final    map[string][]string `json:"final,omitempty"`
	Started  time.Time           `json:"started"`
	Duration time.Duration       `json:"duration"`
}

// Err joins every per-user write error, or returns nil.
func (r *Report) Err() error {
	if len(r.WriteErrors) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.WriteErrors))
	for _, e := range r.WriteErrors {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}

func (r *Report) String() string {
	return fmt.Sprintf(
		"prompt %s: %d respondents, %d matched (0:%d 1:%d 2:%d 3:%d), %d mutual pairs, %d skipped, %d relaxed, %d capacity drops, %d written, %d cleared, %d write errors",
		r.PromptKey, r.Respondents, r.Matched,
		r.Distribution[0], r.Distribution[1], r.Distribution[2], r.Distribution[3],
		r.MutualPairs, len(r.Skipped), len(r.Relaxed), len(r.CapacityDropped),
		r.Written, r.Cleared, len(r.WriteErrors),
	)
}
