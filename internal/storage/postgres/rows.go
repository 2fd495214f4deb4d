package postgres

import (
	"database/sql"
	"time"

	"github.com/imadgeboyega/kiekky-weekly/internal/matching"
	"github.com/lib/pq"
)

type profileRow struct {
	UserID    string         `db:"user_id"`
	Gender    string         `db:"gender"`
	BirthDate sql.NullTime   `db:"birth_date"`
	Year      string         `db:"year"`
	School    string         `db:"school"`
	Majors    pq.StringArray `db:"majors"`
	Interests pq.StringArray `db:"interests"`
	Clubs     pq.StringArray `db:"clubs"`
}

func (r *profileRow) toProfile() *matching.Profile {
	p := &matching.Profile{
		UserID:    r.UserID,
		Gender:    r.Gender,
		Year:      matching.Year(r.Year),
		School:    matching.School(r.School),
		Majors:    []string(r.Majors),
		Interests: []string(r.Interests),
		Clubs:     []string(r.Clubs),
	}
	if r.BirthDate.Valid {
		p.BirthDate = r.BirthDate.Time
	}
	return p
}

type preferencesRow struct {
	UserID          string         `db:"user_id"`
	Genders         pq.StringArray `db:"genders"`
	MinAge          int            `db:"min_age"`
	MaxAge          int            `db:"max_age"`
	Years           pq.StringArray `db:"years"`
	ExcludedSchools pq.StringArray `db:"excluded_schools"`
	ExcludedMajors  pq.StringArray `db:"excluded_majors"`
}

func (r *preferencesRow) toPreferences() *matching.Preferences {
	p := &matching.Preferences{
		UserID:         r.UserID,
		Genders:        []string(r.Genders),
		MinAge:         r.MinAge,
		MaxAge:         r.MaxAge,
		ExcludedMajors: []string(r.ExcludedMajors),
	}
	for _, y := range r.Years {
		p.Years = append(p.Years, matching.Year(y))
	}
	for _, s := range r.ExcludedSchools {
		p.ExcludedSchools = append(p.ExcludedSchools, matching.School(s))
	}
	return p
}

type matchRow struct {
	UserID    string         `db:"user_id"`
	PromptKey string         `db:"prompt_key"`
	Matches   pq.StringArray `db:"matches"`
	Revealed  pq.BoolArray   `db:"revealed"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r *matchRow) toRecord() *matching.MatchRecord {
	return &matching.MatchRecord{
		UserID:    r.UserID,
		PromptKey: r.PromptKey,
		Matches:   append([]string{}, r.Matches...),
		Revealed:  append([]bool{}, r.Revealed...),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type blockRow struct {
	BlockerID string `db:"blocker_id"`
	BlockedID string `db:"blocked_id"`
}

// expandBlocks turns directed block rows into symmetric sets keyed by the ids in wanted.
func expandBlocks(rows []blockRow, wanted matching.KeySet) map[string]matching.KeySet {
	out := make(map[string]matching.KeySet)
	add := func(owner, other string) {
		if !wanted.Has(owner) {
			return
		}
		set, ok := out[owner]
		if !ok {
			set = make(matching.KeySet)
			out[owner] = set
		}
		set.Add(other)
	}
	for _, b := range rows {
		add(b.BlockerID, b.BlockedID)
		add(b.BlockedID, b.BlockerID)
	}
	return out
}
