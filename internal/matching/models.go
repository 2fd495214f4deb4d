// internal/matching/models.go

package matching

import (
	"time"
)

// MaxMatches is the per-user capacity of a weekly match record.
const MaxMatches = 3

type Year string

const (
	YearFirst    Year = "first"
	YearSecond   Year = "second"
	YearThird    Year = "third"
	YearFourth   Year = "fourth"
	YearGraduate Year = "graduate"
)

// Ordinal returns the position of the year, 0 for unknown values.
func (y Year) Ordinal() int {
	switch y {
	case YearFirst:
		return 1
	case YearSecond:
		return 2
	case YearThird:
		return 3
	case YearFourth:
		return 4
	case YearGraduate:
		return 5
	default:
		return 0
	}
}

type School string

const (
	SchoolPomona  School = "pomona"
	SchoolCMC     School = "cmc"
	SchoolHMC     School = "hmc"
	SchoolScripps School = "scripps"
	SchoolPitzer  School = "pitzer"
)

// AllSchools is the closed set of schools a preference can exclude.
var AllSchools = []School{SchoolPomona, SchoolCMC, SchoolHMC, SchoolScripps, SchoolPitzer}

// AllMajors is the closed set of majors a preference can exclude.
var AllMajors = []string{
	"africana studies", "american studies", "anthropology", "art", "art history",
	"asian american studies", "biology", "chemistry", "chicano latino studies", "classics",
	"cognitive science", "computer science", "dance", "economics", "engineering",
	"english", "environmental analysis", "film and media studies", "french", "gender and women's studies",
	"geology", "german", "government", "history", "international relations",
	"linguistics", "mathematics", "media studies", "molecular biology", "music",
	"neuroscience", "philosophy", "physics", "politics", "psychology",
	"public policy", "religious studies", "sociology", "spanish", "theatre",
}

type Profile struct {
	UserID    string    `json:"user_id" db:"user_id" firestore:"userId" yaml:"user_id"`
	Gender    string    `json:"gender" db:"gender" firestore:"gender" yaml:"gender"`
	BirthDate time.Time `json:"birth_date" db:"birth_date" firestore:"birthDate" yaml:"birth_date"`
	Year      Year      `json:"year" db:"year" firestore:"year" yaml:"year"`
	School    School    `json:"school" db:"school" firestore:"school" yaml:"school"`
	Majors    []string  `json:"majors" db:"majors" firestore:"majors" yaml:"majors"`
	Interests []string  `json:"interests,omitempty" db:"interests" firestore:"interests" yaml:"interests"`
	Clubs     []string  `json:"clubs,omitempty" db:"clubs" firestore:"clubs" yaml:"clubs"`
}

// AgeAt returns the age in whole years on the given day.
func (p *Profile) AgeAt(now time.Time) int {
	if p.BirthDate.IsZero() {
		return 0
	}
	age := now.Year() - p.BirthDate.Year()
	if now.Month() < p.BirthDate.Month() ||
		(now.Month() == p.BirthDate.Month() && now.Day() < p.BirthDate.Day()) {
		age--
	}
	return age
}

type Preferences struct {
	UserID          string   `json:"user_id" db:"user_id" firestore:"userId" yaml:"user_id"`
	Genders         []string `json:"genders" db:"genders" firestore:"genders" yaml:"genders"`
	MinAge          int      `json:"min_age" db:"min_age" firestore:"minAge" yaml:"min_age"`
	MaxAge          int      `json:"max_age" db:"max_age" firestore:"maxAge" yaml:"max_age"`
	Years           []Year   `json:"years" db:"years" firestore:"years" yaml:"years"`
	ExcludedSchools []School `json:"excluded_schools" db:"excluded_schools" firestore:"excludedSchools" yaml:"excluded_schools"`
	ExcludedMajors  []string `json:"excluded_majors" db:"excluded_majors" firestore:"excludedMajors" yaml:"excluded_majors"`
}

// AgeRange returns the accepted range with unset bounds defaulted to 18 and 100.
func (p *Preferences) AgeRange() (int, int) {
	lo, hi := p.MinAge, p.MaxAge
	if lo <= 0 {
		lo = minAge
	}
	if hi <= 0 {
		hi = maxAge
	}
	return lo, hi
}

// UserData bundles what the scorer needs for one respondent. Either pointer may be nil when the
// store has no such record.
type UserData struct {
	Profile     *Profile
	Preferences *Preferences
}

func (u UserData) Complete() bool {
	return u.Profile != nil && u.Preferences != nil
}

type MatchRecord struct {
	UserID    string    `json:"user_id" db:"user_id" firestore:"userId"`
	PromptKey string    `json:"prompt_key" db:"prompt_key" firestore:"promptKey"`
	Matches   []string  `json:"matches" db:"matches" firestore:"matches"`
	Revealed  []bool    `json:"revealed" db:"revealed" firestore:"revealed"`
	CreatedAt time.Time `json:"created_at" db:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" firestore:"updatedAt"`
}

// NewMatchRecord builds a record with every partner unrevealed.
func NewMatchRecord(owner, promptKey string, partners []string) *MatchRecord {
	matches := make([]string, len(partners))
	copy(matches, partners)
	return &MatchRecord{
		UserID:    owner,
		PromptKey: promptKey,
		Matches:   matches,
		Revealed:  make([]bool, len(partners)),
	}
}

func (r *MatchRecord) Contains(userID string) bool {
	for _, id := range r.Matches {
		if id == userID {
			return true
		}
	}
	return false
}

// Append adds partners not already present, never the owner itself, up to MaxMatches. It returns
// how many partners were added.
func (r *MatchRecord) Append(partners ...string) int {
	added := 0
	for _, p := range partners {
		if len(r.Matches) >= MaxMatches {
			break
		}
		if p == "" || p == r.UserID || r.Contains(p) {
			continue
		}
		r.Matches = append(r.Matches, p)
		r.Revealed = append(r.Revealed, false)
		added++
	}
	return added
}

type WriteMode string

const (
	// WriteOverwrite replaces the record, resetting the revealed flags.
	WriteOverwrite WriteMode = "overwrite"
	// WriteAppend merges into an existing record, capped at MaxMatches.
	WriteAppend WriteMode = "append"
)

// KeySet is a set of identity keys.
type KeySet map[string]struct{}

func NewKeySet(ids ...string) KeySet {
	s := make(KeySet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s KeySet) Add(id string) {
	s[id] = struct{}{}
}

func (s KeySet) Has(id string) bool {
	_, ok := s[id]
	return ok
}
