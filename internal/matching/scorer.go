package matching

import (
	"math"
	"strings"
	"time"
)

const (
	compatibilityThreshold = 40.0
	strongInterestScore    = 70.0
	strongInterestBonus    = 1.1
)

// Scorer computes preference and attractiveness scores between two respondents. All scores are
// taken relative to a fixed reference time so repeated calls agree.
type Scorer interface {
	PreferenceMatchScore(candidate *Profile, viewer *Preferences, relaxed bool) float64
	MutualScore(a *Profile, prefsA *Preferences, b *Profile, prefsB *Preferences, relaxed bool) float64
	IsMutuallyCompatible(a *Profile, prefsA *Preferences, b *Profile, prefsB *Preferences, relaxed bool) bool
	AttractivenessScore(a, b *Profile) float64
}

type scorer struct {
	now time.Time
}

func NewScorer(now time.Time) Scorer {
	return &scorer{now: now}
}

func (s *scorer) PreferenceMatchScore(candidate *Profile, viewer *Preferences, relaxed bool) float64 {
	return PolicyFor(relaxed).PreferenceScore(candidate, viewer, s.now)
}

func (s *scorer) MutualScore(a *Profile, prefsA *Preferences, b *Profile, prefsB *Preferences, relaxed bool) float64 {
	policy := PolicyFor(relaxed)

	ab := policy.PreferenceScore(b, prefsA, s.now)
	ba := policy.PreferenceScore(a, prefsB, s.now)
	if ab == 0 || ba == 0 {
		return 0
	}

	score := (ab + ba) / 2
	if ab > strongInterestScore && ba > strongInterestScore {
		score = math.Min(fullScore, score*strongInterestBonus)
	}
	return score
}

func (s *scorer) IsMutuallyCompatible(a *Profile, prefsA *Preferences, b *Profile, prefsB *Preferences, relaxed bool) bool {
	return s.MutualScore(a, prefsA, b, prefsB, relaxed) > compatibilityThreshold
}

func (s *scorer) AttractivenessScore(a, b *Profile) float64 {
	score := 0.0

	if a.School != "" && a.School == b.School {
		score += 20
	}

	score += math.Min(15, 5*float64(countShared(a.Majors, b.Majors)))

	if ya, yb := a.Year.Ordinal(), b.Year.Ordinal(); ya > 0 && yb > 0 {
		score += math.Max(0, 15-3*math.Abs(float64(ya-yb)))
	}

	ageDiff := a.AgeAt(s.now) - b.AgeAt(s.now)
	score += math.Max(0, 15-2*math.Abs(float64(ageDiff)))

	score += math.Min(20, 4*float64(countShared(a.Interests, b.Interests)))
	score += math.Min(15, 5*float64(countShared(a.Clubs, b.Clubs)))

	return score
}

// countShared counts distinct case-insensitive tags present in both lists.
func countShared(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(KeySet, len(a))
	for _, v := range a {
		set.Add(strings.ToLower(strings.TrimSpace(v)))
	}

	seen := make(KeySet, len(b))
	count := 0
	for _, v := range b {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" || seen.Has(key) {
			continue
		}
		seen.Add(key)
		if set.Has(key) {
			count++
		}
	}
	return count
}
