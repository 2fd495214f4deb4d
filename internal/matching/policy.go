package matching

import (
	"time"
)

const (
	minAge = 18
	maxAge = 100

	fullScore = 100.0

	strictAgePenalty   = 30.0
	relaxedAgePenalty  = 15.0
	relaxedAgeWidening = 2
	yearPenalty        = 20.0
	schoolPenalty      = 25.0
	majorPenalty       = 25.0
)

// Policy scores how well a candidate satisfies a viewer's preferences, in [0,100].
// A score of 0 is a hard fail.
type Policy interface {
	Name() string
	Relaxed() bool
	PreferenceScore(candidate *Profile, viewer *Preferences, now time.Time) float64
}

// StrictPolicy enforces every soft filter: age, year, school and major.
type StrictPolicy struct{}

func (StrictPolicy) Name() string  { return "strict" }
func (StrictPolicy) Relaxed() bool { return false }

func (StrictPolicy) PreferenceScore(candidate *Profile, viewer *Preferences, now time.Time) float64 {
	if !acceptsGender(viewer, candidate.Gender) {
		return 0
	}

	score := fullScore

	age := candidate.AgeAt(now)
	lo, hi := viewer.AgeRange()
	if age < lo || age > hi {
		score -= strictAgePenalty
	}

	if len(viewer.Years) > 0 && !containsYear(viewer.Years, candidate.Year) {
		score -= yearPenalty
	}

	if schoolFilterActive(viewer.ExcludedSchools) && containsSchool(viewer.ExcludedSchools, candidate.School) {
		score -= schoolPenalty
	}

	if majorFilterActive(viewer.ExcludedMajors) && anyMajorExcluded(viewer.ExcludedMajors, candidate.Majors) {
		score -= majorPenalty
	}

	return clampScore(score)
}

// RelaxedPolicy widens the age range by two years on each side and ignores year, school and
// major filters. Gender stays a hard filter.
type RelaxedPolicy struct{}

func (RelaxedPolicy) Name() string  { return "relaxed" }
func (RelaxedPolicy) Relaxed() bool { return true }

func (RelaxedPolicy) PreferenceScore(candidate *Profile, viewer *Preferences, now time.Time) float64 {
	if !acceptsGender(viewer, candidate.Gender) {
		return 0
	}

	score := fullScore

	age := candidate.AgeAt(now)
	lo, hi := viewer.AgeRange()
	wideLo, wideHi := widenAgeRange(lo, hi)
	if age < wideLo || age > wideHi {
		return 0
	}
	if age < lo || age > hi {
		score -= relaxedAgePenalty
	}

	return clampScore(score)
}

// PolicyFor returns the relaxed policy when relaxed is set, the strict one otherwise.
func PolicyFor(relaxed bool) Policy {
	if relaxed {
		return RelaxedPolicy{}
	}
	return StrictPolicy{}
}

func widenAgeRange(lo, hi int) (int, int) {
	lo -= relaxedAgeWidening
	hi += relaxedAgeWidening
	if lo < minAge {
		lo = minAge
	}
	if hi > maxAge {
		hi = maxAge
	}
	return lo, hi
}

func acceptsGender(viewer *Preferences, gender string) bool {
	if len(viewer.Genders) == 0 {
		return true
	}
	for _, g := range viewer.Genders {
		if g == gender {
			return true
		}
	}
	return false
}

func containsYear(years []Year, y Year) bool {
	for _, v := range years {
		if v == y {
			return true
		}
	}
	return false
}

// An exclusion list that names every school filters nothing.
func schoolFilterActive(excluded []School) bool {
	return len(excluded) > 0 && len(excluded) != len(AllSchools)
}

func majorFilterActive(excluded []string) bool {
	return len(excluded) > 0 && len(excluded) != len(AllMajors)
}

func containsSchool(schools []School, s School) bool {
	for _, v := range schools {
		if v == s {
			return true
		}
	}
	return false
}

func anyMajorExcluded(excluded, majors []string) bool {
	if len(majors) == 0 {
		return false
	}
	set := NewKeySet(excluded...)
	for _, m := range majors {
		if set.Has(m) {
			return true
		}
	}
	return false
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	return score
}
