package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreferenceScoreGenderIsHardFilter(t *testing.T) {
	t.Parallel()

	candidate := newProfile("c", "male", 21)
	viewer := wants("v", "female")

	for _, policy := range []Policy{StrictPolicy{}, RelaxedPolicy{}} {
		assert.Zero(t, policy.PreferenceScore(candidate, viewer, testNow), policy.Name())
	}
}

func TestPreferenceScoreEmptyGendersAcceptsAnyone(t *testing.T) {
	t.Parallel()

	candidate := newProfile("c", "nonbinary", 21)
	assert.Equal(t, 100.0, StrictPolicy{}.PreferenceScore(candidate, wants("v"), testNow))
}

func TestStrictPenalties(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		age    int
		prefs  Preferences
		expect float64
	}{
		{
			name:   "everything satisfied",
			age:    22,
			prefs:  Preferences{Genders: []string{"female"}, MinAge: 18, MaxAge: 25},
			expect: 100,
		},
		{
			name:   "age outside range",
			age:    30,
			prefs:  Preferences{Genders: []string{"female"}, MinAge: 18, MaxAge: 25},
			expect: 70,
		},
		{
			name:   "year not accepted",
			age:    22,
			prefs:  Preferences{Genders: []string{"female"}, Years: []Year{YearFourth}},
			expect: 80,
		},
		{
			name:   "school excluded",
			age:    22,
			prefs:  Preferences{Genders: []string{"female"}, ExcludedSchools: []School{SchoolPomona}},
			expect: 75,
		},
		{
			name:   "major excluded",
			age:    22,
			prefs:  Preferences{Genders: []string{"female"}, ExcludedMajors: []string{"economics"}},
			expect: 75,
		},
		{
			name: "every penalty clamps at zero floor",
			age:  22,
			prefs: Preferences{
				Genders:         []string{"female"},
				MinAge:          40,
				MaxAge:          50,
				Years:           []Year{YearFourth},
				ExcludedSchools: []School{SchoolPomona},
				ExcludedMajors:  []string{"economics"},
			},
			expect: 0,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			candidate := newProfile("c", "female", tt.age)
			assert.Equal(t, tt.expect, StrictPolicy{}.PreferenceScore(candidate, &tt.prefs, testNow))
		})
	}
}

func TestAgeRangeScenario(t *testing.T) {
	t.Parallel()

	viewer := &Preferences{Genders: []string{"female"}, MinAge: 18, MaxAge: 25}

	// Strict: 30 is outside [18,25].
	assert.Equal(t, 70.0, StrictPolicy{}.PreferenceScore(newProfile("c", "female", 30), viewer, testNow))

	// Relaxed widens to [18,27]; the lower bound never drops below 18.
	lo, hi := widenAgeRange(viewer.AgeRange())
	assert.Equal(t, 18, lo)
	assert.Equal(t, 27, hi)

	assert.Equal(t, 85.0, RelaxedPolicy{}.PreferenceScore(newProfile("c", "female", 26), viewer, testNow))
	assert.Equal(t, 85.0, RelaxedPolicy{}.PreferenceScore(newProfile("c", "female", 27), viewer, testNow))
	assert.Zero(t, RelaxedPolicy{}.PreferenceScore(newProfile("c", "female", 30), viewer, testNow))
	assert.Equal(t, 100.0, RelaxedPolicy{}.PreferenceScore(newProfile("c", "female", 24), viewer, testNow))
}

func TestRelaxedIgnoresYearSchoolAndMajor(t *testing.T) {
	t.Parallel()

	viewer := &Preferences{
		Genders:         []string{"female"},
		Years:           []Year{YearFourth},
		ExcludedSchools: []School{SchoolPomona},
		ExcludedMajors:  []string{"economics"},
	}
	candidate := newProfile("c", "female", 22)

	assert.Equal(t, 30.0, StrictPolicy{}.PreferenceScore(candidate, viewer, testNow))
	assert.Equal(t, 100.0, RelaxedPolicy{}.PreferenceScore(candidate, viewer, testNow))
}

func TestExcludingEverySchoolFiltersNothing(t *testing.T) {
	t.Parallel()

	candidate := newProfile("c", "female", 22)
	all := &Preferences{Genders: []string{"female"}, ExcludedSchools: append([]School(nil), AllSchools...)}
	none := &Preferences{Genders: []string{"female"}}

	assert.Equal(t,
		StrictPolicy{}.PreferenceScore(candidate, none, testNow),
		StrictPolicy{}.PreferenceScore(candidate, all, testNow),
	)
	assert.Equal(t, 100.0, StrictPolicy{}.PreferenceScore(candidate, all, testNow))
}

func TestExcludingEveryMajorFiltersNothing(t *testing.T) {
	t.Parallel()

	candidate := newProfile("c", "female", 22)
	all := &Preferences{Genders: []string{"female"}, ExcludedMajors: append([]string(nil), AllMajors...)}

	assert.Equal(t, 100.0, StrictPolicy{}.PreferenceScore(candidate, all, testNow))
}

func TestStrictScoreIsMonotonic(t *testing.T) {
	t.Parallel()

	candidate := newProfile("c", "female", 30)
	steps := []func(*Preferences){
		func(p *Preferences) { p.MinAge, p.MaxAge = 18, 25 },
		func(p *Preferences) { p.Years = []Year{YearFirst} },
		func(p *Preferences) { p.ExcludedSchools = []School{SchoolPomona} },
		func(p *Preferences) { p.ExcludedMajors = []string{"economics"} },
	}

	prefs := &Preferences{Genders: []string{"female"}}
	last := StrictPolicy{}.PreferenceScore(candidate, prefs, testNow)
	for _, apply := range steps {
		apply(prefs)
		score := StrictPolicy{}.PreferenceScore(candidate, prefs, testNow)
		assert.LessOrEqual(t, score, last)
		last = score
	}

	// Moving the candidate out of an excluded school never lowers the score.
	excluded := StrictPolicy{}.PreferenceScore(candidate, prefs, testNow)
	moved := *candidate
	moved.School = SchoolHMC
	assert.GreaterOrEqual(t, StrictPolicy{}.PreferenceScore(&moved, prefs, testNow), excluded)
}

func TestUnsetAgeBoundsDefault(t *testing.T) {
	t.Parallel()

	lo, hi := (&Preferences{}).AgeRange()
	assert.Equal(t, 18, lo)
	assert.Equal(t, 100, hi)

	lo, hi = (&Preferences{MinAge: 21}).AgeRange()
	assert.Equal(t, 21, lo)
	assert.Equal(t, 100, hi)
}

func TestPolicyFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "strict", PolicyFor(false).Name())
	assert.False(t, PolicyFor(false).Relaxed())
	assert.Equal(t, "relaxed", PolicyFor(true).Name())
	assert.True(t, PolicyFor(true).Relaxed())
}
