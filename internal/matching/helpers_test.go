package matching

import (
	"time"
)

var testNow = time.Date(2026, time.October, 12, 12, 0, 0, 0, time.UTC)

// bornYearsAgo returns a birth date that makes someone exactly age years old at testNow.
func bornYearsAgo(age int) time.Time {
	return testNow.AddDate(-age, 0, -1)
}

func newProfile(id, gender string, age int) *Profile {
	return &Profile{
		UserID:    id,
		Gender:    gender,
		BirthDate: bornYearsAgo(age),
		Year:      YearSecond,
		School:    SchoolPomona,
		Majors:    []string{"economics"},
	}
}

func wants(id string, genders ...string) *Preferences {
	return &Preferences{UserID: id, Genders: genders}
}

func user(id, gender string, age int, seeking ...string) UserData {
	return UserData{Profile: newProfile(id, gender, age), Preferences: wants(id, seeking...)}
}
