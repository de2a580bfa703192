package domain

import (
	"strings"
	"time"
)

// PilgrimStatus tracks a pilgrim's presence at the camp.
type PilgrimStatus string

const (
	PilgrimExpected PilgrimStatus = "expected"
	PilgrimArrived  PilgrimStatus = "arrived"
	PilgrimDeparted PilgrimStatus = "departed"
	PilgrimNoShow   PilgrimStatus = "no_show"
)

// Gender values stored on pilgrims.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Pilgrim is a person housed by the camp. RegistrationNumber is generated
// once on registration and never changes afterwards.
type Pilgrim struct {
	ID                 int64
	RegistrationNumber string
	NationalID         string
	PassportNumber     string
	FirstName          string
	LastName           string
	Gender             string
	Age                int
	Nationality        string
	Phone              string
	Status             PilgrimStatus
	HasSpecialNeeds    bool
	SpecialNeedsType   string
	SpecialNeedsNotes  string
	Notes              string
	AgencyID           *int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NormalizeGender maps free-form input to "male" or "female".
// Anything that is not recognizably female is stored as male.
func NormalizeGender(g string) string {
	switch strings.ToLower(strings.TrimSpace(g)) {
	case "female", "f":
		return GenderFemale
	}
	return GenderMale
}

// NormalizePilgrimStatus maps free-form input, including legacy aliases,
// to a known status. Unknown input becomes expected.
func NormalizePilgrimStatus(s string) PilgrimStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "arrived":
		return PilgrimArrived
	case "departed":
		return PilgrimDeparted
	case "no_show", "no-show", "cancelled":
		return PilgrimNoShow
	}
	return PilgrimExpected
}
