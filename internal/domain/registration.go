package domain

import (
	"fmt"
	"strconv"
	"time"
)

// hijriOffset approximates the Hijri year from the Gregorian year.
const hijriOffset = 579

const (
	registrationPrefix = "H"
	sequenceDigits     = 6
)

// HijriYear returns the Hijri year used as the registration number prefix.
func HijriYear(t time.Time) int {
	return t.Year() - hijriOffset
}

// FormatRegistrationNumber renders H<hijriYear><6-digit sequence>.
func FormatRegistrationNumber(hijriYear, sequence int) string {
	return fmt.Sprintf("%s%d%0*d", registrationPrefix, hijriYear, sequenceDigits, sequence)
}

// RegistrationSequence extracts the numeric suffix of a registration number.
func RegistrationSequence(regNo string) (int, error) {
	if len(regNo) < sequenceDigits {
		return 0, &ValidationError{Field: "registration_number", Msg: fmt.Sprintf("%q is too short", regNo)}
	}
	seq, err := strconv.Atoi(regNo[len(regNo)-sequenceDigits:])
	if err != nil {
		return 0, &ValidationError{Field: "registration_number", Msg: fmt.Sprintf("%q has no numeric sequence", regNo)}
	}
	return seq, nil
}
