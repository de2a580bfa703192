package domain

import "strings"

// Age bands used by Statistics.ByAgeGroup.
const (
	AgeGroupChild  = "0-17"
	AgeGroup18To29 = "18-29"
	AgeGroup30To39 = "30-39"
	AgeGroup40To49 = "40-49"
	AgeGroup50To59 = "50-59"
	AgeGroupSenior = "60+"
)

// Statistics summarizes a population of pilgrims.
type Statistics struct {
	Total         int
	Arrived       int
	Expected      int
	Departed      int
	NoShow        int
	SpecialNeeds  int
	Male          int
	Female        int
	OccupancyRate float64
	ByNationality map[string]int
	ByAgeGroup    map[string]int
}

// ComputeStatistics folds pilgrims into a Statistics value.
// Unknown statuses count as expected and unknown genders count as male.
func ComputeStatistics(pilgrims []Pilgrim) Statistics {
	st := Statistics{
		Total:         len(pilgrims),
		ByNationality: make(map[string]int),
		ByAgeGroup:    make(map[string]int),
	}

	for _, p := range pilgrims {
		switch PilgrimStatus(strings.ToLower(string(p.Status))) {
		case PilgrimArrived:
			st.Arrived++
		case PilgrimDeparted:
			st.Departed++
		case PilgrimNoShow:
			st.NoShow++
		default:
			st.Expected++
		}

		if p.HasSpecialNeeds {
			st.SpecialNeeds++
		}

		if strings.EqualFold(p.Gender, GenderFemale) {
			st.Female++
		} else {
			st.Male++
		}

		if n := strings.TrimSpace(p.Nationality); n != "" {
			st.ByNationality[n]++
		}

		if group, ok := AgeGroup(p.Age); ok {
			st.ByAgeGroup[group]++
		}
	}

	if st.Total > 0 {
		st.OccupancyRate = float64(st.Arrived) / float64(st.Total) * 100
	}

	return st
}

// AgeGroup returns the band an age falls into. Ages at or below zero are
// treated as unknown.
func AgeGroup(age int) (string, bool) {
	switch {
	case age <= 0:
		return "", false
	case age < 18:
		return AgeGroupChild, true
	case age < 30:
		return AgeGroup18To29, true
	case age < 40:
		return AgeGroup30To39, true
	case age < 50:
		return AgeGroup40To49, true
	case age < 60:
		return AgeGroup50To59, true
	}
	return AgeGroupSenior, true
}

// BedOccupancy counts beds by status.
type BedOccupancy struct {
	Total       int
	Available   int
	Booked      int
	Reserved    int
	Maintenance int
}

// NewBedOccupancy builds a BedOccupancy from per-status counts.
func NewBedOccupancy(counts map[BedStatus]int) BedOccupancy {
	o := BedOccupancy{
		Available:   counts[BedAvailable],
		Booked:      counts[BedBooked],
		Reserved:    counts[BedReserved],
		Maintenance: counts[BedMaintenance],
	}
	for _, n := range counts {
		o.Total += n
	}
	return o
}
