package domain

import "time"

// TentType restricts which pilgrims a tent is meant to house.
type TentType string

const (
	TentMale   TentType = "male"
	TentFemale TentType = "female"
)

// Tent is a physical accommodation unit (tent or hall) subdivided into beds.
// Capacity is the target bed count; the actual number of beds may stay above
// it after a reduction that could not remove occupied beds.
type Tent struct {
	ID        int64
	Name      string
	Code      string
	Type      TentType
	Capacity  int
	Location  string
	AgencyID  *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTent builds a tent. An empty location falls back to the tent name.
func NewTent(name, code string, typ TentType, capacity int, location string, agencyID *int64) Tent {
	if location == "" {
		location = name
	}
	now := time.Now().UTC()
	return Tent{
		Name:      name,
		Code:      code,
		Type:      typ,
		Capacity:  capacity,
		Location:  location,
		AgencyID:  agencyID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the tent's declared fields.
func (t Tent) Validate() error {
	if t.Name == "" {
		return &ValidationError{Field: "name", Msg: "must not be empty"}
	}
	if t.Type != TentMale && t.Type != TentFemale {
		return &ValidationError{Field: "type", Msg: `must be "male" or "female"`}
	}
	if t.Capacity < 0 {
		return &ValidationError{Field: "capacity", Msg: "must not be negative"}
	}
	return nil
}
