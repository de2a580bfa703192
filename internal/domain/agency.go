package domain

// Agency groups pilgrims under a pilgrim ceiling. It does not own
// accommodation capacity; it is only referenced by tents and pilgrims.
type Agency struct {
	ID          int64
	Name        string
	Code        string
	MaxPilgrims int
	Status      string
}

// Full reports whether the agency already holds its maximum number of pilgrims.
func (a Agency) Full(members int) bool {
	return members >= a.MaxPilgrims
}
