package domain

// Role identifies what kind of principal is calling the engine.
type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleSupervisor Role = "Supervisor"
	RolePilgrim    Role = "Pilgrim"
)

// Caller is the authorization capability handed to each service call.
// Authentication happens upstream; the engine only evaluates the rules below.
type Caller struct {
	Role     Role
	AgencyID *int64
}

// Admin returns an unrestricted caller.
func Admin() Caller {
	return Caller{Role: RoleAdmin}
}

// Supervisor returns a caller restricted to the given agency.
func Supervisor(agencyID int64) Caller {
	return Caller{Role: RoleSupervisor, AgencyID: &agencyID}
}

// AgencyScope returns the agency the caller is confined to, if any.
func (c Caller) AgencyScope() (int64, bool) {
	if c.Role == RoleSupervisor && c.AgencyID != nil {
		return *c.AgencyID, true
	}
	return 0, false
}

// CanSetBedStatus reports whether the caller may move a bed to target.
// Supervisors cannot put beds into maintenance and pilgrims cannot
// change bed status at all.
func (c Caller) CanSetBedStatus(target BedStatus) bool {
	switch c.Role {
	case RoleAdmin:
		return true
	case RoleSupervisor:
		return target != BedMaintenance
	}
	return false
}

// CanManagePilgrims reports whether the caller may register or regroup pilgrims.
func (c Caller) CanManagePilgrims() bool {
	return c.Role == RoleAdmin || c.Role == RoleSupervisor
}
