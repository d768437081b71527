package domain

// Role is the closed set of principal roles. The observed applications each
// carried a near-identical login/refresh stack per role; here a single
// orchestration is parameterized by this tag and the router fans the
// endpoint families out per role.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleMember    Role = "member"
)

// Roles returns every known role, in registration order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleModerator, RoleMember}
}

// Valid reports whether r is one of the known roles. Claims carrying an
// unknown role never pass this, so a shape mismatch fails closed instead of
// being discovered by a missing-field check downstream.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleMember:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// RolePolicy captures the per-role login preconditions.
type RolePolicy struct {
	// RequireVerifiedEmail blocks login until the account's email address
	// has been verified. Privileged roles require it.
	RequireVerifiedEmail bool
}

// Policy returns the login policy for the role.
func (r Role) Policy() RolePolicy {
	switch r {
	case RoleAdmin, RoleModerator:
		return RolePolicy{RequireVerifiedEmail: true}
	default:
		return RolePolicy{}
	}
}
