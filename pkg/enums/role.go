package enums

import "fmt"

// Role represents the canonical user_role enum in Postgres. Roles are fixed
// by the domain and immutable after a user is created.
type Role string

const (
	RoleFabricator  Role = "fabricator"
	RoleDealer      Role = "dealer"
	RoleDistributor Role = "distributor"
	RoleCompany     Role = "company"
)

var validRoles = []Role{
	RoleFabricator,
	RoleDealer,
	RoleDistributor,
	RoleCompany,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
