package enums

import "slices"

// Role is a coarse permission attached to a user. A user may hold several.
type Role string

const (
	RoleCustomer        Role = "customer"
	RoleManager         Role = "manager"
	RoleDepartmentStaff Role = "department_staff"
	RoleAdmin           Role = "admin"
)

var roles = set[Role]{RoleCustomer, RoleManager, RoleDepartmentStaff, RoleAdmin}

func (r Role) String() string { return string(r) }

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool { return roles.has(r) }

func ParseRole(value string) (Role, error) {
	return roles.parse("role", value)
}

// HasRole reports whether held contains target.
func HasRole(held []Role, target Role) bool {
	return slices.Contains(held, target)
}
