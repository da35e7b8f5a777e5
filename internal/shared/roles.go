package shared

import "strings"

// Role is the access level attached to a user account and its sessions.
type Role string

const (
	// RoleAdministrator has full access to every console view.
	RoleAdministrator Role = "Administrator"
	// RoleAssistantAdministrator can manage users but only within its tier.
	RoleAssistantAdministrator Role = "Assistant Administrator"
	// RoleSecurityStaff can watch streams and review recordings.
	RoleSecurityStaff Role = "Security Staff"
)

// Roles lists every valid role.
func Roles() []Role {
	return []Role{RoleAdministrator, RoleAssistantAdministrator, RoleSecurityStaff}
}

// ParseRole resolves a stored role string, tolerating case and spacing drift.
func ParseRole(value string) (Role, bool) {
	normalized := strings.Join(strings.Fields(strings.TrimSpace(value)), " ")
	for _, role := range Roles() {
		if strings.EqualFold(normalized, string(role)) {
			return role, true
		}
	}
	return "", false
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// HomePath returns the dashboard a role lands on after login.
func (r Role) HomePath() string {
	switch r {
	case RoleAdministrator, RoleAssistantAdministrator:
		return "/admin-dashboard"
	case RoleSecurityStaff:
		return "/security-dashboard"
	default:
		return "/login"
	}
}

func (r Role) String() string {
	return string(r)
}
