// Package rbac decides which console views a role may enter. The policy is a
// static table: there is no per-user permission storage, only the three fixed
// roles the backend issues.
package rbac

import "github.com/sentra-vms/sentra/internal/shared"

// View names the navigable surfaces of the console.
type View string

const (
	ViewLogin             View = "Login"
	ViewAdminDashboard    View = "AdminDashboard"
	ViewSecurityDashboard View = "SecurityDashboard"
	ViewCameraStream      View = "CameraStream"
	ViewUserManagement    View = "UserManagement"
	ViewRegister          View = "Register"
	ViewProfile           View = "Profile"
	ViewRecordedVideo     View = "RecordedVideo"
	ViewAuditTrail        View = "AuditTrail"
)

// viewPolicy maps each view to the roles allowed in. Login is absent on
// purpose: it is the one view that never requires a session.
var viewPolicy = map[View][]shared.Role{
	ViewAdminDashboard:    {shared.RoleAdministrator, shared.RoleAssistantAdministrator},
	ViewSecurityDashboard: {shared.RoleSecurityStaff},
	ViewCameraStream:      {shared.RoleAdministrator, shared.RoleAssistantAdministrator, shared.RoleSecurityStaff},
	ViewUserManagement:    {shared.RoleAdministrator, shared.RoleAssistantAdministrator},
	ViewRegister:          {shared.RoleAdministrator, shared.RoleAssistantAdministrator},
	ViewProfile:           {shared.RoleAdministrator, shared.RoleAssistantAdministrator, shared.RoleSecurityStaff},
	ViewRecordedVideo:     {shared.RoleAdministrator, shared.RoleAssistantAdministrator, shared.RoleSecurityStaff},
	ViewAuditTrail:        {shared.RoleAdministrator, shared.RoleAssistantAdministrator},
}

// CanAccess reports whether the role may enter the view. An empty role (no
// session) is denied everything except Login.
func CanAccess(view View, role shared.Role) bool {
	if view == ViewLogin {
		return true
	}
	if !role.Valid() {
		return false
	}
	for _, allowed := range viewPolicy[view] {
		if allowed == role {
			return true
		}
	}
	return false
}

// RedirectTarget returns where a denied navigation should land: login when
// there is no session, otherwise the role's own dashboard. Allowed
// navigations return the empty string.
func RedirectTarget(view View, role shared.Role) string {
	if CanAccess(view, role) {
		return ""
	}
	if !role.Valid() {
		return "/login"
	}
	return role.HomePath()
}
