package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sentra-vms/sentra/internal/shared"
)

func TestCanAccess(t *testing.T) {
	cases := []struct {
		view  View
		role  shared.Role
		allow bool
	}{
		{ViewLogin, "", true},
		{ViewLogin, shared.RoleSecurityStaff, true},

		{ViewAdminDashboard, shared.RoleAdministrator, true},
		{ViewAdminDashboard, shared.RoleAssistantAdministrator, true},
		{ViewAdminDashboard, shared.RoleSecurityStaff, false},
		{ViewAdminDashboard, "", false},

		{ViewSecurityDashboard, shared.RoleSecurityStaff, true},
		{ViewSecurityDashboard, shared.RoleAdministrator, false},
		{ViewSecurityDashboard, shared.RoleAssistantAdministrator, false},

		{ViewCameraStream, shared.RoleAdministrator, true},
		{ViewCameraStream, shared.RoleAssistantAdministrator, true},
		{ViewCameraStream, shared.RoleSecurityStaff, true},
		{ViewCameraStream, "", false},

		{ViewUserManagement, shared.RoleAdministrator, true},
		{ViewUserManagement, shared.RoleAssistantAdministrator, true},
		{ViewUserManagement, shared.RoleSecurityStaff, false},

		{ViewRegister, shared.RoleAssistantAdministrator, true},
		{ViewRegister, shared.RoleSecurityStaff, false},

		{ViewProfile, shared.RoleSecurityStaff, true},
		{ViewRecordedVideo, shared.RoleSecurityStaff, true},

		{ViewAuditTrail, shared.RoleAdministrator, true},
		{ViewAuditTrail, shared.RoleAssistantAdministrator, true},
		{ViewAuditTrail, shared.RoleSecurityStaff, false},

		{ViewAuditTrail, shared.Role("Janitor"), false},
	}
	for _, tc := range cases {
		got := CanAccess(tc.view, tc.role)
		require.Equalf(t, tc.allow, got, "view=%s role=%q", tc.view, tc.role)
	}
}

func TestRedirectTarget(t *testing.T) {
	require.Equal(t, "", RedirectTarget(ViewCameraStream, shared.RoleSecurityStaff),
		"allowed navigation has no redirect")
	require.Equal(t, "/login", RedirectTarget(ViewAuditTrail, ""),
		"no session lands on login")
	require.Equal(t, "/security-dashboard", RedirectTarget(ViewAdminDashboard, shared.RoleSecurityStaff))
	require.Equal(t, "/admin-dashboard", RedirectTarget(ViewSecurityDashboard, shared.RoleAdministrator))
	require.Equal(t, "/admin-dashboard", RedirectTarget(ViewSecurityDashboard, shared.RoleAssistantAdministrator))
}
