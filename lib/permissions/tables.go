package permissions

import "dashboard/lib/models"

// ChangeOrderAdminThreshold is the amount at or above which only admins may approve a change order
const ChangeOrderAdminThreshold = 5000.0

// PermissionSet is an immutable-by-convention set of permissions
type PermissionSet map[models.Permission]struct{}

func newSet(perms ...models.Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// Has reports whether the permission is in the set
func (s PermissionSet) Has(p models.Permission) bool {
	_, ok := s[p]
	return ok
}

// RolePermissions maps each role to the permissions it grants inside its division.
// Admin is listed for completeness; admins short-circuit before any lookup.
var RolePermissions = map[models.Role]PermissionSet{
	models.RoleAdmin: newSet(models.AllPermissions()...),
	models.RoleManager: newSet(
		models.PermViewProjects,
		models.PermCreateProjects,
		models.PermEditProjects,
		models.PermDeleteProjects,
		models.PermManageProjectStatus,
		models.PermViewChangeOrders,
		models.PermCreateChangeOrders,
		models.PermApproveChangeOrders,
		models.PermViewSchedules,
		models.PermEditSchedules,
		models.PermViewBudgets,
		models.PermEditBudgets,
		models.PermViewDocuments,
		models.PermManageDocuments,
		models.PermViewReports,
		models.PermExportReports,
		models.PermViewUsers,
		models.PermManageUsers,
	),
	models.RoleSupervisor: newSet(
		models.PermViewProjects,
		models.PermEditProjects,
		models.PermManageProjectStatus,
		models.PermViewChangeOrders,
		models.PermCreateChangeOrders,
		models.PermViewSchedules,
		models.PermEditSchedules,
		models.PermViewDocuments,
		models.PermManageDocuments,
		models.PermViewReports,
		models.PermViewUsers,
	),
	models.RoleEstimator: newSet(
		models.PermViewProjects,
		models.PermCreateProjects,
		models.PermViewChangeOrders,
		models.PermCreateChangeOrders,
		models.PermViewBudgets,
		models.PermEditBudgets,
		models.PermViewDocuments,
		models.PermViewReports,
		models.PermExportReports,
	),
	models.RoleClient: newSet(
		models.PermViewProjects,
		models.PermViewChangeOrders,
		models.PermViewSchedules,
		models.PermViewDocuments,
		models.PermViewReports,
	),
	models.RoleSubcontractor: newSet(
		models.PermViewProjects,
		models.PermViewSchedules,
		models.PermViewDocuments,
	),
}

// DivisionPermissions maps a division to permissions every member of it receives
// regardless of role. Only the group division grants anything.
var DivisionPermissions = map[string]PermissionSet{
	models.GroupDivisionID: newSet(
		models.PermViewProjects,
		models.PermViewChangeOrders,
		models.PermViewSchedules,
		models.PermViewBudgets,
		models.PermViewReports,
	),
}
