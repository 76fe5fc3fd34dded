package models

import "fmt"

// Permission is a capability tag checked by the permission evaluator.
// The set is closed; permissions are never created at runtime.
type Permission string

const (
	PermViewProjects        Permission = "view_projects"
	PermCreateProjects      Permission = "create_projects"
	PermEditProjects        Permission = "edit_projects"
	PermDeleteProjects      Permission = "delete_projects"
	PermManageProjectStatus Permission = "manage_project_status"
	PermViewChangeOrders    Permission = "view_change_orders"
	PermCreateChangeOrders  Permission = "create_change_orders"
	PermApproveChangeOrders Permission = "approve_change_orders"
	PermViewSchedules       Permission = "view_schedules"
	PermEditSchedules       Permission = "edit_schedules"
	PermViewBudgets         Permission = "view_budgets"
	PermEditBudgets         Permission = "edit_budgets"
	PermViewDocuments       Permission = "view_documents"
	PermManageDocuments     Permission = "manage_documents"
	PermViewReports         Permission = "view_reports"
	PermExportReports       Permission = "export_reports"
	PermViewUsers           Permission = "view_users"
	PermManageUsers         Permission = "manage_users"
	PermManageDivisions     Permission = "manage_divisions"
	PermManageSettings      Permission = "manage_settings"
)

// AllPermissions returns every permission in the closed set
func AllPermissions() []Permission {
	return []Permission{
		PermViewProjects,
		PermCreateProjects,
		PermEditProjects,
		PermDeleteProjects,
		PermManageProjectStatus,
		PermViewChangeOrders,
		PermCreateChangeOrders,
		PermApproveChangeOrders,
		PermViewSchedules,
		PermEditSchedules,
		PermViewBudgets,
		PermEditBudgets,
		PermViewDocuments,
		PermManageDocuments,
		PermViewReports,
		PermExportReports,
		PermViewUsers,
		PermManageUsers,
		PermManageDivisions,
		PermManageSettings,
	}
}

// ParsePermission converts a permission name into a Permission
func ParsePermission(value string) (Permission, error) {
	for _, permission := range AllPermissions() {
		if string(permission) == value {
			return permission, nil
		}
	}
	return "", fmt.Errorf("unknown permission %q", value)
}

// PermissionSummary is returned by GET /me
type PermissionSummary struct {
	Permissions []Permission         `json:"permissions"`
	HighestRole *Role                `json:"highest_role"`
	Memberships []DivisionMembership `json:"memberships"`
}
