// Package permissions decides what a user may do from their division memberships.
//
// Every check is a pure function over the static tables in tables.go and the
// caller's memberships. Nothing here returns an error: a missing grant, an
// unknown role or an empty membership list simply resolves to false.
package permissions

import "dashboard/lib/models"

// AnyDivision disables the division filter on a permission check
const AnyDivision = ""

// Evaluator answers permission questions against a fixed set of tables
type Evaluator struct {
	RolePermissions     map[models.Role]PermissionSet
	DivisionPermissions map[string]PermissionSet
	// GroupDivision is the division whose members can reach every other division
	GroupDivision string
}

// NewEvaluator returns an evaluator over the compiled-in tables
func NewEvaluator() *Evaluator {
	return &Evaluator{
		RolePermissions:     RolePermissions,
		DivisionPermissions: DivisionPermissions,
		GroupDivision:       models.GroupDivisionID,
	}
}

var defaultEvaluator = NewEvaluator()

// Default returns the evaluator over the compiled-in tables
func Default() *Evaluator {
	return defaultEvaluator
}

func memberships(user models.MembershipHolder) []models.DivisionMembership {
	if user == nil {
		return nil
	}
	return user.DivisionMemberships()
}

// IsGlobalAdmin reports whether any membership carries the admin role
func (e *Evaluator) IsGlobalAdmin(user models.MembershipHolder) bool {
	for _, m := range memberships(user) {
		if m.Role == models.RoleAdmin {
			return true
		}
	}
	return false
}

// HasPermission reports whether the user holds the permission.
// A non-empty divisionID restricts the check to memberships in that division.
func (e *Evaluator) HasPermission(user models.MembershipHolder, permission models.Permission, divisionID string) bool {
	if e.IsGlobalAdmin(user) {
		return true
	}

	for _, m := range memberships(user) {
		if divisionID != AnyDivision && m.DivisionID != divisionID {
			continue
		}
		if e.RolePermissions[m.Role].Has(permission) {
			return true
		}
		if e.DivisionPermissions[m.DivisionID].Has(permission) {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether the user holds at least one of the permissions
func (e *Evaluator) HasAnyPermission(user models.MembershipHolder, perms []models.Permission, divisionID string) bool {
	for _, p := range perms {
		if e.HasPermission(user, p, divisionID) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the user holds every one of the permissions
func (e *Evaluator) HasAllPermissions(user models.MembershipHolder, perms []models.Permission, divisionID string) bool {
	for _, p := range perms {
		if !e.HasPermission(user, p, divisionID) {
			return false
		}
	}
	return true
}

// GetUserPermissions returns the union of permissions across all memberships,
// listed in the order of models.AllPermissions.
func (e *Evaluator) GetUserPermissions(user models.MembershipHolder) []models.Permission {
	granted := make(PermissionSet)
	for _, m := range memberships(user) {
		for p := range e.RolePermissions[m.Role] {
			granted[p] = struct{}{}
		}
		for p := range e.DivisionPermissions[m.DivisionID] {
			granted[p] = struct{}{}
		}
	}

	result := make([]models.Permission, 0, len(granted))
	for _, p := range models.AllPermissions() {
		if granted.Has(p) {
			result = append(result, p)
		}
	}
	return result
}

// IsGroupMember reports whether the user belongs to the group division
func (e *Evaluator) IsGroupMember(user models.MembershipHolder) bool {
	for _, m := range memberships(user) {
		if m.DivisionID == e.GroupDivision {
			return true
		}
	}
	return false
}

// CanAccessProject reports whether the user may see projects of a division
func (e *Evaluator) CanAccessProject(user models.MembershipHolder, projectDivisionID string) bool {
	if e.IsGlobalAdmin(user) || e.IsGroupMember(user) {
		return true
	}
	for _, m := range memberships(user) {
		if m.DivisionID == projectDivisionID {
			return true
		}
	}
	return false
}

// HasProjectPermission reports whether the user may exercise a permission on a
// project in the given division: they must be able to reach the project, and
// the permission must come from a membership in that division or from the
// group division.
func (e *Evaluator) HasProjectPermission(user models.MembershipHolder, permission models.Permission, projectDivisionID string) bool {
	if !e.CanAccessProject(user, projectDivisionID) {
		return false
	}
	return e.HasPermission(user, permission, projectDivisionID) ||
		e.HasPermission(user, permission, e.GroupDivision)
}

// AccessibleDivisions returns the divisions whose projects the user can see.
// all is true when the user can see every division.
func (e *Evaluator) AccessibleDivisions(user models.MembershipHolder) (divisions []string, all bool) {
	if e.IsGlobalAdmin(user) || e.IsGroupMember(user) {
		return nil, true
	}
	seen := make(map[string]bool)
	for _, m := range memberships(user) {
		if !seen[m.DivisionID] {
			seen[m.DivisionID] = true
			divisions = append(divisions, m.DivisionID)
		}
	}
	return divisions, false
}

// ManagedDivisions returns the divisions in which the user holds manager or admin
func (e *Evaluator) ManagedDivisions(user models.MembershipHolder) map[string]bool {
	managed := make(map[string]bool)
	for _, m := range memberships(user) {
		if m.Role == models.RoleManager || m.Role == models.RoleAdmin {
			managed[m.DivisionID] = true
		}
	}
	return managed
}

// CanManageUser reports whether manager has authority over target: a global
// admin always does, otherwise the manager must hold manager or admin in a
// division the target belongs to.
func (e *Evaluator) CanManageUser(manager, target models.MembershipHolder) bool {
	if e.IsGlobalAdmin(manager) {
		return true
	}
	managed := e.ManagedDivisions(manager)
	for _, m := range memberships(target) {
		if managed[m.DivisionID] {
			return true
		}
	}
	return false
}

// GetUserHighestRole returns the most senior role the user holds anywhere
func (e *Evaluator) GetUserHighestRole(user models.MembershipHolder) (models.Role, bool) {
	held := make(map[models.Role]bool)
	for _, m := range memberships(user) {
		held[m.Role] = true
	}
	for _, role := range models.RolePriority {
		if held[role] {
			return role, true
		}
	}
	return "", false
}

// CanApproveChangeOrders reports whether the user may approve a change order of
// the given amount. Managers may approve amounts below the admin threshold; a nil
// amount is treated as needing admin authority.
func (e *Evaluator) CanApproveChangeOrders(user models.MembershipHolder, amount *float64) bool {
	if e.IsGlobalAdmin(user) {
		return true
	}
	if amount == nil || *amount >= ChangeOrderAdminThreshold {
		return false
	}
	for _, m := range memberships(user) {
		if m.Role == models.RoleManager {
			return true
		}
	}
	return false
}

// HasPermission checks a permission with the default evaluator
func HasPermission(user models.MembershipHolder, permission models.Permission, divisionID string) bool {
	return defaultEvaluator.HasPermission(user, permission, divisionID)
}

// HasAnyPermission checks permissions with the default evaluator
func HasAnyPermission(user models.MembershipHolder, perms []models.Permission, divisionID string) bool {
	return defaultEvaluator.HasAnyPermission(user, perms, divisionID)
}

// HasAllPermissions checks permissions with the default evaluator
func HasAllPermissions(user models.MembershipHolder, perms []models.Permission, divisionID string) bool {
	return defaultEvaluator.HasAllPermissions(user, perms, divisionID)
}

// GetUserPermissions lists permissions with the default evaluator
func GetUserPermissions(user models.MembershipHolder) []models.Permission {
	return defaultEvaluator.GetUserPermissions(user)
}

// CanAccessProject checks project access with the default evaluator
func CanAccessProject(user models.MembershipHolder, projectDivisionID string) bool {
	return defaultEvaluator.CanAccessProject(user, projectDivisionID)
}

// CanManageUser checks user-management authority with the default evaluator
func CanManageUser(manager, target models.MembershipHolder) bool {
	return defaultEvaluator.CanManageUser(manager, target)
}

// GetUserHighestRole resolves the highest role with the default evaluator
func GetUserHighestRole(user models.MembershipHolder) (models.Role, bool) {
	return defaultEvaluator.GetUserHighestRole(user)
}

// CanApproveChangeOrders checks approval authority with the default evaluator
func CanApproveChangeOrders(user models.MembershipHolder, amount *float64) bool {
	return defaultEvaluator.CanApproveChangeOrders(user, amount)
}
