package permissions

import (
	"testing"

	"dashboard/lib/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func member(pairs ...string) models.Memberships {
	var out models.Memberships
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, models.DivisionMembership{DivisionID: pairs[i], Role: models.Role(pairs[i+1])})
	}
	return out
}

func amount(v float64) *float64 {
	return &v
}

func TestHasPermission_AdminGrantsEverything(t *testing.T) {
	admin := member("wood", "admin")

	for _, p := range models.AllPermissions() {
		assert.True(t, HasPermission(admin, p, AnyDivision), "permission %s", p)
		assert.True(t, HasPermission(admin, p, "contracting"), "permission %s scoped to other division", p)
	}
}

func TestHasPermission_NoMemberships(t *testing.T) {
	var nobody models.Memberships

	for _, p := range models.AllPermissions() {
		assert.False(t, HasPermission(nobody, p, AnyDivision))
		assert.False(t, HasPermission(nobody, p, "wood"))
	}
	assert.False(t, HasPermission(nil, models.PermViewProjects, AnyDivision))
}

func TestHasPermission_SupervisorScenario(t *testing.T) {
	user := member("contracting", "supervisor")

	assert.False(t, HasPermission(user, models.PermManageDivisions, AnyDivision))
	assert.True(t, HasPermission(user, models.PermViewProjects, AnyDivision))
}

func TestHasPermission_DivisionFilter(t *testing.T) {
	user := member("contracting", "manager", "wood", "client")

	assert.True(t, HasPermission(user, models.PermEditProjects, "contracting"))
	assert.False(t, HasPermission(user, models.PermEditProjects, "wood"))
	assert.True(t, HasPermission(user, models.PermViewProjects, "wood"))
	assert.False(t, HasPermission(user, models.PermViewProjects, "steel"))
}

func TestHasPermission_GroupDivisionGrantsDivisionWidePermissions(t *testing.T) {
	user := member("group", "subcontractor")

	assert.True(t, HasPermission(user, models.PermViewBudgets, AnyDivision))
	assert.True(t, HasPermission(user, models.PermViewBudgets, "group"))
	assert.False(t, HasPermission(user, models.PermEditBudgets, AnyDivision))
}

func TestHasPermission_UnknownRoleGrantsNothing(t *testing.T) {
	user := member("wood", "superintendent")

	assert.False(t, HasPermission(user, models.PermViewProjects, AnyDivision))
	assert.Empty(t, GetUserPermissions(user))
}

func TestHasAnyAndAllPermissions(t *testing.T) {
	user := member("wood", "estimator")
	perms := []models.Permission{models.PermCreateProjects, models.PermManageUsers}

	assert.True(t, HasAnyPermission(user, perms, AnyDivision))
	assert.False(t, HasAllPermissions(user, perms, AnyDivision))
	assert.True(t, HasAllPermissions(user, perms[:1], "wood"))
	assert.False(t, HasAnyPermission(user, nil, AnyDivision))
	assert.True(t, HasAllPermissions(user, nil, AnyDivision))
}

func TestGetUserPermissions_UnionWithinTables(t *testing.T) {
	user := member("wood", "client", "group", "subcontractor", "steel", "estimator")

	first := GetUserPermissions(user)
	second := GetUserPermissions(user)
	assert.Equal(t, first, second)

	allowed := make(PermissionSet)
	for _, m := range user {
		for p := range RolePermissions[m.Role] {
			allowed[p] = struct{}{}
		}
		for p := range DivisionPermissions[m.DivisionID] {
			allowed[p] = struct{}{}
		}
	}

	seen := make(map[models.Permission]bool)
	for _, p := range first {
		assert.True(t, allowed.Has(p), "permission %s not derivable from tables", p)
		assert.False(t, seen[p], "permission %s listed twice", p)
		seen[p] = true
	}
	assert.Len(t, first, len(allowed))
}

func TestGetUserPermissions_Admin(t *testing.T) {
	assert.Equal(t, models.AllPermissions(), GetUserPermissions(member("wood", "admin")))
}

func TestCanAccessProject(t *testing.T) {
	assert.True(t, CanAccessProject(member("group", "estimator"), "wood"))
	assert.True(t, CanAccessProject(member("steel", "admin"), "wood"))
	assert.True(t, CanAccessProject(member("wood", "subcontractor"), "wood"))
	assert.False(t, CanAccessProject(member("steel", "manager"), "wood"))
	assert.False(t, CanAccessProject(nil, "wood"))
}

func TestHasProjectPermission(t *testing.T) {
	e := Default()

	assert.True(t, e.HasProjectPermission(member("group", "estimator"), models.PermViewChangeOrders, "wood"))
	assert.False(t, e.HasProjectPermission(member("group", "subcontractor"), models.PermEditProjects, "wood"))
	assert.True(t, e.HasProjectPermission(member("wood", "supervisor"), models.PermEditProjects, "wood"))
	assert.False(t, e.HasProjectPermission(member("wood", "client", "steel", "manager"), models.PermEditProjects, "wood"))
	assert.False(t, e.HasProjectPermission(member("steel", "manager"), models.PermViewProjects, "wood"))
}

func TestAccessibleDivisions(t *testing.T) {
	e := Default()

	divisions, all := e.AccessibleDivisions(member("wood", "client", "steel", "manager", "wood", "estimator"))
	assert.False(t, all)
	assert.Equal(t, []string{"wood", "steel"}, divisions)

	_, all = e.AccessibleDivisions(member("group", "client"))
	assert.True(t, all)

	_, all = e.AccessibleDivisions(member("wood", "admin"))
	assert.True(t, all)

	divisions, all = e.AccessibleDivisions(nil)
	assert.False(t, all)
	assert.Empty(t, divisions)
}

func TestCanManageUser(t *testing.T) {
	manager := member("wood", "manager", "steel", "client")

	assert.True(t, CanManageUser(member("anything", "admin"), member("wood", "client")))
	assert.True(t, CanManageUser(manager, member("wood", "estimator")))
	assert.False(t, CanManageUser(manager, member("steel", "estimator")))
	assert.False(t, CanManageUser(manager, nil))
	assert.False(t, CanManageUser(member("wood", "supervisor"), member("wood", "client")))
}

func TestGetUserHighestRole(t *testing.T) {
	role, ok := GetUserHighestRole(member("wood", "client", "steel", "supervisor", "group", "estimator"))
	require.True(t, ok)
	assert.Equal(t, models.RoleSupervisor, role)

	role, ok = GetUserHighestRole(member("wood", "subcontractor", "steel", "admin"))
	require.True(t, ok)
	assert.Equal(t, models.RoleAdmin, role)

	_, ok = GetUserHighestRole(nil)
	assert.False(t, ok)

	_, ok = GetUserHighestRole(member("wood", "foreman"))
	assert.False(t, ok)
}

func TestCanApproveChangeOrders(t *testing.T) {
	manager := member("wood", "manager")
	supervisor := member("wood", "supervisor")
	admin := member("wood", "admin")

	assert.True(t, CanApproveChangeOrders(manager, amount(4999)))
	assert.False(t, CanApproveChangeOrders(supervisor, amount(4999)))
	assert.True(t, CanApproveChangeOrders(admin, amount(4999)))

	assert.False(t, CanApproveChangeOrders(manager, amount(5000)))
	assert.False(t, CanApproveChangeOrders(supervisor, amount(5000)))
	assert.True(t, CanApproveChangeOrders(admin, amount(5000)))

	assert.False(t, CanApproveChangeOrders(manager, nil))
	assert.True(t, CanApproveChangeOrders(admin, nil))
	assert.True(t, CanApproveChangeOrders(manager, amount(-200)))
}

func TestEvaluator_CustomTables(t *testing.T) {
	e := &Evaluator{
		RolePermissions: map[models.Role]PermissionSet{
			models.RoleClient: newSet(models.PermExportReports),
		},
		DivisionPermissions: map[string]PermissionSet{},
		GroupDivision:       "hq",
	}

	user := member("hq", "client")
	assert.True(t, e.HasPermission(user, models.PermExportReports, AnyDivision))
	assert.False(t, e.HasPermission(user, models.PermViewProjects, AnyDivision))
	assert.True(t, e.CanAccessProject(user, "wood"))
	assert.False(t, Default().CanAccessProject(user, "wood"))
}
