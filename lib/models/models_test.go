package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseRole(t *testing.T) {
	for _, role := range RolePriority {
		parsed, err := ParseRole(string(role))
		require.NoError(t, err)
		assert.Equal(t, role, parsed)
		assert.True(t, role.Valid())
	}

	_, err := ParseRole("owner")
	assert.Error(t, err)
	_, err = ParseRole("Admin")
	assert.Error(t, err)
	assert.False(t, Role("member").Valid())
}

func TestParseEnums(t *testing.T) {
	status, err := ParseProjectStatus("on-hold")
	require.NoError(t, err)
	assert.Equal(t, ProjectStatusOnHold, status)
	_, err = ParseProjectStatus("archived")
	assert.Error(t, err)

	_, err = ParseChangeOrderStatus("pending")
	assert.NoError(t, err)
	_, err = ParseChangeOrderStatus("void")
	assert.Error(t, err)

	assert.Len(t, AllPermissions(), 20)
	_, err = ParsePermission("manage_settings")
	assert.NoError(t, err)
	_, err = ParsePermission("delete_users")
	assert.Error(t, err)
}

func TestReplaceMembershipsRequest_Validate(t *testing.T) {
	req := ReplaceMembershipsRequest{Memberships: []MembershipRequest{
		{DivisionID: "wood", Role: "manager"},
		{DivisionID: "", Role: "client"},
		{DivisionID: "steel", Role: "owner"},
		{DivisionID: "wood", Role: "client"},
		{DivisionID: "group", Role: "estimator"},
	}}

	memberships, errs := req.Validate()

	assert.Equal(t, []DivisionMembership{
		{DivisionID: "wood", Role: RoleManager},
		{DivisionID: "group", Role: RoleEstimator},
	}, memberships)
	require.Len(t, errs, 3)
	assert.Contains(t, errs[0], "memberships[1].division_id")
	assert.Contains(t, errs[1], "memberships[2].role")
	assert.Contains(t, errs[2], "duplicate division wood")
}

func TestUserHelpers(t *testing.T) {
	var nilUser *User
	assert.Nil(t, nilUser.DivisionMemberships())

	u := &User{FirstName: "Sam", LastName: "Ortiz", Memberships: []DivisionMembership{{DivisionID: "wood", Role: RoleClient}}}
	assert.Equal(t, "Sam Ortiz", u.FullName())
	assert.Len(t, u.DivisionMemberships(), 1)

	profile := &UserProfile{
		FirstName: "Sam",
		Memberships: []DivisionMembership{
			{DivisionID: "wood", Role: RoleClient},
			{DivisionID: "steel", Role: RoleManager},
			{DivisionID: "group", Role: RoleClient},
		},
	}
	assert.Equal(t, "Sam", profile.GetFullName())
	assert.Equal(t, []string{"manager", "client"}, profile.GetAllRoles())
}

func TestCreateUserRequest_Validate(t *testing.T) {
	valid := CreateUserRequest{
		Email:       "sam@example.com",
		FirstName:   "Sam",
		LastName:    "Ortiz",
		Memberships: []MembershipRequest{{DivisionID: "wood", Role: "supervisor"}},
	}
	memberships, errs := valid.Validate()
	assert.Empty(t, errs)
	assert.Equal(t, []DivisionMembership{{DivisionID: "wood", Role: RoleSupervisor}}, memberships)

	invalid := CreateUserRequest{Email: "not-an-email", FirstName: "", LastName: strings.Repeat("x", 51)}
	_, errs = invalid.Validate()
	assert.Len(t, errs, 3)
}

func TestUpdateUserRequest_Validate(t *testing.T) {
	assert.Equal(t, []string{"request: no fields to update"}, (&UpdateUserRequest{}).Validate())
	assert.Empty(t, (&UpdateUserRequest{FirstName: strPtr("Ana")}).Validate())
	assert.Len(t, (&UpdateUserRequest{LastName: strPtr(" ")}).Validate(), 1)
}

func TestCreateProjectRequest_Validate(t *testing.T) {
	budget := 125000.0
	req := CreateProjectRequest{Name: "  Riverside Tower ", DivisionID: "contracting", StartDate: "2026-03-01", EndDate: "2026-12-31", Budget: &budget}

	input, errs := req.Validate()
	require.Nil(t, errs)
	assert.Equal(t, "Riverside Tower", input.Name)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *input.StartDate)
	assert.Equal(t, &budget, input.Budget)

	negative := -1.0
	bad := CreateProjectRequest{Name: "x", StartDate: "2026-05-01", EndDate: "2026-04-01", Budget: &negative}
	_, errs = bad.Validate()
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "division_id")
	assert.Contains(t, errs, "end_date")
	assert.Contains(t, errs, "budget")

	_, errs = (&CreateProjectRequest{Name: "Bridge", DivisionID: "wood", StartDate: "03/01/2026"}).Validate()
	assert.Contains(t, errs, "start_date")
}

func TestUpdateProjectRequest_Apply(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	current := &Project{ProjectID: "p-1", Name: "Depot", DivisionID: "wood", StartDate: &start}

	input, errs := (&UpdateProjectRequest{Name: strPtr("Depot Phase 2")}).Apply(current)
	require.Nil(t, errs)
	assert.Equal(t, "Depot Phase 2", input.Name)
	assert.Equal(t, "wood", input.DivisionID)
	assert.Equal(t, &start, input.StartDate)

	_, errs = (&UpdateProjectRequest{EndDate: strPtr("2025-12-01")}).Apply(current)
	assert.Contains(t, errs, "end_date")
}

func TestCreateScheduleItemRequest_Validate(t *testing.T) {
	item, errs := (&CreateScheduleItemRequest{Name: "Foundations", StartDate: "2026-02-01", EndDate: "2026-02-20", PercentComplete: 10}).Validate("p-1")
	require.Nil(t, errs)
	assert.Equal(t, "p-1", item.ProjectID)
	assert.Equal(t, 10, item.PercentComplete)

	_, errs = (&CreateScheduleItemRequest{Name: "Framing", PercentComplete: 101}).Validate("p-1")
	assert.Equal(t, []string{"Required"}, errs["start_date"])
	assert.Equal(t, []string{"Required"}, errs["end_date"])
	assert.Contains(t, errs, "percent_complete")
}

func TestChangeOrderRequests_Validate(t *testing.T) {
	assert.Empty(t, (&CreateChangeOrderRequest{Title: "Extra rebar", Amount: 4200}).Validate())
	assert.Len(t, (&CreateChangeOrderRequest{Title: "x"}).Validate(), 1)

	assert.Len(t, (&RejectChangeOrderRequest{Reason: "  "}).Validate(), 1)
	assert.Empty(t, (&RejectChangeOrderRequest{Reason: "Out of scope"}).Validate())
}

func TestDocumentUploadRequest_Validate(t *testing.T) {
	assert.Empty(t, (&DocumentUploadRequest{FileName: "plans.PDF", FileSize: 1024}).Validate())
	assert.Len(t, (&DocumentUploadRequest{FileName: "run.exe", FileSize: 1024}).Validate(), 1)
	assert.Len(t, (&DocumentUploadRequest{FileName: "../etc/passwd.txt", FileSize: 1}).Validate(), 1)
	assert.Len(t, (&DocumentUploadRequest{FileName: "big.dwg", FileSize: MaxDocumentSize + 1}).Validate(), 1)

	assert.Equal(t, "projects/p-1/documents/d-1/plans.pdf", DocumentS3Key("p-1", "d-1", "plans.pdf"))
}

func TestUpdateDivisionRequest_Validate(t *testing.T) {
	active := false
	assert.Empty(t, (&UpdateDivisionRequest{IsActive: &active}).Validate())
	assert.Empty(t, (&UpdateDivisionRequest{Color: strPtr("#1F6FEB"), DisplayName: strPtr("Wood Frame")}).Validate())
	assert.Len(t, (&UpdateDivisionRequest{Color: strPtr("blue")}).Validate(), 1)
	assert.Len(t, (&UpdateDivisionRequest{}).Validate(), 1)
}

func TestDivisionMembership_JSON(t *testing.T) {
	body, err := json.Marshal(DivisionMembership{DivisionID: "wood", Role: RoleClient})
	require.NoError(t, err)
	assert.JSONEq(t, `{"division_id":"wood","role":"client"}`, string(body))

	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	body, err = json.Marshal(DivisionMembership{DivisionID: "wood", Role: RoleClient, CreatedAt: &created})
	require.NoError(t, err)
	assert.Contains(t, string(body), `"created_at":"2026-03-01T09:00:00Z"`)
}
