package models

import (
	"fmt"
	"time"
)

// Role is the authority level a user holds inside one division
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleManager       Role = "manager"
	RoleSupervisor    Role = "supervisor"
	RoleEstimator     Role = "estimator"
	RoleClient        Role = "client"
	RoleSubcontractor Role = "subcontractor"
)

// RolePriority lists every role from most to least authority
var RolePriority = []Role{
	RoleAdmin,
	RoleManager,
	RoleSupervisor,
	RoleEstimator,
	RoleClient,
	RoleSubcontractor,
}

// ParseRole converts a stored or submitted role name into a Role.
// Unknown names are rejected rather than silently granting nothing.
func ParseRole(value string) (Role, error) {
	for _, role := range RolePriority {
		if string(role) == value {
			return role, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", value)
}

// Valid reports whether the role is one of the known roles
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// DivisionMembership represents a user's role in one division based on iam.division_memberships
type DivisionMembership struct {
	UserID     string    `json:"user_id,omitempty"`
	DivisionID string    `json:"division_id"`
	Role       Role      `json:"role"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

// MembershipHolder is anything that can list the division memberships of a user.
// Both database users and token claims satisfy it.
type MembershipHolder interface {
	DivisionMemberships() []DivisionMembership
}

// Memberships is a plain list of memberships usable wherever a MembershipHolder is expected
type Memberships []DivisionMembership

// DivisionMemberships implements MembershipHolder
func (m Memberships) DivisionMemberships() []DivisionMembership {
	return m
}

// MembershipRequest is one entry of a membership replacement request
type MembershipRequest struct {
	DivisionID string `json:"division_id"`
	Role       string `json:"role"`
}

// ReplaceMembershipsRequest replaces all memberships of a user
type ReplaceMembershipsRequest struct {
	Memberships []MembershipRequest `json:"memberships"`
}

// Validate checks every entry in the request and returns the parsed memberships.
// A user holds at most one membership per division.
func (r *ReplaceMembershipsRequest) Validate() ([]DivisionMembership, []string) {
	var errs []string
	seen := make(map[string]bool)
	memberships := make([]DivisionMembership, 0, len(r.Memberships))

	for i, entry := range r.Memberships {
		if entry.DivisionID == "" {
			errs = append(errs, fmt.Sprintf("memberships[%d].division_id: required", i))
			continue
		}
		role, err := ParseRole(entry.Role)
		if err != nil {
			errs = append(errs, fmt.Sprintf("memberships[%d].role: %s", i, err.Error()))
			continue
		}
		if seen[entry.DivisionID] {
			errs = append(errs, fmt.Sprintf("memberships[%d].division_id: duplicate division %s", i, entry.DivisionID))
			continue
		}
		seen[entry.DivisionID] = true
		memberships = append(memberships, DivisionMembership{DivisionID: entry.DivisionID, Role: role})
	}

	return memberships, errs
}
