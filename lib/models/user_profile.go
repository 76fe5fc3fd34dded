// Package models defines the data structures used throughout the dashboard backend.
// These models map directly to the PostgreSQL schema and are used for:
// 1. Database queries and result mapping
// 2. JWT token generation (via the Token Customizer Lambda)
// 3. API request and response bodies
//
// Closed enumerations (roles, permissions, statuses) are string types with
// Parse constructors that reject unknown values at the ingestion boundary.
package models

import "strings"

// UserProfile is the token-facing view of a user, loaded once per token generation.
//
// Usage:
// - Token Customizer Lambda: adds this data to JWT tokens
// - GET /me: returned alongside the caller's effective permissions
type UserProfile struct {
	UserID      string               `json:"user_id"`
	CognitoID   string               `json:"cognito_id"`
	Email       string               `json:"email"`
	FirstName   string               `json:"first_name"`
	LastName    string               `json:"last_name"`
	IsInternal  bool                 `json:"is_internal"`
	IsActive    bool                 `json:"is_active"`
	Memberships []DivisionMembership `json:"memberships"`
}

// DivisionMemberships implements MembershipHolder
func (p *UserProfile) DivisionMemberships() []DivisionMembership {
	if p == nil {
		return nil
	}
	return p.Memberships
}

// GetFullName returns the user's full name as "FirstName LastName"
func (p *UserProfile) GetFullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// GetAllRoles returns all unique role names across memberships, in priority order
func (p *UserProfile) GetAllRoles() []string {
	held := make(map[Role]bool)
	for _, membership := range p.Memberships {
		held[membership.Role] = true
	}

	roles := make([]string, 0, len(held))
	for _, role := range RolePriority {
		if held[role] {
			roles = append(roles, string(role))
		}
	}
	return roles
}
