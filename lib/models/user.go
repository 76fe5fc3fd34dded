package models

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// User represents a dashboard user based on iam.users table
type User struct {
	UserID      string               `json:"user_id"`     // UUID primary key
	CognitoID   string               `json:"cognito_id"`  // AWS Cognito sub UUID
	Email       string               `json:"email"`       // Must match the Cognito email
	FirstName   string               `json:"first_name"`
	LastName    string               `json:"last_name"`
	IsInternal  bool                 `json:"is_internal"` // Company staff rather than client or subcontractor
	IsActive    bool                 `json:"is_active"`   // Soft-deactivation flag; users are never hard-deleted
	Memberships []DivisionMembership `json:"memberships"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// DivisionMemberships implements MembershipHolder
func (u *User) DivisionMemberships() []DivisionMembership {
	if u == nil {
		return nil
	}
	return u.Memberships
}

// FullName returns "FirstName LastName"
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// CreateUserRequest represents the request payload for inviting a new user
type CreateUserRequest struct {
	Email       string              `json:"email"`
	FirstName   string              `json:"first_name"`
	LastName    string              `json:"last_name"`
	IsInternal  bool                `json:"is_internal"`
	Memberships []MembershipRequest `json:"memberships,omitempty"`
}

// Validate checks the invite and returns the parsed memberships
func (r *CreateUserRequest) Validate() ([]DivisionMembership, []string) {
	var errs []string
	if _, err := mail.ParseAddress(r.Email); err != nil {
		errs = append(errs, "email: must be a valid email address")
	}
	errs = append(errs, validateName("first_name", r.FirstName)...)
	errs = append(errs, validateName("last_name", r.LastName)...)

	replace := ReplaceMembershipsRequest{Memberships: r.Memberships}
	memberships, membershipErrs := replace.Validate()
	errs = append(errs, membershipErrs...)

	return memberships, errs
}

// UpdateUserRequest represents the editable profile fields of a user
type UpdateUserRequest struct {
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	IsInternal *bool   `json:"is_internal,omitempty"`
}

// Validate checks the submitted fields
func (r *UpdateUserRequest) Validate() []string {
	var errs []string
	if r.FirstName != nil {
		errs = append(errs, validateName("first_name", *r.FirstName)...)
	}
	if r.LastName != nil {
		errs = append(errs, validateName("last_name", *r.LastName)...)
	}
	if r.FirstName == nil && r.LastName == nil && r.IsInternal == nil {
		errs = append(errs, "request: no fields to update")
	}
	return errs
}

// UpdateUserStatusRequest deactivates or reactivates a user
type UpdateUserStatusRequest struct {
	IsActive *bool `json:"is_active"`
}

// UserListResponse represents the response for listing users
type UserListResponse struct {
	Users []User `json:"users"`
	Total int    `json:"total"`
}

// MeResponse is returned by GET /me
type MeResponse struct {
	User *User `json:"user"`
	PermissionSummary
}

// CreateUserResponse is returned after a user has been invited
type CreateUserResponse struct {
	User    *User  `json:"user"`
	Message string `json:"message"`
}

func validateName(field, value string) []string {
	value = strings.TrimSpace(value)
	if len(value) < 1 || len(value) > 50 {
		return []string{fmt.Sprintf("%s: must be between 1 and 50 characters", field)}
	}
	return nil
}
