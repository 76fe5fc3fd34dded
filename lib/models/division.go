package models

import (
	"regexp"
	"strings"
	"time"
)

// GroupDivisionID is the division whose members see every other division
const GroupDivisionID = "group"

// Division represents an organizational unit based on iam.divisions table
type Division struct {
	DivisionID  string    `json:"division_id"`  // Stable slug, e.g. "contracting"
	Name        string    `json:"name"`         // Internal name
	DisplayName string    `json:"display_name"` // Name shown in the dashboard
	Color       string    `json:"color"`        // Hex color used for badges
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UpdateDivisionRequest represents the editable fields of a division
type UpdateDivisionRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Color       *string `json:"color,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// DivisionListResponse represents the response for listing divisions
type DivisionListResponse struct {
	Divisions []Division `json:"divisions"`
	Total     int        `json:"total"`
}

var divisionColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Validate checks the submitted fields
func (r *UpdateDivisionRequest) Validate() []string {
	var errs []string
	if r.DisplayName != nil {
		name := strings.TrimSpace(*r.DisplayName)
		if len(name) < 2 || len(name) > 100 {
			errs = append(errs, "display_name: must be between 2 and 100 characters")
		}
	}
	if r.Color != nil && !divisionColorPattern.MatchString(*r.Color) {
		errs = append(errs, "color: must be a hex color like #1F6FEB")
	}
	if r.DisplayName == nil && r.Color == nil && r.IsActive == nil {
		errs = append(errs, "request: no fields to update")
	}
	return errs
}
