package models

import (
	"fmt"
	"strings"
	"time"
)

// ProjectStatus is the lifecycle state of a project
type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on-hold"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

// ProjectStatuses lists every project status
var ProjectStatuses = []ProjectStatus{
	ProjectStatusPlanning,
	ProjectStatusActive,
	ProjectStatusOnHold,
	ProjectStatusCompleted,
	ProjectStatusCancelled,
}

// ParseProjectStatus converts a stored or submitted status into a ProjectStatus
func ParseProjectStatus(value string) (ProjectStatus, error) {
	for _, status := range ProjectStatuses {
		if string(status) == value {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown project status %q", value)
}

const dateLayout = "2006-01-02"

// Project represents a construction project based on project.projects table
type Project struct {
	ProjectID  string        `json:"project_id"`
	Name       string        `json:"name"`
	DivisionID string        `json:"division_id"`
	Status     ProjectStatus `json:"status"`
	StartDate  *time.Time    `json:"start_date,omitempty"`
	EndDate    *time.Time    `json:"end_date,omitempty"`
	Budget     *float64      `json:"budget,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	CreatedBy  string        `json:"created_by"`
	UpdatedAt  time.Time     `json:"updated_at"`
	UpdatedBy  string        `json:"updated_by"`
}

// CreateProjectRequest represents the request payload for creating a new project.
// New projects always start in planning.
type CreateProjectRequest struct {
	Name       string   `json:"name"`
	DivisionID string   `json:"division_id"`
	StartDate  string   `json:"start_date,omitempty"`
	EndDate    string   `json:"end_date,omitempty"`
	Budget     *float64 `json:"budget,omitempty"`
}

// ProjectInput is a validated create or update payload
type ProjectInput struct {
	Name       string
	DivisionID string
	StartDate  *time.Time
	EndDate    *time.Time
	Budget     *float64
}

// Validate checks the request and returns the parsed input
func (r *CreateProjectRequest) Validate() (*ProjectInput, map[string][]string) {
	errs := map[string][]string{}
	input := &ProjectInput{
		Name:       strings.TrimSpace(r.Name),
		DivisionID: r.DivisionID,
		Budget:     r.Budget,
	}

	if len(input.Name) < 2 || len(input.Name) > 255 {
		errs["name"] = append(errs["name"], "Must be between 2 and 255 characters")
	}
	if input.DivisionID == "" {
		errs["division_id"] = append(errs["division_id"], "Required")
	}
	input.StartDate = parseDateField(errs, "start_date", r.StartDate)
	input.EndDate = parseDateField(errs, "end_date", r.EndDate)
	validateProjectDates(errs, input.StartDate, input.EndDate)
	if r.Budget != nil && *r.Budget < 0 {
		errs["budget"] = append(errs["budget"], "Must not be negative")
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return input, nil
}

// UpdateProjectRequest represents the editable fields of a project.
// Status changes go through the status endpoint instead.
type UpdateProjectRequest struct {
	Name      *string  `json:"name,omitempty"`
	StartDate *string  `json:"start_date,omitempty"`
	EndDate   *string  `json:"end_date,omitempty"`
	Budget    *float64 `json:"budget,omitempty"`
}

// Apply validates the request against the current project and returns the merged input
func (r *UpdateProjectRequest) Apply(current *Project) (*ProjectInput, map[string][]string) {
	errs := map[string][]string{}
	input := &ProjectInput{
		Name:       current.Name,
		DivisionID: current.DivisionID,
		StartDate:  current.StartDate,
		EndDate:    current.EndDate,
		Budget:     current.Budget,
	}

	if r.Name != nil {
		input.Name = strings.TrimSpace(*r.Name)
		if len(input.Name) < 2 || len(input.Name) > 255 {
			errs["name"] = append(errs["name"], "Must be between 2 and 255 characters")
		}
	}
	if r.StartDate != nil {
		input.StartDate = parseDateField(errs, "start_date", *r.StartDate)
	}
	if r.EndDate != nil {
		input.EndDate = parseDateField(errs, "end_date", *r.EndDate)
	}
	validateProjectDates(errs, input.StartDate, input.EndDate)
	if r.Budget != nil {
		if *r.Budget < 0 {
			errs["budget"] = append(errs["budget"], "Must not be negative")
		}
		input.Budget = r.Budget
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return input, nil
}

// ProjectListResponse represents the response for listing projects
type ProjectListResponse struct {
	Projects []Project `json:"projects"`
	Total    int       `json:"total"`
}

// UpdateProjectStatusRequest requests a status transition
type UpdateProjectStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// ProjectStatusResponse shows the current status and the statuses it may move to
type ProjectStatusResponse struct {
	ProjectID          string          `json:"project_id"`
	Status             ProjectStatus   `json:"status"`
	AllowedTransitions []ProjectStatus `json:"allowed_transitions"`
}

// StatusHistoryEntry is one row of project.status_history
type StatusHistoryEntry struct {
	ID         int64         `json:"id"`
	ProjectID  string        `json:"project_id"`
	FromStatus ProjectStatus `json:"from_status"`
	ToStatus   ProjectStatus `json:"to_status"`
	Reason     *string       `json:"reason,omitempty"`
	ChangedBy  string        `json:"changed_by"`
	ChangedAt  time.Time     `json:"changed_at"`
}

func parseDateField(errs map[string][]string, field, value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		errs[field] = append(errs[field], "Invalid date format, expected YYYY-MM-DD")
		return nil
	}
	return &t
}

func validateProjectDates(errs map[string][]string, start, end *time.Time) {
	if start != nil && end != nil && end.Before(*start) {
		errs["end_date"] = append(errs["end_date"], "Must not be before start_date")
	}
}
