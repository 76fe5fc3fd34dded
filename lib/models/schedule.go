package models

import (
	"strings"
	"time"
)

// ScheduleItem represents one task on a project schedule based on project.schedule_items table
type ScheduleItem struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"project_id"`
	Name            string    `json:"name"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	PercentComplete int       `json:"percent_complete"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateScheduleItemRequest represents the request payload for adding a schedule item
type CreateScheduleItemRequest struct {
	Name            string `json:"name"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	PercentComplete int    `json:"percent_complete,omitempty"`
}

// Validate checks the request and returns the schedule item to store
func (r *CreateScheduleItemRequest) Validate(projectID string) (*ScheduleItem, map[string][]string) {
	errs := map[string][]string{}
	item := &ScheduleItem{
		ProjectID:       projectID,
		Name:            strings.TrimSpace(r.Name),
		PercentComplete: r.PercentComplete,
	}

	if len(item.Name) < 2 || len(item.Name) > 255 {
		errs["name"] = append(errs["name"], "Must be between 2 and 255 characters")
	}
	start := parseDateField(errs, "start_date", r.StartDate)
	end := parseDateField(errs, "end_date", r.EndDate)
	if start == nil && r.StartDate == "" {
		errs["start_date"] = append(errs["start_date"], "Required")
	}
	if end == nil && r.EndDate == "" {
		errs["end_date"] = append(errs["end_date"], "Required")
	}
	validateProjectDates(errs, start, end)
	if r.PercentComplete < 0 || r.PercentComplete > 100 {
		errs["percent_complete"] = append(errs["percent_complete"], "Must be between 0 and 100")
	}

	if len(errs) > 0 {
		return nil, errs
	}
	item.StartDate = *start
	item.EndDate = *end
	return item, nil
}

// ScheduleResponse represents the schedule of one project
type ScheduleResponse struct {
	ProjectID string         `json:"project_id"`
	Items     []ScheduleItem `json:"items"`
	Total     int            `json:"total"`
}
