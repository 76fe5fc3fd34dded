package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ChangeOrderStatus is the approval state of a change order
type ChangeOrderStatus string

const (
	ChangeOrderPending  ChangeOrderStatus = "pending"
	ChangeOrderApproved ChangeOrderStatus = "approved"
	ChangeOrderRejected ChangeOrderStatus = "rejected"
)

// ParseChangeOrderStatus converts a stored status into a ChangeOrderStatus
func ParseChangeOrderStatus(value string) (ChangeOrderStatus, error) {
	switch ChangeOrderStatus(value) {
	case ChangeOrderPending, ChangeOrderApproved, ChangeOrderRejected:
		return ChangeOrderStatus(value), nil
	}
	return "", fmt.Errorf("unknown change order status %q", value)
}

// ChangeOrder represents a requested scope or cost change based on project.change_orders table
type ChangeOrder struct {
	ChangeOrderID   string            `json:"change_order_id"`
	ProjectID       string            `json:"project_id"`
	Title           string            `json:"title"`
	Description     *string           `json:"description,omitempty"`
	Amount          float64           `json:"amount"`
	Status          ChangeOrderStatus `json:"status"`
	CreatedBy       string            `json:"created_by"`
	ApprovedBy      *string           `json:"approved_by,omitempty"`
	RejectionReason *string           `json:"rejection_reason,omitempty"`
	DecidedAt       *time.Time        `json:"decided_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// CreateChangeOrderRequest represents the request payload for creating a change order
type CreateChangeOrderRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount"`
}

// Validate checks the request
func (r *CreateChangeOrderRequest) Validate() []string {
	var errs []string
	title := strings.TrimSpace(r.Title)
	if len(title) < 2 || len(title) > 255 {
		errs = append(errs, "title: must be between 2 and 255 characters")
	}
	if len(r.Description) > 4000 {
		errs = append(errs, "description: must be at most 4000 characters")
	}
	if math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) {
		errs = append(errs, "amount: must be a number")
	}
	return errs
}

// RejectChangeOrderRequest carries the reason a change order was rejected
type RejectChangeOrderRequest struct {
	Reason string `json:"reason"`
}

// Validate checks the request
func (r *RejectChangeOrderRequest) Validate() []string {
	reason := strings.TrimSpace(r.Reason)
	if reason == "" {
		return []string{"reason: required when rejecting a change order"}
	}
	if len(reason) > 1000 {
		return []string{"reason: must be at most 1000 characters"}
	}
	return nil
}

// ChangeOrderListResponse represents the response for listing change orders
type ChangeOrderListResponse struct {
	ChangeOrders []ChangeOrder `json:"change_orders"`
	Total        int           `json:"total"`
}
