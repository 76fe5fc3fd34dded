package main

import (
	"context"
	"errors"
	"net/http"

	"dashboard/lib/api"
	"dashboard/lib/auth"
	"dashboard/lib/data"
	"dashboard/lib/models"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"
)

// handleReplaceMemberships handles PUT /users/{userId}/memberships
func (h *Handler) handleReplaceMemberships(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	var replaceRequest models.ReplaceMembershipsRequest
	if err := api.ParseJSONBody(request.Body, &replaceRequest); err != nil {
		h.Logger.WithError(err).Error("Invalid request body for replace memberships")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", h.Logger), nil
	}
	memberships, errs := replaceRequest.Validate()
	if len(errs) > 0 {
		return api.ValidationErrorResponse("Validation failed", errs, h.Logger), nil
	}

	target, resp, ok := h.loadUser(ctx, request)
	if !ok {
		return resp, nil
	}
	if !h.administers(claims, target) {
		return h.forbidden(claims, models.PermManageUsers), nil
	}
	if !h.canGrant(claims, target.Memberships, memberships) {
		return h.forbidden(claims, models.PermManageUsers), nil
	}

	stored, err := h.Users.ReplaceMemberships(ctx, target.UserID, memberships)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrUserNotFound):
			return api.ErrorResponse(http.StatusNotFound, "User not found", h.Logger), nil
		case errors.Is(err, data.ErrDivisionNotFound):
			return api.ErrorResponse(http.StatusBadRequest, "Unknown division in memberships", h.Logger), nil
		}
		h.Logger.WithError(err).Error("Failed to replace memberships")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to update memberships", h.Logger), nil
	}

	h.Logger.WithFields(logrus.Fields{
		"user_id":    target.UserID,
		"changed_by": claims.UserID,
		"operation":  "handleReplaceMemberships",
	}).Info("Memberships updated")

	target.Memberships = stored
	return api.SuccessResponse(http.StatusOK, target, h.Logger), nil
}

// canGrant reports whether the caller may move a user from the current
// memberships to the next ones. Admins may set anything. Everyone else may only
// change divisions they manage, and may never grant, change or remove the admin role.
func (h *Handler) canGrant(claims *auth.Claims, current, next []models.DivisionMembership) bool {
	if h.Evaluator.IsGlobalAdmin(claims) {
		return true
	}
	managed := h.Evaluator.ManagedDivisions(claims)

	before := make(map[string]models.Role, len(current))
	for _, m := range current {
		before[m.DivisionID] = m.Role
	}
	after := make(map[string]models.Role, len(next))
	for _, m := range next {
		after[m.DivisionID] = m.Role
	}

	for division, role := range after {
		previous, held := before[division]
		if held && previous == role {
			continue
		}
		if !managed[division] || role == models.RoleAdmin || previous == models.RoleAdmin {
			return false
		}
	}
	for division, role := range before {
		if _, kept := after[division]; kept {
			continue
		}
		if !managed[division] || role == models.RoleAdmin {
			return false
		}
	}
	return true
}
