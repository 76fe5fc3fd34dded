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

// handleGetDivisions handles GET /divisions.
// Admins and group members see every division, everyone else only their own.
func (h *Handler) handleGetDivisions(ctx context.Context, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	divisions, all := h.Evaluator.AccessibleDivisions(claims)

	list, err := h.Divisions.ListDivisions(ctx, divisions, all)
	if err != nil {
		h.Logger.WithError(err).Error("Failed to get divisions")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get divisions", h.Logger), nil
	}

	return api.SuccessResponse(http.StatusOK, models.DivisionListResponse{
		Divisions: list,
		Total:     len(list),
	}, h.Logger), nil
}

// handleGetDivision handles GET /divisions/{divisionId}
func (h *Handler) handleGetDivision(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	divisionID := request.PathParameters["divisionId"]
	if divisionID == "" {
		return api.ErrorResponse(http.StatusBadRequest, "Invalid division ID", h.Logger), nil
	}
	if !h.Evaluator.CanAccessProject(claims, divisionID) {
		return api.ForbiddenResponse(h.Logger), nil
	}

	division, err := h.Divisions.GetDivisionByID(ctx, divisionID)
	if err != nil {
		return h.divisionError(err, "get"), nil
	}
	return api.SuccessResponse(http.StatusOK, division, h.Logger), nil
}

// handleUpdateDivision handles PUT /divisions/{divisionId}
func (h *Handler) handleUpdateDivision(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	divisionID := request.PathParameters["divisionId"]
	if divisionID == "" {
		return api.ErrorResponse(http.StatusBadRequest, "Invalid division ID", h.Logger), nil
	}

	var updateRequest models.UpdateDivisionRequest
	if err := api.ParseJSONBody(request.Body, &updateRequest); err != nil {
		h.Logger.WithError(err).Error("Invalid request body for update division")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", h.Logger), nil
	}
	if errs := updateRequest.Validate(); len(errs) > 0 {
		return api.ValidationErrorResponse("Validation failed", errs, h.Logger), nil
	}
	if divisionID == h.Evaluator.GroupDivision && updateRequest.IsActive != nil && !*updateRequest.IsActive {
		return api.ValidationErrorResponse("Validation failed", []string{"is_active: the group division cannot be deactivated"}, h.Logger), nil
	}

	if !h.Evaluator.HasPermission(claims, models.PermManageDivisions, divisionID) {
		h.Logger.WithFields(logrus.Fields{
			"user_id":     claims.UserID,
			"division_id": divisionID,
			"operation":   "handleUpdateDivision",
		}).Warn("Permission denied")
		return api.ForbiddenResponse(h.Logger), nil
	}

	division, err := h.Divisions.UpdateDivision(ctx, divisionID, &updateRequest)
	if err != nil {
		return h.divisionError(err, "update"), nil
	}
	return api.SuccessResponse(http.StatusOK, division, h.Logger), nil
}

func (h *Handler) divisionError(err error, action string) events.APIGatewayProxyResponse {
	if errors.Is(err, data.ErrDivisionNotFound) {
		return api.ErrorResponse(http.StatusNotFound, "Division not found", h.Logger)
	}
	h.Logger.WithError(err).Error("Failed to " + action + " division")
	return api.ErrorResponse(http.StatusInternalServerError, "Failed to "+action+" division", h.Logger)
}
