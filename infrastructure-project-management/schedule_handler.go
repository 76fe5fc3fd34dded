package main

import (
	"context"
	"net/http"

	"dashboard/lib/api"
	"dashboard/lib/auth"
	"dashboard/lib/models"

	"github.com/aws/aws-lambda-go/events"
)

// handleGetSchedule handles GET /projects/{projectId}/schedule
func (h *Handler) handleGetSchedule(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	project, resp, ok := h.loadProject(ctx, request, claims, models.PermViewSchedules)
	if !ok {
		return resp, nil
	}

	items, err := h.Projects.GetSchedule(ctx, project.ProjectID)
	if err != nil {
		h.Logger.WithError(err).Error("Failed to get schedule")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get schedule", h.Logger), nil
	}

	return api.SuccessResponse(http.StatusOK, models.ScheduleResponse{
		ProjectID: project.ProjectID,
		Items:     items,
		Total:     len(items),
	}, h.Logger), nil
}

// handleCreateScheduleItem handles POST /projects/{projectId}/schedule
func (h *Handler) handleCreateScheduleItem(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	var createRequest models.CreateScheduleItemRequest
	if err := api.ParseJSONBody(request.Body, &createRequest); err != nil {
		h.Logger.WithError(err).Error("Invalid request body for create schedule item")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", h.Logger), nil
	}

	project, resp, ok := h.loadProject(ctx, request, claims, models.PermEditSchedules)
	if !ok {
		return resp, nil
	}

	item, validationErrors := createRequest.Validate(project.ProjectID)
	if validationErrors != nil {
		return api.ValidationErrorResponse("Validation failed", api.FieldErrors(validationErrors), h.Logger), nil
	}

	created, err := h.Projects.CreateScheduleItem(ctx, item, claims.UserID)
	if err != nil {
		h.Logger.WithError(err).Error("Failed to create schedule item")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to create schedule item", h.Logger), nil
	}

	return api.SuccessResponse(http.StatusCreated, created, h.Logger), nil
}
