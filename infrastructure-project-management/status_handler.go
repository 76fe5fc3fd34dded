package main

import (
	"context"
	"errors"
	"net/http"

	"dashboard/lib/api"
	"dashboard/lib/auth"
	"dashboard/lib/data"
	"dashboard/lib/models"
	"dashboard/lib/workflow"

	"github.com/aws/aws-lambda-go/events"
)

// handleGetProjectStatus handles GET /projects/{projectId}/status.
// Allowed transitions are only listed for callers who may change the status.
func (h *Handler) handleGetProjectStatus(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	project, resp, ok := h.loadProject(ctx, request, claims, models.PermViewProjects)
	if !ok {
		return resp, nil
	}

	allowed := []models.ProjectStatus{}
	if h.Evaluator.HasProjectPermission(claims, models.PermManageProjectStatus, project.DivisionID) {
		allowed = workflow.AllowedTransitions(project.Status)
	}

	return api.SuccessResponse(http.StatusOK, models.ProjectStatusResponse{
		ProjectID:          project.ProjectID,
		Status:             project.Status,
		AllowedTransitions: allowed,
	}, h.Logger), nil
}

// handleUpdateProjectStatus handles PUT /projects/{projectId}/status
func (h *Handler) handleUpdateProjectStatus(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	var statusRequest models.UpdateProjectStatusRequest
	if err := api.ParseJSONBody(request.Body, &statusRequest); err != nil {
		h.Logger.WithError(err).Error("Invalid request body for update project status")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", h.Logger), nil
	}

	next, err := models.ParseProjectStatus(statusRequest.Status)
	if err != nil {
		return api.ValidationErrorResponse("Validation failed", []string{"status: " + err.Error()}, h.Logger), nil
	}

	project, resp, ok := h.loadProject(ctx, request, claims, models.PermManageProjectStatus)
	if !ok {
		return resp, nil
	}

	var refreshed *models.Project
	controller := workflow.NewController(
		project.Status,
		workflow.UpdaterFunc(func(ctx context.Context, from, to models.ProjectStatus, reason string) error {
			return h.Projects.UpdateProjectStatus(ctx, project.ProjectID, from, to, reason, claims.UserID)
		}),
		workflow.LoaderFunc(func(ctx context.Context) (models.ProjectStatus, error) {
			p, err := h.Projects.GetProjectByID(ctx, project.ProjectID)
			if err != nil {
				return "", err
			}
			refreshed = p
			return p.Status, nil
		}),
		&workflow.LogNotifier{Logger: h.Logger, ProjectID: project.ProjectID, UserID: claims.UserID},
	)

	status, err := controller.Transition(ctx, next, statusRequest.Reason)
	switch {
	case err == nil:
		return api.SuccessResponse(http.StatusOK, refreshed, h.Logger), nil
	case errors.Is(err, workflow.ErrReloadFailed):
		project.Status = status
		return api.SuccessResponse(http.StatusOK, project, h.Logger), nil
	case errors.Is(err, workflow.ErrInvalidTransition):
		return api.ErrorResponse(http.StatusUnprocessableEntity,
			"Cannot change status from "+string(project.Status)+" to "+string(next), h.Logger), nil
	case errors.Is(err, data.ErrStatusConflict):
		return api.ErrorResponse(http.StatusConflict, "Project status was changed by someone else, reload and try again", h.Logger), nil
	case errors.Is(err, data.ErrProjectNotFound):
		return api.ErrorResponse(http.StatusNotFound, "Project not found", h.Logger), nil
	default:
		h.Logger.WithError(err).Error("Failed to update project status")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to update project status", h.Logger), nil
	}
}

// handleGetStatusHistory handles GET /projects/{projectId}/status-history
func (h *Handler) handleGetStatusHistory(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	project, resp, ok := h.loadProject(ctx, request, claims, models.PermViewProjects)
	if !ok {
		return resp, nil
	}

	history, err := h.Projects.GetStatusHistory(ctx, project.ProjectID)
	if err != nil {
		h.Logger.WithError(err).Error("Failed to get status history")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get status history", h.Logger), nil
	}

	return api.SuccessResponse(http.StatusOK, map[string]interface{}{
		"project_id": project.ProjectID,
		"history":    history,
		"total":      len(history),
	}, h.Logger), nil
}
