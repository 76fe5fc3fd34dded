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

// handleCreateProject handles POST /projects
func (h *Handler) handleCreateProject(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	var createRequest models.CreateProjectRequest
	if err := api.ParseJSONBody(request.Body, &createRequest); err != nil {
		h.Logger.WithError(err).Error("Invalid request body for create project")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", h.Logger), nil
	}

	input, validationErrors := createRequest.Validate()
	if validationErrors != nil {
		return api.ValidationErrorResponse("Validation failed", api.FieldErrors(validationErrors), h.Logger), nil
	}

	if !h.Evaluator.HasProjectPermission(claims, models.PermCreateProjects, input.DivisionID) {
		return h.forbidden(claims, models.PermCreateProjects, input.DivisionID), nil
	}
	if input.Budget != nil && !h.Evaluator.HasProjectPermission(claims, models.PermEditBudgets, input.DivisionID) {
		return h.forbidden(claims, models.PermEditBudgets, input.DivisionID), nil
	}

	project, err := h.Projects.CreateProject(ctx, input, claims.UserID)
	if err != nil {
		h.Logger.WithError(err).Error("Failed to create project")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to create project", h.Logger), nil
	}

	return api.SuccessResponse(http.StatusCreated, project, h.Logger), nil
}

// handleGetProjects handles GET /projects with optional division_id and status query parameters
func (h *Handler) handleGetProjects(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	divisions, all := h.Evaluator.AccessibleDivisions(claims)
	filter := data.ProjectFilter{DivisionIDs: divisions, AllDivisions: all}

	if divisionID := request.QueryStringParameters["division_id"]; divisionID != "" {
		if !h.Evaluator.CanAccessProject(claims, divisionID) {
			return h.forbidden(claims, models.PermViewProjects, divisionID), nil
		}
		filter = data.ProjectFilter{DivisionIDs: []string{divisionID}}
	}

	if raw := request.QueryStringParameters["status"]; raw != "" {
		status, err := models.ParseProjectStatus(raw)
		if err != nil {
			return api.ErrorResponse(http.StatusBadRequest, "Invalid status parameter", h.Logger), nil
		}
		filter.Status = status
	}

	projects, err := h.Projects.ListProjects(ctx, filter)
	if err != nil {
		h.Logger.WithError(err).Error("Failed to get projects")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get projects", h.Logger), nil
	}

	// Division membership alone does not grant view_projects
	visible := make([]models.Project, 0, len(projects))
	for _, project := range projects {
		if h.Evaluator.HasProjectPermission(claims, models.PermViewProjects, project.DivisionID) {
			visible = append(visible, project)
		}
	}

	return api.SuccessResponse(http.StatusOK, models.ProjectListResponse{
		Projects: visible,
		Total:    len(visible),
	}, h.Logger), nil
}

// handleGetProject handles GET /projects/{projectId}
func (h *Handler) handleGetProject(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	project, resp, ok := h.loadProject(ctx, request, claims, models.PermViewProjects)
	if !ok {
		return resp, nil
	}
	return api.SuccessResponse(http.StatusOK, project, h.Logger), nil
}

// handleUpdateProject handles PUT /projects/{projectId}
func (h *Handler) handleUpdateProject(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	var updateRequest models.UpdateProjectRequest
	if err := api.ParseJSONBody(request.Body, &updateRequest); err != nil {
		h.Logger.WithError(err).Error("Invalid request body for update project")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", h.Logger), nil
	}

	project, resp, ok := h.loadProject(ctx, request, claims, models.PermEditProjects)
	if !ok {
		return resp, nil
	}
	if updateRequest.Budget != nil && !h.Evaluator.HasProjectPermission(claims, models.PermEditBudgets, project.DivisionID) {
		return h.forbidden(claims, models.PermEditBudgets, project.DivisionID), nil
	}

	input, validationErrors := updateRequest.Apply(project)
	if validationErrors != nil {
		return api.ValidationErrorResponse("Validation failed", api.FieldErrors(validationErrors), h.Logger), nil
	}

	updated, err := h.Projects.UpdateProject(ctx, project.ProjectID, input, claims.UserID)
	if err != nil {
		if errors.Is(err, data.ErrProjectNotFound) {
			return api.ErrorResponse(http.StatusNotFound, "Project not found", h.Logger), nil
		}
		h.Logger.WithError(err).Error("Failed to update project")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to update project", h.Logger), nil
	}

	return api.SuccessResponse(http.StatusOK, updated, h.Logger), nil
}

// loadProject fetches the project named in the path and checks the caller holds
// permission on it. When ok is false the response is ready to return.
func (h *Handler) loadProject(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims, permission models.Permission) (*models.Project, events.APIGatewayProxyResponse, bool) {
	projectID := request.PathParameters["projectId"]
	if projectID == "" {
		return nil, api.ErrorResponse(http.StatusBadRequest, "Invalid project ID", h.Logger), false
	}

	project, err := h.Projects.GetProjectByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, data.ErrProjectNotFound) {
			return nil, api.ErrorResponse(http.StatusNotFound, "Project not found", h.Logger), false
		}
		h.Logger.WithError(err).Error("Failed to get project")
		return nil, api.ErrorResponse(http.StatusInternalServerError, "Failed to get project", h.Logger), false
	}

	if !h.Evaluator.HasProjectPermission(claims, permission, project.DivisionID) {
		return nil, h.forbidden(claims, permission, project.DivisionID), false
	}
	return project, events.APIGatewayProxyResponse{}, true
}

func (h *Handler) forbidden(claims *auth.Claims, permission models.Permission, divisionID string) events.APIGatewayProxyResponse {
	h.Logger.WithFields(logrus.Fields{
		"user_id":     claims.UserID,
		"permission":  permission,
		"division_id": divisionID,
		"operation":   "authorize",
	}).Warn("Permission denied")
	return api.ForbiddenResponse(h.Logger)
}
