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

// handleCreateChangeOrder handles POST /projects/{projectId}/change-orders
func (h *Handler) handleCreateChangeOrder(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	var createRequest models.CreateChangeOrderRequest
	if err := api.ParseJSONBody(request.Body, &createRequest); err != nil {
		h.Logger.WithError(err).Error("Invalid request body for create change order")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", h.Logger), nil
	}
	if errs := createRequest.Validate(); len(errs) > 0 {
		return api.ValidationErrorResponse("Validation failed", errs, h.Logger), nil
	}

	project, resp, ok := h.loadProject(ctx, request.PathParameters["projectId"], claims, models.PermCreateChangeOrders)
	if !ok {
		return resp, nil
	}

	changeOrder, err := h.ChangeOrders.CreateChangeOrder(ctx, project.ProjectID, &createRequest, claims.UserID)
	if err != nil {
		h.Logger.WithError(err).Error("Failed to create change order")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to create change order", h.Logger), nil
	}

	return api.SuccessResponse(http.StatusCreated, changeOrder, h.Logger), nil
}

// handleGetChangeOrders handles GET /projects/{projectId}/change-orders with an optional status filter
func (h *Handler) handleGetChangeOrders(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	var status models.ChangeOrderStatus
	if raw := request.QueryStringParameters["status"]; raw != "" {
		parsed, err := models.ParseChangeOrderStatus(raw)
		if err != nil {
			return api.ErrorResponse(http.StatusBadRequest, "Invalid status parameter", h.Logger), nil
		}
		status = parsed
	}

	project, resp, ok := h.loadProject(ctx, request.PathParameters["projectId"], claims, models.PermViewChangeOrders)
	if !ok {
		return resp, nil
	}

	changeOrders, err := h.ChangeOrders.ListChangeOrders(ctx, project.ProjectID, status)
	if err != nil {
		h.Logger.WithError(err).Error("Failed to get change orders")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get change orders", h.Logger), nil
	}

	return api.SuccessResponse(http.StatusOK, models.ChangeOrderListResponse{
		ChangeOrders: changeOrders,
		Total:        len(changeOrders),
	}, h.Logger), nil
}

// handleGetChangeOrder handles GET /change-orders/{changeOrderId}
func (h *Handler) handleGetChangeOrder(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	changeOrder, resp, ok := h.loadChangeOrder(ctx, request, claims, models.PermViewChangeOrders)
	if !ok {
		return resp, nil
	}
	return api.SuccessResponse(http.StatusOK, changeOrder, h.Logger), nil
}

// handleApproveChangeOrder handles POST /change-orders/{changeOrderId}/approve.
// The caller needs approve_change_orders in the project's division and enough
// approval authority for the amount.
func (h *Handler) handleApproveChangeOrder(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	changeOrder, resp, ok := h.loadChangeOrder(ctx, request, claims, models.PermApproveChangeOrders)
	if !ok {
		return resp, nil
	}
	if !h.Evaluator.CanApproveChangeOrders(claims, &changeOrder.Amount) {
		h.Logger.WithFields(logrus.Fields{
			"user_id":         claims.UserID,
			"change_order_id": changeOrder.ChangeOrderID,
			"amount":          changeOrder.Amount,
			"operation":       "handleApproveChangeOrder",
		}).Warn("Change order amount exceeds approval authority")
		return api.ErrorResponse(http.StatusForbidden, "Change order amount exceeds your approval authority", h.Logger), nil
	}

	approved, err := h.ChangeOrders.ApproveChangeOrder(ctx, changeOrder.ChangeOrderID, claims.UserID)
	if err != nil {
		return h.decisionError(err, "approve"), nil
	}
	return api.SuccessResponse(http.StatusOK, approved, h.Logger), nil
}

// handleRejectChangeOrder handles POST /change-orders/{changeOrderId}/reject
func (h *Handler) handleRejectChangeOrder(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	var rejectRequest models.RejectChangeOrderRequest
	if err := api.ParseJSONBody(request.Body, &rejectRequest); err != nil {
		h.Logger.WithError(err).Error("Invalid request body for reject change order")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", h.Logger), nil
	}
	if errs := rejectRequest.Validate(); len(errs) > 0 {
		return api.ValidationErrorResponse("Validation failed", errs, h.Logger), nil
	}

	changeOrder, resp, ok := h.loadChangeOrder(ctx, request, claims, models.PermApproveChangeOrders)
	if !ok {
		return resp, nil
	}
	if !h.Evaluator.CanApproveChangeOrders(claims, &changeOrder.Amount) {
		return api.ErrorResponse(http.StatusForbidden, "Change order amount exceeds your approval authority", h.Logger), nil
	}

	rejected, err := h.ChangeOrders.RejectChangeOrder(ctx, changeOrder.ChangeOrderID, rejectRequest.Reason, claims.UserID)
	if err != nil {
		return h.decisionError(err, "reject"), nil
	}
	return api.SuccessResponse(http.StatusOK, rejected, h.Logger), nil
}

func (h *Handler) decisionError(err error, action string) events.APIGatewayProxyResponse {
	switch {
	case errors.Is(err, data.ErrChangeOrderDecided):
		return api.ErrorResponse(http.StatusConflict, "Change order has already been decided", h.Logger)
	case errors.Is(err, data.ErrChangeOrderNotFound):
		return api.ErrorResponse(http.StatusNotFound, "Change order not found", h.Logger)
	default:
		h.Logger.WithError(err).Error("Failed to " + action + " change order")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to "+action+" change order", h.Logger)
	}
}

// loadChangeOrder fetches the change order in the path and checks permission
// in the division of its project
func (h *Handler) loadChangeOrder(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims, permission models.Permission) (*models.ChangeOrder, events.APIGatewayProxyResponse, bool) {
	changeOrderID := request.PathParameters["changeOrderId"]
	if changeOrderID == "" {
		return nil, api.ErrorResponse(http.StatusBadRequest, "Invalid change order ID", h.Logger), false
	}

	changeOrder, err := h.ChangeOrders.GetChangeOrderByID(ctx, changeOrderID)
	if err != nil {
		if errors.Is(err, data.ErrChangeOrderNotFound) {
			return nil, api.ErrorResponse(http.StatusNotFound, "Change order not found", h.Logger), false
		}
		h.Logger.WithError(err).Error("Failed to get change order")
		return nil, api.ErrorResponse(http.StatusInternalServerError, "Failed to get change order", h.Logger), false
	}

	if _, resp, ok := h.loadProject(ctx, changeOrder.ProjectID, claims, permission); !ok {
		return nil, resp, false
	}
	return changeOrder, events.APIGatewayProxyResponse{}, true
}

func (h *Handler) loadProject(ctx context.Context, projectID string, claims *auth.Claims, permission models.Permission) (*models.Project, events.APIGatewayProxyResponse, bool) {
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
		h.Logger.WithFields(logrus.Fields{
			"user_id":     claims.UserID,
			"permission":  permission,
			"division_id": project.DivisionID,
			"operation":   "authorize",
		}).Warn("Permission denied")
		return nil, api.ForbiddenResponse(h.Logger), false
	}
	return project, events.APIGatewayProxyResponse{}, true
}
