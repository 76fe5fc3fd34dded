package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"dashboard/lib/api"
	"dashboard/lib/auth"
	"dashboard/lib/clients"
	"dashboard/lib/data"
	"dashboard/lib/models"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"
)

// handleGetMe handles GET /me. Permissions are computed from the stored
// memberships so changes show up before the token is refreshed.
func (h *Handler) handleGetMe(ctx context.Context, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	user, err := h.Users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, data.ErrUserNotFound) {
			return api.ErrorResponse(http.StatusNotFound, "User not found", h.Logger), nil
		}
		h.Logger.WithError(err).Error("Failed to get current user")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get user", h.Logger), nil
	}

	summary := models.PermissionSummary{
		Permissions: h.Evaluator.GetUserPermissions(user),
		Memberships: user.Memberships,
	}
	if role, ok := h.Evaluator.GetUserHighestRole(user); ok {
		summary.HighestRole = &role
	}

	return api.SuccessResponse(http.StatusOK, models.MeResponse{User: user, PermissionSummary: summary}, h.Logger), nil
}

// handleGetUsers handles GET /users with an optional include_inactive query parameter
func (h *Handler) handleGetUsers(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	if !h.Evaluator.HasPermission(claims, models.PermViewUsers, "") {
		return h.forbidden(claims, models.PermViewUsers), nil
	}

	divisions, all := h.Evaluator.AccessibleDivisions(claims)
	filter := data.UserFilter{DivisionIDs: divisions, AllDivisions: all}
	if raw := request.QueryStringParameters["include_inactive"]; raw != "" {
		includeInactive, err := strconv.ParseBool(raw)
		if err != nil {
			return api.ErrorResponse(http.StatusBadRequest, "Invalid include_inactive parameter", h.Logger), nil
		}
		filter.IncludeInactive = includeInactive
	}

	users, err := h.Users.ListUsers(ctx, filter)
	if err != nil {
		h.Logger.WithError(err).Error("Failed to get users")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get users", h.Logger), nil
	}

	visible := make([]models.User, 0, len(users))
	for i := range users {
		if h.canViewUser(claims, &users[i]) {
			visible = append(visible, users[i])
		}
	}

	return api.SuccessResponse(http.StatusOK, models.UserListResponse{
		Users: visible,
		Total: len(visible),
	}, h.Logger), nil
}

// handleGetUser handles GET /users/{userId}
func (h *Handler) handleGetUser(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	user, resp, ok := h.loadUser(ctx, request)
	if !ok {
		return resp, nil
	}
	if !h.canViewUser(claims, user) {
		return h.forbidden(claims, models.PermViewUsers), nil
	}
	return api.SuccessResponse(http.StatusOK, user, h.Logger), nil
}

// handleCreateUser handles POST /users. The account is created in Cognito first
// and removed again if the database write fails.
func (h *Handler) handleCreateUser(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	var createRequest models.CreateUserRequest
	if err := api.ParseJSONBody(request.Body, &createRequest); err != nil {
		h.Logger.WithError(err).Error("Invalid request body for create user")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", h.Logger), nil
	}

	memberships, errs := createRequest.Validate()
	if len(errs) > 0 {
		return api.ValidationErrorResponse("Validation failed", errs, h.Logger), nil
	}

	if !h.Evaluator.HasPermission(claims, models.PermManageUsers, "") {
		return h.forbidden(claims, models.PermManageUsers), nil
	}
	if !h.Evaluator.IsGlobalAdmin(claims) && len(memberships) == 0 {
		return api.ValidationErrorResponse("Validation failed",
			[]string{"memberships: at least one membership in a division you manage is required"}, h.Logger), nil
	}
	if !h.canGrant(claims, nil, memberships) {
		return h.forbidden(claims, models.PermManageUsers), nil
	}

	cognitoID, err := h.Directory.InviteUser(ctx, createRequest.Email, createRequest.FirstName, createRequest.LastName)
	if err != nil {
		if errors.Is(err, clients.ErrAccountExists) {
			return api.ErrorResponse(http.StatusConflict, "A user with this email already exists", h.Logger), nil
		}
		h.Logger.WithError(err).Error("Failed to invite user")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to create user", h.Logger), nil
	}

	user, err := h.Users.CreateUser(ctx, &models.User{
		CognitoID:   cognitoID,
		Email:       createRequest.Email,
		FirstName:   createRequest.FirstName,
		LastName:    createRequest.LastName,
		IsInternal:  createRequest.IsInternal,
		Memberships: memberships,
	})
	if err != nil {
		if deleteErr := h.Directory.DeleteUser(ctx, createRequest.Email); deleteErr != nil {
			h.Logger.WithFields(logrus.Fields{
				"email":     createRequest.Email,
				"operation": "handleCreateUser",
				"error":     deleteErr.Error(),
			}).Error("Failed to remove Cognito account after database error")
		}
		switch {
		case errors.Is(err, data.ErrUserExists):
			return api.ErrorResponse(http.StatusConflict, "A user with this email already exists", h.Logger), nil
		case errors.Is(err, data.ErrDivisionNotFound):
			return api.ErrorResponse(http.StatusBadRequest, "Unknown division in memberships", h.Logger), nil
		}
		h.Logger.WithError(err).Error("Failed to create user")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to create user", h.Logger), nil
	}

	return api.SuccessResponse(http.StatusCreated, models.CreateUserResponse{
		User:    user,
		Message: "Invitation sent to " + user.Email,
	}, h.Logger), nil
}

// handleUpdateUser handles PUT /users/{userId}. Users may edit their own name;
// the internal flag is only editable by someone who manages them.
func (h *Handler) handleUpdateUser(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	var updateRequest models.UpdateUserRequest
	if err := api.ParseJSONBody(request.Body, &updateRequest); err != nil {
		h.Logger.WithError(err).Error("Invalid request body for update user")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", h.Logger), nil
	}
	if errs := updateRequest.Validate(); len(errs) > 0 {
		return api.ValidationErrorResponse("Validation failed", errs, h.Logger), nil
	}

	target, resp, ok := h.loadUser(ctx, request)
	if !ok {
		return resp, nil
	}

	manages := h.administers(claims, target)
	self := target.UserID == claims.UserID
	if !manages && (!self || updateRequest.IsInternal != nil) {
		return h.forbidden(claims, models.PermManageUsers), nil
	}

	user, err := h.Users.UpdateUser(ctx, target.UserID, &updateRequest)
	if err != nil {
		if errors.Is(err, data.ErrUserNotFound) {
			return api.ErrorResponse(http.StatusNotFound, "User not found", h.Logger), nil
		}
		h.Logger.WithError(err).Error("Failed to update user")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to update user", h.Logger), nil
	}

	return api.SuccessResponse(http.StatusOK, user, h.Logger), nil
}

// handleUpdateUserStatus handles PATCH /users/{userId}/status
func (h *Handler) handleUpdateUserStatus(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	var statusRequest models.UpdateUserStatusRequest
	if err := api.ParseJSONBody(request.Body, &statusRequest); err != nil {
		h.Logger.WithError(err).Error("Invalid request body for update user status")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", h.Logger), nil
	}
	if statusRequest.IsActive == nil {
		return api.ValidationErrorResponse("Validation failed", []string{"is_active: required"}, h.Logger), nil
	}
	active := *statusRequest.IsActive

	target, resp, ok := h.loadUser(ctx, request)
	if !ok {
		return resp, nil
	}
	if target.UserID == claims.UserID {
		return api.ErrorResponse(http.StatusBadRequest, "You cannot change your own status", h.Logger), nil
	}
	if !h.administers(claims, target) {
		return h.forbidden(claims, models.PermManageUsers), nil
	}

	if err := h.Users.SetUserActive(ctx, target.UserID, active); err != nil {
		if errors.Is(err, data.ErrUserNotFound) {
			return api.ErrorResponse(http.StatusNotFound, "User not found", h.Logger), nil
		}
		h.Logger.WithError(err).Error("Failed to update user status")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to update user status", h.Logger), nil
	}

	var directoryErr error
	if active {
		directoryErr = h.Directory.EnableUser(ctx, target.Email)
	} else {
		directoryErr = h.Directory.DisableUser(ctx, target.Email)
	}
	if directoryErr != nil {
		h.Logger.WithFields(logrus.Fields{
			"user_id":   target.UserID,
			"is_active": active,
			"operation": "handleUpdateUserStatus",
			"error":     directoryErr.Error(),
		}).Error("Failed to update Cognito account, reverting")
		if err := h.Users.SetUserActive(ctx, target.UserID, target.IsActive); err != nil {
			h.Logger.WithError(err).Error("Failed to revert user status")
		}
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to update user status", h.Logger), nil
	}

	h.Logger.WithFields(logrus.Fields{
		"user_id":    target.UserID,
		"is_active":  active,
		"changed_by": claims.UserID,
		"operation":  "handleUpdateUserStatus",
	}).Info("User status changed")

	target.IsActive = active
	return api.SuccessResponse(http.StatusOK, target, h.Logger), nil
}

// canViewUser reports whether the caller may see the target user. Everyone may
// see themselves; otherwise view_users is needed in a division the target belongs
// to, or in the group division which also covers users with no memberships yet.
func (h *Handler) canViewUser(claims *auth.Claims, target *models.User) bool {
	if target.UserID == claims.UserID || h.Evaluator.IsGlobalAdmin(claims) {
		return true
	}
	if h.Evaluator.HasPermission(claims, models.PermViewUsers, h.Evaluator.GroupDivision) {
		return true
	}
	for _, m := range target.Memberships {
		if h.Evaluator.HasPermission(claims, models.PermViewUsers, m.DivisionID) {
			return true
		}
	}
	return false
}

func (h *Handler) loadUser(ctx context.Context, request events.APIGatewayProxyRequest) (*models.User, events.APIGatewayProxyResponse, bool) {
	userID := request.PathParameters["userId"]
	if userID == "" {
		return nil, api.ErrorResponse(http.StatusBadRequest, "Invalid user ID", h.Logger), false
	}

	user, err := h.Users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, data.ErrUserNotFound) {
			return nil, api.ErrorResponse(http.StatusNotFound, "User not found", h.Logger), false
		}
		h.Logger.WithError(err).Error("Failed to get user")
		return nil, api.ErrorResponse(http.StatusInternalServerError, "Failed to get user", h.Logger), false
	}
	return user, events.APIGatewayProxyResponse{}, true
}

func (h *Handler) forbidden(claims *auth.Claims, permission models.Permission) events.APIGatewayProxyResponse {
	h.Logger.WithFields(logrus.Fields{
		"user_id":    claims.UserID,
		"permission": permission,
		"operation":  "authorize",
	}).Warn("Permission denied")
	return api.ForbiddenResponse(h.Logger)
}

// administers reports whether the caller may change another user's account.
// Only admins may touch an admin's account.
func (h *Handler) administers(claims *auth.Claims, target *models.User) bool {
	if !h.Evaluator.HasPermission(claims, models.PermManageUsers, "") || !h.Evaluator.CanManageUser(claims, target) {
		return false
	}
	return h.Evaluator.IsGlobalAdmin(claims) || !h.Evaluator.IsGlobalAdmin(target)
}
