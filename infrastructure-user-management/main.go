package main

import (
	"context"
	"net/http"
	"os"
	"strconv"

	"dashboard/lib/api"
	"dashboard/lib/auth"
	"dashboard/lib/clients"
	"dashboard/lib/config"
	"dashboard/lib/data"
	"dashboard/lib/permissions"
	"dashboard/lib/util"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
)

// Handler struct contains all dependencies for the Lambda function
type Handler struct {
	Users     data.UserRepository
	Directory clients.UserDirectory
	Evaluator *permissions.Evaluator
	Logger    *logrus.Logger
}

// Handle processes API Gateway requests for user management operations
func (h *Handler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	h.Logger.WithFields(logrus.Fields{
		"operation": "Handle",
		"method":    request.HTTPMethod,
		"path":      request.Path,
		"resource":  request.Resource,
	}).Debug("User management request received")

	claims, err := auth.ExtractClaimsFromRequest(request)
	if err != nil {
		h.Logger.WithError(err).Error("Authentication failed")
		return api.ErrorResponse(http.StatusUnauthorized, "Authentication failed", h.Logger), nil
	}

	switch {
	case request.Resource == "/me" && request.HTTPMethod == http.MethodGet:
		return h.handleGetMe(ctx, claims)
	case request.Resource == "/users" && request.HTTPMethod == http.MethodGet:
		return h.handleGetUsers(ctx, request, claims)
	case request.Resource == "/users" && request.HTTPMethod == http.MethodPost:
		return h.handleCreateUser(ctx, request, claims)
	case request.Resource == "/users/{userId}" && request.HTTPMethod == http.MethodGet:
		return h.handleGetUser(ctx, request, claims)
	case request.Resource == "/users/{userId}" && request.HTTPMethod == http.MethodPut:
		return h.handleUpdateUser(ctx, request, claims)
	case request.Resource == "/users/{userId}/memberships" && request.HTTPMethod == http.MethodPut:
		return h.handleReplaceMemberships(ctx, request, claims)
	case request.Resource == "/users/{userId}/status" && request.HTTPMethod == http.MethodPatch:
		return h.handleUpdateUserStatus(ctx, request, claims)
	default:
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", h.Logger), nil
	}
}

func main() {
	ctx := context.Background()
	isLocal, _ := strconv.ParseBool(os.Getenv("IS_LOCAL"))
	logger := util.NewLogger(isLocal)

	ssmRepository := &data.SSMDao{
		SSM:    clients.NewSSMClient(isLocal),
		Logger: logger,
	}
	ssmParams, err := ssmRepository.GetParameters(ctx)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"operation": "main",
			"error":     err.Error(),
		}).Fatal("Error while getting SSM params from parameter store")
	}

	cfg, err := config.Load(ssmParams, os.Getenv)
	if err == nil {
		err = cfg.RequireDatabase()
	}
	if err == nil {
		err = cfg.RequireCognito()
	}
	if err != nil {
		logger.WithFields(logrus.Fields{
			"operation": "main",
			"error":     err.Error(),
		}).Fatal("Invalid configuration")
	}

	sqlDB, err := clients.NewPostgresSQLClient(cfg.Database)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"operation": "main",
			"error":     err.Error(),
		}).Fatal("Error setting up PostgreSQL client")
	}

	h := &Handler{
		Users:     data.NewUserRepository(sqlDB, logger),
		Directory: clients.NewUserDirectory(clients.NewCognitoIdentityProviderClient(isLocal), cfg.CognitoUserPoolID),
		Evaluator: permissions.NewEvaluator(),
		Logger:    logger,
	}

	logger.WithField("operation", "main").Info("User Management Lambda initialization completed successfully")
	lambda.Start(h.Handle)
}
