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
	Projects  data.ProjectRepository
	Evaluator *permissions.Evaluator
	Logger    *logrus.Logger
}

// Handle processes API Gateway requests for project management operations
func (h *Handler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	h.Logger.WithFields(logrus.Fields{
		"method":      request.HTTPMethod,
		"path":        request.Path,
		"resource":    request.Resource,
		"path_params": request.PathParameters,
		"operation":   "Handle",
	}).Debug("Processing project management request")

	claims, err := auth.ExtractClaimsFromRequest(request)
	if err != nil {
		h.Logger.WithFields(logrus.Fields{
			"error":     err.Error(),
			"operation": "Handle",
		}).Error("Authentication failed")
		return api.ErrorResponse(http.StatusUnauthorized, "Authentication failed", h.Logger), nil
	}

	switch {
	case request.Resource == "/projects" && request.HTTPMethod == http.MethodPost:
		return h.handleCreateProject(ctx, request, claims)
	case request.Resource == "/projects" && request.HTTPMethod == http.MethodGet:
		return h.handleGetProjects(ctx, request, claims)
	case request.Resource == "/projects/{projectId}" && request.HTTPMethod == http.MethodGet:
		return h.handleGetProject(ctx, request, claims)
	case request.Resource == "/projects/{projectId}" && request.HTTPMethod == http.MethodPut:
		return h.handleUpdateProject(ctx, request, claims)

	// Status workflow
	case request.Resource == "/projects/{projectId}/status" && request.HTTPMethod == http.MethodGet:
		return h.handleGetProjectStatus(ctx, request, claims)
	case request.Resource == "/projects/{projectId}/status" && request.HTTPMethod == http.MethodPut:
		return h.handleUpdateProjectStatus(ctx, request, claims)
	case request.Resource == "/projects/{projectId}/status-history" && request.HTTPMethod == http.MethodGet:
		return h.handleGetStatusHistory(ctx, request, claims)

	// Schedule
	case request.Resource == "/projects/{projectId}/schedule" && request.HTTPMethod == http.MethodGet:
		return h.handleGetSchedule(ctx, request, claims)
	case request.Resource == "/projects/{projectId}/schedule" && request.HTTPMethod == http.MethodPost:
		return h.handleCreateScheduleItem(ctx, request, claims)

	default:
		h.Logger.WithFields(logrus.Fields{
			"method":    request.HTTPMethod,
			"resource":  request.Resource,
			"operation": "Handle",
		}).Warn("Endpoint not found")
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", h.Logger), nil
	}
}

// main is the Lambda function entry point
func main() {
	ctx := context.Background()
	isLocal, _ := strconv.ParseBool(os.Getenv("IS_LOCAL"))
	logger := util.NewLogger(isLocal)

	logger.WithField("operation", "main").Info("Initializing Project Management Lambda")

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
		Projects:  data.NewProjectRepository(sqlDB, logger),
		Evaluator: permissions.NewEvaluator(),
		Logger:    logger,
	}

	logger.WithField("operation", "main").Info("Project Management Lambda initialization completed successfully")
	lambda.Start(h.Handle)
}
