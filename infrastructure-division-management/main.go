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
	Divisions data.DivisionRepository
	Evaluator *permissions.Evaluator
	Logger    *logrus.Logger
}

// Handle processes API Gateway requests for division operations
func (h *Handler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	h.Logger.WithFields(logrus.Fields{
		"method":    request.HTTPMethod,
		"resource":  request.Resource,
		"operation": "Handle",
	}).Debug("Processing division request")

	claims, err := auth.ExtractClaimsFromRequest(request)
	if err != nil {
		h.Logger.WithError(err).Error("Authentication failed")
		return api.ErrorResponse(http.StatusUnauthorized, "Authentication failed", h.Logger), nil
	}

	switch {
	case request.Resource == "/divisions" && request.HTTPMethod == http.MethodGet:
		return h.handleGetDivisions(ctx, claims)
	case request.Resource == "/divisions/{divisionId}" && request.HTTPMethod == http.MethodGet:
		return h.handleGetDivision(ctx, request, claims)
	case request.Resource == "/divisions/{divisionId}" && request.HTTPMethod == http.MethodPut:
		return h.handleUpdateDivision(ctx, request, claims)
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
		Divisions: data.NewDivisionRepository(sqlDB, logger),
		Evaluator: permissions.NewEvaluator(),
		Logger:    logger,
	}
	lambda.Start(h.Handle)
}
