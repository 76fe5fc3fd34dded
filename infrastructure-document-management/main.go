package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

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
	Documents data.DocumentRepository
	Projects  data.ProjectRepository
	Storage   clients.S3ClientInterface
	URLExpiry time.Duration
	Evaluator *permissions.Evaluator
	Logger    *logrus.Logger
	Now       func() time.Time
}

// Handle processes API Gateway requests for project document operations
//
//	POST   /projects/{projectId}/documents/upload-url  - Presigned upload URL for a new document
//	POST   /documents/{documentId}/confirm             - Mark an upload as complete
//	GET    /projects/{projectId}/documents             - List uploaded documents
//	GET    /documents/{documentId}/download-url        - Presigned download URL
//	DELETE /documents/{documentId}                     - Soft delete and remove the object
func (h *Handler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	h.Logger.WithFields(logrus.Fields{
		"method":      request.HTTPMethod,
		"path":        request.Path,
		"resource":    request.Resource,
		"path_params": request.PathParameters,
		"operation":   "Handle",
	}).Debug("Processing document management request")

	claims, err := auth.ExtractClaimsFromRequest(request)
	if err != nil {
		h.Logger.WithFields(logrus.Fields{
			"error":     err.Error(),
			"operation": "Handle",
		}).Error("Authentication failed")
		return api.ErrorResponse(http.StatusUnauthorized, "Authentication failed", h.Logger), nil
	}

	switch {
	case request.Resource == "/projects/{projectId}/documents/upload-url" && request.HTTPMethod == http.MethodPost:
		return h.handleGenerateUploadURL(ctx, request, claims)
	case request.Resource == "/documents/{documentId}/confirm" && request.HTTPMethod == http.MethodPost:
		return h.handleConfirmUpload(ctx, request, claims)
	case request.Resource == "/projects/{projectId}/documents" && request.HTTPMethod == http.MethodGet:
		return h.handleGetDocuments(ctx, request, claims)
	case request.Resource == "/documents/{documentId}/download-url" && request.HTTPMethod == http.MethodGet:
		return h.handleGenerateDownloadURL(ctx, request, claims)
	case request.Resource == "/documents/{documentId}" && request.HTTPMethod == http.MethodDelete:
		return h.handleDeleteDocument(ctx, request, claims)
	default:
		h.Logger.WithFields(logrus.Fields{
			"method":    request.HTTPMethod,
			"resource":  request.Resource,
			"operation": "Handle",
		}).Warn("Endpoint not found")
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", h.Logger), nil
	}
}

func main() {
	ctx := context.Background()
	isLocal, _ := strconv.ParseBool(os.Getenv("IS_LOCAL"))
	logger := util.NewLogger(isLocal)

	logger.WithField("operation", "main").Info("Initializing Document Management Lambda")

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
		err = cfg.RequireDocuments()
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
		Documents: data.NewDocumentRepository(sqlDB, logger),
		Projects:  data.NewProjectRepository(sqlDB, logger),
		Storage:   clients.NewS3Client(isLocal, cfg.DocumentsBucket),
		URLExpiry: cfg.DocumentURLExpiry,
		Evaluator: permissions.NewEvaluator(),
		Logger:    logger,
		Now:       time.Now,
	}

	logger.WithFields(logrus.Fields{
		"bucket":     cfg.DocumentsBucket,
		"url_expiry": cfg.DocumentURLExpiry.String(),
		"operation":  "main",
	}).Info("Document Management Lambda initialization completed successfully")
	lambda.Start(h.Handle)
}
