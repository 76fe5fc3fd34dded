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
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// handleGenerateUploadURL handles POST /projects/{projectId}/documents/upload-url
func (h *Handler) handleGenerateUploadURL(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	var uploadRequest models.DocumentUploadRequest
	if err := api.ParseJSONBody(request.Body, &uploadRequest); err != nil {
		h.Logger.WithError(err).Error("Invalid request body for upload URL")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid request body", h.Logger), nil
	}
	if errs := uploadRequest.Validate(); len(errs) > 0 {
		return api.ValidationErrorResponse("Validation failed", errs, h.Logger), nil
	}

	project, resp, ok := h.loadProject(ctx, request.PathParameters["projectId"], claims, models.PermManageDocuments)
	if !ok {
		return resp, nil
	}

	documentID := uuid.New().String()
	document, err := h.Documents.CreateDocument(ctx, &models.Document{
		DocumentID:  documentID,
		ProjectID:   project.ProjectID,
		FileName:    uploadRequest.FileName,
		S3Key:       models.DocumentS3Key(project.ProjectID, documentID, uploadRequest.FileName),
		FileSize:    uploadRequest.FileSize,
		ContentType: uploadRequest.ContentType,
		UploadedBy:  claims.UserID,
	})
	if err != nil {
		h.Logger.WithError(err).Error("Failed to create document record")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to create document", h.Logger), nil
	}

	uploadURL, err := h.Storage.GenerateUploadURL(ctx, document.S3Key, uploadRequest.ContentType, h.URLExpiry)
	if err != nil {
		h.Logger.WithError(err).Error("Failed to generate upload URL")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to generate upload URL", h.Logger), nil
	}

	return api.SuccessResponse(http.StatusOK, models.DocumentUploadResponse{
		Document:  document,
		UploadURL: uploadURL,
		ExpiresAt: h.Now().Add(h.URLExpiry),
	}, h.Logger), nil
}

// handleConfirmUpload handles POST /documents/{documentId}/confirm.
// The object must be present in the bucket before the document becomes visible.
func (h *Handler) handleConfirmUpload(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	document, resp, ok := h.loadDocument(ctx, request, claims, models.PermManageDocuments)
	if !ok {
		return resp, nil
	}
	if document.Status == models.DocumentUploaded {
		return api.SuccessResponse(http.StatusOK, document, h.Logger), nil
	}

	exists, err := h.Storage.ObjectExists(ctx, document.S3Key)
	if err != nil {
		h.Logger.WithError(err).Error("Failed to check uploaded object")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to confirm upload", h.Logger), nil
	}
	if !exists {
		return api.ErrorResponse(http.StatusConflict, "File has not been uploaded yet", h.Logger), nil
	}

	if err := h.Documents.SetDocumentStatus(ctx, document.DocumentID, models.DocumentUploaded); err != nil {
		return h.documentError(err, "confirm upload"), nil
	}

	h.Logger.WithFields(logrus.Fields{
		"document_id": document.DocumentID,
		"project_id":  document.ProjectID,
		"user_id":     claims.UserID,
		"operation":   "handleConfirmUpload",
	}).Info("Upload confirmed")

	document.Status = models.DocumentUploaded
	return api.SuccessResponse(http.StatusOK, document, h.Logger), nil
}

// handleGetDocuments handles GET /projects/{projectId}/documents
func (h *Handler) handleGetDocuments(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	project, resp, ok := h.loadProject(ctx, request.PathParameters["projectId"], claims, models.PermViewDocuments)
	if !ok {
		return resp, nil
	}

	documents, err := h.Documents.ListDocuments(ctx, project.ProjectID)
	if err != nil {
		h.Logger.WithError(err).Error("Failed to get documents")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get documents", h.Logger), nil
	}

	return api.SuccessResponse(http.StatusOK, models.DocumentListResponse{
		Documents: documents,
		Total:     len(documents),
	}, h.Logger), nil
}

// handleGenerateDownloadURL handles GET /documents/{documentId}/download-url
func (h *Handler) handleGenerateDownloadURL(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	document, resp, ok := h.loadDocument(ctx, request, claims, models.PermViewDocuments)
	if !ok {
		return resp, nil
	}
	if document.Status != models.DocumentUploaded {
		return api.ErrorResponse(http.StatusConflict, "Document upload has not been confirmed", h.Logger), nil
	}

	downloadURL, err := h.Storage.GenerateDownloadURL(ctx, document.S3Key, h.URLExpiry)
	if err != nil {
		h.Logger.WithError(err).Error("Failed to generate download URL")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to generate download URL", h.Logger), nil
	}

	return api.SuccessResponse(http.StatusOK, models.DocumentDownloadResponse{
		DocumentID:  document.DocumentID,
		DownloadURL: downloadURL,
		ExpiresAt:   h.Now().Add(h.URLExpiry),
	}, h.Logger), nil
}

// handleDeleteDocument handles DELETE /documents/{documentId}. The row is kept
// with status deleted; a failed object removal is logged and left for cleanup.
func (h *Handler) handleDeleteDocument(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	document, resp, ok := h.loadDocument(ctx, request, claims, models.PermManageDocuments)
	if !ok {
		return resp, nil
	}

	if err := h.Documents.SetDocumentStatus(ctx, document.DocumentID, models.DocumentDeleted); err != nil {
		return h.documentError(err, "delete document"), nil
	}

	if err := h.Storage.DeleteObject(ctx, document.S3Key); err != nil {
		h.Logger.WithFields(logrus.Fields{
			"document_id": document.DocumentID,
			"s3_key":      document.S3Key,
			"operation":   "handleDeleteDocument",
			"error":       err.Error(),
		}).Error("Failed to delete object, document already marked deleted")
	}

	return api.SuccessResponse(http.StatusNoContent, nil, h.Logger), nil
}

func (h *Handler) documentError(err error, action string) events.APIGatewayProxyResponse {
	if errors.Is(err, data.ErrDocumentNotFound) {
		return api.ErrorResponse(http.StatusNotFound, "Document not found", h.Logger)
	}
	h.Logger.WithError(err).Error("Failed to " + action)
	return api.ErrorResponse(http.StatusInternalServerError, "Failed to "+action, h.Logger)
}

func (h *Handler) loadDocument(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims, permission models.Permission) (*models.Document, events.APIGatewayProxyResponse, bool) {
	documentID := request.PathParameters["documentId"]
	if documentID == "" {
		return nil, api.ErrorResponse(http.StatusBadRequest, "Invalid document ID", h.Logger), false
	}

	document, err := h.Documents.GetDocumentByID(ctx, documentID)
	if err != nil {
		return nil, h.documentError(err, "get document"), false
	}

	if _, resp, ok := h.loadProject(ctx, document.ProjectID, claims, permission); !ok {
		return nil, resp, false
	}
	return document, events.APIGatewayProxyResponse{}, true
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
