package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// DocumentStatus tracks the upload lifecycle of a document
type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentUploaded DocumentStatus = "uploaded"
	DocumentDeleted  DocumentStatus = "deleted"
)

// MaxDocumentSize is the largest file accepted for upload (100MB)
const MaxDocumentSize = 100 * 1024 * 1024

var allowedDocumentExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".dwg": true, ".jpg": true, ".jpeg": true, ".png": true, ".txt": true, ".csv": true,
}

// Document represents a project file stored in S3 based on project.documents table
type Document struct {
	DocumentID  string         `json:"document_id"`
	ProjectID   string         `json:"project_id"`
	FileName    string         `json:"file_name"`
	S3Key       string         `json:"s3_key"`
	FileSize    int64          `json:"file_size"`
	ContentType string         `json:"content_type,omitempty"`
	Status      DocumentStatus `json:"status"`
	UploadedBy  string         `json:"uploaded_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// DocumentUploadRequest asks for a presigned upload URL
type DocumentUploadRequest struct {
	FileName    string `json:"file_name"`
	FileSize    int64  `json:"file_size"`
	ContentType string `json:"content_type,omitempty"`
}

// Validate checks the file name, type and size
func (r *DocumentUploadRequest) Validate() []string {
	var errs []string
	name := strings.TrimSpace(r.FileName)
	if name == "" || len(name) > 255 || strings.ContainsAny(name, `/\`) {
		errs = append(errs, "file_name: must be a plain file name up to 255 characters")
	} else if !ValidateFileType(name) {
		errs = append(errs, "file_name: file type not allowed")
	}
	if r.FileSize <= 0 || r.FileSize > MaxDocumentSize {
		errs = append(errs, fmt.Sprintf("file_size: must be between 1 and %d bytes", MaxDocumentSize))
	}
	return errs
}

// ValidateFileType reports whether the extension is accepted
func ValidateFileType(fileName string) bool {
	return allowedDocumentExtensions[strings.ToLower(filepath.Ext(fileName))]
}

// DocumentS3Key builds the object key for a project document
func DocumentS3Key(projectID, documentID, fileName string) string {
	return fmt.Sprintf("projects/%s/documents/%s/%s", projectID, documentID, fileName)
}

// DocumentUploadResponse returns the presigned upload URL
type DocumentUploadResponse struct {
	Document  *Document `json:"document"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DocumentDownloadResponse returns the presigned download URL
type DocumentDownloadResponse struct {
	DocumentID  string    `json:"document_id"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// DocumentListResponse represents the response for listing documents
type DocumentListResponse struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
}
