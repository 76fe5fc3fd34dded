package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dashboard/lib/models"

	"github.com/sirupsen/logrus"
)

// DocumentRepository defines the interface for project document metadata
type DocumentRepository interface {
	CreateDocument(ctx context.Context, document *models.Document) (*models.Document, error)
	GetDocumentByID(ctx context.Context, documentID string) (*models.Document, error)
	ListDocuments(ctx context.Context, projectID string) ([]models.Document, error)
	SetDocumentStatus(ctx context.Context, documentID string, status models.DocumentStatus) error
}

// DocumentDao implements DocumentRepository interface using PostgreSQL
type DocumentDao struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

// NewDocumentRepository creates a new DocumentRepository instance
func NewDocumentRepository(db *sql.DB, logger *logrus.Logger) DocumentRepository {
	return &DocumentDao{DB: db, Logger: logger}
}

const documentColumns = `id, project_id, file_name, s3_key, file_size, content_type, status, uploaded_by, created_at, updated_at`

func scanDocument(row rowScanner) (*models.Document, error) {
	var d models.Document
	var contentType sql.NullString
	var status string
	if err := row.Scan(&d.DocumentID, &d.ProjectID, &d.FileName, &d.S3Key, &d.FileSize, &contentType,
		&status, &d.UploadedBy, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.ContentType = contentType.String
	d.Status = models.DocumentStatus(status)
	switch d.Status {
	case models.DocumentPending, models.DocumentUploaded, models.DocumentDeleted:
	default:
		return nil, fmt.Errorf("document %s: unknown status %q", d.DocumentID, status)
	}
	return &d, nil
}

// CreateDocument records a pending upload. The caller assigns the id and key.
func (dao *DocumentDao) CreateDocument(ctx context.Context, document *models.Document) (*models.Document, error) {
	contentType := sql.NullString{String: document.ContentType, Valid: document.ContentType != ""}

	created, err := scanDocument(dao.DB.QueryRowContext(ctx, `
		INSERT INTO project.documents (id, project_id, file_name, s3_key, file_size, content_type, status, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+documentColumns,
		document.DocumentID, document.ProjectID, document.FileName, document.S3Key, document.FileSize,
		contentType, models.DocumentPending, document.UploadedBy,
	))
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"project_id": document.ProjectID,
			"operation":  "CreateDocument",
			"error":      err.Error(),
		}).Error("Failed to create document")
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return created, nil
}

// GetDocumentByID retrieves a document that has not been deleted
func (dao *DocumentDao) GetDocumentByID(ctx context.Context, documentID string) (*models.Document, error) {
	d, err := scanDocument(dao.DB.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM project.documents WHERE id = $1 AND status <> $2`,
		documentID, models.DocumentDeleted))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return d, nil
}

// ListDocuments lists the uploaded documents of a project
func (dao *DocumentDao) ListDocuments(ctx context.Context, projectID string) ([]models.Document, error) {
	rows, err := dao.DB.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM project.documents WHERE project_id = $1 AND status = $2 ORDER BY created_at DESC`,
		projectID, models.DocumentUploaded)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	documents := []models.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		documents = append(documents, *d)
	}
	return documents, rows.Err()
}

// SetDocumentStatus moves a document to uploaded or deleted
func (dao *DocumentDao) SetDocumentStatus(ctx context.Context, documentID string, status models.DocumentStatus) error {
	result, err := dao.DB.ExecContext(ctx,
		`UPDATE project.documents SET status = $2, updated_at = NOW() WHERE id = $1 AND status <> $3`,
		documentID, status, models.DocumentDeleted)
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrDocumentNotFound
	}
	return nil
}
