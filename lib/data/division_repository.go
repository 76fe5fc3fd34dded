package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dashboard/lib/models"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// DivisionRepository defines the interface for division data operations
type DivisionRepository interface {
	ListDivisions(ctx context.Context, divisionIDs []string, all bool) ([]models.Division, error)
	GetDivisionByID(ctx context.Context, divisionID string) (*models.Division, error)
	UpdateDivision(ctx context.Context, divisionID string, request *models.UpdateDivisionRequest) (*models.Division, error)
}

// DivisionDao implements DivisionRepository interface using PostgreSQL
type DivisionDao struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

// NewDivisionRepository creates a new DivisionRepository instance
func NewDivisionRepository(db *sql.DB, logger *logrus.Logger) DivisionRepository {
	return &DivisionDao{DB: db, Logger: logger}
}

const divisionColumns = `id, name, display_name, color, is_active, created_at, updated_at`

func scanDivision(row rowScanner) (*models.Division, error) {
	var d models.Division
	if err := row.Scan(&d.DivisionID, &d.Name, &d.DisplayName, &d.Color, &d.IsActive, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDivisions lists all divisions, or only the given ones unless all is set
func (dao *DivisionDao) ListDivisions(ctx context.Context, divisionIDs []string, all bool) ([]models.Division, error) {
	query := `SELECT ` + divisionColumns + ` FROM iam.divisions`
	args := []interface{}{}
	if !all {
		if len(divisionIDs) == 0 {
			return []models.Division{}, nil
		}
		query += ` WHERE id = ANY($1)`
		args = append(args, pq.Array(divisionIDs))
	}
	query += ` ORDER BY display_name`

	rows, err := dao.DB.QueryContext(ctx, query, args...)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation": "ListDivisions",
			"error":     err.Error(),
		}).Error("Failed to query divisions")
		return nil, fmt.Errorf("failed to query divisions: %w", err)
	}
	defer rows.Close()

	divisions := []models.Division{}
	for rows.Next() {
		d, err := scanDivision(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan division: %w", err)
		}
		divisions = append(divisions, *d)
	}
	return divisions, rows.Err()
}

// GetDivisionByID retrieves a single division
func (dao *DivisionDao) GetDivisionByID(ctx context.Context, divisionID string) (*models.Division, error) {
	d, err := scanDivision(dao.DB.QueryRowContext(ctx, `SELECT `+divisionColumns+` FROM iam.divisions WHERE id = $1`, divisionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDivisionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get division: %w", err)
	}
	return d, nil
}

// UpdateDivision writes the submitted fields. The id and name are fixed.
func (dao *DivisionDao) UpdateDivision(ctx context.Context, divisionID string, request *models.UpdateDivisionRequest) (*models.Division, error) {
	d, err := scanDivision(dao.DB.QueryRowContext(ctx, `
		UPDATE iam.divisions
		SET display_name = COALESCE($2, display_name),
		    color = COALESCE($3, color),
		    is_active = COALESCE($4, is_active),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+divisionColumns,
		divisionID, request.DisplayName, request.Color, request.IsActive,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDivisionNotFound
	}
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"division_id": divisionID,
			"operation":   "UpdateDivision",
			"error":       err.Error(),
		}).Error("Failed to update division")
		return nil, fmt.Errorf("failed to update division: %w", err)
	}
	return d, nil
}
