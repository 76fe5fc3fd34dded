package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dashboard/lib/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ChangeOrderRepository defines the interface for change order data operations
type ChangeOrderRepository interface {
	CreateChangeOrder(ctx context.Context, projectID string, request *models.CreateChangeOrderRequest, userID string) (*models.ChangeOrder, error)
	ListChangeOrders(ctx context.Context, projectID string, status models.ChangeOrderStatus) ([]models.ChangeOrder, error)
	GetChangeOrderByID(ctx context.Context, changeOrderID string) (*models.ChangeOrder, error)
	ApproveChangeOrder(ctx context.Context, changeOrderID, userID string) (*models.ChangeOrder, error)
	RejectChangeOrder(ctx context.Context, changeOrderID, reason, userID string) (*models.ChangeOrder, error)
}

// ChangeOrderDao implements ChangeOrderRepository interface using PostgreSQL
type ChangeOrderDao struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

// NewChangeOrderRepository creates a new ChangeOrderRepository instance
func NewChangeOrderRepository(db *sql.DB, logger *logrus.Logger) ChangeOrderRepository {
	return &ChangeOrderDao{
		DB:     db,
		Logger: logger,
	}
}

const changeOrderColumns = `id, project_id, title, description, amount, status, created_by,
		       approved_by, rejection_reason, decided_at, created_at, updated_at`

func scanChangeOrder(row rowScanner) (*models.ChangeOrder, error) {
	var co models.ChangeOrder
	var status string
	err := row.Scan(
		&co.ChangeOrderID, &co.ProjectID, &co.Title, &co.Description, &co.Amount, &status, &co.CreatedBy,
		&co.ApprovedBy, &co.RejectionReason, &co.DecidedAt, &co.CreatedAt, &co.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	co.Status, err = models.ParseChangeOrderStatus(status)
	if err != nil {
		return nil, fmt.Errorf("change order %s: %w", co.ChangeOrderID, err)
	}
	return &co, nil
}

// CreateChangeOrder inserts a pending change order
func (dao *ChangeOrderDao) CreateChangeOrder(ctx context.Context, projectID string, request *models.CreateChangeOrderRequest, userID string) (*models.ChangeOrder, error) {
	description := sql.NullString{String: request.Description, Valid: request.Description != ""}

	query := `
		INSERT INTO project.change_orders (id, project_id, title, description, amount, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + changeOrderColumns

	co, err := scanChangeOrder(dao.DB.QueryRowContext(ctx, query,
		uuid.New().String(), projectID, request.Title, description, request.Amount, models.ChangeOrderPending, userID,
	))
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"project_id": projectID,
			"user_id":    userID,
			"operation":  "CreateChangeOrder",
			"error":      err.Error(),
		}).Error("Failed to create change order")
		return nil, fmt.Errorf("failed to create change order: %w", err)
	}
	return co, nil
}

// ListChangeOrders lists the change orders of a project, optionally by status
func (dao *ChangeOrderDao) ListChangeOrders(ctx context.Context, projectID string, status models.ChangeOrderStatus) ([]models.ChangeOrder, error) {
	query := `SELECT ` + changeOrderColumns + ` FROM project.change_orders WHERE project_id = $1`
	args := []interface{}{projectID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := dao.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query change orders: %w", err)
	}
	defer rows.Close()

	changeOrders := []models.ChangeOrder{}
	for rows.Next() {
		co, err := scanChangeOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan change order: %w", err)
		}
		changeOrders = append(changeOrders, *co)
	}
	return changeOrders, rows.Err()
}

// GetChangeOrderByID retrieves a single change order
func (dao *ChangeOrderDao) GetChangeOrderByID(ctx context.Context, changeOrderID string) (*models.ChangeOrder, error) {
	query := `SELECT ` + changeOrderColumns + ` FROM project.change_orders WHERE id = $1`

	co, err := scanChangeOrder(dao.DB.QueryRowContext(ctx, query, changeOrderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChangeOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get change order: %w", err)
	}
	return co, nil
}

// ApproveChangeOrder approves a pending change order
func (dao *ChangeOrderDao) ApproveChangeOrder(ctx context.Context, changeOrderID, userID string) (*models.ChangeOrder, error) {
	query := `
		UPDATE project.change_orders
		SET status = $2, approved_by = $3, decided_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $4
		RETURNING ` + changeOrderColumns

	return dao.decide(ctx, "ApproveChangeOrder", changeOrderID, query,
		changeOrderID, models.ChangeOrderApproved, userID, models.ChangeOrderPending)
}

// RejectChangeOrder rejects a pending change order with a reason
func (dao *ChangeOrderDao) RejectChangeOrder(ctx context.Context, changeOrderID, reason, userID string) (*models.ChangeOrder, error) {
	query := `
		UPDATE project.change_orders
		SET status = $2, approved_by = $3, rejection_reason = $4, decided_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $5
		RETURNING ` + changeOrderColumns

	return dao.decide(ctx, "RejectChangeOrder", changeOrderID, query,
		changeOrderID, models.ChangeOrderRejected, userID, reason, models.ChangeOrderPending)
}

// decide runs a status-guarded update. No row means the order is missing or no longer pending.
func (dao *ChangeOrderDao) decide(ctx context.Context, operation, changeOrderID, query string, args ...interface{}) (*models.ChangeOrder, error) {
	co, err := scanChangeOrder(dao.DB.QueryRowContext(ctx, query, args...))
	if err == nil {
		dao.Logger.WithFields(logrus.Fields{
			"change_order_id": changeOrderID,
			"status":          co.Status,
			"operation":       operation,
		}).Info("Change order decided")
		return co, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		dao.Logger.WithFields(logrus.Fields{
			"change_order_id": changeOrderID,
			"operation":       operation,
			"error":           err.Error(),
		}).Error("Failed to decide change order")
		return nil, fmt.Errorf("failed to update change order: %w", err)
	}

	if _, err := dao.GetChangeOrderByID(ctx, changeOrderID); err != nil {
		return nil, err
	}
	return nil, ErrChangeOrderDecided
}
