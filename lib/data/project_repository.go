package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"dashboard/lib/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// ProjectFilter narrows a project listing
type ProjectFilter struct {
	// DivisionIDs limits results to these divisions unless AllDivisions is set
	DivisionIDs  []string
	AllDivisions bool
	Status       models.ProjectStatus
}

// ProjectRepository defines the interface for project data operations
type ProjectRepository interface {
	CreateProject(ctx context.Context, input *models.ProjectInput, userID string) (*models.Project, error)
	ListProjects(ctx context.Context, filter ProjectFilter) ([]models.Project, error)
	GetProjectByID(ctx context.Context, projectID string) (*models.Project, error)
	UpdateProject(ctx context.Context, projectID string, input *models.ProjectInput, userID string) (*models.Project, error)

	// Status operations
	UpdateProjectStatus(ctx context.Context, projectID string, from, to models.ProjectStatus, reason, userID string) error
	GetStatusHistory(ctx context.Context, projectID string) ([]models.StatusHistoryEntry, error)

	// Schedule operations
	GetSchedule(ctx context.Context, projectID string) ([]models.ScheduleItem, error)
	CreateScheduleItem(ctx context.Context, item *models.ScheduleItem, userID string) (*models.ScheduleItem, error)
}

// ProjectDao implements ProjectRepository interface using PostgreSQL
type ProjectDao struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

// NewProjectRepository creates a new ProjectRepository instance
func NewProjectRepository(db *sql.DB, logger *logrus.Logger) ProjectRepository {
	return &ProjectDao{
		DB:     db,
		Logger: logger,
	}
}

const projectColumns = `id, name, division_id, status, start_date, end_date, budget,
		       created_at, created_by, updated_at, updated_by`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	var project models.Project
	var status string
	err := row.Scan(
		&project.ProjectID, &project.Name, &project.DivisionID, &status,
		&project.StartDate, &project.EndDate, &project.Budget,
		&project.CreatedAt, &project.CreatedBy, &project.UpdatedAt, &project.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}

	project.Status, err = models.ParseProjectStatus(status)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", project.ProjectID, err)
	}
	return &project, nil
}

// CreateProject inserts a new project in planning
func (dao *ProjectDao) CreateProject(ctx context.Context, input *models.ProjectInput, userID string) (*models.Project, error) {
	query := `
		INSERT INTO project.projects (id, name, division_id, status, start_date, end_date, budget, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING ` + projectColumns

	row := dao.DB.QueryRowContext(ctx, query,
		uuid.New().String(), input.Name, input.DivisionID, models.ProjectStatusPlanning,
		input.StartDate, input.EndDate, input.Budget, userID,
	)
	project, err := scanProject(row)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"division_id": input.DivisionID,
			"user_id":     userID,
			"operation":   "CreateProject",
			"error":       err.Error(),
		}).Error("Failed to create project")
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	dao.Logger.WithFields(logrus.Fields{
		"project_id":  project.ProjectID,
		"division_id": project.DivisionID,
		"operation":   "CreateProject",
	}).Info("Project created")
	return project, nil
}

// ListProjects returns projects matching the filter, newest first
func (dao *ProjectDao) ListProjects(ctx context.Context, filter ProjectFilter) ([]models.Project, error) {
	if !filter.AllDivisions && len(filter.DivisionIDs) == 0 {
		return []models.Project{}, nil
	}

	conditions := []string{}
	args := []interface{}{}
	if !filter.AllDivisions {
		args = append(args, pq.Array(filter.DivisionIDs))
		conditions = append(conditions, fmt.Sprintf("division_id = ANY($%d)", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + projectColumns + ` FROM project.projects`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := dao.DB.QueryContext(ctx, query, args...)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation": "ListProjects",
			"error":     err.Error(),
		}).Error("Failed to query projects")
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return projects, nil
}

// GetProjectByID retrieves a single project
func (dao *ProjectDao) GetProjectByID(ctx context.Context, projectID string) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM project.projects WHERE id = $1`

	project, err := scanProject(dao.DB.QueryRowContext(ctx, query, projectID))
	if errors.Is(err, sql.ErrNoRows) {
		dao.Logger.WithFields(logrus.Fields{
			"project_id": projectID,
			"operation":  "GetProjectByID",
		}).Warn("Project not found")
		return nil, ErrProjectNotFound
	}
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"project_id": projectID,
			"operation":  "GetProjectByID",
			"error":      err.Error(),
		}).Error("Failed to get project")
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

// UpdateProject writes the editable fields of a project. Status is not touched.
func (dao *ProjectDao) UpdateProject(ctx context.Context, projectID string, input *models.ProjectInput, userID string) (*models.Project, error) {
	query := `
		UPDATE project.projects
		SET name = $2, start_date = $3, end_date = $4, budget = $5, updated_by = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + projectColumns

	project, err := scanProject(dao.DB.QueryRowContext(ctx, query,
		projectID, input.Name, input.StartDate, input.EndDate, input.Budget, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"project_id": projectID,
			"operation":  "UpdateProject",
			"error":      err.Error(),
		}).Error("Failed to update project")
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return project, nil
}

// UpdateProjectStatus moves a project from one status to another and records the change.
// The row is locked and must still hold from; otherwise ErrStatusConflict is returned.
func (dao *ProjectDao) UpdateProjectStatus(ctx context.Context, projectID string, from, to models.ProjectStatus, reason, userID string) error {
	logFields := logrus.Fields{
		"project_id": projectID,
		"from":       from,
		"to":         to,
		"user_id":    userID,
		"operation":  "UpdateProjectStatus",
	}

	tx, err := dao.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM project.projects WHERE id = $1 FOR UPDATE`, projectID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrProjectNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock project: %w", err)
	}
	if current != string(from) {
		dao.Logger.WithFields(logFields).WithField("current", current).Warn("Project status changed concurrently")
		return ErrStatusConflict
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE project.projects
		SET status = $2, updated_by = $3, updated_at = NOW()
		WHERE id = $1`, projectID, to, userID)
	if err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}

	reasonValue := sql.NullString{String: reason, Valid: reason != ""}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO project.status_history (project_id, from_status, to_status, reason, changed_by)
		VALUES ($1, $2, $3, $4, $5)`, projectID, from, to, reasonValue, userID)
	if err != nil {
		return fmt.Errorf("failed to record status history: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit status change: %w", err)
	}

	dao.Logger.WithFields(logFields).Info("Project status updated")
	return nil
}

// GetStatusHistory lists status changes, most recent first
func (dao *ProjectDao) GetStatusHistory(ctx context.Context, projectID string) ([]models.StatusHistoryEntry, error) {
	rows, err := dao.DB.QueryContext(ctx, `
		SELECT id, project_id, from_status, to_status, reason, changed_by, changed_at
		FROM project.status_history
		WHERE project_id = $1
		ORDER BY changed_at DESC, id DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	history := []models.StatusHistoryEntry{}
	for rows.Next() {
		var entry models.StatusHistoryEntry
		var from, to string
		if err := rows.Scan(&entry.ID, &entry.ProjectID, &from, &to, &entry.Reason, &entry.ChangedBy, &entry.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status history: %w", err)
		}
		if entry.FromStatus, err = models.ParseProjectStatus(from); err != nil {
			return nil, err
		}
		if entry.ToStatus, err = models.ParseProjectStatus(to); err != nil {
			return nil, err
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}

// GetSchedule lists the schedule items of a project ordered by start date
func (dao *ProjectDao) GetSchedule(ctx context.Context, projectID string) ([]models.ScheduleItem, error) {
	rows, err := dao.DB.QueryContext(ctx, `
		SELECT id, project_id, name, start_date, end_date, percent_complete, created_by, created_at
		FROM project.schedule_items
		WHERE project_id = $1
		ORDER BY start_date, name`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule: %w", err)
	}
	defer rows.Close()

	items := []models.ScheduleItem{}
	for rows.Next() {
		var item models.ScheduleItem
		if err := rows.Scan(&item.ID, &item.ProjectID, &item.Name, &item.StartDate, &item.EndDate,
			&item.PercentComplete, &item.CreatedBy, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan schedule item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CreateScheduleItem adds an item to a project schedule
func (dao *ProjectDao) CreateScheduleItem(ctx context.Context, item *models.ScheduleItem, userID string) (*models.ScheduleItem, error) {
	created := *item
	created.ID = uuid.New().String()
	created.CreatedBy = userID

	err := dao.DB.QueryRowContext(ctx, `
		INSERT INTO project.schedule_items (id, project_id, name, start_date, end_date, percent_complete, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		created.ID, created.ProjectID, created.Name, created.StartDate, created.EndDate, created.PercentComplete, userID,
	).Scan(&created.CreatedAt)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"project_id": item.ProjectID,
			"operation":  "CreateScheduleItem",
			"error":      err.Error(),
		}).Error("Failed to create schedule item")
		return nil, fmt.Errorf("failed to create schedule item: %w", err)
	}
	return &created, nil
}
