package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dashboard/lib/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// UserFilter narrows a user listing
type UserFilter struct {
	// DivisionIDs limits results to users holding a membership in one of these divisions
	DivisionIDs     []string
	AllDivisions    bool
	IncludeInactive bool
}

// UserRepository defines the interface for user and membership data operations
type UserRepository interface {
	GetUserProfile(ctx context.Context, cognitoID string) (*models.UserProfile, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]models.User, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	EnsureUser(ctx context.Context, user *models.User) (*models.User, bool, error)
	UpdateUser(ctx context.Context, userID string, request *models.UpdateUserRequest) (*models.User, error)
	ReplaceMemberships(ctx context.Context, userID string, memberships []models.DivisionMembership) ([]models.DivisionMembership, error)
	SetUserActive(ctx context.Context, userID string, active bool) error
}

// UserDao implements UserRepository interface using PostgreSQL
type UserDao struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

// NewUserRepository creates a new UserRepository instance
func NewUserRepository(db *sql.DB, logger *logrus.Logger) UserRepository {
	return &UserDao{
		DB:     db,
		Logger: logger,
	}
}

const userColumns = `id, cognito_id, email, first_name, last_name, is_internal, is_active, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.UserID, &user.CognitoID, &user.Email, &user.FirstName, &user.LastName,
		&user.IsInternal, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Memberships = []models.DivisionMembership{}
	return &user, nil
}

// GetUserProfile retrieves the token-facing profile of a user by Cognito sub
func (dao *UserDao) GetUserProfile(ctx context.Context, cognitoID string) (*models.UserProfile, error) {
	query := `SELECT ` + userColumns + ` FROM iam.users WHERE cognito_id = $1`

	user, err := scanUser(dao.DB.QueryRowContext(ctx, query, cognitoID))
	if errors.Is(err, sql.ErrNoRows) {
		dao.Logger.WithFields(logrus.Fields{
			"cognito_id": cognitoID,
			"operation":  "GetUserProfile",
		}).Warn("User not found")
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	memberships, err := dao.loadMemberships(ctx, []string{user.UserID})
	if err != nil {
		return nil, err
	}

	return &models.UserProfile{
		UserID:      user.UserID,
		CognitoID:   user.CognitoID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		IsInternal:  user.IsInternal,
		IsActive:    user.IsActive,
		Memberships: orEmpty(memberships[user.UserID]),
	}, nil
}

// GetUserByID retrieves a user together with their memberships
func (dao *UserDao) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM iam.users WHERE id = $1`

	user, err := scanUser(dao.DB.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	memberships, err := dao.loadMemberships(ctx, []string{userID})
	if err != nil {
		return nil, err
	}
	user.Memberships = orEmpty(memberships[userID])
	return user, nil
}

// ListUsers lists users with their memberships, ordered by name
func (dao *UserDao) ListUsers(ctx context.Context, filter UserFilter) ([]models.User, error) {
	if !filter.AllDivisions && len(filter.DivisionIDs) == 0 {
		return []models.User{}, nil
	}

	query := `SELECT ` + userColumns + ` FROM iam.users u WHERE TRUE`
	args := []interface{}{}
	if !filter.AllDivisions {
		args = append(args, pq.Array(filter.DivisionIDs))
		query += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM iam.division_memberships m
			WHERE m.user_id = u.id AND m.division_id = ANY($%d))`, len(args))
	}
	if !filter.IncludeInactive {
		query += ` AND u.is_active = TRUE`
	}
	query += ` ORDER BY u.last_name, u.first_name`

	rows, err := dao.DB.QueryContext(ctx, query, args...)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation": "ListUsers",
			"error":     err.Error(),
		}).Error("Failed to query users")
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	users := []models.User{}
	ids := []string{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
		ids = append(ids, user.UserID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	if len(users) == 0 {
		return users, nil
	}

	memberships, err := dao.loadMemberships(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Memberships = orEmpty(memberships[users[i].UserID])
	}
	return users, nil
}

// CreateUser inserts an invited user and their memberships in one transaction
func (dao *UserDao) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	tx, err := dao.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	created, err := scanUser(tx.QueryRowContext(ctx, `
		INSERT INTO iam.users (id, cognito_id, email, first_name, last_name, is_internal, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING `+userColumns,
		uuid.New().String(), user.CognitoID, user.Email, user.FirstName, user.LastName, user.IsInternal,
	))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrUserExists
		}
		dao.Logger.WithFields(logrus.Fields{
			"email":     user.Email,
			"operation": "CreateUser",
			"error":     err.Error(),
		}).Error("Failed to create user")
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	created.Memberships, err = insertMemberships(ctx, tx, created.UserID, user.Memberships)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit user creation: %w", err)
	}

	dao.Logger.WithFields(logrus.Fields{
		"user_id":     created.UserID,
		"memberships": len(created.Memberships),
		"operation":   "CreateUser",
	}).Info("User created")
	return created, nil
}

// EnsureUser inserts the user unless one with the same Cognito sub exists.
// It reports whether a row was created.
func (dao *UserDao) EnsureUser(ctx context.Context, user *models.User) (*models.User, bool, error) {
	created, err := scanUser(dao.DB.QueryRowContext(ctx, `
		INSERT INTO iam.users (id, cognito_id, email, first_name, last_name, is_internal, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		ON CONFLICT (cognito_id) DO NOTHING
		RETURNING `+userColumns,
		uuid.New().String(), user.CognitoID, user.Email, user.FirstName, user.LastName, user.IsInternal,
	))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	existing, err := scanUser(dao.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM iam.users WHERE cognito_id = $1`, user.CognitoID))
	if err != nil {
		return nil, false, fmt.Errorf("failed to load existing user: %w", err)
	}
	return existing, false, nil
}

// UpdateUser writes the submitted profile fields, leaving the others unchanged
func (dao *UserDao) UpdateUser(ctx context.Context, userID string, request *models.UpdateUserRequest) (*models.User, error) {
	user, err := scanUser(dao.DB.QueryRowContext(ctx, `
		UPDATE iam.users
		SET first_name = COALESCE($2, first_name),
		    last_name = COALESCE($3, last_name),
		    is_internal = COALESCE($4, is_internal),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		userID, request.FirstName, request.LastName, request.IsInternal,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	memberships, err := dao.loadMemberships(ctx, []string{userID})
	if err != nil {
		return nil, err
	}
	user.Memberships = orEmpty(memberships[userID])
	return user, nil
}

// ReplaceMemberships swaps every membership of the user for the given set
func (dao *UserDao) ReplaceMemberships(ctx context.Context, userID string, memberships []models.DivisionMembership) ([]models.DivisionMembership, error) {
	tx, err := dao.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM iam.users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM iam.division_memberships WHERE user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("failed to clear memberships: %w", err)
	}

	stored, err := insertMemberships(ctx, tx, userID, memberships)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit memberships: %w", err)
	}

	dao.Logger.WithFields(logrus.Fields{
		"user_id":     userID,
		"memberships": len(stored),
		"operation":   "ReplaceMemberships",
	}).Info("Memberships replaced")
	return stored, nil
}

// SetUserActive deactivates or reactivates a user. Users are never deleted.
func (dao *UserDao) SetUserActive(ctx context.Context, userID string, active bool) error {
	result, err := dao.DB.ExecContext(ctx,
		`UPDATE iam.users SET is_active = $2, updated_at = NOW() WHERE id = $1`, userID, active)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func insertMemberships(ctx context.Context, tx *sql.Tx, userID string, memberships []models.DivisionMembership) ([]models.DivisionMembership, error) {
	stored := make([]models.DivisionMembership, 0, len(memberships))
	for _, m := range memberships {
		var createdAt sql.NullTime
		err := tx.QueryRowContext(ctx, `
			INSERT INTO iam.division_memberships (user_id, division_id, role)
			VALUES ($1, $2, $3)
			RETURNING created_at`, userID, m.DivisionID, m.Role).Scan(&createdAt)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23503" {
				return nil, fmt.Errorf("%w: %s", ErrDivisionNotFound, m.DivisionID)
			}
			return nil, fmt.Errorf("failed to insert membership: %w", err)
		}
		membership := models.DivisionMembership{
			UserID:     userID,
			DivisionID: m.DivisionID,
			Role:       m.Role,
		}
		if createdAt.Valid {
			membership.CreatedAt = &createdAt.Time
		}
		stored = append(stored, membership)
	}
	return stored, nil
}

func (dao *UserDao) loadMemberships(ctx context.Context, userIDs []string) (map[string][]models.DivisionMembership, error) {
	rows, err := dao.DB.QueryContext(ctx, `
		SELECT user_id, division_id, role, created_at
		FROM iam.division_memberships
		WHERE user_id = ANY($1)
		ORDER BY division_id`, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]models.DivisionMembership)
	for rows.Next() {
		var m models.DivisionMembership
		var role string
		if err := rows.Scan(&m.UserID, &m.DivisionID, &role, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		if m.Role, err = models.ParseRole(role); err != nil {
			dao.Logger.WithFields(logrus.Fields{
				"user_id":     m.UserID,
				"division_id": m.DivisionID,
				"operation":   "loadMemberships",
			}).Error("Stored membership has unknown role")
			return nil, err
		}
		result[m.UserID] = append(result[m.UserID], m)
	}
	return result, rows.Err()
}

func orEmpty(memberships []models.DivisionMembership) []models.DivisionMembership {
	if memberships == nil {
		return []models.DivisionMembership{}
	}
	return memberships
}
