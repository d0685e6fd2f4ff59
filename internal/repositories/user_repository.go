package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sasikola/mb-server/internal/apperrors"
	"github.com/sasikola/mb-server/internal/models"
	"go.uber.org/zap"
)

const userColumns = `id, first_name, last_name, phone, email, password_hash, posts, role, profile_picture, created_at, updated_at`

// userRepository implements UserRepository
type userRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *userRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new user into the database.
// The id and timestamps are assigned here and written back to user.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC().Truncate(time.Second)
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Email,
		user.PasswordHash,
		user.Posts,
		user.Role,
		user.ProfilePicture,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("user with this email or phone already exists: %w", apperrors.ErrConflict)
		}
		r.logger.Error("failed to create user", zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by id
func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, "id", id)
}

// GetByPhone retrieves a user by phone number
func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	return r.getOne(ctx, "phone", phone)
}

// GetByEmail retrieves a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email", email)
}

// getOne retrieves a single user filtered by one of the indexed columns
func (r *userRepository) getOne(ctx context.Context, column, value string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ? LIMIT 1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user not found: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to get user", zap.Error(err), zap.String("by", column))
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}

	return user, nil
}

// ExistsByRole checks if at least one user has the given role
func (r *userRepository) ExistsByRole(ctx context.Context, role models.Role) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE role = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, role).Scan(&exists); err != nil {
		r.logger.Error("failed to check role existence", zap.Error(err), zap.String("role", string(role)))
		return false, fmt.Errorf("failed to check role existence: %w", err)
	}

	return exists, nil
}

// GetAll retrieves every user ordered by registration time
func (r *userRepository) GetAll(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to query users", zap.Error(err))
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			r.logger.Error("failed to scan user", zap.Error(err))
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

// UpdateProfilePicture replaces the profile picture reference of a user
func (r *userRepository) UpdateProfilePicture(ctx context.Context, id, reference string) error {
	query := `UPDATE users SET profile_picture = ?, updated_at = ? WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, reference, time.Now().UTC().Truncate(time.Second), id); err != nil {
		r.logger.Error("failed to update profile picture", zap.Error(err), zap.String("user_id", id))
		return fmt.Errorf("failed to update profile picture: %w", err)
	}

	return nil
}

// UpdateProfile writes the name, email and password hash of user
func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET first_name = ?, last_name = ?, email = ?, password_hash = ?, updated_at = ?
		WHERE id = ?
	`

	user.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	_, err := r.db.ExecContext(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("email already used by another user: %w", apperrors.ErrConflict)
		}
		r.logger.Error("failed to update profile", zap.Error(err), zap.String("user_id", user.ID))
		return fmt.Errorf("failed to update profile: %w", err)
	}

	return nil
}

// ListImageReferences returns every profile picture reference
func (r *userRepository) ListImageReferences(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT profile_picture FROM users`)
	if err != nil {
		r.logger.Error("failed to query profile pictures", zap.Error(err))
		return nil, fmt.Errorf("failed to query profile pictures: %w", err)
	}
	defer rows.Close()

	var references []string
	for rows.Next() {
		var reference string
		if err := rows.Scan(&reference); err != nil {
			return nil, fmt.Errorf("failed to scan profile picture: %w", err)
		}
		references = append(references, reference)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return references, nil
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.Email,
		&user.PasswordHash,
		&user.Posts,
		&user.Role,
		&user.ProfilePicture,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}
