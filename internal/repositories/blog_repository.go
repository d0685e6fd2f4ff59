package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sasikola/mb-server/internal/apperrors"
	"github.com/sasikola/mb-server/internal/models"
	"go.uber.org/zap"
)

// Every read embeds the author's display name. The join is a LEFT JOIN so a
// post stays readable even when its author row is missing.
const blogSelect = `
	SELECT b.id, b.title, b.description, b.category, b.images, b.author_id, b.created_at, b.updated_at,
		u.first_name, u.last_name
	FROM blogs b
	LEFT JOIN users u ON u.id = b.author_id
`

// blogRepository implements BlogRepository
type blogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewBlogRepository creates a new blog repository
func NewBlogRepository(db *sql.DB, logger *zap.Logger) *blogRepository {
	return &blogRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a blog post and increments its author's post count in one transaction
func (r *blogRepository) Create(ctx context.Context, blog *models.Blog) error {
	images, err := json.Marshal(blog.Images)
	if err != nil {
		return fmt.Errorf("failed to encode images: %w", err)
	}

	if blog.ID == "" {
		blog.ID = uuid.New().String()
	}
	now := time.Now().UTC().Truncate(time.Second)
	blog.CreatedAt = now
	blog.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO blogs (id, title, description, category, images, author_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, blog.ID, blog.Title, blog.Description, blog.Category, string(images), blog.AuthorID, blog.CreatedAt, blog.UpdatedAt)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("blog with this title already exists: %w", apperrors.ErrConflict)
		}
		r.logger.Error("failed to create blog", zap.Error(err))
		return fmt.Errorf("failed to create blog: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE users SET posts = posts + 1 WHERE id = ?`, blog.AuthorID); err != nil {
		r.logger.Error("failed to increment post count", zap.Error(err), zap.String("user_id", blog.AuthorID))
		return fmt.Errorf("failed to increment post count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a blog post by id
func (r *blogRepository) GetByID(ctx context.Context, id string) (*models.Blog, error) {
	blog, err := scanBlog(r.db.QueryRowContext(ctx, blogSelect+` WHERE b.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("blog not found: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to get blog", zap.Error(err), zap.String("blog_id", id))
		return nil, fmt.Errorf("failed to get blog: %w", err)
	}

	return blog, nil
}

// GetAll retrieves every blog post, newest first
func (r *blogRepository) GetAll(ctx context.Context) ([]models.Blog, error) {
	return r.list(ctx, blogSelect+` ORDER BY b.created_at DESC, b.id`)
}

// GetByCategory retrieves the blog posts of one category, newest first
func (r *blogRepository) GetByCategory(ctx context.Context, category models.Category) ([]models.Blog, error) {
	return r.list(ctx, blogSelect+` WHERE b.category = ? ORDER BY b.created_at DESC, b.id`, category)
}

// GetByAuthor retrieves the blog posts of one author, newest first
func (r *blogRepository) GetByAuthor(ctx context.Context, authorID string) ([]models.Blog, error) {
	return r.list(ctx, blogSelect+` WHERE b.author_id = ? ORDER BY b.created_at DESC, b.id`, authorID)
}

func (r *blogRepository) list(ctx context.Context, query string, args ...any) ([]models.Blog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query blogs", zap.Error(err))
		return nil, fmt.Errorf("failed to query blogs: %w", err)
	}
	defer rows.Close()

	blogs := make([]models.Blog, 0)
	for rows.Next() {
		blog, err := scanBlog(rows)
		if err != nil {
			r.logger.Error("failed to scan blog", zap.Error(err))
			return nil, fmt.Errorf("failed to scan blog: %w", err)
		}
		blogs = append(blogs, *blog)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return blogs, nil
}

// Update overwrites the mutable fields of a blog post. The author never changes.
func (r *blogRepository) Update(ctx context.Context, blog *models.Blog) error {
	images, err := json.Marshal(blog.Images)
	if err != nil {
		return fmt.Errorf("failed to encode images: %w", err)
	}

	blog.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	result, err := r.db.ExecContext(ctx, `
		UPDATE blogs
		SET title = ?, description = ?, category = ?, images = ?, updated_at = ?
		WHERE id = ?
	`, blog.Title, blog.Description, blog.Category, string(images), blog.UpdatedAt, blog.ID)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("blog with this title already exists: %w", apperrors.ErrConflict)
		}
		r.logger.Error("failed to update blog", zap.Error(err), zap.String("blog_id", blog.ID))
		return fmt.Errorf("failed to update blog: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("blog not found: %w", apperrors.ErrNotFound)
	}

	return nil
}

// Delete removes a blog post and decrements its author's post count in one transaction.
// The count never drops below zero and a missing author row is ignored.
func (r *blogRepository) Delete(ctx context.Context, id, authorID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM blogs WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("failed to delete blog", zap.Error(err), zap.String("blog_id", id))
		return fmt.Errorf("failed to delete blog: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("blog not found: %w", apperrors.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE users SET posts = GREATEST(posts - 1, 0) WHERE id = ?`, authorID); err != nil {
		r.logger.Error("failed to decrement post count", zap.Error(err), zap.String("user_id", authorID))
		return fmt.Errorf("failed to decrement post count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListImageReferences returns every image reference of every blog post
func (r *blogRepository) ListImageReferences(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT images FROM blogs`)
	if err != nil {
		r.logger.Error("failed to query blog images", zap.Error(err))
		return nil, fmt.Errorf("failed to query blog images: %w", err)
	}
	defer rows.Close()

	var references []string
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan blog images: %w", err)
		}
		var images []string
		if err := json.Unmarshal(raw, &images); err != nil {
			return nil, fmt.Errorf("failed to decode blog images: %w", err)
		}
		references = append(references, images...)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return references, nil
}

func scanBlog(row rowScanner) (*models.Blog, error) {
	blog := &models.Blog{}
	var (
		images    []byte
		firstName sql.NullString
		lastName  sql.NullString
	)
	err := row.Scan(
		&blog.ID,
		&blog.Title,
		&blog.Description,
		&blog.Category,
		&images,
		&blog.AuthorID,
		&blog.CreatedAt,
		&blog.UpdatedAt,
		&firstName,
		&lastName,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(images, &blog.Images); err != nil {
		return nil, fmt.Errorf("failed to decode images: %w", err)
	}
	if firstName.Valid {
		blog.Author = &models.AuthorName{FirstName: firstName.String, LastName: lastName.String}
	}

	return blog, nil
}
