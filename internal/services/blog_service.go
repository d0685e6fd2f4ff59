package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sasikola/mb-server/internal/apperrors"
	"github.com/sasikola/mb-server/internal/models"
	"go.uber.org/zap"
)

// BlogRepository is the interface that wraps methods for Blogs table data access
type BlogRepository interface {
	// Method Create inserts a new blog post and increments its author's post count atomically.
	//
	// "blog" parameter is the post to insert; its ID and timestamps are filled in on success.
	//
	// If the title is already taken, an error wrapping apperrors.ErrConflict will be returned.
	Create(ctx context.Context, blog *models.Blog) error
	// Method GetByID retrieves a blog post by ID together with its author's name.
	//
	// If post with such ID does not exist, an error wrapping apperrors.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id string) (*models.Blog, error)
	// Method GetAll retrieves all blog posts, newest first.
	GetAll(ctx context.Context) ([]models.Blog, error)
	// Method GetByCategory retrieves the posts of "category", newest first.
	GetByCategory(ctx context.Context, category models.Category) ([]models.Blog, error)
	// Method GetByAuthor retrieves the posts written by "authorID", newest first.
	GetByAuthor(ctx context.Context, authorID string) ([]models.Blog, error)
	// Method Update overwrites title, description, category and images of "blog".
	//
	// If the new title is already taken, an error wrapping apperrors.ErrConflict will be returned.
	Update(ctx context.Context, blog *models.Blog) error
	// Method Delete removes the post with "id" and decrements the post count of "authorID" atomically.
	//
	// If post with such ID does not exist, an error wrapping apperrors.ErrNotFound will be returned.
	Delete(ctx context.Context, id, authorID string) error
}

// UserGetter loads a single user by ID
type UserGetter interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// blogService implements BlogService
type blogService struct {
	blogRepo     BlogRepository
	userRepo     UserGetter
	storage      FileStorage
	cleaner      Cleaner
	maxImageSize int64
	logger       *zap.Logger
}

// NewBlogService creates a new blog service
func NewBlogService(
	blogRepo BlogRepository,
	userRepo UserGetter,
	storage FileStorage,
	cleaner Cleaner,
	maxImageSize int64,
	logger *zap.Logger,
) *blogService {
	return &blogService{
		blogRepo:     blogRepo,
		userRepo:     userRepo,
		storage:      storage,
		cleaner:      cleaner,
		maxImageSize: maxImageSize,
		logger:       logger,
	}
}

// CreateBlog validates and stores a new post written by "authorID".
//
// Every image is checked before any file is written. If the insert fails the
// written files are handed to the cleaner.
func (s *blogService) CreateBlog(ctx context.Context, authorID string, req *models.CreateBlogRequest, images []*models.Upload) (*models.Blog, error) {
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	category := models.Category(strings.TrimSpace(req.Category))

	if title == "" || description == "" || category == "" {
		return nil, fmt.Errorf("all fields are required: %w", apperrors.ErrValidation)
	}
	if !category.IsValid() {
		return nil, fmt.Errorf("invalid category %q: %w", category, apperrors.ErrValidation)
	}
	if err := validateImageCount(len(images)); err != nil {
		return nil, err
	}
	extensions, err := validateImages(images, s.maxImageSize)
	if err != nil {
		return nil, err
	}

	references, err := saveImages(ctx, s.storage, s.cleaner, images, extensions)
	if err != nil {
		return nil, err
	}

	blog := &models.Blog{
		Title:       title,
		Description: description,
		Category:    category,
		Images:      references,
		AuthorID:    authorID,
	}
	if err := s.blogRepo.Create(ctx, blog); err != nil {
		s.cleaner.Dispatch(ctx, references...)
		return nil, err
	}

	s.logger.Info("blog created", zap.String("blog_id", blog.ID), zap.String("author_id", authorID))
	return blog, nil
}

// GetAllBlogs returns every post, newest first
func (s *blogService) GetAllBlogs(ctx context.Context) ([]models.Blog, error) {
	blogs, err := s.blogRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get blogs: %w", err)
	}
	return blogs, nil
}

// GetBlog returns a single post
func (s *blogService) GetBlog(ctx context.Context, id string) (*models.Blog, error) {
	return s.blogRepo.GetByID(ctx, id)
}

// UpdateBlog overwrites the provided fields of a post owned by "requesterID".
//
// Empty fields are left unchanged. New images replace the whole image list and
// the previous files are handed to the cleaner once the row is updated.
func (s *blogService) UpdateBlog(ctx context.Context, id, requesterID string, req *models.UpdateBlogRequest, images []*models.Upload) (*models.Blog, error) {
	blog, err := s.blogRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if blog.AuthorID != requesterID {
		return nil, fmt.Errorf("only the author can update this blog: %w", apperrors.ErrForbidden)
	}

	if title := trimmed(req.Title); title != "" {
		blog.Title = title
	}
	if description := trimmed(req.Description); description != "" {
		blog.Description = description
	}
	if category := models.Category(trimmed(req.Category)); category != "" {
		if !category.IsValid() {
			return nil, fmt.Errorf("invalid category %q: %w", category, apperrors.ErrValidation)
		}
		blog.Category = category
	}

	var replaced []string
	if len(images) > 0 {
		if err := validateImageCount(len(images)); err != nil {
			return nil, err
		}
		extensions, err := validateImages(images, s.maxImageSize)
		if err != nil {
			return nil, err
		}
		references, err := saveImages(ctx, s.storage, s.cleaner, images, extensions)
		if err != nil {
			return nil, err
		}
		replaced = blog.Images
		blog.Images = references
	}

	if err := s.blogRepo.Update(ctx, blog); err != nil {
		if replaced != nil {
			s.cleaner.Dispatch(ctx, blog.Images...)
		}
		return nil, err
	}

	s.cleaner.Dispatch(ctx, replaced...)
	s.logger.Info("blog updated", zap.String("blog_id", blog.ID))
	return blog, nil
}

// DeleteBlog removes a post owned by "requesterID" and hands its images to the cleaner
func (s *blogService) DeleteBlog(ctx context.Context, id, requesterID string) error {
	blog, err := s.blogRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if blog.AuthorID != requesterID {
		return fmt.Errorf("only the author can delete this blog: %w", apperrors.ErrForbidden)
	}

	if err := removeBlog(ctx, s.blogRepo, s.cleaner, blog); err != nil {
		return err
	}

	s.logger.Info("blog deleted", zap.String("blog_id", id))
	return nil
}

// ListByCategory returns the posts of one category, newest first
func (s *blogService) ListByCategory(ctx context.Context, category string) ([]models.Blog, error) {
	c := models.Category(category)
	if !c.IsValid() {
		return nil, fmt.Errorf("invalid category %q: %w", category, apperrors.ErrValidation)
	}

	blogs, err := s.blogRepo.GetByCategory(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("failed to get blogs by category: %w", err)
	}
	return blogs, nil
}

// ListByAuthor returns the posts of one author, newest first
func (s *blogService) ListByAuthor(ctx context.Context, authorID string) ([]models.Blog, error) {
	if _, err := s.userRepo.GetByID(ctx, authorID); err != nil {
		return nil, err
	}

	blogs, err := s.blogRepo.GetByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get blogs by author: %w", err)
	}
	return blogs, nil
}

// removeBlog deletes the row first; image files are only dispatched after the delete commits
func removeBlog(ctx context.Context, repo BlogRepository, cleaner Cleaner, blog *models.Blog) error {
	if err := repo.Delete(ctx, blog.ID, blog.AuthorID); err != nil {
		return err
	}
	cleaner.Dispatch(ctx, blog.Images...)
	return nil
}

func validateImageCount(count int) error {
	if count < models.MinBlogImages {
		return fmt.Errorf("at least one image is required: %w", apperrors.ErrValidation)
	}
	if count > models.MaxBlogImages {
		return fmt.Errorf("only %d images are allowed: %w", models.MaxBlogImages, apperrors.ErrValidation)
	}
	return nil
}

func trimmed(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
