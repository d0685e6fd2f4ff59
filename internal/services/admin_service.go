package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sasikola/mb-server/internal/apperrors"
	"github.com/sasikola/mb-server/internal/config"
	"github.com/sasikola/mb-server/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// adminService implements AdminService
type adminService struct {
	userRepo UserRepository
	blogRepo BlogRepository
	cleaner  Cleaner
	admin    config.AdminConfig
	logger   *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(
	userRepo UserRepository,
	blogRepo BlogRepository,
	cleaner Cleaner,
	admin config.AdminConfig,
	logger *zap.Logger,
) *adminService {
	return &adminService{
		userRepo: userRepo,
		blogRepo: blogRepo,
		cleaner:  cleaner,
		admin:    admin,
		logger:   logger,
	}
}

// BootstrapAdmin creates the admin account unless one already exists.
//
// It is safe to call any number of times and never fails: every problem is logged.
// Returns true when this call created the account.
func (s *adminService) BootstrapAdmin(ctx context.Context) bool {
	exists, err := s.userRepo.ExistsByRole(ctx, models.RoleAdmin)
	if err != nil {
		s.logger.Error("failed to check for an admin account", zap.Error(err))
		return false
	}
	if exists {
		s.logger.Info("admin account already exists")
		return false
	}

	if s.admin.Password == config.DefaultAdminPassword {
		s.logger.Warn("creating admin account with the default password, set ADMIN_PASSWORD")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(s.admin.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash admin password", zap.Error(err))
		return false
	}

	admin := &models.User{
		FirstName:      "Admin",
		Phone:          s.admin.Phone,
		Email:          s.admin.Email,
		PasswordHash:   string(passwordHash),
		Role:           models.RoleAdmin,
		ProfilePicture: models.DefaultProfilePicture,
	}

	if err := s.userRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			// Another instance won the race, or a regular user already holds these credentials
			s.logger.Warn("admin account not created, phone or email already in use",
				zap.String("phone", s.admin.Phone), zap.String("email", s.admin.Email))
			return false
		}
		s.logger.Error("failed to create admin account", zap.Error(err))
		return false
	}

	s.logger.Info("admin account created", zap.String("user_id", admin.ID))
	return true
}

// ListUsers returns every user including their role
func (s *adminService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return users, nil
}

// DeleteBlog removes any blog post regardless of its author
func (s *adminService) DeleteBlog(ctx context.Context, id string) error {
	blog, err := s.blogRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := removeBlog(ctx, s.blogRepo, s.cleaner, blog); err != nil {
		return err
	}

	s.logger.Info("blog removed by admin", zap.String("blog_id", id), zap.String("author_id", blog.AuthorID))
	return nil
}
