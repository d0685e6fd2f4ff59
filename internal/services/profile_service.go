package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sasikola/mb-server/internal/apperrors"
	"github.com/sasikola/mb-server/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// profileService implements ProfileService
type profileService struct {
	userRepo     UserRepository
	storage      FileStorage
	cleaner      Cleaner
	maxImageSize int64
	logger       *zap.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(
	userRepo UserRepository,
	storage FileStorage,
	cleaner Cleaner,
	maxImageSize int64,
	logger *zap.Logger,
) *profileService {
	return &profileService{
		userRepo:     userRepo,
		storage:      storage,
		cleaner:      cleaner,
		maxImageSize: maxImageSize,
		logger:       logger,
	}
}

// GetUser returns the public profile of a user
func (s *profileService) GetUser(ctx context.Context, id string) (*models.ProfileResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.ToProfile(), nil
}

// ListAuthors returns every user; password hashes never leave the models package
func (s *profileService) ListAuthors(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get authors: %w", err)
	}
	return users, nil
}

// ChangeProfilePicture stores a new profile picture and returns its reference.
// The previous picture is handed to the cleaner once the new reference is saved.
func (s *profileService) ChangeProfilePicture(ctx context.Context, userID string, picture *models.Upload) (string, error) {
	if picture == nil {
		return "", fmt.Errorf("no file uploaded: %w", apperrors.ErrValidation)
	}
	extensions, err := validateImages([]*models.Upload{picture}, s.maxImageSize)
	if err != nil {
		return "", err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	references, err := saveImages(ctx, s.storage, s.cleaner, []*models.Upload{picture}, extensions)
	if err != nil {
		return "", err
	}
	reference := references[0]

	if err := s.userRepo.UpdateProfilePicture(ctx, userID, reference); err != nil {
		s.cleaner.Dispatch(ctx, reference)
		return "", err
	}

	s.cleaner.Dispatch(ctx, user.ProfilePicture)
	s.logger.Info("profile picture changed", zap.String("user_id", userID))
	return reference, nil
}

// UpdateProfile changes the name, email and password of a user.
//
// The current password must match. "fullName" is split on its first space into first and last name;
// empty name or email leave the stored values unchanged.
func (s *profileService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.ProfileResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		return nil, fmt.Errorf("current and new password are required: %w", apperrors.ErrValidation)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != "" && email != user.Email {
		existing, err := s.userRepo.GetByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != user.ID:
			return nil, fmt.Errorf("email already used by another user: %w", apperrors.ErrConflict)
		case err != nil && !errors.Is(err, apperrors.ErrNotFound):
			return nil, err
		}
		user.Email = email
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return nil, fmt.Errorf("current password is incorrect: %w", apperrors.ErrUnauthorized)
	}

	if firstName, lastName, ok := splitFullName(req.FullName); ok {
		user.FirstName = firstName
		user.LastName = lastName
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(passwordHash)

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", zap.String("user_id", userID))
	return user.ToProfile(), nil
}

// splitFullName splits on the first space; ok is false for a blank name
func splitFullName(fullName string) (string, string, bool) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return "", "", false
	}
	first, last, _ := strings.Cut(fullName, " ")
	return first, strings.TrimSpace(last), true
}
