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

// UserRepository is the interface that wraps methods for Users table data access
type UserRepository interface {
	// Method Create inserts a new user into the database.
	//
	// "user" parameter is the user to insert; its ID and timestamps are filled in on success.
	//
	// If the phone or email is already taken, an error wrapping apperrors.ErrConflict will be returned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByID retrieves a user by ID.
	//
	// If user with such ID does not exist, an error wrapping apperrors.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id string) (*models.User, error)
	// Method GetByPhone retrieves a user by phone number.
	//
	// Please reference GetByID method for more information about error values.
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	// Method GetByEmail retrieves a user by email.
	//
	// Please reference GetByID method for more information about error values.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Method ExistsByRole checks if at least one user has the "role".
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByRole(ctx context.Context, role models.Role) (bool, error)
	// Method GetAll retrieves every user.
	GetAll(ctx context.Context) ([]models.User, error)
	// Method UpdateProfilePicture replaces the profile picture reference of the user with "id".
	UpdateProfilePicture(ctx context.Context, id, reference string) error
	// Method UpdateProfile writes the names, email and password hash of "user".
	//
	// If the email is already taken by another user, an error wrapping apperrors.ErrConflict will be returned.
	UpdateProfile(ctx context.Context, user *models.User) error
}

// TokenIssuer issues signed tokens carrying the user id and role
type TokenIssuer interface {
	GenerateToken(userID, role string) (string, error)
}

// authService implements AuthService
type authService struct {
	userRepo     UserRepository
	storage      FileStorage
	cleaner      Cleaner
	tokens       TokenIssuer
	maxImageSize int64
	logger       *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo UserRepository,
	storage FileStorage,
	cleaner Cleaner,
	tokens TokenIssuer,
	maxImageSize int64,
	logger *zap.Logger,
) *authService {
	return &authService{
		userRepo:     userRepo,
		storage:      storage,
		cleaner:      cleaner,
		tokens:       tokens,
		maxImageSize: maxImageSize,
		logger:       logger,
	}
}

// Register creates a new user account and issues a token for it.
//
// "picture" is an optional uploaded profile picture; when it is nil the URL from the request
// (or the default placeholder) is used. Uniqueness of phone and email is decided by the database.
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest, picture *models.Upload) (*models.AuthResult, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)

	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Phone == "" || req.Password == "" {
		return nil, fmt.Errorf("please fill all the fields: %w", apperrors.ErrValidation)
	}

	profilePicture := strings.TrimSpace(req.ProfilePicture)
	if profilePicture == "" {
		profilePicture = models.DefaultProfilePicture
	}

	// Validate the picture before hashing, the hash is the slow part
	var pictureExt []string
	if picture != nil {
		var err error
		pictureExt, err = validateImages([]*models.Upload{picture}, s.maxImageSize)
		if err != nil {
			return nil, err
		}
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if picture != nil {
		references, err := saveImages(ctx, s.storage, s.cleaner, []*models.Upload{picture}, pictureExt)
		if err != nil {
			return nil, err
		}
		profilePicture = references[0]
	}

	user := &models.User{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		Email:          req.Email,
		PasswordHash:   string(passwordHash),
		Posts:          0,
		Role:           models.RoleUser,
		ProfilePicture: profilePicture,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		s.cleaner.Dispatch(ctx, profilePicture)
		return nil, err
	}

	token, err := s.tokens.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return &models.AuthResult{User: user, Token: token}, nil
}

// Login authenticates a user by phone and password
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error) {
	user, err := s.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}

	return s.issue(user)
}

// AdminLogin authenticates an admin by phone and password.
// A regular user is reported as not found even when the password matches.
func (s *authService) AdminLogin(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error) {
	phone := strings.TrimSpace(req.Phone)
	if phone == "" || req.Password == "" {
		return nil, fmt.Errorf("please fill all the fields: %w", apperrors.ErrValidation)
	}

	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("admin not found: %w", apperrors.ErrNotFound)
		}
		return nil, err
	}
	if user.Role != models.RoleAdmin {
		return nil, fmt.Errorf("admin not found: %w", apperrors.ErrNotFound)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid password: %w", apperrors.ErrUnauthorized)
	}

	return s.issue(user)
}

// authenticate checks the credentials and returns the matching user
func (s *authService) authenticate(ctx context.Context, req *models.LoginRequest) (*models.User, error) {
	phone := strings.TrimSpace(req.Phone)
	if phone == "" || req.Password == "" {
		return nil, fmt.Errorf("please fill all the fields: %w", apperrors.ErrValidation)
	}

	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("user does not exist with this phone number: %w", apperrors.ErrNotFound)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("password is incorrect: %w", apperrors.ErrUnauthorized)
	}

	return user, nil
}

func (s *authService) issue(user *models.User) (*models.AuthResult, error) {
	token, err := s.tokens.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &models.AuthResult{User: user, Token: token}, nil
}
