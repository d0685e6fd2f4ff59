package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sasikola/mb-server/internal/auth/middleware"
	"github.com/sasikola/mb-server/internal/models"
	"go.uber.org/zap"
)

// ProfileService is the interface that wraps methods for profile business logic
type ProfileService interface {
	// Method GetUser retrieves the public profile of a user.
	//
	// If user with such ID does not exist, the error will be returned together with "nil" value.
	GetUser(ctx context.Context, id string) (*models.ProfileResponse, error)
	// Method ListAuthors retrieves every user.
	ListAuthors(ctx context.Context) ([]models.User, error)
	// Method ChangeProfilePicture stores "picture" as the new profile picture of "userID" and returns its reference.
	ChangeProfilePicture(ctx context.Context, userID string, picture *models.Upload) (string, error)
	// Method UpdateProfile changes name, email and password of "userID" after checking the current password.
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.ProfileResponse, error)
}

// ProfileHandler handles profile HTTP requests
type ProfileHandler struct {
	BaseHandler
	profileService ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		BaseHandler:    BaseHandler{Logger: logger},
		profileService: profileService,
	}
}

// ProfilePictureResponse is returned after the profile picture changed
type ProfilePictureResponse struct {
	Message   string `json:"message"`
	ImagePath string `json:"imagePath"`
}

// ProfileUpdateResponse is returned after the profile changed
type ProfileUpdateResponse struct {
	Message string                  `json:"message"`
	User    *models.ProfileResponse `json:"user"`
}

// RegisterRoutes registers all profile handler routes
func (h *ProfileHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/authors", h.ListAuthors)
	r.Route("/profile", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/avatar", h.ChangeProfilePicture)
		r.Put("/update", h.UpdateProfile)
		r.Get("/{id}", h.GetUser)
	})
}

// GetUser handles GET /user/profile/{id}
// @Summary Get a user profile
// @Tags profile
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "User ID"
// @Success 200 {object} models.ProfileResponse "User profile"
// @Failure 401 {object} ErrorResponse "Authentication required"
// @Failure 404 {object} ErrorResponse "User not found"
// @Router /user/profile/{id} [get]
func (h *ProfileHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profileService.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.RespondServiceError(w, r, err, "get user profile")
		return
	}
	h.RespondJSON(w, http.StatusOK, profile)
}

// ListAuthors handles GET /user/authors
// @Summary List authors
// @Tags profile
// @Produce json
// @Success 200 {array} models.User "Users"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /user/authors [get]
func (h *ProfileHandler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := h.profileService.ListAuthors(r.Context())
	if err != nil {
		h.RespondServiceError(w, r, err, "list authors")
		return
	}
	h.RespondJSON(w, http.StatusOK, authors)
}

// ChangeProfilePicture handles POST /user/profile/avatar
// @Summary Change the profile picture
// @Tags profile
// @Accept mpfd
// @Produce json
// @Security ApiKeyAuth
// @Param profilePicture formData file true "Profile picture"
// @Success 200 {object} ProfilePictureResponse "Profile picture updated"
// @Failure 400 {object} ErrorResponse "No file uploaded or invalid image"
// @Failure 401 {object} ErrorResponse "Authentication required"
// @Failure 404 {object} ErrorResponse "User not found"
// @Failure 413 {object} ErrorResponse "Request body too large"
// @Router /user/profile/avatar [post]
func (h *ProfileHandler) ChangeProfilePicture(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := parseMultipart(r); err != nil {
		h.RespondBadBody(w, err)
		return
	}

	reference, err := h.profileService.ChangeProfilePicture(r.Context(), userID, formFile(r, "profilePicture"))
	if err != nil {
		h.RespondServiceError(w, r, err, "change profile picture")
		return
	}

	h.RespondJSON(w, http.StatusOK, ProfilePictureResponse{
		Message:   "Profile picture updated successfully",
		ImagePath: reference,
	})
}

// UpdateProfile handles PUT /user/profile/update
// @Summary Update the profile
// @Description Change name, email and password. The current password is required.
// @Tags profile
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.UpdateProfileRequest true "Profile update"
// @Success 200 {object} ProfileUpdateResponse "Profile updated"
// @Failure 400 {object} ErrorResponse "Missing passwords or email already used"
// @Failure 401 {object} ErrorResponse "Authentication required or wrong current password"
// @Failure 404 {object} ErrorResponse "User not found"
// @Router /user/profile/update [put]
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondBadBody(w, err)
		return
	}

	profile, err := h.profileService.UpdateProfile(r.Context(), userID, &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "update profile")
		return
	}

	h.RespondJSON(w, http.StatusOK, ProfileUpdateResponse{Message: "Profile updated successfully", User: profile})
}
