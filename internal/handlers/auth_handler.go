package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sasikola/mb-server/internal/models"
	"go.uber.org/zap"
)

// AuthService is the interface that wraps methods for authentication business logic.
type AuthService interface {
	// Method Register validates the registration data, creates a user and returns it together with a token.
	//
	// "picture" parameter is an optional uploaded profile picture.
	//
	// If some field is missing, or phone or email is already used, or some other error occurs, the error will be returned together with "nil" value.
	Register(ctx context.Context, req *models.RegisterRequest, picture *models.Upload) (*models.AuthResult, error)
	// Method Login checks phone and password and returns the user together with a token.
	//
	// If the user does not exist, or the password does not match, the error will be returned together with "nil" value.
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error)
	// Method AdminLogin works like Login but only accepts users with the admin role.
	AdminLogin(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: BaseHandler{Logger: logger},
		authService: authService,
	}
}

// RegisterResponse is returned after a successful registration
type RegisterResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
	Token   string       `json:"token"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	Message     string             `json:"message"`
	Token       string             `json:"token"`
	UserDetails models.UserDetails `json:"userDetails"`
}

// RegisterRoutes registers all auth handler routes
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/user/register", h.Register)
		r.Post("/user/login", h.Login)
		r.Post("/admin/login", h.AdminLogin)
	})
}

// Register handles POST /auth/user/register
// @Summary Register a new user
// @Description Register a new user. Accepts JSON, or multipart form data with an optional profilePicture file.
// @Tags auth
// @Accept json,mpfd
// @Produce json
// @Param request body models.RegisterRequest false "Registration data (JSON)"
// @Param profilePicture formData file false "Profile picture (multipart only)"
// @Success 201 {object} RegisterResponse "User registered successfully"
// @Failure 400 {object} ErrorResponse "Missing fields, or phone or email already used"
// @Failure 413 {object} ErrorResponse "Request body too large"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /auth/user/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	var picture *models.Upload

	if isMultipart(r) {
		if err := parseMultipart(r); err != nil {
			h.RespondBadBody(w, err)
			return
		}
		req = models.RegisterRequest{
			FirstName:      r.FormValue("firstName"),
			LastName:       r.FormValue("lastName"),
			Email:          r.FormValue("email"),
			Phone:          r.FormValue("phone"),
			Password:       r.FormValue("password"),
			ProfilePicture: r.FormValue("profilePicture"),
		}
		picture = formFile(r, "profilePicture")
	} else if err := decodeJSON(r, &req); err != nil {
		h.RespondBadBody(w, err)
		return
	}

	result, err := h.authService.Register(r.Context(), &req, picture)
	if err != nil {
		h.RespondServiceError(w, r, err, "register user")
		return
	}

	h.RespondJSON(w, http.StatusCreated, RegisterResponse{
		Message: "User registered successfully!",
		User:    result.User,
		Token:   result.Token,
	})
}

// Login handles POST /auth/user/login
// @Summary Login user
// @Description Authenticate a user with phone and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} LoginResponse "User logged in successfully"
// @Failure 400 {object} ErrorResponse "Missing fields"
// @Failure 401 {object} ErrorResponse "Wrong password"
// @Failure 404 {object} ErrorResponse "User does not exist"
// @Router /auth/user/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.authService.Login, "User logged in successfully!")
}

// AdminLogin handles POST /auth/admin/login
// @Summary Login admin
// @Description Authenticate an admin with phone and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} LoginResponse "Admin logged in successfully"
// @Failure 400 {object} ErrorResponse "Missing fields"
// @Failure 401 {object} ErrorResponse "Wrong password"
// @Failure 404 {object} ErrorResponse "Admin not found"
// @Router /auth/admin/login [post]
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.authService.AdminLogin, "Admin logged in successfully!")
}

type loginFunc func(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error)

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, login loginFunc, message string) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondBadBody(w, err)
		return
	}

	result, err := login(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "login")
		return
	}

	h.RespondJSON(w, http.StatusOK, LoginResponse{
		Message:     message,
		Token:       result.Token,
		UserDetails: result.User.ToDetails(),
	})
}
