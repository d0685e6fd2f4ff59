package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sasikola/mb-server/internal/models"
	"go.uber.org/zap"
)

// AdminService is the interface that wraps methods for admin business logic
type AdminService interface {
	// Method ListUsers retrieves every user including the role.
	ListUsers(ctx context.Context) ([]models.User, error)
	// Method DeleteBlog removes any post regardless of its author.
	//
	// If post with such ID does not exist, the error will be returned.
	DeleteBlog(ctx context.Context, id string) error
}

// AdminHandler handles admin HTTP requests
type AdminHandler struct {
	BaseHandler
	adminService AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:  BaseHandler{Logger: logger},
		adminService: adminService,
	}
}

// RegisterRoutes registers all admin handler routes.
// The router is expected to be guarded by the auth and admin middlewares.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/users", h.ListUsers)
	r.Delete("/blog/delete/{id}", h.DeleteBlog)
}

// ListUsers handles GET /admin/users
// @Summary List users
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.User "Users"
// @Failure 401 {object} ErrorResponse "Authentication required"
// @Failure 403 {object} ErrorResponse "Admin access required"
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.ListUsers(r.Context())
	if err != nil {
		h.RespondServiceError(w, r, err, "list users")
		return
	}
	h.RespondJSON(w, http.StatusOK, users)
}

// DeleteBlog handles DELETE /admin/blog/delete/{id}
// @Summary Delete any blog post
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Blog ID"
// @Success 200 {object} MessageResponse "Blog deleted"
// @Failure 403 {object} ErrorResponse "Admin access required"
// @Failure 404 {object} ErrorResponse "Blog not found"
// @Router /admin/blog/delete/{id} [delete]
func (h *AdminHandler) DeleteBlog(w http.ResponseWriter, r *http.Request) {
	if err := h.adminService.DeleteBlog(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.RespondServiceError(w, r, err, "delete blog")
		return
	}

	h.RespondJSON(w, http.StatusOK, MessageResponse{Message: "Blog deleted successfully"})
}
