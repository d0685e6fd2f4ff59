package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sasikola/mb-server/internal/auth/middleware"
	"github.com/sasikola/mb-server/internal/models"
	"go.uber.org/zap"
)

// BlogService is the interface that wraps methods for blog business logic
type BlogService interface {
	// Method CreateBlog validates and stores a new post of "authorID" together with its images.
	//
	// If some field is invalid, or the title is already used, or some other error occurs, the error will be returned together with "nil" value.
	CreateBlog(ctx context.Context, authorID string, req *models.CreateBlogRequest, images []*models.Upload) (*models.Blog, error)
	// Method GetAllBlogs retrieves every post, newest first.
	GetAllBlogs(ctx context.Context) ([]models.Blog, error)
	// Method GetBlog retrieves a single post.
	//
	// If post with such ID does not exist, the error will be returned together with "nil" value.
	GetBlog(ctx context.Context, id string) (*models.Blog, error)
	// Method UpdateBlog overwrites the provided fields of a post owned by "requesterID".
	//
	// "images" parameter replaces the whole image list when it is not empty.
	UpdateBlog(ctx context.Context, id, requesterID string, req *models.UpdateBlogRequest, images []*models.Upload) (*models.Blog, error)
	// Method DeleteBlog removes a post owned by "requesterID".
	DeleteBlog(ctx context.Context, id, requesterID string) error
	// Method ListByCategory retrieves the posts of a category, newest first.
	ListByCategory(ctx context.Context, category string) ([]models.Blog, error)
	// Method ListByAuthor retrieves the posts of an existing user, newest first.
	ListByAuthor(ctx context.Context, authorID string) ([]models.Blog, error)
}

// BlogHandler handles blog HTTP requests
type BlogHandler struct {
	BaseHandler
	blogService BlogService
}

// NewBlogHandler creates a new blog handler
func NewBlogHandler(blogService BlogService, logger *zap.Logger) *BlogHandler {
	return &BlogHandler{
		BaseHandler: BaseHandler{Logger: logger},
		blogService: blogService,
	}
}

// BlogResponse is returned after a post is created or updated
type BlogResponse struct {
	Message string       `json:"message"`
	Blog    *models.Blog `json:"blog"`
}

// UpdateBlogBody is the JSON form of a post update
type UpdateBlogBody struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Content     *string `json:"content,omitempty"`
	Category    *string `json:"category,omitempty"`
}

// RegisterRoutes registers all blog handler routes
func (h *BlogHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/blogs", h.GetAllBlogs)
	r.Route("/blog", func(r chi.Router) {
		r.Get("/{id}", h.GetBlog)
		r.Get("/categories/{category}", h.ListByCategory)
		r.Get("/user/{id}", h.ListByAuthor)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/create", h.CreateBlog)
			r.Put("/update/{id}", h.UpdateBlog)
			r.Delete("/delete/{id}", h.DeleteBlog)
		})
	})
}

// CreateBlog handles POST /user/blog/create
// @Summary Create a blog post
// @Description Create a post with 1 to 5 images. "content" is accepted as an alias of "description".
// @Tags blogs
// @Accept mpfd
// @Produce json
// @Security ApiKeyAuth
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param category formData string true "Category" Enums(Agriculture, Business, Education, Entertainment, Art, Investment, Weather, Technology)
// @Param images formData file true "Images (1 to 5)"
// @Success 201 {object} BlogResponse "Blog post created"
// @Failure 400 {object} ErrorResponse "Invalid fields, image count or duplicate title"
// @Failure 401 {object} ErrorResponse "Authentication required"
// @Failure 413 {object} ErrorResponse "Request body too large"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /user/blog/create [post]
func (h *BlogHandler) CreateBlog(w http.ResponseWriter, r *http.Request) {
	authorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := parseMultipart(r); err != nil {
		h.RespondBadBody(w, err)
		return
	}
	images, err := formFiles(r, "images")
	if err != nil {
		h.respondFilesError(w, err)
		return
	}

	req := &models.CreateBlogRequest{
		Title:       valueOrEmpty(formValue(r, "title")),
		Description: valueOrEmpty(formValue(r, "description", "content")),
		Category:    valueOrEmpty(formValue(r, "category")),
	}

	blog, err := h.blogService.CreateBlog(r.Context(), authorID, req, images)
	if err != nil {
		h.RespondServiceError(w, r, err, "create blog")
		return
	}

	h.RespondJSON(w, http.StatusCreated, BlogResponse{Message: "Blog post created successfully.", Blog: blog})
}

// GetAllBlogs handles GET /user/blogs
// @Summary List blog posts
// @Description List every post, newest first
// @Tags blogs
// @Produce json
// @Success 200 {array} models.Blog "Blog posts"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /user/blogs [get]
func (h *BlogHandler) GetAllBlogs(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.blogService.GetAllBlogs(r.Context())
	if err != nil {
		h.RespondServiceError(w, r, err, "get blogs")
		return
	}
	h.RespondJSON(w, http.StatusOK, blogs)
}

// GetBlog handles GET /user/blog/{id}
// @Summary Get a blog post
// @Tags blogs
// @Produce json
// @Param id path string true "Blog ID"
// @Success 200 {object} models.Blog "Blog post"
// @Failure 404 {object} ErrorResponse "Blog not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /user/blog/{id} [get]
func (h *BlogHandler) GetBlog(w http.ResponseWriter, r *http.Request) {
	blog, err := h.blogService.GetBlog(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.RespondServiceError(w, r, err, "get blog")
		return
	}
	h.RespondJSON(w, http.StatusOK, blog)
}

// UpdateBlog handles PUT /user/blog/update/{id}
// @Summary Update a blog post
// @Description Overwrite the provided fields of a post. New images replace the whole list. Accepts JSON or multipart form data.
// @Tags blogs
// @Accept json,mpfd
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Blog ID"
// @Param request body UpdateBlogBody false "Fields to update (JSON)"
// @Param images formData file false "Replacement images (multipart only)"
// @Success 200 {object} BlogResponse "Blog updated"
// @Failure 400 {object} ErrorResponse "Invalid fields or duplicate title"
// @Failure 401 {object} ErrorResponse "Authentication required"
// @Failure 403 {object} ErrorResponse "Not the author"
// @Failure 404 {object} ErrorResponse "Blog not found"
// @Router /user/blog/update/{id} [put]
func (h *BlogHandler) UpdateBlog(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	req := &models.UpdateBlogRequest{}
	var images []*models.Upload
	if isMultipart(r) {
		if err := parseMultipart(r); err != nil {
			h.RespondBadBody(w, err)
			return
		}
		var err error
		images, err = formFiles(r, "images")
		if err != nil {
			h.respondFilesError(w, err)
			return
		}
		req.Title = formValue(r, "title")
		req.Description = formValue(r, "description", "content")
		req.Category = formValue(r, "category")
	} else {
		var body UpdateBlogBody
		if err := decodeJSON(r, &body); err != nil {
			h.RespondBadBody(w, err)
			return
		}
		req.Title = body.Title
		req.Description = body.Description
		if req.Description == nil {
			req.Description = body.Content
		}
		req.Category = body.Category
	}

	blog, err := h.blogService.UpdateBlog(r.Context(), chi.URLParam(r, "id"), requesterID, req, images)
	if err != nil {
		h.RespondServiceError(w, r, err, "update blog")
		return
	}

	h.RespondJSON(w, http.StatusOK, BlogResponse{Message: "Blog updated successfully", Blog: blog})
}

// DeleteBlog handles DELETE /user/blog/delete/{id}
// @Summary Delete a blog post
// @Tags blogs
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Blog ID"
// @Success 200 {object} MessageResponse "Blog deleted"
// @Failure 401 {object} ErrorResponse "Authentication required"
// @Failure 403 {object} ErrorResponse "Not the author"
// @Failure 404 {object} ErrorResponse "Blog not found"
// @Router /user/blog/delete/{id} [delete]
func (h *BlogHandler) DeleteBlog(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.blogService.DeleteBlog(r.Context(), chi.URLParam(r, "id"), requesterID); err != nil {
		h.RespondServiceError(w, r, err, "delete blog")
		return
	}

	h.RespondJSON(w, http.StatusOK, MessageResponse{Message: "Blog deleted successfully"})
}

// ListByCategory handles GET /user/blog/categories/{category}
// @Summary List blog posts of a category
// @Tags blogs
// @Produce json
// @Param category path string true "Category" Enums(Agriculture, Business, Education, Entertainment, Art, Investment, Weather, Technology)
// @Success 200 {array} models.Blog "Blog posts"
// @Failure 400 {object} ErrorResponse "Unknown category"
// @Router /user/blog/categories/{category} [get]
func (h *BlogHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.blogService.ListByCategory(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		h.RespondServiceError(w, r, err, "list blogs by category")
		return
	}
	h.RespondJSON(w, http.StatusOK, blogs)
}

// ListByAuthor handles GET /user/blog/user/{id}
// @Summary List blog posts of a user
// @Tags blogs
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {array} models.Blog "Blog posts"
// @Failure 404 {object} ErrorResponse "User not found"
// @Router /user/blog/user/{id} [get]
func (h *BlogHandler) ListByAuthor(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.blogService.ListByAuthor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.RespondServiceError(w, r, err, "list blogs by author")
		return
	}
	h.RespondJSON(w, http.StatusOK, blogs)
}

func (h *BlogHandler) respondFilesError(w http.ResponseWriter, err error) {
	if errors.Is(err, errTooManyFiles) {
		h.RespondError(w, http.StatusBadRequest, "only 5 images are allowed")
		return
	}
	h.RespondBadBody(w, err)
}
