package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sasikola/mb-server/internal/apperrors"
	"github.com/sasikola/mb-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testBlog() *models.Blog {
	return &models.Blog{
		ID:          "blog-1",
		Title:       "Post",
		Description: "Body",
		Category:    models.CategoryTechnology,
		Images:      []string{"/uploads/images/a.png"},
		AuthorID:    "user-1",
		Author:      &models.AuthorName{FirstName: "Jane", LastName: "Doe"},
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newBlogRouter(svc BlogService) chi.Router {
	handler := NewBlogHandler(svc, zap.NewNop())
	return newRouter(func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			handler.RegisterRoutes(r, fakeAuth)
		})
	})
}

func TestNewBlogHandler(t *testing.T) {
	svc := &mockBlogService{}
	logger := zap.NewNop()

	handler := NewBlogHandler(svc, logger)

	assert.NotNil(t, handler)
	assert.Equal(t, svc, handler.blogService)
	assert.Equal(t, logger, handler.Logger)
}

func TestBlogHandler_CreateBlog(t *testing.T) {
	tests := []struct {
		name           string
		user           string
		fields         map[string]string
		files          []testFile
		serviceErr     error
		expectedStatus int
	}{
		{
			name:           "success",
			user:           "user-1",
			fields:         map[string]string{"title": "Post", "description": "Body", "category": "Technology"},
			files:          images(2),
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "content alias",
			user:           "user-1",
			fields:         map[string]string{"title": "Post", "content": "Body", "category": "Technology"},
			files:          images(1),
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "requires authentication",
			fields:         map[string]string{"title": "Post"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "more than ten files",
			user:           "user-1",
			fields:         map[string]string{"title": "Post", "description": "Body", "category": "Technology"},
			files:          images(11),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "duplicate title",
			user:           "user-1",
			fields:         map[string]string{"title": "Post", "description": "Body", "category": "Technology"},
			files:          images(1),
			serviceErr:     fmt.Errorf("title already used: %w", apperrors.ErrConflict),
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &mockBlogService{
				create: func(ctx context.Context, authorID string, req *models.CreateBlogRequest, uploads []*models.Upload) (*models.Blog, error) {
					called = true
					assert.Equal(t, "user-1", authorID)
					assert.Equal(t, "Post", req.Title)
					assert.Equal(t, "Body", req.Description)
					assert.Equal(t, "Technology", req.Category)
					assert.Len(t, uploads, len(tt.files))
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return testBlog(), nil
				},
			}

			body, contentType := multipartBody(t, tt.fields, tt.files)
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/user/blog/create", body)
			r.Header.Set("Content-Type", contentType)
			if tt.user != "" {
				r.Header.Set(testUserHeader, tt.user)
			}
			newBlogRouter(svc).ServeHTTP(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusUnauthorized || len(tt.files) > MaxUploadParts {
				assert.False(t, called)
			}
			if tt.expectedStatus == http.StatusCreated {
				var resp BlogResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, "blog-1", resp.Blog.ID)
			}
		})
	}
}

func TestBlogHandler_Reads(t *testing.T) {
	svc := &mockBlogService{
		getAll: func(ctx context.Context) ([]models.Blog, error) {
			return []models.Blog{*testBlog()}, nil
		},
		get: func(ctx context.Context, id string) (*models.Blog, error) {
			if id != "blog-1" {
				return nil, fmt.Errorf("blog not found: %w", apperrors.ErrNotFound)
			}
			return testBlog(), nil
		},
		listByCategory: func(ctx context.Context, category string) ([]models.Blog, error) {
			if !models.Category(category).IsValid() {
				return nil, fmt.Errorf("invalid category: %w", apperrors.ErrValidation)
			}
			return []models.Blog{*testBlog()}, nil
		},
		listByAuthor: func(ctx context.Context, authorID string) ([]models.Blog, error) {
			if authorID != "user-1" {
				return nil, fmt.Errorf("user not found: %w", apperrors.ErrNotFound)
			}
			return []models.Blog{}, nil
		},
	}
	router := newBlogRouter(svc)

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expectedBody   string
	}{
		{name: "all blogs", path: "/user/blogs", expectedStatus: http.StatusOK},
		{name: "single blog", path: "/user/blog/blog-1", expectedStatus: http.StatusOK},
		{name: "missing blog", path: "/user/blog/nope", expectedStatus: http.StatusNotFound, expectedBody: `{"error":"blog not found"}`},
		{name: "category", path: "/user/blog/categories/Technology", expectedStatus: http.StatusOK},
		{name: "unknown category", path: "/user/blog/categories/Sports", expectedStatus: http.StatusBadRequest},
		{name: "author posts", path: "/user/blog/user/user-1", expectedStatus: http.StatusOK, expectedBody: `[]`},
		{name: "unknown author", path: "/user/blog/user/nobody", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestBlogHandler_UpdateBlog(t *testing.T) {
	t.Run("json body", func(t *testing.T) {
		svc := &mockBlogService{
			update: func(ctx context.Context, id, requesterID string, req *models.UpdateBlogRequest, uploads []*models.Upload) (*models.Blog, error) {
				assert.Equal(t, "blog-1", id)
				assert.Equal(t, "user-1", requesterID)
				require.NotNil(t, req.Title)
				assert.Equal(t, "New", *req.Title)
				require.NotNil(t, req.Description)
				assert.Equal(t, "from content", *req.Description)
				assert.Nil(t, req.Category)
				assert.Empty(t, uploads)
				return testBlog(), nil
			},
		}

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPut, "/user/blog/update/blog-1", strings.NewReader(`{"title":"New","content":"from content"}`))
		r.Header.Set("Content-Type", "application/json")
		r.Header.Set(testUserHeader, "user-1")
		newBlogRouter(svc).ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("multipart with images", func(t *testing.T) {
		svc := &mockBlogService{
			update: func(ctx context.Context, id, requesterID string, req *models.UpdateBlogRequest, uploads []*models.Upload) (*models.Blog, error) {
				assert.Nil(t, req.Title)
				require.NotNil(t, req.Category)
				assert.Equal(t, "Art", *req.Category)
				assert.Len(t, uploads, 3)
				return testBlog(), nil
			},
		}

		body, contentType := multipartBody(t, map[string]string{"category": "Art"}, images(3))
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPut, "/user/blog/update/blog-1", body)
		r.Header.Set("Content-Type", contentType)
		r.Header.Set(testUserHeader, "user-1")
		newBlogRouter(svc).ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not the author", func(t *testing.T) {
		svc := &mockBlogService{
			update: func(ctx context.Context, id, requesterID string, req *models.UpdateBlogRequest, uploads []*models.Upload) (*models.Blog, error) {
				return nil, fmt.Errorf("only the author can update this blog: %w", apperrors.ErrForbidden)
			},
		}

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPut, "/user/blog/update/blog-1", strings.NewReader(`{}`))
		r.Header.Set(testUserHeader, "user-2")
		newBlogRouter(svc).ServeHTTP(w, r)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestBlogHandler_DeleteBlog(t *testing.T) {
	tests := []struct {
		name           string
		user           string
		serviceErr     error
		expectedStatus int
	}{
		{name: "author", user: "user-1", expectedStatus: http.StatusOK},
		{name: "not the author", user: "user-2", serviceErr: fmt.Errorf("only the author can delete this blog: %w", apperrors.ErrForbidden), expectedStatus: http.StatusForbidden},
		{name: "missing", user: "user-1", serviceErr: fmt.Errorf("blog not found: %w", apperrors.ErrNotFound), expectedStatus: http.StatusNotFound},
		{name: "anonymous", expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockBlogService{
				delete: func(ctx context.Context, id, requesterID string) error {
					assert.Equal(t, "blog-1", id)
					assert.Equal(t, tt.user, requesterID)
					return tt.serviceErr
				},
			}

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodDelete, "/user/blog/delete/blog-1", nil)
			if tt.user != "" {
				r.Header.Set(testUserHeader, tt.user)
			}
			newBlogRouter(svc).ServeHTTP(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.JSONEq(t, `{"message":"Blog deleted successfully"}`, w.Body.String())
			}
		})
	}
}
