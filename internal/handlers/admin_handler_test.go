package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sasikola/mb-server/internal/apperrors"
	"github.com/sasikola/mb-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewAdminHandler(t *testing.T) {
	svc := &mockAdminService{}
	logger := zap.NewNop()

	handler := NewAdminHandler(svc, logger)

	assert.NotNil(t, handler)
	assert.Equal(t, svc, handler.adminService)
	assert.Equal(t, logger, handler.Logger)
}

func TestAdminHandler_ListUsers(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		admin := testUser()
		admin.Role = models.RoleAdmin
		svc := &mockAdminService{
			listUsers: func(ctx context.Context) ([]models.User, error) {
				return []models.User{*testUser(), *admin}, nil
			},
		}

		w := httptest.NewRecorder()
		newRouter(NewAdminHandler(svc, zap.NewNop()).RegisterRoutes).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var users []models.User
		require.NoError(t, json.NewDecoder(w.Body).Decode(&users))
		require.Len(t, users, 2)
		assert.Equal(t, models.RoleAdmin, users[1].Role)
	})

	t.Run("store failure", func(t *testing.T) {
		svc := &mockAdminService{
			listUsers: func(ctx context.Context) ([]models.User, error) {
				return nil, errors.New("database down")
			},
		}

		w := httptest.NewRecorder()
		newRouter(NewAdminHandler(svc, zap.NewNop()).RegisterRoutes).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
	})
}

func TestAdminHandler_DeleteBlog(t *testing.T) {
	tests := []struct {
		name           string
		serviceErr     error
		expectedStatus int
	}{
		{name: "success", expectedStatus: http.StatusOK},
		{name: "missing", serviceErr: fmt.Errorf("blog not found: %w", apperrors.ErrNotFound), expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAdminService{
				deleteBlog: func(ctx context.Context, id string) error {
					assert.Equal(t, "blog-9", id)
					return tt.serviceErr
				},
			}

			w := httptest.NewRecorder()
			newRouter(NewAdminHandler(svc, zap.NewNop()).RegisterRoutes).
				ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/blog/delete/blog-9", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
