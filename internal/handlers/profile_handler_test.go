package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sasikola/mb-server/internal/apperrors"
	"github.com/sasikola/mb-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newProfileRouter(svc ProfileService) chi.Router {
	handler := NewProfileHandler(svc, zap.NewNop())
	return newRouter(func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			handler.RegisterRoutes(r, fakeAuth)
		})
	})
}

func TestNewProfileHandler(t *testing.T) {
	svc := &mockProfileService{}
	logger := zap.NewNop()

	handler := NewProfileHandler(svc, logger)

	assert.NotNil(t, handler)
	assert.Equal(t, svc, handler.profileService)
	assert.Equal(t, logger, handler.Logger)
}

func TestProfileHandler_GetUser(t *testing.T) {
	svc := &mockProfileService{
		getUser: func(ctx context.Context, id string) (*models.ProfileResponse, error) {
			if id != "user-1" {
				return nil, fmt.Errorf("user not found: %w", apperrors.ErrNotFound)
			}
			return testUser().ToProfile(), nil
		},
	}
	router := newProfileRouter(svc)

	tests := []struct {
		name           string
		path           string
		user           string
		expectedStatus int
	}{
		{name: "success", path: "/user/profile/user-1", user: "user-2", expectedStatus: http.StatusOK},
		{name: "missing user", path: "/user/profile/nobody", user: "user-2", expectedStatus: http.StatusNotFound},
		{name: "requires authentication", path: "/user/profile/user-1", expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.user != "" {
				r.Header.Set(testUserHeader, tt.user)
			}
			router.ServeHTTP(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.NotContains(t, w.Body.String(), "role")
				assert.NotContains(t, w.Body.String(), "password")
			}
		})
	}
}

func TestProfileHandler_ListAuthors(t *testing.T) {
	svc := &mockProfileService{
		listAuthors: func(ctx context.Context) ([]models.User, error) {
			return []models.User{*testUser()}, nil
		},
	}

	w := httptest.NewRecorder()
	newProfileRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/user/authors", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret")
	var users []models.User
	require.NoError(t, json.NewDecoder(w.Body).Decode(&users))
	assert.Len(t, users, 1)
}

func TestProfileHandler_ChangeProfilePicture(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &mockProfileService{
			changePicture: func(ctx context.Context, userID string, picture *models.Upload) (string, error) {
				assert.Equal(t, "user-1", userID)
				require.NotNil(t, picture)
				assert.Equal(t, "me.jpg", picture.Filename)
				return "/uploads/images/new.jpg", nil
			},
		}

		body, contentType := multipartBody(t, nil, []testFile{{field: "profilePicture", name: "me.jpg", contentType: "image/jpeg", content: "jpg"}})
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/user/profile/avatar", body)
		r.Header.Set("Content-Type", contentType)
		r.Header.Set(testUserHeader, "user-1")
		newProfileRouter(svc).ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp ProfilePictureResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "/uploads/images/new.jpg", resp.ImagePath)
	})

	t.Run("no file", func(t *testing.T) {
		svc := &mockProfileService{
			changePicture: func(ctx context.Context, userID string, picture *models.Upload) (string, error) {
				assert.Nil(t, picture)
				return "", fmt.Errorf("no file uploaded: %w", apperrors.ErrValidation)
			},
		}

		body, contentType := multipartBody(t, map[string]string{"other": "x"}, nil)
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/user/profile/avatar", body)
		r.Header.Set("Content-Type", contentType)
		r.Header.Set(testUserHeader, "user-1")
		newProfileRouter(svc).ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"no file uploaded"}`, w.Body.String())
	})

	t.Run("not multipart", func(t *testing.T) {
		svc := &mockProfileService{}

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/user/profile/avatar", strings.NewReader(`{}`))
		r.Header.Set("Content-Type", "application/json")
		r.Header.Set(testUserHeader, "user-1")
		newProfileRouter(svc).ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestProfileHandler_UpdateProfile(t *testing.T) {
	tests := []struct {
		name           string
		serviceErr     error
		expectedStatus int
	}{
		{name: "success", expectedStatus: http.StatusOK},
		{name: "wrong current password", serviceErr: fmt.Errorf("current password is incorrect: %w", apperrors.ErrUnauthorized), expectedStatus: http.StatusUnauthorized},
		{name: "email taken", serviceErr: fmt.Errorf("email already used: %w", apperrors.ErrConflict), expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockProfileService{
				updateProfile: func(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.ProfileResponse, error) {
					assert.Equal(t, "user-1", userID)
					assert.Equal(t, "Mary Smith", req.FullName)
					assert.Equal(t, "old", req.CurrentPassword)
					assert.Equal(t, "new", req.NewPassword)
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return testUser().ToProfile(), nil
				},
			}

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPut, "/user/profile/update",
				strings.NewReader(`{"fullName":"Mary Smith","currentPassword":"old","newPassword":"new"}`))
			r.Header.Set(testUserHeader, "user-1")
			newProfileRouter(svc).ServeHTTP(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
