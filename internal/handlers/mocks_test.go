package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sasikola/mb-server/internal/auth/middleware"
	"github.com/sasikola/mb-server/internal/models"
	"github.com/stretchr/testify/require"
)

const testUserHeader = "X-Test-User"

// fakeAuth trusts the test header instead of a bearer token
func fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(testUserHeader)
		if userID == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(middleware.WithIdentity(r.Context(), userID, "user")))
	})
}

type mockAuthService struct {
	register   func(ctx context.Context, req *models.RegisterRequest, picture *models.Upload) (*models.AuthResult, error)
	login      func(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error)
	adminLogin func(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error)
}

func (m *mockAuthService) Register(ctx context.Context, req *models.RegisterRequest, picture *models.Upload) (*models.AuthResult, error) {
	return m.register(ctx, req, picture)
}

func (m *mockAuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error) {
	return m.login(ctx, req)
}

func (m *mockAuthService) AdminLogin(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error) {
	return m.adminLogin(ctx, req)
}

type mockBlogService struct {
	create         func(ctx context.Context, authorID string, req *models.CreateBlogRequest, images []*models.Upload) (*models.Blog, error)
	getAll         func(ctx context.Context) ([]models.Blog, error)
	get            func(ctx context.Context, id string) (*models.Blog, error)
	update         func(ctx context.Context, id, requesterID string, req *models.UpdateBlogRequest, images []*models.Upload) (*models.Blog, error)
	delete         func(ctx context.Context, id, requesterID string) error
	listByCategory func(ctx context.Context, category string) ([]models.Blog, error)
	listByAuthor   func(ctx context.Context, authorID string) ([]models.Blog, error)
}

func (m *mockBlogService) CreateBlog(ctx context.Context, authorID string, req *models.CreateBlogRequest, images []*models.Upload) (*models.Blog, error) {
	return m.create(ctx, authorID, req, images)
}

func (m *mockBlogService) GetAllBlogs(ctx context.Context) ([]models.Blog, error) {
	return m.getAll(ctx)
}

func (m *mockBlogService) GetBlog(ctx context.Context, id string) (*models.Blog, error) {
	return m.get(ctx, id)
}

func (m *mockBlogService) UpdateBlog(ctx context.Context, id, requesterID string, req *models.UpdateBlogRequest, images []*models.Upload) (*models.Blog, error) {
	return m.update(ctx, id, requesterID, req, images)
}

func (m *mockBlogService) DeleteBlog(ctx context.Context, id, requesterID string) error {
	return m.delete(ctx, id, requesterID)
}

func (m *mockBlogService) ListByCategory(ctx context.Context, category string) ([]models.Blog, error) {
	return m.listByCategory(ctx, category)
}

func (m *mockBlogService) ListByAuthor(ctx context.Context, authorID string) ([]models.Blog, error) {
	return m.listByAuthor(ctx, authorID)
}

type mockProfileService struct {
	getUser       func(ctx context.Context, id string) (*models.ProfileResponse, error)
	listAuthors   func(ctx context.Context) ([]models.User, error)
	changePicture func(ctx context.Context, userID string, picture *models.Upload) (string, error)
	updateProfile func(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.ProfileResponse, error)
}

func (m *mockProfileService) GetUser(ctx context.Context, id string) (*models.ProfileResponse, error) {
	return m.getUser(ctx, id)
}

func (m *mockProfileService) ListAuthors(ctx context.Context) ([]models.User, error) {
	return m.listAuthors(ctx)
}

func (m *mockProfileService) ChangeProfilePicture(ctx context.Context, userID string, picture *models.Upload) (string, error) {
	return m.changePicture(ctx, userID, picture)
}

func (m *mockProfileService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.ProfileResponse, error) {
	return m.updateProfile(ctx, userID, req)
}

type mockAdminService struct {
	listUsers  func(ctx context.Context) ([]models.User, error)
	deleteBlog func(ctx context.Context, id string) error
}

func (m *mockAdminService) ListUsers(ctx context.Context) ([]models.User, error) {
	return m.listUsers(ctx)
}

func (m *mockAdminService) DeleteBlog(ctx context.Context, id string) error {
	return m.deleteBlog(ctx, id)
}

type testFile struct {
	field       string
	name        string
	contentType string
	content     string
}

// multipartBody builds a multipart/form-data body and returns it with its content type
func multipartBody(t *testing.T, fields map[string]string, files []testFile) (io.Reader, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	for _, file := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="`+file.field+`"; filename="`+file.name+`"`)
		header.Set("Content-Type", file.contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte(file.content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func images(n int) []testFile {
	files := make([]testFile, n)
	for i := range files {
		files[i] = testFile{field: "images", name: "photo.png", contentType: "image/png", content: "png-bytes"}
	}
	return files
}

func newRouter(register func(r chi.Router)) chi.Router {
	r := chi.NewRouter()
	register(r)
	return r
}
