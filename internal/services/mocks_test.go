package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sasikola/mb-server/internal/apperrors"
	"github.com/sasikola/mb-server/internal/models"
)

const testMaxImageSize = 1024 * 1024

// mockUserRepository is an in-memory UserRepository enforcing unique phone and email
type mockUserRepository struct {
	mu        sync.Mutex
	users     map[string]*models.User
	order     []string
	nextID    int
	err       error
	updateErr error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*models.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.users {
		if existing.Phone == user.Phone || existing.Email == user.Email {
			return fmt.Errorf("duplicate entry: %w", apperrors.ErrConflict)
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	m.users[user.ID] = &stored
	m.order = append(m.order, user.ID)
	return nil
}

func (m *mockUserRepository) find(match func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, id := range m.order {
		if user := m.users[id]; match(user) {
			found := *user
			return &found, nil
		}
	}
	return nil, fmt.Errorf("user not found: %w", apperrors.ErrNotFound)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id })
}

func (m *mockUserRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Phone == phone })
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email })
}

func (m *mockUserRepository) ExistsByRole(ctx context.Context, role models.Role) (bool, error) {
	_, err := m.find(func(u *models.User) bool { return u.Role == role })
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (m *mockUserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	users := make([]models.User, 0, len(m.order))
	for _, id := range m.order {
		users = append(users, *m.users[id])
	}
	return users, nil
}

func (m *mockUserRepository) UpdateProfilePicture(ctx context.Context, id, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	user, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user not found: %w", apperrors.ErrNotFound)
	}
	user.ProfilePicture = reference
	return nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	for id, existing := range m.users {
		if id != user.ID && existing.Email == user.Email {
			return fmt.Errorf("duplicate entry: %w", apperrors.ErrConflict)
		}
	}
	stored, ok := m.users[user.ID]
	if !ok {
		return fmt.Errorf("user not found: %w", apperrors.ErrNotFound)
	}
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.Email = user.Email
	stored.PasswordHash = user.PasswordHash
	return nil
}

func (m *mockUserRepository) count(role models.Role) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, user := range m.users {
		if user.Role == role {
			n++
		}
	}
	return n
}

func (m *mockUserRepository) posts(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id].Posts
}

// mockBlogRepository is an in-memory BlogRepository keeping post counts on the user mock
type mockBlogRepository struct {
	mu        sync.Mutex
	users     *mockUserRepository
	blogs     map[string]*models.Blog
	nextID    int
	clock     time.Time
	createErr error
	updateErr error
	err       error
}

func newMockBlogRepository(users *mockUserRepository) *mockBlogRepository {
	return &mockBlogRepository{
		users: users,
		blogs: make(map[string]*models.Blog),
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *mockBlogRepository) Create(ctx context.Context, blog *models.Blog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.blogs {
		if existing.Title == blog.Title {
			return fmt.Errorf("duplicate entry: %w", apperrors.ErrConflict)
		}
	}
	m.nextID++
	m.clock = m.clock.Add(time.Second)
	blog.ID = fmt.Sprintf("blog-%d", m.nextID)
	blog.CreatedAt = m.clock
	blog.UpdatedAt = m.clock
	stored := *blog
	stored.Images = append([]string(nil), blog.Images...)
	m.blogs[blog.ID] = &stored

	m.users.mu.Lock()
	if author, ok := m.users.users[blog.AuthorID]; ok {
		author.Posts++
	}
	m.users.mu.Unlock()
	return nil
}

func (m *mockBlogRepository) withAuthor(blog *models.Blog) models.Blog {
	out := *blog
	out.Images = append([]string(nil), blog.Images...)
	m.users.mu.Lock()
	if author, ok := m.users.users[blog.AuthorID]; ok {
		out.Author = &models.AuthorName{FirstName: author.FirstName, LastName: author.LastName}
	}
	m.users.mu.Unlock()
	return out
}

func (m *mockBlogRepository) GetByID(ctx context.Context, id string) (*models.Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	blog, ok := m.blogs[id]
	if !ok {
		return nil, fmt.Errorf("blog not found: %w", apperrors.ErrNotFound)
	}
	out := m.withAuthor(blog)
	return &out, nil
}

func (m *mockBlogRepository) list(match func(*models.Blog) bool) ([]models.Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	blogs := make([]models.Blog, 0)
	for _, blog := range m.blogs {
		if match(blog) {
			blogs = append(blogs, m.withAuthor(blog))
		}
	}
	sort.Slice(blogs, func(i, j int) bool { return blogs[i].CreatedAt.After(blogs[j].CreatedAt) })
	return blogs, nil
}

func (m *mockBlogRepository) GetAll(ctx context.Context) ([]models.Blog, error) {
	return m.list(func(*models.Blog) bool { return true })
}

func (m *mockBlogRepository) GetByCategory(ctx context.Context, category models.Category) ([]models.Blog, error) {
	return m.list(func(b *models.Blog) bool { return b.Category == category })
}

func (m *mockBlogRepository) GetByAuthor(ctx context.Context, authorID string) ([]models.Blog, error) {
	return m.list(func(b *models.Blog) bool { return b.AuthorID == authorID })
}

func (m *mockBlogRepository) Update(ctx context.Context, blog *models.Blog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	for id, existing := range m.blogs {
		if id != blog.ID && existing.Title == blog.Title {
			return fmt.Errorf("duplicate entry: %w", apperrors.ErrConflict)
		}
	}
	stored, ok := m.blogs[blog.ID]
	if !ok {
		return fmt.Errorf("blog not found: %w", apperrors.ErrNotFound)
	}
	stored.Title = blog.Title
	stored.Description = blog.Description
	stored.Category = blog.Category
	stored.Images = append([]string(nil), blog.Images...)
	return nil
}

func (m *mockBlogRepository) Delete(ctx context.Context, id, authorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.blogs[id]; !ok {
		return fmt.Errorf("blog not found: %w", apperrors.ErrNotFound)
	}
	delete(m.blogs, id)

	m.users.mu.Lock()
	if author, ok := m.users.users[authorID]; ok && author.Posts > 0 {
		author.Posts--
	}
	m.users.mu.Unlock()
	return nil
}

// mockStorage records saved files
type mockStorage struct {
	mu     sync.Mutex
	saved  []string
	nextID int
	err    error
	// failAt makes the n-th save (1-based) fail
	failAt int
}

func (m *mockStorage) Save(r io.Reader, dir, extension string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.nextID++
	if m.failAt > 0 && m.nextID == m.failAt {
		return "", fmt.Errorf("disk full")
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	reference := fmt.Sprintf("/uploads/%s/file-%d%s", dir, m.nextID, extension)
	m.saved = append(m.saved, reference)
	return reference, nil
}

// mockCleaner records dispatched references
type mockCleaner struct {
	mu         sync.Mutex
	dispatched []string
}

func (m *mockCleaner) Dispatch(ctx context.Context, references ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatched = append(m.dispatched, references...)
}

func (m *mockCleaner) Dispatched() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.dispatched...)
}

// mockTokens issues predictable tokens
type mockTokens struct {
	err error
}

func (m *mockTokens) GenerateToken(userID, role string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "token-" + userID + "-" + role, nil
}

func newUpload(name, contentType string, size int64) *models.Upload {
	return &models.Upload{
		Filename:    name,
		ContentType: contentType,
		Size:        size,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("image-bytes")), nil
		},
	}
}

func newUploads(n int) []*models.Upload {
	uploads := make([]*models.Upload, n)
	for i := range uploads {
		uploads[i] = newUpload(fmt.Sprintf("photo-%d.png", i), "image/png", 1024)
	}
	return uploads
}
