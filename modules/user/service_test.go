package user

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/GoCodeAlone/modkit/internal/apperr"
	"github.com/GoCodeAlone/modkit/internal/i18n"
)

var errStorageDown = errors.New("storage down")

// failingRepository fails listing and email lookups with errStorageDown.
type failingRepository struct{ *MemoryRepository }

func (failingRepository) FindAll(context.Context) ([]User, error) { return nil, errStorageDown }

func (failingRepository) FindByEmail(context.Context, string) (User, error) {
	return User{}, errStorageDown
}

func newTestService(t *testing.T, repo Repository) *Service {
	t.Helper()
	s := NewService(repo, i18n.NewCatalog(i18n.Vietnamese))
	s.cost = bcrypt.MinCost
	s.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }
	return s
}

func appError(t *testing.T, err error) *apperr.Error {
	t.Helper()
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	return appErr
}

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("hashes_password_and_assigns_id", func(t *testing.T) {
		s := newTestService(t, NewMemoryRepository())
		u, err := s.Create(ctx, CreateUserInput{Email: " a@example.com ", Name: "Alice", Password: "secret1"}, i18n.English)
		require.NoError(t, err)
		assert.NotEmpty(t, u.ID)
		assert.Equal(t, "a@example.com", u.Email)
		assert.NotEqual(t, "secret1", u.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret1")))
		assert.Equal(t, u.CreatedAt, u.UpdatedAt)
	})

	t.Run("validation_messages_follow_language", func(t *testing.T) {
		s := newTestService(t, NewMemoryRepository())

		_, err := s.Create(ctx, CreateUserInput{Email: "nope", Password: "123"}, i18n.English)
		appErr := appError(t, err)
		assert.Equal(t, http.StatusBadRequest, appErr.Status)
		assert.Equal(t, apperr.CodeValidation, appErr.Code)
		assert.Equal(t, "Invalid request data", appErr.Message)
		assert.Equal(t, map[string]string{
			"email":    "Field 'email' must be a valid email",
			"password": "Field 'password' must have at least 6 characters",
		}, appErr.Fields)

		_, err = s.Create(ctx, CreateUserInput{Password: "123"}, i18n.Vietnamese)
		appErr = appError(t, err)
		assert.Equal(t, "Dữ liệu không hợp lệ", appErr.Message)
		assert.Equal(t, "Email không được để trống", appErr.Fields["email"])
		assert.Equal(t, "Trường 'password' phải có ít nhất 6 ký tự", appErr.Fields["password"])
	})

	t.Run("password_over_bcrypt_limit_is_a_field_error", func(t *testing.T) {
		s := newTestService(t, NewMemoryRepository())

		_, err := s.Create(ctx, CreateUserInput{Email: "a@example.com", Password: strings.Repeat("x", 73)}, i18n.English)
		appErr := appError(t, err)
		assert.Equal(t, http.StatusBadRequest, appErr.Status)
		assert.Equal(t, "Field 'password' must have at most 72 characters", appErr.Fields["password"])

		// 30 characters, 90 bytes
		_, err = s.Create(ctx, CreateUserInput{Email: "a@example.com", Password: strings.Repeat("ệ", 30)}, i18n.Vietnamese)
		appErr = appError(t, err)
		assert.Equal(t, apperr.CodeValidation, appErr.Code)
		assert.Equal(t, "Trường 'password' chỉ được có tối đa 72 ký tự", appErr.Fields["password"])

		created, err := s.Create(ctx, CreateUserInput{Email: "b@example.com", Password: "secret1"}, i18n.English)
		require.NoError(t, err)
		long := strings.Repeat("y", 100)
		_, err = s.Update(ctx, created.ID, UpdateUserInput{Password: &long}, i18n.English)
		assert.Equal(t, apperr.CodeValidation, appError(t, err).Code)
	})

	t.Run("duplicate_email_is_a_field_error", func(t *testing.T) {
		s := newTestService(t, NewMemoryRepository())
		_, err := s.Create(ctx, CreateUserInput{Email: "a@example.com", Password: "secret1"}, i18n.English)
		require.NoError(t, err)

		_, err = s.Create(ctx, CreateUserInput{Email: "A@example.com", Password: "secret1"}, i18n.English)
		appErr := appError(t, err)
		assert.Equal(t, apperr.CodeValidation, appErr.Code)
		assert.Equal(t, "User already exists", appErr.Fields["email"])
	})
}

func TestServiceLookupAndUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, NewMemoryRepository())
	created, err := s.Create(ctx, CreateUserInput{Email: "a@example.com", Name: "Alice", Password: "secret1"}, i18n.English)
	require.NoError(t, err)

	all, err := s.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = s.FindByID(ctx, "missing", i18n.Vietnamese)
	appErr := appError(t, err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "Không tìm thấy người dùng", appErr.Message)

	name := "Alicia"
	password := "another1"
	updated, err := s.Update(ctx, created.ID, UpdateUserInput{Name: &name, Password: &password}, i18n.English)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", updated.Name)
	assert.Equal(t, "a@example.com", updated.Email, "nil fields are left unchanged")
	assert.NotEqual(t, created.PasswordHash, updated.PasswordHash)

	bad := "not-an-email"
	_, err = s.Update(ctx, created.ID, UpdateUserInput{Email: &bad}, i18n.English)
	assert.Equal(t, apperr.CodeValidation, appError(t, err).Code)

	_, err = s.Update(ctx, "missing", UpdateUserInput{Name: &name}, i18n.English)
	assert.Equal(t, apperr.CodeNotFound, appError(t, err).Code)
}

func TestServiceAuthenticate(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, NewMemoryRepository())
	created, err := s.Create(ctx, CreateUserInput{Email: "a@example.com", Password: "secret1"}, i18n.English)
	require.NoError(t, err)

	u, err := s.Authenticate(ctx, "A@EXAMPLE.COM", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)

	_, err = s.Authenticate(ctx, "a@example.com", "wrong")
	assert.Equal(t, apperr.CodeAuth, appError(t, err).Code)

	_, err = s.Authenticate(ctx, "nobody@example.com", "secret1")
	assert.Equal(t, apperr.CodeAuth, appError(t, err).Code)
}

func TestServiceStorageFailures(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, &failingRepository{NewMemoryRepository()})

	_, err := s.FindAll(ctx)
	appErr := appError(t, err)
	assert.Equal(t, apperr.CodeDatabase, appErr.Code)
	assert.ErrorIs(t, err, errStorageDown)

	_, err = s.Authenticate(ctx, "a@example.com", "secret1")
	assert.Equal(t, apperr.CodeDatabase, appError(t, err).Code)
}
