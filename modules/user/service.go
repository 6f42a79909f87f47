package user

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/GoCodeAlone/modkit/internal/apperr"
	"github.com/GoCodeAlone/modkit/internal/i18n"
)

// Service implements the user rules on top of a Repository. Errors it
// returns are *apperr.Error values already translated for the caller.
type Service struct {
	repo     Repository
	catalog  *i18n.Catalog
	validate *validator.Validate
	cost     int
	now      func() time.Time
}

// NewService creates a Service and registers the module's messages in
// catalog.
func NewService(repo Repository, catalog *i18n.Catalog) *Service {
	catalog.Register("user", Translations)

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	return &Service{
		repo:     repo,
		catalog:  catalog,
		validate: v,
		cost:     bcrypt.DefaultCost,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create validates in and stores a new user.
func (s *Service) Create(ctx context.Context, in CreateUserInput, lang i18n.Language) (User, error) {
	if err := s.check(in, lang); err != nil {
		return User{}, err
	}
	hash, err := s.hash(in.Password, lang)
	if err != nil {
		return User{}, err
	}

	now := s.now()
	u, err := s.repo.Create(ctx, User{
		ID:           uuid.NewString(),
		Email:        strings.TrimSpace(in.Email),
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return User{}, s.storageError(err, lang)
	}
	return u, nil
}

func (s *Service) FindAll(ctx context.Context) ([]User, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, apperr.Database(err)
	}
	return users, nil
}

func (s *Service) FindByID(ctx context.Context, id string, lang i18n.Language) (User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return User{}, s.storageError(err, lang)
	}
	return u, nil
}

// Update applies the non-nil fields of in to the user with the given id.
func (s *Service) Update(ctx context.Context, id string, in UpdateUserInput, lang i18n.Language) (User, error) {
	if err := s.check(in, lang); err != nil {
		return User{}, err
	}
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return User{}, s.storageError(err, lang)
	}

	if in.Email != nil {
		u.Email = strings.TrimSpace(*in.Email)
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Password != nil {
		if u.PasswordHash, err = s.hash(*in.Password, lang); err != nil {
			return User{}, err
		}
	}
	u.UpdatedAt = s.now()

	if u, err = s.repo.Update(ctx, u); err != nil {
		return User{}, s.storageError(err, lang)
	}
	return u, nil
}

// Authenticate checks an email and password pair.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, apperr.Auth("")
		}
		return User{}, apperr.Database(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, apperr.Auth("")
	}
	return u, nil
}

// hash rejects passwords over bcrypt's byte limit as a field error; the
// max tag counts characters, which multi-byte input can pass.
func (s *Service) hash(password string, lang i18n.Language) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperr.Validation(s.catalog.T("invalid", lang, nil), map[string]string{
			"password": s.catalog.T("maxLength", lang, map[string]string{"field": "password", "max": "72"}),
		})
	}
	if err != nil {
		return "", apperr.Internal(err)
	}
	return string(b), nil
}

func (s *Service) storageError(err error, lang i18n.Language) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound(s.catalog.T("userNotFound", lang, nil))
	case errors.Is(err, ErrDuplicateEmail):
		return apperr.Validation(s.catalog.T("invalid", lang, nil), map[string]string{
			"email": s.catalog.T("userExists", lang, nil),
		})
	default:
		return apperr.Database(err)
	}
}

// check runs the struct's validate tags and reports every failing field
// with a translated message.
func (s *Service) check(in any, lang i18n.Language) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal(err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			fields[field] = s.catalog.T("required", lang, map[string]string{"field": capitalize(field)})
		case "email":
			fields[field] = s.catalog.T("email", lang, map[string]string{"field": field})
		case "min":
			fields[field] = s.catalog.T("minLength", lang, map[string]string{"field": field, "min": fe.Param()})
		case "max":
			fields[field] = s.catalog.T("maxLength", lang, map[string]string{"field": field, "max": fe.Param()})
		default:
			fields[field] = s.catalog.T("invalid", lang, nil)
		}
	}
	return apperr.Validation(s.catalog.T("invalid", lang, nil), fields)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
