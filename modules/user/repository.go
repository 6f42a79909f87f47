package user

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// Repository stores users. Implementations return ErrNotFound and
// ErrDuplicateEmail for the corresponding conditions.
type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	FindAll(ctx context.Context) ([]User, error)
	FindByID(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	Update(ctx context.Context, u User) (User, error)
}

// MemoryRepository keeps users in memory. Email comparison is case
// insensitive.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]User
	order []string
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]User)}
}

func (r *MemoryRepository) Create(_ context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(u.Email, "") {
		return User{}, ErrDuplicateEmail
	}
	r.users[u.ID] = u
	r.order = append(r.order, u.ID)
	return u, nil
}

func (r *MemoryRepository) FindAll(_ context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.users[id])
	}
	return out, nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepository) FindByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if strings.EqualFold(r.users[id].Email, email) {
			return r.users[id], nil
		}
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepository) Update(_ context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return User{}, ErrNotFound
	}
	if r.emailTaken(u.Email, u.ID) {
		return User{}, ErrDuplicateEmail
	}
	r.users[u.ID] = u
	return u, nil
}

func (r *MemoryRepository) emailTaken(email, except string) bool {
	return slices.ContainsFunc(r.order, func(id string) bool {
		return id != except && strings.EqualFold(r.users[id].Email, email)
	})
}
