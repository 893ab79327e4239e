package memory

import (
	"context"
	"strings"
	"sync"

	"skillswap/internal/domain"
)

// UserRepo is the in-memory member directory.
type UserRepo struct {
	mu      sync.RWMutex
	byID    map[string]*domain.User
	byEmail map[string]string
	order   []string
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
}

var _ domain.UserRepository = (*UserRepo)(nil)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *UserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := normalizeEmail(u.Email)
	if _, ok := r.byEmail[email]; ok {
		return domain.ErrConflict
	}
	if _, ok := r.byID[u.ID]; ok {
		return domain.ErrConflict
	}
	r.byID[u.ID] = u.Clone()
	r.byEmail[email] = u.ID
	r.order = append(r.order, u.ID)
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id].Clone(), nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	return r.byID[id].Clone(), nil
}

func (r *UserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]*domain.User, 0, len(r.order))
	for _, id := range r.order {
		res = append(res, r.byID[id].Clone())
	}
	return res, nil
}

func (r *UserRepo) Update(_ context.Context, id string, fn func(u *domain.User) error) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	updated := existing.Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}
	updated.ID = id

	oldEmail := normalizeEmail(existing.Email)
	newEmail := normalizeEmail(updated.Email)
	if oldEmail != newEmail {
		if owner, taken := r.byEmail[newEmail]; taken && owner != id {
			return nil, domain.ErrConflict
		}
		delete(r.byEmail, oldEmail)
		r.byEmail[newEmail] = id
	}
	r.byID[id] = updated
	return updated.Clone(), nil
}
