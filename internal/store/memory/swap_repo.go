package memory

import (
	"context"
	"sync"

	"skillswap/internal/domain"
)

// SwapRequestRepo keeps swap requests in insertion order.
type SwapRequestRepo struct {
	mu    sync.RWMutex
	items []domain.SwapRequest
}

func NewSwapRequestRepo() *SwapRequestRepo {
	return &SwapRequestRepo{}
}

var _ domain.SwapRequestRepository = (*SwapRequestRepo)(nil)

func (r *SwapRequestRepo) Create(_ context.Context, req *domain.SwapRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(req.ID) >= 0 {
		return domain.ErrConflict
	}
	r.items = append(r.items, *req)
	return nil
}

func (r *SwapRequestRepo) GetByID(_ context.Context, id string) (*domain.SwapRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, nil
	}
	req := r.items[i]
	return &req, nil
}

func (r *SwapRequestRepo) ListForUser(_ context.Context, userID string) ([]*domain.SwapRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]*domain.SwapRequest, 0)
	for i := range r.items {
		if r.items[i].Involves(userID) {
			req := r.items[i]
			res = append(res, &req)
		}
	}
	return res, nil
}

func (r *SwapRequestRepo) Update(_ context.Context, id string, fn func(req *domain.SwapRequest) error) (*domain.SwapRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	req := r.items[i]
	if err := fn(&req); err != nil {
		return nil, err
	}
	r.items[i] = req
	return &req, nil
}

func (r *SwapRequestRepo) indexOf(id string) int {
	for i := range r.items {
		if r.items[i].ID == id {
			return i
		}
	}
	return -1
}
