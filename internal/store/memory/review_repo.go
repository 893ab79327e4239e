package memory

import (
	"context"
	"sort"
	"sync"

	"skillswap/internal/domain"
)

type ReviewRepo struct {
	mu    sync.RWMutex
	items []domain.Review
}

func NewReviewRepo() *ReviewRepo {
	return &ReviewRepo{}
}

var _ domain.ReviewRepository = (*ReviewRepo)(nil)

func (r *ReviewRepo) Create(_ context.Context, rev *domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		if r.items[i].SwapRequestID == rev.SwapRequestID && r.items[i].ReviewerID == rev.ReviewerID {
			return domain.ErrConflict
		}
	}
	r.items = append(r.items, *rev)
	return nil
}

// ListForReviewee returns the reviews a user received, newest first.
func (r *ReviewRepo) ListForReviewee(_ context.Context, userID string) ([]*domain.Review, error) {
	r.mu.RLock()
	res := make([]*domain.Review, 0)
	for i := range r.items {
		if r.items[i].RevieweeID == userID {
			rev := r.items[i]
			res = append(res, &rev)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}
