package memory

import (
	"context"
	"sync"

	"skillswap/internal/domain"
)

// NotificationRepo keeps one shared list, newest first.
type NotificationRepo struct {
	mu    sync.RWMutex
	items []domain.Notification
}

func NewNotificationRepo() *NotificationRepo {
	return &NotificationRepo{}
}

var _ domain.NotificationRepository = (*NotificationRepo)(nil)

func (r *NotificationRepo) Prepend(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		if r.items[i].ID == n.ID {
			return domain.ErrConflict
		}
	}
	items := make([]domain.Notification, 0, len(r.items)+1)
	items = append(items, *n)
	r.items = append(items, r.items...)
	return nil
}

func (r *NotificationRepo) ListFor(_ context.Context, userID string) ([]*domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]*domain.Notification, 0)
	for i := range r.items {
		if r.items[i].VisibleTo(userID) {
			n := r.items[i]
			res = append(res, &n)
		}
	}
	return res, nil
}

func (r *NotificationRepo) CountUnread(_ context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for i := range r.items {
		if r.items[i].VisibleTo(userID) && !r.items[i].Read {
			count++
		}
	}
	return count, nil
}

func (r *NotificationRepo) MarkRead(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		if r.items[i].ID == id && r.items[i].VisibleTo(userID) {
			r.items[i].Read = true
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *NotificationRepo) MarkAllRead(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := 0
	for i := range r.items {
		if r.items[i].VisibleTo(userID) && !r.items[i].Read {
			r.items[i].Read = true
			changed++
		}
	}
	return changed, nil
}

func (r *NotificationRepo) Delete(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		if r.items[i].ID == id && r.items[i].VisibleTo(userID) {
			r.items = append(r.items[:i:i], r.items[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *NotificationRepo) DeleteAllFor(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := make([]domain.Notification, 0, len(r.items))
	for i := range r.items {
		if !r.items[i].VisibleTo(userID) {
			kept = append(kept, r.items[i])
		}
	}
	removed := len(r.items) - len(kept)
	r.items = kept
	return removed, nil
}
