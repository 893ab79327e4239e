package memory

import (
	"context"
	"sort"
	"sync"

	"skillswap/internal/domain"
)

type ConversationRepo struct {
	mu    sync.RWMutex
	items []*domain.Conversation
}

func NewConversationRepo() *ConversationRepo {
	return &ConversationRepo{}
}

var _ domain.ConversationRepository = (*ConversationRepo)(nil)

func (r *ConversationRepo) GetOrCreate(
	_ context.Context,
	a, b string,
	create func() *domain.Conversation,
) (*domain.Conversation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.items {
		if c.Matches(a, b) {
			return c.Clone(), false, nil
		}
	}
	c := create()
	if c == nil || !c.Matches(a, b) {
		return nil, false, domain.Invalid("conversation must be between %s and %s", a, b)
	}
	if c.UnreadCounts == nil {
		c.UnreadCounts = make(map[string]int, 2)
	}
	r.items = append(r.items, c.Clone())
	return c.Clone(), true, nil
}

func (r *ConversationRepo) GetByID(_ context.Context, id string) (*domain.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.items {
		if c.ID == id {
			return c.Clone(), nil
		}
	}
	return nil, nil
}

func (r *ConversationRepo) ListForUser(_ context.Context, userID string) ([]*domain.Conversation, error) {
	r.mu.RLock()
	res := make([]*domain.Conversation, 0)
	for _, c := range r.items {
		if c.HasParticipant(userID) {
			res = append(res, c.Clone())
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(res, func(i, j int) bool {
		return res[i].UpdatedAt.After(res[j].UpdatedAt)
	})
	return res, nil
}

func (r *ConversationRepo) Update(_ context.Context, id string, fn func(c *domain.Conversation) error) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, c := range r.items {
		if c.ID != id {
			continue
		}
		cp := c.Clone()
		if err := fn(cp); err != nil {
			return nil, err
		}
		r.items[i] = cp
		return cp.Clone(), nil
	}
	return nil, domain.ErrNotFound
}
