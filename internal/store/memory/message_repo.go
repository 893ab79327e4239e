package memory

import (
	"context"
	"sort"
	"sync"

	"skillswap/internal/domain"
)

type MessageRepo struct {
	mu    sync.RWMutex
	items []domain.Message
}

func NewMessageRepo() *MessageRepo {
	return &MessageRepo{}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

func (r *MessageRepo) Create(_ context.Context, m *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		if r.items[i].ID == m.ID {
			return domain.ErrConflict
		}
	}
	r.items = append(r.items, *m)
	return nil
}

// ListForConversation returns messages oldest first.
func (r *MessageRepo) ListForConversation(_ context.Context, conversationID string) ([]*domain.Message, error) {
	r.mu.RLock()
	res := make([]*domain.Message, 0)
	for i := range r.items {
		if r.items[i].ConversationID == conversationID {
			m := r.items[i]
			res = append(res, &m)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Timestamp.Before(res[j].Timestamp)
	})
	return res, nil
}

func (r *MessageRepo) MarkReadFor(_ context.Context, conversationID, receiverID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := 0
	for i := range r.items {
		m := &r.items[i]
		if m.ConversationID == conversationID && m.ReceiverID == receiverID && !m.Read {
			m.Read = true
			changed++
		}
	}
	return changed, nil
}
