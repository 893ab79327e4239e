package domain

import (
	"context"
)

// Lookups return (nil, nil) when the record does not exist.

// UserRepository is the member directory, keyed by id and by lowercase email.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	// Update applies fn to a fresh copy of the user under the repository lock
	// and stores the result only when fn returns nil. A changed email is
	// re-keyed and fails with ErrConflict when another user owns it.
	Update(ctx context.Context, id string, fn func(u *User) error) (*User, error)
}

// NotificationRepository keeps notifications most-recent-first.
type NotificationRepository interface {
	Prepend(ctx context.Context, n *Notification) error
	ListFor(ctx context.Context, userID string) ([]*Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, id, userID string) error
	DeleteAllFor(ctx context.Context, userID string) (int, error)
}

// SwapRequestRepository keeps swap requests in insertion order.
type SwapRequestRepository interface {
	Create(ctx context.Context, r *SwapRequest) error
	GetByID(ctx context.Context, id string) (*SwapRequest, error)
	ListForUser(ctx context.Context, userID string) ([]*SwapRequest, error)
	// Update applies fn to a copy of the request under the repository lock and
	// stores the result only when fn returns nil.
	Update(ctx context.Context, id string, fn func(r *SwapRequest) error) (*SwapRequest, error)
}

// ConversationRepository stores direct conversations, one per user pair.
type ConversationRepository interface {
	// GetOrCreate returns the conversation between a and b, inserting the one
	// built by create if none exists. The boolean reports whether it was created.
	GetOrCreate(ctx context.Context, a, b string, create func() *Conversation) (*Conversation, bool, error)
	GetByID(ctx context.Context, id string) (*Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]*Conversation, error)
	Update(ctx context.Context, id string, fn func(c *Conversation) error) (*Conversation, error)
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	ListForConversation(ctx context.Context, conversationID string) ([]*Message, error)
	MarkReadFor(ctx context.Context, conversationID, receiverID string) (int, error)
}

// ReviewRepository stores at most one review per reviewer and swap request.
type ReviewRepository interface {
	Create(ctx context.Context, r *Review) error
	ListForReviewee(ctx context.Context, userID string) ([]*Review, error)
}

// ProfileCache is the key/value slot holding the signed-in user's profile.
type ProfileCache interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
