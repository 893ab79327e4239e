package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"skillswap/internal/domain"
)

// MaxMessageLength is the largest message body, in characters.
const MaxMessageLength = 5000

// MessageService owns direct conversations between two users and the
// messages exchanged in them.
type MessageService struct {
	conversations domain.ConversationRepository
	messages      domain.MessageRepository
	users         domain.UserRepository
	opts          options
}

func NewMessageService(
	conversations domain.ConversationRepository,
	messages domain.MessageRepository,
	users domain.UserRepository,
	opts ...Option,
) *MessageService {
	return &MessageService{
		conversations: conversations,
		messages:      messages,
		users:         users,
		opts:          buildOptions(opts),
	}
}

// ConversationView is a conversation as seen by one participant.
type ConversationView struct {
	*domain.Conversation
	UnreadCount int `json:"unreadCount"`
}

// CreateOrGetConversation returns the id of the conversation between the
// viewer and participantID, creating it on first contact.
func (s *MessageService) CreateOrGetConversation(ctx context.Context, participantID string) (string, error) {
	viewer, err := domain.RequireViewer(ctx, "create conversation")
	if err != nil {
		return "", err
	}
	conv, err := s.conversationWith(ctx, viewer, participantID)
	if err != nil {
		return "", err
	}
	return conv.ID, nil
}

// Send delivers content from the viewer to receiverID, opening the
// conversation if needed. The message starts unread.
func (s *MessageService) Send(ctx context.Context, receiverID, content string) (*domain.Message, error) {
	viewer, err := domain.RequireViewer(ctx, "send message")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, domain.Invalid("message content cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return nil, domain.Invalid("message content exceeds %d characters", MaxMessageLength)
	}

	conv, err := s.conversationWith(ctx, viewer, receiverID)
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ID:             s.opts.newID(),
		ConversationID: conv.ID,
		SenderID:       viewer.ID,
		ReceiverID:     receiverID,
		Content:        content,
		Timestamp:      s.opts.now(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	_, err = s.conversations.Update(ctx, conv.ID, func(c *domain.Conversation) error {
		last := *msg
		c.LastMessage = &last
		c.UpdatedAt = msg.Timestamp
		c.UnreadCounts[receiverID]++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update conversation: %w", err)
	}

	s.opts.metrics.RecordMessageSent()
	s.opts.log.Debug("message sent",
		zap.String("message_id", msg.ID),
		zap.String("conversation_id", conv.ID),
	)
	s.opts.publish([]string{viewer.ID, receiverID}, EventMessage, msg)
	return msg, nil
}

// MarkAsRead marks every message addressed to the viewer in the
// conversation as read and resets the viewer's unread counter. Messages the
// viewer sent are left alone.
func (s *MessageService) MarkAsRead(ctx context.Context, conversationID string) error {
	viewer, err := domain.RequireViewer(ctx, "mark messages read")
	if err != nil {
		return err
	}
	if _, err := s.participantConversation(ctx, conversationID, viewer.ID); err != nil {
		return err
	}

	changed, err := s.messages.MarkReadFor(ctx, conversationID, viewer.ID)
	if err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}
	conv, err := s.conversations.Update(ctx, conversationID, func(c *domain.Conversation) error {
		c.UnreadCounts[viewer.ID] = 0
		if c.LastMessage != nil && c.LastMessage.ReceiverID == viewer.ID {
			c.LastMessage.Read = true
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("reset unread counter: %w", err)
	}

	if changed > 0 {
		s.opts.publish(conv.Participants[:], EventMessagesRead, map[string]string{
			"conversationId": conversationID,
			"readerId":       viewer.ID,
		})
	}
	return nil
}

// Messages lists a conversation oldest first.
func (s *MessageService) Messages(ctx context.Context, conversationID string) ([]*domain.Message, error) {
	viewer, err := domain.RequireViewer(ctx, "list messages")
	if err != nil {
		return nil, err
	}
	if _, err := s.participantConversation(ctx, conversationID, viewer.ID); err != nil {
		return nil, err
	}
	return s.messages.ListForConversation(ctx, conversationID)
}

// Conversations lists the viewer's conversations, most recently active first.
func (s *MessageService) Conversations(ctx context.Context) ([]*ConversationView, error) {
	viewer, err := domain.RequireViewer(ctx, "list conversations")
	if err != nil {
		return nil, err
	}
	convs, err := s.conversations.ListForUser(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	res := make([]*ConversationView, 0, len(convs))
	for _, c := range convs {
		res = append(res, s.view(c, viewer.ID))
	}
	return res, nil
}

func (s *MessageService) Conversation(ctx context.Context, conversationID string) (*ConversationView, error) {
	viewer, err := domain.RequireViewer(ctx, "get conversation")
	if err != nil {
		return nil, err
	}
	conv, err := s.participantConversation(ctx, conversationID, viewer.ID)
	if err != nil {
		return nil, err
	}
	return s.view(conv, viewer.ID), nil
}

func (s *MessageService) view(c *domain.Conversation, viewerID string) *ConversationView {
	for i := range c.ParticipantDetails {
		d := &c.ParticipantDetails[i]
		d.IsOnline = d.ID == viewerID || s.opts.isOnline(d.ID)
	}
	return &ConversationView{Conversation: c, UnreadCount: c.UnreadFor(viewerID)}
}

func (s *MessageService) participantConversation(ctx context.Context, conversationID, userID string) (*domain.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, domain.ErrNotFound)
	}
	if !conv.HasParticipant(userID) {
		return nil, fmt.Errorf("not a participant in this conversation: %w", domain.ErrForbidden)
	}
	return conv, nil
}

// conversationWith finds or creates the viewer's conversation with otherID.
// The lookup and the insert happen under one repository lock.
func (s *MessageService) conversationWith(ctx context.Context, viewer *domain.User, otherID string) (*domain.Conversation, error) {
	if otherID == "" {
		return nil, domain.Invalid("participant is required")
	}
	if otherID == viewer.ID {
		return nil, domain.Invalid("cannot start a conversation with yourself")
	}
	other, err := s.users.GetByID(ctx, otherID)
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	if other == nil {
		return nil, fmt.Errorf("user %s: %w", otherID, domain.ErrNotFound)
	}

	conv, created, err := s.conversations.GetOrCreate(ctx, viewer.ID, other.ID, func() *domain.Conversation {
		now := s.opts.now()
		return &domain.Conversation{
			ID:           s.opts.newID(),
			Participants: [2]string{viewer.ID, other.ID},
			ParticipantDetails: []domain.ParticipantDetail{
				participantDetail(viewer, true),
				participantDetail(other, s.opts.isOnline(other.ID)),
			},
			UnreadCounts: map[string]int{viewer.ID: 0, other.ID: 0},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	})
	if err != nil {
		return nil, fmt.Errorf("get or create conversation: %w", err)
	}
	if created {
		s.opts.log.Info("conversation created",
			zap.String("conversation_id", conv.ID),
			zap.Strings("participants", conv.Participants[:]),
		)
	}
	return conv, nil
}

func participantDetail(u *domain.User, online bool) domain.ParticipantDetail {
	return domain.ParticipantDetail{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		ProfileImage: u.ProfileImage,
		IsOnline:     online,
	}
}
