package memory

import (
	"context"
	"fmt"
	"time"

	"skillswap/internal/domain"
)

// Store bundles the in-memory repositories of one running application.
type Store struct {
	Users         *UserRepo
	Notifications *NotificationRepo
	SwapRequests  *SwapRequestRepo
	Conversations *ConversationRepo
	Messages      *MessageRepo
	Reviews       *ReviewRepo
}

func NewStore() *Store {
	return &Store{
		Users:         NewUserRepo(),
		Notifications: NewNotificationRepo(),
		SwapRequests:  NewSwapRequestRepo(),
		Conversations: NewConversationRepo(),
		Messages:      NewMessageRepo(),
		Reviews:       NewReviewRepo(),
	}
}

// SeedUsers returns the directory every process starts with.
func SeedUsers() []*domain.User {
	return []*domain.User{
		{
			ID:     "1",
			Name:   "Alex Johnson",
			Email:  "alex@skillswap.com",
			Rating: 4.8,
			SkillsOffered: []domain.Skill{
				{Name: "Python", Level: domain.LevelExpert},
				{Name: "Cooking", Level: domain.LevelIntermediate},
				{Name: "Photography", Level: domain.LevelAdvanced},
			},
			SkillsWanted: []string{"UI/UX Design", "Machine Learning"},
			Bio:          "Full-stack developer passionate about React and Node.js",
			Location:     "San Francisco",
		},
		{
			ID:     "2",
			Name:   "Sarah Chen",
			Email:  "sarah@skillswap.com",
			Rating: 4.9,
			SkillsOffered: []domain.Skill{
				{Name: "UI/UX Design", Level: domain.LevelExpert},
				{Name: "Graphic Design", Level: domain.LevelAdvanced},
				{Name: "Digital Marketing", Level: domain.LevelIntermediate},
			},
			SkillsWanted: []string{"Python Programming", "Data Analysis"},
			Bio:          "Designer with 10+ years in UX/UI design",
			Location:     "New York",
		},
		{
			ID:     "3",
			Name:   "Emma Rodriguez",
			Email:  "emma@skillswap.com",
			Rating: 4.8,
			SkillsOffered: []domain.Skill{
				{Name: "Python", Level: domain.LevelExpert},
				{Name: "Machine Learning", Level: domain.LevelAdvanced},
				{Name: "Data Analysis", Level: domain.LevelExpert},
			},
			SkillsWanted: []string{"Cloud Architecture", "DevOps"},
			Bio:          "Data scientist and ML engineer",
			Location:     "London",
		},
	}
}

// Seed loads the sample directory, notifications, swap requests and the
// sample conversation. Timestamps are relative to now.
func (s *Store) Seed(ctx context.Context, now time.Time) error {
	users := SeedUsers()
	for _, u := range users {
		if err := s.Users.Create(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}
	alex, sarah := users[0], users[1]

	// Prepend reverses order, so insert oldest first.
	notifications := []*domain.Notification{
		{
			ID:        "2",
			Type:      domain.NotificationSwapAccepted,
			Title:     "Request Accepted!",
			Message:   "Sarah Chen accepted your swap request for Photography",
			Timestamp: now.Add(-24 * time.Hour),
			UserID:    alex.ID,
		},
		{
			ID:        "1",
			Type:      domain.NotificationSwapRequest,
			Title:     "New Swap Request",
			Message:   "Sarah Chen wants to exchange UI/UX Design for Python Programming",
			Timestamp: now.Add(-2 * time.Hour),
			UserID:    alex.ID,
		},
	}
	for _, n := range notifications {
		if err := s.Notifications.Prepend(ctx, n); err != nil {
			return fmt.Errorf("seed notification %s: %w", n.ID, err)
		}
	}

	requests := []*domain.SwapRequest{
		{
			ID:           "req-1",
			FromUserID:   sarah.ID,
			ToUserID:     alex.ID,
			FromUser:     sarah.Snapshot(),
			ToUser:       alex.Snapshot(),
			SkillOffered: "UI/UX Design",
			SkillWanted:  "Python Programming",
			Message:      "Hi! I'd love to learn Python from you. I can teach you UI/UX design in return.",
			Status:       domain.SwapPending,
			CreatedAt:    now.Add(-2 * time.Hour),
			UpdatedAt:    now.Add(-2 * time.Hour),
		},
		{
			ID:           "req-2",
			FromUserID:   alex.ID,
			ToUserID:     sarah.ID,
			FromUser:     alex.Snapshot(),
			ToUser:       sarah.Snapshot(),
			SkillOffered: "Photography",
			SkillWanted:  "Graphic Design",
			Message:      "I'd like to exchange photography skills for graphic design lessons!",
			Status:       domain.SwapAccepted,
			CreatedAt:    now.Add(-24 * time.Hour),
			UpdatedAt:    now.Add(-20 * time.Hour),
		},
	}
	for _, r := range requests {
		if err := s.SwapRequests.Create(ctx, r); err != nil {
			return fmt.Errorf("seed swap request %s: %w", r.ID, err)
		}
	}

	messages := []*domain.Message{
		{
			ID:             "msg-1",
			ConversationID: "conv-1",
			SenderID:       sarah.ID,
			ReceiverID:     alex.ID,
			Content:        "Hi Alex! I saw your Python skills and would love to learn from you.",
			Timestamp:      now.Add(-2 * time.Hour),
			Read:           true,
		},
		{
			ID:             "msg-2",
			ConversationID: "conv-1",
			SenderID:       alex.ID,
			ReceiverID:     sarah.ID,
			Content:        "Hi Sarah! I'd be happy to help you with Python. Your UI/UX skills look amazing!",
			Timestamp:      now.Add(-90 * time.Minute),
			Read:           true,
		},
		{
			ID:             "msg-3",
			ConversationID: "conv-1",
			SenderID:       sarah.ID,
			ReceiverID:     alex.ID,
			Content:        "Great! When would be a good time to start? I'm free most evenings.",
			Timestamp:      now.Add(-30 * time.Minute),
		},
	}
	unread := map[string]int{}
	for _, m := range messages {
		if err := s.Messages.Create(ctx, m); err != nil {
			return fmt.Errorf("seed message %s: %w", m.ID, err)
		}
		if !m.Read {
			unread[m.ReceiverID]++
		}
	}

	last := *messages[len(messages)-1]
	_, _, err := s.Conversations.GetOrCreate(ctx, alex.ID, sarah.ID, func() *domain.Conversation {
		return &domain.Conversation{
			ID:           "conv-1",
			Participants: [2]string{alex.ID, sarah.ID},
			ParticipantDetails: []domain.ParticipantDetail{
				{ID: alex.ID, Name: alex.Name, Email: alex.Email, IsOnline: true},
				{ID: sarah.ID, Name: sarah.Name, Email: sarah.Email, IsOnline: true},
			},
			LastMessage:  &last,
			UnreadCounts: unread,
			CreatedAt:    now.Add(-24 * time.Hour),
			UpdatedAt:    now.Add(-30 * time.Minute),
		}
	})
	if err != nil {
		return fmt.Errorf("seed conversation: %w", err)
	}
	return nil
}
