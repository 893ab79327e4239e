package domain

import (
	"strings"
	"time"
)

// SkillLevel is the self-assessed proficiency attached to an offered skill.
type SkillLevel string

const (
	LevelBeginner     SkillLevel = "Beginner"
	LevelIntermediate SkillLevel = "Intermediate"
	LevelAdvanced     SkillLevel = "Advanced"
	LevelExpert       SkillLevel = "Expert"
)

func (l SkillLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced, LevelExpert:
		return true
	}
	return false
}

// Skill is one entry of a user's offered skills.
type Skill struct {
	Name  string     `json:"name"`
	Level SkillLevel `json:"level"`
}

// User represents a platform member's profile.
type User struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	ProfileImage  string   `json:"profileImage,omitempty"`
	Rating        float64  `json:"rating"`
	SkillsOffered []Skill  `json:"skillsOffered"`
	SkillsWanted  []string `json:"skillsWanted"`
	Bio           string   `json:"bio,omitempty"`
	Location      string   `json:"location,omitempty"`
}

// Clone returns a deep copy so callers never share slices with a repository.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.SkillsOffered = append([]Skill(nil), u.SkillsOffered...)
	c.SkillsWanted = append([]string(nil), u.SkillsWanted...)
	return &c
}

// Offers reports whether the user offers a skill whose name contains name,
// compared case-insensitively.
func (u *User) Offers(name string) bool {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return false
	}
	for _, s := range u.SkillsOffered {
		if strings.Contains(strings.ToLower(s.Name), needle) {
			return true
		}
	}
	return false
}

// UserSnapshot is the display data copied into a swap request at creation.
// It is not kept in sync with later profile edits.
type UserSnapshot struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	ProfileImage string  `json:"profileImage,omitempty"`
	Rating       float64 `json:"rating"`
}

func (u *User) Snapshot() UserSnapshot {
	return UserSnapshot{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		ProfileImage: u.ProfileImage,
		Rating:       u.Rating,
	}
}

type NotificationType string

const (
	NotificationSwapRequest  NotificationType = "swap_request"
	NotificationSwapAccepted NotificationType = "swap_accepted"
	NotificationSwapRejected NotificationType = "swap_rejected"
	NotificationMessage      NotificationType = "message"
	NotificationGeneral      NotificationType = "general"
)

// Notification is addressed to UserID; an empty UserID is visible to everyone.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Read      bool             `json:"read"`
	UserID    string           `json:"userId,omitempty"`
	ActionURL string           `json:"actionUrl,omitempty"`
}

// VisibleTo reports whether the notification belongs in userID's inbox.
func (n *Notification) VisibleTo(userID string) bool {
	return n.UserID == "" || n.UserID == userID
}

type SwapStatus string

const (
	SwapPending   SwapStatus = "pending"
	SwapAccepted  SwapStatus = "accepted"
	SwapRejected  SwapStatus = "rejected"
	SwapCancelled SwapStatus = "cancelled"
	SwapCompleted SwapStatus = "completed"
)

// CanTransition encodes the swap lifecycle:
// pending -> accepted|rejected|cancelled, accepted -> completed.
func (s SwapStatus) CanTransition(to SwapStatus) bool {
	switch s {
	case SwapPending:
		return to == SwapAccepted || to == SwapRejected || to == SwapCancelled
	case SwapAccepted:
		return to == SwapCompleted
	}
	return false
}

// SwapRequest is a proposal to trade SkillOffered for SkillWanted.
type SwapRequest struct {
	ID           string       `json:"id"`
	FromUserID   string       `json:"fromUserId"`
	ToUserID     string       `json:"toUserId"`
	FromUser     UserSnapshot `json:"fromUser"`
	ToUser       UserSnapshot `json:"toUser"`
	SkillOffered string       `json:"skillOffered"`
	SkillWanted  string       `json:"skillWanted"`
	Message      string       `json:"message"`
	Status       SwapStatus   `json:"status"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Involves reports whether userID is the sender or the recipient.
func (r *SwapRequest) Involves(userID string) bool {
	return r.FromUserID == userID || r.ToUserID == userID
}

// Counterpart returns the other party of the request.
func (r *SwapRequest) Counterpart(userID string) string {
	if r.FromUserID == userID {
		return r.ToUserID
	}
	return r.FromUserID
}

// ParticipantDetail is a conversation participant's display snapshot.
type ParticipantDetail struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	ProfileImage string `json:"profileImage,omitempty"`
	IsOnline     bool   `json:"isOnline"`
}

// Conversation is a direct thread between exactly two users.
type Conversation struct {
	ID                 string              `json:"id"`
	Participants       [2]string           `json:"participants"`
	ParticipantDetails []ParticipantDetail `json:"participantDetails"`
	LastMessage        *Message            `json:"lastMessage,omitempty"`
	UnreadCounts       map[string]int      `json:"-"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

// HasParticipant reports whether userID is one of the pair.
func (c *Conversation) HasParticipant(userID string) bool {
	return c.Participants[0] == userID || c.Participants[1] == userID
}

// Matches reports whether the conversation is between a and b, in any order.
func (c *Conversation) Matches(a, b string) bool {
	return (c.Participants[0] == a && c.Participants[1] == b) ||
		(c.Participants[0] == b && c.Participants[1] == a)
}

// UnreadFor returns the number of unread messages addressed to userID.
func (c *Conversation) UnreadFor(userID string) int {
	return c.UnreadCounts[userID]
}

func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	cp := *c
	cp.ParticipantDetails = append([]ParticipantDetail(nil), c.ParticipantDetails...)
	if c.LastMessage != nil {
		m := *c.LastMessage
		cp.LastMessage = &m
	}
	cp.UnreadCounts = make(map[string]int, len(c.UnreadCounts))
	for k, v := range c.UnreadCounts {
		cp.UnreadCounts[k] = v
	}
	return &cp
}

// Message represents a single chat message. Read is scoped to the receiver.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	ReceiverID     string    `json:"receiverId"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
	Read           bool      `json:"read"`
}

// Review is one party's rating of a completed swap.
type Review struct {
	ID            string    `json:"id"`
	SwapRequestID string    `json:"swapRequestId"`
	ReviewerID    string    `json:"reviewerId"`
	RevieweeID    string    `json:"revieweeId"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
