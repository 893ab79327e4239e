package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"skillswap/internal/domain"
)

// NotificationService manages the viewer's inbox. Producers add
// notifications for any user; every read or mutation is scoped to
// notifications addressed to the viewer or to everyone.
type NotificationService struct {
	repo domain.NotificationRepository
	opts options
}

func NewNotificationService(repo domain.NotificationRepository, opts ...Option) *NotificationService {
	return &NotificationService{repo: repo, opts: buildOptions(opts)}
}

type NotificationInput struct {
	ID        string
	Type      domain.NotificationType
	Title     string
	Message   string
	Timestamp time.Time
	Read      bool
	UserID    string
	ActionURL string
}

// Add stores a notification at the head of the list, filling in the id and
// timestamp when absent, and pushes it to the addressee.
func (s *NotificationService) Add(ctx context.Context, in NotificationInput) (*domain.Notification, error) {
	switch in.Type {
	case domain.NotificationSwapRequest, domain.NotificationSwapAccepted,
		domain.NotificationSwapRejected, domain.NotificationMessage, domain.NotificationGeneral:
	case "":
		in.Type = domain.NotificationGeneral
	default:
		return nil, domain.Invalid("unknown notification type %q", in.Type)
	}

	n := &domain.Notification{
		ID:        in.ID,
		Type:      in.Type,
		Title:     in.Title,
		Message:   in.Message,
		Timestamp: in.Timestamp,
		Read:      in.Read,
		UserID:    in.UserID,
		ActionURL: in.ActionURL,
	}
	if n.ID == "" {
		n.ID = s.opts.newID()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = s.opts.now()
	}

	if err := s.repo.Prepend(ctx, n); err != nil {
		return nil, fmt.Errorf("add notification: %w", err)
	}
	s.opts.metrics.RecordNotification(string(n.Type))
	s.opts.log.Debug("notification added",
		zap.String("notification_id", n.ID),
		zap.String("type", string(n.Type)),
		zap.String("user_id", n.UserID),
	)

	if n.UserID == "" {
		s.opts.publishAll(EventNotification, n)
	} else {
		s.opts.publish([]string{n.UserID}, EventNotification, n)
	}
	return n, nil
}

// List returns the viewer's notifications, most recent first.
func (s *NotificationService) List(ctx context.Context) ([]*domain.Notification, error) {
	viewer, err := domain.RequireViewer(ctx, "list notifications")
	if err != nil {
		return nil, err
	}
	return s.repo.ListFor(ctx, viewer.ID)
}

// UnreadCount is recomputed from the list on every call.
func (s *NotificationService) UnreadCount(ctx context.Context) (int, error) {
	viewer, err := domain.RequireViewer(ctx, "count notifications")
	if err != nil {
		return 0, err
	}
	return s.repo.CountUnread(ctx, viewer.ID)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id string) error {
	viewer, err := domain.RequireViewer(ctx, "mark notification read")
	if err != nil {
		return err
	}
	if err := s.repo.MarkRead(ctx, id, viewer.ID); err != nil {
		return fmt.Errorf("notification %s: %w", id, err)
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context) error {
	viewer, err := domain.RequireViewer(ctx, "mark notifications read")
	if err != nil {
		return err
	}
	_, err = s.repo.MarkAllRead(ctx, viewer.ID)
	return err
}

func (s *NotificationService) Remove(ctx context.Context, id string) error {
	viewer, err := domain.RequireViewer(ctx, "remove notification")
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id, viewer.ID); err != nil {
		return fmt.Errorf("notification %s: %w", id, err)
	}
	return nil
}

// ClearAll empties the viewer's inbox.
func (s *NotificationService) ClearAll(ctx context.Context) error {
	viewer, err := domain.RequireViewer(ctx, "clear notifications")
	if err != nil {
		return err
	}
	removed, err := s.repo.DeleteAllFor(ctx, viewer.ID)
	if err != nil {
		return err
	}
	s.opts.log.Debug("notifications cleared", zap.String("user_id", viewer.ID), zap.Int("removed", removed))
	return nil
}
