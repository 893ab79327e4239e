package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"skillswap/internal/domain"
)

type ReviewService struct {
	reviews       domain.ReviewRepository
	requests      domain.SwapRequestRepository
	users         domain.UserRepository
	notifications *NotificationService
	opts          options
}

func NewReviewService(
	reviews domain.ReviewRepository,
	requests domain.SwapRequestRepository,
	users domain.UserRepository,
	notifications *NotificationService,
	opts ...Option,
) *ReviewService {
	return &ReviewService{
		reviews:       reviews,
		requests:      requests,
		users:         users,
		notifications: notifications,
		opts:          buildOptions(opts),
	}
}

// Submit records the viewer's review of the other party of a completed swap
// and refreshes the reviewee's average rating.
func (s *ReviewService) Submit(ctx context.Context, swapID string, rating int, comment string) (*domain.Review, error) {
	viewer, err := domain.RequireViewer(ctx, "submit review")
	if err != nil {
		return nil, err
	}
	if rating < 1 || rating > 5 {
		return nil, domain.Invalid("rating must be between 1 and 5")
	}

	req, err := s.requests.GetByID(ctx, swapID)
	if err != nil {
		return nil, fmt.Errorf("get swap request: %w", err)
	}
	if req == nil || !req.Involves(viewer.ID) {
		return nil, fmt.Errorf("swap request %s: %w", swapID, domain.ErrNotFound)
	}
	if req.Status != domain.SwapCompleted {
		return nil, domain.Invalid("only completed swaps can be reviewed")
	}

	review := &domain.Review{
		ID:            s.opts.newID(),
		SwapRequestID: req.ID,
		ReviewerID:    viewer.ID,
		RevieweeID:    req.Counterpart(viewer.ID),
		Rating:        rating,
		Comment:       strings.TrimSpace(comment),
		CreatedAt:     s.opts.now(),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("swap request %s already reviewed: %w", swapID, domain.ErrConflict)
		}
		return nil, fmt.Errorf("create review: %w", err)
	}
	s.opts.metrics.RecordReview()

	if err := s.refreshRating(ctx, review.RevieweeID); err != nil {
		s.opts.log.Error("refresh rating", zap.String("user_id", review.RevieweeID), zap.Error(err))
	}

	if s.notifications != nil {
		_, err := s.notifications.Add(ctx, NotificationInput{
			Type:      domain.NotificationGeneral,
			Title:     "New Review",
			Message:   fmt.Sprintf("%s rated your %s swap %d/5", viewer.Name, req.SkillOffered, rating),
			UserID:    review.RevieweeID,
			ActionURL: "/profile",
		})
		if err != nil {
			s.opts.log.Error("notify review", zap.Error(err))
		}
	}
	return review, nil
}

// ForUser returns the reviews userID received, newest first.
func (s *ReviewService) ForUser(ctx context.Context, userID string) ([]*domain.Review, error) {
	return s.reviews.ListForReviewee(ctx, userID)
}

func (s *ReviewService) refreshRating(ctx context.Context, userID string) error {
	reviews, err := s.reviews.ListForReviewee(ctx, userID)
	if err != nil || len(reviews) == 0 {
		return err
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	mean := math.Round(float64(sum)/float64(len(reviews))*10) / 10

	_, err = s.users.Update(ctx, userID, func(u *domain.User) error {
		u.Rating = mean
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}
