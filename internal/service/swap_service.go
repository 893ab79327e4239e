package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"skillswap/internal/domain"
)

// SwapService coordinates skill-exchange requests between two users and
// tells the other party about every change through the NotificationService.
type SwapService struct {
	requests       domain.SwapRequestRepository
	users          domain.UserRepository
	notifications  *NotificationService
	validateSkills bool
	opts           options
}

func NewSwapService(
	requests domain.SwapRequestRepository,
	users domain.UserRepository,
	notifications *NotificationService,
	validateSkills bool,
	opts ...Option,
) *SwapService {
	return &SwapService{
		requests:       requests,
		users:          users,
		notifications:  notifications,
		validateSkills: validateSkills,
		opts:           buildOptions(opts),
	}
}

type SendSwapInput struct {
	ToUserID     string
	SkillOffered string
	SkillWanted  string
	Message      string
}

// Send creates a pending request from the viewer to in.ToUserID and notifies
// the recipient.
func (s *SwapService) Send(ctx context.Context, in SendSwapInput) (*domain.SwapRequest, error) {
	viewer, err := domain.RequireViewer(ctx, "send swap request")
	if err != nil {
		return nil, err
	}

	in.SkillOffered = strings.TrimSpace(in.SkillOffered)
	in.SkillWanted = strings.TrimSpace(in.SkillWanted)
	if in.ToUserID == "" {
		return nil, domain.Invalid("recipient is required")
	}
	if in.ToUserID == viewer.ID {
		return nil, domain.Invalid("cannot send a swap request to yourself")
	}
	if in.SkillOffered == "" || in.SkillWanted == "" {
		return nil, domain.Invalid("both the offered and the wanted skill are required")
	}

	sender, err := s.users.GetByID(ctx, viewer.ID)
	if err != nil {
		return nil, fmt.Errorf("get sender: %w", err)
	}
	if sender == nil {
		sender = viewer
	}
	recipient, err := s.users.GetByID(ctx, in.ToUserID)
	if err != nil {
		return nil, fmt.Errorf("get recipient: %w", err)
	}
	if recipient == nil {
		return nil, fmt.Errorf("user %s: %w", in.ToUserID, domain.ErrNotFound)
	}

	if s.validateSkills {
		if !sender.Offers(in.SkillOffered) {
			return nil, domain.Invalid("%q is not one of your offered skills", in.SkillOffered)
		}
		if !recipient.Offers(in.SkillWanted) {
			return nil, domain.Invalid("%s does not offer %q", recipient.Name, in.SkillWanted)
		}
	}

	now := s.opts.now()
	req := &domain.SwapRequest{
		ID:           s.opts.newID(),
		FromUserID:   sender.ID,
		ToUserID:     recipient.ID,
		FromUser:     sender.Snapshot(),
		ToUser:       recipient.Snapshot(),
		SkillOffered: in.SkillOffered,
		SkillWanted:  in.SkillWanted,
		Message:      in.Message,
		Status:       domain.SwapPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create swap request: %w", err)
	}
	s.opts.metrics.RecordSwapTransition(string(domain.SwapPending))
	s.opts.log.Info("swap request sent",
		zap.String("request_id", req.ID),
		zap.String("from", req.FromUserID),
		zap.String("to", req.ToUserID),
	)

	s.notify(ctx, NotificationInput{
		Type:      domain.NotificationSwapRequest,
		Title:     "New Swap Request",
		Message:   fmt.Sprintf("%s wants to exchange %s for %s", sender.Name, in.SkillOffered, in.SkillWanted),
		UserID:    recipient.ID,
		ActionURL: "/swaps",
	})
	return req, nil
}

// Accept moves a pending request the viewer received to accepted and
// notifies the sender.
func (s *SwapService) Accept(ctx context.Context, id string) (*domain.SwapRequest, error) {
	req, err := s.transition(ctx, "accept swap request", id, domain.SwapAccepted, recipientOnly)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, NotificationInput{
		Type:      domain.NotificationSwapAccepted,
		Title:     "Request Accepted!",
		Message:   fmt.Sprintf("%s accepted your swap request", req.ToUser.Name),
		UserID:    req.FromUserID,
		ActionURL: "/swaps",
	})
	return req, nil
}

// Reject moves a pending request the viewer received to rejected and
// notifies the sender.
func (s *SwapService) Reject(ctx context.Context, id string) (*domain.SwapRequest, error) {
	req, err := s.transition(ctx, "reject swap request", id, domain.SwapRejected, recipientOnly)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, NotificationInput{
		Type:      domain.NotificationSwapRejected,
		Title:     "Request Declined",
		Message:   fmt.Sprintf("%s declined your swap request", req.ToUser.Name),
		UserID:    req.FromUserID,
		ActionURL: "/swaps",
	})
	return req, nil
}

// Cancel withdraws a pending request the viewer sent. Nobody is notified.
func (s *SwapService) Cancel(ctx context.Context, id string) (*domain.SwapRequest, error) {
	return s.transition(ctx, "cancel swap request", id, domain.SwapCancelled, senderOnly)
}

// Complete marks an accepted swap as finished. Either party may do it; the
// other one is notified.
func (s *SwapService) Complete(ctx context.Context, id string) (*domain.SwapRequest, error) {
	req, err := s.transition(ctx, "complete swap", id, domain.SwapCompleted, eitherParty)
	if err != nil {
		return nil, err
	}
	viewer, _ := domain.ViewerFrom(ctx)
	s.notify(ctx, NotificationInput{
		Type:      domain.NotificationGeneral,
		Title:     "Swap Completed",
		Message:   fmt.Sprintf("Your %s / %s swap was marked as completed. Leave a review!", req.SkillOffered, req.SkillWanted),
		UserID:    req.Counterpart(viewer.ID),
		ActionURL: "/history",
	})
	return req, nil
}

// Get returns a request the viewer is a party to.
func (s *SwapService) Get(ctx context.Context, id string) (*domain.SwapRequest, error) {
	viewer, err := domain.RequireViewer(ctx, "get swap request")
	if err != nil {
		return nil, err
	}
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get swap request: %w", err)
	}
	if req == nil || !req.Involves(viewer.ID) {
		return nil, fmt.Errorf("swap request %s: %w", id, domain.ErrNotFound)
	}
	return req, nil
}

// List returns every request the viewer sent or received, in insertion order.
func (s *SwapService) List(ctx context.Context) ([]*domain.SwapRequest, error) {
	viewer, err := domain.RequireViewer(ctx, "list swap requests")
	if err != nil {
		return nil, err
	}
	return s.requests.ListForUser(ctx, viewer.ID)
}

func (s *SwapService) Sent(ctx context.Context) ([]*domain.SwapRequest, error) {
	return s.filter(ctx, "list sent swap requests", func(viewerID string, r *domain.SwapRequest) bool {
		return r.FromUserID == viewerID
	})
}

func (s *SwapService) Received(ctx context.Context) ([]*domain.SwapRequest, error) {
	return s.filter(ctx, "list received swap requests", func(viewerID string, r *domain.SwapRequest) bool {
		return r.ToUserID == viewerID
	})
}

func (s *SwapService) filter(
	ctx context.Context,
	op string,
	keep func(viewerID string, r *domain.SwapRequest) bool,
) ([]*domain.SwapRequest, error) {
	viewer, err := domain.RequireViewer(ctx, op)
	if err != nil {
		return nil, err
	}
	all, err := s.requests.ListForUser(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	res := make([]*domain.SwapRequest, 0, len(all))
	for _, r := range all {
		if keep(viewer.ID, r) {
			res = append(res, r)
		}
	}
	return res, nil
}

type rolePolicy func(viewerID string, r *domain.SwapRequest) error

func recipientOnly(viewerID string, r *domain.SwapRequest) error {
	if r.ToUserID != viewerID {
		return fmt.Errorf("only the recipient can answer a swap request: %w", domain.ErrForbidden)
	}
	return nil
}

func senderOnly(viewerID string, r *domain.SwapRequest) error {
	if r.FromUserID != viewerID {
		return fmt.Errorf("only the sender can cancel a swap request: %w", domain.ErrForbidden)
	}
	return nil
}

func eitherParty(string, *domain.SwapRequest) error { return nil }

// transition checks role and current status and applies the change in one
// critical section, so a request can only leave a state once.
func (s *SwapService) transition(
	ctx context.Context,
	op, id string,
	to domain.SwapStatus,
	allowed rolePolicy,
) (*domain.SwapRequest, error) {
	viewer, err := domain.RequireViewer(ctx, op)
	if err != nil {
		return nil, err
	}

	now := s.opts.now()
	req, err := s.requests.Update(ctx, id, func(r *domain.SwapRequest) error {
		if !r.Involves(viewer.ID) {
			return domain.ErrNotFound
		}
		if err := allowed(viewer.ID, r); err != nil {
			return err
		}
		if !r.Status.CanTransition(to) {
			return &domain.TransitionError{RequestID: r.ID, From: r.Status, To: to}
		}
		r.Status = to
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		var terr *domain.TransitionError
		if errors.As(err, &terr) {
			s.opts.log.Info("swap transition refused",
				zap.String("request_id", id),
				zap.String("from", string(terr.From)),
				zap.String("to", string(to)),
			)
			return nil, err
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("swap request %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}

	s.opts.metrics.RecordSwapTransition(string(to))
	s.opts.publish([]string{req.FromUserID, req.ToUserID}, EventSwapUpdated, req)
	return req, nil
}

// notify records a side-effect notification. The state change it reports
// is already committed, so a failure is logged rather than returned.
func (s *SwapService) notify(ctx context.Context, in NotificationInput) {
	if s.notifications == nil {
		return
	}
	if _, err := s.notifications.Add(ctx, in); err != nil {
		s.opts.log.Error("notify swap update", zap.String("user_id", in.UserID), zap.Error(err))
	}
}
