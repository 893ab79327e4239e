package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillswap/internal/domain"
	"skillswap/internal/service"
)

func notificationsFor(t *testing.T, f *fixture, userID string, typ domain.NotificationType) []*domain.Notification {
	t.Helper()
	list, err := f.notifications.List(f.as(t, userID))
	require.NoError(t, err)
	var res []*domain.Notification
	for _, n := range list {
		if n.Type == typ && n.UserID == userID {
			res = append(res, n)
		}
	}
	return res
}

func TestSendSwapRequest(t *testing.T) {
	f := newFixture(t)
	alex := f.as(t, "1")

	req, err := f.swaps.Send(alex, service.SendSwapInput{
		ToUserID:     "2",
		SkillOffered: "Python",
		SkillWanted:  "Design",
		Message:      "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SwapPending, req.Status)
	assert.Equal(t, "1", req.FromUserID)
	assert.Equal(t, "2", req.ToUserID)
	assert.Equal(t, "Alex Johnson", req.FromUser.Name)
	assert.Equal(t, "Sarah Chen", req.ToUser.Name)

	all, err := f.swaps.List(alex)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	notes := notificationsFor(t, f, "2", domain.NotificationSwapRequest)
	require.Len(t, notes, 1)
	assert.Equal(t, "Alex Johnson wants to exchange Python for Design", notes[0].Message)

	sent, err := f.swaps.Sent(alex)
	require.NoError(t, err)
	assert.Len(t, sent, 1)
	received, err := f.swaps.Received(f.as(t, "2"))
	require.NoError(t, err)
	assert.Len(t, received, 1)
	received, err = f.swaps.Received(alex)
	require.NoError(t, err)
	assert.Empty(t, received)
}

func TestSendSwapRequestValidation(t *testing.T) {
	f := newFixture(t)
	alex := f.as(t, "1")

	tests := []struct {
		name string
		in   service.SendSwapInput
		want error
	}{
		{"self", service.SendSwapInput{ToUserID: "1", SkillOffered: "Python", SkillWanted: "Cooking"}, domain.ErrInvalidInput},
		{"unknown recipient", service.SendSwapInput{ToUserID: "99", SkillOffered: "Python", SkillWanted: "Design"}, domain.ErrNotFound},
		{"missing skill", service.SendSwapInput{ToUserID: "2", SkillOffered: "Python"}, domain.ErrInvalidInput},
		{"not offered by sender", service.SendSwapInput{ToUserID: "2", SkillOffered: "Juggling", SkillWanted: "Design"}, domain.ErrInvalidInput},
		{"not offered by recipient", service.SendSwapInput{ToUserID: "2", SkillOffered: "Python", SkillWanted: "Welding"}, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.swaps.Send(alex, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := f.swaps.Send(context.Background(), service.SendSwapInput{ToUserID: "2", SkillOffered: "Python", SkillWanted: "Design"})
	var nae *domain.NotAuthenticatedError
	assert.ErrorAs(t, err, &nae)

	all, err := f.swaps.List(alex)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSendSwapRequestWithoutSkillValidation(t *testing.T) {
	f := newFixture(t)
	swaps := service.NewSwapService(f.store.SwapRequests, f.store.Users, f.notifications, false, f.opts...)

	req, err := swaps.Send(f.as(t, "1"), service.SendSwapInput{ToUserID: "3", SkillOffered: "Juggling", SkillWanted: "Welding"})
	require.NoError(t, err)
	assert.Equal(t, domain.SwapPending, req.Status)
}

func TestAcceptSwapRequest(t *testing.T) {
	f := newSeededFixture(t)
	alex, sarah := f.as(t, "1"), f.as(t, "2")
	before := len(notificationsFor(t, f, "2", domain.NotificationSwapAccepted))

	_, err := f.swaps.Accept(sarah, "req-1")
	assert.ErrorIs(t, err, domain.ErrForbidden, "only the recipient can accept")

	req, err := f.swaps.Accept(alex, "req-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SwapAccepted, req.Status)
	assert.True(t, req.UpdatedAt.After(req.CreatedAt))

	notes := notificationsFor(t, f, "2", domain.NotificationSwapAccepted)
	require.Len(t, notes, before+1)
	assert.Equal(t, "Alex Johnson accepted your swap request", notes[0].Message)

	_, err = f.swaps.Accept(alex, "req-1")
	var terr *domain.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, domain.SwapAccepted, terr.From)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Len(t, notificationsFor(t, f, "2", domain.NotificationSwapAccepted), before+1, "no duplicate notification")

	_, err = f.swaps.Accept(alex, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.swaps.Accept(f.as(t, "3"), "req-1")
	assert.ErrorIs(t, err, domain.ErrNotFound, "strangers cannot see the request")
}

func TestAcceptSwapRequestConcurrently(t *testing.T) {
	f := newSeededFixture(t)
	alex := f.as(t, "1")

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.swaps.Accept(alex, "req-1"); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Len(t, notificationsFor(t, f, "2", domain.NotificationSwapAccepted), 1)
}

func TestRejectAndCancel(t *testing.T) {
	f := newSeededFixture(t)
	alex, sarah := f.as(t, "1"), f.as(t, "2")

	req, err := f.swaps.Reject(alex, "req-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SwapRejected, req.Status)
	notes := notificationsFor(t, f, "2", domain.NotificationSwapRejected)
	require.Len(t, notes, 1)
	assert.Equal(t, "Alex Johnson declined your swap request", notes[0].Message)

	_, err = f.swaps.Cancel(sarah, "req-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	pending, err := f.swaps.Send(alex, service.SendSwapInput{ToUserID: "3", SkillOffered: "Cooking", SkillWanted: "Machine Learning"})
	require.NoError(t, err)

	_, err = f.swaps.Cancel(f.as(t, "3"), pending.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden, "only the sender can cancel")

	countBefore, err := f.notifications.UnreadCount(f.as(t, "3"))
	require.NoError(t, err)
	cancelled, err := f.swaps.Cancel(alex, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SwapCancelled, cancelled.Status)
	countAfter, err := f.notifications.UnreadCount(f.as(t, "3"))
	require.NoError(t, err)
	assert.Equal(t, countBefore, countAfter, "cancel notifies nobody")
}

func TestCompleteSwap(t *testing.T) {
	f := newSeededFixture(t)
	sarah := f.as(t, "2")

	_, err := f.swaps.Complete(sarah, "req-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "pending swaps cannot complete")

	req, err := f.swaps.Complete(sarah, "req-2")
	require.NoError(t, err)
	assert.Equal(t, domain.SwapCompleted, req.Status)

	notes := notificationsFor(t, f, "1", domain.NotificationGeneral)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "completed")
	assert.Len(t, f.events.ofType(service.EventSwapUpdated), 1)
}

func TestGetSwapRequest(t *testing.T) {
	f := newSeededFixture(t)

	req, err := f.swaps.Get(f.as(t, "1"), "req-1")
	require.NoError(t, err)
	assert.Equal(t, "UI/UX Design", req.SkillOffered)

	_, err = f.swaps.Get(f.as(t, "3"), "req-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.swaps.Get(f.as(t, "1"), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSwapAndMessageScenario(t *testing.T) {
	f := newFixture(t)
	a, b := f.as(t, "1"), f.as(t, "2")

	req, err := f.swaps.Send(a, service.SendSwapInput{
		ToUserID:     "2",
		SkillOffered: "Photography",
		SkillWanted:  "Graphic Design",
	})
	require.NoError(t, err)
	_, err = f.swaps.Accept(b, req.ID)
	require.NoError(t, err)

	convID, err := f.messages.CreateOrGetConversation(a, "2")
	require.NoError(t, err)
	_, err = f.messages.Send(a, "2", "When can we start?")
	require.NoError(t, err)

	all, err := f.swaps.List(a)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, domain.SwapAccepted, all[0].Status)

	accepted := notificationsFor(t, f, "1", domain.NotificationSwapAccepted)
	assert.Len(t, accepted, 1)

	convs, err := f.messages.Conversations(a)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, convID, convs[0].ID)
	assert.True(t, convs[0].Matches("1", "2"))

	msgs, err := f.messages.Messages(a, convID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "When can we start?", msgs[0].Content)
}
