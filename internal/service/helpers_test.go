package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"skillswap/internal/domain"
	"skillswap/internal/service"
	"skillswap/internal/store/memory"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store  *memory.Store
	events *recordingPublisher
	opts   []service.Option

	notifications *service.NotificationService
	swaps         *service.SwapService
	messages      *service.MessageService
	reviews       *service.ReviewService
	directory     *service.DirectoryService
}

// newFixture wires every service over a store holding the seeded users only.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := memory.NewStore()
	for _, u := range memory.SeedUsers() {
		require.NoError(t, st.Users.Create(context.Background(), u))
	}
	return wire(st)
}

// newSeededFixture also loads the sample notifications, requests and messages.
func newSeededFixture(t *testing.T) *fixture {
	t.Helper()

	st := memory.NewStore()
	require.NoError(t, st.Seed(context.Background(), testNow))
	return wire(st)
}

func wire(st *memory.Store) *fixture {
	events := &recordingPublisher{online: map[string]bool{}}
	clock := testNow
	var mu sync.Mutex
	opts := []service.Option{
		service.WithClock(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			clock = clock.Add(time.Second)
			return clock
		}),
		service.WithEvents(events),
		service.WithPresence(events),
	}

	notifications := service.NewNotificationService(st.Notifications, opts...)
	return &fixture{
		store:         st,
		events:        events,
		opts:          opts,
		notifications: notifications,
		swaps:         service.NewSwapService(st.SwapRequests, st.Users, notifications, true, opts...),
		messages:      service.NewMessageService(st.Conversations, st.Messages, st.Users, opts...),
		reviews:       service.NewReviewService(st.Reviews, st.SwapRequests, st.Users, notifications, opts...),
		directory:     service.NewDirectoryService(st.Users),
	}
}

// as returns a context whose viewer is the directory user with id.
func (f *fixture) as(t *testing.T, id string) context.Context {
	t.Helper()

	u, err := f.store.Users.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, u, "user %s", id)
	return domain.WithViewer(context.Background(), u)
}

type publishedEvent struct {
	users     []string
	eventType string
	payload   any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	online map[string]bool
}

func (p *recordingPublisher) PublishToUsers(userIDs []string, eventType string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{users: userIDs, eventType: eventType, payload: payload})
}

func (p *recordingPublisher) PublishAll(eventType string, payload any) {
	p.PublishToUsers(nil, eventType, payload)
}

func (p *recordingPublisher) IsOnline(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[userID]
}

func (p *recordingPublisher) ofType(eventType string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var res []publishedEvent
	for _, e := range p.events {
		if e.eventType == eventType {
			res = append(res, e)
		}
	}
	return res
}
