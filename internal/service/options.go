package service

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"skillswap/internal/logger"
	"skillswap/internal/metrics"
)

// EventPublisher delivers live events to users' open connections.
type EventPublisher interface {
	PublishToUsers(userIDs []string, eventType string, payload any)
	PublishAll(eventType string, payload any)
}

// Presence reports whether a user currently has a live connection.
type Presence interface {
	IsOnline(userID string) bool
}

// Event types pushed through the EventPublisher.
const (
	EventNotification = "notification"
	EventMessage      = "message"
	EventMessagesRead = "messages_read"
	EventSwapUpdated  = "swap_updated"
)

type options struct {
	now      func() time.Time
	newID    func() string
	log      *zap.Logger
	metrics  *metrics.Metrics
	events   EventPublisher
	presence Presence
	latency  time.Duration
}

// Option configures the ambient dependencies shared by all services.
type Option func(*options)

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = logger.OrNop(l) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithEvents(p EventPublisher) Option {
	return func(o *options) { o.events = p }
}

func WithPresence(p Presence) Option {
	return func(o *options) { o.presence = p }
}

// WithLatency delays identity operations to emulate a remote backend.
func WithLatency(d time.Duration) Option {
	return func(o *options) { o.latency = d }
}

func buildOptions(opts []Option) options {
	o := options{
		now:   time.Now,
		newID: uuid.NewString,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) publish(userIDs []string, eventType string, payload any) {
	if o.events == nil || len(userIDs) == 0 {
		return
	}
	o.events.PublishToUsers(userIDs, eventType, payload)
}

func (o options) publishAll(eventType string, payload any) {
	if o.events == nil {
		return
	}
	o.events.PublishAll(eventType, payload)
}

func (o options) isOnline(userID string) bool {
	return o.presence != nil && o.presence.IsOnline(userID)
}
