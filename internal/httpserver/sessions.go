package httpserver

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"skillswap/internal/domain"
	"skillswap/internal/metrics"
	"skillswap/internal/security"
	"skillswap/internal/service"
)

// Sessions maps session ids carried in access tokens to identity sessions.
// Each session mirrors its user into the profile cache under its own key, so
// a session survives a process restart as long as the cache does.
type Sessions struct {
	users   domain.UserRepository
	cache   domain.ProfileCache
	metrics *metrics.Metrics
	opts    []service.Option

	mu   sync.RWMutex
	byID map[string]*service.Session
}

func NewSessions(users domain.UserRepository, cache domain.ProfileCache, m *metrics.Metrics, opts ...service.Option) *Sessions {
	return &Sessions{
		users:   users,
		cache:   cache,
		metrics: m,
		opts:    opts,
		byID:    make(map[string]*service.Session),
	}
}

func sessionCacheKey(sid string) string {
	return service.DefaultCacheKey + ":" + sid
}

// New prepares an unregistered session with a fresh id. Call Add once it
// has signed in.
func (s *Sessions) New() (string, *service.Session) {
	sid := uuid.NewString()
	return sid, service.NewSession(s.users, s.cache, sessionCacheKey(sid), s.opts...)
}

func (s *Sessions) Add(sid string, sess *service.Session) {
	s.mu.Lock()
	s.byID[sid] = sess
	n := len(s.byID)
	s.mu.Unlock()
	s.metrics.SetActiveSessions(n)
}

func (s *Sessions) Remove(sid string) {
	s.mu.Lock()
	delete(s.byID, sid)
	n := len(s.byID)
	s.mu.Unlock()
	s.metrics.SetActiveSessions(n)
}

// Get returns the live session for sid, restoring it from the profile cache
// when this process has not seen it yet. It returns nil when the session is
// unknown or signed out.
func (s *Sessions) Get(ctx context.Context, sid string) (*service.Session, error) {
	s.mu.RLock()
	sess, ok := s.byID[sid]
	s.mu.RUnlock()
	if ok {
		if !sess.IsAuthenticated() {
			return nil, nil
		}
		return sess, nil
	}

	restored := service.NewSession(s.users, s.cache, sessionCacheKey(sid), s.opts...)
	if err := restored.Restore(ctx); err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	if !restored.IsAuthenticated() {
		return nil, nil
	}

	s.mu.Lock()
	if existing, ok := s.byID[sid]; ok {
		restored = existing
	} else {
		s.byID[sid] = restored
	}
	n := len(s.byID)
	s.mu.Unlock()
	s.metrics.SetActiveSessions(n)
	return restored, nil
}

// Authenticate resolves an access token to its session's current user.
func (s *Sessions) Authenticate(ctx context.Context, tokens *security.TokenService, token string) (string, *service.Session, error) {
	claims, err := tokens.Parse(token)
	if err != nil {
		return "", nil, &domain.NotAuthenticatedError{Op: "parse token"}
	}
	sess, err := s.Get(ctx, claims.SessionID)
	if err != nil {
		return "", nil, err
	}
	if sess == nil {
		return "", nil, &domain.NotAuthenticatedError{Op: "resolve session"}
	}
	if u := sess.User(); u == nil || u.ID != claims.Subject {
		return "", nil, &domain.NotAuthenticatedError{Op: "resolve session"}
	}
	return claims.SessionID, sess, nil
}
