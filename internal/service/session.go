package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"skillswap/internal/domain"
)

// DefaultCacheKey is the profile cache slot of a single-session client.
const DefaultCacheKey = "skillswap_user"

// Session holds the identity of one signed-in client: who the current user
// is and whether they are authenticated. The user's profile is mirrored into
// the profile cache under the session's key.
type Session struct {
	users    domain.UserRepository
	cache    domain.ProfileCache
	cacheKey string
	opts     options

	mu            sync.RWMutex
	user          *domain.User
	authenticated bool
	loading       atomic.Int32
}

func NewSession(users domain.UserRepository, cache domain.ProfileCache, cacheKey string, opts ...Option) *Session {
	if cacheKey == "" {
		cacheKey = DefaultCacheKey
	}
	return &Session{
		users:    users,
		cache:    cache,
		cacheKey: cacheKey,
		opts:     buildOptions(opts),
	}
}

type RegisterInput struct {
	Name          string
	Email         string
	ProfileImage  string
	SkillsOffered []domain.Skill
	SkillsWanted  []string
	Bio           string
	Location      string
}

// ProfileUpdate carries the fields to merge into the current user; nil
// fields are left unchanged.
type ProfileUpdate struct {
	Name          *string
	Email         *string
	ProfileImage  *string
	SkillsOffered *[]domain.Skill
	SkillsWanted  *[]string
	Bio           *string
	Location      *string
}

func (s *Session) CacheKey() string { return s.cacheKey }

// User returns a copy of the current user, or nil.
func (s *Session) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// IsLoading reports whether a login, registration or profile save is in flight.
func (s *Session) IsLoading() bool {
	return s.loading.Load() > 0
}

// Context attaches the authenticated user to ctx for calls into sibling services.
func (s *Session) Context(ctx context.Context) context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authenticated || s.user == nil {
		return ctx
	}
	return domain.WithViewer(ctx, s.user.Clone())
}

// Restore reloads the session from the profile cache. A malformed entry is
// logged, removed and treated as absent.
func (s *Session) Restore(ctx context.Context) error {
	raw, ok, err := s.cache.Get(ctx, s.cacheKey)
	if err != nil {
		return fmt.Errorf("read cached profile: %w", err)
	}
	if !ok {
		return nil
	}

	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil || u.ID == "" || u.Email == "" {
		s.opts.log.Warn("discarding malformed cached profile",
			zap.String("key", s.cacheKey),
			zap.Error(err),
		)
		if err := s.cache.Delete(ctx, s.cacheKey); err != nil {
			s.opts.log.Error("remove malformed cached profile", zap.Error(err))
		}
		return nil
	}

	// The directory is reseeded on every start; re-learn users registered
	// in an earlier run so others can still reach them.
	if existing, err := s.users.GetByID(ctx, u.ID); err != nil {
		return fmt.Errorf("lookup restored user: %w", err)
	} else if existing == nil {
		if err := s.users.Create(ctx, &u); err != nil && !errors.Is(err, domain.ErrConflict) {
			return fmt.Errorf("re-register restored user: %w", err)
		}
	}

	s.set(&u, true)
	return nil
}

// Login signs in the directory entry registered under email. The password
// is not verified. It returns false when no such user exists.
func (s *Session) Login(ctx context.Context, email, password string) (bool, error) {
	defer s.beginLoading()()
	if err := s.wait(ctx); err != nil {
		return false, err
	}

	user, err := s.users.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return false, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		s.setAuthenticated(false)
		s.opts.metrics.RecordAuthAttempt("login", false)
		s.opts.log.Info("login rejected: unknown email", zap.String("email", email))
		return false, nil
	}

	s.set(user, true)
	if err := s.persist(ctx, user); err != nil {
		return true, err
	}
	s.opts.metrics.RecordAuthAttempt("login", true)
	s.opts.log.Info("user logged in", zap.String("user_id", user.ID))
	return true, nil
}

// Register adds a new user to the directory and signs in as them. It
// returns false when the email is missing or already registered.
func (s *Session) Register(ctx context.Context, in RegisterInput) (bool, error) {
	defer s.beginLoading()()
	if err := s.wait(ctx); err != nil {
		return false, err
	}

	email := strings.TrimSpace(in.Email)
	if email == "" {
		s.setAuthenticated(false)
		s.opts.metrics.RecordAuthAttempt("register", false)
		return false, nil
	}
	if existing, err := s.users.GetByEmail(ctx, email); err != nil {
		return false, fmt.Errorf("check email: %w", err)
	} else if existing != nil {
		s.setAuthenticated(false)
		s.opts.metrics.RecordAuthAttempt("register", false)
		return false, nil
	}

	id, err := uuid.NewV7()
	if err != nil {
		return false, fmt.Errorf("generate user id: %w", err)
	}
	user := &domain.User{
		ID:            id.String(),
		Name:          in.Name,
		Email:         email,
		ProfileImage:  in.ProfileImage,
		Rating:        5.0,
		SkillsOffered: in.SkillsOffered,
		SkillsWanted:  in.SkillsWanted,
		Bio:           in.Bio,
		Location:      in.Location,
	}
	if user.SkillsOffered == nil {
		user.SkillsOffered = []domain.Skill{}
	}
	if user.SkillsWanted == nil {
		user.SkillsWanted = []string{}
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.setAuthenticated(false)
			s.opts.metrics.RecordAuthAttempt("register", false)
			return false, nil
		}
		return false, fmt.Errorf("create user: %w", err)
	}

	s.set(user, true)
	if err := s.persist(ctx, user); err != nil {
		return true, err
	}
	s.opts.metrics.RecordAuthAttempt("register", true)
	s.opts.log.Info("user registered", zap.String("user_id", user.ID))
	return true, nil
}

// Logout forgets the current user and clears the cached profile. Other
// stores keep their data.
func (s *Session) Logout(ctx context.Context) error {
	s.set(nil, false)
	if err := s.cache.Delete(ctx, s.cacheKey); err != nil {
		return fmt.Errorf("clear cached profile: %w", err)
	}
	return nil
}

// UpdateProfile merges upd into the current user, writes it back to the
// directory and re-caches it. It does nothing when nobody is signed in.
func (s *Session) UpdateProfile(ctx context.Context, upd ProfileUpdate) error {
	defer s.beginLoading()()
	if err := s.wait(ctx); err != nil {
		return err
	}

	current := s.User()
	if current == nil || !s.IsAuthenticated() {
		return nil
	}

	if upd.Email != nil && strings.TrimSpace(*upd.Email) == "" {
		return domain.Invalid("email must not be empty")
	}

	// Merge into the directory's record, not the session copy.
	updated, err := s.users.Update(ctx, current.ID, func(u *domain.User) error {
		upd.apply(u)
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		updated = current.Clone()
		upd.apply(updated)
		err = s.users.Create(ctx, updated)
	}
	if err != nil {
		return fmt.Errorf("update directory entry: %w", err)
	}

	s.set(updated, true)
	return s.persist(ctx, updated)
}

// Refresh reloads the current user from the directory, picking up changes
// made since sign-in such as a new rating, and re-caches it.
func (s *Session) Refresh(ctx context.Context) error {
	current := s.User()
	if current == nil || !s.IsAuthenticated() {
		return nil
	}
	fresh, err := s.users.GetByID(ctx, current.ID)
	if err != nil {
		return fmt.Errorf("reload user: %w", err)
	}
	if fresh == nil {
		return nil
	}
	s.set(fresh, true)
	return s.persist(ctx, fresh)
}

func (upd ProfileUpdate) apply(u *domain.User) {
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Email != nil {
		u.Email = strings.TrimSpace(*upd.Email)
	}
	if upd.ProfileImage != nil {
		u.ProfileImage = *upd.ProfileImage
	}
	if upd.SkillsOffered != nil {
		u.SkillsOffered = append([]domain.Skill{}, (*upd.SkillsOffered)...)
	}
	if upd.SkillsWanted != nil {
		u.SkillsWanted = append([]string{}, (*upd.SkillsWanted)...)
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	if upd.Location != nil {
		u.Location = *upd.Location
	}
}

func (s *Session) set(u *domain.User, authenticated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u.Clone()
	s.authenticated = authenticated
}

func (s *Session) setAuthenticated(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = v
}

func (s *Session) persist(ctx context.Context, u *domain.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := s.cache.Set(ctx, s.cacheKey, string(data)); err != nil {
		return fmt.Errorf("cache profile: %w", err)
	}
	return nil
}

func (s *Session) beginLoading() func() {
	s.loading.Add(1)
	return func() { s.loading.Add(-1) }
}

func (s *Session) wait(ctx context.Context) error {
	if s.opts.latency <= 0 {
		return nil
	}
	t := time.NewTimer(s.opts.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
