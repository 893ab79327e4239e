package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillswap/internal/domain"
	"skillswap/internal/store/memory"
)

func TestSeed(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	st := memory.NewStore()
	require.NoError(t, st.Seed(ctx, now))

	users, err := st.Users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	notes, err := st.Notifications.ListFor(ctx, "1")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "1", notes[0].ID, "newest first")

	reqs, err := st.SwapRequests.ListForUser(ctx, "1")
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "req-1", reqs[0].ID)

	conv, err := st.Conversations.GetByID(ctx, "conv-1")
	require.NoError(t, err)
	require.NotNil(t, conv)
	assert.Equal(t, 1, conv.UnreadFor("1"))
	assert.Zero(t, conv.UnreadFor("2"))
	assert.Equal(t, "msg-3", conv.LastMessage.ID)

	assert.Error(t, st.Seed(ctx, now), "seeding twice conflicts")
}

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepo()
	require.NoError(t, repo.Create(ctx, &domain.User{ID: "a", Email: "A@Example.com"}))

	assert.ErrorIs(t, repo.Create(ctx, &domain.User{ID: "b", Email: "a@example.com"}), domain.ErrConflict)

	got, err := repo.GetByEmail(ctx, "a@EXAMPLE.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a", got.ID)

	updated, err := repo.Update(ctx, "a", func(u *domain.User) error {
		u.Email = "new@example.com"
		u.SkillsWanted = append(u.SkillsWanted, "Go")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)
	got = updated

	old, err := repo.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Nil(t, old)

	missing, err := repo.GetByID(ctx, "zzz")
	require.NoError(t, err)
	assert.Nil(t, missing)
	_, err = repo.Update(ctx, "zzz", func(*domain.User) error { return nil })
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// A failing fn or a taken email leaves the record alone.
	require.NoError(t, repo.Create(ctx, &domain.User{ID: "b", Email: "b@example.com"}))
	_, err = repo.Update(ctx, "b", func(u *domain.User) error {
		u.Email = "NEW@example.com"
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, err = repo.Update(ctx, "b", func(u *domain.User) error {
		u.Bio = "changed"
		return domain.ErrInvalidInput
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	b, err := repo.GetByEmail(ctx, "b@example.com")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Empty(t, b.Bio)

	// Returned records are copies.
	got.SkillsWanted[0] = "mutated"
	again, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, again.SkillsWanted)
}

func TestSwapRequestRepoUpdate(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSwapRequestRepo()
	require.NoError(t, repo.Create(ctx, &domain.SwapRequest{ID: "r", Status: domain.SwapPending}))

	boom := errors.New("boom")
	_, err := repo.Update(ctx, "r", func(r *domain.SwapRequest) error {
		r.Status = domain.SwapAccepted
		return boom
	})
	assert.ErrorIs(t, err, boom)

	r, err := repo.GetByID(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, domain.SwapPending, r.Status, "failed updates are discarded")

	_, err = repo.Update(ctx, "missing", func(*domain.SwapRequest) error { return nil })
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConversationRepoGetOrCreate(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewConversationRepo()
	calls := 0
	build := func() *domain.Conversation {
		calls++
		return &domain.Conversation{ID: "c", Participants: [2]string{"a", "b"}}
	}

	c, created, err := repo.GetOrCreate(ctx, "a", "b", build)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotNil(t, c.UnreadCounts)

	c, created, err = repo.GetOrCreate(ctx, "b", "a", build)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "c", c.ID)
	assert.Equal(t, 1, calls)

	_, _, err = repo.GetOrCreate(ctx, "a", "z", build)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNotificationRepoScope(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewNotificationRepo()
	require.NoError(t, repo.Prepend(ctx, &domain.Notification{ID: "1", UserID: "a"}))
	require.NoError(t, repo.Prepend(ctx, &domain.Notification{ID: "2"}))
	require.NoError(t, repo.Prepend(ctx, &domain.Notification{ID: "3", UserID: "b"}))
	assert.ErrorIs(t, repo.Prepend(ctx, &domain.Notification{ID: "3"}), domain.ErrConflict)

	list, err := repo.ListFor(ctx, "a")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2", list[0].ID)

	n, err := repo.MarkAllRead(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	unread, err := repo.CountUnread(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	removed, err := repo.DeleteAllFor(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	list, err = repo.ListFor(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
