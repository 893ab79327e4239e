package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillswap/internal/domain"
	"skillswap/internal/service"
)

func TestDirectorySearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ids := func(users []*domain.User) []string {
		res := make([]string, 0, len(users))
		for _, u := range users {
			res = append(res, u.ID)
		}
		return res
	}

	tests := []struct {
		name  string
		query service.DirectoryQuery
		want  []string
	}{
		{"everyone", service.DirectoryQuery{}, []string{"1", "2", "3"}},
		{"by name", service.DirectoryQuery{Term: "sarah"}, []string{"2"}},
		{"by location", service.DirectoryQuery{Term: "LONDON"}, []string{"3"}},
		{"by offered skill", service.DirectoryQuery{Term: "python"}, []string{"1", "3"}},
		{"skill filter", service.DirectoryQuery{Skill: "design"}, []string{"2"}},
		{"term and skill", service.DirectoryQuery{Term: "python", Skill: "machine"}, []string{"3"}},
		{"no match", service.DirectoryQuery{Term: "zzz"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.directory.Search(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestDirectoryGet(t *testing.T) {
	f := newFixture(t)

	u, err := f.directory.Get(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "Emma Rodriguez", u.Name)

	_, err = f.directory.Get(context.Background(), "42")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
