package service

import (
	"context"
	"fmt"
	"strings"

	"skillswap/internal/domain"
)

// DirectoryService backs the browse page.
type DirectoryService struct {
	users domain.UserRepository
}

func NewDirectoryService(users domain.UserRepository) *DirectoryService {
	return &DirectoryService{users: users}
}

// DirectoryQuery filters the directory. Empty fields match everyone.
type DirectoryQuery struct {
	// Term matches name, location or any offered skill.
	Term string
	// Skill keeps users offering a matching skill.
	Skill string
}

// Search returns matching users in directory order. Matching is
// case-insensitive substring containment.
func (s *DirectoryService) Search(ctx context.Context, q DirectoryQuery) ([]*domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	term := strings.ToLower(strings.TrimSpace(q.Term))
	res := make([]*domain.User, 0, len(users))
	for _, u := range users {
		if term != "" && !matchesTerm(u, term) {
			continue
		}
		if strings.TrimSpace(q.Skill) != "" && !u.Offers(q.Skill) {
			continue
		}
		res = append(res, u)
	}
	return res, nil
}

func (s *DirectoryService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return u, nil
}

func matchesTerm(u *domain.User, term string) bool {
	if strings.Contains(strings.ToLower(u.Name), term) ||
		strings.Contains(strings.ToLower(u.Location), term) {
		return true
	}
	return u.Offers(term)
}
