package service

import (
	"context"
	"strings"

	"doodoologserver/internal/domain"
)

type UsersSearchStore interface {
	// SearchUsers matches username substrings case-insensitively and user
	// IDs by exact or substring match, excluding the searching user.
	SearchUsers(ctx context.Context, q string, limit int, excludeUserID string) ([]domain.FriendProfile, error)
}

type UsersService struct {
	Store UsersSearchStore
}

// Search returns matching profiles annotated with the relationship status
// derived purely from the searcher's own edge sets.
func (s *UsersService) Search(ctx context.Context, self domain.User, q string, limit int) ([]domain.UserSearchResult, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, domain.NewValidationError(map[string]string{"q": "required"})
	}

	profiles, err := s.Store.SearchUsers(ctx, q, limit, self.ID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.UserSearchResult, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, domain.UserSearchResult{
			FriendProfile: p,
			Status:        domain.ConnectionStatus(self, p.ID),
		})
	}
	return out, nil
}
