package service

import (
	"context"
	"strings"

	"doodoologserver/internal/domain"
)

type ProfileStore interface {
	SetAvatar(ctx context.Context, userID, avatar string) error
	SetAIEnabled(ctx context.Context, userID string, enabled bool) error
}

type ProfileService struct {
	Store ProfileStore
}

type ProfilePatch struct {
	Avatar    *string
	AIEnabled *bool
}

// Update applies a partial profile change. Absent fields are left
// untouched (merge semantics).
func (s *ProfileService) Update(ctx context.Context, userID string, patch ProfilePatch) error {
	if patch.Avatar != nil {
		avatar := strings.TrimSpace(*patch.Avatar)
		if len(avatar) > 512 {
			return domain.NewValidationError(map[string]string{"avatar": "must be 512 characters or less"})
		}
		if err := s.Store.SetAvatar(ctx, userID, avatar); err != nil {
			return err
		}
	}
	if patch.AIEnabled != nil {
		if err := s.Store.SetAIEnabled(ctx, userID, *patch.AIEnabled); err != nil {
			return err
		}
	}
	return nil
}
