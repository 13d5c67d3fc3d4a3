package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"doodoologserver/internal/domain"
)

func (s *Store) CreateSession(ctx context.Context, userID string, expiresAt time.Time, ip, userAgent string) (string, error) {
	if err := s.begin(ctx, "create_session"); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: s.now().UTC(),
		ExpiresAt: expiresAt,
	}
	s.sessions[sess.ID] = sess
	return sess.ID, nil
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	if err := s.begin(ctx, "get_session"); err != nil {
		return domain.Session{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.RevokedAt != nil || !sess.ExpiresAt.After(s.now()) {
		return domain.Session{}, domain.ErrNotFound
	}
	return sess, nil
}

func (s *Store) RevokeSession(ctx context.Context, sessionID string, when time.Time) error {
	if err := s.begin(ctx, "revoke_session"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.RevokedAt != nil {
		return nil
	}
	sess.RevokedAt = &when
	s.sessions[sessionID] = sess
	return nil
}

func (s *Store) CreateResetToken(ctx context.Context, token domain.PasswordResetToken) error {
	if err := s.begin(ctx, "create_reset_token"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.resets[token.TokenHash] = token
	return nil
}

func (s *Store) GetResetTokenByHash(ctx context.Context, tokenHash string) (domain.PasswordResetToken, error) {
	if err := s.begin(ctx, "get_reset_token"); err != nil {
		return domain.PasswordResetToken{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.resets[tokenHash]
	if !ok {
		return domain.PasswordResetToken{}, domain.ErrNotFound
	}
	return token, nil
}

func (s *Store) MarkResetTokenUsed(ctx context.Context, tokenHash string, when time.Time) error {
	if err := s.begin(ctx, "mark_reset_token_used"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.resets[tokenHash]
	if !ok {
		return domain.ErrNotFound
	}
	token.UsedAt = &when
	s.resets[tokenHash] = token
	return nil
}
