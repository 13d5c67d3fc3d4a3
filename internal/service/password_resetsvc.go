package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"doodoologserver/internal/auth"
	"doodoologserver/internal/domain"
)

type PasswordResetStore interface {
	CreateResetToken(ctx context.Context, token domain.PasswordResetToken) error
	GetResetTokenByHash(ctx context.Context, tokenHash string) (domain.PasswordResetToken, error)
	MarkResetTokenUsed(ctx context.Context, tokenHash string, when time.Time) error
}

type ResetUsersStore interface {
	SetPasswordHash(ctx context.Context, userID, passwordHash string) error
}

// PasswordResetService issues server-generated, expiring, single-use
// reset tokens. Only the SHA-256 hash of a token is ever stored.
type PasswordResetService struct {
	Store    PasswordResetStore
	Users    ResetUsersStore
	TokenTTL time.Duration
	Now      func() time.Time
}

func (s *PasswordResetService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *PasswordResetService) CreateResetToken(ctx context.Context, userID, sentToEmail string) (string, error) {
	if userID == "" || sentToEmail == "" {
		return "", fmt.Errorf("user id and email are required")
	}
	ttl := s.TokenTTL
	if ttl == 0 {
		ttl = 2 * time.Hour
	}

	raw, tokenHash, err := newResetToken()
	if err != nil {
		return "", err
	}

	now := s.now()
	token := domain.PasswordResetToken{
		UserID:      userID,
		TokenHash:   tokenHash,
		SentToEmail: sentToEmail,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	if err := s.Store.CreateResetToken(ctx, token); err != nil {
		return "", err
	}
	return raw, nil
}

func (s *PasswordResetService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	tokenHash := hashResetToken(rawToken)
	token, err := s.Store.GetResetTokenByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrResetTokenInvalid
		}
		return err
	}
	if token.UsedAt != nil {
		return domain.ErrResetTokenInvalid
	}
	if token.ExpiresAt.Before(s.now()) {
		return domain.ErrResetTokenExpired
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Users.SetPasswordHash(ctx, token.UserID, hash); err != nil {
		return err
	}
	return s.Store.MarkResetTokenUsed(ctx, tokenHash, s.now())
}

func newResetToken() (string, string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("read token: %w", err)
	}
	raw := base64.RawURLEncoding.EncodeToString(buf)
	return raw, hashResetToken(raw), nil
}

func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
