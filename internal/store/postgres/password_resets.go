package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"doodoologserver/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PasswordResetsStore struct {
	pool *pgxpool.Pool
}

func NewPasswordResetsStore(pool *pgxpool.Pool) *PasswordResetsStore {
	return &PasswordResetsStore{pool: pool}
}

func (s *PasswordResetsStore) CreateResetToken(ctx context.Context, token domain.PasswordResetToken) error {
	const q = `
		INSERT INTO password_resets (user_id, token_hash, sent_to_email, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.pool.Exec(ctx, q, token.UserID, token.TokenHash, token.SentToEmail, token.CreatedAt, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create reset token: %w", err)
	}
	return nil
}

func (s *PasswordResetsStore) GetResetTokenByHash(ctx context.Context, tokenHash string) (domain.PasswordResetToken, error) {
	const q = `
		SELECT user_id, token_hash, sent_to_email, created_at, expires_at, used_at
		FROM password_resets
		WHERE token_hash = $1
	`

	var (
		token    domain.PasswordResetToken
		userUUID pgtype.UUID
		usedTS   pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx, q, tokenHash).Scan(
		&userUUID,
		&token.TokenHash,
		&token.SentToEmail,
		&token.CreatedAt,
		&token.ExpiresAt,
		&usedTS,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PasswordResetToken{}, domain.ErrNotFound
		}
		return domain.PasswordResetToken{}, fmt.Errorf("get reset token: %w", err)
	}

	token.UserID = uuidOrEmpty(userUUID)
	token.UsedAt = timestamptzPtr(usedTS)
	return token, nil
}

func (s *PasswordResetsStore) MarkResetTokenUsed(ctx context.Context, tokenHash string, when time.Time) error {
	const q = `
		UPDATE password_resets
		SET used_at = $2
		WHERE token_hash = $1 AND used_at IS NULL
	`
	if _, err := s.pool.Exec(ctx, q, tokenHash, when); err != nil {
		return fmt.Errorf("mark reset token used: %w", err)
	}
	return nil
}
