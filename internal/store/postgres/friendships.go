package postgres

import (
	"context"
	"errors"
	"fmt"

	"doodoologserver/internal/domain"
	"doodoologserver/internal/gamification"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FriendshipsStore keeps one row per pair in the friendships edge table:
// (requester_id, addressee_id, status pending|accepted), with a unique
// constraint on the unordered pair. Every mutation is a single statement,
// so each transition is atomic and safe to replay.
type FriendshipsStore struct {
	pool *pgxpool.Pool
}

func NewFriendshipsStore(pool *pgxpool.Pool) *FriendshipsStore {
	return &FriendshipsStore{pool: pool}
}

func (s *FriendshipsStore) PairState(ctx context.Context, selfID, otherID string) (domain.PairState, error) {
	const q = `
		SELECT requester_id, status
		FROM friendships
		WHERE (requester_id = $1 AND addressee_id = $2)
		   OR (requester_id = $2 AND addressee_id = $1)
	`

	var reqUUID pgtype.UUID
	var status string
	err := s.pool.QueryRow(ctx, q, selfID, otherID).Scan(&reqUUID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PairStateNone, nil
		}
		return "", fmt.Errorf("pair state: %w", err)
	}

	if status == "accepted" {
		return domain.PairStateFriends, nil
	}
	if uuidOrEmpty(reqUUID) == selfID {
		return domain.PairStateOutgoing, nil
	}
	return domain.PairStateIncoming, nil
}

func (s *FriendshipsStore) CreatePending(ctx context.Context, fromID, toID string) error {
	const q = `
		INSERT INTO friendships (requester_id, addressee_id, status)
		VALUES ($1, $2, 'pending')
	`
	_, err := s.pool.Exec(ctx, q, fromID, toID)
	if err != nil {
		var pgerr *pgconn.PgError
		// An existing edge for the pair absorbs the duplicate request.
		if errors.As(err, &pgerr) && pgerr.Code == "23505" && pgerr.ConstraintName == "friendships_pair_uq" {
			return nil
		}
		return fmt.Errorf("create pending: %w", err)
	}
	return nil
}

func (s *FriendshipsStore) DeletePending(ctx context.Context, fromID, toID string) error {
	const q = `
		DELETE FROM friendships
		WHERE requester_id = $1 AND addressee_id = $2 AND status = 'pending'
	`
	if _, err := s.pool.Exec(ctx, q, fromID, toID); err != nil {
		return fmt.Errorf("delete pending: %w", err)
	}
	return nil
}

// PromotePending flips the pair to accepted in one statement, clearing
// the pending edge on both sides at once.
func (s *FriendshipsStore) PromotePending(ctx context.Context, fromID, toID string) error {
	const q = `
		UPDATE friendships
		SET status = 'accepted', responded_at = now()
		WHERE requester_id = $1 AND addressee_id = $2 AND status = 'pending'
	`
	if _, err := s.pool.Exec(ctx, q, fromID, toID); err != nil {
		return fmt.Errorf("promote pending: %w", err)
	}
	return nil
}

func (s *FriendshipsStore) DeleteFriendship(ctx context.Context, aID, bID string) error {
	const q = `
		DELETE FROM friendships
		WHERE status = 'accepted'
		  AND ((requester_id = $1 AND addressee_id = $2)
		    OR (requester_id = $2 AND addressee_id = $1))
	`
	if _, err := s.pool.Exec(ctx, q, aID, bID); err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}
	return nil
}

func (s *FriendshipsStore) Overview(ctx context.Context, userID string) (domain.FriendsOverview, error) {
	friends, err := s.listProfiles(ctx, `
		SELECT u.id, u.username, u.avatar, u.xp
		FROM friendships f
		JOIN users u ON u.id = CASE
			WHEN f.requester_id = $1 THEN f.addressee_id
			ELSE f.requester_id
		END
		WHERE f.status = 'accepted' AND (f.requester_id = $1 OR f.addressee_id = $1)
		ORDER BY u.username ASC
	`, userID)
	if err != nil {
		return domain.FriendsOverview{}, fmt.Errorf("list friends: %w", err)
	}

	incoming, err := s.listProfiles(ctx, `
		SELECT u.id, u.username, u.avatar, u.xp
		FROM friendships f
		JOIN users u ON u.id = f.requester_id
		WHERE f.status = 'pending' AND f.addressee_id = $1
		ORDER BY f.created_at DESC
	`, userID)
	if err != nil {
		return domain.FriendsOverview{}, fmt.Errorf("list incoming requests: %w", err)
	}

	outgoing, err := s.listProfiles(ctx, `
		SELECT u.id, u.username, u.avatar, u.xp
		FROM friendships f
		JOIN users u ON u.id = f.addressee_id
		WHERE f.status = 'pending' AND f.requester_id = $1
		ORDER BY f.created_at DESC
	`, userID)
	if err != nil {
		return domain.FriendsOverview{}, fmt.Errorf("list outgoing requests: %w", err)
	}

	return domain.FriendsOverview{
		Friends:  friends,
		Incoming: incoming,
		Outgoing: outgoing,
	}, nil
}

func (s *FriendshipsStore) listProfiles(ctx context.Context, q, userID string) ([]domain.FriendProfile, error) {
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.FriendProfile{}
	for rows.Next() {
		var (
			idUUID     pgtype.UUID
			username   string
			avatarText pgtype.Text
			xp         int
		)
		if err := rows.Scan(&idUUID, &username, &avatarText, &xp); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, domain.FriendProfile{
			ID:       uuidOrEmpty(idUUID),
			Username: username,
			Avatar:   textOrEmpty(avatarText),
			Level:    gamification.ComputeLevel(xp).Level,
		})
	}
	return out, rows.Err()
}
