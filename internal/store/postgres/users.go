package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"doodoologserver/internal/domain"
	"doodoologserver/internal/gamification"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, username, status, avatar, xp, prestige, ai_enabled, created_at, updated_at, last_login_at`

type UsersStore struct {
	pool *pgxpool.Pool
}

func NewUsersStore(pool *pgxpool.Pool) *UsersStore {
	return &UsersStore{pool: pool}
}

// CreateUser inserts a user with zero XP and no edges. Username
// uniqueness is case-insensitive via a unique index on lower(username);
// the write normalizes nothing beyond the trim done by the caller.
func (s *UsersStore) CreateUser(ctx context.Context, email, username, passwordHash string) (domain.User, error) {
	q := `
		INSERT INTO users (email, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	rows, err := s.pool.Query(ctx, q, nullIfEmpty(email), username, passwordHash)
	if err != nil {
		return domain.User{}, mapUserWriteError(err)
	}
	u, err := scanOneUser(rows)
	if err != nil {
		return domain.User{}, mapUserWriteError(err)
	}
	return u, nil
}

func (s *UsersStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	rows, err := s.pool.Query(ctx, q, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by id: %w", err)
	}
	u, err := scanOneUser(rows)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user by id: %w", err)
	}

	if err := s.loadEdgeSets(ctx, &u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (s *UsersStore) GetUserByLogin(ctx context.Context, login string) (domain.UserWithPassword, error) {
	q := `
		SELECT ` + userColumns + `, password_hash
		FROM users
		WHERE lower(username) = lower($1) OR (email IS NOT NULL AND email = lower($1))
		ORDER BY (lower(username) = lower($1)) DESC
		LIMIT 1
	`
	return s.getWithPassword(ctx, q, strings.TrimSpace(login))
}

func (s *UsersStore) GetUserByEmail(ctx context.Context, email string) (domain.UserWithPassword, error) {
	q := `
		SELECT ` + userColumns + `, password_hash
		FROM users
		WHERE email = lower($1)
		LIMIT 1
	`
	return s.getWithPassword(ctx, q, strings.TrimSpace(email))
}

func (s *UsersStore) getWithPassword(ctx context.Context, q, arg string) (domain.UserWithPassword, error) {
	var (
		u           domain.UserWithPassword
		idUUID      pgtype.UUID
		emailText   pgtype.Text
		avatarText  pgtype.Text
		lastLoginTS pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx, q, arg).Scan(
		&idUUID,
		&emailText,
		&u.Username,
		&u.Status,
		&avatarText,
		&u.XP,
		&u.Prestige,
		&u.AIEnabled,
		&u.CreatedAt,
		&u.UpdatedAt,
		&lastLoginTS,
		&u.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserWithPassword{}, domain.ErrNotFound
		}
		return domain.UserWithPassword{}, fmt.Errorf("get user: %w", err)
	}

	u.ID = uuidOrEmpty(idUUID)
	u.Email = textOrEmpty(emailText)
	u.Avatar = textOrEmpty(avatarText)
	u.LastLoginAt = timestamptzPtr(lastLoginTS)

	if err := s.loadEdgeSets(ctx, &u.User); err != nil {
		return domain.UserWithPassword{}, err
	}
	return u, nil
}

// loadEdgeSets materializes the user's three edge sets from the
// friendships table, so every read returns normalized, non-nil sets.
func (s *UsersStore) loadEdgeSets(ctx context.Context, u *domain.User) error {
	const q = `
		SELECT requester_id, addressee_id, status
		FROM friendships
		WHERE requester_id = $1 OR addressee_id = $1
	`

	rows, err := s.pool.Query(ctx, q, u.ID)
	if err != nil {
		return fmt.Errorf("load edges: %w", err)
	}
	defer rows.Close()

	normalizeEdgeSets(u)
	for rows.Next() {
		var reqUUID, addUUID pgtype.UUID
		var status string
		if err := rows.Scan(&reqUUID, &addUUID, &status); err != nil {
			return fmt.Errorf("scan edge: %w", err)
		}
		requester := uuidOrEmpty(reqUUID)
		addressee := uuidOrEmpty(addUUID)
		switch {
		case status == "accepted" && requester == u.ID:
			u.Friends = append(u.Friends, addressee)
		case status == "accepted":
			u.Friends = append(u.Friends, requester)
		case status == "pending" && requester == u.ID:
			u.OutgoingRequests = append(u.OutgoingRequests, addressee)
		case status == "pending":
			u.FriendRequests = append(u.FriendRequests, requester)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load edges: %w", err)
	}
	return nil
}

func (s *UsersStore) SetLastLogin(ctx context.Context, userID string, when time.Time) error {
	const q = `
		UPDATE users
		SET last_login_at = $2, updated_at = now()
		WHERE id = $1
	`
	if _, err := s.pool.Exec(ctx, q, userID, when); err != nil {
		return fmt.Errorf("set last login: %w", err)
	}
	return nil
}

func (s *UsersStore) SetPasswordHash(ctx context.Context, userID, passwordHash string) error {
	const q = `
		UPDATE users
		SET password_hash = $2, updated_at = now()
		WHERE id = $1
	`
	if _, err := s.pool.Exec(ctx, q, userID, passwordHash); err != nil {
		return fmt.Errorf("set password hash: %w", err)
	}
	return nil
}

func (s *UsersStore) SetAvatar(ctx context.Context, userID, avatar string) error {
	const q = `
		UPDATE users
		SET avatar = $2, updated_at = now()
		WHERE id = $1
	`
	if _, err := s.pool.Exec(ctx, q, userID, nullIfEmpty(avatar)); err != nil {
		return fmt.Errorf("set avatar: %w", err)
	}
	return nil
}

func (s *UsersStore) SetAIEnabled(ctx context.Context, userID string, enabled bool) error {
	const q = `
		UPDATE users
		SET ai_enabled = $2, updated_at = now()
		WHERE id = $1
	`
	if _, err := s.pool.Exec(ctx, q, userID, enabled); err != nil {
		return fmt.Errorf("set ai enabled: %w", err)
	}
	return nil
}

// AddXP credits XP atomically and returns the new total. Negative deltas
// never leave the store: XP only moves down through Prestige.
func (s *UsersStore) AddXP(ctx context.Context, userID string, delta int) (int, error) {
	if delta < 0 {
		delta = 0
	}
	const q = `
		UPDATE users
		SET xp = xp + $2, updated_at = now()
		WHERE id = $1
		RETURNING xp
	`
	var total int
	if err := s.pool.QueryRow(ctx, q, userID, delta).Scan(&total); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("add xp: %w", err)
	}
	return total, nil
}

func (s *UsersStore) Prestige(ctx context.Context, userID string) (domain.User, error) {
	q := `
		UPDATE users
		SET xp = 0, prestige = prestige + 1, updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("prestige: %w", err)
	}
	u, err := scanOneUser(rows)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("prestige: %w", err)
	}
	if err := s.loadEdgeSets(ctx, &u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// SearchUsers matches usernames case-insensitively by substring and IDs
// by substring, excluding the searching user.
func (s *UsersStore) SearchUsers(ctx context.Context, q string, limit int, excludeUserID string) ([]domain.FriendProfile, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return []domain.FriendProfile{}, nil
	}

	like := "%" + q + "%"
	const query = `
		SELECT id, username, avatar, xp
		FROM users
		WHERE status = 'active'
		  AND id <> $3
		  AND (username ILIKE $1 OR id::text ILIKE $1)
		ORDER BY username ASC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, like, limit, excludeUserID)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	return scanProfiles(rows)
}

func (s *UsersStore) GetProfilesByIDs(ctx context.Context, ids []string) ([]domain.FriendProfile, error) {
	if len(ids) == 0 {
		return []domain.FriendProfile{}, nil
	}
	const q = `
		SELECT id, username, avatar, xp
		FROM users
		WHERE id = ANY($1)
		ORDER BY username ASC
	`

	rows, err := s.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, fmt.Errorf("get profiles: %w", err)
	}
	defer rows.Close()

	return scanProfiles(rows)
}

func (s *UsersStore) ListUsers(ctx context.Context, limit int) ([]domain.User, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC LIMIT $1`

	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func scanProfiles(rows pgx.Rows) ([]domain.FriendProfile, error) {
	var out []domain.FriendProfile
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan profiles: %w", err)
	}
	if out == nil {
		out = []domain.FriendProfile{}
	}
	return out, nil
}

func scanUserRow(rows pgx.Rows) (domain.User, error) {
	var (
		u           domain.User
		idUUID      pgtype.UUID
		emailText   pgtype.Text
		avatarText  pgtype.Text
		lastLoginTS pgtype.Timestamptz
	)
	err := rows.Scan(
		&idUUID,
		&emailText,
		&u.Username,
		&u.Status,
		&avatarText,
		&u.XP,
		&u.Prestige,
		&u.AIEnabled,
		&u.CreatedAt,
		&u.UpdatedAt,
		&lastLoginTS,
	)
	if err != nil {
		return domain.User{}, err
	}
	u.ID = uuidOrEmpty(idUUID)
	u.Email = textOrEmpty(emailText)
	u.Avatar = textOrEmpty(avatarText)
	u.LastLoginAt = timestamptzPtr(lastLoginTS)
	normalizeEdgeSets(&u)
	return u, nil
}

func scanOneUser(rows pgx.Rows) (domain.User, error) {
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.User{}, err
		}
		return domain.User{}, pgx.ErrNoRows
	}
	u, err := scanUserRow(rows)
	if err != nil {
		return domain.User{}, err
	}
	return u, rows.Err()
}

func normalizeEdgeSets(u *domain.User) {
	if u.Friends == nil {
		u.Friends = []string{}
	}
	if u.FriendRequests == nil {
		u.FriendRequests = []string{}
	}
	if u.OutgoingRequests == nil {
		u.OutgoingRequests = []string{}
	}
}

func mapUserWriteError(err error) error {
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" {
		switch pgerr.ConstraintName {
		case "users_username_uq":
			return domain.ErrUsernameTaken
		case "users_email_uq":
			return domain.ErrEmailTaken
		default:
			return fmt.Errorf("unique violation (%s): %w", pgerr.ConstraintName, err)
		}
	}
	return fmt.Errorf("create user: %w", err)
}
