package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"doodoologserver/internal/domain"
	"doodoologserver/internal/gamification"
)

// foldUsername is the duplicate-detection policy: trim surrounding
// whitespace, then simple case folding. No further Unicode normalization.
func foldUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *Store) CreateUser(ctx context.Context, email, username, passwordHash string) (domain.User, error) {
	if err := s.begin(ctx, "create_user"); err != nil {
		return domain.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.usernames[foldUsername(username)]; taken {
		return domain.User{}, domain.ErrUsernameTaken
	}
	if email != "" {
		if _, taken := s.emails[strings.ToLower(email)]; taken {
			return domain.User{}, domain.ErrEmailTaken
		}
	}

	now := s.now().UTC()
	u := domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		Username:  username,
		Status:    domain.UserStatusActive,
		XP:        0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.users[u.ID] = &userRecord{
		user:         u,
		passwordHash: passwordHash,
		friends:      make(map[string]struct{}),
		incoming:     make(map[string]struct{}),
		outgoing:     make(map[string]struct{}),
	}
	s.usernames[foldUsername(username)] = u.ID
	if email != "" {
		s.emails[strings.ToLower(email)] = u.ID
	}

	return s.userSnapshotLocked(u.ID), nil
}

// userSnapshotLocked materializes the user with normalized (never nil,
// sorted) edge sets. Callers must hold at least the read lock.
func (s *Store) userSnapshotLocked(id string) domain.User {
	rec := s.users[id]
	u := rec.user
	u.Friends = sortedIDs(rec.friends)
	u.FriendRequests = sortedIDs(rec.incoming)
	u.OutgoingRequests = sortedIDs(rec.outgoing)
	return u
}

func (s *Store) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	if err := s.begin(ctx, "get_user"); err != nil {
		return domain.User{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.users[id]; !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return s.userSnapshotLocked(id), nil
}

func (s *Store) GetUserByLogin(ctx context.Context, login string) (domain.UserWithPassword, error) {
	if err := s.begin(ctx, "get_user_by_login"); err != nil {
		return domain.UserWithPassword{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usernames[foldUsername(login)]
	if !ok {
		id, ok = s.emails[strings.ToLower(strings.TrimSpace(login))]
	}
	if !ok {
		return domain.UserWithPassword{}, domain.ErrNotFound
	}
	return domain.UserWithPassword{User: s.userSnapshotLocked(id), PasswordHash: s.users[id].passwordHash}, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (domain.UserWithPassword, error) {
	if err := s.begin(ctx, "get_user_by_email"); err != nil {
		return domain.UserWithPassword{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return domain.UserWithPassword{}, domain.ErrNotFound
	}
	return domain.UserWithPassword{User: s.userSnapshotLocked(id), PasswordHash: s.users[id].passwordHash}, nil
}

func (s *Store) SetLastLogin(ctx context.Context, userID string, when time.Time) error {
	if err := s.begin(ctx, "set_last_login"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	rec.user.LastLoginAt = &when
	rec.user.UpdatedAt = s.now().UTC()
	return nil
}

func (s *Store) SetPasswordHash(ctx context.Context, userID, passwordHash string) error {
	if err := s.begin(ctx, "set_password_hash"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	rec.passwordHash = passwordHash
	rec.user.UpdatedAt = s.now().UTC()
	return nil
}

func (s *Store) SetAvatar(ctx context.Context, userID, avatar string) error {
	if err := s.begin(ctx, "set_avatar"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	rec.user.Avatar = avatar
	rec.user.UpdatedAt = s.now().UTC()
	return nil
}

func (s *Store) SetAIEnabled(ctx context.Context, userID string, enabled bool) error {
	if err := s.begin(ctx, "set_ai_enabled"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	rec.user.AIEnabled = enabled
	rec.user.UpdatedAt = s.now().UTC()
	return nil
}

// AddXP credits XP and returns the new total. XP is monotonically
// non-decreasing here; only Prestige may reset it.
func (s *Store) AddXP(ctx context.Context, userID string, delta int) (int, error) {
	if err := s.begin(ctx, "add_xp"); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[userID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if delta > 0 {
		rec.user.XP += delta
		rec.user.UpdatedAt = s.now().UTC()
	}
	return rec.user.XP, nil
}

func (s *Store) Prestige(ctx context.Context, userID string) (domain.User, error) {
	if err := s.begin(ctx, "prestige"); err != nil {
		return domain.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[userID]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	rec.user.XP = 0
	rec.user.Prestige++
	rec.user.UpdatedAt = s.now().UTC()
	return s.userSnapshotLocked(userID), nil
}

func (s *Store) SearchUsers(ctx context.Context, q string, limit int, excludeUserID string) ([]domain.FriendProfile, error) {
	if err := s.begin(ctx, "search_users"); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return []domain.FriendProfile{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.FriendProfile
	for id, rec := range s.users {
		if id == excludeUserID || rec.user.Status == domain.UserStatusDisabled {
			continue
		}
		if !strings.Contains(strings.ToLower(rec.user.Username), q) && !strings.Contains(strings.ToLower(id), q) {
			continue
		}
		out = append(out, profileOf(rec.user))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []domain.FriendProfile{}
	}
	return out, nil
}

func (s *Store) GetProfilesByIDs(ctx context.Context, ids []string) ([]domain.FriendProfile, error) {
	if err := s.begin(ctx, "get_profiles"); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.FriendProfile, 0, len(ids))
	for _, id := range ids {
		if rec, ok := s.users[id]; ok {
			out = append(out, profileOf(rec.user))
		}
	}
	return out, nil
}

func (s *Store) ListUsers(ctx context.Context, limit int) ([]domain.User, error) {
	if err := s.begin(ctx, "list_users"); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if len(out) >= limit {
			break
		}
		out = append(out, s.userSnapshotLocked(id))
	}
	return out, nil
}

func profileOf(u domain.User) domain.FriendProfile {
	return domain.FriendProfile{
		ID:       u.ID,
		Username: u.Username,
		Avatar:   u.Avatar,
		Level:    gamification.ComputeLevel(u.XP).Level,
	}
}
