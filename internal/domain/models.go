package domain

import "time"

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// User is the canonical user record. Level and progress are never stored;
// they are always recomputed from XP (see internal/gamification).
type User struct {
	ID          string
	Email       string
	Username    string
	Status      UserStatus
	Avatar      string
	XP          int
	Prestige    int
	AIEnabled   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLoginAt *time.Time

	// Edge sets, normalized at the store boundary: never nil.
	// Invariant: a pair of users appears in at most one of
	// {Friends, FriendRequests, OutgoingRequests} across both records,
	// and Friends is symmetric.
	Friends          []string
	FriendRequests   []string // incoming, pending other -> self
	OutgoingRequests []string // pending self -> other
}

type UserWithPassword struct {
	User
	PasswordHash string
}

type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

type PasswordResetToken struct {
	UserID      string
	TokenHash   string
	SentToEmail string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	UsedAt      *time.Time
}
