// Package memory is the local backend: a concurrency-safe in-memory user
// directory with the same surface as the postgres stores. It doubles as
// the test double, with injectable latency and fault strategies standing
// in for network behavior.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"doodoologserver/internal/domain"
)

// FaultFunc may return an error for a named store operation; nil means
// the operation proceeds.
type FaultFunc func(op string) error

type Store struct {
	mu sync.RWMutex

	users     map[string]*userRecord // by ID
	usernames map[string]string      // folded username -> ID
	emails    map[string]string      // folded email -> ID
	logs      map[string][]domain.LogEntry
	sessions  map[string]domain.Session
	resets    map[string]domain.PasswordResetToken // by token hash

	latency time.Duration
	fault   FaultFunc
	now     func() time.Time
}

type userRecord struct {
	user         domain.User // edge sets unused; kept in the maps below
	passwordHash string

	friends  map[string]struct{}
	incoming map[string]struct{}
	outgoing map[string]struct{}
}

type Option func(*Store)

// WithLatency makes every operation wait before touching the store,
// simulating a network round-trip. The wait happens outside the lock so
// delayed calls never block other operations.
func WithLatency(d time.Duration) Option {
	return func(s *Store) { s.latency = d }
}

// WithFaults installs a fault hook consulted on every operation.
func WithFaults(f FaultFunc) Option {
	return func(s *Store) { s.fault = f }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		users:     make(map[string]*userRecord),
		usernames: make(map[string]string),
		emails:    make(map[string]string),
		logs:      make(map[string][]domain.LogEntry),
		sessions:  make(map[string]domain.Session),
		resets:    make(map[string]domain.PasswordResetToken),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// begin applies the injected latency and fault strategy for one
// operation. Calls fail closed on context cancellation instead of
// hanging.
func (s *Store) begin(ctx context.Context, op string) error {
	if s.latency > 0 {
		t := time.NewTimer(s.latency)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}
	if s.fault != nil {
		if err := s.fault(op); err != nil {
			return err
		}
	}
	return nil
}

func sortedIDs(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
