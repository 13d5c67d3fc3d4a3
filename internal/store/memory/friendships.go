package memory

import (
	"context"

	"doodoologserver/internal/domain"
)

func (s *Store) PairState(ctx context.Context, selfID, otherID string) (domain.PairState, error) {
	if err := s.begin(ctx, "pair_state"); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[selfID]
	if !ok {
		return "", domain.ErrNotFound
	}
	if _, ok := s.users[otherID]; !ok {
		return "", domain.ErrNotFound
	}

	if _, ok := rec.friends[otherID]; ok {
		return domain.PairStateFriends, nil
	}
	if _, ok := rec.incoming[otherID]; ok {
		return domain.PairStateIncoming, nil
	}
	if _, ok := rec.outgoing[otherID]; ok {
		return domain.PairStateOutgoing, nil
	}
	return domain.PairStateNone, nil
}

// CreatePending writes the directional edge to both user records under
// one lock, so a reader never observes a one-sided request.
func (s *Store) CreatePending(ctx context.Context, fromID, toID string) error {
	if err := s.begin(ctx, "create_pending"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	from, to, err := s.pairLocked(fromID, toID)
	if err != nil {
		return err
	}
	if edgeExistsLocked(from, toID) || edgeExistsLocked(to, fromID) {
		return nil
	}
	from.outgoing[toID] = struct{}{}
	to.incoming[fromID] = struct{}{}
	return nil
}

func (s *Store) DeletePending(ctx context.Context, fromID, toID string) error {
	if err := s.begin(ctx, "delete_pending"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	from, to, err := s.pairLocked(fromID, toID)
	if err != nil {
		return err
	}
	delete(from.outgoing, toID)
	delete(to.incoming, fromID)
	return nil
}

func (s *Store) PromotePending(ctx context.Context, fromID, toID string) error {
	if err := s.begin(ctx, "promote_pending"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	from, to, err := s.pairLocked(fromID, toID)
	if err != nil {
		return err
	}
	if _, pending := from.outgoing[toID]; !pending {
		return nil
	}
	delete(from.outgoing, toID)
	delete(to.incoming, fromID)
	from.friends[toID] = struct{}{}
	to.friends[fromID] = struct{}{}
	return nil
}

func (s *Store) DeleteFriendship(ctx context.Context, aID, bID string) error {
	if err := s.begin(ctx, "delete_friendship"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, b, err := s.pairLocked(aID, bID)
	if err != nil {
		return err
	}
	delete(a.friends, bID)
	delete(b.friends, aID)
	return nil
}

func (s *Store) Overview(ctx context.Context, userID string) (domain.FriendsOverview, error) {
	if err := s.begin(ctx, "friends_overview"); err != nil {
		return domain.FriendsOverview{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[userID]
	if !ok {
		return domain.FriendsOverview{}, domain.ErrNotFound
	}
	return domain.FriendsOverview{
		Friends:  s.profilesLocked(sortedIDs(rec.friends)),
		Incoming: s.profilesLocked(sortedIDs(rec.incoming)),
		Outgoing: s.profilesLocked(sortedIDs(rec.outgoing)),
	}, nil
}

func (s *Store) profilesLocked(ids []string) []domain.FriendProfile {
	out := make([]domain.FriendProfile, 0, len(ids))
	for _, id := range ids {
		if rec, ok := s.users[id]; ok {
			out = append(out, profileOf(rec.user))
		}
	}
	return out
}

func (s *Store) pairLocked(aID, bID string) (*userRecord, *userRecord, error) {
	a, ok := s.users[aID]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	b, ok := s.users[bID]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	return a, b, nil
}

func edgeExistsLocked(rec *userRecord, otherID string) bool {
	if _, ok := rec.friends[otherID]; ok {
		return true
	}
	if _, ok := rec.incoming[otherID]; ok {
		return true
	}
	if _, ok := rec.outgoing[otherID]; ok {
		return true
	}
	return false
}
