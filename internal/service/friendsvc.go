package service

import (
	"context"
	"errors"

	"doodoologserver/internal/domain"
)

// FriendGraphStore holds the social edges. Every mutation is idempotent:
// replaying a transition after a partial failure converges to the same
// end state. Both backends apply each call atomically for the pair.
type FriendGraphStore interface {
	// PairState reports the relationship between self and other, from
	// self's side.
	PairState(ctx context.Context, selfID, otherID string) (domain.PairState, error)
	// CreatePending adds the directional pending edge from -> to. It is a
	// no-op when any edge already exists for the pair.
	CreatePending(ctx context.Context, fromID, toID string) error
	// DeletePending removes the pending edge from -> to, if present.
	DeletePending(ctx context.Context, fromID, toID string) error
	// PromotePending turns the pending edge from -> to into a symmetric
	// friendship, clearing the pending edge on both sides in one step.
	// No-op when that pending edge does not exist.
	PromotePending(ctx context.Context, fromID, toID string) error
	// DeleteFriendship removes the symmetric friends edge, if present.
	DeleteFriendship(ctx context.Context, aID, bID string) error
	Overview(ctx context.Context, userID string) (domain.FriendsOverview, error)
}

type FriendUsersStore interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)
}

// FriendsService is the relationship state machine. A pair of users is in
// exactly one of NONE, PENDING A->B, PENDING B->A, FRIENDS. Transitions
// whose precondition does not hold are silent no-ops so retried UI
// actions and races never surface as errors.
type FriendsService struct {
	Users FriendUsersStore
	Graph FriendGraphStore
}

func (s *FriendsService) Overview(ctx context.Context, userID string) (domain.FriendsOverview, error) {
	return s.Graph.Overview(ctx, userID)
}

// SendRequest creates the pending edge self -> target. Self-requests are
// rejected; any existing edge for the pair absorbs the request.
func (s *FriendsService) SendRequest(ctx context.Context, selfID, targetID string) error {
	if selfID == targetID {
		return domain.NewValidationError(map[string]string{"user_id": "cannot friend yourself"})
	}

	target, err := s.Users.GetUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	if target.Status == domain.UserStatusDisabled {
		return domain.ErrForbidden
	}

	// Re-read the pair state right before mutating to shrink the race
	// window between concurrent clients.
	state, err := s.Graph.PairState(ctx, selfID, targetID)
	if err != nil {
		return err
	}
	if state != domain.PairStateNone {
		return nil
	}
	return s.Graph.CreatePending(ctx, selfID, targetID)
}

// CancelRequest withdraws a pending request self -> target.
func (s *FriendsService) CancelRequest(ctx context.Context, selfID, targetID string) error {
	state, err := s.Graph.PairState(ctx, selfID, targetID)
	if err != nil {
		return err
	}
	if state != domain.PairStateOutgoing {
		return nil
	}
	return s.Graph.DeletePending(ctx, selfID, targetID)
}

// AcceptRequest resolves a pending request requester -> self into a
// friendship. The pending edge is cleared on both sides in the same step,
// so acceptance can never leave a ghost pending state behind.
func (s *FriendsService) AcceptRequest(ctx context.Context, selfID, requesterID string) error {
	state, err := s.Graph.PairState(ctx, selfID, requesterID)
	if err != nil {
		return err
	}
	if state != domain.PairStateIncoming {
		return nil
	}
	return s.Graph.PromotePending(ctx, requesterID, selfID)
}

// DenyRequest drops a pending request requester -> self without creating
// a friendship. The pair returns to NONE, so a later request succeeds.
func (s *FriendsService) DenyRequest(ctx context.Context, selfID, requesterID string) error {
	state, err := s.Graph.PairState(ctx, selfID, requesterID)
	if err != nil {
		return err
	}
	if state != domain.PairStateIncoming {
		return nil
	}
	return s.Graph.DeletePending(ctx, requesterID, selfID)
}

func (s *FriendsService) RemoveFriend(ctx context.Context, selfID, friendID string) error {
	state, err := s.Graph.PairState(ctx, selfID, friendID)
	if err != nil {
		return err
	}
	if state != domain.PairStateFriends {
		return nil
	}
	return s.Graph.DeleteFriendship(ctx, selfID, friendID)
}
