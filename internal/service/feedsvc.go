package service

import (
	"context"
	"sort"
	"sync"

	"doodoologserver/internal/domain"
)

type FriendProfilesStore interface {
	GetProfilesByIDs(ctx context.Context, ids []string) ([]domain.FriendProfile, error)
}

type FeedLogsStore interface {
	ListLogs(ctx context.Context, ownerID string) ([]domain.LogEntry, error)
}

// FeedService synthesizes the friend activity feed. Each load rebuilds
// the feed from scratch; there is no incremental sync. Reaction state is
// derived, per viewer, and lives only in memory: it is intentionally
// dropped on restart, never persisted.
type FeedService struct {
	Users FriendProfilesStore
	Logs  FeedLogsStore

	mu        sync.Mutex
	reactions map[string]map[string][]domain.Reaction // viewerID -> entryID
}

// BuildFeed resolves the viewer's friends, collects their shareable
// entries and returns them newest first. Private entries never leave
// their owner.
func (s *FeedService) BuildFeed(ctx context.Context, viewer domain.User) ([]domain.FeedEntry, error) {
	feed := []domain.FeedEntry{}
	if len(viewer.Friends) == 0 {
		return feed, nil
	}

	profiles, err := s.Users.GetProfilesByIDs(ctx, viewer.Friends)
	if err != nil {
		return nil, err
	}

	for _, friend := range profiles {
		entries, err := s.Logs.ListLogs(ctx, friend.ID)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.Private {
				continue
			}
			feed = append(feed, domain.FeedEntry{
				LogEntry:  entry,
				Username:  friend.Username,
				Avatar:    friend.Avatar,
				Reactions: s.reactionsFor(viewer.ID, entry.ID),
			})
		}
	}

	sort.SliceStable(feed, func(i, j int) bool {
		if !feed[i].Timestamp.Equal(feed[j].Timestamp) {
			return feed[i].Timestamp.After(feed[j].Timestamp)
		}
		return feed[i].ID < feed[j].ID
	})
	return feed, nil
}

// React toggles the viewer's reaction on a feed entry and returns the new
// reaction state. Toggling the same emoji twice restores the original
// state.
func (s *FeedService) React(viewerID, entryID, emoji string) []domain.Reaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reactions == nil {
		s.reactions = make(map[string]map[string][]domain.Reaction)
	}
	byEntry := s.reactions[viewerID]
	if byEntry == nil {
		byEntry = make(map[string][]domain.Reaction)
		s.reactions[viewerID] = byEntry
	}

	next := ToggleReaction(byEntry[entryID], emoji)
	byEntry[entryID] = next
	return cloneReactions(next)
}

func (s *FeedService) reactionsFor(viewerID, entryID string) []domain.Reaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs := s.reactions[viewerID][entryID]
	if rs == nil {
		return []domain.Reaction{}
	}
	return cloneReactions(rs)
}

// ToggleReaction is the pure reaction transition: absent -> count 1 and
// reacted, reacted -> decrement (dropping the reaction at zero),
// not-reacted -> increment and reacted.
func ToggleReaction(reactions []domain.Reaction, emoji string) []domain.Reaction {
	out := cloneReactions(reactions)
	for i := range out {
		if out[i].Emoji != emoji {
			continue
		}
		if out[i].UserReacted {
			out[i].Count--
			out[i].UserReacted = false
			if out[i].Count <= 0 {
				return append(out[:i], out[i+1:]...)
			}
		} else {
			out[i].Count++
			out[i].UserReacted = true
		}
		return out
	}
	return append(out, domain.Reaction{Emoji: emoji, Count: 1, UserReacted: true})
}

func cloneReactions(rs []domain.Reaction) []domain.Reaction {
	if len(rs) == 0 {
		return []domain.Reaction{}
	}
	out := make([]domain.Reaction, len(rs))
	copy(out, rs)
	return out
}
