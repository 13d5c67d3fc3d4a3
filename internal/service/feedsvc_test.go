package service

import (
	"context"
	"reflect"
	"testing"
	"time"

	"doodoologserver/internal/domain"
)

type fakeFeedUsers struct {
	profiles map[string]domain.FriendProfile
}

func (f *fakeFeedUsers) GetProfilesByIDs(_ context.Context, ids []string) ([]domain.FriendProfile, error) {
	out := make([]domain.FriendProfile, 0, len(ids))
	for _, id := range ids {
		if p, ok := f.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeFeedLogs struct {
	byOwner map[string][]domain.LogEntry
}

func (f *fakeFeedLogs) ListLogs(_ context.Context, ownerID string) ([]domain.LogEntry, error) {
	return f.byOwner[ownerID], nil
}

func TestBuildFeedSkipsPrivateAndSortsNewestFirst(t *testing.T) {
	t0 := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	svc := &FeedService{
		Users: &fakeFeedUsers{profiles: map[string]domain.FriendProfile{
			"bob":  {ID: "bob", Username: "BobBuilder"},
			"lisa": {ID: "lisa", Username: "LisaLogs"},
		}},
		Logs: &fakeFeedLogs{byOwner: map[string][]domain.LogEntry{
			"bob": {
				{ID: "b2", OwnerID: "bob", Timestamp: t0.Add(2 * time.Hour)},
				{ID: "b1", OwnerID: "bob", Timestamp: t0, Private: true},
			},
			"lisa": {
				{ID: "l1", OwnerID: "lisa", Timestamp: t0.Add(time.Hour)},
			},
		}},
	}

	viewer := domain.User{ID: "alice", Friends: []string{"bob", "lisa"}}
	feed, err := svc.BuildFeed(context.Background(), viewer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var gotIDs []string
	for _, e := range feed {
		gotIDs = append(gotIDs, e.ID)
	}
	if !reflect.DeepEqual(gotIDs, []string{"b2", "l1"}) {
		t.Fatalf("unexpected feed order: %v", gotIDs)
	}
	if feed[0].Username != "BobBuilder" || feed[1].Username != "LisaLogs" {
		t.Fatalf("unexpected attribution: %+v", feed)
	}
	if feed[0].Reactions == nil {
		t.Fatalf("reactions must be non-nil")
	}
}

func TestBuildFeedNoFriends(t *testing.T) {
	svc := &FeedService{
		Users: &fakeFeedUsers{},
		Logs:  &fakeFeedLogs{},
	}

	feed, err := svc.BuildFeed(context.Background(), domain.User{ID: "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if feed == nil || len(feed) != 0 {
		t.Fatalf("expected empty feed, got %v", feed)
	}
}

func TestToggleReactionTwiceIsIdentity(t *testing.T) {
	initial := []domain.Reaction{
		{Emoji: "💩", Count: 2, UserReacted: false},
		{Emoji: "🔥", Count: 1, UserReacted: true},
	}

	once := ToggleReaction(initial, "💩")
	if once[0].Count != 3 || !once[0].UserReacted {
		t.Fatalf("unexpected state after toggle: %+v", once)
	}

	twice := ToggleReaction(once, "💩")
	if !reflect.DeepEqual(twice, initial) {
		t.Fatalf("toggle-toggle is not identity: %+v vs %+v", twice, initial)
	}
}

func TestToggleReactionNewEmoji(t *testing.T) {
	out := ToggleReaction(nil, "💩")
	want := []domain.Reaction{{Emoji: "💩", Count: 1, UserReacted: true}}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("unexpected reactions: %+v", out)
	}

	// Un-reacting the only reactor drops the emoji entirely.
	out = ToggleReaction(out, "💩")
	if len(out) != 0 {
		t.Fatalf("expected empty reactions, got %+v", out)
	}
}

func TestToggleReactionDoesNotMutateInput(t *testing.T) {
	initial := []domain.Reaction{{Emoji: "💩", Count: 2, UserReacted: false}}
	_ = ToggleReaction(initial, "💩")
	if initial[0].Count != 2 || initial[0].UserReacted {
		t.Fatalf("input slice was mutated: %+v", initial)
	}
}

func TestReactIsScopedPerViewer(t *testing.T) {
	svc := &FeedService{}

	alice := svc.React("alice", "entry-1", "💩")
	if len(alice) != 1 || alice[0].Count != 1 || !alice[0].UserReacted {
		t.Fatalf("unexpected reactions for alice: %+v", alice)
	}

	// Bob's view of the same entry is untouched.
	bob := svc.reactionsFor("bob", "entry-1")
	if len(bob) != 0 {
		t.Fatalf("expected no reactions for bob, got %+v", bob)
	}
}
