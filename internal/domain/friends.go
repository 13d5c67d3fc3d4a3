package domain

// PairState is the relationship state of an ordered pair, seen from the
// first user's side.
type PairState string

const (
	PairStateNone     PairState = "none"
	PairStateOutgoing PairState = "outgoing" // pending self -> other
	PairStateIncoming PairState = "incoming" // pending other -> self
	PairStateFriends  PairState = "friends"
)

// FriendProfile is the read-only projection of a user shown in friend
// lists, search results and the feed.
type FriendProfile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
	Level    int    `json:"level"`
}

type FriendsOverview struct {
	Friends  []FriendProfile `json:"friends"`
	Incoming []FriendProfile `json:"incoming_requests"`
	Outgoing []FriendProfile `json:"outgoing_requests"`
}

type FriendStatus string

const (
	FriendStatusFriends  FriendStatus = "friends"
	FriendStatusIncoming FriendStatus = "incoming"
	FriendStatusOutgoing FriendStatus = "outgoing"
	FriendStatusNone     FriendStatus = "none"
)

type UserSearchResult struct {
	FriendProfile
	Status FriendStatus `json:"status"`
}

// ConnectionStatus derives the display relationship between self and the
// candidate purely from self's edge sets, in priority order
// friends > incoming > outgoing > none.
func ConnectionStatus(self User, candidateID string) FriendStatus {
	if containsID(self.Friends, candidateID) {
		return FriendStatusFriends
	}
	if containsID(self.FriendRequests, candidateID) {
		return FriendStatusIncoming
	}
	if containsID(self.OutgoingRequests, candidateID) {
		return FriendStatusOutgoing
	}
	return FriendStatusNone
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
