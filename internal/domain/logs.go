package domain

import "time"

// BristolType is the ordinal 1-7 health category attached to each log entry.
type BristolType int

const (
	BristolType1 BristolType = 1
	BristolType2 BristolType = 2
	BristolType3 BristolType = 3
	BristolType4 BristolType = 4
	BristolType5 BristolType = 5
	BristolType6 BristolType = 6
	BristolType7 BristolType = 7
)

func (t BristolType) Valid() bool { return t >= BristolType1 && t <= BristolType7 }

type LogSize string

const (
	LogSizeSmall   LogSize = "SMALL"
	LogSizeMedium  LogSize = "MEDIUM"
	LogSizeLarge   LogSize = "LARGE"
	LogSizeMassive LogSize = "MASSIVE"
)

func (s LogSize) Valid() bool {
	switch s {
	case LogSizeSmall, LogSizeMedium, LogSizeLarge, LogSizeMassive:
		return true
	}
	return false
}

// LogEntry is one logged movement. XPGained is computed once at creation
// and stored immutably; the only in-place mutation allowed afterwards is
// the bulk clear of Commentary.
type LogEntry struct {
	ID              string      `json:"id"`
	OwnerID         string      `json:"-"`
	Timestamp       time.Time   `json:"timestamp"`
	Type            BristolType `json:"type"`
	Notes           string      `json:"notes,omitempty"`
	DurationMinutes *int        `json:"duration_minutes,omitempty"`
	Commentary      *string     `json:"ai_commentary,omitempty"`
	PainLevel       *int        `json:"pain_level,omitempty"`
	Wipes           *int        `json:"wipes,omitempty"`
	IsClog          bool        `json:"is_clog,omitempty"`
	Size            LogSize     `json:"size,omitempty"`
	HasBlood        bool        `json:"has_blood,omitempty"`
	WeightGrams     *float64    `json:"weight_grams,omitempty"`
	Private         bool        `json:"is_private,omitempty"`
	XPGained        int         `json:"xp_gained"`
}

// DailyStat aggregates one calendar day of a user's log history.
type DailyStat struct {
	Date    string  `json:"date"`
	Count   int     `json:"count"`
	AvgType float64 `json:"avg_type"`
}

// Reaction is feed-only derived state; it is never persisted.
type Reaction struct {
	Emoji       string `json:"emoji"`
	Count       int    `json:"count"`
	UserReacted bool   `json:"user_reacted"`
}

// FeedEntry is a friend's shareable log entry enriched for the feed view.
type FeedEntry struct {
	LogEntry
	Username  string     `json:"username"`
	Avatar    string     `json:"avatar,omitempty"`
	Reactions []Reaction `json:"reactions"`
}
