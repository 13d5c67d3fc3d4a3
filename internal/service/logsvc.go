package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"doodoologserver/internal/domain"
	"doodoologserver/internal/gamification"
)

type LogsStore interface {
	AppendLog(ctx context.Context, entry domain.LogEntry) error
	// ListLogs returns the owner's entries, newest first.
	ListLogs(ctx context.Context, ownerID string) ([]domain.LogEntry, error)
	DeleteLog(ctx context.Context, ownerID, id string) error
	// ClearCommentary nulls the AI commentary field across all of the
	// owner's entries and touches nothing else.
	ClearCommentary(ctx context.Context, ownerID string) error
}

type ProgressionStore interface {
	// AddXP adds a non-negative delta to the user's XP and returns the
	// new total.
	AddXP(ctx context.Context, userID string, delta int) (int, error)
	// Prestige resets XP to zero and increments the prestige counter.
	Prestige(ctx context.Context, userID string) (domain.User, error)
}

// InsightGenerator is the optional text-insight collaborator. Failures
// must degrade to an empty commentary, never block saving the entry.
type InsightGenerator interface {
	Generate(ctx context.Context, t domain.BristolType, notes string) (string, error)
}

type CreateLogParams struct {
	Type            domain.BristolType
	Notes           string
	DurationMinutes *int
	PainLevel       *int
	Wipes           *int
	IsClog          bool
	Size            domain.LogSize
	HasBlood        bool
	WeightGrams     *float64
	Private         bool
}

type LogsService struct {
	Logs     LogsStore
	Users    ProgressionStore
	Insights InsightGenerator
	Logger   *slog.Logger

	InsightTimeout time.Duration
	Now            func() time.Time
	NewID          func() string
}

func (s *LogsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *LogsService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// Append validates the input, scores it exactly once, stores the entry
// and credits the owner's XP. The stored XPGained never changes, even if
// the scoring formula does.
func (s *LogsService) Append(ctx context.Context, owner domain.User, p CreateLogParams) (domain.LogEntry, gamification.LevelInfo, error) {
	if err := validateLogParams(p); err != nil {
		return domain.LogEntry{}, gamification.LevelInfo{}, err
	}

	entry := domain.LogEntry{
		ID:              s.newID(),
		OwnerID:         owner.ID,
		Timestamp:       s.now(),
		Type:            p.Type,
		Notes:           p.Notes,
		DurationMinutes: p.DurationMinutes,
		PainLevel:       p.PainLevel,
		Wipes:           p.Wipes,
		IsClog:          p.IsClog,
		Size:            p.Size,
		HasBlood:        p.HasBlood,
		WeightGrams:     p.WeightGrams,
		Private:         p.Private,
	}
	entry.XPGained = gamification.ComputeXP(entry)

	if owner.AIEnabled && s.Insights != nil {
		if commentary := s.generateInsight(ctx, entry); commentary != "" {
			entry.Commentary = &commentary
		}
	}

	if err := s.Logs.AppendLog(ctx, entry); err != nil {
		return domain.LogEntry{}, gamification.LevelInfo{}, err
	}

	total, err := s.Users.AddXP(ctx, owner.ID, entry.XPGained)
	if err != nil {
		return domain.LogEntry{}, gamification.LevelInfo{}, err
	}

	return entry, gamification.ComputeLevel(total), nil
}

func (s *LogsService) generateInsight(ctx context.Context, entry domain.LogEntry) string {
	timeout := s.InsightTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	commentary, err := s.Insights.Generate(ctx, entry.Type, entry.Notes)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("insight generation failed", "err", err)
		}
		return ""
	}
	return commentary
}

func (s *LogsService) List(ctx context.Context, ownerID string) ([]domain.LogEntry, error) {
	return s.Logs.ListLogs(ctx, ownerID)
}

func (s *LogsService) Delete(ctx context.Context, ownerID, id string) error {
	return s.Logs.DeleteLog(ctx, ownerID, id)
}

func (s *LogsService) ClearCommentary(ctx context.Context, ownerID string) error {
	return s.Logs.ClearCommentary(ctx, ownerID)
}

// DoPrestige trades accumulated XP for a permanent prestige badge, gated
// on the level requirement.
func (s *LogsService) DoPrestige(ctx context.Context, owner domain.User) (domain.User, error) {
	if !gamification.PrestigeEligible(owner.XP) {
		return domain.User{}, domain.ErrPrestigeLocked
	}
	return s.Users.Prestige(ctx, owner.ID)
}

// DailyStats aggregates the owner's history into per-day counts and
// average Bristol type, newest day first.
func (s *LogsService) DailyStats(ctx context.Context, ownerID string) ([]domain.DailyStat, error) {
	entries, err := s.Logs.ListLogs(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var out []domain.DailyStat
	idx := make(map[string]int)
	sums := make(map[string]int)
	for _, e := range entries {
		day := e.Timestamp.UTC().Format("2006-01-02")
		i, ok := idx[day]
		if !ok {
			i = len(out)
			idx[day] = i
			out = append(out, domain.DailyStat{Date: day})
		}
		out[i].Count++
		sums[day] += int(e.Type)
	}
	for i := range out {
		out[i].AvgType = float64(sums[out[i].Date]) / float64(out[i].Count)
	}
	return out, nil
}

func validateLogParams(p CreateLogParams) error {
	fields := map[string]string{}
	if !p.Type.Valid() {
		fields["type"] = "must be between 1 and 7"
	}
	if p.Size != "" && !p.Size.Valid() {
		fields["size"] = "must be one of SMALL, MEDIUM, LARGE, MASSIVE"
	}
	if p.PainLevel != nil && (*p.PainLevel < 0 || *p.PainLevel > 10) {
		fields["pain_level"] = "must be between 0 and 10"
	}
	if p.Wipes != nil && *p.Wipes < 0 {
		fields["wipes"] = "must be non-negative"
	}
	if p.DurationMinutes != nil && *p.DurationMinutes < 0 {
		fields["duration_minutes"] = "must be non-negative"
	}
	if p.WeightGrams != nil && *p.WeightGrams < 0 {
		fields["weight_grams"] = "must be non-negative"
	}
	if len(fields) > 0 {
		return domain.NewValidationError(fields)
	}
	return nil
}
