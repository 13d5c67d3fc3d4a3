package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"doodoologserver/internal/domain"
)

type stubLogsStore struct {
	t *testing.T

	appendLogFunc       func(context.Context, domain.LogEntry) error
	listLogsFunc        func(context.Context, string) ([]domain.LogEntry, error)
	deleteLogFunc       func(context.Context, string, string) error
	clearCommentaryFunc func(context.Context, string) error
}

func (s *stubLogsStore) AppendLog(ctx context.Context, entry domain.LogEntry) error {
	if s.appendLogFunc != nil {
		return s.appendLogFunc(ctx, entry)
	}
	s.t.Fatalf("AppendLog called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubLogsStore) ListLogs(ctx context.Context, ownerID string) ([]domain.LogEntry, error) {
	if s.listLogsFunc != nil {
		return s.listLogsFunc(ctx, ownerID)
	}
	s.t.Fatalf("ListLogs called unexpectedly")
	return nil, errors.New("unexpected call")
}

func (s *stubLogsStore) DeleteLog(ctx context.Context, ownerID, id string) error {
	if s.deleteLogFunc != nil {
		return s.deleteLogFunc(ctx, ownerID, id)
	}
	s.t.Fatalf("DeleteLog called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubLogsStore) ClearCommentary(ctx context.Context, ownerID string) error {
	if s.clearCommentaryFunc != nil {
		return s.clearCommentaryFunc(ctx, ownerID)
	}
	s.t.Fatalf("ClearCommentary called unexpectedly")
	return errors.New("unexpected call")
}

type stubProgressionStore struct {
	t *testing.T

	addXPFunc    func(context.Context, string, int) (int, error)
	prestigeFunc func(context.Context, string) (domain.User, error)
}

func (s *stubProgressionStore) AddXP(ctx context.Context, userID string, delta int) (int, error) {
	if s.addXPFunc != nil {
		return s.addXPFunc(ctx, userID, delta)
	}
	s.t.Fatalf("AddXP called unexpectedly")
	return 0, errors.New("unexpected call")
}

func (s *stubProgressionStore) Prestige(ctx context.Context, userID string) (domain.User, error) {
	if s.prestigeFunc != nil {
		return s.prestigeFunc(ctx, userID)
	}
	s.t.Fatalf("Prestige called unexpectedly")
	return domain.User{}, errors.New("unexpected call")
}

type insightFunc func(context.Context, domain.BristolType, string) (string, error)

func (f insightFunc) Generate(ctx context.Context, t domain.BristolType, notes string) (string, error) {
	return f(ctx, t, notes)
}

func TestLogsAppendScoresOnceAndCreditsXP(t *testing.T) {
	now := time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)

	var stored domain.LogEntry
	logs := &stubLogsStore{
		t: t,
		appendLogFunc: func(_ context.Context, entry domain.LogEntry) error {
			stored = entry
			return nil
		},
	}
	users := &stubProgressionStore{
		t: t,
		addXPFunc: func(_ context.Context, userID string, delta int) (int, error) {
			if userID != "user-1" {
				t.Fatalf("unexpected user id: %s", userID)
			}
			if delta != 90 {
				t.Fatalf("unexpected xp delta: %d", delta)
			}
			return 590, nil
		},
	}

	svc := &LogsService{
		Logs:  logs,
		Users: users,
		Now:   func() time.Time { return now },
		NewID: func() string { return "log-1" },
	}

	owner := domain.User{ID: "user-1"}
	entry, level, err := svc.Append(context.Background(), owner, CreateLogParams{
		Type: domain.BristolType3,
		Size: domain.LogSizeMedium,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 50 base, x1.2 medium, x1.5 ideal type.
	if entry.XPGained != 90 {
		t.Fatalf("unexpected xp: %d", entry.XPGained)
	}
	if stored.ID != "log-1" || !stored.Timestamp.Equal(now) || stored.OwnerID != "user-1" {
		t.Fatalf("unexpected stored entry: %+v", stored)
	}
	if stored.XPGained != entry.XPGained {
		t.Fatalf("stored xp differs from returned xp")
	}
	if level.Level != 2 || level.Progress != 90 {
		t.Fatalf("unexpected level info: %+v", level)
	}
}

func TestLogsAppendBloodPenaltyClampsAtZero(t *testing.T) {
	logs := &stubLogsStore{
		t:             t,
		appendLogFunc: func(_ context.Context, _ domain.LogEntry) error { return nil },
	}
	users := &stubProgressionStore{
		t: t,
		addXPFunc: func(_ context.Context, _ string, delta int) (int, error) {
			if delta != 0 {
				t.Fatalf("unexpected xp delta: %d", delta)
			}
			return 0, nil
		},
	}

	svc := &LogsService{Logs: logs, Users: users}

	entry, _, err := svc.Append(context.Background(), domain.User{ID: "user-1"}, CreateLogParams{
		Type:     domain.BristolType1,
		Size:     domain.LogSizeSmall,
		HasBlood: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.XPGained != 0 {
		t.Fatalf("expected zero xp, got %d", entry.XPGained)
	}
}

func TestLogsAppendInsightFailureDegrades(t *testing.T) {
	logs := &stubLogsStore{
		t: t,
		appendLogFunc: func(_ context.Context, entry domain.LogEntry) error {
			if entry.Commentary != nil {
				t.Fatalf("expected no commentary, got %q", *entry.Commentary)
			}
			return nil
		},
	}
	users := &stubProgressionStore{
		t:         t,
		addXPFunc: func(_ context.Context, _ string, _ int) (int, error) { return 50, nil },
	}

	svc := &LogsService{
		Logs:   logs,
		Users:  users,
		Logger: slog.New(slog.DiscardHandler),
		Insights: insightFunc(func(_ context.Context, _ domain.BristolType, _ string) (string, error) {
			return "", errors.New("upstream down")
		}),
	}

	owner := domain.User{ID: "user-1", AIEnabled: true}
	entry, _, err := svc.Append(context.Background(), owner, CreateLogParams{Type: domain.BristolType4})
	if err != nil {
		t.Fatalf("insight failure must not fail the append: %v", err)
	}
	if entry.Commentary != nil {
		t.Fatalf("expected nil commentary")
	}
}

func TestLogsAppendAttachesInsight(t *testing.T) {
	logs := &stubLogsStore{
		t:             t,
		appendLogFunc: func(_ context.Context, _ domain.LogEntry) error { return nil },
	}
	users := &stubProgressionStore{
		t:         t,
		addXPFunc: func(_ context.Context, _ string, _ int) (int, error) { return 75, nil },
	}

	svc := &LogsService{
		Logs:  logs,
		Users: users,
		Insights: insightFunc(func(_ context.Context, bt domain.BristolType, notes string) (string, error) {
			if bt != domain.BristolType4 || notes != "felt great" {
				return "", errors.New("unexpected prompt input")
			}
			return "A perfect specimen. Carry on.", nil
		}),
	}

	owner := domain.User{ID: "user-1", AIEnabled: true}
	entry, _, err := svc.Append(context.Background(), owner, CreateLogParams{
		Type:  domain.BristolType4,
		Notes: "felt great",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Commentary == nil || *entry.Commentary != "A perfect specimen. Carry on." {
		t.Fatalf("unexpected commentary: %v", entry.Commentary)
	}
}

func TestLogsAppendSkipsInsightWhenDisabled(t *testing.T) {
	logs := &stubLogsStore{
		t:             t,
		appendLogFunc: func(_ context.Context, _ domain.LogEntry) error { return nil },
	}
	users := &stubProgressionStore{
		t:         t,
		addXPFunc: func(_ context.Context, _ string, _ int) (int, error) { return 75, nil },
	}

	svc := &LogsService{
		Logs:  logs,
		Users: users,
		Insights: insightFunc(func(_ context.Context, _ domain.BristolType, _ string) (string, error) {
			t.Fatalf("insight generator called for ai-disabled user")
			return "", nil
		}),
	}

	owner := domain.User{ID: "user-1", AIEnabled: false}
	if _, _, err := svc.Append(context.Background(), owner, CreateLogParams{Type: domain.BristolType4}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLogsAppendRejectsInvalidParams(t *testing.T) {
	svc := &LogsService{Logs: &stubLogsStore{t: t}, Users: &stubProgressionStore{t: t}}

	pain := 42
	_, _, err := svc.Append(context.Background(), domain.User{ID: "user-1"}, CreateLogParams{
		Type:      domain.BristolType(9),
		Size:      domain.LogSize("GIGANTIC"),
		PainLevel: &pain,
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	for _, field := range []string{"type", "size", "pain_level"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Fatalf("missing field %q in %v", field, verr.Fields)
		}
	}
}

func TestLogsPrestigeGate(t *testing.T) {
	svc := &LogsService{Logs: &stubLogsStore{t: t}, Users: &stubProgressionStore{t: t}}

	// Level 54 (26500 XP) is one short of the requirement.
	_, err := svc.DoPrestige(context.Background(), domain.User{ID: "user-1", XP: 26500})
	if !errors.Is(err, domain.ErrPrestigeLocked) {
		t.Fatalf("expected prestige locked, got %v", err)
	}

	users := &stubProgressionStore{
		t: t,
		prestigeFunc: func(_ context.Context, userID string) (domain.User, error) {
			if userID != "user-1" {
				t.Fatalf("unexpected user id: %s", userID)
			}
			return domain.User{ID: userID, XP: 0, Prestige: 1}, nil
		},
	}
	svc.Users = users

	// Level 55 (27000 XP) clears it.
	u, err := svc.DoPrestige(context.Background(), domain.User{ID: "user-1", XP: 27000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.XP != 0 || u.Prestige != 1 {
		t.Fatalf("unexpected prestige result: %+v", u)
	}
}

func TestLogsDailyStatsGroupsByUTCDay(t *testing.T) {
	day1 := time.Date(2025, 5, 6, 23, 30, 0, 0, time.UTC)
	day2 := time.Date(2025, 5, 7, 0, 15, 0, 0, time.UTC)

	logs := &stubLogsStore{
		t: t,
		listLogsFunc: func(_ context.Context, ownerID string) ([]domain.LogEntry, error) {
			return []domain.LogEntry{
				{ID: "c", Timestamp: day2, Type: domain.BristolType6},
				{ID: "b", Timestamp: day1, Type: domain.BristolType4},
				{ID: "a", Timestamp: day1, Type: domain.BristolType3},
			}, nil
		},
	}
	svc := &LogsService{Logs: logs, Users: &stubProgressionStore{t: t}}

	stats, err := svc.DailyStats(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 days, got %d", len(stats))
	}
	if stats[0].Date != "2025-05-07" || stats[0].Count != 1 || stats[0].AvgType != 6 {
		t.Fatalf("unexpected first day: %+v", stats[0])
	}
	if stats[1].Date != "2025-05-06" || stats[1].Count != 2 || stats[1].AvgType != 3.5 {
		t.Fatalf("unexpected second day: %+v", stats[1])
	}
}
