package memory

import (
	"context"
	"sort"

	"doodoologserver/internal/domain"
)

func (s *Store) AppendLog(ctx context.Context, entry domain.LogEntry) error {
	if err := s.begin(ctx, "append_log"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.logs[entry.OwnerID]
	// Replace on ID collision, mirroring an upsert.
	kept := entries[:0]
	for _, e := range entries {
		if e.ID != entry.ID {
			kept = append(kept, e)
		}
	}
	kept = append(kept, entry)
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Timestamp.After(kept[j].Timestamp) })
	s.logs[entry.OwnerID] = kept
	return nil
}

func (s *Store) ListLogs(ctx context.Context, ownerID string) ([]domain.LogEntry, error) {
	if err := s.begin(ctx, "list_logs"); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.logs[ownerID]
	out := make([]domain.LogEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *Store) DeleteLog(ctx context.Context, ownerID, id string) error {
	if err := s.begin(ctx, "delete_log"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.logs[ownerID]
	kept := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.logs[ownerID] = kept
	return nil
}

func (s *Store) ClearCommentary(ctx context.Context, ownerID string) error {
	if err := s.begin(ctx, "clear_commentary"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.logs[ownerID]
	for i := range entries {
		entries[i].Commentary = nil
	}
	return nil
}
