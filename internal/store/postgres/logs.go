package postgres

import (
	"context"
	"fmt"

	"doodoologserver/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LogsStore struct {
	pool *pgxpool.Pool
}

func NewLogsStore(pool *pgxpool.Pool) *LogsStore {
	return &LogsStore{pool: pool}
}

func (s *LogsStore) AppendLog(ctx context.Context, e domain.LogEntry) error {
	const q = `
		INSERT INTO logs (
			id, owner_id, ts, bristol_type, notes, duration_minutes,
			ai_commentary, pain_level, wipes, is_clog, size, has_blood,
			weight_grams, is_private, xp_gained
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.pool.Exec(ctx, q,
		e.ID, e.OwnerID, e.Timestamp, int(e.Type), e.Notes, e.DurationMinutes,
		e.Commentary, e.PainLevel, e.Wipes, e.IsClog, nullIfEmpty(string(e.Size)), e.HasBlood,
		e.WeightGrams, e.Private, e.XPGained,
	)
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

func (s *LogsStore) ListLogs(ctx context.Context, ownerID string) ([]domain.LogEntry, error) {
	const q = `
		SELECT id, owner_id, ts, bristol_type, notes, duration_minutes,
		       ai_commentary, pain_level, wipes, is_clog, size, has_blood,
		       weight_grams, is_private, xp_gained
		FROM logs
		WHERE owner_id = $1
		ORDER BY ts DESC
	`

	rows, err := s.pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	out := []domain.LogEntry{}
	for rows.Next() {
		var (
			e          domain.LogEntry
			idUUID     pgtype.UUID
			ownerUUID  pgtype.UUID
			bristol    int
			duration   pgtype.Int4
			commentary pgtype.Text
			painLevel  pgtype.Int4
			wipes      pgtype.Int4
			size       pgtype.Text
			weight     pgtype.Float8
		)
		err := rows.Scan(
			&idUUID, &ownerUUID, &e.Timestamp, &bristol, &e.Notes, &duration,
			&commentary, &painLevel, &wipes, &e.IsClog, &size, &e.HasBlood,
			&weight, &e.Private, &e.XPGained,
		)
		if err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		e.ID = uuidOrEmpty(idUUID)
		e.OwnerID = uuidOrEmpty(ownerUUID)
		e.Type = domain.BristolType(bristol)
		e.DurationMinutes = int4Ptr(duration)
		e.Commentary = textPtr(commentary)
		e.PainLevel = int4Ptr(painLevel)
		e.Wipes = int4Ptr(wipes)
		e.Size = domain.LogSize(textOrEmpty(size))
		e.WeightGrams = float8Ptr(weight)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	return out, nil
}

func (s *LogsStore) DeleteLog(ctx context.Context, ownerID, id string) error {
	const q = `DELETE FROM logs WHERE owner_id = $1 AND id = $2`
	if _, err := s.pool.Exec(ctx, q, ownerID, id); err != nil {
		return fmt.Errorf("delete log: %w", err)
	}
	return nil
}

// ClearCommentary nulls exactly the ai_commentary column across the
// owner's rows.
func (s *LogsStore) ClearCommentary(ctx context.Context, ownerID string) error {
	const q = `UPDATE logs SET ai_commentary = NULL WHERE owner_id = $1`
	if _, err := s.pool.Exec(ctx, q, ownerID); err != nil {
		return fmt.Errorf("clear commentary: %w", err)
	}
	return nil
}
