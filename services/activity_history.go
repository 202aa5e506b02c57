package services

import (
	"context"
	"fmt"
	"slices"

	"trainingCoachAPI/internal/types/activity"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// ActivityHistorySource is one upstream origin of days a user was active.
type ActivityHistorySource interface {
	ActiveDates(ctx context.Context, userID uuid.UUID) ([]activity.ActivityHistoryEntry, error)
}

// StaticActivitySource serves entries that arrived with a request, e.g. a provider import.
type StaticActivitySource []activity.ActivityHistoryEntry

func (s StaticActivitySource) ActiveDates(ctx context.Context, userID uuid.UUID) ([]activity.ActivityHistoryEntry, error) {
	return s, nil
}

// activity_date is the user's local calendar day; several rows may share one.
const activityLogSchema = `
CREATE TABLE IF NOT EXISTS activity_logs (
	id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id       UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	activity_date DATE NOT NULL,
	activity_type TEXT NOT NULL DEFAULT 'workout',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_activity_logs_user_date ON activity_logs (user_id, activity_date)`

// PostgresActivitySource reads the workouts and check-ins logged in the app itself.
type PostgresActivitySource struct {
	db *pgxpool.Pool
}

func NewPostgresActivitySource(db *pgxpool.Pool) *PostgresActivitySource {
	return &PostgresActivitySource{db: db}
}

func (s *PostgresActivitySource) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, activityLogSchema); err != nil {
		return fmt.Errorf("failed to create activity_logs table: %w", err)
	}
	return nil
}

func (s *PostgresActivitySource) ActiveDates(ctx context.Context, userID uuid.UUID) ([]activity.ActivityHistoryEntry, error) {
	query := `
	SELECT DISTINCT activity_date
	FROM activity_logs
	WHERE user_id = $1
	ORDER BY activity_date DESC
	LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, userID, backfillWindowDays+1)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity logs: %w", err)
	}
	defer rows.Close()

	var entries []activity.ActivityHistoryEntry
	for rows.Next() {
		var day pgtype.Date
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("failed to scan activity date: %w", err)
		}
		if !day.Valid {
			continue
		}
		entries = append(entries, activity.ActivityHistoryEntry{
			Date:   civil.DateOf(day.Time),
			Source: activity.SourceLogged,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read activity logs: %w", err)
	}
	return entries, nil
}

// CollectActivityHistory queries every source concurrently and unions the
// results by date. Any source failing fails the whole collection.
func CollectActivityHistory(ctx context.Context, userID uuid.UUID, sources ...ActivityHistorySource) ([]activity.ActivityHistoryEntry, error) {
	results := make([][]activity.ActivityHistoryEntry, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, source := range sources {
		g.Go(func() error {
			entries, err := source.ActiveDates(gctx, userID)
			if err != nil {
				return err
			}
			results[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to collect activity history: %w", err)
	}

	return UnionActivityHistory(results...), nil
}

// UnionActivityHistory keeps one entry per date, from the first list that had it,
// sorted oldest first.
func UnionActivityHistory(lists ...[]activity.ActivityHistoryEntry) []activity.ActivityHistoryEntry {
	seen := make(map[civil.Date]struct{})
	var out []activity.ActivityHistoryEntry
	for _, list := range lists {
		for _, entry := range list {
			if _, ok := seen[entry.Date]; ok {
				continue
			}
			seen[entry.Date] = struct{}{}
			out = append(out, entry)
		}
	}

	slices.SortFunc(out, func(a, b activity.ActivityHistoryEntry) int {
		switch {
		case a.Date.Before(b.Date):
			return -1
		case a.Date.After(b.Date):
			return 1
		default:
			return 0
		}
	})
	return out
}
