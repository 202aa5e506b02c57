package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trainingCoachAPI/internal/types/streak"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrStreakNotFound = errors.New("streak record not found")
	ErrStreakConflict = errors.New("streak record was modified concurrently")
	ErrUserNotFound   = errors.New("user not found")
)

// StreakStore is the durable per-user streak record. Every call is atomic at
// single-record granularity.
type StreakStore interface {
	// Get returns ErrStreakNotFound when the user has no record yet.
	Get(ctx context.Context, userID uuid.UUID) (*streak.UserStreakRecord, error)
	// Insert creates the record. If one already exists it is returned unchanged.
	Insert(ctx context.Context, record *streak.UserStreakRecord) (*streak.UserStreakRecord, error)
	// Update writes fields if the stored version still equals fields.Version,
	// otherwise it returns ErrStreakConflict.
	Update(ctx context.Context, userID uuid.UUID, fields streak.StreakFields) (*streak.UserStreakRecord, error)
}

type UserDirectory interface {
	UserIDByClerkID(ctx context.Context, clerkID string) (uuid.UUID, error)
}

const streakSchema = `
CREATE TABLE IF NOT EXISTS user_streaks (
	user_id            UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	current_streak     INT NOT NULL DEFAULT 0 CHECK (current_streak >= 0),
	longest_streak     INT NOT NULL DEFAULT 0 CHECK (longest_streak >= 0),
	streak_freezes     INT NOT NULL DEFAULT 0 CHECK (streak_freezes >= 0),
	last_activity_date DATE,
	streak_history     JSONB NOT NULL DEFAULT '[]'::jsonb,
	version            BIGINT NOT NULL DEFAULT 0,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const streakColumns = `user_id, current_streak, longest_streak, streak_freezes,
	last_activity_date, streak_history, version, created_at, updated_at`

type PostgresStreakStore struct {
	db *pgxpool.Pool
}

func NewPostgresStreakStore(db *pgxpool.Pool) *PostgresStreakStore {
	return &PostgresStreakStore{db: db}
}

func (s *PostgresStreakStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, streakSchema); err != nil {
		return fmt.Errorf("failed to create user_streaks table: %w", err)
	}
	return nil
}

func (s *PostgresStreakStore) Get(ctx context.Context, userID uuid.UUID) (*streak.UserStreakRecord, error) {
	query := `SELECT ` + streakColumns + ` FROM user_streaks WHERE user_id = $1`

	record, err := scanStreak(s.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStreakNotFound
		}
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}
	return record, nil
}

func (s *PostgresStreakStore) Insert(ctx context.Context, record *streak.UserStreakRecord) (*streak.UserStreakRecord, error) {
	query := `
	INSERT INTO user_streaks (user_id, current_streak, longest_streak, streak_freezes,
		last_activity_date, streak_history, version, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, 0, NOW(), NOW())
	ON CONFLICT (user_id) DO NOTHING
	RETURNING ` + streakColumns

	inserted, err := scanStreak(s.db.QueryRow(
		ctx,
		query,
		record.UserID,
		record.CurrentStreak,
		record.LongestStreak,
		record.StreakFreezes,
		dateParam(record.LastActivityDate),
		historyParam(record.StreakHistory),
	))
	if err == nil {
		return inserted, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to insert streak: %w", err)
	}

	// Another request created the row first.
	return s.Get(ctx, record.UserID)
}

func (s *PostgresStreakStore) Update(ctx context.Context, userID uuid.UUID, fields streak.StreakFields) (*streak.UserStreakRecord, error) {
	query := `
	UPDATE user_streaks
	SET current_streak = $2,
		longest_streak = $3,
		streak_freezes = $4,
		last_activity_date = $5,
		streak_history = $6,
		version = version + 1,
		updated_at = NOW()
	WHERE user_id = $1 AND version = $7
	RETURNING ` + streakColumns

	updated, err := scanStreak(s.db.QueryRow(
		ctx,
		query,
		userID,
		fields.CurrentStreak,
		fields.LongestStreak,
		fields.StreakFreezes,
		dateParam(fields.LastActivityDate),
		historyParam(fields.StreakHistory),
		fields.Version,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStreakConflict
		}
		return nil, fmt.Errorf("failed to update streak: %w", err)
	}
	return updated, nil
}

func (s *PostgresStreakStore) UserIDByClerkID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, "SELECT id FROM users WHERE clerk_id = $1", clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("clerk_id %s: %w", clerkID, ErrUserNotFound)
		}
		return uuid.Nil, fmt.Errorf("failed to resolve clerk_id %s: %w", clerkID, err)
	}
	return userID, nil
}

func scanStreak(row pgx.Row) (*streak.UserStreakRecord, error) {
	record := &streak.UserStreakRecord{}
	var lastActivity pgtype.Date

	err := row.Scan(
		&record.UserID,
		&record.CurrentStreak,
		&record.LongestStreak,
		&record.StreakFreezes,
		&lastActivity,
		&record.StreakHistory,
		&record.Version,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastActivity.Valid {
		d := civil.DateOf(lastActivity.Time)
		record.LastActivityDate = &d
	}
	if record.StreakHistory == nil {
		record.StreakHistory = []streak.StreakHistoryItem{}
	}
	return record, nil
}

func dateParam(d *civil.Date) any {
	if d == nil {
		return nil
	}
	return d.In(time.UTC)
}

// historyParam keeps the NOT NULL jsonb column from receiving a JSON null.
func historyParam(items []streak.StreakHistoryItem) []streak.StreakHistoryItem {
	if items == nil {
		return []streak.StreakHistoryItem{}
	}
	return items
}
