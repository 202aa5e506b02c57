package services

import (
	"context"
	"slices"

	"trainingCoachAPI/internal/types/activity"
	"trainingCoachAPI/internal/types/streak"
	"trainingCoachAPI/utils"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

const (
	backfillWindowDays = 365
	backfillNote       = "Backfilled from activity history"
)

type backfillResult struct {
	count   int
	lastDay civil.Date
	history []streak.StreakHistoryItem
}

// buildBackfill walks back over consecutive active days. An inactive today is
// still open, so the walk then starts from yesterday.
func buildBackfill(history []activity.ActivityHistoryEntry, today civil.Date) backfillResult {
	active := make(map[civil.Date]struct{}, len(history))
	for _, entry := range history {
		active[entry.Date] = struct{}{}
	}

	anchor := today
	if _, ok := active[today]; !ok {
		anchor = utils.AddDays(today, -1)
	}

	var result backfillResult
	for i := 0; i < backfillWindowDays; i++ {
		day := utils.AddDays(anchor, -i)
		if _, ok := active[day]; !ok {
			break
		}
		if result.count == 0 {
			result.lastDay = day
		}
		result.count++
		result.history = append(result.history, streak.StreakHistoryItem{
			Date: day,
			Type: streak.HistoryRestored,
			Note: backfillNote,
		})
	}

	// Collected newest first.
	slices.Reverse(result.history)
	return result
}

// applyBackfill replaces the record wholesale. An empty walk leaves it untouched.
func applyBackfill(record *streak.UserStreakRecord, result backfillResult) *streakChange {
	change := &streakChange{userID: record.UserID}
	if result.count == 0 {
		change.emptyBackfill = true
		return change
	}

	lastDay := result.lastDay
	record.CurrentStreak = result.count
	record.LongestStreak = result.count
	record.StreakFreezes = result.count / freezeEarnInterval
	record.LastActivityDate = &lastDay
	record.StreakHistory = result.history

	change.backfilled = result.count
	return change
}

// ResyncFromHistory rebuilds the user's streak from a set of active dates,
// replacing the stored counters and history.
func (s *StreakService) ResyncFromHistory(ctx context.Context, userID uuid.UUID, today civil.Date, history []activity.ActivityHistoryEntry) (*streak.UserStreakRecord, error) {
	result := buildBackfill(history, today)
	return s.mutate(ctx, userID, func(record *streak.UserStreakRecord) *streakChange {
		return applyBackfill(record, result)
	})
}

// ResyncFromSources unions the active dates of every source and resyncs from them.
func (s *StreakService) ResyncFromSources(ctx context.Context, userID uuid.UUID, today civil.Date, sources ...ActivityHistorySource) (*streak.UserStreakRecord, error) {
	history, err := CollectActivityHistory(ctx, userID, sources...)
	if err != nil {
		return nil, err
	}
	return s.ResyncFromHistory(ctx, userID, today, history)
}
