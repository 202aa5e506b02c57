package services

import (
	"trainingCoachAPI/internal/types/streak"
	"trainingCoachAPI/utils"

	"cloud.google.com/go/civil"
)

type gapOutcome int

const (
	gapNone gapOutcome = iota
	gapBridged
	gapReset
)

// reconcileGap settles the days missed strictly between the last credited day
// and today. Bridging spends exactly one freeze per missed day and moves the
// last credited day to yesterday. With too few freezes the streak drops to zero
// and the freezes stay banked.
func reconcileGap(record *streak.UserStreakRecord, today civil.Date) (gapOutcome, int) {
	if record.LastActivityDate == nil || record.CurrentStreak == 0 {
		return gapNone, 0
	}

	gap := utils.DaysBetween(*record.LastActivityDate, today) - 1
	if gap <= 0 {
		return gapNone, 0
	}

	if record.StreakFreezes < gap {
		record.CurrentStreak = 0
		return gapReset, gap
	}

	last := *record.LastActivityDate
	for i := 1; i <= gap; i++ {
		record.StreakHistory = append(record.StreakHistory, streak.StreakHistoryItem{
			Date: utils.AddDays(last, i),
			Type: streak.HistoryFreezeUsed,
		})
	}
	record.StreakFreezes -= gap

	bridged := utils.AddDays(today, -1)
	record.LastActivityDate = &bridged

	return gapBridged, gap
}
