package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	streakDaysCredited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streak_days_credited_total",
			Help: "Calendar days credited to a streak, by event type",
		},
		[]string{"type"},
	)
	streakFreezesUsed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "streak_freezes_used_total",
			Help: "Streak freezes consumed to bridge missed days",
		},
	)
	streakFreezesEarned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "streak_freezes_earned_total",
			Help: "Streak freezes awarded for full weeks of consistency",
		},
	)
	streakResets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streak_resets_total",
			Help: "Streaks reset, by reason",
		},
		[]string{"reason"},
	)
	streakBackfills = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streak_backfills_total",
			Help: "History resyncs, by result",
		},
		[]string{"result"},
	)
	streakEventsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streak_events_skipped_total",
			Help: "Day events that changed nothing, by reason",
		},
		[]string{"reason"},
	)
	streakStoreConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "streak_store_conflicts_total",
			Help: "Optimistic version conflicts on streak writes",
		},
	)
)

// InitStreakMetrics registers the streak collectors. Call this from main.go
func InitStreakMetrics(reg prometheus.Registerer) {
	reg.MustRegister(
		streakDaysCredited,
		streakFreezesUsed,
		streakFreezesEarned,
		streakResets,
		streakBackfills,
		streakEventsSkipped,
		streakStoreConflicts,
	)
}
