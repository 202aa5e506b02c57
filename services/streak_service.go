package services

import (
	"context"
	"errors"
	"fmt"

	"trainingCoachAPI/internal/logger"
	"trainingCoachAPI/internal/types/streak"
	"trainingCoachAPI/utils"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

const (
	freezeEarnInterval = 7
	defaultMaxRetries  = 3
	gapResetNote       = "Reset due to gap"
)

// StreakService holds no streak state of its own; every operation reads the
// record from the store, computes, and writes it back.
type StreakService struct {
	store      StreakStore
	users      UserDirectory
	notifier   StreakNotifier
	logger     *logger.Logger
	maxRetries int
}

func NewStreakService(store StreakStore, users UserDirectory, log *logger.Logger) *StreakService {
	if log == nil {
		log = logger.Nop()
	}
	return &StreakService{
		store:      store,
		users:      users,
		notifier:   NoopStreakNotifier{},
		logger:     log.With("component", "streak"),
		maxRetries: defaultMaxRetries,
	}
}

func (s *StreakService) SetNotifier(n StreakNotifier) {
	if n == nil {
		n = NoopStreakNotifier{}
	}
	s.notifier = n
}

// SetMaxRetries bounds how often an operation is recomputed after a version conflict.
func (s *StreakService) SetMaxRetries(n int) {
	if n < 0 {
		n = 0
	}
	s.maxRetries = n
}

func (s *StreakService) ResolveUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	if s.users == nil {
		return uuid.Nil, ErrUserNotFound
	}
	return s.users.UserIDByClerkID(ctx, clerkID)
}

func (s *StreakService) GetOrInitStreak(ctx context.Context, userID uuid.UUID) (*streak.UserStreakRecord, error) {
	record, err := s.store.Get(ctx, userID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, ErrStreakNotFound) {
		return nil, err
	}

	record, err = s.store.Insert(ctx, streak.NewUserStreakRecord(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to init streak: %w", err)
	}
	return record, nil
}

func (s *StreakService) RecordActivityDay(ctx context.Context, userID uuid.UUID, date civil.Date) (*streak.UserStreakRecord, error) {
	return s.recordDay(ctx, userID, date, streak.EventActivity)
}

// RecordRestCheckIn credits a planned rest day exactly like an activity.
func (s *StreakService) RecordRestCheckIn(ctx context.Context, userID uuid.UUID, date civil.Date) (*streak.UserStreakRecord, error) {
	return s.recordDay(ctx, userID, date, streak.EventRestCheckIn)
}

// ReconcileGap settles any backlog of missed days up to today and persists the
// result if anything changed. It runs even when no event arrives today.
func (s *StreakService) ReconcileGap(ctx context.Context, userID uuid.UUID, today civil.Date) (*streak.UserStreakRecord, error) {
	return s.mutate(ctx, userID, func(record *streak.UserStreakRecord) *streakChange {
		change := &streakChange{}
		change.applyGap(reconcileGap(record, today))
		return change
	})
}

func (s *StreakService) GetStreakStatus(ctx context.Context, userID uuid.UUID, today civil.Date) (*streak.StreakStatus, error) {
	record, err := s.ReconcileGap(ctx, userID, today)
	if err != nil {
		return nil, err
	}

	credited := record.IsWarm() && utils.SameDay(record.LastActivityDate, today)
	return &streak.StreakStatus{
		Streak:        record,
		CreditedToday: credited,
		AtRisk:        record.IsWarm() && !credited,
	}, nil
}

func (s *StreakService) recordDay(ctx context.Context, userID uuid.UUID, date civil.Date, eventType streak.EventType) (*streak.UserStreakRecord, error) {
	return s.mutate(ctx, userID, func(record *streak.UserStreakRecord) *streakChange {
		return processDailyEvent(record, date, eventType)
	})
}

// processDailyEvent credits date to the record. The gap backlog is settled
// first, so a second event on an already credited day changes nothing.
func processDailyEvent(record *streak.UserStreakRecord, date civil.Date, eventType streak.EventType) *streakChange {
	change := &streakChange{userID: record.UserID}
	change.applyGap(reconcileGap(record, date))
	creditDay(record, date, eventType, change)
	return change
}

// creditDay applies one credited day to an already reconciled record.
func creditDay(record *streak.UserStreakRecord, date civil.Date, eventType streak.EventType, change *streakChange) {
	if utils.SameDay(record.LastActivityDate, date) {
		change.duplicate = true
		return
	}

	if record.IsWarm() {
		diff := utils.DaysBetween(*record.LastActivityDate, date)
		if diff < 0 {
			change.late = true
			return
		}
		if diff > 1 {
			record.CurrentStreak = 1
			record.StreakHistory = append(record.StreakHistory, streak.StreakHistoryItem{
				Date: date,
				Type: eventType.HistoryType(),
				Note: gapResetNote,
			})
			record.LastActivityDate = &date
			change.defensiveReset = true
			change.credited = eventType
			return
		}
	}

	record.CurrentStreak++
	if record.CurrentStreak%freezeEarnInterval == 0 {
		record.StreakFreezes++
		change.freezeEarned = true
	}
	if record.CurrentStreak > record.LongestStreak {
		record.LongestStreak = record.CurrentStreak
	}
	record.StreakHistory = append(record.StreakHistory, streak.StreakHistoryItem{
		Date: date,
		Type: eventType.HistoryType(),
	})
	record.LastActivityDate = &date
	change.credited = eventType
}

// mutate runs fn against the freshly read record and writes the result once.
// A version conflict recomputes from a new read.
func (s *StreakService) mutate(ctx context.Context, userID uuid.UUID, fn func(*streak.UserStreakRecord) *streakChange) (*streak.UserStreakRecord, error) {
	for attempt := 0; ; attempt++ {
		record, err := s.GetOrInitStreak(ctx, userID)
		if err != nil {
			return nil, err
		}

		change := fn(record)
		change.userID = userID
		if !change.changed() {
			s.logSkipped(change)
			return record, nil
		}

		updated, err := s.store.Update(ctx, userID, record.Fields())
		if err == nil {
			s.observe(ctx, change, updated)
			return updated, nil
		}
		if !errors.Is(err, ErrStreakConflict) || attempt >= s.maxRetries {
			s.logger.Error("streak write failed", "user_id", userID, "attempt", attempt, "error", err)
			return nil, err
		}

		streakStoreConflicts.Inc()
		s.logger.Warn("streak version conflict, recomputing", "user_id", userID, "attempt", attempt)
	}
}

func (s *StreakService) logSkipped(change *streakChange) {
	switch {
	case change.duplicate:
		streakEventsSkipped.WithLabelValues("duplicate").Inc()
		s.logger.Debug("day already credited", "user_id", change.userID)
	case change.late:
		streakEventsSkipped.WithLabelValues("late").Inc()
		s.logger.Info("event predates last credited day, ignored", "user_id", change.userID)
	case change.emptyBackfill:
		streakBackfills.WithLabelValues("empty").Inc()
		s.logger.Info("backfill found no active streak, keeping state", "user_id", change.userID)
	}
}

// observe records the committed outcome: metrics, logs and notifications.
func (s *StreakService) observe(ctx context.Context, change *streakChange, record *streak.UserStreakRecord) {
	log := s.logger.With("user_id", change.userID)

	if change.bridged > 0 {
		streakFreezesUsed.Add(float64(change.bridged))
		log.Info("bridged missed days with freezes", "gap", change.bridged, "freezes_left", record.StreakFreezes)
	}
	if change.resetGap > 0 {
		streakResets.WithLabelValues("gap").Inc()
		log.Info("streak reset, not enough freezes", "gap", change.resetGap, "freezes", record.StreakFreezes)
	}
	if change.defensiveReset {
		streakResets.WithLabelValues("defensive").Inc()
		log.Warn("gap survived reconciliation, restarting streak", "date", record.LastActivityDate)
	}
	if change.backfilled > 0 {
		streakBackfills.WithLabelValues("applied").Inc()
		log.Info("rebuilt streak from history", "count", change.backfilled)
	}
	if change.credited == "" {
		return
	}

	streakDaysCredited.WithLabelValues(string(change.credited)).Inc()

	if change.freezeEarned {
		streakFreezesEarned.Inc()
		if err := s.notifier.FreezeEarned(ctx, change.userID, record.CurrentStreak, record.StreakFreezes); err != nil {
			log.Warn("freeze notification failed", "error", err)
		}
	}
	if isStreakMilestone(record.CurrentStreak) {
		if err := s.notifier.StreakMilestone(ctx, change.userID, record.CurrentStreak); err != nil {
			log.Warn("milestone notification failed", "error", err)
		}
	}
}

type streakChange struct {
	userID uuid.UUID

	bridged        int
	resetGap       int
	defensiveReset bool
	freezeEarned   bool
	credited       streak.EventType
	backfilled     int

	duplicate     bool
	late          bool
	emptyBackfill bool
}

func (c *streakChange) applyGap(outcome gapOutcome, gap int) {
	switch outcome {
	case gapBridged:
		c.bridged = gap
	case gapReset:
		c.resetGap = gap
	}
}

func (c *streakChange) changed() bool {
	return c.bridged > 0 || c.resetGap > 0 || c.credited != "" || c.backfilled > 0
}
