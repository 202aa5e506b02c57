package streak

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

type HistoryType string

const (
	HistoryActivity    HistoryType = "activity"
	HistoryRestCheckIn HistoryType = "rest_checkin"
	HistoryFreezeUsed  HistoryType = "freeze_used"
	HistoryRestored    HistoryType = "restored"
)

// EventType is what a caller can credit a day with.
type EventType string

const (
	EventActivity    EventType = "activity"
	EventRestCheckIn EventType = "rest_checkin"
)

func (e EventType) HistoryType() HistoryType {
	return HistoryType(e)
}

type StreakHistoryItem struct {
	Date civil.Date  `json:"date"`
	Type HistoryType `json:"type"`
	Note string      `json:"note,omitempty"`
}

type UserStreakRecord struct {
	UserID           uuid.UUID           `json:"user_id" db:"user_id"`
	CurrentStreak    int                 `json:"current_streak" db:"current_streak"`
	LongestStreak    int                 `json:"longest_streak" db:"longest_streak"`
	StreakFreezes    int                 `json:"streak_freezes" db:"streak_freezes"`
	LastActivityDate *civil.Date         `json:"last_activity_date" db:"last_activity_date"`
	StreakHistory    []StreakHistoryItem `json:"streak_history" db:"streak_history"`
	Version          int64               `json:"-" db:"version"`
	CreatedAt        time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at" db:"updated_at"`
}

// NewUserStreakRecord returns the zero-state record created on first access.
func NewUserStreakRecord(userID uuid.UUID) *UserStreakRecord {
	return &UserStreakRecord{
		UserID:        userID,
		StreakHistory: []StreakHistoryItem{},
	}
}

// IsWarm reports whether the record holds a live streak.
func (r *UserStreakRecord) IsWarm() bool {
	return r.CurrentStreak > 0 && r.LastActivityDate != nil
}

func (r *UserStreakRecord) Fields() StreakFields {
	return StreakFields{
		CurrentStreak:    r.CurrentStreak,
		LongestStreak:    r.LongestStreak,
		StreakFreezes:    r.StreakFreezes,
		LastActivityDate: r.LastActivityDate,
		StreakHistory:    r.StreakHistory,
		Version:          r.Version,
	}
}

// Clone returns a deep copy so callers can mutate without aliasing the store's copy.
func (r *UserStreakRecord) Clone() *UserStreakRecord {
	c := *r
	if r.LastActivityDate != nil {
		d := *r.LastActivityDate
		c.LastActivityDate = &d
	}
	c.StreakHistory = append([]StreakHistoryItem(nil), r.StreakHistory...)
	if c.StreakHistory == nil {
		c.StreakHistory = []StreakHistoryItem{}
	}
	return &c
}

// StreakFields is the mutable part of a record written by Store.Update.
// Version is the version the caller read; the write is rejected if it moved.
type StreakFields struct {
	CurrentStreak    int
	LongestStreak    int
	StreakFreezes    int
	LastActivityDate *civil.Date
	StreakHistory    []StreakHistoryItem
	Version          int64
}

type RecordDayRequest struct {
	Date string `json:"date"`
}

type ResyncHistoryEntry struct {
	Date   string `json:"date"`
	Source string `json:"source,omitempty"`
}

type ResyncRequest struct {
	Today         string               `json:"today"`
	History       []ResyncHistoryEntry `json:"history"`
	IncludeLogged bool                 `json:"include_logged"`
}

type StreakStatus struct {
	Streak        *UserStreakRecord `json:"streak"`
	CreditedToday bool              `json:"credited_today"`
	AtRisk        bool              `json:"at_risk"`
}
