package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"trainingCoachAPI/internal/types/streak"

	"github.com/google/uuid"
)

// MemoryStreakStore keeps records in process with the same version semantics
// as PostgresStreakStore.
type MemoryStreakStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*streak.UserStreakRecord
	clerk   map[string]uuid.UUID
	now     func() time.Time
}

func NewMemoryStreakStore() *MemoryStreakStore {
	return &MemoryStreakStore{
		records: make(map[uuid.UUID]*streak.UserStreakRecord),
		clerk:   make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

// RegisterUser maps a Clerk subject to a user id for UserIDByClerkID.
func (s *MemoryStreakStore) RegisterUser(clerkID string, userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clerk[clerkID] = userID
}

func (s *MemoryStreakStore) UserIDByClerkID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.clerk[clerkID]
	if !ok {
		return uuid.Nil, fmt.Errorf("clerk_id %s: %w", clerkID, ErrUserNotFound)
	}
	return userID, nil
}

func (s *MemoryStreakStore) Get(ctx context.Context, userID uuid.UUID) (*streak.UserStreakRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[userID]
	if !ok {
		return nil, ErrStreakNotFound
	}
	return record.Clone(), nil
}

func (s *MemoryStreakStore) Insert(ctx context.Context, record *streak.UserStreakRecord) (*streak.UserStreakRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[record.UserID]; ok {
		return existing.Clone(), nil
	}

	stored := record.Clone()
	stored.Version = 0
	stored.CreatedAt = s.now()
	stored.UpdatedAt = stored.CreatedAt
	s.records[record.UserID] = stored
	return stored.Clone(), nil
}

func (s *MemoryStreakStore) Update(ctx context.Context, userID uuid.UUID, fields streak.StreakFields) (*streak.UserStreakRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.records[userID]
	if !ok || existing.Version != fields.Version {
		return nil, ErrStreakConflict
	}

	updated := &streak.UserStreakRecord{
		UserID:           userID,
		CurrentStreak:    fields.CurrentStreak,
		LongestStreak:    fields.LongestStreak,
		StreakFreezes:    fields.StreakFreezes,
		LastActivityDate: fields.LastActivityDate,
		StreakHistory:    fields.StreakHistory,
		Version:          existing.Version + 1,
		CreatedAt:        existing.CreatedAt,
		UpdatedAt:        s.now(),
	}
	s.records[userID] = updated.Clone()
	return updated.Clone(), nil
}
