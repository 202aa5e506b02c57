package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"trainingCoachAPI/internal/logger"
	"trainingCoachAPI/internal/notification"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var streakMilestones = map[int]bool{7: true, 30: true, 100: true, 365: true}

func isStreakMilestone(currentStreak int) bool {
	return streakMilestones[currentStreak]
}

type StreakNotifier interface {
	FreezeEarned(ctx context.Context, userID uuid.UUID, currentStreak, freezes int) error
	StreakMilestone(ctx context.Context, userID uuid.UUID, currentStreak int) error
}

type NoopStreakNotifier struct{}

func (NoopStreakNotifier) FreezeEarned(ctx context.Context, userID uuid.UUID, currentStreak, freezes int) error {
	return nil
}

func (NoopStreakNotifier) StreakMilestone(ctx context.Context, userID uuid.UUID, currentStreak int) error {
	return nil
}

type PushProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

type DeviceTokenLookup interface {
	DeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error)
}

type PushStreakNotifier struct {
	tokens DeviceTokenLookup
	push   PushProvider
	logger *logger.Logger
}

func NewPushStreakNotifier(tokens DeviceTokenLookup, push PushProvider, log *logger.Logger) *PushStreakNotifier {
	return &PushStreakNotifier{tokens: tokens, push: push, logger: log}
}

func (n *PushStreakNotifier) FreezeEarned(ctx context.Context, userID uuid.UUID, currentStreak, freezes int) error {
	body := fmt.Sprintf("%d days in a row. You banked a streak freeze (%d available).", currentStreak, freezes)
	return n.send(ctx, userID, notification.NotificationFreezeEarned, "Streak freeze earned", body, map[string]any{
		"current_streak": currentStreak,
		"streak_freezes": freezes,
	})
}

func (n *PushStreakNotifier) StreakMilestone(ctx context.Context, userID uuid.UUID, currentStreak int) error {
	body := fmt.Sprintf("You have shown up %d days in a row. Keep it going!", currentStreak)
	return n.send(ctx, userID, notification.NotificationStreakMilestone, fmt.Sprintf("%d day streak", currentStreak), body, map[string]any{
		"current_streak": currentStreak,
	})
}

func (n *PushStreakNotifier) send(ctx context.Context, userID uuid.UUID, kind notification.NotificationType, title, body string, data map[string]any) error {
	tokens, err := n.tokens.DeviceTokens(ctx, userID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		n.logger.Debug("no device tokens, skipping push", "user_id", userID, "type", kind)
		return nil
	}

	data["type"] = string(kind)
	return n.push.SendPush(ctx, tokens, title, body, data)
}

// PostgresDeviceTokens reads push tokens from notification_preferences.
type PostgresDeviceTokens struct {
	db *pgxpool.Pool
}

func NewPostgresDeviceTokens(db *pgxpool.Pool) *PostgresDeviceTokens {
	return &PostgresDeviceTokens{db: db}
}

func (s *PostgresDeviceTokens) DeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	query := `
	SELECT device_tokens
	FROM notification_preferences
	WHERE user_id = $1 AND push_enabled = TRUE
	`

	var raw []byte
	if err := s.db.QueryRow(ctx, query, userID).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get device tokens: %w", err)
	}

	return decodeDeviceTokens(raw)
}

func decodeDeviceTokens(raw []byte) ([]notification.DeviceToken, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var tokens []notification.DeviceToken
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return nil, fmt.Errorf("failed to decode device tokens: %w", err)
	}
	return tokens, nil
}
