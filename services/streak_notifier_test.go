package services

import (
	"context"
	"errors"
	"testing"

	"trainingCoachAPI/internal/logger"
	"trainingCoachAPI/internal/notification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	tokens []notification.DeviceToken
	err    error
}

func (s staticTokens) DeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	return s.tokens, s.err
}

type capturedPush struct {
	tokens []notification.DeviceToken
	title  string
	data   map[string]any
	calls  int
}

func (p *capturedPush) SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error {
	p.calls++
	p.tokens = tokens
	p.title = title
	p.data = data
	return nil
}

func TestPushStreakNotifier(t *testing.T) {
	ctx := context.Background()
	push := &capturedPush{}
	tokens := staticTokens{tokens: []notification.DeviceToken{{Token: "t1", Platform: "android"}}}
	n := NewPushStreakNotifier(tokens, push, logger.Nop())

	require.NoError(t, n.FreezeEarned(ctx, uuid.New(), 14, 2))
	assert.Equal(t, "Streak freeze earned", push.title)
	assert.Equal(t, string(notification.NotificationFreezeEarned), push.data["type"])
	assert.Equal(t, 2, push.data["streak_freezes"])

	require.NoError(t, n.StreakMilestone(ctx, uuid.New(), 30))
	assert.Equal(t, "30 day streak", push.title)
	assert.Equal(t, string(notification.NotificationStreakMilestone), push.data["type"])
	assert.Equal(t, 2, push.calls)
}

func TestPushStreakNotifier_NoTokens(t *testing.T) {
	push := &capturedPush{}
	n := NewPushStreakNotifier(staticTokens{}, push, logger.Nop())

	require.NoError(t, n.StreakMilestone(context.Background(), uuid.New(), 7))
	assert.Zero(t, push.calls)

	errLookup := errors.New("db down")
	n = NewPushStreakNotifier(staticTokens{err: errLookup}, push, logger.Nop())
	assert.ErrorIs(t, n.FreezeEarned(context.Background(), uuid.New(), 7, 1), errLookup)
}

func TestDecodeDeviceTokens(t *testing.T) {
	tokens, err := decodeDeviceTokens([]byte(`[{"token":"abc","platform":"ios"}]`))
	require.NoError(t, err)
	assert.Equal(t, []notification.DeviceToken{{Token: "abc", Platform: "ios"}}, tokens)

	tokens, err = decodeDeviceTokens(nil)
	require.NoError(t, err)
	assert.Nil(t, tokens)

	_, err = decodeDeviceTokens([]byte(`{`))
	assert.Error(t, err)
}

func TestIsStreakMilestone(t *testing.T) {
	for _, n := range []int{7, 30, 100, 365} {
		assert.True(t, isStreakMilestone(n), n)
	}
	for _, n := range []int{0, 1, 14, 21, 364} {
		assert.False(t, isStreakMilestone(n), n)
	}
}
