package notification

import (
	"context"
	"errors"
	"testing"

	"trainingCoachAPI/internal/logger"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent    []*messaging.Message
	failFor map[string]bool
}

func (f *fakeSender) Send(ctx context.Context, message *messaging.Message) (string, error) {
	if f.failFor[message.Token] {
		return "", errors.New("unregistered")
	}
	f.sent = append(f.sent, message)
	return "projects/test/messages/1", nil
}

func TestSendPush(t *testing.T) {
	sender := &fakeSender{failFor: map[string]bool{"bad": true}}
	svc := &FCMService{client: sender, logger: logger.Nop()}

	tokens := []DeviceToken{
		{Token: "android-1", Platform: "android"},
		{Token: "ios-1", Platform: "ios"},
		{Token: "bad", Platform: ""},
	}

	err := svc.SendPush(context.Background(), tokens, "Freeze earned", "7 days", map[string]any{"streak": 7})
	require.NoError(t, err)
	require.Len(t, sender.sent, 2)

	assert.Equal(t, "7", sender.sent[0].Data["streak"])
	assert.NotNil(t, sender.sent[0].Android)
	assert.Nil(t, sender.sent[0].APNS)
	assert.NotNil(t, sender.sent[1].APNS)
}

func TestSendPushAllFailed(t *testing.T) {
	sender := &fakeSender{failFor: map[string]bool{"bad": true}}
	svc := &FCMService{client: sender, logger: logger.Nop()}

	err := svc.SendPush(context.Background(), []DeviceToken{{Token: "bad"}}, "t", "b", nil)
	assert.Error(t, err)

	assert.NoError(t, svc.SendPush(context.Background(), nil, "t", "b", nil))
}
