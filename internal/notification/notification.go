package notification

type NotificationType string

const (
	NotificationStreakMilestone NotificationType = "streak_milestone"
	NotificationFreezeEarned    NotificationType = "streak_freeze_earned"
)

type DeviceToken struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}
