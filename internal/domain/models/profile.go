package models

// NotificationPreference controls which risk levels trigger a push notification
type NotificationPreference string

const (
	PreferenceAll      NotificationPreference = "all"
	PreferenceHighOnly NotificationPreference = "high_only"
)

// Valid reports whether p is one of the enumerated preferences
func (p NotificationPreference) Valid() bool {
	return p == PreferenceAll || p == PreferenceHighOnly
}

// NotificationProfile holds a user's push tokens and preference
type NotificationProfile struct {
	UserID     string                 `json:"user_id"`
	Preference NotificationPreference `json:"notification_pref"`
	PushTokens []string               `json:"fcm_tokens"`
}

// SenderColor is the display color assigned to a sender address
type SenderColor struct {
	Sender string `json:"sender"`
	Color  string `json:"color"`
}
