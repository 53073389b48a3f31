package models

// Notification records the outcome of one reminder dispatch attempt.
type Notification struct {
	ID            string `json:"id"`
	RecipientID   string `json:"recipientId"`
	ApplicationID string `json:"applicationId"`
	Channel       string `json:"channel"` // "email", "sms"
	Status        string `json:"status"`  // "sent", "failed", "disabled"
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	SentAt        string `json:"sentAt"` // ISO 8601
}

// Notification statuses
const (
	NotificationStatusSent     = "sent"
	NotificationStatusFailed   = "failed"
	NotificationStatusDisabled = "disabled"
)

// Channels
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)
