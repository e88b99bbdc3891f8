package domain

import "time"

// NotificationType classifies admin feed events.
type NotificationType string

const (
	NotificationOrder   NotificationType = "order"
	NotificationStock   NotificationType = "stock"
	NotificationSystem  NotificationType = "system"
	NotificationMessage NotificationType = "message"
)

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationOrder, NotificationStock, NotificationSystem, NotificationMessage:
		return true
	}
	return false
}

// Notification is a single event pushed to admin sessions.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Read      bool             `json:"read"`
}

// Frame types exchanged over the notification channel.
const (
	FrameConnection   = "connection"
	FrameNotification = "notification"
)
