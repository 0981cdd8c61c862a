// Package notification defines per-user messages emitted by engine
// operations (transfers, deposits).
package notification

import (
	"time"

	"github.com/artgap/treasury/id"
)

// Notification is one message addressed to a user.
type Notification struct {
	ID      id.NotificationID `json:"id"`
	UserID  string            `json:"user_id"`
	Title   string            `json:"title"`
	Message string            `json:"message"`
	TS      time.Time         `json:"ts"`
	Read    bool              `json:"read"`
}

// New builds an unread notification stamped with the current time.
func New(userID, title, message string) *Notification {
	return &Notification{
		ID:      id.NewNotificationID(),
		UserID:  userID,
		Title:   title,
		Message: message,
		TS:      time.Now().UTC(),
	}
}
