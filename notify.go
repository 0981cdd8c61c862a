package treasury

import (
	"context"

	"github.com/artgap/treasury/id"
	"github.com/artgap/treasury/notification"
	"github.com/artgap/treasury/store"
)

// Notifications lists a user's notifications in append order.
func (t *Treasury) Notifications(ctx context.Context, userID string, unreadOnly bool) ([]*notification.Notification, error) {
	return t.store.ListNotifications(ctx, userID, unreadOnly)
}

// MarkNotificationsRead marks the given notifications as read.
func (t *Treasury) MarkNotificationsRead(ctx context.Context, noteIDs ...id.NotificationID) error {
	if len(noteIDs) == 0 {
		return nil
	}
	return t.store.Apply(ctx, &store.Mutation{NotificationReads: noteIDs})
}
