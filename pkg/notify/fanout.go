package notify

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/pronet/realtime/pkg/model"
)

// NotificationStore persists notification rows. External collaborator;
// the fan-out never holds a transaction open across the push step.
type NotificationStore interface {
	CreateNotification(ctx context.Context, recipientID string, typ model.NotificationType, title, body, link string) (*model.Notification, error)
}

// Pusher delivers new_notification events to live connections.
// Satisfied by *registry.Registry.
type Pusher interface {
	PushToUser(userID string, ev model.Event) int
}

// Fanout turns domain events into persisted notifications and live
// pushes. There is no idempotency key: a redelivered domain event
// creates a duplicate notification row. Known limitation, kept until
// the producers carry stable event ids.
type Fanout struct {
	store  NotificationStore
	pusher Pusher
	wg     sync.WaitGroup
}

func NewFanout(store NotificationStore, pusher Pusher) *Fanout {
	return &Fanout{store: store, pusher: pusher}
}

// Notify persists the notification and pushes it to the recipient's
// live connections, if any. An offline recipient finds it on their
// next notification fetch.
func (f *Fanout) Notify(ctx context.Context, recipientID string, typ model.NotificationType, title, body, link string) error {
	n, err := f.store.CreateNotification(ctx, recipientID, typ, title, body, link)
	if err != nil {
		return fmt.Errorf("failed to persist notification for %s: %w", recipientID, err)
	}

	f.pusher.PushToUser(recipientID, model.MustEvent(model.EventNewNotification, model.NewNotificationPayload{
		Notification: *n,
	}))
	return nil
}

// NotifyAll fans one event out to many recipients in a detached
// goroutine so a slow write can never stall the triggering request
// (a newsletter edition can have hundreds of subscribers). Per-recipient
// failures are logged and skipped.
func (f *Fanout) NotifyAll(recipients []string, typ model.NotificationType, title, body, link string) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		ctx := context.Background()
		for _, recipientID := range recipients {
			if err := f.Notify(ctx, recipientID, typ, title, body, link); err != nil {
				log.Printf("Notification fan-out: %v", err)
			}
		}
	}()
}

// Flush waits for detached fan-outs to finish. Shutdown and tests.
func (f *Fanout) Flush() {
	f.wg.Wait()
}
