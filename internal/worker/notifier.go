package worker

import (
	"context"
	"log"

	"chatminder/internal/models"
)

// Notifier delivers a fired reminder to the chat transport. The transport
// itself lives outside this service; deployments plug their own.
type Notifier interface {
	Notify(ctx context.Context, reminder models.Reminder) error
}

// LogNotifier is the default Notifier: it only writes to the log. Useful
// for development and as a stand-in when no transport is wired.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, r models.Reminder) error {
	log.Printf("reminder fired for %s in chat %d: %s", r.UserName, r.ChatID, r.Message)
	return nil
}
