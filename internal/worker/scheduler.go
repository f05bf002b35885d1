package worker

import (
	"context"
	"log"
	"time"

	"chatminder/internal/models"
	"chatminder/internal/service/assistant"
)

const (
	DefaultPollInterval = 30 * time.Second
	deliveryTimeout     = 10 * time.Second
)

// Scheduler polls the reminder store on a fixed cadence, claims due
// reminders, and dispatches each one to the delivery pool. A reminder is
// claimed (completed flipped) before dispatch, so overlapping polls never
// deliver it twice.
type Scheduler struct {
	store      *assistant.Service
	notifier   Notifier
	dispatcher *Dispatcher
	interval   time.Duration
}

// NewScheduler builds a Scheduler. notifier may be nil, which falls back
// to LogNotifier.
func NewScheduler(store *assistant.Service, notifier Notifier, cfg DispatcherConfig, interval time.Duration) *Scheduler {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	s := &Scheduler{
		store:    store,
		notifier: notifier,
		interval: interval,
	}
	s.dispatcher = NewDispatcher(cfg, s.deliver)
	return s
}

// Start launches the polling loop. Cancelling ctx stops the loop and shuts
// the dispatcher down with it; an in-flight poll always runs to completion
// first.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.dispatcher.Stop()
			return
		case <-ticker.C:
			for _, r := range s.PollDue(time.Now().UTC()) {
				s.dispatcher.Enqueue(Job{Type: Deliver, Reminder: r})
			}
		}
	}
}

// PollDue claims every reminder due at or before now and returns the
// claimed set. Store failures are logged; the polling loop must never
// crash. Records the store managed to claim are returned even when the
// rest of the batch failed, since a claimed record is invisible to every
// later poll and would otherwise never be delivered.
func (s *Scheduler) PollDue(now time.Time) []models.Reminder {
	claimed, err := s.store.ClaimDue(context.Background(), now)
	if err != nil {
		log.Printf("poll due reminders: %v", err)
	}
	return claimed
}

// deliver runs on a pool worker: notify the transport, then record the
// firing as an assistant turn so the context window shows it.
func (s *Scheduler) deliver(job Job) {
	r := job.Reminder
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	if err := s.notifier.Notify(ctx, r); err != nil {
		log.Printf("notify chat %d reminder %s: %v", r.ChatID, r.ID, err)
	}
	if _, err := s.store.AppendMessage(ctx, models.Message{
		ChatID: r.ChatID,
		Role:   models.RoleAssistant,
		Text:   "Reminder: " + r.Message,
	}); err != nil {
		log.Printf("record reminder delivery for chat %d: %v", r.ChatID, err)
	}
}
