package assistant

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"chatminder/internal/models"
)

// Sentinel narratives returned by WindowContext. Callers must treat both as
// valid degraded output, not as conversation content.
const (
	NoContextSentinel    = "No recent context available."
	ContextErrorSentinel = "Error retrieving context."
)

// Event is one timestamped entry in the aggregated timeline. New record
// kinds join the narrative by contributing a pre-sorted Event stream.
type Event struct {
	At   time.Time
	Line string
}

// mergeTimeline merges pre-sorted event streams into one sequence ordered
// ascending by timestamp. Ties keep the order streams were passed in, so
// the result is deterministic for identical inputs.
func mergeTimeline(streams ...[]Event) []Event {
	total := 0
	for _, s := range streams {
		total += len(s)
	}
	merged := make([]Event, 0, total)
	heads := make([]int, len(streams))
	for len(merged) < total {
		best := -1
		for i, s := range streams {
			if heads[i] >= len(s) {
				continue
			}
			if best == -1 || s[heads[i]].At.Before(streams[best][heads[best]].At) {
				best = i
			}
		}
		merged = append(merged, streams[best][heads[best]])
		heads[best]++
	}
	return merged
}

// WindowContext merges the chat's messages and reminders from the trailing
// window into one chronological narrative. Store failures degrade to the
// error sentinel; an empty window yields the no-context sentinel.
func (s *Service) WindowContext(ctx context.Context, chatID int64, windowMinutes int, now time.Time) string {
	if windowMinutes <= 0 {
		windowMinutes = 10
	}
	cutoff := now.Add(-time.Duration(windowMinutes) * time.Minute)

	messages, err := s.MessagesBetween(ctx, chatID, cutoff, now)
	if err != nil {
		log.Printf("window context messages for chat %d: %v", chatID, err)
		return ContextErrorSentinel
	}
	reminders, err := s.RemindersBetween(ctx, chatID, cutoff, now)
	if err != nil {
		log.Printf("window context reminders for chat %d: %v", chatID, err)
		return ContextErrorSentinel
	}

	msgEvents := make([]Event, 0, len(messages))
	for _, m := range messages {
		author := m.Author
		if !m.IsUser() {
			author = models.AssistantName
		}
		msgEvents = append(msgEvents, Event{At: m.CreatedAt, Line: fmt.Sprintf("%s: %s", author, m.Text)})
	}
	remEvents := make([]Event, 0, len(reminders))
	for _, r := range reminders {
		remEvents = append(remEvents, Event{At: r.CreatedAt, Line: fmt.Sprintf("[System] Reminder set: %s", r.Message)})
	}

	merged := mergeTimeline(msgEvents, remEvents)
	if len(merged) == 0 {
		return NoContextSentinel
	}

	var b strings.Builder
	b.WriteString("Recent conversation and activity:\n")
	for _, ev := range merged {
		b.WriteString(ev.Line)
		b.WriteByte('\n')
	}
	return b.String()
}
