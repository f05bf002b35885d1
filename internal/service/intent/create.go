package intent

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"chatminder/internal/models"
	"chatminder/internal/service/assistant"
)

const confirmTemplate = "reminder_confirmation"

var durationTailRe = regexp.MustCompile(`(?i)\bremind me( to)?\b|\breminder\b|\bin\b.*|\bminutes?\b.*|\bhours?\b.*|\bdays?\b.*`)

// CreateReminder materializes a reminder from the decision. It returns
// whether a reminder was stored and the text to show the user. On any
// failure the conversation state is left untouched so the user's slots
// survive a retry.
func (e *Engine) CreateReminder(ctx context.Context, d *models.Decision) (bool, string) {
	if !d.ReadyToCreate {
		e.lastChanceExtract(d)
	}
	if !d.ReadyToCreate {
		var missing []string
		if !d.HasTime() {
			missing = append(missing, "time")
		}
		if d.ReminderMessage == "" {
			missing = append(missing, "message")
		}
		return false, "Can't create reminder yet. Missing: " + strings.Join(missing, ", ")
	}

	if d.ChatID == 0 || d.ReminderMessage == "" || d.DueTime.IsZero() {
		return false, "Missing essential reminder information"
	}

	userName := d.UserName
	if userName == "" {
		userName = "User"
	}
	created := d.Timestamp
	if created.IsZero() {
		created = time.Now().UTC()
	}

	reminder := &models.Reminder{
		ID:        reminderID(d.ChatID, created),
		ChatID:    d.ChatID,
		UserName:  userName,
		Message:   d.ReminderMessage,
		CreatedAt: created,
		DueAt:     d.DueTime,
		TimeStr:   d.TimeStr,
	}
	if err := e.store.CreateReminder(ctx, reminder); err != nil {
		log.Printf("create reminder for chat %d: %v", d.ChatID, err)
		return false, "I had trouble setting that reminder. Please try again."
	}

	// The multi-turn flow ends here.
	e.state.Clear(d.ChatID)

	timePhrase := assistant.DuePhrase(d.DueTime, d.TimeStr)
	log.Printf("created reminder %q for chat %d %s", d.ReminderMessage, d.ChatID, timePhrase)

	if e.confirmer != nil && d.DueTime.Sub(created) > time.Minute {
		confirmation, err := e.confirmer.Generate(ctx, confirmTemplate, map[string]string{
			"message":   d.ReminderMessage,
			"time":      timePhrase,
			"user_name": userName,
		})
		if err != nil {
			log.Printf("confirmation generation for chat %d: %v", d.ChatID, err)
		} else if acceptableConfirmation(confirmation) {
			return true, confirmation
		}
	}

	return true, fmt.Sprintf("✅ I'll remind you about '%s' %s.", d.ReminderMessage, timePhrase)
}

// lastChanceExtract retries extraction straight from the original message
// when it carries a relative-duration cue, covering decisions that arrived
// unready from an earlier turn.
func (e *Engine) lastChanceExtract(d *models.Decision) {
	lower := strings.ToLower(d.OriginalMessage)
	if !strings.Contains(lower, "in") {
		return
	}
	if !strings.Contains(lower, "minute") && !strings.Contains(lower, "min") &&
		!strings.Contains(lower, "hour") && !strings.Contains(lower, "day") {
		return
	}
	due, timeStr, ok := e.extractor.Extract(d.OriginalMessage, d.Timestamp)
	if !ok {
		return
	}
	d.DueTime = due
	d.TimeStr = timeStr
	content := strings.Trim(durationTailRe.ReplaceAllString(d.OriginalMessage, ""), " \t.,!?")
	if len(content) > minContentLen {
		d.ReminderMessage = content
		d.ReadyToCreate = true
	}
}

// acceptableConfirmation guards against a degenerate or off-topic
// generated string reaching the user.
func acceptableConfirmation(text string) bool {
	return len(text) > 20 && strings.Contains(strings.ToLower(text), "remind")
}

// reminderID is legible (chat and second of creation) with a random suffix
// so two reminders created in the same second cannot collide.
func reminderID(chatID int64, created time.Time) string {
	return fmt.Sprintf("reminder-%d-%d-%s", chatID, created.Unix(), uuid.NewString()[:8])
}
