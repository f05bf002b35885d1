package intent

import (
	"context"
	"regexp"
	"strings"
	"time"

	"chatminder/internal/convstate"
	"chatminder/internal/models"
	"chatminder/internal/service/assistant"
	"chatminder/internal/timeparse"
)

// A message must keep this many characters of content after stripping
// trigger and time phrasing to count as a complete reminder.
const minContentLen = 2

var (
	triggerRe  = regexp.MustCompile(`(?i)\bremind me( to)?\b|\breminder\b`)
	timeTailRe = regexp.MustCompile(`(?i)\bat\b.*|\bin\b.*|\btomorrow\b.*|\btoday\b.*`)
	listRe     = regexp.MustCompile(`(?i)(list|show|view|do i have|any) reminders`)
)

// ConfirmationGenerator phrases a confirmation from structured reminder
// fields. Implementations may be slow, unavailable, or wrong; the engine
// filters their output and always has a template fallback.
type ConfirmationGenerator interface {
	Generate(ctx context.Context, template string, fields map[string]string) (string, error)
}

// Engine reconciles newly parsed time/content fragments with stored
// partial state to decide when a reminder can materialize.
type Engine struct {
	state     *convstate.Store
	store     *assistant.Service
	extractor timeparse.Extractor
	confirmer ConfirmationGenerator
}

// NewEngine builds the slot-filling engine. confirmer may be nil, in which
// case every confirmation uses the deterministic template.
func NewEngine(state *convstate.Store, store *assistant.Service, extractor timeparse.Extractor, confirmer ConfirmationGenerator) *Engine {
	return &Engine{
		state:     state,
		store:     store,
		extractor: extractor,
		confirmer: confirmer,
	}
}

// IsReminderTrigger reports whether text starts a reminder flow.
func IsReminderTrigger(text string) bool {
	return triggerRe.MatchString(text)
}

// IsListRequest reports whether text asks for the chat's active reminders.
func IsListRequest(text string) bool {
	return listRe.MatchString(text)
}

// Process runs one message through the slot-filling state machine and
// returns the resulting decision. The merged slot set is persisted back to
// the conversation state whether or not the reminder is ready; state is
// only cleared by a successful CreateReminder.
func (e *Engine) Process(chatID int64, userName, text string, now time.Time) *models.Decision {
	text = strings.TrimSpace(text)
	d := &models.Decision{
		Intent:          models.IntentReminder,
		ChatID:          chatID,
		UserName:        userName,
		OriginalMessage: text,
		Timestamp:       now,
	}

	e.state.Mutate(chatID, func(st *models.ConversationState) *models.ConversationState {
		// An unrelated active intent is abandoned when a reminder flow begins.
		if st == nil || st.Intent != models.IntentReminder {
			st = &models.ConversationState{ChatID: chatID, Intent: models.IntentReminder}
		}

		if timeparse.HasTimeCue(text) {
			if due, timeStr, ok := e.extractor.Extract(text, now); ok {
				content := stripReminderPhrasing(text)
				if len(content) > minContentLen {
					// Complete single-turn reminder. The slots still go into
					// state before returning so a crash mid-flow leaves
					// recoverable progress.
					cue := timeparse.FirstCue(text)
					d.TimeInfo, d.DueTime, d.TimeStr = cue, due, timeStr
					d.ReminderMessage = content
					d.ReadyToCreate = true
					st.SetSlot(models.SlotTimeInfo, cue)
					st.SetSlot(models.SlotTimeStr, timeStr)
					st.SetSlot(models.SlotReminderMessage, content)
					st.DueTime = due
					return st
				}

				// Time-only turn of a multi-turn fill.
				d.TimeInfo, d.DueTime, d.TimeStr = text, due, timeStr
				st.SetSlot(models.SlotTimeInfo, text)
				st.SetSlot(models.SlotTimeStr, timeStr)
				st.DueTime = due
				if msg := st.Slot(models.SlotReminderMessage); msg != "" {
					d.ReminderMessage = msg
					d.ReadyToCreate = true
				}
				st.Turns++
				return st
			}
		}

		// No usable time expression: the whole message is the content slot.
		d.ReminderMessage = text
		st.SetSlot(models.SlotReminderMessage, text)
		if st.Slot(models.SlotTimeInfo) != "" {
			d.TimeInfo = st.Slot(models.SlotTimeInfo)
			d.TimeStr = st.Slot(models.SlotTimeStr)
			d.DueTime = st.DueTime
			d.ReadyToCreate = true
		}
		st.Turns++
		return st
	})

	return d
}

// stripReminderPhrasing removes the trigger phrase and the temporal tail,
// leaving the reminder content.
func stripReminderPhrasing(text string) string {
	out := triggerRe.ReplaceAllString(text, "")
	out = timeTailRe.ReplaceAllString(out, "")
	return strings.Trim(out, " \t.,!?")
}
