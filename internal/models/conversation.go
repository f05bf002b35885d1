package models

import "time"

// Intent tags which multi-turn flow a conversation is currently in.
type Intent string

const (
	IntentNone     Intent = ""
	IntentReminder Intent = "reminder"
)

// Recognized slot names for the reminder flow.
const (
	SlotTimeInfo        = "time_info"
	SlotDueTime         = "due_time"
	SlotTimeStr         = "time_str"
	SlotReminderMessage = "reminder_message"
)

// ConversationState holds the in-progress intent for one chat. At most one
// intent is active per chat id; the state is overwritten in place each turn
// and cleared when a reminder is created or an unrelated intent begins.
type ConversationState struct {
	ChatID  int64             `json:"chat_id"`
	Intent  Intent            `json:"intent"`
	Slots   map[string]string `json:"slots"`
	DueTime time.Time         `json:"due_time"`
	Turns   int               `json:"turns"`
}

// Slot returns the named slot value, empty when unset.
func (s *ConversationState) Slot(name string) string {
	if s == nil || s.Slots == nil {
		return ""
	}
	return s.Slots[name]
}

// SetSlot stores a slot value, allocating the map on first use. Later
// arrivals overwrite earlier identical-named slots, so a corrected time
// expression supersedes the first one.
func (s *ConversationState) SetSlot(name, value string) {
	if s.Slots == nil {
		s.Slots = make(map[string]string)
	}
	s.Slots[name] = value
}

// Decision is the transient working structure the slot-filling engine builds
// per incoming message. It is never persisted; the reminder-creation step
// consumes it once.
type Decision struct {
	Intent          Intent
	ChatID          int64
	UserName        string
	OriginalMessage string
	Timestamp       time.Time

	TimeInfo        string
	DueTime         time.Time
	TimeStr         string
	ReminderMessage string

	ReadyToCreate bool
}

// HasTime reports whether this decision carries any time information,
// either the raw cue or a resolved due time.
func (d *Decision) HasTime() bool {
	return d.TimeInfo != "" || !d.DueTime.IsZero()
}
