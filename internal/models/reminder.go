package models

import "time"

// Reminder is a scheduled notification persisted until it fires.
// Records are append-only: the only mutation after creation is the
// completed flag, flipped exactly once by the scheduler.
type Reminder struct {
	ID        string    `json:"id"`
	ChatID    int64     `json:"chat_id"`
	UserName  string    `json:"user_name"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	DueAt     time.Time `json:"due_at"`
	TimeStr   string    `json:"time_str"`
	Completed bool      `json:"completed"`
}
