package worker

import "chatminder/internal/models"

type JobType int

const (
	Deliver JobType = iota
	Stop
)

// Job carries one fired reminder to a delivery worker.
type Job struct {
	Type     JobType
	Reminder models.Reminder
}

func (job Job) chatID() int64 {
	return job.Reminder.ChatID
}
