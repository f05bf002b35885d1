package assistant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"chatminder/internal/models"
)

// CreateReminder persists a new reminder record. due_at must be set before
// the record reaches the store.
func (s *Service) CreateReminder(ctx context.Context, r *models.Reminder) error {
	if r == nil {
		return errors.New("reminder is required")
	}
	if r.ID == "" {
		return errors.New("reminder id is required")
	}
	if r.ChatID == 0 {
		return errors.New("chat_id is required")
	}
	if r.DueAt.IsZero() {
		return errors.New("due_at is required")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders (id, chat_id, user_name, message, created_at, due_at, time_str, completed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		r.ID, r.ChatID, r.UserName, r.Message, r.CreatedAt, r.DueAt, r.TimeStr,
	)
	if err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

// ActiveReminders returns the chat's incomplete reminders ordered by due time.
func (s *Service) ActiveReminders(ctx context.Context, chatID int64) ([]models.Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chat_id, user_name, message, created_at, due_at, time_str, completed
		 FROM reminders WHERE chat_id = ? AND completed = 0 ORDER BY due_at ASC`,
		chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("list active reminders: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

// RemindersBetween returns the chat's reminders created in [since, until],
// completed or not, ordered by creation time. Used by the context window.
func (s *Service) RemindersBetween(ctx context.Context, chatID int64, since, until time.Time) ([]models.Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chat_id, user_name, message, created_at, due_at, time_str, completed
		 FROM reminders WHERE chat_id = ? AND created_at >= ? AND created_at <= ?
		 ORDER BY created_at ASC, id ASC`,
		chatID, since, until,
	)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

// ClaimDue flips completed on every reminder due at or before now and
// returns the claimed records. The flip is a conditional update per record,
// so a reminder is handed out by at most one caller even when polls overlap.
// A record whose flip fails is skipped and stays claimable by a later poll;
// records already flipped in the batch are always returned, alongside the
// first error encountered.
func (s *Service) ClaimDue(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chat_id, user_name, message, created_at, due_at, time_str, completed
		 FROM reminders WHERE completed = 0 AND due_at <= ? ORDER BY due_at ASC`,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("query due reminders: %w", err)
	}
	candidates, err := func() ([]models.Reminder, error) {
		defer rows.Close()
		return scanReminders(rows)
	}()
	if err != nil {
		return nil, err
	}

	var claimed []models.Reminder
	var claimErr error
	for _, r := range candidates {
		res, err := s.db.ExecContext(ctx,
			`UPDATE reminders SET completed = 1 WHERE id = ? AND completed = 0`, r.ID,
		)
		if err != nil {
			if claimErr == nil {
				claimErr = fmt.Errorf("claim reminder %s: %w", r.ID, err)
			}
			continue
		}
		affected, err := res.RowsAffected()
		if err != nil {
			if claimErr == nil {
				claimErr = fmt.Errorf("claim reminder %s: %w", r.ID, err)
			}
			continue
		}
		if affected == 0 {
			// Another poll got here first.
			continue
		}
		r.Completed = true
		claimed = append(claimed, r)
	}
	return claimed, claimErr
}

// FormatActiveReminders renders the chat's active reminders for display.
func (s *Service) FormatActiveReminders(ctx context.Context, chatID int64) (string, error) {
	reminders, err := s.ActiveReminders(ctx, chatID)
	if err != nil {
		return "", err
	}
	if len(reminders) == 0 {
		return "You don't have any active reminders.", nil
	}
	var b strings.Builder
	b.WriteString("Your active reminders:\n\n")
	for _, r := range reminders {
		fmt.Fprintf(&b, "• %s - %s\n", r.Message, DuePhrase(r.DueAt, r.TimeStr))
	}
	return b.String(), nil
}

// DuePhrase renders when a reminder fires: clock-style display strings are
// reformatted from the due time, everything else is shown verbatim.
func DuePhrase(dueAt time.Time, timeStr string) string {
	if strings.Contains(timeStr, "at") {
		return "at " + dueAt.Format("03:04 PM")
	}
	return timeStr
}

func scanReminders(rows *sql.Rows) ([]models.Reminder, error) {
	var reminders []models.Reminder
	for rows.Next() {
		var r models.Reminder
		if err := rows.Scan(&r.ID, &r.ChatID, &r.UserName, &r.Message, &r.CreatedAt, &r.DueAt, &r.TimeStr, &r.Completed); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}
