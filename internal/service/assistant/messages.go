package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chatminder/internal/models"
)

// AppendMessage stores one conversation turn. The message timestamp is
// taken from the record when set, so importers and tests can backdate;
// otherwise the current time is used.
func (s *Service) AppendMessage(ctx context.Context, msg models.Message) (*models.Message, error) {
	if msg.ChatID == 0 {
		return nil, errors.New("chat_id is required")
	}
	msg.Text = strings.TrimSpace(msg.Text)
	if msg.Text == "" {
		return nil, errors.New("text cannot be empty")
	}
	if msg.Role == "" {
		msg.Role = models.RoleUser
	}
	if msg.Author == "" && msg.Role == models.RoleAssistant {
		msg.Author = models.AssistantName
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (chat_id, author, role, text, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ChatID, msg.Author, msg.Role, msg.Text, msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}
	msg.ID = id
	return &msg, nil
}

// MessagesBetween returns the chat's turns with created_at in [since, until],
// ordered ascending by time then insertion.
func (s *Service) MessagesBetween(ctx context.Context, chatID int64, since, until time.Time) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chat_id, author, role, text, created_at FROM messages
		 WHERE chat_id = ? AND created_at >= ? AND created_at <= ?
		 ORDER BY created_at ASC, id ASC`,
		chatID, since, until,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Author, &m.Role, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
