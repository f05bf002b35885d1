package assistant

import (
	"database/sql"
)

// Service handles conversation history and reminder persistence.
type Service struct {
	db *sql.DB
}

// NewService builds a new assistant service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}
