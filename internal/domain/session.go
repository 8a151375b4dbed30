package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session identifies the signed-in administrator on whose behalf an operation
// runs. Every booking entry point takes one explicitly.
type Session struct {
	ID        string
	UserID    uuid.UUID
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Valid reports whether s is a live session at now. A nil session is never
// valid.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.ID == "" || s.UserID == uuid.Nil {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}
