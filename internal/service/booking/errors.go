package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tutora/backend/internal/domain"
)

var ErrUnauthenticated = domain.ErrUnauthenticated

// ConflictError aborts a whole batch: the slot starting at Date overlaps the
// listed appointments and cannot share with them.
type ConflictError struct {
	Date        time.Time
	Conflicting []uuid.UUID
}

func (e *ConflictError) Error() string {
	ids := make([]string, 0, len(e.Conflicting))
	for _, id := range e.Conflicting {
		ids = append(ids, id.String())
	}
	return fmt.Sprintf("slot at %s conflicts with appointments [%s]", e.Date.UTC().Format(time.RFC3339), strings.Join(ids, ", "))
}

// PersistenceError wraps a failed read or write against the appointment
// store. Nothing from the failed operation was committed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// SecondaryEffectWarning reports a side effect that failed after the primary
// write committed. It is returned in results, never as an error.
type SecondaryEffectWarning struct {
	Effect string
	Err    error
}

func (w *SecondaryEffectWarning) String() string {
	return w.Effect + " failed: " + w.Err.Error()
}
