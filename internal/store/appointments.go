package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tutora/backend/internal/domain"
)

// OverlapQuerier returns the appointments whose [dateFrom, dateTo) intersects
// [start, end), ordered by dateFrom.
type OverlapQuerier interface {
	ListOverlapping(ctx context.Context, start, end time.Time) ([]domain.Appointment, error)
}

type AppointmentRepository interface {
	OverlapQuerier

	Get(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	List(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.Appointment, error)
	ListByStatus(ctx context.Context, status domain.AppointmentStatus) ([]domain.Appointment, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// InBookingTransaction runs fn in one transaction that holds the
	// appointments calendar lock. Writes made through tx commit together or
	// not at all.
	InBookingTransaction(ctx context.Context, fn func(ctx context.Context, tx BookingTx) error) error
}

// BookingTx is the view of the appointments table inside a booking
// transaction.
type BookingTx interface {
	OverlapQuerier

	GetAppointment(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	// CreateAppointment inserts appt. When a row with the same id exists and
	// describes the same booking it is returned unchanged; otherwise
	// ErrIdempotencyConflict.
	CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	ReplaceAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	UpdateClients(ctx context.Context, id uuid.UUID, clients []domain.ClientSnapshot) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AppointmentStatus) error
	DeleteAppointment(ctx context.Context, id uuid.UUID) error
}
