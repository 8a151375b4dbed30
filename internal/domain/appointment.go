package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AppointmentStatus string

const (
	AppointmentStatusNew    AppointmentStatus = "new"
	AppointmentStatusClosed AppointmentStatus = "closed"
)

// Appointment is one booked slot of a service. Service and Clients are
// snapshots taken when the slot was booked.
type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID          uuid.UUID         `bun:"id,pk,type:uuid" json:"id"`
	Service     ServiceSnapshot   `bun:"service,type:jsonb,notnull" json:"service"`
	Clients     []ClientSnapshot  `bun:"clients,type:jsonb,notnull" json:"clients"`
	DateFrom    time.Time         `bun:"date_from,notnull" json:"dateFrom"`
	DateTo      time.Time         `bun:"date_to,notnull" json:"dateTo"`
	Status      AppointmentStatus `bun:"status,notnull" json:"status"`
	CreatedDate time.Time         `bun:"created_date,notnull" json:"createdDate"`
	UpdatedAt   time.Time         `bun:"updated_at,notnull" json:"updatedAt"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stampModel(query, &a.ID, &a.CreatedDate, &a.UpdatedAt)
}

// Overlaps reports whether [DateFrom, DateTo) intersects [start, end).
func (a Appointment) Overlaps(start, end time.Time) bool {
	return Overlaps(a.DateFrom, a.DateTo, start, end)
}

func (a Appointment) SeatsTaken() int {
	return len(a.Clients)
}

// ClientIndex returns the position of the client snapshot with the given id,
// or -1.
func (a Appointment) ClientIndex(clientID uuid.UUID) int {
	for i, c := range a.Clients {
		if c.ID == clientID {
			return i
		}
	}
	return -1
}

// Close moves the appointment to its terminal state.
func (a *Appointment) Close() error {
	if a.Status != AppointmentStatusNew {
		return ErrInvalidStatusTransition
	}
	a.Status = AppointmentStatusClosed
	return nil
}
