package domain

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Service is a bookable offering. Capacity is the number of clients that may
// share one booked slot; a value of 1 makes the service one-on-one.
type Service struct {
	bun.BaseModel `bun:"table:services"`

	ID              uuid.UUID       `bun:"id,pk,type:uuid" json:"id"`
	Name            string          `bun:"name,notnull" json:"name"`
	Description     string          `bun:"description" json:"description"`
	DurationMinutes int             `bun:"duration_minutes,notnull" json:"durationMinutes"`
	SessionPrice    decimal.Decimal `bun:"session_price,type:numeric(12,2),notnull" json:"sessionPrice"`
	Capacity        int             `bun:"student_number,notnull" json:"studentNumber"`
	AvailableDays   []string        `bun:"available_days,array" json:"availableDays"`
	CreatedAt       time.Time       `bun:"created_at,notnull" json:"createdDate"`
	UpdatedAt       time.Time       `bun:"updated_at,notnull" json:"updatedAt"`
}

func (s *Service) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stampModel(query, &s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (s *Service) EntityID() uuid.UUID      { return s.ID }
func (s *Service) SetEntityID(id uuid.UUID) { s.ID = id }

// Snapshot copies the service into the immutable value embedded in
// appointments. Later edits to the service do not reach the snapshot.
func (s Service) Snapshot() ServiceSnapshot {
	return ServiceSnapshot{
		ID:              s.ID,
		Name:            s.Name,
		Description:     s.Description,
		DurationMinutes: s.DurationMinutes,
		SessionPrice:    s.SessionPrice,
		Capacity:        s.Capacity,
		AvailableDays:   slices.Clone(s.AvailableDays),
	}
}

// ServiceSnapshot is the denormalised copy of a Service stored on an
// appointment at booking time.
type ServiceSnapshot struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	DurationMinutes int             `json:"durationMinutes"`
	SessionPrice    decimal.Decimal `json:"sessionPrice"`
	Capacity        int             `json:"studentNumber"`
	AvailableDays   []string        `json:"availableDays,omitempty"`
}

func (s ServiceSnapshot) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}
