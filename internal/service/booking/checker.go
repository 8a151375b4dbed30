package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tutora/backend/internal/domain"
	"tutora/backend/internal/store"
)

// ConflictChecker reads the appointments overlapping a proposed slot and
// decides which of them the slot cannot share with. It never writes.
type ConflictChecker struct {
	q store.OverlapQuerier
}

func NewConflictChecker(q store.OverlapQuerier) *ConflictChecker {
	return &ConflictChecker{q: q}
}

// Overlapping returns the stored appointments intersecting [start, end).
func (c *ConflictChecker) Overlapping(ctx context.Context, start, end time.Time) ([]domain.Appointment, error) {
	rows, err := c.q.ListOverlapping(ctx, start.UTC(), end.UTC())
	if err != nil {
		return nil, &PersistenceError{Op: "list overlapping appointments", Err: err}
	}
	return rows, nil
}

// HasConflict reports whether a session of svc on [start, end) would collide
// with an existing appointment. A nil svc conflicts with any overlap.
func (c *ConflictChecker) HasConflict(ctx context.Context, start, end time.Time, svc *domain.ServiceSnapshot) (bool, error) {
	rows, err := c.Overlapping(ctx, start, end)
	if err != nil {
		return false, err
	}
	return len(Incompatible(svc, start, end, 0, rows)) > 0, nil
}

// Incompatible returns the ids of the overlapping appointments a new session
// of svc on [start, end) with seats clients cannot coexist with. Appointments
// it may share with are reported only when, at some instant of the slot, their
// seats plus the new ones exceed the capacity; those active at that instant
// are the ones reported.
func Incompatible(svc *domain.ServiceSnapshot, start, end time.Time, seats int, overlapping []domain.Appointment) []uuid.UUID {
	var (
		blocking []uuid.UUID
		shared   []domain.Appointment
	)
	for _, existing := range overlapping {
		if !domain.Overlaps(start, end, existing.DateFrom, existing.DateTo) {
			continue
		}
		if svc == nil || !domain.CanShareSlot(*svc, existing.Service) {
			blocking = append(blocking, existing.ID)
			continue
		}
		shared = append(shared, existing)
	}
	if len(shared) == 0 {
		return blocking
	}

	// Occupancy only rises where a session starts, so the slot start and the
	// shared starts inside the slot cover every peak.
	points := []time.Time{start}
	for _, a := range shared {
		if a.DateFrom.After(start) {
			points = append(points, a.DateFrom)
		}
	}

	over := make(map[uuid.UUID]struct{})
	for _, t := range points {
		taken := seats
		var active []uuid.UUID
		for _, a := range shared {
			if !a.DateFrom.After(t) && a.DateTo.After(t) {
				taken += a.SeatsTaken()
				active = append(active, a.ID)
			}
		}
		if taken > svc.Capacity {
			for _, id := range active {
				over[id] = struct{}{}
			}
		}
	}
	for _, a := range shared {
		if _, ok := over[a.ID]; ok {
			blocking = append(blocking, a.ID)
		}
	}
	return blocking
}
