package booking

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"tutora/backend/internal/domain"
	"tutora/backend/internal/store"
)

// memStore is an in-memory appointments table. InBookingTransaction restores
// the rows when fn fails, like a rolled back transaction.
type memStore struct {
	rows map[uuid.UUID]domain.Appointment

	txCalls      int
	creates      int
	listErr      error
	getFn        func(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	listFn       func(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.Appointment, error)
	listStatusFn func(ctx context.Context, status domain.AppointmentStatus) ([]domain.Appointment, error)
	deleteFn     func(ctx context.Context, id uuid.UUID) error
}

func newMemStore(existing ...domain.Appointment) *memStore {
	m := &memStore{rows: make(map[uuid.UUID]domain.Appointment)}
	for _, a := range existing {
		m.rows[a.ID] = a
	}
	return m
}

func (m *memStore) Get(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	if m.getFn == nil {
		panic("Get not configured")
	}
	return m.getFn(ctx, id)
}

func (m *memStore) List(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.Appointment, error) {
	if m.listFn == nil {
		panic("List not configured")
	}
	return m.listFn(ctx, windowStart, windowEnd)
}

func (m *memStore) ListByStatus(ctx context.Context, status domain.AppointmentStatus) ([]domain.Appointment, error) {
	if m.listStatusFn == nil {
		panic("ListByStatus not configured")
	}
	return m.listStatusFn(ctx, status)
}

func (m *memStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn == nil {
		panic("Delete not configured")
	}
	return m.deleteFn(ctx, id)
}

func (m *memStore) ListOverlapping(ctx context.Context, start, end time.Time) ([]domain.Appointment, error) {
	return memTx{m}.ListOverlapping(ctx, start, end)
}

func (m *memStore) InBookingTransaction(ctx context.Context, fn func(ctx context.Context, tx store.BookingTx) error) error {
	m.txCalls++
	saved := maps.Clone(m.rows)
	savedCreates := m.creates
	if err := fn(ctx, memTx{m}); err != nil {
		m.rows = saved
		m.creates = savedCreates
		return err
	}
	return nil
}

type memTx struct {
	m *memStore
}

func (t memTx) ListOverlapping(ctx context.Context, start, end time.Time) ([]domain.Appointment, error) {
	if t.m.listErr != nil {
		return nil, t.m.listErr
	}
	var out []domain.Appointment
	for _, a := range t.m.rows {
		if a.Overlaps(start, end) {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b domain.Appointment) int { return a.DateFrom.Compare(b.DateFrom) })
	return out, nil
}

func (t memTx) GetAppointment(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	a, ok := t.m.rows[id]
	if !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	a.Clients = slices.Clone(a.Clients)
	return a, nil
}

func (t memTx) CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	if existing, ok := t.m.rows[appt.ID]; ok {
		if !existing.DateFrom.Equal(appt.DateFrom) || existing.Service.ID != appt.Service.ID {
			return domain.Appointment{}, store.ErrIdempotencyConflict
		}
		return existing, nil
	}
	t.m.creates++
	t.m.rows[appt.ID] = appt
	return appt, nil
}

func (t memTx) ReplaceAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	if _, ok := t.m.rows[appt.ID]; !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	t.m.rows[appt.ID] = appt
	return appt, nil
}

func (t memTx) UpdateClients(ctx context.Context, id uuid.UUID, clients []domain.ClientSnapshot) error {
	a, ok := t.m.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	a.Clients = slices.Clone(clients)
	t.m.rows[id] = a
	return nil
}

func (t memTx) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AppointmentStatus) error {
	a, ok := t.m.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	a.Status = status
	t.m.rows[id] = a
	return nil
}

func (t memTx) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	if _, ok := t.m.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.m.rows, id)
	return nil
}

type recordedIncome struct {
	at    time.Time
	entry domain.LedgerEntry
}

type fakeLedger struct {
	recorded []recordedIncome
	err      error
}

func (f *fakeLedger) RecordIncome(ctx context.Context, at time.Time, entry domain.LedgerEntry) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, recordedIncome{at: at, entry: entry})
	return nil
}
