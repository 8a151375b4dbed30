package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"tutora/backend/internal/domain"
	"tutora/backend/internal/store"
)

// appointmentsLockKey names the advisory lock every booking transaction takes
// before reading the calendar.
const appointmentsLockKey = "tutora:appointments"

type AppointmentRepo struct {
	db *bun.DB
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

type bookingTx struct {
	tx bun.Tx
}

func (r *AppointmentRepo) Get(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	return getAppointment(ctx, r.db, id)
}

func (r *AppointmentRepo) List(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.Appointment, error) {
	return listOverlapping(ctx, r.db, windowStart, windowEnd)
}

func (r *AppointmentRepo) ListOverlapping(ctx context.Context, start, end time.Time) ([]domain.Appointment, error) {
	return listOverlapping(ctx, r.db, start, end)
}

func (r *AppointmentRepo) ListByStatus(ctx context.Context, status domain.AppointmentStatus) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		Where("status = ?", status).
		OrderExpr("date_from ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.InBookingTransaction(ctx, func(ctx context.Context, tx store.BookingTx) error {
		return tx.DeleteAppointment(ctx, id)
	})
}

func (r *AppointmentRepo) InBookingTransaction(ctx context.Context, fn func(ctx context.Context, tx store.BookingTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockAppointments(ctx, tx); err != nil {
			return err
		}
		return fn(ctx, bookingTx{tx: tx})
	})
}

func lockAppointments(ctx context.Context, tx bun.Tx) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", appointmentsLockKey).Exec(ctx)
	return err
}

func (r bookingTx) ListOverlapping(ctx context.Context, start, end time.Time) ([]domain.Appointment, error) {
	return listOverlapping(ctx, r.tx, start, end)
}

func (r bookingTx) GetAppointment(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	return getAppointment(ctx, r.tx, id)
}

func (r bookingTx) CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appt

	res, err := r.tx.NewInsert().
		Model(&m).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, mapWriteError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Appointment{}, err
	}
	if affected == 1 {
		return m, nil
	}

	existing, err := getAppointment(ctx, r.tx, m.ID)
	if err != nil {
		return domain.Appointment{}, err
	}
	if !sameBooking(existing, appt) {
		return domain.Appointment{}, store.ErrIdempotencyConflict
	}
	return existing, nil
}

func (r bookingTx) ReplaceAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appt
	res, err := r.tx.NewUpdate().
		Model(&m).
		WherePK().
		ExcludeColumn("id", "created_date").
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, mapWriteError(err)
	}
	if err := requireAffected(res); err != nil {
		return domain.Appointment{}, err
	}
	return m, nil
}

func (r bookingTx) UpdateClients(ctx context.Context, id uuid.UUID, clients []domain.ClientSnapshot) error {
	m := domain.Appointment{ID: id, Clients: clients}
	res, err := r.tx.NewUpdate().
		Model(&m).
		Column("clients", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r bookingTx) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AppointmentStatus) error {
	m := domain.Appointment{ID: id, Status: status}
	res, err := r.tx.NewUpdate().
		Model(&m).
		Column("status", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r bookingTx) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	res, err := r.tx.NewDelete().
		Model((*domain.Appointment)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func getAppointment(ctx context.Context, db bun.IDB, id uuid.UUID) (domain.Appointment, error) {
	var row domain.Appointment
	err := db.NewSelect().
		Model(&row).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return row, nil
}

func listOverlapping(ctx context.Context, db bun.IDB, start, end time.Time) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := db.NewSelect().
		Model(&rows).
		Where("date_from < ?", end).
		Where("date_to > ?", start).
		OrderExpr("date_from ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// sameBooking compares what a replayed submission controls: the service, the
// slot and the client list.
func sameBooking(a, b domain.Appointment) bool {
	if a.Service.ID != b.Service.ID ||
		!a.DateFrom.Equal(b.DateFrom) ||
		!a.DateTo.Equal(b.DateTo) ||
		len(a.Clients) != len(b.Clients) {
		return false
	}
	for i := range a.Clients {
		if a.Clients[i].ID != b.Clients[i].ID {
			return false
		}
	}
	return true
}
