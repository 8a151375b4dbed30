package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutora/backend/internal/domain"
	"tutora/backend/internal/store"
)

var appointmentColumns = []string{"id", "service", "clients", "date_from", "date_to", "status", "created_date", "updated_at"}

func newMockRepo(t *testing.T) (*AppointmentRepo, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := NewDB(sqlDB)
	t.Cleanup(func() { _ = db.Close() })
	return NewAppointmentRepo(db), mock
}

func appointmentRow(t *testing.T, rows *sqlmock.Rows, a domain.Appointment) *sqlmock.Rows {
	t.Helper()
	svc, err := json.Marshal(a.Service)
	require.NoError(t, err)
	clients, err := json.Marshal(a.Clients)
	require.NoError(t, err)
	return rows.AddRow(a.ID.String(), svc, clients, a.DateFrom, a.DateTo, string(a.Status), a.CreatedDate, a.UpdatedAt)
}

func sampleAppointment() domain.Appointment {
	start := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	return domain.Appointment{
		ID: uuid.MustParse("00000000-0000-0000-0000-000000000501"),
		Service: domain.ServiceSnapshot{
			ID:              uuid.MustParse("00000000-0000-0000-0000-000000000101"),
			Name:            "Piano",
			DurationMinutes: 30,
			SessionPrice:    decimal.RequireFromString("25"),
			Capacity:        1,
		},
		Clients: []domain.ClientSnapshot{{
			ID:          uuid.MustParse("00000000-0000-0000-0000-000000000201"),
			FirstName:   "Rami",
			LastName:    "Haddad",
			PhoneNumber: "70123456",
			AmountToPay: decimal.RequireFromString("25"),
		}},
		DateFrom:    start,
		DateTo:      start.Add(30 * time.Minute),
		Status:      domain.AppointmentStatusNew,
		CreatedDate: start.Add(-time.Hour),
		UpdatedAt:   start.Add(-time.Hour),
	}
}

func TestAppointmentRepo_ListOverlappingUsesHalfOpenBounds(t *testing.T) {
	repo, mock := newMockRepo(t)
	a := sampleAppointment()

	rows := appointmentRow(t, sqlmock.NewRows(appointmentColumns), a)
	mock.ExpectQuery(`FROM "appointments" AS "appointment" WHERE \(date_from < .+\) AND \(date_to > .+\) ORDER BY date_from ASC`).
		WillReturnRows(rows)

	got, err := repo.ListOverlapping(context.Background(), a.DateFrom.Add(15*time.Minute), a.DateTo.Add(15*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)
	assert.Equal(t, "Piano", got[0].Service.Name)
	require.Len(t, got[0].Clients, 1)
	assert.True(t, got[0].Clients[0].AmountToPay.Equal(decimal.RequireFromString("25")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepo_GetMissingIsNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`FROM "appointments" AS "appointment" WHERE \(id = .+\) LIMIT 1`).
		WillReturnRows(sqlmock.NewRows(appointmentColumns))

	_, err := repo.Get(context.Background(), uuid.MustParse("00000000-0000-0000-0000-000000000999"))
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepo_BookingTransactionTakesLockFirst(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(hashtext\('tutora:appointments'\)\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FROM "appointments" AS "appointment" WHERE \(date_from < .+\)`).
		WillReturnRows(sqlmock.NewRows(appointmentColumns))
	mock.ExpectCommit()

	err := repo.InBookingTransaction(context.Background(), func(ctx context.Context, tx store.BookingTx) error {
		rows, err := tx.ListOverlapping(ctx, time.Now(), time.Now().Add(time.Hour))
		if err != nil {
			return err
		}
		assert.Empty(t, rows)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepo_BookingTransactionRollsBackOnError(t *testing.T) {
	repo, mock := newMockRepo(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.InBookingTransaction(context.Background(), func(ctx context.Context, tx store.BookingTx) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepo_CreateReplayWithDifferentBookingConflicts(t *testing.T) {
	repo, mock := newMockRepo(t)
	stored := sampleAppointment()

	replay := stored
	replay.DateFrom = stored.DateFrom.Add(time.Hour)
	replay.DateTo = stored.DateTo.Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO "appointments" .+ ON CONFLICT \(id\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FROM "appointments" AS "appointment" WHERE \(id = .+\)`).
		WillReturnRows(appointmentRow(t, sqlmock.NewRows(appointmentColumns), stored))
	mock.ExpectRollback()

	err := repo.InBookingTransaction(context.Background(), func(ctx context.Context, tx store.BookingTx) error {
		_, err := tx.CreateAppointment(ctx, replay)
		return err
	})
	assert.ErrorIs(t, err, store.ErrIdempotencyConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepo_CreateReplayOfSameBookingReturnsStored(t *testing.T) {
	repo, mock := newMockRepo(t)
	stored := sampleAppointment()

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO "appointments"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FROM "appointments" AS "appointment" WHERE \(id = .+\)`).
		WillReturnRows(appointmentRow(t, sqlmock.NewRows(appointmentColumns), stored))
	mock.ExpectCommit()

	var got domain.Appointment
	err := repo.InBookingTransaction(context.Background(), func(ctx context.Context, tx store.BookingTx) error {
		a, err := tx.CreateAppointment(ctx, stored)
		got = a
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, stored.ID, got.ID)
	assert.True(t, got.CreatedDate.Equal(stored.CreatedDate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepo_DeleteMissingIsNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "appointments"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), uuid.MustParse("00000000-0000-0000-0000-000000000777"))
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSameBooking(t *testing.T) {
	base := sampleAppointment()

	tests := []struct {
		name   string
		mutate func(a *domain.Appointment)
		want   bool
	}{
		{name: "identical", mutate: func(a *domain.Appointment) {}, want: true},
		{name: "paid flag ignored", mutate: func(a *domain.Appointment) { a.Clients = []domain.ClientSnapshot{{ID: base.Clients[0].ID, Paid: true}} }, want: true},
		{name: "different service", mutate: func(a *domain.Appointment) { a.Service.ID = uuid.New() }, want: false},
		{name: "moved slot", mutate: func(a *domain.Appointment) { a.DateFrom = a.DateFrom.Add(time.Minute) }, want: false},
		{name: "extra client", mutate: func(a *domain.Appointment) {
			a.Clients = append([]domain.ClientSnapshot{}, append(a.Clients, domain.ClientSnapshot{ID: uuid.New()})...)
		}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := base
			other.Clients = append([]domain.ClientSnapshot(nil), base.Clients...)
			tt.mutate(&other)
			assert.Equal(t, tt.want, sameBooking(base, other))
		})
	}
}
