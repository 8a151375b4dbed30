package grpc

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tutora/backend/internal/auth"
	"tutora/backend/internal/domain"
	"tutora/backend/internal/service/booking"
	"tutora/backend/internal/service/catalog"
	"tutora/backend/internal/service/ledger"
	"tutora/backend/internal/service/reminders"
)

type fakeAuth struct {
	signInFn       func(ctx context.Context, email, password string) (auth.SignInResult, error)
	authenticateFn func(ctx context.Context, token string) (*domain.Session, error)
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) (auth.SignInResult, error) {
	if f.signInFn == nil {
		panic("SignIn not configured")
	}
	return f.signInFn(ctx, email, password)
}

func (f *fakeAuth) SignOut(context.Context, *domain.Session) error { panic("SignOut not configured") }

func (f *fakeAuth) SendPasswordReset(context.Context, string) error {
	panic("SendPasswordReset not configured")
}

func (f *fakeAuth) ResetPassword(context.Context, string, string) error {
	panic("ResetPassword not configured")
}

func (f *fakeAuth) ChangePassword(context.Context, *domain.Session, string, string) error {
	panic("ChangePassword not configured")
}

func (f *fakeAuth) Authenticate(ctx context.Context, token string) (*domain.Session, error) {
	if f.authenticateFn == nil {
		panic("Authenticate not configured")
	}
	return f.authenticateFn(ctx, token)
}

type fakeCatalog struct {
	createClientFn func(ctx context.Context, sess *domain.Session, in catalog.ClientInput) (domain.Client, error)
	listClientsFn  func(ctx context.Context, sess *domain.Session, phone string) ([]domain.Client, error)
	createSvcFn    func(ctx context.Context, sess *domain.Session, in catalog.ServiceInput) (domain.Service, error)
	selectionFn    func(ctx context.Context, sess *domain.Session, serviceID uuid.UUID, clientIDs []uuid.UUID) (*domain.Service, []domain.Client, error)
}

func (f *fakeCatalog) CreateClient(ctx context.Context, sess *domain.Session, in catalog.ClientInput) (domain.Client, error) {
	if f.createClientFn == nil {
		panic("CreateClient not configured")
	}
	return f.createClientFn(ctx, sess, in)
}

func (f *fakeCatalog) UpdateClient(context.Context, *domain.Session, uuid.UUID, catalog.ClientInput) (domain.Client, error) {
	panic("UpdateClient not configured")
}

func (f *fakeCatalog) GetClient(context.Context, *domain.Session, uuid.UUID) (domain.Client, error) {
	panic("GetClient not configured")
}

func (f *fakeCatalog) ListClients(ctx context.Context, sess *domain.Session, phone string) ([]domain.Client, error) {
	if f.listClientsFn == nil {
		panic("ListClients not configured")
	}
	return f.listClientsFn(ctx, sess, phone)
}

func (f *fakeCatalog) DeleteClient(context.Context, *domain.Session, uuid.UUID) error {
	panic("DeleteClient not configured")
}

func (f *fakeCatalog) CreateService(ctx context.Context, sess *domain.Session, in catalog.ServiceInput) (domain.Service, error) {
	if f.createSvcFn == nil {
		panic("CreateService not configured")
	}
	return f.createSvcFn(ctx, sess, in)
}

func (f *fakeCatalog) UpdateService(context.Context, *domain.Session, uuid.UUID, catalog.ServiceInput) (domain.Service, error) {
	panic("UpdateService not configured")
}

func (f *fakeCatalog) GetService(context.Context, *domain.Session, uuid.UUID) (domain.Service, error) {
	panic("GetService not configured")
}

func (f *fakeCatalog) ListServices(context.Context, *domain.Session) ([]domain.Service, error) {
	panic("ListServices not configured")
}

func (f *fakeCatalog) DeleteService(context.Context, *domain.Session, uuid.UUID) error {
	panic("DeleteService not configured")
}

func (f *fakeCatalog) Selection(ctx context.Context, sess *domain.Session, serviceID uuid.UUID, clientIDs []uuid.UUID) (*domain.Service, []domain.Client, error) {
	if f.selectionFn == nil {
		panic("Selection not configured")
	}
	return f.selectionFn(ctx, sess, serviceID, clientIDs)
}

type fakeBooking struct {
	submitFn func(ctx context.Context, sess *domain.Session, req booking.BookingRequest) (booking.BookingResult, error)
	listFn   func(ctx context.Context, sess *domain.Session, windowStart, windowEnd time.Time) ([]domain.Appointment, error)
	markFn   func(ctx context.Context, sess *domain.Session, appointmentID, clientID uuid.UUID) (booking.PaymentResult, error)
	closeFn  func(ctx context.Context, sess *domain.Session, id uuid.UUID) (domain.Appointment, error)
	deleteFn func(ctx context.Context, sess *domain.Session, id uuid.UUID) error
}

func (f *fakeBooking) SubmitBooking(ctx context.Context, sess *domain.Session, req booking.BookingRequest) (booking.BookingResult, error) {
	if f.submitFn == nil {
		panic("SubmitBooking not configured")
	}
	return f.submitFn(ctx, sess, req)
}

func (f *fakeBooking) GetAppointment(context.Context, *domain.Session, uuid.UUID) (domain.Appointment, error) {
	panic("GetAppointment not configured")
}

func (f *fakeBooking) ListAppointments(ctx context.Context, sess *domain.Session, windowStart, windowEnd time.Time) ([]domain.Appointment, error) {
	if f.listFn == nil {
		panic("ListAppointments not configured")
	}
	return f.listFn(ctx, sess, windowStart, windowEnd)
}

func (f *fakeBooking) MarkClientPaid(ctx context.Context, sess *domain.Session, appointmentID, clientID uuid.UUID) (booking.PaymentResult, error) {
	if f.markFn == nil {
		panic("MarkClientPaid not configured")
	}
	return f.markFn(ctx, sess, appointmentID, clientID)
}

func (f *fakeBooking) CloseAppointment(ctx context.Context, sess *domain.Session, id uuid.UUID) (domain.Appointment, error) {
	if f.closeFn == nil {
		panic("CloseAppointment not configured")
	}
	return f.closeFn(ctx, sess, id)
}

func (f *fakeBooking) DeleteAppointment(ctx context.Context, sess *domain.Session, id uuid.UUID) error {
	if f.deleteFn == nil {
		panic("DeleteAppointment not configured")
	}
	return f.deleteFn(ctx, sess, id)
}

type fakeLedger struct {
	recordFn func(ctx context.Context, sess *domain.Session, kind domain.LedgerKind, entry domain.LedgerEntry) (string, error)
	monthFn  func(ctx context.Context, sess *domain.Session, key string) (ledger.MonthSummary, error)
}

func (f *fakeLedger) RecordEntry(ctx context.Context, sess *domain.Session, kind domain.LedgerKind, entry domain.LedgerEntry) (string, error) {
	if f.recordFn == nil {
		panic("RecordEntry not configured")
	}
	return f.recordFn(ctx, sess, kind, entry)
}

func (f *fakeLedger) Month(ctx context.Context, sess *domain.Session, key string) (ledger.MonthSummary, error) {
	if f.monthFn == nil {
		panic("Month not configured")
	}
	return f.monthFn(ctx, sess, key)
}

type fakeReminders struct {
	balancesFn func(ctx context.Context, sess *domain.Session) ([]reminders.Balance, error)
	recapFn    func(ctx context.Context, sess *domain.Session, clientID uuid.UUID) (string, error)
}

func (f *fakeReminders) UnpaidBalances(ctx context.Context, sess *domain.Session) ([]reminders.Balance, error) {
	if f.balancesFn == nil {
		panic("UnpaidBalances not configured")
	}
	return f.balancesFn(ctx, sess)
}

func (f *fakeReminders) SendRecap(ctx context.Context, sess *domain.Session, clientID uuid.UUID) (string, error) {
	if f.recapFn == nil {
		panic("SendRecap not configured")
	}
	return f.recapFn(ctx, sess, clientID)
}

func testSession() *domain.Session {
	return &domain.Session{
		ID:     "sess-1",
		UserID: uuid.MustParse("00000000-0000-0000-0000-0000000000aa"),
		Email:  "admin@example.com",
	}
}
