package grpc

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tutora/backend/internal/auth"
	"tutora/backend/internal/domain"
	"tutora/backend/internal/service/booking"
	"tutora/backend/internal/service/catalog"
	"tutora/backend/internal/service/ledger"
	"tutora/backend/internal/service/reminders"
)

type authService interface {
	SignIn(ctx context.Context, email, password string) (auth.SignInResult, error)
	SignOut(ctx context.Context, sess *domain.Session) error
	SendPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, sess *domain.Session, current, next string) error
}

type catalogService interface {
	CreateClient(ctx context.Context, sess *domain.Session, in catalog.ClientInput) (domain.Client, error)
	UpdateClient(ctx context.Context, sess *domain.Session, id uuid.UUID, in catalog.ClientInput) (domain.Client, error)
	GetClient(ctx context.Context, sess *domain.Session, id uuid.UUID) (domain.Client, error)
	ListClients(ctx context.Context, sess *domain.Session, phone string) ([]domain.Client, error)
	DeleteClient(ctx context.Context, sess *domain.Session, id uuid.UUID) error

	CreateService(ctx context.Context, sess *domain.Session, in catalog.ServiceInput) (domain.Service, error)
	UpdateService(ctx context.Context, sess *domain.Session, id uuid.UUID, in catalog.ServiceInput) (domain.Service, error)
	GetService(ctx context.Context, sess *domain.Session, id uuid.UUID) (domain.Service, error)
	ListServices(ctx context.Context, sess *domain.Session) ([]domain.Service, error)
	DeleteService(ctx context.Context, sess *domain.Session, id uuid.UUID) error

	Selection(ctx context.Context, sess *domain.Session, serviceID uuid.UUID, clientIDs []uuid.UUID) (*domain.Service, []domain.Client, error)
}

type bookingService interface {
	SubmitBooking(ctx context.Context, sess *domain.Session, req booking.BookingRequest) (booking.BookingResult, error)
	GetAppointment(ctx context.Context, sess *domain.Session, id uuid.UUID) (domain.Appointment, error)
	ListAppointments(ctx context.Context, sess *domain.Session, windowStart, windowEnd time.Time) ([]domain.Appointment, error)
	MarkClientPaid(ctx context.Context, sess *domain.Session, appointmentID, clientID uuid.UUID) (booking.PaymentResult, error)
	CloseAppointment(ctx context.Context, sess *domain.Session, id uuid.UUID) (domain.Appointment, error)
	DeleteAppointment(ctx context.Context, sess *domain.Session, id uuid.UUID) error
}

type ledgerService interface {
	RecordEntry(ctx context.Context, sess *domain.Session, kind domain.LedgerKind, entry domain.LedgerEntry) (string, error)
	Month(ctx context.Context, sess *domain.Session, key string) (ledger.MonthSummary, error)
}

type remindersService interface {
	UnpaidBalances(ctx context.Context, sess *domain.Session) ([]reminders.Balance, error)
	SendRecap(ctx context.Context, sess *domain.Session, clientID uuid.UUID) (string, error)
}

type Services struct {
	Auth      authService
	Catalog   catalogService
	Booking   bookingService
	Ledger    ledgerService
	Reminders remindersService
}

// Server implements tutora.v1.Tutora on top of the service packages. Handlers
// read the caller's session from the context set by AuthInterceptor.
type Server struct {
	auth      authService
	catalog   catalogService
	booking   bookingService
	ledger    ledgerService
	reminders remindersService
	log       *slog.Logger
}

func NewServer(svc Services, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		auth:      svc.Auth,
		catalog:   svc.Catalog,
		booking:   svc.Booking,
		ledger:    svc.Ledger,
		reminders: svc.Reminders,
		log:       log.With(slog.String("component", "grpc.tutora")),
	}
}

var _ TutoraServer = (*Server)(nil)

func (s *Server) rpcLog(rpc string) *slog.Logger {
	return s.log.With(slog.String("rpc", rpc))
}

// parseID parses a required UUID request field.
func parseID(field, value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, invalidArgument(field, string(domain.ReasonMissingField), field+" is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, invalidArgument(field, string(domain.ReasonInvalidField), field+" must be a UUID")
	}
	return id, nil
}

// parseOptionalID is parseID for fields that may be empty.
func parseOptionalID(field, value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, nil
	}
	return parseID(field, value)
}
