package catalog

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tutora/backend/internal/domain"
	"tutora/backend/internal/store"
)

// Service manages the clients and services collections.
type Service struct {
	clients  store.Collection[domain.Client]
	services store.Collection[domain.Service]
	log      *slog.Logger
	now      func() time.Time
}

func NewService(clients store.Collection[domain.Client], services store.Collection[domain.Service], log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		clients:  clients,
		services: services,
		log:      log.With(slog.String("component", "catalog")),
		now:      time.Now,
	}
}

type ClientInput struct {
	// ID, when set, stores the client under that id, replacing any client
	// already there.
	ID                  uuid.UUID
	FirstName           string
	LastName            string
	PhoneNumber         string
	MailAddress         string
	RelativeName        string
	RelativePhoneNumber string
	ClientType          string
}

func (s *Service) CreateClient(ctx context.Context, sess *domain.Session, in ClientInput) (domain.Client, error) {
	if !sess.Valid(s.now()) {
		return domain.Client{}, domain.ErrUnauthenticated
	}
	c, err := clientFromInput(in)
	if err != nil {
		return domain.Client{}, err
	}

	if in.ID != uuid.Nil {
		if err := s.clients.CreateWithID(ctx, in.ID, &c); err != nil {
			return domain.Client{}, err
		}
	} else if _, err := s.clients.Create(ctx, &c); err != nil {
		return domain.Client{}, err
	}
	s.log.InfoContext(ctx, "client saved", slog.String("client_id", c.ID.String()))
	return c, nil
}

func (s *Service) UpdateClient(ctx context.Context, sess *domain.Session, id uuid.UUID, in ClientInput) (domain.Client, error) {
	if !sess.Valid(s.now()) {
		return domain.Client{}, domain.ErrUnauthenticated
	}
	if id == uuid.Nil {
		return domain.Client{}, domain.NewValidationError(domain.ReasonMissingField, "id", "id is required")
	}
	c, err := clientFromInput(in)
	if err != nil {
		return domain.Client{}, err
	}
	if err := s.clients.Update(ctx, id, &c); err != nil {
		return domain.Client{}, err
	}
	return s.clients.FetchByID(ctx, id)
}

func (s *Service) GetClient(ctx context.Context, sess *domain.Session, id uuid.UUID) (domain.Client, error) {
	if !sess.Valid(s.now()) {
		return domain.Client{}, domain.ErrUnauthenticated
	}
	return s.clients.FetchByID(ctx, id)
}

// ListClients returns every client sorted by last then first name. A non-empty
// phone restricts the list to clients with that phone number.
func (s *Service) ListClients(ctx context.Context, sess *domain.Session, phone string) ([]domain.Client, error) {
	if !sess.Valid(s.now()) {
		return nil, domain.ErrUnauthenticated
	}

	var (
		rows []domain.Client
		err  error
	)
	if phone = strings.TrimSpace(phone); phone != "" {
		rows, err = s.clients.FetchWhereEquals(ctx, "phone_number", phone)
	} else {
		rows, err = s.clients.FetchAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(rows, func(a, b domain.Client) int {
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.LastName), strings.ToLower(b.LastName)),
			cmp.Compare(strings.ToLower(a.FirstName), strings.ToLower(b.FirstName)),
		)
	})
	return rows, nil
}

// DeleteClient removes the client. Appointments keep their snapshots.
func (s *Service) DeleteClient(ctx context.Context, sess *domain.Session, id uuid.UUID) error {
	if !sess.Valid(s.now()) {
		return domain.ErrUnauthenticated
	}
	if err := s.clients.Delete(ctx, id); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "client deleted", slog.String("client_id", id.String()))
	return nil
}

type ServiceInput struct {
	ID              uuid.UUID
	Name            string
	Description     string
	DurationMinutes int
	SessionPrice    decimal.Decimal
	Capacity        int
	AvailableDays   []string
}

func (s *Service) CreateService(ctx context.Context, sess *domain.Session, in ServiceInput) (domain.Service, error) {
	if !sess.Valid(s.now()) {
		return domain.Service{}, domain.ErrUnauthenticated
	}
	svc, err := serviceFromInput(in)
	if err != nil {
		return domain.Service{}, err
	}

	if in.ID != uuid.Nil {
		if err := s.services.CreateWithID(ctx, in.ID, &svc); err != nil {
			return domain.Service{}, err
		}
	} else if _, err := s.services.Create(ctx, &svc); err != nil {
		return domain.Service{}, err
	}
	s.log.InfoContext(ctx, "service saved", slog.String("service_id", svc.ID.String()))
	return svc, nil
}

func (s *Service) UpdateService(ctx context.Context, sess *domain.Session, id uuid.UUID, in ServiceInput) (domain.Service, error) {
	if !sess.Valid(s.now()) {
		return domain.Service{}, domain.ErrUnauthenticated
	}
	if id == uuid.Nil {
		return domain.Service{}, domain.NewValidationError(domain.ReasonMissingField, "id", "id is required")
	}
	svc, err := serviceFromInput(in)
	if err != nil {
		return domain.Service{}, err
	}
	if err := s.services.Update(ctx, id, &svc); err != nil {
		return domain.Service{}, err
	}
	return s.services.FetchByID(ctx, id)
}

func (s *Service) GetService(ctx context.Context, sess *domain.Session, id uuid.UUID) (domain.Service, error) {
	if !sess.Valid(s.now()) {
		return domain.Service{}, domain.ErrUnauthenticated
	}
	return s.services.FetchByID(ctx, id)
}

func (s *Service) ListServices(ctx context.Context, sess *domain.Session) ([]domain.Service, error) {
	if !sess.Valid(s.now()) {
		return nil, domain.ErrUnauthenticated
	}
	rows, err := s.services.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(rows, func(a, b domain.Service) int {
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return rows, nil
}

// DeleteService removes the service. Appointments keep their snapshots.
func (s *Service) DeleteService(ctx context.Context, sess *domain.Session, id uuid.UUID) error {
	if !sess.Valid(s.now()) {
		return domain.ErrUnauthenticated
	}
	if err := s.services.Delete(ctx, id); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "service deleted", slog.String("service_id", id.String()))
	return nil
}

// Selection loads the live service and clients a booking form refers to. A nil
// serviceID yields a nil service so the booking engine reports it missing.
func (s *Service) Selection(ctx context.Context, sess *domain.Session, serviceID uuid.UUID, clientIDs []uuid.UUID) (*domain.Service, []domain.Client, error) {
	if !sess.Valid(s.now()) {
		return nil, nil, domain.ErrUnauthenticated
	}

	var svc *domain.Service
	if serviceID != uuid.Nil {
		v, err := s.services.FetchByID(ctx, serviceID)
		if err != nil {
			return nil, nil, err
		}
		svc = &v
	}

	clients := make([]domain.Client, 0, len(clientIDs))
	for _, id := range clientIDs {
		c, err := s.clients.FetchByID(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		clients = append(clients, c)
	}
	return svc, clients, nil
}

func clientFromInput(in ClientInput) (domain.Client, error) {
	c := domain.Client{
		FirstName:           strings.TrimSpace(in.FirstName),
		LastName:            strings.TrimSpace(in.LastName),
		PhoneNumber:         strings.TrimSpace(in.PhoneNumber),
		MailAddress:         strings.ToLower(strings.TrimSpace(in.MailAddress)),
		RelativeName:        strings.TrimSpace(in.RelativeName),
		RelativePhoneNumber: strings.TrimSpace(in.RelativePhoneNumber),
		ClientType:          strings.TrimSpace(in.ClientType),
	}

	switch {
	case c.FirstName == "":
		return domain.Client{}, domain.NewValidationError(domain.ReasonMissingField, "first_name", "first_name is required")
	case c.LastName == "":
		return domain.Client{}, domain.NewValidationError(domain.ReasonMissingField, "last_name", "last_name is required")
	case c.PhoneNumber == "":
		return domain.Client{}, domain.NewValidationError(domain.ReasonMissingField, "phone_number", "phone_number is required")
	case !domain.ValidPhoneNumber(c.PhoneNumber):
		return domain.Client{}, domain.NewValidationError(domain.ReasonInvalidPhoneFormat, "phone_number", "phone_number is not a valid phone number")
	case c.RelativePhoneNumber != "" && !domain.ValidPhoneNumber(c.RelativePhoneNumber):
		return domain.Client{}, domain.NewValidationError(domain.ReasonInvalidPhoneFormat, "relative_phone_number", "relative_phone_number is not a valid phone number")
	case c.MailAddress != "" && !strings.Contains(c.MailAddress, "@"):
		return domain.Client{}, domain.NewValidationError(domain.ReasonInvalidField, "mail_address", "mail_address is not an email address")
	}
	return c, nil
}

func serviceFromInput(in ServiceInput) (domain.Service, error) {
	svc := domain.Service{
		Name:            strings.TrimSpace(in.Name),
		Description:     strings.TrimSpace(in.Description),
		DurationMinutes: in.DurationMinutes,
		SessionPrice:    in.SessionPrice.Round(2),
		Capacity:        in.Capacity,
	}

	switch {
	case svc.Name == "":
		return domain.Service{}, domain.NewValidationError(domain.ReasonMissingField, "name", "name is required")
	case svc.DurationMinutes <= 0:
		return domain.Service{}, domain.NewValidationError(domain.ReasonInvalidField, "duration_minutes", "duration_minutes must be positive")
	case svc.SessionPrice.IsNegative():
		return domain.Service{}, domain.NewValidationError(domain.ReasonInvalidField, "session_price", "session_price must not be negative")
	case svc.Capacity < 1:
		return domain.Service{}, domain.NewValidationError(domain.ReasonInvalidField, "student_number", "student_number must be at least 1")
	}

	days, err := domain.NormalizeWeekdays(in.AvailableDays)
	if err != nil {
		return domain.Service{}, domain.NewValidationError(domain.ReasonInvalidField, "available_days", "available_days must be English weekday names")
	}
	svc.AvailableDays = days
	return svc, nil
}
