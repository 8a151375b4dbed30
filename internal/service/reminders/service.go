package reminders

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"tutora/backend/internal/domain"
	"tutora/backend/internal/notify"
	"tutora/backend/internal/store"
)

var tracer = otel.Tracer("tutora/backend/internal/service/reminders")

type closedLister interface {
	ListByStatus(ctx context.Context, status domain.AppointmentStatus) ([]domain.Appointment, error)
}

// OwedAppointment is one closed appointment a client has not paid for.
type OwedAppointment struct {
	AppointmentID uuid.UUID
	ServiceName   string
	DateFrom      time.Time
	DateTo        time.Time
	Amount        decimal.Decimal
}

// Balance aggregates everything one client owes.
type Balance struct {
	ClientID     uuid.UUID
	FirstName    string
	LastName     string
	PhoneNumber  string
	MailAddress  string
	TotalOwed    decimal.Decimal
	Appointments []OwedAppointment
}

func (b Balance) FullName() string {
	return strings.TrimSpace(b.FirstName + " " + b.LastName)
}

type Config struct {
	TemplateID string
	// SMS is used for clients without a mail address. Optional.
	SMS      notify.SMSSender
	Location *time.Location
	Logger   *slog.Logger
	Now      func() time.Time
}

type Service struct {
	appts closedLister
	email notify.EmailSender
	sms   notify.SMSSender
	tmpl  string
	loc   *time.Location
	log   *slog.Logger
	now   func() time.Time
}

func NewService(appts closedLister, email notify.EmailSender, cfg Config) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		appts: appts,
		email: email,
		sms:   cfg.SMS,
		tmpl:  cfg.TemplateID,
		loc:   cfg.Location,
		log:   log.With(slog.String("component", "reminders")),
		now:   cfg.Now,
	}
}

// UnpaidBalances lists every client with at least one unpaid snapshot on a
// closed appointment, sorted by last then first name.
func (s *Service) UnpaidBalances(ctx context.Context, sess *domain.Session) ([]Balance, error) {
	if !sess.Valid(s.now()) {
		return nil, domain.ErrUnauthenticated
	}
	return s.unpaidBalances(ctx)
}

func (s *Service) unpaidBalances(ctx context.Context) ([]Balance, error) {
	closed, err := s.appts.ListByStatus(ctx, domain.AppointmentStatusClosed)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(closed, func(a, b domain.Appointment) int { return a.DateFrom.Compare(b.DateFrom) })

	byClient := make(map[uuid.UUID]*Balance)
	var order []uuid.UUID
	for _, appt := range closed {
		for _, c := range appt.Clients {
			if c.Paid {
				continue
			}
			b, ok := byClient[c.ID]
			if !ok {
				b = &Balance{ClientID: c.ID}
				byClient[c.ID] = b
				order = append(order, c.ID)
			}
			// Later appointments carry the most recent contact details.
			b.FirstName, b.LastName = c.FirstName, c.LastName
			if c.PhoneNumber != "" {
				b.PhoneNumber = c.PhoneNumber
			}
			if c.MailAddress != "" {
				b.MailAddress = c.MailAddress
			}
			b.TotalOwed = b.TotalOwed.Add(c.AmountToPay)
			b.Appointments = append(b.Appointments, OwedAppointment{
				AppointmentID: appt.ID,
				ServiceName:   appt.Service.Name,
				DateFrom:      appt.DateFrom,
				DateTo:        appt.DateTo,
				Amount:        c.AmountToPay,
			})
		}
	}

	out := make([]Balance, 0, len(order))
	for _, id := range order {
		out = append(out, *byClient[id])
	}
	slices.SortStableFunc(out, func(a, b Balance) int {
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.LastName), strings.ToLower(b.LastName)),
			cmp.Compare(strings.ToLower(a.FirstName), strings.ToLower(b.FirstName)),
		)
	})
	return out, nil
}

// SendRecap sends the balance recap of one client and returns the channel
// used ("email" or "sms").
func (s *Service) SendRecap(ctx context.Context, sess *domain.Session, clientID uuid.UUID) (string, error) {
	if !sess.Valid(s.now()) {
		return "", domain.ErrUnauthenticated
	}
	balances, err := s.unpaidBalances(ctx)
	if err != nil {
		return "", err
	}
	for _, b := range balances {
		if b.ClientID == clientID {
			return s.send(ctx, sess.Email, b)
		}
	}
	return "", store.ErrNotFound
}

// RunResult summarises one reminder run.
type RunResult struct {
	Sent      int
	NoContact int
	Failed    int
}

// RemindAll sends a recap to every client with an unpaid balance. A failure
// for one client is logged and counted; the run continues.
func (s *Service) RemindAll(ctx context.Context, replyTo string) (RunResult, error) {
	ctx, span := tracer.Start(ctx, "reminders.remind_all")
	defer span.End()

	balances, err := s.unpaidBalances(ctx)
	if err != nil {
		span.RecordError(err)
		return RunResult{}, err
	}

	var res RunResult
	for _, b := range balances {
		if ctx.Err() != nil {
			break
		}
		_, err := s.send(ctx, replyTo, b)
		switch {
		case err == nil:
			res.Sent++
		case errors.Is(err, notify.ErrNoContact):
			res.NoContact++
		default:
			res.Failed++
			s.log.WarnContext(ctx, "balance reminder failed",
				slog.String("client_id", b.ClientID.String()),
				slog.Any("err", err),
			)
		}
	}

	span.SetAttributes(
		attribute.Int("tutora.reminders.sent", res.Sent),
		attribute.Int("tutora.reminders.failed", res.Failed),
	)
	s.log.InfoContext(ctx, "balance reminders run",
		slog.Int("clients", len(balances)),
		slog.Int("sent", res.Sent),
		slog.Int("no_contact", res.NoContact),
		slog.Int("failed", res.Failed),
	)
	return res, ctx.Err()
}

func (s *Service) send(ctx context.Context, userMail string, b Balance) (string, error) {
	if b.MailAddress != "" && s.email != nil {
		table, err := s.renderTable(b)
		if err != nil {
			return "", err
		}
		err = s.email.Send(ctx, notify.TemplateMessage{
			TemplateID: s.tmpl,
			To:         b.MailAddress,
			ToName:     b.FullName(),
			Data: map[string]any{
				"userMail":             userMail,
				"firstName":            b.FirstName,
				"lastName":             b.LastName,
				"totalOwed":            b.TotalOwed.StringFixed(2),
				"appointmentTableHtml": table,
			},
		})
		if err != nil {
			return "", err
		}
		return "email", nil
	}

	if b.PhoneNumber != "" && s.sms != nil {
		if err := s.sms.SendSMS(ctx, b.PhoneNumber, s.smsBody(b)); err != nil {
			return "", err
		}
		return "sms", nil
	}
	return "", notify.ErrNoContact
}

var recapTable = template.Must(template.New("recap").Parse(
	`<table><thead><tr><th>Service</th><th>Date</th><th>Amount</th></tr></thead><tbody>` +
		`{{range .}}<tr><td>{{.Service}}</td><td>{{.Date}}</td><td>{{.Amount}}</td></tr>{{end}}` +
		`</tbody></table>`))

type recapRow struct {
	Service string
	Date    string
	Amount  string
}

func (s *Service) renderTable(b Balance) (string, error) {
	rows := make([]recapRow, 0, len(b.Appointments))
	for _, a := range b.Appointments {
		rows = append(rows, recapRow{
			Service: a.ServiceName,
			Date:    a.DateFrom.In(s.loc).Format("02/01/2006 15:04"),
			Amount:  a.Amount.StringFixed(2),
		})
	}
	var buf bytes.Buffer
	if err := recapTable.Execute(&buf, rows); err != nil {
		return "", fmt.Errorf("reminders: render recap: %w", err)
	}
	return buf.String(), nil
}

func (s *Service) smsBody(b Balance) string {
	return fmt.Sprintf("Hello %s, you have an outstanding balance of %s for %d session(s). Thank you.",
		b.FirstName, b.TotalOwed.StringFixed(2), len(b.Appointments))
}
