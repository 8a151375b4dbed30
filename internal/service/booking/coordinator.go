package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"tutora/backend/internal/domain"
	"tutora/backend/internal/observability/metrics"
	"tutora/backend/internal/store"
)

var tracer = otel.Tracer("tutora/backend/internal/service/booking")

// IncomeRecorder appends an income line to the ledger month containing at.
type IncomeRecorder interface {
	RecordIncome(ctx context.Context, at time.Time, entry domain.LedgerEntry) error
}

type Config struct {
	// Location is the calendar used to decide a date's weekday.
	Location *time.Location
	Logger   *slog.Logger
	Metrics  *metrics.BookingMetrics
	Now      func() time.Time
}

type Coordinator struct {
	appts   store.AppointmentRepository
	ledger  IncomeRecorder
	loc     *time.Location
	log     *slog.Logger
	metrics *metrics.BookingMetrics
	now     func() time.Time
}

func NewCoordinator(appts store.AppointmentRepository, ledger IncomeRecorder, cfg Config) *Coordinator {
	c := &Coordinator{
		appts:   appts,
		ledger:  ledger,
		loc:     cfg.Location,
		log:     cfg.Logger,
		metrics: cfg.Metrics,
		now:     cfg.Now,
	}
	if c.loc == nil {
		c.loc = time.Local
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.log = c.log.With(slog.String("component", "booking"))
	return c
}

type BookingRequest struct {
	Service *domain.Service
	Clients []domain.Client
	Dates   []time.Time
	// AppointmentID selects edit mode: the single date overwrites that
	// appointment instead of creating a new one.
	AppointmentID  uuid.UUID
	IdempotencyKey string
	// Repeat expands the single date in Dates into a weekly series before
	// validation. Not allowed in edit mode.
	Repeat *domain.WeeklyRule
}

type BookingResult struct {
	Created []domain.Appointment
}

// SubmitBooking validates the request locally, then checks every date for
// conflicts and writes one appointment per date inside a single booking
// transaction. Either every appointment of the batch is stored or none is.
func (c *Coordinator) SubmitBooking(ctx context.Context, sess *domain.Session, req BookingRequest) (BookingResult, error) {
	ctx, span := tracer.Start(ctx, "booking.SubmitBooking")
	defer span.End()
	span.SetAttributes(
		attribute.Int("booking.dates", len(req.Dates)),
		attribute.Int("booking.clients", len(req.Clients)),
		attribute.Bool("booking.edit", req.AppointmentID != uuid.Nil),
	)

	started := c.now()
	res, err := c.submit(ctx, sess, req)
	c.metrics.ObserveSubmission(submissionOutcome(err), len(res.Created), c.now().Sub(started).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit booking failed")
		return BookingResult{}, err
	}
	return res, nil
}

func (c *Coordinator) submit(ctx context.Context, sess *domain.Session, req BookingRequest) (BookingResult, error) {
	if !sess.Valid(c.now()) {
		return BookingResult{}, ErrUnauthenticated
	}
	if req.Repeat != nil {
		dates, err := c.expandRepeat(req)
		if err != nil {
			return BookingResult{}, err
		}
		req.Dates = dates
	}
	if err := c.validate(req); err != nil {
		return BookingResult{}, err
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	svc := req.Service.Snapshot()
	duration := svc.Duration()
	now := c.now().UTC()

	planned := make([]domain.Appointment, 0, len(req.Dates))
	for _, d := range req.Dates {
		start := d.UTC()
		appt := domain.Appointment{
			Service:     svc,
			DateFrom:    start,
			DateTo:      start.Add(duration),
			Status:      domain.AppointmentStatusNew,
			CreatedDate: now,
			UpdatedAt:   now,
		}
		if key != "" {
			appt.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("tutora:submit_booking:"+key+":"+start.Format(time.RFC3339Nano)))
		} else if req.AppointmentID != uuid.Nil {
			appt.ID = req.AppointmentID
		} else {
			id, err := uuid.NewV7()
			if err != nil {
				return BookingResult{}, err
			}
			appt.ID = id
		}
		planned = append(planned, appt)
	}

	var out []domain.Appointment
	err := c.appts.InBookingTransaction(ctx, func(ctx context.Context, tx store.BookingTx) error {
		var previous *domain.Appointment
		if req.AppointmentID != uuid.Nil {
			existing, err := tx.GetAppointment(ctx, req.AppointmentID)
			if err != nil {
				return err
			}
			if existing.Status == domain.AppointmentStatusClosed {
				return domain.NewValidationError(domain.ReasonAppointmentClosed, "appointment_id", "closed appointments cannot be edited")
			}
			previous = &existing
			planned[0].ID = existing.ID
			planned[0].CreatedDate = existing.CreatedDate
		}

		for i := range planned {
			planned[i].Clients = snapshotClients(req.Clients, svc, previous)
		}

		if key != "" && previous == nil {
			replayed, err := replayBatch(ctx, tx, planned)
			if err != nil {
				return err
			}
			if replayed != nil {
				out = replayed
				return nil
			}
		}

		skip := make(map[uuid.UUID]struct{}, len(planned))
		for _, p := range planned {
			skip[p.ID] = struct{}{}
		}

		checker := NewConflictChecker(tx)
		accepted := make([]domain.Appointment, 0, len(planned))
		for _, p := range planned {
			overlapping, err := checker.Overlapping(ctx, p.DateFrom, p.DateTo)
			if err != nil {
				return err
			}
			candidates := make([]domain.Appointment, 0, len(overlapping)+len(accepted))
			for _, o := range overlapping {
				if _, ok := skip[o.ID]; ok {
					continue
				}
				candidates = append(candidates, o)
			}
			for _, a := range accepted {
				if a.Overlaps(p.DateFrom, p.DateTo) {
					candidates = append(candidates, a)
				}
			}
			if ids := Incompatible(&svc, p.DateFrom, p.DateTo, p.SeatsTaken(), candidates); len(ids) > 0 {
				return &ConflictError{Date: p.DateFrom, Conflicting: ids}
			}
			accepted = append(accepted, p)
		}

		written := make([]domain.Appointment, 0, len(accepted))
		for _, a := range accepted {
			var (
				stored domain.Appointment
				err    error
			)
			if previous != nil {
				stored, err = tx.ReplaceAppointment(ctx, a)
			} else {
				stored, err = tx.CreateAppointment(ctx, a)
			}
			if err != nil {
				return err
			}
			written = append(written, stored)
		}
		out = written
		return nil
	})
	if err != nil {
		return BookingResult{}, c.classify("submit booking", err)
	}

	c.log.InfoContext(ctx, "booking submitted",
		slog.String("service_id", svc.ID.String()),
		slog.Int("appointments", len(out)),
		slog.Bool("edit", req.AppointmentID != uuid.Nil),
	)
	return BookingResult{Created: out}, nil
}

// replayBatch returns the stored batch when every planned appointment already
// exists, as it does for a resubmission under the same idempotency key. It
// returns nil when any of them is missing. A stored row that describes another
// booking fails with store.ErrIdempotencyConflict.
func replayBatch(ctx context.Context, tx store.BookingTx, planned []domain.Appointment) ([]domain.Appointment, error) {
	for _, p := range planned {
		if _, err := tx.GetAppointment(ctx, p.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, nil
			}
			return nil, err
		}
	}
	out := make([]domain.Appointment, 0, len(planned))
	for _, p := range planned {
		stored, err := tx.CreateAppointment(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, stored)
	}
	return out, nil
}

func (c *Coordinator) expandRepeat(req BookingRequest) ([]time.Time, error) {
	if req.AppointmentID != uuid.Nil {
		return nil, domain.NewValidationError(domain.ReasonInvalidField, "repeat", "an edit cannot repeat")
	}
	if len(req.Dates) != 1 {
		return nil, domain.NewValidationError(domain.ReasonInvalidField, "dates", "a repeating booking takes exactly one first date")
	}
	return domain.ExpandWeekly(req.Dates[0], *req.Repeat, c.loc)
}

// validate runs every check that needs no I/O, in order: missing fields,
// capacity, then weekday legality of each date.
func (c *Coordinator) validate(req BookingRequest) error {
	if req.Service == nil {
		return domain.NewValidationError(domain.ReasonMissingField, "service", "service is required")
	}
	if len(req.Dates) == 0 {
		return domain.NewValidationError(domain.ReasonMissingField, "dates", "at least one date is required")
	}
	if len(req.Clients) == 0 {
		return domain.NewValidationError(domain.ReasonMissingField, "clients", "at least one client is required")
	}
	if req.Service.DurationMinutes <= 0 {
		return domain.NewValidationError(domain.ReasonInvalidField, "service.duration_minutes", "service duration must be positive")
	}
	if req.AppointmentID != uuid.Nil && len(req.Dates) != 1 {
		return domain.NewValidationError(domain.ReasonInvalidField, "dates", "editing an appointment takes exactly one date")
	}
	if len(strings.TrimSpace(req.IdempotencyKey)) > 256 {
		return domain.NewValidationError(domain.ReasonInvalidField, "idempotency_key", "idempotency_key too long")
	}

	seen := make(map[uuid.UUID]struct{}, len(req.Clients))
	for _, cl := range req.Clients {
		if cl.ID == uuid.Nil {
			return domain.NewValidationError(domain.ReasonMissingField, "clients", "client id is required")
		}
		if _, dup := seen[cl.ID]; dup {
			return domain.NewValidationError(domain.ReasonInvalidField, "clients", "client listed twice")
		}
		seen[cl.ID] = struct{}{}
	}

	capacity := max(req.Service.Capacity, 1)
	if len(req.Clients) > capacity {
		return domain.NewValidationError(domain.ReasonCapacityExceeded, "clients",
			fmt.Sprintf("%d clients exceed the service capacity of %d", len(req.Clients), capacity))
	}

	svc := req.Service.Snapshot()
	seenDates := make(map[time.Time]struct{}, len(req.Dates))
	for i, d := range req.Dates {
		if !domain.IsDayAvailable(&svc, d, c.loc) {
			return domain.NewValidationError(domain.ReasonDayUnavailable, fmt.Sprintf("dates[%d]", i),
				fmt.Sprintf("%s is not available on %s", svc.Name, d.In(c.loc).Weekday()))
		}
		if _, dup := seenDates[d.UTC()]; dup {
			return domain.NewValidationError(domain.ReasonInvalidField, fmt.Sprintf("dates[%d]", i), "date listed twice")
		}
		seenDates[d.UTC()] = struct{}{}
	}
	return nil
}

// snapshotClients copies the selected clients into an appointment. Clients
// already on previous keep their paid flag and amount.
func snapshotClients(clients []domain.Client, svc domain.ServiceSnapshot, previous *domain.Appointment) []domain.ClientSnapshot {
	out := make([]domain.ClientSnapshot, 0, len(clients))
	for _, cl := range clients {
		snap := cl.Snapshot(svc.SessionPrice)
		if previous != nil {
			if i := previous.ClientIndex(cl.ID); i >= 0 {
				snap.Paid = previous.Clients[i].Paid
				snap.AmountToPay = previous.Clients[i].AmountToPay
			}
		}
		out = append(out, snap)
	}
	return out
}

type PaymentResult struct {
	Appointment domain.Appointment
	AlreadyPaid bool
	Warning     *SecondaryEffectWarning
}

// MarkClientPaid flips the client's paid flag and appends the matching income
// line to the current ledger month. Marking an already paid client changes
// nothing. A failed ledger write does not undo the paid flag; it is reported
// as Warning.
func (c *Coordinator) MarkClientPaid(ctx context.Context, sess *domain.Session, appointmentID, clientID uuid.UUID) (PaymentResult, error) {
	ctx, span := tracer.Start(ctx, "booking.MarkClientPaid")
	defer span.End()

	if !sess.Valid(c.now()) {
		return PaymentResult{}, ErrUnauthenticated
	}
	if appointmentID == uuid.Nil {
		return PaymentResult{}, domain.NewValidationError(domain.ReasonMissingField, "appointment_id", "appointment_id is required")
	}
	if clientID == uuid.Nil {
		return PaymentResult{}, domain.NewValidationError(domain.ReasonMissingField, "client_id", "client_id is required")
	}

	var (
		appt        domain.Appointment
		alreadyPaid bool
	)
	err := c.appts.InBookingTransaction(ctx, func(ctx context.Context, tx store.BookingTx) error {
		a, err := tx.GetAppointment(ctx, appointmentID)
		if err != nil {
			return err
		}
		i := a.ClientIndex(clientID)
		if i < 0 {
			return domain.NewValidationError(domain.ReasonInvalidField, "client_id", "client is not on this appointment")
		}
		if a.Clients[i].Paid {
			alreadyPaid = true
			appt = a
			return nil
		}
		a.Clients[i].Paid = true
		if err := tx.UpdateClients(ctx, a.ID, a.Clients); err != nil {
			return err
		}
		appt = a
		return nil
	})
	if err != nil {
		c.metrics.ObservePayment("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "mark paid failed")
		return PaymentResult{}, c.classify("mark client paid", err)
	}

	res := PaymentResult{Appointment: appt, AlreadyPaid: alreadyPaid}
	if alreadyPaid {
		c.metrics.ObservePayment("already_paid")
		return res, nil
	}
	c.metrics.ObservePayment("paid")

	client := appt.Clients[appt.ClientIndex(clientID)]
	apptID, cID := appt.ID, client.ID
	entry := domain.LedgerEntry{
		Type:  appt.Service.Name + " - " + client.FullName(),
		Value: client.AmountToPay,
		Details: domain.LedgerDetails{
			Description:   "Session on " + appt.DateFrom.In(c.loc).Format("2006-01-02 15:04"),
			AppointmentID: &apptID,
			ClientID:      &cID,
		},
	}
	if err := c.ledger.RecordIncome(ctx, c.now().In(c.loc), entry); err != nil {
		c.metrics.ObserveLedgerWarning()
		c.log.WarnContext(ctx, "ledger income not recorded",
			slog.String("appointment_id", appt.ID.String()),
			slog.String("client_id", client.ID.String()),
			slog.Any("err", err),
		)
		res.Warning = &SecondaryEffectWarning{Effect: "ledger income entry", Err: err}
	}
	return res, nil
}

func (c *Coordinator) CloseAppointment(ctx context.Context, sess *domain.Session, id uuid.UUID) (domain.Appointment, error) {
	if !sess.Valid(c.now()) {
		return domain.Appointment{}, ErrUnauthenticated
	}
	if id == uuid.Nil {
		return domain.Appointment{}, domain.NewValidationError(domain.ReasonMissingField, "appointment_id", "appointment_id is required")
	}

	var out domain.Appointment
	err := c.appts.InBookingTransaction(ctx, func(ctx context.Context, tx store.BookingTx) error {
		a, err := tx.GetAppointment(ctx, id)
		if err != nil {
			return err
		}
		if err := a.Close(); err != nil {
			return err
		}
		if err := tx.UpdateStatus(ctx, a.ID, a.Status); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return domain.Appointment{}, c.classify("close appointment", err)
	}
	return out, nil
}

// DeleteAppointment removes the appointment unconditionally, whatever its
// status or payments.
func (c *Coordinator) DeleteAppointment(ctx context.Context, sess *domain.Session, id uuid.UUID) error {
	if !sess.Valid(c.now()) {
		return ErrUnauthenticated
	}
	if id == uuid.Nil {
		return domain.NewValidationError(domain.ReasonMissingField, "appointment_id", "appointment_id is required")
	}
	if err := c.appts.Delete(ctx, id); err != nil {
		return c.classify("delete appointment", err)
	}
	c.log.InfoContext(ctx, "appointment deleted", slog.String("appointment_id", id.String()))
	return nil
}

func (c *Coordinator) GetAppointment(ctx context.Context, sess *domain.Session, id uuid.UUID) (domain.Appointment, error) {
	if !sess.Valid(c.now()) {
		return domain.Appointment{}, ErrUnauthenticated
	}
	if id == uuid.Nil {
		return domain.Appointment{}, domain.NewValidationError(domain.ReasonMissingField, "appointment_id", "appointment_id is required")
	}
	a, err := c.appts.Get(ctx, id)
	if err != nil {
		return domain.Appointment{}, c.classify("get appointment", err)
	}
	return a, nil
}

func (c *Coordinator) ListAppointments(ctx context.Context, sess *domain.Session, windowStart, windowEnd time.Time) ([]domain.Appointment, error) {
	if !sess.Valid(c.now()) {
		return nil, ErrUnauthenticated
	}
	start := windowStart.UTC()
	end := windowEnd.UTC()
	if !end.After(start) {
		return nil, domain.NewValidationError(domain.ReasonInvalidField, "window_end", "window_end must be after window_start")
	}
	rows, err := c.appts.List(ctx, start, end)
	if err != nil {
		return nil, c.classify("list appointments", err)
	}
	return rows, nil
}

// classify passes typed outcomes through and wraps everything else as a
// PersistenceError.
func (c *Coordinator) classify(op string, err error) error {
	var (
		vErr *domain.ValidationError
		cErr *ConflictError
		pErr *PersistenceError
	)
	switch {
	case errors.As(err, &vErr), errors.As(err, &cErr), errors.As(err, &pErr):
		return err
	case errors.Is(err, domain.ErrInvalidStatusTransition),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrIdempotencyConflict),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

func submissionOutcome(err error) string {
	var (
		vErr *domain.ValidationError
		cErr *ConflictError
	)
	switch {
	case err == nil:
		return "created"
	case errors.As(err, &vErr):
		return "invalid"
	case errors.As(err, &cErr):
		return "conflict"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	default:
		return "error"
	}
}
