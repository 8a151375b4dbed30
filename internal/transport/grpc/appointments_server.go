package grpc

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tutora/backend/internal/auth"
	"tutora/backend/internal/domain"
	"tutora/backend/internal/service/booking"
)

func (s *Server) SubmitBooking(ctx context.Context, req *SubmitBookingRequest) (*SubmitBookingResponse, error) {
	log := s.rpcLog("SubmitBooking")
	sess := auth.SessionFrom(ctx)

	serviceID, err := parseOptionalID("serviceId", req.ServiceID)
	if err != nil {
		return nil, err
	}
	editID, err := parseOptionalID("appointmentId", req.AppointmentID)
	if err != nil {
		return nil, err
	}
	clientIDs := make([]uuid.UUID, 0, len(req.ClientIDs))
	for _, raw := range req.ClientIDs {
		id, err := parseID("clientIds", raw)
		if err != nil {
			return nil, err
		}
		clientIDs = append(clientIDs, id)
	}

	repeat, err := weeklyRule(req.Repeat)
	if err != nil {
		return nil, err
	}

	svc, clients, err := s.catalog.Selection(ctx, sess, serviceID, clientIDs)
	if err != nil {
		return nil, toStatus(log, err)
	}

	key := req.IdempotencyKey
	if key == "" {
		key = idempotencyKey(ctx)
	}

	res, err := s.booking.SubmitBooking(ctx, sess, booking.BookingRequest{
		Service:        svc,
		Clients:        clients,
		Dates:          req.Dates,
		AppointmentID:  editID,
		IdempotencyKey: key,
		Repeat:         repeat,
	})
	if err != nil {
		return nil, toStatus(log, err)
	}

	log.Info("booking submitted",
		slog.String("service_id", serviceID.String()),
		slog.Int("appointments", len(res.Created)),
		slog.Bool("edit", editID != uuid.Nil),
	)
	return &SubmitBookingResponse{Appointments: res.Created}, nil
}

func weeklyRule(r *RepeatRule) (*domain.WeeklyRule, error) {
	if r == nil {
		return nil, nil
	}
	days := make([]time.Weekday, 0, len(r.Weekdays))
	for _, name := range r.Weekdays {
		wd, err := domain.ParseWeekday(name)
		if err != nil {
			return nil, invalidArgument("repeat.weekdays", string(domain.ReasonInvalidField), "unknown weekday "+name)
		}
		days = append(days, wd)
	}
	return &domain.WeeklyRule{Weekdays: days, Interval: r.Interval, Count: r.Count, Until: r.Until}, nil
}

func (s *Server) GetAppointment(ctx context.Context, req *AppointmentRequest) (*AppointmentResponse, error) {
	log := s.rpcLog("GetAppointment")

	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	appt, err := s.booking.GetAppointment(ctx, auth.SessionFrom(ctx), id)
	if err != nil {
		return nil, toStatus(log.With(slog.String("appointment_id", id.String())), err)
	}
	return &AppointmentResponse{Appointment: appt}, nil
}

func (s *Server) ListAppointments(ctx context.Context, req *ListAppointmentsRequest) (*ListAppointmentsResponse, error) {
	log := s.rpcLog("ListAppointments")

	if req.WindowStart == nil || req.WindowEnd == nil {
		log.Warn("invalid request", slog.String("reason", "missing_window"))
		return nil, status.Error(codes.InvalidArgument, "windowStart and windowEnd are required")
	}

	appts, err := s.booking.ListAppointments(ctx, auth.SessionFrom(ctx), *req.WindowStart, *req.WindowEnd)
	if err != nil {
		return nil, toStatus(log, err)
	}
	if appts == nil {
		appts = []domain.Appointment{}
	}

	log.Debug("appointments listed",
		slog.Int("count", len(appts)),
		slog.Time("window_start", *req.WindowStart),
		slog.Time("window_end", *req.WindowEnd),
	)
	return &ListAppointmentsResponse{Appointments: appts}, nil
}

func (s *Server) MarkClientPaid(ctx context.Context, req *MarkClientPaidRequest) (*MarkClientPaidResponse, error) {
	log := s.rpcLog("MarkClientPaid")

	apptID, err := parseID("appointmentId", req.AppointmentID)
	if err != nil {
		return nil, err
	}
	clientID, err := parseID("clientId", req.ClientID)
	if err != nil {
		return nil, err
	}

	res, err := s.booking.MarkClientPaid(ctx, auth.SessionFrom(ctx), apptID, clientID)
	if err != nil {
		return nil, toStatus(log.With(slog.String("appointment_id", apptID.String())), err)
	}

	out := &MarkClientPaidResponse{Appointment: res.Appointment, AlreadyPaid: res.AlreadyPaid}
	if res.Warning != nil {
		out.Warning = res.Warning.String()
		log.Warn("client marked paid without ledger entry",
			slog.String("appointment_id", apptID.String()),
			slog.String("client_id", clientID.String()),
			slog.String("warning", out.Warning),
		)
	}
	return out, nil
}

func (s *Server) CloseAppointment(ctx context.Context, req *AppointmentRequest) (*AppointmentResponse, error) {
	log := s.rpcLog("CloseAppointment")

	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	appt, err := s.booking.CloseAppointment(ctx, auth.SessionFrom(ctx), id)
	if err != nil {
		return nil, toStatus(log.With(slog.String("appointment_id", id.String())), err)
	}
	log.Info("appointment closed", slog.String("appointment_id", id.String()))
	return &AppointmentResponse{Appointment: appt}, nil
}

func (s *Server) DeleteAppointment(ctx context.Context, req *AppointmentRequest) (*Empty, error) {
	log := s.rpcLog("DeleteAppointment")

	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	if err := s.booking.DeleteAppointment(ctx, auth.SessionFrom(ctx), id); err != nil {
		return nil, toStatus(log.With(slog.String("appointment_id", id.String())), err)
	}
	log.Info("appointment deleted", slog.String("appointment_id", id.String()))
	return &Empty{}, nil
}
