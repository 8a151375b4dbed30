package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/protoadapt"

	"tutora/backend/internal/auth"
	"tutora/backend/internal/domain"
	"tutora/backend/internal/notify"
	"tutora/backend/internal/service/booking"
	"tutora/backend/internal/store"
)

// toStatus maps a service error to the status returned to callers and logs
// it at a level matching who is at fault.
func toStatus(log *slog.Logger, err error) error {
	var (
		vErr *domain.ValidationError
		cErr *booking.ConflictError
		pErr *booking.PersistenceError
		dErr *notify.DeliveryError
	)

	switch {
	case errors.As(err, &vErr):
		log.Warn("invalid request", slog.Any("err", err), slog.String("reason", string(vErr.Reason)), slog.String("field", vErr.Field))
		return validationStatus(vErr)

	case errors.As(err, &cErr):
		log.Info("booking conflict", slog.Time("date", cErr.Date), slog.Int("conflicting", len(cErr.Conflicting)))
		pf := &errdetails.PreconditionFailure{}
		for _, id := range cErr.Conflicting {
			pf.Violations = append(pf.Violations, &errdetails.PreconditionFailure_Violation{
				Type:        "SLOT_CONFLICT",
				Subject:     "appointments/" + id.String(),
				Description: "overlaps the requested time slot",
			})
		}
		return withDetails(codes.FailedPrecondition, "That time slot is already booked. Pick a different slot.", pf)

	case errors.Is(err, store.ErrIdempotencyConflict):
		log.Info("idempotency conflict")
		return status.Error(codes.FailedPrecondition, "This request key was already used for a different booking. Try again.")

	case errors.Is(err, auth.ErrInvalidCredentials):
		log.Info("invalid credentials")
		return status.Error(codes.Unauthenticated, "invalid email or password")

	case errors.Is(err, auth.ErrSessionExpired):
		return status.Error(codes.Unauthenticated, "session expired, sign in again")

	case errors.Is(err, auth.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, "sign in required")

	case errors.Is(err, auth.ErrWeakPassword):
		return withDetails(codes.InvalidArgument, err.Error(), &errdetails.BadRequest{
			FieldViolations: []*errdetails.BadRequest_FieldViolation{{Field: "newPassword", Description: err.Error()}},
		})

	case errors.Is(err, auth.ErrInvalidResetToken):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, store.ErrNotFound):
		log.Info("not found")
		return status.Error(codes.NotFound, "not found")

	case errors.Is(err, store.ErrConflict):
		log.Info("already exists", slog.Any("err", err))
		return status.Error(codes.AlreadyExists, "a record with the same unique value already exists")

	case errors.Is(err, store.ErrUnknownField):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, domain.ErrInvalidStatusTransition):
		return status.Error(codes.FailedPrecondition, "the appointment is already closed")

	case errors.Is(err, notify.ErrNoContact):
		log.Info("recipient has no contact")
		return status.Error(codes.FailedPrecondition, "the client has no email address or phone number on file")

	case errors.As(err, &dErr):
		log.Warn("notification delivery failed", slog.Any("err", err))
		return status.Error(codes.Unavailable, "the notification could not be delivered, try again later")

	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("deadline exceeded", slog.Any("err", err))
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")

	case errors.As(err, &pErr):
		log.Error("storage failure", slog.Any("err", err), slog.String("op", pErr.Op))
		return status.Error(codes.Unavailable, "storage unavailable, try again")
	}

	log.Error("internal error", slog.Any("err", err))
	return status.Error(codes.Internal, "internal error")
}

func validationStatus(vErr *domain.ValidationError) error {
	switch vErr.Reason {
	case domain.ReasonCapacityExceeded, domain.ReasonDayUnavailable, domain.ReasonAppointmentClosed:
		return withDetails(codes.FailedPrecondition, vErr.Error(), &errdetails.PreconditionFailure{
			Violations: []*errdetails.PreconditionFailure_Violation{{
				Type:        string(vErr.Reason),
				Subject:     vErr.Field,
				Description: vErr.Error(),
			}},
		})
	}
	return invalidArgument(vErr.Field, string(vErr.Reason), vErr.Error())
}

func invalidArgument(field, reason, msg string) error {
	return withDetails(codes.InvalidArgument, msg, &errdetails.BadRequest{
		FieldViolations: []*errdetails.BadRequest_FieldViolation{{
			Field:       field,
			Description: msg,
			Reason:      reason,
		}},
	})
}

func withDetails(code codes.Code, msg string, detail protoadapt.MessageV1) error {
	st, err := status.New(code, msg).WithDetails(detail)
	if err != nil {
		return status.Error(code, msg)
	}
	return st.Err()
}
