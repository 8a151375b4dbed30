package domain

import "errors"

var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrUnauthenticated         = errors.New("a signed-in session is required")
)

type ValidationReason string

const (
	ReasonMissingField       ValidationReason = "MissingField"
	ReasonInvalidField       ValidationReason = "InvalidField"
	ReasonCapacityExceeded   ValidationReason = "CapacityExceeded"
	ReasonDayUnavailable     ValidationReason = "DayUnavailable"
	ReasonInvalidPhoneFormat ValidationReason = "InvalidPhoneFormat"
	ReasonAppointmentClosed  ValidationReason = "AppointmentClosed"
)

// ValidationError is a local, synchronous rejection of caller input. No I/O is
// attempted once one is produced.
type ValidationError struct {
	Reason ValidationReason
	Field  string
	msg    string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func NewValidationError(reason ValidationReason, field, msg string) error {
	return &ValidationError{Reason: reason, Field: field, msg: msg}
}
