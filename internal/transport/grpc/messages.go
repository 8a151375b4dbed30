package grpc

import (
	"time"

	"github.com/shopspring/decimal"

	"tutora/backend/internal/domain"
)

type Empty struct{}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type SendPasswordResetRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type ClientFields struct {
	ID                  string `json:"id,omitempty"`
	FirstName           string `json:"firstName"`
	LastName            string `json:"lastName"`
	PhoneNumber         string `json:"phoneNumber"`
	MailAddress         string `json:"mailAddress,omitempty"`
	RelativeName        string `json:"relativeName,omitempty"`
	RelativePhoneNumber string `json:"relativePhoneNumber,omitempty"`
	ClientType          string `json:"clientType,omitempty"`
}

type CreateClientRequest struct {
	Client ClientFields `json:"client"`
}

type UpdateClientRequest struct {
	ID     string       `json:"id"`
	Client ClientFields `json:"client"`
}

type ClientRequest struct {
	ID string `json:"id"`
}

type ClientResponse struct {
	Client domain.Client `json:"client"`
}

type ListClientsRequest struct {
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

type ListClientsResponse struct {
	Clients []domain.Client `json:"clients"`
}

type ServiceFields struct {
	ID              string          `json:"id,omitempty"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	DurationMinutes int             `json:"durationMinutes"`
	SessionPrice    decimal.Decimal `json:"sessionPrice"`
	StudentNumber   int             `json:"studentNumber"`
	AvailableDays   []string        `json:"availableDays,omitempty"`
}

type CreateServiceRequest struct {
	Service ServiceFields `json:"service"`
}

type UpdateServiceRequest struct {
	ID      string        `json:"id"`
	Service ServiceFields `json:"service"`
}

type ServiceRequest struct {
	ID string `json:"id"`
}

type ServiceResponse struct {
	Service domain.Service `json:"service"`
}

type ListServicesResponse struct {
	Services []domain.Service `json:"services"`
}

type SubmitBookingRequest struct {
	ServiceID string      `json:"serviceId"`
	ClientIDs []string    `json:"clientIds"`
	Dates     []time.Time `json:"dates"`
	// AppointmentID switches to edit mode.
	AppointmentID  string `json:"appointmentId,omitempty"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
	// Repeat turns the single date into a weekly series.
	Repeat *RepeatRule `json:"repeat,omitempty"`
}

type RepeatRule struct {
	Weekdays []string   `json:"weekdays,omitempty"`
	Interval int        `json:"interval,omitempty"`
	Count    int        `json:"count,omitempty"`
	Until    *time.Time `json:"until,omitempty"`
}

type SubmitBookingResponse struct {
	Appointments []domain.Appointment `json:"appointments"`
}

type AppointmentRequest struct {
	ID string `json:"id"`
}

type AppointmentResponse struct {
	Appointment domain.Appointment `json:"appointment"`
}

type ListAppointmentsRequest struct {
	WindowStart *time.Time `json:"windowStart"`
	WindowEnd   *time.Time `json:"windowEnd"`
}

type ListAppointmentsResponse struct {
	Appointments []domain.Appointment `json:"appointments"`
}

type MarkClientPaidRequest struct {
	AppointmentID string `json:"appointmentId"`
	ClientID      string `json:"clientId"`
}

type MarkClientPaidResponse struct {
	Appointment domain.Appointment `json:"appointment"`
	AlreadyPaid bool               `json:"alreadyPaid"`
	// Warning is set when the paid flag was stored but the ledger income line
	// was not.
	Warning string `json:"warning,omitempty"`
}

type AddLedgerEntryRequest struct {
	Kind        string          `json:"kind"`
	Type        string          `json:"type"`
	Value       decimal.Decimal `json:"value"`
	Description string          `json:"description,omitempty"`
}

type AddLedgerEntryResponse struct {
	Month string `json:"month"`
}

type GetLedgerMonthRequest struct {
	// Month is YYYYMM; empty means the current month.
	Month string `json:"month,omitempty"`
}

type LedgerMonthResponse struct {
	Month   string               `json:"month"`
	Income  []domain.LedgerEntry `json:"income"`
	Expense []domain.LedgerEntry `json:"expense"`
	Totals  LedgerTotals         `json:"totals"`
}

type LedgerTotals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

type OwedAppointment struct {
	AppointmentID string          `json:"appointmentId"`
	ServiceName   string          `json:"serviceName"`
	DateFrom      time.Time       `json:"dateFrom"`
	DateTo        time.Time       `json:"dateTo"`
	Amount        decimal.Decimal `json:"amount"`
}

type UnpaidBalance struct {
	ClientID     string            `json:"clientId"`
	FirstName    string            `json:"firstName"`
	LastName     string            `json:"lastName"`
	PhoneNumber  string            `json:"phoneNumber,omitempty"`
	MailAddress  string            `json:"mailAddress,omitempty"`
	TotalOwed    decimal.Decimal   `json:"totalOwed"`
	Appointments []OwedAppointment `json:"appointments"`
}

type ListUnpaidBalancesResponse struct {
	Balances []UnpaidBalance `json:"balances"`
}

type SendBalanceReminderRequest struct {
	ClientID string `json:"clientId"`
}

type SendBalanceReminderResponse struct {
	Channel string `json:"channel"`
}
