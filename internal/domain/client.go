package domain

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Phone numbers are eight digits starting with one of the national prefixes.
var phonePattern = regexp.MustCompile(`^(03|06|70|71|76|78|80|81)\d{6}$`)

func ValidPhoneNumber(phone string) bool {
	return phonePattern.MatchString(phone)
}

type Client struct {
	bun.BaseModel `bun:"table:clients"`

	ID                  uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	FirstName           string    `bun:"first_name,notnull" json:"firstName"`
	LastName            string    `bun:"last_name,notnull" json:"lastName"`
	PhoneNumber         string    `bun:"phone_number,notnull" json:"phoneNumber"`
	MailAddress         string    `bun:"mail_address" json:"mailAddress,omitempty"`
	RelativeName        string    `bun:"relative_name" json:"relativeName,omitempty"`
	RelativePhoneNumber string    `bun:"relative_phone_number" json:"relativePhoneNumber,omitempty"`
	ClientType          string    `bun:"client_type" json:"clientType,omitempty"`
	CreatedAt           time.Time `bun:"created_at,notnull" json:"createdDate"`
	UpdatedAt           time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

func (c *Client) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stampModel(query, &c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (c *Client) EntityID() uuid.UUID      { return c.ID }
func (c *Client) SetEntityID(id uuid.UUID) { c.ID = id }

func (c Client) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Snapshot copies the client into an appointment. The client starts unpaid
// and owes amountToPay.
func (c Client) Snapshot(amountToPay decimal.Decimal) ClientSnapshot {
	return ClientSnapshot{
		ID:                  c.ID,
		FirstName:           c.FirstName,
		LastName:            c.LastName,
		PhoneNumber:         c.PhoneNumber,
		MailAddress:         c.MailAddress,
		RelativeName:        c.RelativeName,
		RelativePhoneNumber: c.RelativePhoneNumber,
		Paid:                false,
		AmountToPay:         amountToPay,
	}
}

type ClientSnapshot struct {
	ID                  uuid.UUID       `json:"id"`
	FirstName           string          `json:"firstName"`
	LastName            string          `json:"lastName"`
	PhoneNumber         string          `json:"phoneNumber"`
	MailAddress         string          `json:"mailAddress,omitempty"`
	RelativeName        string          `json:"relativeName,omitempty"`
	RelativePhoneNumber string          `json:"relativePhoneNumber,omitempty"`
	Paid                bool            `json:"paid"`
	AmountToPay         decimal.Decimal `json:"amountToPay"`
}

func (c ClientSnapshot) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
