package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type LedgerKind string

const (
	LedgerIncome  LedgerKind = "income"
	LedgerExpense LedgerKind = "expense"
)

func (k LedgerKind) IsValid() bool {
	return k == LedgerIncome || k == LedgerExpense
}

type LedgerEntry struct {
	Type    string          `json:"type"`
	Value   decimal.Decimal `json:"value"`
	Details LedgerDetails   `json:"details"`
}

type LedgerDetails struct {
	Description   string     `json:"description,omitempty"`
	AppointmentID *uuid.UUID `json:"appointmentId,omitempty"`
	ClientID      *uuid.UUID `json:"clientId,omitempty"`
}

// LedgerMonth aggregates every income and expense line of one calendar month.
// ID is the month key, see LedgerKey.
type LedgerMonth struct {
	bun.BaseModel `bun:"table:financials"`

	ID        string        `bun:"id,pk" json:"id"`
	Income    []LedgerEntry `bun:"income,type:jsonb,notnull" json:"income"`
	Expense   []LedgerEntry `bun:"expense,type:jsonb,notnull" json:"expense"`
	UpdatedAt time.Time     `bun:"updated_at,notnull" json:"updatedAt"`
}

// LedgerKey formats t as YYYYMM in t's own location.
func LedgerKey(t time.Time) string {
	return t.Format("200601")
}

func (m LedgerMonth) Totals() (income, expense, net decimal.Decimal) {
	income = decimal.Zero
	for _, e := range m.Income {
		income = income.Add(e.Value)
	}
	expense = decimal.Zero
	for _, e := range m.Expense {
		expense = expense.Add(e.Value)
	}
	return income, expense, income.Sub(expense)
}
