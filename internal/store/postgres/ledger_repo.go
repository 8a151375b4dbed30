package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"tutora/backend/internal/domain"
	"tutora/backend/internal/store"
)

// Appending concatenates jsonb arrays so concurrent writers never lose lines.
const appendLedgerSQL = `INSERT INTO financials (id, income, expense, updated_at)
VALUES (?, ?::jsonb, ?::jsonb, ?)
ON CONFLICT (id) DO UPDATE SET
	income = financials.income || EXCLUDED.income,
	expense = financials.expense || EXCLUDED.expense,
	updated_at = EXCLUDED.updated_at`

type LedgerRepo struct {
	db *bun.DB
}

func NewLedgerRepo(db *bun.DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

func (r *LedgerRepo) Append(ctx context.Context, key string, kind domain.LedgerKind, entry domain.LedgerEntry) error {
	income := []domain.LedgerEntry{}
	expense := []domain.LedgerEntry{}
	switch kind {
	case domain.LedgerIncome:
		income = append(income, entry)
	case domain.LedgerExpense:
		expense = append(expense, entry)
	default:
		return errors.New("unknown ledger kind")
	}

	incomeJSON, err := json.Marshal(income)
	if err != nil {
		return err
	}
	expenseJSON, err := json.Marshal(expense)
	if err != nil {
		return err
	}

	_, err = r.db.NewRaw(appendLedgerSQL, key, string(incomeJSON), string(expenseJSON), time.Now().UTC()).Exec(ctx)
	return err
}

func (r *LedgerRepo) Get(ctx context.Context, key string) (domain.LedgerMonth, error) {
	var row domain.LedgerMonth
	err := r.db.NewSelect().
		Model(&row).
		Where("id = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.LedgerMonth{}, store.ErrNotFound
		}
		return domain.LedgerMonth{}, err
	}
	return row, nil
}
