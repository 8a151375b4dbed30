package store

import (
	"context"

	"tutora/backend/internal/domain"
)

type LedgerRepository interface {
	// Append adds entry to the month document key, creating the document on
	// the first entry of the month.
	Append(ctx context.Context, key string, kind domain.LedgerKind, entry domain.LedgerEntry) error
	Get(ctx context.Context, key string) (domain.LedgerMonth, error)
}
