package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"tutora/backend/internal/store"
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgExclusionViolation:
			return store.ErrConflict
		}
	}
	return err
}
