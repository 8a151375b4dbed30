package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"tutora/backend/internal/domain"
	"tutora/backend/internal/store"
)

type UserRepo struct {
	db *bun.DB
}

func NewUserRepo(db *bun.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	m := user
	m.Email = normalizeEmail(m.Email)
	if _, err := r.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.User{}, mapWriteError(err)
	}
	return m, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getWhere(ctx, "email = ?", normalizeEmail(email))
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return r.getWhere(ctx, "id = ?", id)
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	m := domain.User{ID: id, PasswordHash: passwordHash}
	res, err := r.db.NewUpdate().
		Model(&m).
		Column("password_hash", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *UserRepo) getWhere(ctx context.Context, where string, arg any) (domain.User, error) {
	var row domain.User
	err := r.db.NewSelect().
		Model(&row).
		Where(where, arg).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, store.ErrNotFound
		}
		return domain.User{}, err
	}
	return row, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
