package postgres

import (
	"context"
	"database/sql"
	"errors"
	"reflect"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"tutora/backend/internal/store"
)

// Collection stores one document type in its own table. T must be a bun model
// whose primary key is a UUID column named id.
type Collection[T any, PT interface {
	*T
	store.Entity
}] struct {
	db    *bun.DB
	table *schema.Table
}

func NewCollection[T any, PT interface {
	*T
	store.Entity
}](db *bun.DB) *Collection[T, PT] {
	return &Collection[T, PT]{
		db:    db,
		table: db.Table(reflect.TypeFor[T]()),
	}
}

func (c *Collection[T, PT]) Create(ctx context.Context, doc *T) (uuid.UUID, error) {
	if _, err := c.db.NewInsert().Model(doc).Exec(ctx); err != nil {
		return uuid.Nil, mapWriteError(err)
	}
	return PT(doc).EntityID(), nil
}

// CreateWithID writes doc under id, replacing any document already stored
// there.
func (c *Collection[T, PT]) CreateWithID(ctx context.Context, id uuid.UUID, doc *T) error {
	PT(doc).SetEntityID(id)

	q := c.db.NewInsert().Model(doc).On("CONFLICT (id) DO UPDATE")
	for _, f := range c.table.DataFields {
		if f.Name == "created_at" {
			continue
		}
		q = q.Set("? = EXCLUDED.?", bun.Ident(f.Name), bun.Ident(f.Name))
	}
	if _, err := q.Exec(ctx); err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (c *Collection[T, PT]) FetchAll(ctx context.Context) ([]T, error) {
	var rows []T
	err := c.db.NewSelect().
		Model(&rows).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Collection[T, PT]) FetchByID(ctx context.Context, id uuid.UUID) (T, error) {
	var row T
	PT(&row).SetEntityID(id)

	err := c.db.NewSelect().Model(&row).WherePK().Scan(ctx)
	if err != nil {
		var zero T
		if errors.Is(err, sql.ErrNoRows) {
			return zero, store.ErrNotFound
		}
		return zero, err
	}
	return row, nil
}

func (c *Collection[T, PT]) FetchWhereEquals(ctx context.Context, field string, value any) ([]T, error) {
	if !c.table.HasField(field) {
		return nil, store.ErrUnknownField
	}

	var rows []T
	err := c.db.NewSelect().
		Model(&rows).
		Where("? = ?", bun.Ident(field), value).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Update writes doc over the stored document id. With columns only those
// columns (and updated_at) are written.
func (c *Collection[T, PT]) Update(ctx context.Context, id uuid.UUID, doc *T, columns ...string) error {
	PT(doc).SetEntityID(id)

	q := c.db.NewUpdate().Model(doc).WherePK()
	if len(columns) > 0 {
		cols := make([]string, 0, len(columns)+1)
		for _, col := range columns {
			if col == "id" || !c.table.HasField(col) {
				return store.ErrUnknownField
			}
			cols = append(cols, col)
		}
		if c.table.HasField("updated_at") {
			cols = append(cols, "updated_at")
		}
		q = q.Column(cols...)
	} else {
		q = q.ExcludeColumn("id", "created_at")
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return mapWriteError(err)
	}
	return requireAffected(res)
}

func (c *Collection[T, PT]) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := c.db.NewDelete().
		Model((*T)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
