package store

import (
	"context"

	"github.com/google/uuid"
)

// Entity is a document addressed by a UUID primary key.
type Entity interface {
	EntityID() uuid.UUID
	SetEntityID(id uuid.UUID)
}

// Collection is the generic document store used by the catalog. FetchByID
// returns ErrNotFound for a missing document; FetchWhereEquals and Update
// return ErrUnknownField for a column the document does not have.
type Collection[T any] interface {
	Create(ctx context.Context, doc *T) (uuid.UUID, error)
	CreateWithID(ctx context.Context, id uuid.UUID, doc *T) error
	FetchAll(ctx context.Context) ([]T, error)
	FetchByID(ctx context.Context, id uuid.UUID) (T, error)
	FetchWhereEquals(ctx context.Context, field string, value any) ([]T, error)
	Update(ctx context.Context, id uuid.UUID, doc *T, columns ...string) error
	Delete(ctx context.Context, id uuid.UUID) error
}
