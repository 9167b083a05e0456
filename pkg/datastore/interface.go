// Package datastore is the persistence gateway for sanctions: a SQLite
// implementation, an in-memory implementation and YAML backups.
package datastore

import (
	"context"
	"errors"

	"github.com/NicolasHaas/gosanction/pkg/model"
)

var ErrNotFound = errors.New("datastore: not found")

type DataProviderFactory interface {
	NonTx() DataStore
	Tx(context.Context) (DataStoreTx, error)
	Close() error
}

type DataStoreTx interface {
	DataStore
	RestoreProvider
	Rollback() error
	Commit() error
}

// DataStore is the gateway the workflow talks to. Every call is bounded by ctx.
type DataStore interface {
	SanctionReadProvider
	SanctionWriteProvider
}

type SanctionReadProvider interface {
	// ListAll returns every stored sanction of kind k ordered by id.
	ListAll(ctx context.Context, k model.Kind) ([]model.Sanction, error)
	// Get returns ErrNotFound if no row has this id.
	Get(ctx context.Context, k model.Kind, id int64) (model.Sanction, error)
}

type SanctionWriteProvider interface {
	// Create stores s and returns the id assigned to it. s itself is not modified.
	Create(ctx context.Context, s model.Sanction) (int64, error)
	// Update overwrites the row with id s.Common().ID. Returns ErrNotFound if absent.
	Update(ctx context.Context, s model.Sanction) error
	// Delete removes a row. Returns ErrNotFound if absent.
	Delete(ctx context.Context, k model.Kind, id int64) error
}

// RestoreProvider is only available inside a transaction.
type RestoreProvider interface {
	// Truncate deletes every row of kind k.
	Truncate(ctx context.Context, k model.Kind) error
	// Insert stores s under its own id.
	Insert(ctx context.Context, s model.Sanction) error
}

var (
	_ DataProviderFactory = (*ProviderFactory)(nil)
	_ DataProviderFactory = (*MemoryFactory)(nil)
)
