package datastore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/NicolasHaas/gosanction/pkg/model"
)

// memoryState is the content of a MemoryFactory. Rows are stored as clones.
type memoryState struct {
	nextID map[model.Kind]int64
	rows   map[model.Kind]map[int64]model.Sanction
}

func newMemoryState() *memoryState {
	st := &memoryState{
		nextID: make(map[model.Kind]int64, len(model.Kinds)),
		rows:   make(map[model.Kind]map[int64]model.Sanction, len(model.Kinds)),
	}
	for _, k := range model.Kinds {
		st.nextID[k] = 1
		st.rows[k] = make(map[int64]model.Sanction)
	}
	return st
}

func (st *memoryState) clone() *memoryState {
	c := &memoryState{
		nextID: maps.Clone(st.nextID),
		rows:   make(map[model.Kind]map[int64]model.Sanction, len(st.rows)),
	}
	for k, rows := range st.rows {
		c.rows[k] = maps.Clone(rows)
	}
	return c
}

// MemoryFactory provides an in-memory DataProviderFactory for tests and dry runs.
// It mirrors the SQLite implementation: ids are assigned per kind starting at 1,
// and transactions see a private copy that replaces the shared state on Commit.
type MemoryFactory struct {
	mu    sync.Mutex
	state *memoryState
}

// NewMemory creates an empty MemoryFactory.
func NewMemory() *MemoryFactory {
	return &MemoryFactory{state: newMemoryState()}
}

func (f *MemoryFactory) NonTx() DataStore {
	return &memoryProvider{
		lock:  &f.mu,
		state: func() *memoryState { return f.state },
	}
}

func (f *MemoryFactory) Tx(ctx context.Context) (DataStoreTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("datastore: begin tx: %w", err)
	}
	f.mu.Lock()
	st := f.state.clone()
	f.mu.Unlock()

	tx := &memoryTx{factory: f, own: st}
	tx.memoryProvider = memoryProvider{
		lock:  &tx.mu,
		state: func() *memoryState { return tx.own },
	}
	return tx, nil
}

// Close is a no-op for MemoryFactory.
func (f *MemoryFactory) Close() error {
	return nil
}

type memoryProvider struct {
	lock  sync.Locker
	state func() *memoryState
}

func (p *memoryProvider) Create(ctx context.Context, s model.Sanction) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("datastore: create %s: %w", s.Kind(), err)
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	st := p.state()
	rows, ok := st.rows[s.Kind()]
	if !ok {
		return 0, fmt.Errorf("datastore: %w: %d", model.ErrUnknownKind, int(s.Kind()))
	}
	id := st.nextID[s.Kind()]
	st.nextID[s.Kind()] = id + 1
	row := s.Clone()
	row.Common().ID = id
	rows[id] = row
	return id, nil
}

func (p *memoryProvider) Update(ctx context.Context, s model.Sanction) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("datastore: update %s: %w", s.Kind(), err)
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	rows := p.state().rows[s.Kind()]
	id := s.Common().ID
	if _, ok := rows[id]; !ok {
		return fmt.Errorf("%w: %s %d", ErrNotFound, s.Kind(), id)
	}
	rows[id] = s.Clone()
	return nil
}

func (p *memoryProvider) Delete(ctx context.Context, k model.Kind, id int64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("datastore: delete %s: %w", k, err)
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	rows := p.state().rows[k]
	if _, ok := rows[id]; !ok {
		return fmt.Errorf("%w: %s %d", ErrNotFound, k, id)
	}
	delete(rows, id)
	return nil
}

func (p *memoryProvider) Get(ctx context.Context, k model.Kind, id int64) (model.Sanction, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("datastore: get %s: %w", k, err)
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	row, ok := p.state().rows[k][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s %d", ErrNotFound, k, id)
	}
	return row.Clone(), nil
}

func (p *memoryProvider) ListAll(ctx context.Context, k model.Kind) ([]model.Sanction, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("datastore: list %s: %w", k, err)
	}
	if !k.Valid() {
		return nil, fmt.Errorf("datastore: %w: %d", model.ErrUnknownKind, int(k))
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	rows := p.state().rows[k]
	out := make([]model.Sanction, 0, len(rows))
	for _, id := range slices.Sorted(maps.Keys(rows)) {
		out = append(out, rows[id].Clone())
	}
	return out, nil
}

type memoryTx struct {
	memoryProvider
	mu      sync.Mutex
	factory *MemoryFactory
	own     *memoryState
	done    bool
}

func (tx *memoryTx) Truncate(ctx context.Context, k model.Kind) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("datastore: truncate %s: %w", k, err)
	}
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.own.rows[k] = make(map[int64]model.Sanction)
	return nil
}

func (tx *memoryTx) Insert(ctx context.Context, s model.Sanction) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("datastore: insert %s: %w", s.Kind(), err)
	}
	tx.mu.Lock()
	defer tx.mu.Unlock()
	id := s.Common().ID
	rows := tx.own.rows[s.Kind()]
	if _, exists := rows[id]; exists {
		return fmt.Errorf("datastore: insert %s %d: constraint failed: UNIQUE constraint failed: id", s.Kind(), id)
	}
	rows[id] = s.Clone()
	if id >= tx.own.nextID[s.Kind()] {
		tx.own.nextID[s.Kind()] = id + 1
	}
	return nil
}

func (tx *memoryTx) Commit() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done {
		return fmt.Errorf("datastore: commit: transaction already finished")
	}
	tx.done = true
	tx.factory.mu.Lock()
	tx.factory.state = tx.own
	tx.factory.mu.Unlock()
	return nil
}

func (tx *memoryTx) Rollback() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.done = true
	return nil
}
