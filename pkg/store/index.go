// Package store provides the in-memory sanction index. It never performs
// durable I/O: callers add a sanction after the gateway assigned its id and
// remove it after the durable delete succeeded.
package store

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/disgoorg/snowflake/v2"

	"github.com/NicolasHaas/gosanction/pkg/model"
	"github.com/NicolasHaas/gosanction/pkg/parser"
)

var (
	ErrDuplicateID = errors.New("store: duplicate id")
	ErrNotIndexed  = errors.New("store: sanction not indexed")
)

// Index holds every accepted sanction, one ordered collection per kind.
//
// FindByID returns the indexed instance itself; every other query returns
// clones, so results stay consistent while Mutate edits the live records.
type Index struct {
	mu          sync.RWMutex
	collections map[model.Kind][]model.Sanction
}

// New creates an empty index.
func New() *Index {
	x := &Index{collections: make(map[model.Kind][]model.Sanction, len(model.Kinds))}
	for _, k := range model.Kinds {
		x.collections[k] = nil
	}
	return x
}

// Add assigns id to s and appends it to the collection of its kind.
func (x *Index) Add(s model.Sanction, id int64) error {
	k := s.Kind()
	x.mu.Lock()
	defer x.mu.Unlock()
	list, ok := x.collections[k]
	if !ok {
		return fmt.Errorf("store: add: %w", model.ErrUnknownKind)
	}
	if findByID(list, id) != nil {
		return fmt.Errorf("%w: %s %d", ErrDuplicateID, k, id)
	}
	s.Common().ID = id
	x.collections[k] = append(list, s)
	return nil
}

// Replace swaps the whole collection of kind k, e.g. after loading it from the
// gateway. Entries with duplicate ids keep their first occurrence.
func (x *Index) Replace(k model.Kind, list []model.Sanction) error {
	if !k.Valid() {
		return fmt.Errorf("store: replace: %w", model.ErrUnknownKind)
	}
	out := make([]model.Sanction, 0, len(list))
	seen := make(map[int64]struct{}, len(list))
	for _, s := range list {
		if s.Kind() != k {
			return fmt.Errorf("store: replace: %w: want %s, got %s", model.ErrKindMismatch, k, s.Kind())
		}
		if _, dup := seen[s.Common().ID]; dup {
			continue
		}
		seen[s.Common().ID] = struct{}{}
		out = append(out, s)
	}
	x.mu.Lock()
	x.collections[k] = out
	x.mu.Unlock()
	return nil
}

// FindByID returns the indexed sanction of kind k with the given id, or nil.
func (x *Index) FindByID(k model.Kind, id int64) model.Sanction {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return findByID(x.collections[k], id)
}

// Get returns a clone of the sanction of kind k with the given id.
func (x *Index) Get(k model.Kind, id int64) (model.Sanction, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	s := findByID(x.collections[k], id)
	if s == nil {
		return nil, false
	}
	return s.Clone(), true
}

func findByID(list []model.Sanction, id int64) model.Sanction {
	for _, s := range list {
		if s.Common().ID == id {
			return s
		}
	}
	return nil
}

// Remove deletes s, matched by identity, from its collection. It reports whether
// s was indexed.
func (x *Index) Remove(s model.Sanction) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	list := x.collections[s.Kind()]
	i := slices.IndexFunc(list, func(e model.Sanction) bool { return e == s })
	if i < 0 {
		return false
	}
	x.collections[s.Kind()] = slices.Delete(list, i, i+1)
	return true
}

// Mutate runs fn while holding the write lock, provided s is still indexed.
// fn should only copy already-validated values into s.
func (x *Index) Mutate(s model.Sanction, fn func(live model.Sanction) error) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if !slices.Contains(x.collections[s.Kind()], s) {
		return fmt.Errorf("%w: %s %d", ErrNotIndexed, s.Kind(), s.Common().ID)
	}
	return fn(s)
}

// All returns clones of every sanction of kind k in insertion order.
func (x *Index) All(k model.Kind) []model.Sanction {
	return x.filter([]model.Kind{k}, func(model.Sanction) bool { return true })
}

// Counts returns the number of indexed sanctions per kind.
func (x *Index) Counts() map[model.Kind]int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make(map[model.Kind]int, len(x.collections))
	for k, list := range x.collections {
		out[k] = len(list)
	}
	return out
}

// FindByIdentifier returns sanctions whose player identifier refers to the same
// account as identifier. "123@steam" and "123" match each other. An empty
// identifier matches nothing. With no kinds, every kind is searched.
func (x *Index) FindByIdentifier(identifier string, kinds ...model.Kind) []model.Sanction {
	want := model.ExtractUserID(identifier)
	if want == "" {
		return nil
	}
	return x.filter(kinds, func(s model.Sanction) bool {
		id, ok := s.(model.Identified)
		return ok && model.ExtractUserID(id.PlayerIdentifier()) == want
	})
}

// FindByNickname matches player names ignoring case and diacritics.
func (x *Index) FindByNickname(nickname string, kinds ...model.Kind) []model.Sanction {
	return x.FindByNicknames([]string{nickname}, kinds...)
}

// FindByNicknames matches any of nicknames, ignoring case and diacritics.
func (x *Index) FindByNicknames(nicknames []string, kinds ...model.Kind) []model.Sanction {
	want := make([]string, 0, len(nicknames))
	for _, n := range nicknames {
		want = append(want, parser.Normalize(n))
	}
	return x.filter(kinds, func(s model.Sanction) bool {
		return slices.Contains(want, parser.Normalize(s.Common().PlayerName))
	})
}

// FindByIP returns sanctions recorded with exactly this address.
func (x *Index) FindByIP(ip string, kinds ...model.Kind) []model.Sanction {
	return x.filter(kinds, func(s model.Sanction) bool {
		a, ok := s.(model.Addressed)
		return ok && a.Address() == ip
	})
}

// FindAllIssuedBy returns every sanction issued by moderator, across all kinds.
func (x *Index) FindAllIssuedBy(moderator snowflake.ID) []model.Sanction {
	return x.filter(nil, func(s model.Sanction) bool {
		return s.Common().IssuedBy == moderator
	})
}

func (x *Index) filter(kinds []model.Kind, keep func(model.Sanction) bool) []model.Sanction {
	if len(kinds) == 0 {
		kinds = model.Kinds
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	var out []model.Sanction
	for _, k := range kinds {
		for _, s := range x.collections[k] {
			if keep(s) {
				out = append(out, s.Clone())
			}
		}
	}
	return out
}
