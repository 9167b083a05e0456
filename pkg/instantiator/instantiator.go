// Package instantiator describes, per sanction kind, which fields a form shows
// and how a field is written. It is the seam between the domain model and any
// presentation layer.
package instantiator

import (
	"strings"
	"time"

	"github.com/NicolasHaas/gosanction/pkg/model"
)

const emptyValue = "< empty >"

// ExpiryLayout formats ban expiry times in display fields.
const ExpiryLayout = "2006-01-02 15:04 MST"

// DisplayField is one read-only line of a sanction summary.
type DisplayField struct {
	Name   string
	Value  string
	Inline bool
}

// Input describes one editable form field.
type Input struct {
	Label     string
	Field     model.Field
	Value     string // current value, "" if unset
	MinLength int
	MaxLength int
	Multiline bool
}

// Instantiator is implemented once per sanction kind.
type Instantiator interface {
	Kind() model.Kind
	// Name is the human-readable kind name.
	Name() string
	// Description is the prompt shown above a blank form.
	Description() string
	// Tracked reports whether the kind carries a server list.
	Tracked() bool
	New() model.Sanction
	DisplayFields(s model.Sanction) []DisplayField
	Inputs(s model.Sanction) []Input
	// Set writes v into field f of s. It returns false, leaving s untouched, when
	// the kind has no setter for f, v has the wrong type or s is another kind.
	Set(s model.Sanction, f model.Field, v model.Value) bool
}

type setter[T model.Sanction] func(T, model.Value) bool

// base implements the kind-independent part of Instantiator.
type base[T model.Sanction] struct {
	kind        model.Kind
	name        string
	description string
	tracked     bool
	newFn       func() T
	setters     map[model.Field]setter[T]
}

func (b *base[T]) Kind() model.Kind {
	return b.kind
}

func (b *base[T]) Name() string {
	return b.name
}

func (b *base[T]) Description() string {
	return b.description
}

func (b *base[T]) Tracked() bool {
	return b.tracked
}

func (b *base[T]) New() model.Sanction {
	return b.newFn()
}

func (b *base[T]) Set(s model.Sanction, f model.Field, v model.Value) bool {
	t, ok := s.(T)
	if !ok {
		return false
	}
	set, ok := b.setters[f]
	if !ok {
		return false
	}
	return set(t, v)
}

func setText(dst *string, v model.Value) bool {
	t, ok := v.(model.Text)
	if ok {
		*dst = strings.TrimSpace(string(t))
	}
	return ok
}

func setSeconds(dst *int64, v model.Value) bool {
	n, ok := v.(model.Seconds)
	if ok {
		*dst = int64(n)
	}
	return ok
}

func setServers(dst *[]model.Server, v model.Value) bool {
	list, ok := v.(model.ServerList)
	if ok {
		*dst = append([]model.Server(nil), list...)
	}
	return ok
}

func orEmpty(s string) string {
	if s == "" {
		return emptyValue
	}
	return s
}

func joinServers(servers []model.Server) string {
	names := make([]string, len(servers))
	for i, s := range servers {
		names[i] = string(s)
	}
	return orEmpty(strings.Join(names, "\n"))
}

func formatCreated(t time.Time) string {
	if t.IsZero() {
		return emptyValue
	}
	return t.Format(ExpiryLayout)
}
