package instantiator

import (
	"fmt"
	"strings"

	"github.com/NicolasHaas/gosanction/pkg/model"
	"github.com/NicolasHaas/gosanction/pkg/parser"
)

// Update is one field change submitted by a form.
type Update struct {
	Field model.Field
	Value model.Value
}

// Registry looks up the Instantiator for a kind and converts raw form input into
// typed values.
type Registry struct {
	catalog  *model.Catalog
	servers  *parser.ServerListParser
	byKind   map[model.Kind]Instantiator
	ordering []model.Kind
}

// NewRegistry creates a registry for the four sanction kinds over catalog.
func NewRegistry(catalog *model.Catalog) *Registry {
	r := &Registry{
		catalog: catalog,
		servers: parser.NewServerListParser(catalog),
		byKind:  make(map[model.Kind]Instantiator, len(model.Kinds)),
	}
	for _, inst := range []Instantiator{
		NewBanInstantiator(),
		NewWarningInstantiator(),
		NewAgeCheckInstantiator(),
		NewWantedInstantiator(),
	} {
		r.byKind[inst.Kind()] = inst
		r.ordering = append(r.ordering, inst.Kind())
	}
	return r
}

// Catalog returns the server catalog the registry was built with.
func (r *Registry) Catalog() *model.Catalog {
	return r.catalog
}

// ServerParser returns the server-list parser bound to the catalog.
func (r *Registry) ServerParser() *parser.ServerListParser {
	return r.servers
}

// For returns the instantiator for k.
func (r *Registry) For(k model.Kind) (Instantiator, error) {
	inst, ok := r.byKind[k]
	if !ok {
		return nil, fmt.Errorf("instantiator: %w: %d", model.ErrUnknownKind, int(k))
	}
	return inst, nil
}

// All returns every instantiator in kind order.
func (r *Registry) All() []Instantiator {
	out := make([]Instantiator, 0, len(r.ordering))
	for _, k := range r.ordering {
		out = append(out, r.byKind[k])
	}
	return out
}

// Value converts raw form text for field f into a typed value. Unparsable input
// yields a value that fails validation for f, so the reason reaches the user
// instead of the edit being dropped.
func (r *Registry) Value(f model.Field, raw string) model.Value {
	raw = strings.TrimSpace(raw)
	switch f {
	case model.FieldDuration:
		n, err := parser.ParseSeconds(raw)
		if err != nil {
			return model.Seconds(0)
		}
		return model.Seconds(n)
	case model.FieldServers:
		v, ok := r.servers.Parse(raw)
		if !ok {
			return model.ServerList(nil)
		}
		return v
	case model.FieldDateOfBirth:
		if v, ok := parser.BirthDate.Parse(raw); ok {
			return v
		}
		return model.Text(raw)
	default:
		return model.Text(raw)
	}
}

// Text builds an Update from raw form text.
func (r *Registry) Text(f model.Field, raw string) Update {
	return Update{Field: f, Value: r.Value(f, raw)}
}

// Apply writes updates into s through the instantiator of its kind and returns
// how many were applied. Fields the kind does not carry are skipped. Server lists
// are stored in catalog order.
func (r *Registry) Apply(s model.Sanction, updates ...Update) (int, error) {
	inst, err := r.For(s.Kind())
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, u := range updates {
		v := u.Value
		if list, ok := v.(model.ServerList); ok {
			v = model.ServerList(r.catalog.Sort(list))
		}
		if inst.Set(s, u.Field, v) {
			applied++
		}
	}
	return applied, nil
}
