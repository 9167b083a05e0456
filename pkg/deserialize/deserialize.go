// Package deserialize turns legacy free-text records, one "label: value" pair per
// line, into draft sanctions.
package deserialize

import (
	"fmt"
	"strings"

	"github.com/NicolasHaas/gosanction/pkg/instantiator"
	"github.com/NicolasHaas/gosanction/pkg/model"
	"github.com/NicolasHaas/gosanction/pkg/parser"
)

// binding ties a parser to the field it fills.
type binding struct {
	parser parser.FieldParser
	field  model.Field
}

// Pair is one split line of a record.
type Pair struct {
	Key   string
	Value string
}

// Deserializer builds drafts of every sanction kind. It is safe for concurrent use.
type Deserializer struct {
	registry *instantiator.Registry
	bindings map[model.Kind][]binding
}

// New creates a deserializer whose server-list parser uses the registry's catalog.
func New(registry *instantiator.Registry) *Deserializer {
	servers := registry.ServerParser()
	return &Deserializer{
		registry: registry,
		bindings: map[model.Kind][]binding{
			model.KindBan: {
				{parser.Name, model.FieldPlayerName},
				{parser.ID, model.FieldIdentifier},
				{parser.Reason, model.FieldReason},
				{parser.IP, model.FieldIP},
				{servers, model.FieldServers},
				{parser.Duration, model.FieldDuration},
			},
			model.KindWarning: {
				{parser.Name, model.FieldPlayerName},
				{parser.ID, model.FieldIdentifier},
				{parser.Reason, model.FieldReason},
				{parser.IP, model.FieldIP},
				{servers, model.FieldServers},
			},
			model.KindAgeCheck: {
				{parser.Name, model.FieldPlayerName},
				{parser.ID, model.FieldIdentifier},
				{parser.BirthDate, model.FieldDateOfBirth},
			},
			model.KindWanted: {
				{parser.Name, model.FieldPlayerName},
				{parser.Reason, model.FieldReason},
				{servers, model.FieldServers},
			},
		},
	}
}

// Split breaks text into lines and each line at its first colon. Lines without
// a colon get an empty Value.
func Split(text string) []Pair {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	pairs := make([]Pair, 0, len(lines))
	for _, line := range lines {
		key, value, _ := strings.Cut(line, ":")
		pairs = append(pairs, Pair{Key: key, Value: value})
	}
	return pairs
}

// Deserialize parses text into a draft of kind k. The draft is not validated;
// lines with unknown labels or unparsable values are skipped.
func (d *Deserializer) Deserialize(text string, k model.Kind) (model.Sanction, error) {
	return d.FromPairs(Split(text), k)
}

// FromPairs is Deserialize for already split lines.
func (d *Deserializer) FromPairs(pairs []Pair, k model.Kind) (model.Sanction, error) {
	bindings, ok := d.bindings[k]
	if !ok {
		return nil, fmt.Errorf("deserialize: %w: %d", model.ErrUnknownKind, int(k))
	}
	inst, err := d.registry.For(k)
	if err != nil {
		return nil, fmt.Errorf("deserialize: %w", err)
	}

	s := inst.New()
	for _, p := range pairs {
		key, value := strings.TrimSpace(p.Key), strings.TrimSpace(p.Value)
		if key == "" || value == "" {
			continue
		}
		b, ok := match(bindings, key)
		if !ok {
			continue
		}
		if v, ok := b.parser.Parse(value); ok {
			inst.Set(s, b.field, v)
		}
	}
	return s, nil
}

// DeserializeNamed is Deserialize with the kind given by name, e.g. "Ban".
func (d *Deserializer) DeserializeNamed(text, kind string) (model.Sanction, error) {
	k, err := model.ParseKind(kind)
	if err != nil {
		return nil, fmt.Errorf("deserialize: %w", err)
	}
	return d.Deserialize(text, k)
}

func match(bindings []binding, label string) (binding, bool) {
	for _, b := range bindings {
		if parser.Matches(b.parser, label) {
			return b, true
		}
	}
	return binding{}, false
}
