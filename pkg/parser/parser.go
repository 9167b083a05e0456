package parser

import (
	"github.com/NicolasHaas/gosanction/pkg/model"
)

// FieldParser turns the value half of a "label: value" line into a typed value.
type FieldParser interface {
	// Names returns the label aliases this parser accepts.
	Names() []string
	// Parse returns false when raw is not recognized; the caller then skips the field.
	Parse(raw string) (model.Value, bool)

	matches(normalizedLabel string) bool
}

// Matches reports whether label selects p.
func Matches(p FieldParser, label string) bool {
	return p.matches(Normalize(label))
}

// StringParser accepts any non-empty value verbatim.
type StringParser struct {
	aliases
}

// NewStringParser creates a string parser answering to the given labels.
func NewStringParser(names ...string) *StringParser {
	return &StringParser{aliases: newAliases(names...)}
}

func (p *StringParser) Parse(raw string) (model.Value, bool) {
	if raw == "" {
		return nil, false
	}
	return model.Text(raw), true
}

var (
	Name   = NewStringParser("Név", "Name", "Felhasználó")
	ID     = NewStringParser("SteamID", "ID", "UserID", "Steam ID")
	Reason = NewStringParser("Indok", "Ok", "Reason")
	IP     = NewStringParser("IP", "IP cím", "IP address")
)
