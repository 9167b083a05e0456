// Package model defines the core domain types for gosanction: the four sanction
// variants, the fields they carry and the rules that decide whether a record is
// complete enough to be stored.
package model

import (
	"fmt"
	"strings"
)

// Kind identifies one of the sanction variants.
type Kind int

const (
	KindBan      Kind = iota // Temporary ban from one or more servers
	KindWarning              // Recorded warning, no duration
	KindAgeCheck             // Apparent date of birth of a player
	KindWanted               // Wanted-person notice, deletable by anyone
)

// Kinds lists every sanction kind in display order.
var Kinds = []Kind{KindBan, KindWarning, KindAgeCheck, KindWanted}

func (k Kind) String() string {
	switch k {
	case KindBan:
		return "Ban"
	case KindWarning:
		return "Warning"
	case KindAgeCheck:
		return "AgeCheck"
	case KindWanted:
		return "WantedIndividual"
	default:
		return "unknown"
	}
}

// Valid returns true if the kind is one of the four known variants.
func (k Kind) Valid() bool {
	return k >= KindBan && k <= KindWanted
}

// ParseKind converts a type name to a Kind. Matching is case-insensitive and
// accepts the short form "wanted".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ban":
		return KindBan, nil
	case "warning", "warn":
		return KindWarning, nil
	case "agecheck", "age_check", "age-check":
		return KindAgeCheck, nil
	case "wantedindividual", "wanted":
		return KindWanted, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// New returns a blank sanction of the given kind, or nil for an unknown kind.
func New(k Kind) Sanction {
	switch k {
	case KindBan:
		return NewBan()
	case KindWarning:
		return NewWarning()
	case KindAgeCheck:
		return NewAgeCheck()
	case KindWanted:
		return NewWanted()
	default:
		return nil
	}
}
