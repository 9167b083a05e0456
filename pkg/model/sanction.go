package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// UnassignedID is the id of a sanction that has not been persisted yet.
const UnassignedID int64 = -1

var ErrUnknownKind = errors.New("unknown sanction kind")
var ErrKindMismatch = errors.New("sanction kind mismatch")

// ErrInvalid is matched by every *ValidationError.
var ErrInvalid = errors.New("invalid sanction")

// Severity is a display tag. It carries no logic.
type Severity string

const (
	SeverityRed     Severity = "red"
	SeverityYellow  Severity = "yellow"
	SeverityGreen   Severity = "green"
	SeverityDarkRed Severity = "darkred"
)

// Sanction is implemented by *Ban, *Warning, *AgeCheck and *Wanted.
type Sanction interface {
	Kind() Kind
	// Common returns the fields shared by all variants.
	Common() *Record
	// Validate returns nil or a *ValidationError naming the first bad field.
	Validate() error
	// CopyTo deep-copies every field into dst, which must be of the same kind.
	CopyTo(dst Sanction) error
	Clone() Sanction
}

// Record holds the fields shared by every sanction variant.
type Record struct {
	ID         int64        `json:"id"`
	IssuedBy   snowflake.ID `json:"issued_by"`
	PlayerName string       `json:"player_name"`
	Created    time.Time    `json:"created"` // zero until persisted
	Severity   Severity     `json:"severity"`
}

func newRecord(sev Severity) Record {
	return Record{ID: UnassignedID, Severity: sev}
}

func (r *Record) validate() error {
	if r.PlayerName == "" {
		return invalid(FieldPlayerName, "player name is empty")
	}
	return nil
}

// ValidationError reports the first missing or malformed field of a sanction.
type ValidationError struct {
	Field  Field
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Is reports ErrInvalid so callers can match any validation failure.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

func invalid(f Field, reason string) error {
	return &ValidationError{Field: f, Reason: reason}
}

// IsValid returns true if s passes validation.
func IsValid(s Sanction) bool {
	return s.Validate() == nil
}

// ValidationReason returns the human-readable reason s is invalid, or "" when valid.
func ValidationReason(s Sanction) string {
	if err := s.Validate(); err != nil {
		return err.Error()
	}
	return ""
}

// Tracked is implemented by variants that carry a server list.
type Tracked interface {
	Sanction
	ServerList() []Server
	SetServers([]Server)
}

// Identified is implemented by variants that carry a player identifier.
type Identified interface {
	Sanction
	PlayerIdentifier() string
}

// Addressed is implemented by variants that carry an IP address.
type Addressed interface {
	Sanction
	Address() string
}

// Deletable is implemented by variants that may be deleted by any moderator.
type Deletable interface {
	DeletableByAnyone() bool
}

// DeletableByAnyone reports whether s opts out of issuer-only deletion.
func DeletableByAnyone(s Sanction) bool {
	d, ok := s.(Deletable)
	return ok && d.DeletableByAnyone()
}

func copyServers(src []Server) []Server {
	if src == nil {
		return nil
	}
	out := make([]Server, len(src))
	copy(out, src)
	return out
}

func mismatch(want Kind, got Sanction) error {
	if got == nil {
		return fmt.Errorf("%w: want %s, got nil", ErrKindMismatch, want)
	}
	return fmt.Errorf("%w: want %s, got %s", ErrKindMismatch, want, got.Kind())
}
