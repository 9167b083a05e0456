package model

import (
	"errors"
	"fmt"
)

var ErrUnknownField = errors.New("unknown field")

// Field identifies an editable sanction field.
type Field int

const (
	FieldPlayerName Field = iota + 1
	FieldIdentifier
	FieldIP
	FieldReason
	FieldDuration
	FieldServers
	FieldDateOfBirth
)

// Fields lists every field in form order.
var Fields = []Field{
	FieldPlayerName,
	FieldIdentifier,
	FieldIP,
	FieldReason,
	FieldDuration,
	FieldServers,
	FieldDateOfBirth,
}

// String returns the stable key used by forms and the CLI.
func (f Field) String() string {
	switch f {
	case FieldPlayerName:
		return "playerName"
	case FieldIdentifier:
		return "steamID"
	case FieldIP:
		return "IP"
	case FieldReason:
		return "reason"
	case FieldDuration:
		return "duration"
	case FieldServers:
		return "servers"
	case FieldDateOfBirth:
		return "birthDate"
	default:
		return "unknown"
	}
}

// ParseField converts a form key back into a Field.
func ParseField(key string) (Field, error) {
	for _, f := range Fields {
		if f.String() == key {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, key)
}

// Value is a typed field value produced by a parser or a form.
// It is one of Text, Seconds or ServerList.
type Value interface {
	isValue()
}

// Text is a plain string value (name, reason, identifier, IP, date of birth).
type Text string

// Seconds is a duration value.
type Seconds int64

// ServerList is a set of servers.
type ServerList []Server

func (Text) isValue()       {}
func (Seconds) isValue()    {}
func (ServerList) isValue() {}
