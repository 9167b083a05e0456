package workflow

import (
	"errors"
	"fmt"

	"github.com/disgoorg/snowflake/v2"

	"github.com/NicolasHaas/gosanction/pkg/model"
)

// Sentinel errors. Every typed error below matches exactly one of them.
var (
	ErrValidation   = model.ErrInvalid
	ErrUnauthorized = errors.New("workflow: unauthorized")
	ErrConfirmation = errors.New("workflow: confirmation failed")
	ErrPersistence  = errors.New("workflow: persistence failed")
	ErrNotFound     = errors.New("workflow: not found")
	ErrBusy         = errors.New("workflow: another operation is in progress")
)

// Op names the gateway call a PersistenceError came from.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpList   Op = "list"
)

// AuthorizationError is returned when the actor neither issued the sanction
// nor holds the override permission for the action.
type AuthorizationError struct {
	Actor  snowflake.ID
	Action string
	Kind   model.Kind
	ID     int64
}

func (e *AuthorizationError) Error() string {
	if e.ID == model.UnassignedID {
		return fmt.Sprintf("workflow: %s %s: actor %s is not allowed", e.Action, e.Kind, e.Actor)
	}
	return fmt.Sprintf("workflow: %s %s %d: actor %s is not allowed", e.Action, e.Kind, e.ID, e.Actor)
}

func (e *AuthorizationError) Is(target error) bool {
	return target == ErrUnauthorized
}

// ConfirmationReason tells why a confirmation code was refused.
type ConfirmationReason string

const (
	ConfirmationMissing  ConfirmationReason = "no pending confirmation"
	ConfirmationExpired  ConfirmationReason = "confirmation code expired"
	ConfirmationMismatch ConfirmationReason = "confirmation code does not match"
)

// ConfirmationError is returned when a destructive action is confirmed with a
// missing, expired or wrong code.
type ConfirmationError struct {
	Reason ConfirmationReason
}

func (e *ConfirmationError) Error() string {
	return "workflow: " + string(e.Reason)
}

func (e *ConfirmationError) Is(target error) bool {
	return target == ErrConfirmation
}

// PersistenceError wraps a failed gateway call. In-memory state is unchanged
// when it is returned: after OpCreate the record does not exist, after OpUpdate
// and OpDelete the durable record keeps its previous content.
type PersistenceError struct {
	Op   Op
	Kind model.Kind
	ID   int64
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.ID == model.UnassignedID {
		return fmt.Sprintf("workflow: %s %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("workflow: %s %s %d: %v", e.Op, e.Kind, e.ID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// result maps an operation error onto a metrics label.
func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrConfirmation):
		return "confirmation"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
