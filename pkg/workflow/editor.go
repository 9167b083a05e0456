package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/NicolasHaas/gosanction/pkg/instantiator"
	"github.com/NicolasHaas/gosanction/pkg/model"
	"github.com/NicolasHaas/gosanction/pkg/rbac"
)

// Edit applies updates to the indexed sanction of kind k with the given id.
// The changes are validated on a copy and persisted before the indexed
// sanction is touched. Updates for fields the kind does not carry are ignored;
// when none apply Edit returns the sanction unchanged without calling the
// gateway.
func (s *Service) Edit(ctx context.Context, actor model.Actor, k model.Kind, id int64, updates ...instantiator.Update) (edited model.Sanction, err error) {
	defer func() { s.record("edit", k, err) }()

	release, err := s.acquire(k, id)
	if err != nil {
		return nil, err
	}
	defer release()

	live := s.index.FindByID(k, id)
	draft, ok := s.index.Get(k, id)
	if live == nil || !ok {
		return nil, fmt.Errorf("%w: %s %d", ErrNotFound, k, id)
	}
	if !rbac.CanEdit(actor, draft) {
		return nil, &AuthorizationError{Actor: actor.ID, Action: "edit", Kind: k, ID: id}
	}

	applied, err := s.registry.Apply(draft, updates...)
	if err != nil {
		return nil, fmt.Errorf("workflow: edit: %w", err)
	}
	if applied == 0 {
		return draft, nil
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	start := time.Now()
	err = s.gateway.Update(callCtx, draft)
	s.metrics.ObserveGateway(string(OpUpdate), start)
	if err != nil {
		s.logger.Error("update sanction failed", "kind", k, "id", id, "err", err)
		return nil, &PersistenceError{Op: OpUpdate, Kind: k, ID: id, Err: err}
	}

	if err := s.index.Mutate(live, draft.CopyTo); err != nil {
		return nil, fmt.Errorf("workflow: edit: %w", err)
	}
	s.logger.Info("sanction edited", "kind", k, "id", id, "actor", actor.ID, "fields", applied)
	return draft.Clone(), nil
}

// RequestDelete checks that actor may delete the sanction and returns a
// confirmation code. A new request by the same actor replaces the earlier code.
func (s *Service) RequestDelete(actor model.Actor, k model.Kind, id int64) (code string, err error) {
	defer func() { s.record("request_delete", k, err) }()

	current, ok := s.index.Get(k, id)
	if !ok {
		return "", fmt.Errorf("%w: %s %d", ErrNotFound, k, id)
	}
	if !rbac.CanDelete(actor, current) {
		return "", &AuthorizationError{Actor: actor.ID, Action: "delete", Kind: k, ID: id}
	}
	return s.issueCode(deleteKey(actor.ID, k, id))
}

// ConfirmDelete consumes the code issued by RequestDelete and, when it
// matches, deletes the sanction durably and then drops it from the index.
// The deleted record is returned.
func (s *Service) ConfirmDelete(ctx context.Context, actor model.Actor, k model.Kind, id int64, code string) (deleted model.Sanction, err error) {
	defer func() { s.record("delete", k, err) }()

	release, err := s.acquire(k, id)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.consumeCode(deleteKey(actor.ID, k, id), code); err != nil {
		return nil, err
	}

	live := s.index.FindByID(k, id)
	current, ok := s.index.Get(k, id)
	if live == nil || !ok {
		return nil, fmt.Errorf("%w: %s %d", ErrNotFound, k, id)
	}
	if !rbac.CanDelete(actor, current) {
		return nil, &AuthorizationError{Actor: actor.ID, Action: "delete", Kind: k, ID: id}
	}

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	start := time.Now()
	err = s.gateway.Delete(callCtx, k, id)
	s.metrics.ObserveGateway(string(OpDelete), start)
	if err != nil {
		s.logger.Error("delete sanction failed", "kind", k, "id", id, "err", err)
		return nil, &PersistenceError{Op: OpDelete, Kind: k, ID: id, Err: err}
	}

	s.index.Remove(live)
	s.metrics.SetIndexed(s.index.Counts())
	s.logger.Info("sanction deleted", "kind", k, "id", id, "actor", actor.ID, s.recordAttr(current))
	return current, nil
}
