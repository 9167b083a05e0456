package workflow

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/NicolasHaas/gosanction/pkg/instantiator"
	"github.com/NicolasHaas/gosanction/pkg/model"
	"github.com/NicolasHaas/gosanction/pkg/rbac"
)

type pendingEntry struct {
	kind     model.Kind
	draft    model.Sanction
	view     string
	imported time.Time
	busy     bool
}

// Verification is a snapshot of a pending entry for display.
type Verification struct {
	Source   string
	View     string
	Kind     model.Kind
	Sanction model.Sanction
	Valid    bool
	Field    model.Field // first invalid field, zero when valid
	Reason   string
	Imported time.Time
}

func (s *Service) snapshot(source string, e *pendingEntry) Verification {
	v := Verification{
		Source:   source,
		View:     e.view,
		Kind:     e.kind,
		Sanction: e.draft.Clone(),
		Valid:    true,
		Imported: e.imported,
	}
	if err := e.draft.Validate(); err != nil {
		v.Valid = false
		v.Reason = err.Error()
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			v.Field = verr.Field
		}
	}
	return v
}

func (s *Service) pendingExpired(e *pendingEntry, now time.Time) bool {
	return s.pendingTTL > 0 && !now.Before(e.imported.Add(s.pendingTTL))
}

// lookupLocked returns the live entry for source, dropping it if it expired.
// s.mu must be held.
func (s *Service) lookupLocked(source string) (*pendingEntry, error) {
	e, ok := s.pending[source]
	if !ok {
		return nil, fmt.Errorf("%w: pending %q", ErrNotFound, source)
	}
	if !e.busy && s.pendingExpired(e, s.now()) {
		delete(s.pending, source)
		s.publishLocked()
		return nil, fmt.Errorf("%w: pending %q expired", ErrNotFound, source)
	}
	return e, nil
}

// Import deserializes text as a sanction of kind k and holds it for review
// under source, the locator of the legacy record. An empty source gets a
// random locator. Importing a source that is already pending returns the
// existing entry unchanged.
func (s *Service) Import(source string, k model.Kind, text string) (Verification, error) {
	draft, err := s.deserializer.Deserialize(text, k)
	if err != nil {
		return Verification{}, fmt.Errorf("workflow: import: %w", err)
	}
	if source == "" {
		source = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, err := s.lookupLocked(source); err == nil {
		return s.snapshot(source, e), nil
	}
	e := &pendingEntry{kind: k, draft: draft, imported: s.now()}
	s.pending[source] = e
	s.publishLocked()
	s.record("import", k, nil)
	s.logger.Debug("sanction imported for review", "source", source, "kind", k, "valid", model.IsValid(draft))
	return s.snapshot(source, e), nil
}

// AttachView associates the presentation handle of the review prompt with a
// pending entry.
func (s *Service) AttachView(source, view string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookupLocked(source)
	if err != nil {
		return err
	}
	e.view = view
	return nil
}

// Review returns the pending entry for source.
func (s *Service) Review(source string) (Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookupLocked(source)
	if err != nil {
		return Verification{}, err
	}
	return s.snapshot(source, e), nil
}

// Pending returns every pending entry, oldest first.
func (s *Service) Pending() []Verification {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Verification, 0, len(s.pending))
	for source, e := range s.pending {
		if !e.busy && s.pendingExpired(e, now) {
			delete(s.pending, source)
			continue
		}
		out = append(out, s.snapshot(source, e))
	}
	s.publishLocked()
	slices.SortFunc(out, func(a, b Verification) int {
		return cmp.Or(a.Imported.Compare(b.Imported), cmp.Compare(a.Source, b.Source))
	})
	return out
}

// UpdatePending applies field updates to a pending draft and returns the
// refreshed entry.
func (s *Service) UpdatePending(source string, updates ...instantiator.Update) (Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookupLocked(source)
	if err != nil {
		return Verification{}, err
	}
	if e.busy {
		return Verification{}, fmt.Errorf("%w: pending %q", ErrBusy, source)
	}
	if _, err := s.registry.Apply(e.draft, updates...); err != nil {
		return Verification{}, fmt.Errorf("workflow: update pending: %w", err)
	}
	return s.snapshot(source, e), nil
}

// claim marks a pending entry as under transition and returns a copy of its
// draft. The returned func releases the claim.
func (s *Service) claim(source string) (*pendingEntry, model.Sanction, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookupLocked(source)
	if err != nil {
		return nil, nil, nil, err
	}
	if e.busy {
		return nil, nil, nil, fmt.Errorf("%w: pending %q", ErrBusy, source)
	}
	e.busy = true
	return e, e.draft.Clone(), func() {
		s.mu.Lock()
		e.busy = false
		s.mu.Unlock()
	}, nil
}

// dropPending removes e if it is still the entry stored under source.
func (s *Service) dropPending(source string, e *pendingEntry) {
	s.mu.Lock()
	if s.pending[source] == e {
		delete(s.pending, source)
	}
	s.publishLocked()
	s.mu.Unlock()
}

// Accept validates the pending draft under source, persists it and indexes
// it. The entry stays pending when validation or persistence fails.
func (s *Service) Accept(ctx context.Context, actor model.Actor, source string) (accepted model.Sanction, err error) {
	kind := noKind
	defer func() { s.record("accept", kind, err) }()

	e, draft, release, err := s.claim(source)
	if err != nil {
		return nil, err
	}
	defer release()
	kind = e.kind

	if !rbac.Allowed(actor, model.PermReviewImports) {
		return nil, &AuthorizationError{Actor: actor.ID, Action: "accept", Kind: kind, ID: model.UnassignedID}
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	c := draft.Common()
	if c.IssuedBy == 0 {
		c.IssuedBy = actor.ID
	}
	if c.Created.IsZero() {
		c.Created = s.stamp()
	}
	if err := s.persistNew(ctx, draft); err != nil {
		return nil, err
	}
	s.dropPending(source, e)
	s.logger.Info("sanction accepted", "source", source, "kind", kind, "id", c.ID, "actor", actor.ID)
	return draft.Clone(), nil
}

// Submit records a sanction entered directly by actor. Issuer and creation
// time are stamped by the service.
func (s *Service) Submit(ctx context.Context, actor model.Actor, sanction model.Sanction) (created model.Sanction, err error) {
	if sanction == nil {
		err = fmt.Errorf("%w: submit: %w", ErrValidation, model.ErrUnknownKind)
		s.record("submit", noKind, err)
		return nil, err
	}
	defer func() { s.record("submit", sanction.Kind(), err) }()

	if !rbac.Allowed(actor, model.PermIssueSanction) {
		return nil, &AuthorizationError{Actor: actor.ID, Action: "submit", Kind: sanction.Kind(), ID: model.UnassignedID}
	}
	draft := sanction.Clone()
	c := draft.Common()
	c.ID = model.UnassignedID
	c.IssuedBy = actor.ID
	c.Created = s.stamp()
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	if err := s.persistNew(ctx, draft); err != nil {
		return nil, err
	}
	s.logger.Info("sanction submitted", "kind", draft.Kind(), "id", c.ID, "actor", actor.ID)
	return draft.Clone(), nil
}

// persistNew creates draft through the gateway and indexes it under the
// assigned id.
func (s *Service) persistNew(ctx context.Context, draft model.Sanction) error {
	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	start := time.Now()
	id, err := s.gateway.Create(callCtx, draft)
	s.metrics.ObserveGateway(string(OpCreate), start)
	if err != nil {
		s.logger.Error("create sanction failed", "kind", draft.Kind(), "err", err)
		return &PersistenceError{Op: OpCreate, Kind: draft.Kind(), ID: model.UnassignedID, Err: err}
	}
	if err := s.index.Add(draft, id); err != nil {
		s.logger.Error("index sanction failed", "kind", draft.Kind(), "id", id, "err", err)
		return fmt.Errorf("workflow: index %s %d: %w", draft.Kind(), id, err)
	}
	s.metrics.SetIndexed(s.index.Counts())
	return nil
}

// RequestDiscard starts the confirmation protocol for dropping a pending
// entry and returns the code actor must echo back.
func (s *Service) RequestDiscard(actor model.Actor, source string) (code string, err error) {
	s.mu.Lock()
	e, err := s.lookupLocked(source)
	s.mu.Unlock()
	if err != nil {
		s.record("request_discard", noKind, err)
		return "", err
	}
	defer func() { s.record("request_discard", e.kind, err) }()

	if !rbac.Allowed(actor, model.PermReviewImports) {
		return "", &AuthorizationError{Actor: actor.ID, Action: "discard", Kind: e.kind, ID: model.UnassignedID}
	}
	return s.issueCode(discardKey(actor.ID, source))
}

// ConfirmDiscard drops the pending entry under source when code matches the
// one issued by RequestDiscard.
func (s *Service) ConfirmDiscard(actor model.Actor, source, code string) (err error) {
	kind := noKind
	defer func() { s.record("discard", kind, err) }()

	e, _, release, err := s.claim(source)
	if err != nil {
		return err
	}
	defer release()
	kind = e.kind

	if err := s.consumeCode(discardKey(actor.ID, source), code); err != nil {
		return err
	}
	s.dropPending(source, e)
	s.logger.Info("pending sanction discarded", "source", source, "kind", kind, "actor", actor.ID)
	return nil
}
