package workflow_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/NicolasHaas/gosanction/pkg/datastore"
	"github.com/NicolasHaas/gosanction/pkg/instantiator"
	"github.com/NicolasHaas/gosanction/pkg/metrics"
	"github.com/NicolasHaas/gosanction/pkg/model"
	"github.com/NicolasHaas/gosanction/pkg/store"
	"github.com/NicolasHaas/gosanction/pkg/workflow"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const banText = "Name: Tom\nID: 11111111111111111@steam\nReason: cheating\nIP: 1.2.3.4\nServer: 54\nTime: 2 hours"

var (
	moderator = model.Actor{ID: 100, Role: model.RoleModerator}
	other     = model.Actor{ID: 200, Role: model.RoleModerator}
	admin     = model.Actor{ID: 300, Role: model.RoleAdmin}
	user      = model.Actor{ID: 400, Role: model.RoleUser}
)

// faultyGateway wraps the in-memory gateway with injectable failures and
// blocking calls.
type faultyGateway struct {
	datastore.DataStore

	mu      sync.Mutex
	failing map[workflow.Op]error
	blocked map[workflow.Op]chan struct{}
	calls   map[workflow.Op]int
	entered chan workflow.Op
}

func newFaultyGateway() *faultyGateway {
	return &faultyGateway{
		DataStore: datastore.NewMemory().NonTx(),
		failing:   make(map[workflow.Op]error),
		blocked:   make(map[workflow.Op]chan struct{}),
		calls:     make(map[workflow.Op]int),
	}
}

func (g *faultyGateway) fail(op workflow.Op, err error) {
	g.mu.Lock()
	g.failing[op] = err
	g.mu.Unlock()
}

func (g *faultyGateway) block(op workflow.Op) chan struct{} {
	ch := make(chan struct{})
	g.mu.Lock()
	g.blocked[op] = ch
	g.mu.Unlock()
	return ch
}

func (g *faultyGateway) count(op workflow.Op) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

func (g *faultyGateway) before(ctx context.Context, op workflow.Op) error {
	g.mu.Lock()
	g.calls[op]++
	err := g.failing[op]
	wait := g.blocked[op]
	g.mu.Unlock()

	if wait != nil {
		if g.entered != nil {
			g.entered <- op
		}
		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (g *faultyGateway) Create(ctx context.Context, s model.Sanction) (int64, error) {
	if err := g.before(ctx, workflow.OpCreate); err != nil {
		return 0, err
	}
	return g.DataStore.Create(ctx, s)
}

func (g *faultyGateway) Update(ctx context.Context, s model.Sanction) error {
	if err := g.before(ctx, workflow.OpUpdate); err != nil {
		return err
	}
	return g.DataStore.Update(ctx, s)
}

func (g *faultyGateway) Delete(ctx context.Context, k model.Kind, id int64) error {
	if err := g.before(ctx, workflow.OpDelete); err != nil {
		return err
	}
	return g.DataStore.Delete(ctx, k, id)
}

func (g *faultyGateway) ListAll(ctx context.Context, k model.Kind) ([]model.Sanction, error) {
	if err := g.before(ctx, workflow.OpList); err != nil {
		return nil, err
	}
	return g.DataStore.ListAll(ctx, k)
}

type fixture struct {
	svc   *workflow.Service
	gw    *faultyGateway
	index *store.Index
	now   time.Time
}

func newFixture(t *testing.T, opts workflow.Options) *fixture {
	t.Helper()
	f := &fixture{
		gw:    newFaultyGateway(),
		index: store.New(),
		now:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	opts.Clock = func() time.Time { return f.now }
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	opts.Metrics = metrics.New()
	if opts.CodeLength == 0 {
		opts.CodeLength = 12
	}
	f.svc = workflow.New(f.gw, f.index, instantiator.NewRegistry(model.DefaultCatalog()), opts)
	return f
}

func validBan() *model.Ban {
	b := model.NewBan()
	b.PlayerName = "Tom"
	b.Identifier = "11111111111111111@steam"
	b.Reason = "cheating"
	b.IP = "1.2.3.4"
	b.Duration = 7200
	b.Servers = []model.Server{model.Server54}
	return b
}

func validWanted() *model.Wanted {
	w := model.NewWanted()
	w.PlayerName = "Jerry"
	w.Reason = "griefing"
	w.Servers = []model.Server{model.Server58}
	return w
}

func (f *fixture) submit(t *testing.T, actor model.Actor, s model.Sanction) model.Sanction {
	t.Helper()
	created, err := f.svc.Submit(context.Background(), actor, s)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return created
}

func TestImportAcceptEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, workflow.Options{})

	v, err := f.svc.Import("msg-1", model.KindBan, banText)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !v.Valid || v.Reason != "" {
		t.Fatalf("Import verification = valid %v reason %q, want valid", v.Valid, v.Reason)
	}
	if got := len(f.svc.Pending()); got != 1 {
		t.Fatalf("Pending() has %d entries, want 1", got)
	}
	if got := f.index.Counts()[model.KindBan]; got != 0 {
		t.Fatalf("pending import was indexed: %d bans", got)
	}

	accepted, err := f.svc.Accept(ctx, moderator, "msg-1")
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	want := validBan()
	want.ID = 1
	want.IssuedBy = moderator.ID
	want.Created = f.now
	if diff := cmp.Diff(model.Sanction(want), accepted); diff != "" {
		t.Fatalf("accepted mismatch (-want +got):\n%s", diff)
	}

	if f.index.FindByID(model.KindBan, 1) == nil {
		t.Fatalf("accepted ban is not indexed")
	}
	stored, err := f.gw.Get(ctx, model.KindBan, 1)
	if err != nil {
		t.Fatalf("gateway Get: %v", err)
	}
	if diff := cmp.Diff(accepted, stored); diff != "" {
		t.Fatalf("stored mismatch (-accepted +stored):\n%s", diff)
	}
	if _, err := f.svc.Review("msg-1"); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("Review after accept err = %v, want ErrNotFound", err)
	}
}

func TestImportSources(t *testing.T) {
	f := newFixture(t, workflow.Options{})

	v, err := f.svc.Import("", model.KindWanted, "Name: X\nReason: teamkill\nServer: 56")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if v.Source == "" {
		t.Fatalf("Import without source got no locator")
	}

	if _, err := f.svc.Import("msg-2", model.KindWanted, "Name: X\nServer: 56"); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if _, err := f.svc.UpdatePending("msg-2", f.svc.Registry().Text(model.FieldReason, "spam")); err != nil {
		t.Fatalf("UpdatePending: %v", err)
	}
	again, err := f.svc.Import("msg-2", model.KindWanted, "Name: Y")
	if err != nil {
		t.Fatalf("second Import: %v", err)
	}
	w := again.Sanction.(*model.Wanted)
	if w.PlayerName != "X" || w.Reason != "spam" {
		t.Fatalf("re-import replaced the pending draft: %+v", w)
	}

	if err := f.svc.AttachView("msg-2", "view-9"); err != nil {
		t.Fatalf("AttachView: %v", err)
	}
	if v, _ := f.svc.Review("msg-2"); v.View != "view-9" {
		t.Fatalf("View = %q, want view-9", v.View)
	}
	if err := f.svc.AttachView("nope", "x"); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("AttachView(nope) err = %v, want ErrNotFound", err)
	}

	if _, err := f.svc.Import("msg-3", model.Kind(9), "Name: X"); !errors.Is(err, model.ErrUnknownKind) {
		t.Fatalf("Import(unknown kind) err = %v, want ErrUnknownKind", err)
	}
}

func TestAcceptFailuresKeepPending(t *testing.T) {
	tests := map[string]struct {
		text    string
		actor   model.Actor
		fail    error
		wantErr error
		check   func(t *testing.T, err error)
	}{
		"invalid": {
			text:    "Name: Tom\nID: 11111111111111111@steam\nIP: 1.2.3.4\nServer: 54\nTime: 2 hours",
			actor:   moderator,
			wantErr: workflow.ErrValidation,
			check: func(t *testing.T, err error) {
				var verr *model.ValidationError
				if !errors.As(err, &verr) || verr.Field != model.FieldReason {
					t.Errorf("err = %v, want ValidationError on Reason", err)
				}
			},
		},
		"unauthorized": {
			text:    banText,
			actor:   user,
			wantErr: workflow.ErrUnauthorized,
		},
		"persistence": {
			text:    banText,
			actor:   moderator,
			fail:    errors.New("disk full"),
			wantErr: workflow.ErrPersistence,
			check: func(t *testing.T, err error) {
				var perr *workflow.PersistenceError
				if !errors.As(err, &perr) || perr.Op != workflow.OpCreate {
					t.Errorf("err = %v, want PersistenceError on create", err)
				}
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, workflow.Options{})
			if tt.fail != nil {
				f.gw.fail(workflow.OpCreate, tt.fail)
			}
			if _, err := f.svc.Import("msg", model.KindBan, tt.text); err != nil {
				t.Fatalf("Import: %v", err)
			}

			_, err := f.svc.Accept(ctx, tt.actor, "msg")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Accept err = %v, want %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, err)
			}

			if _, err := f.svc.Review("msg"); err != nil {
				t.Errorf("entry no longer pending: %v", err)
			}
			if got := f.index.Counts()[model.KindBan]; got != 0 {
				t.Errorf("index has %d bans, want 0", got)
			}
			rows, err := f.gw.DataStore.ListAll(ctx, model.KindBan)
			if err != nil || len(rows) != 0 {
				t.Errorf("gateway rows = %d (%v), want 0", len(rows), err)
			}
		})
	}
}

func TestUpdatePendingThenAccept(t *testing.T) {
	f := newFixture(t, workflow.Options{})
	if _, err := f.svc.Import("msg", model.KindBan, "Név: Tom\nSteamID: 11111111111111111@steam\nIP: 1.2.3.4\nSzerver: 54\nIdő: 1 nap"); err != nil {
		t.Fatalf("Import: %v", err)
	}

	v, _ := f.svc.Review("msg")
	if v.Valid || v.Field != model.FieldReason {
		t.Fatalf("Review = valid %v field %s, want invalid Reason", v.Valid, v.Field)
	}

	reg := f.svc.Registry()
	v, err := f.svc.UpdatePending("msg",
		reg.Text(model.FieldReason, "cheating"),
		instantiator.Update{Field: model.FieldServers, Value: model.ServerList{model.Server62, model.Server54}},
	)
	if err != nil {
		t.Fatalf("UpdatePending: %v", err)
	}
	if !v.Valid {
		t.Fatalf("UpdatePending left entry invalid: %s", v.Reason)
	}
	if diff := cmp.Diff([]model.Server{model.Server54, model.Server62}, v.Sanction.(*model.Ban).Servers); diff != "" {
		t.Fatalf("servers not in catalog order (-want +got):\n%s", diff)
	}

	accepted, err := f.svc.Accept(context.Background(), moderator, "msg")
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if got := accepted.(*model.Ban).Duration; got != 86400 {
		t.Fatalf("Duration = %d, want 86400", got)
	}
}

func TestDiscardProtocol(t *testing.T) {
	f := newFixture(t, workflow.Options{})
	if _, err := f.svc.Import("msg", model.KindWanted, "Name: X"); err != nil {
		t.Fatalf("Import: %v", err)
	}

	if _, err := f.svc.RequestDiscard(user, "msg"); !errors.Is(err, workflow.ErrUnauthorized) {
		t.Fatalf("RequestDiscard(user) err = %v, want ErrUnauthorized", err)
	}
	code, err := f.svc.RequestDiscard(moderator, "msg")
	if err != nil {
		t.Fatalf("RequestDiscard: %v", err)
	}

	err = f.svc.ConfirmDiscard(moderator, "msg", code+"x")
	var cerr *workflow.ConfirmationError
	if !errors.As(err, &cerr) || cerr.Reason != workflow.ConfirmationMismatch {
		t.Fatalf("ConfirmDiscard(wrong) err = %v, want mismatch", err)
	}
	err = f.svc.ConfirmDiscard(moderator, "msg", code)
	if !errors.As(err, &cerr) || cerr.Reason != workflow.ConfirmationMissing {
		t.Fatalf("ConfirmDiscard(consumed) err = %v, want missing", err)
	}
	if _, err := f.svc.Review("msg"); err != nil {
		t.Fatalf("entry dropped by failed confirmation: %v", err)
	}

	code, err = f.svc.RequestDiscard(moderator, "msg")
	if err != nil {
		t.Fatalf("RequestDiscard: %v", err)
	}
	if err := f.svc.ConfirmDiscard(moderator, "msg", strings.ToUpper(code)); err != nil {
		t.Fatalf("ConfirmDiscard: %v", err)
	}
	if _, err := f.svc.Review("msg"); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("Review after discard err = %v, want ErrNotFound", err)
	}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, workflow.Options{})

	if _, err := f.svc.Submit(ctx, user, validBan()); !errors.Is(err, workflow.ErrUnauthorized) {
		t.Fatalf("Submit(user) err = %v, want ErrUnauthorized", err)
	}
	bad := validBan()
	bad.IP = "nope"
	if _, err := f.svc.Submit(ctx, moderator, bad); !errors.Is(err, workflow.ErrValidation) {
		t.Fatalf("Submit(invalid) err = %v, want ErrValidation", err)
	}

	in := validBan()
	in.IssuedBy = 999
	created := f.submit(t, moderator, in)
	if created.Common().IssuedBy != moderator.ID || !created.Common().Created.Equal(f.now) {
		t.Fatalf("Submit did not stamp issuer and time: %+v", created.Common())
	}
	if in.ID != model.UnassignedID {
		t.Fatalf("Submit modified its argument: id %d", in.ID)
	}
	if f.gw.count(workflow.OpCreate) != 1 {
		t.Fatalf("gateway Create called %d times, want 1", f.gw.count(workflow.OpCreate))
	}
}

func TestSubmitNil(t *testing.T) {
	f := newFixture(t, workflow.Options{})
	_, err := f.svc.Submit(context.Background(), moderator, nil)
	if !errors.Is(err, workflow.ErrValidation) || !errors.Is(err, model.ErrUnknownKind) {
		t.Fatalf("Submit(nil) err = %v, want ErrValidation and ErrUnknownKind", err)
	}
	if n := f.gw.count(workflow.OpCreate); n != 0 {
		t.Fatalf("gateway Create called %d times, want 0", n)
	}
}

func TestCreatedStampedToTheSecond(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, workflow.Options{})
	f.now = time.Date(2024, 5, 1, 14, 30, 15, 123456789, time.FixedZone("CEST", 2*60*60))
	want := time.Date(2024, 5, 1, 12, 30, 15, 0, time.UTC)

	submitted := f.submit(t, moderator, validBan())
	src, err := f.svc.Import("", model.KindWanted, "Name: Tom\nReason: griefing\nServer: 56")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	accepted, err := f.svc.Accept(ctx, moderator, src.Source)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}

	for _, s := range []model.Sanction{submitted, accepted} {
		got := s.Common().Created
		if !got.Equal(want) || got.Location() != time.UTC {
			t.Errorf("%s Created = %v, want %v", s.Kind(), got, want)
		}
	}
}

func TestDeleteProtocol(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, workflow.Options{})
	created := f.submit(t, moderator, validBan())
	id := created.Common().ID

	first, err := f.svc.RequestDelete(moderator, model.KindBan, id)
	if err != nil {
		t.Fatalf("RequestDelete: %v", err)
	}
	second, err := f.svc.RequestDelete(moderator, model.KindBan, id)
	if err != nil {
		t.Fatalf("RequestDelete: %v", err)
	}
	if first == second {
		t.Fatalf("two requests returned the same code %q", first)
	}

	if _, err := f.svc.ConfirmDelete(ctx, moderator, model.KindBan, id, first); !errors.Is(err, workflow.ErrConfirmation) {
		t.Fatalf("ConfirmDelete(stale) err = %v, want ErrConfirmation", err)
	}
	if _, err := f.svc.ConfirmDelete(ctx, moderator, model.KindBan, id, second); !errors.Is(err, workflow.ErrConfirmation) {
		t.Fatalf("ConfirmDelete(consumed) err = %v, want ErrConfirmation", err)
	}
	if f.index.FindByID(model.KindBan, id) == nil {
		t.Fatalf("failed confirmation removed the sanction from the index")
	}
	if _, err := f.gw.Get(ctx, model.KindBan, id); err != nil {
		t.Fatalf("failed confirmation removed the durable row: %v", err)
	}
	if n := f.gw.count(workflow.OpDelete); n != 0 {
		t.Fatalf("gateway Delete called %d times, want 0", n)
	}

	code, err := f.svc.RequestDelete(moderator, model.KindBan, id)
	if err != nil {
		t.Fatalf("RequestDelete: %v", err)
	}
	deleted, err := f.svc.ConfirmDelete(ctx, moderator, model.KindBan, id, " "+strings.ToUpper(code)+" ")
	if err != nil {
		t.Fatalf("ConfirmDelete: %v", err)
	}
	if diff := cmp.Diff(created, deleted); diff != "" {
		t.Fatalf("deleted record mismatch (-want +got):\n%s", diff)
	}
	if f.index.FindByID(model.KindBan, id) != nil {
		t.Fatalf("deleted sanction still indexed")
	}
	if _, err := f.gw.Get(ctx, model.KindBan, id); !errors.Is(err, datastore.ErrNotFound) {
		t.Fatalf("gateway Get after delete err = %v, want ErrNotFound", err)
	}
}

func TestDeleteEligibility(t *testing.T) {
	f := newFixture(t, workflow.Options{})
	ban := f.submit(t, moderator, validBan())
	wanted := f.submit(t, moderator, validWanted())

	tests := map[string]struct {
		actor   model.Actor
		target  model.Sanction
		wantErr error
	}{
		"issuer":       {moderator, ban, nil},
		"other_ban":    {other, ban, workflow.ErrUnauthorized},
		"admin_ban":    {admin, ban, nil},
		"user_wanted":  {user, wanted, nil},
		"missing_id":   {moderator, model.NewWarning(), workflow.ErrNotFound},
		"other_wanted": {other, wanted, nil},
		"user_ban":     {user, ban, workflow.ErrUnauthorized},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.RequestDelete(tt.actor, tt.target.Kind(), tt.target.Common().ID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("RequestDelete err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Codes are bound to the requesting actor.
	code, err := f.svc.RequestDelete(user, model.KindWanted, wanted.Common().ID)
	if err != nil {
		t.Fatalf("RequestDelete: %v", err)
	}
	_, err = f.svc.ConfirmDelete(context.Background(), other, model.KindWanted, wanted.Common().ID, code)
	if !errors.Is(err, workflow.ErrConfirmation) {
		t.Fatalf("ConfirmDelete by another actor err = %v, want ErrConfirmation", err)
	}
}

func TestDeleteCodeExpires(t *testing.T) {
	f := newFixture(t, workflow.Options{CodeTTL: time.Minute})
	id := f.submit(t, moderator, validBan()).Common().ID

	code, err := f.svc.RequestDelete(moderator, model.KindBan, id)
	if err != nil {
		t.Fatalf("RequestDelete: %v", err)
	}
	f.now = f.now.Add(2 * time.Minute)

	_, err = f.svc.ConfirmDelete(context.Background(), moderator, model.KindBan, id, code)
	var cerr *workflow.ConfirmationError
	if !errors.As(err, &cerr) || cerr.Reason != workflow.ConfirmationExpired {
		t.Fatalf("ConfirmDelete err = %v, want expired", err)
	}
	if f.index.FindByID(model.KindBan, id) == nil {
		t.Fatalf("expired confirmation removed the sanction")
	}
}

func TestDeletePersistenceFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, workflow.Options{})
	id := f.submit(t, moderator, validBan()).Common().ID
	f.gw.fail(workflow.OpDelete, errors.New("connection reset"))

	code, err := f.svc.RequestDelete(moderator, model.KindBan, id)
	if err != nil {
		t.Fatalf("RequestDelete: %v", err)
	}
	_, err = f.svc.ConfirmDelete(ctx, moderator, model.KindBan, id, code)
	var perr *workflow.PersistenceError
	if !errors.As(err, &perr) || perr.Op != workflow.OpDelete || perr.ID != id {
		t.Fatalf("ConfirmDelete err = %v, want PersistenceError on delete", err)
	}
	if f.index.FindByID(model.KindBan, id) == nil {
		t.Fatalf("failed delete removed the sanction from the index")
	}
	if _, err := f.gw.Get(ctx, model.KindBan, id); err != nil {
		t.Fatalf("durable row missing: %v", err)
	}
}

func TestEdit(t *testing.T) {
	ctx := context.Background()

	tests := map[string]struct {
		actor   model.Actor
		updates func(reg *instantiator.Registry) []instantiator.Update
		fail    error
		wantErr error
		want    func(b *model.Ban)
	}{
		"issuer": {
			actor: moderator,
			updates: func(reg *instantiator.Registry) []instantiator.Update {
				return []instantiator.Update{
					reg.Text(model.FieldReason, "aimbot"),
					{Field: model.FieldServers, Value: model.ServerList{model.Server62, model.Server54}},
				}
			},
			want: func(b *model.Ban) {
				b.Reason = "aimbot"
				b.Servers = []model.Server{model.Server54, model.Server62}
			},
		},
		"admin_duration": {
			actor: admin,
			updates: func(reg *instantiator.Registry) []instantiator.Update {
				return []instantiator.Update{reg.Text(model.FieldDuration, "1 week")}
			},
			want: func(b *model.Ban) { b.Duration = 604800 },
		},
		"clear_reason": {
			actor: moderator,
			updates: func(reg *instantiator.Registry) []instantiator.Update {
				return []instantiator.Update{reg.Text(model.FieldReason, "")}
			},
			wantErr: workflow.ErrValidation,
		},
		"bad_duration": {
			actor: moderator,
			updates: func(reg *instantiator.Registry) []instantiator.Update {
				return []instantiator.Update{reg.Text(model.FieldDuration, "forever")}
			},
			wantErr: workflow.ErrValidation,
		},
		"other_moderator": {
			actor: other,
			updates: func(reg *instantiator.Registry) []instantiator.Update {
				return []instantiator.Update{reg.Text(model.FieldReason, "x")}
			},
			wantErr: workflow.ErrUnauthorized,
		},
		"gateway_failure": {
			actor: moderator,
			updates: func(reg *instantiator.Registry) []instantiator.Update {
				return []instantiator.Update{reg.Text(model.FieldReason, "x")}
			},
			fail:    errors.New("read-only file system"),
			wantErr: workflow.ErrPersistence,
		},
		"untracked_field": {
			actor: moderator,
			updates: func(reg *instantiator.Registry) []instantiator.Update {
				return []instantiator.Update{reg.Text(model.FieldDateOfBirth, "2001. 01. 01.")}
			},
			want: func(*model.Ban) {},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, workflow.Options{})
			created := f.submit(t, moderator, validBan())
			id := created.Common().ID
			live := f.index.FindByID(model.KindBan, id)
			if tt.fail != nil {
				f.gw.fail(workflow.OpUpdate, tt.fail)
			}

			edited, err := f.svc.Edit(ctx, tt.actor, model.KindBan, id, tt.updates(f.svc.Registry())...)

			want := created.Clone().(*model.Ban)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Edit err = %v, want %v", err, tt.wantErr)
				}
			} else {
				if err != nil {
					t.Fatalf("Edit: %v", err)
				}
				tt.want(want)
				if diff := cmp.Diff(model.Sanction(want), edited); diff != "" {
					t.Fatalf("edited mismatch (-want +got):\n%s", diff)
				}
			}

			if f.index.FindByID(model.KindBan, id) != live {
				t.Fatalf("Edit replaced the indexed instance")
			}
			indexed, _ := f.index.Get(model.KindBan, id)
			if diff := cmp.Diff(model.Sanction(want), indexed); diff != "" {
				t.Errorf("indexed mismatch (-want +got):\n%s", diff)
			}
			stored, err := f.gw.DataStore.Get(ctx, model.KindBan, id)
			if err != nil {
				t.Fatalf("gateway Get: %v", err)
			}
			if diff := cmp.Diff(model.Sanction(want), stored); diff != "" {
				t.Errorf("stored mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEditNoApplicableFieldSkipsGateway(t *testing.T) {
	f := newFixture(t, workflow.Options{})
	a := model.NewAgeCheck()
	a.PlayerName = "Kid"
	a.Identifier = "someone@discord"
	a.ApparentDateOfBirth = "2012. 03. 04."
	id := f.submit(t, moderator, a).Common().ID

	_, err := f.svc.Edit(context.Background(), moderator, model.KindAgeCheck, id,
		instantiator.Update{Field: model.FieldServers, Value: model.ServerList{model.Server54}})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if n := f.gw.count(workflow.OpUpdate); n != 0 {
		t.Fatalf("gateway Update called %d times, want 0", n)
	}
	if _, err := f.svc.Edit(context.Background(), moderator, model.KindAgeCheck, 99); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("Edit(missing) err = %v, want ErrNotFound", err)
	}
}

func TestGatewayTimeout(t *testing.T) {
	f := newFixture(t, workflow.Options{GatewayTimeout: 20 * time.Millisecond})
	created := f.submit(t, moderator, validBan())
	id := created.Common().ID
	f.gw.block(workflow.OpUpdate)

	_, err := f.svc.Edit(context.Background(), moderator, model.KindBan, id, f.svc.Registry().Text(model.FieldReason, "x"))
	if !errors.Is(err, workflow.ErrPersistence) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Edit err = %v, want PersistenceError wrapping DeadlineExceeded", err)
	}
	indexed, _ := f.index.Get(model.KindBan, id)
	if diff := cmp.Diff(created, indexed); diff != "" {
		t.Fatalf("timed out edit changed the index (-want +got):\n%s", diff)
	}
}

func TestConcurrentTransitionsFailFast(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, workflow.Options{})
	id := f.submit(t, moderator, validBan()).Common().ID

	f.gw.entered = make(chan workflow.Op, 1)
	release := f.gw.block(workflow.OpUpdate)
	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Edit(ctx, moderator, model.KindBan, id, f.svc.Registry().Text(model.FieldReason, "aimbot"))
		done <- err
	}()
	<-f.gw.entered

	code, err := f.svc.RequestDelete(moderator, model.KindBan, id)
	if err != nil {
		t.Fatalf("RequestDelete: %v", err)
	}
	if _, err := f.svc.ConfirmDelete(ctx, moderator, model.KindBan, id, code); !errors.Is(err, workflow.ErrBusy) {
		t.Fatalf("ConfirmDelete during edit err = %v, want ErrBusy", err)
	}
	if _, err := f.svc.Edit(ctx, admin, model.KindBan, id); !errors.Is(err, workflow.ErrBusy) {
		t.Fatalf("second Edit err = %v, want ErrBusy", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Edit: %v", err)
	}

	deleted, err := f.svc.ConfirmDelete(ctx, moderator, model.KindBan, id, code)
	if err != nil {
		t.Fatalf("ConfirmDelete after edit: %v", err)
	}
	if got := deleted.(*model.Ban).Reason; got != "aimbot" {
		t.Fatalf("deleted Reason = %q, want aimbot", got)
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, workflow.Options{})
	for _, s := range []model.Sanction{validBan(), validBan(), validWanted()} {
		if _, err := f.gw.DataStore.Create(ctx, s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	if err := f.svc.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := map[model.Kind]int{model.KindBan: 2, model.KindWarning: 0, model.KindAgeCheck: 0, model.KindWanted: 1}
	if diff := cmp.Diff(want, f.index.Counts()); diff != "" {
		t.Fatalf("Counts mismatch (-want +got):\n%s", diff)
	}
	if _, err := f.svc.Get(model.KindBan, 2); err != nil {
		t.Fatalf("Get(Ban 2): %v", err)
	}

	f.gw.fail(workflow.OpList, errors.New("database is locked"))
	err := f.svc.Load(ctx)
	var perr *workflow.PersistenceError
	if !errors.As(err, &perr) || perr.Op != workflow.OpList {
		t.Fatalf("Load err = %v, want PersistenceError on list", err)
	}
	if diff := cmp.Diff(want, f.index.Counts()); diff != "" {
		t.Fatalf("failed Load changed the index (-want +got):\n%s", diff)
	}
}

func TestPendingExpiry(t *testing.T) {
	f := newFixture(t, workflow.Options{PendingTTL: time.Hour, CodeTTL: time.Minute})
	id := f.submit(t, moderator, validBan()).Common().ID

	for _, source := range []string{"a", "b", "c"} {
		if _, err := f.svc.Import(source, model.KindWanted, "Name: X"); err != nil {
			t.Fatalf("Import: %v", err)
		}
	}
	if _, err := f.svc.RequestDelete(moderator, model.KindBan, id); err != nil {
		t.Fatalf("RequestDelete: %v", err)
	}

	f.now = f.now.Add(2 * time.Hour)
	if _, err := f.svc.Review("a"); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("Review(expired) err = %v, want ErrNotFound", err)
	}

	pending, codes := f.svc.PurgeExpired()
	if pending != 2 || codes != 1 {
		t.Fatalf("PurgeExpired() = %d, %d, want 2, 1", pending, codes)
	}
	if got := len(f.svc.Pending()); got != 0 {
		t.Fatalf("Pending() has %d entries after purge", got)
	}
}

func TestExpiryDisabled(t *testing.T) {
	f := newFixture(t, workflow.Options{PendingTTL: -1, CodeTTL: -1})
	if _, err := f.svc.Import("a", model.KindWanted, "Name: X"); err != nil {
		t.Fatalf("Import: %v", err)
	}
	f.now = f.now.AddDate(1, 0, 0)
	if pending, codes := f.svc.PurgeExpired(); pending != 0 || codes != 0 {
		t.Fatalf("PurgeExpired() = %d, %d, want 0, 0", pending, codes)
	}
	if _, err := f.svc.Review("a"); err != nil {
		t.Fatalf("Review: %v", err)
	}
}
