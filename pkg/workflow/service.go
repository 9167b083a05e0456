// Package workflow moves sanctions through review, acceptance, editing and
// deletion. It owns the pending-verification entries and the confirmation
// codes, and it is the only writer of the index and the persistence gateway.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"golang.org/x/sync/errgroup"

	"github.com/NicolasHaas/gosanction/pkg/crypto"
	"github.com/NicolasHaas/gosanction/pkg/datastore"
	"github.com/NicolasHaas/gosanction/pkg/deserialize"
	"github.com/NicolasHaas/gosanction/pkg/instantiator"
	"github.com/NicolasHaas/gosanction/pkg/metrics"
	"github.com/NicolasHaas/gosanction/pkg/model"
	"github.com/NicolasHaas/gosanction/pkg/store"
)

const (
	DefaultGatewayTimeout = 10 * time.Second
	DefaultPendingTTL     = 72 * time.Hour
	DefaultCodeTTL        = 10 * time.Minute
)

// Options tunes a Service. Zero values select the defaults, except for the
// TTLs where a negative value disables expiry.
type Options struct {
	GatewayTimeout time.Duration
	PendingTTL     time.Duration
	CodeTTL        time.Duration
	CodeLength     int
	Clock          func() time.Time
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
}

// Service is safe for concurrent use.
type Service struct {
	gateway      datastore.DataStore
	index        *store.Index
	registry     *instantiator.Registry
	deserializer *deserialize.Deserializer
	metrics      *metrics.Metrics
	logger       *slog.Logger
	now          func() time.Time

	gatewayTimeout time.Duration
	pendingTTL     time.Duration
	codeTTL        time.Duration
	codeLength     int

	mu      sync.Mutex
	pending map[string]*pendingEntry
	codes   map[string]codeEntry
	busy    map[sanctionKey]struct{}
}

// noKind labels metrics for operations that failed before the kind was known.
const noKind = model.Kind(-1)

type sanctionKey struct {
	kind model.Kind
	id   int64
}

type codeEntry struct {
	code    string
	expires time.Time // zero: never
}

// New creates a Service persisting through gateway and indexing into index.
func New(gateway datastore.DataStore, index *store.Index, registry *instantiator.Registry, opts Options) *Service {
	s := &Service{
		gateway:        gateway,
		index:          index,
		registry:       registry,
		deserializer:   deserialize.New(registry),
		metrics:        opts.Metrics,
		logger:         opts.Logger,
		now:            opts.Clock,
		gatewayTimeout: opts.GatewayTimeout,
		pendingTTL:     ttl(opts.PendingTTL, DefaultPendingTTL),
		codeTTL:        ttl(opts.CodeTTL, DefaultCodeTTL),
		codeLength:     opts.CodeLength,
		pending:        make(map[string]*pendingEntry),
		codes:          make(map[string]codeEntry),
		busy:           make(map[sanctionKey]struct{}),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.gatewayTimeout <= 0 {
		s.gatewayTimeout = DefaultGatewayTimeout
	}
	if s.codeLength <= 0 {
		s.codeLength = crypto.DefaultCodeLength
	}
	return s
}

func ttl(d, def time.Duration) time.Duration {
	switch {
	case d < 0:
		return 0
	case d == 0:
		return def
	default:
		return d
	}
}

// Index returns the index the service maintains. Callers must treat it as
// read-only.
func (s *Service) Index() *store.Index {
	return s.index
}

// Registry returns the instantiator registry used for field updates.
func (s *Service) Registry() *instantiator.Registry {
	return s.registry
}

// Get returns a copy of the indexed sanction of kind k with the given id.
func (s *Service) Get(k model.Kind, id int64) (model.Sanction, error) {
	sanction, ok := s.index.Get(k, id)
	if !ok {
		return nil, fmt.Errorf("%w: %s %d", ErrNotFound, k, id)
	}
	return sanction, nil
}

// Load fetches every collection from the gateway and replaces the index
// content. The index is left untouched if any collection fails to load.
func (s *Service) Load(ctx context.Context) error {
	lists := make([][]model.Sanction, len(model.Kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, k := range model.Kinds {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, s.gatewayTimeout)
			defer cancel()
			start := time.Now()
			list, err := s.gateway.ListAll(callCtx, k)
			s.metrics.ObserveGateway(string(OpList), start)
			if err != nil {
				return &PersistenceError{Op: OpList, Kind: k, ID: model.UnassignedID, Err: err}
			}
			lists[i] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("load sanctions failed", "err", err)
		return err
	}

	for i, k := range model.Kinds {
		if err := s.index.Replace(k, lists[i]); err != nil {
			return fmt.Errorf("workflow: load: %w", err)
		}
	}
	counts := s.index.Counts()
	s.metrics.SetIndexed(counts)
	s.logger.Info("sanctions loaded",
		"bans", counts[model.KindBan],
		"warnings", counts[model.KindWarning],
		"age_checks", counts[model.KindAgeCheck],
		"wanted", counts[model.KindWanted],
	)
	return nil
}

// PurgeExpired drops expired pending entries and confirmation codes and
// returns how many of each were removed. Entries under review are kept.
func (s *Service) PurgeExpired() (pending, codes int) {
	now := s.now()
	s.mu.Lock()
	for source, e := range s.pending {
		if !e.busy && s.pendingExpired(e, now) {
			delete(s.pending, source)
			pending++
		}
	}
	for key, c := range s.codes {
		if expired(c.expires, now) {
			delete(s.codes, key)
			codes++
		}
	}
	s.publishLocked()
	s.mu.Unlock()

	if pending > 0 || codes > 0 {
		s.logger.Info("expired entries purged", "pending", pending, "codes", codes)
	}
	return pending, codes
}

func expired(deadline, now time.Time) bool {
	return !deadline.IsZero() && !now.Before(deadline)
}

// publishLocked updates the gauges. s.mu must be held.
func (s *Service) publishLocked() {
	s.metrics.SetPending(len(s.pending))
	s.metrics.SetCodes(len(s.codes))
}

// withTimeout bounds a single gateway call.
// stamp returns the creation time for a new record, at the precision the
// datastore keeps.
func (s *Service) stamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.gatewayTimeout)
}

func (s *Service) record(op string, k model.Kind, err error) {
	s.metrics.Transition(op, k, result(err))
}

// acquire marks a sanction as being transitioned. The returned func releases it.
func (s *Service) acquire(k model.Kind, id int64) (func(), error) {
	key := sanctionKey{kind: k, id: id}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.busy[key]; ok {
		return nil, fmt.Errorf("%w: %s %d", ErrBusy, k, id)
	}
	s.busy[key] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.busy, key)
		s.mu.Unlock()
	}, nil
}

// issueCode mints a confirmation code for key, replacing any earlier one.
func (s *Service) issueCode(key string) (string, error) {
	code, err := crypto.GenerateCode(s.codeLength)
	if err != nil {
		return "", fmt.Errorf("workflow: %w", err)
	}
	entry := codeEntry{code: code}
	if s.codeTTL > 0 {
		entry.expires = s.now().Add(s.codeTTL)
	}
	s.mu.Lock()
	s.codes[key] = entry
	s.publishLocked()
	s.mu.Unlock()
	return code, nil
}

// consumeCode removes the code recorded for key and compares it to supplied.
// The code is gone afterwards whatever the outcome.
func (s *Service) consumeCode(key, supplied string) error {
	s.mu.Lock()
	entry, ok := s.codes[key]
	delete(s.codes, key)
	s.publishLocked()
	s.mu.Unlock()

	switch {
	case !ok:
		return &ConfirmationError{Reason: ConfirmationMissing}
	case expired(entry.expires, s.now()):
		return &ConfirmationError{Reason: ConfirmationExpired}
	case !crypto.CodeEqual(entry.code, supplied):
		return &ConfirmationError{Reason: ConfirmationMismatch}
	}
	return nil
}

func deleteKey(actor snowflake.ID, k model.Kind, id int64) string {
	return fmt.Sprintf("delete/%s/%d/%s", k, id, actor)
}

func discardKey(actor snowflake.ID, source string) string {
	return fmt.Sprintf("discard/%s/%s", source, actor)
}

// recordAttr renders a sanction's display fields as a log group.
func (s *Service) recordAttr(x model.Sanction) slog.Attr {
	inst, err := s.registry.For(x.Kind())
	if err != nil {
		return slog.Any("record", x)
	}
	fields := inst.DisplayFields(x)
	attrs := make([]any, 0, len(fields)+1)
	attrs = append(attrs, slog.String("issued_by", x.Common().IssuedBy.String()))
	for _, f := range fields {
		attrs = append(attrs, slog.String(f.Name, f.Value))
	}
	return slog.Group("record", attrs...)
}
