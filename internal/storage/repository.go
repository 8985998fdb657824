package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/observability"
	"github.com/mgm-veiculos/mgm-api-go/internal/port"
)

var tracer = otel.Tracer("storage")

var errReadOnly = errors.New("storage: write inside a read-only transaction")

// Repository serializes writers and commits every list a transaction
// replaced with a single SetMany.
type Repository struct {
	kv      port.KVStore
	backend string
	seed    Seed
	metrics *observability.Metrics
	logger  *zap.Logger

	mu      sync.RWMutex
	version atomic.Uint64
}

// NewRepository wires the repository. backend labels store error metrics.
func NewRepository(kv port.KVStore, backend string, seed Seed, metrics *observability.Metrics, logger *zap.Logger) *Repository {
	return &Repository{
		kv:      kv,
		backend: backend,
		seed:    seed,
		metrics: metrics,
		logger:  logger,
	}
}

// Version increases on every successful commit.
func (r *Repository) Version() uint64 {
	return r.version.Load()
}

// Backend names the underlying store.
func (r *Repository) Backend() string {
	return r.backend
}

// Ping checks the underlying store.
func (r *Repository) Ping(ctx context.Context) error {
	return r.kv.Ping(ctx)
}

// View runs fn against a read-only snapshot of the lists it asks for.
func (r *Repository) View(ctx context.Context, fn func(tx *Tx) error) error {
	ctx, span := tracer.Start(ctx, "Repository.View")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	tx := r.newTx(ctx, true)
	if err := fn(tx); err != nil {
		return err
	}
	return tx.err
}

// Update runs fn and, when it succeeds, commits every list it replaced.
// Nothing is written when fn returns an error.
func (r *Repository) Update(ctx context.Context, fn func(tx *Tx) error) error {
	ctx, span := tracer.Start(ctx, "Repository.Update")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	tx := r.newTx(ctx, false)
	if err := fn(tx); err != nil {
		return err
	}
	if tx.err != nil {
		return tx.err
	}

	entries, err := tx.encodeDirty()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	span.SetAttributes(attribute.Int("storage.keys", len(entries)))

	if err := r.kv.SetMany(ctx, entries); err != nil {
		r.storeError(err)
		return fmt.Errorf("commit: %w", err)
	}
	r.version.Add(1)
	return nil
}

// AllVehicles concatenates for-sale, sold and archived, loaded concurrently.
func (r *Repository) AllVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	ctx, span := tracer.Start(ctx, "Repository.AllVehicles")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	var forSale, sold, archived []domain.Vehicle
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		forSale, err = LoadList(gctx, r.kv, KeyForSale, r.seed.ForSale, r.logger)
		return err
	})
	g.Go(func() (err error) {
		sold, err = LoadList(gctx, r.kv, KeySold, r.seed.Sold, r.logger)
		return err
	})
	g.Go(func() (err error) {
		archived, err = LoadList(gctx, r.kv, KeyArchived, r.seed.Archived, r.logger)
		return err
	})
	if err := g.Wait(); err != nil {
		r.storeError(err)
		return nil, err
	}

	all := make([]domain.Vehicle, 0, len(forSale)+len(sold)+len(archived))
	all = append(all, forSale...)
	all = append(all, sold...)
	return append(all, archived...), nil
}

// Snapshot returns the raw value of every stored mgm_ key.
func (r *Repository) Snapshot(ctx context.Context) (map[string][]byte, error) {
	ctx, span := tracer.Start(ctx, "Repository.Snapshot")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	keys, err := r.kv.Keys(ctx, KeyPrefix)
	if err != nil {
		r.storeError(err)
		return nil, fmt.Errorf("list keys: %w", err)
	}

	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		raw, found, err := r.kv.Get(ctx, k)
		if err != nil {
			r.storeError(err)
			return nil, fmt.Errorf("read %s: %w", k, err)
		}
		if found {
			out[k] = raw
		}
	}
	return out, nil
}

// Restore writes raw values as-is in one SetMany.
func (r *Repository) Restore(ctx context.Context, entries map[string][]byte) error {
	ctx, span := tracer.Start(ctx, "Repository.Restore")
	defer span.End()

	if len(entries) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.kv.SetMany(ctx, entries); err != nil {
		r.storeError(err)
		return fmt.Errorf("restore: %w", err)
	}
	r.version.Add(1)
	return nil
}

// Reset deletes every mgm_ key in one DeleteMany and then overwrites the
// rates key with the defaults. A failed delete leaves the store untouched.
func (r *Repository) Reset(ctx context.Context) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Repository.Reset")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	keys, err := r.kv.Keys(ctx, KeyPrefix)
	if err != nil {
		r.storeError(err)
		return nil, fmt.Errorf("list keys: %w", err)
	}
	raw, err := encodeRates(domain.DefaultCommissionRates())
	if err != nil {
		return nil, err
	}

	// The rates key is overwritten below rather than deleted.
	doomed := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != KeyCommissionRates {
			doomed = append(doomed, k)
		}
	}
	if err := r.kv.DeleteMany(ctx, doomed); err != nil {
		r.storeError(err)
		return nil, fmt.Errorf("delete keys: %w", err)
	}
	r.version.Add(1)

	if err := r.kv.Set(ctx, KeyCommissionRates, raw); err != nil {
		r.storeError(err)
		return nil, fmt.Errorf("persist default rates: %w", err)
	}
	return keys, nil
}

func (r *Repository) storeError(err error) {
	if r.metrics != nil && !errors.Is(err, context.Canceled) {
		r.metrics.IncrStoreError(r.backend)
	}
}

func (r *Repository) newTx(ctx context.Context, readOnly bool) *Tx {
	return &Tx{
		ctx:      ctx,
		repo:     r,
		readOnly: readOnly,
		loaded:   make(map[string]any),
		dirty:    make(map[string]bool),
	}
}

// Tx lazily loads lists and remembers which ones were replaced.
// Getters return copies; callers change state only through the setters.
type Tx struct {
	ctx      context.Context
	repo     *Repository
	readOnly bool
	loaded   map[string]any
	dirty    map[string]bool
	err      error
}

// Context is the context the transaction runs under.
func (tx *Tx) Context() context.Context {
	return tx.ctx
}

func txList[T any](tx *Tx, key string, fallback []T) ([]T, error) {
	if v, ok := tx.loaded[key]; ok {
		return slices.Clone(v.([]T)), nil
	}
	list, err := LoadList(tx.ctx, tx.repo.kv, key, fallback, tx.repo.logger)
	if err != nil {
		tx.repo.storeError(err)
		return nil, err
	}
	tx.loaded[key] = list
	return slices.Clone(list), nil
}

func (tx *Tx) put(key string, value any) {
	if tx.readOnly {
		tx.err = errReadOnly
		return
	}
	tx.loaded[key] = value
	tx.dirty[key] = true
}

func (tx *Tx) ForSale() ([]domain.Vehicle, error) {
	return txList(tx, KeyForSale, tx.repo.seed.ForSale)
}

func (tx *Tx) SetForSale(list []domain.Vehicle) { tx.put(KeyForSale, list) }

func (tx *Tx) Sold() ([]domain.Vehicle, error) {
	return txList(tx, KeySold, tx.repo.seed.Sold)
}

func (tx *Tx) SetSold(list []domain.Vehicle) { tx.put(KeySold, list) }

func (tx *Tx) Archived() ([]domain.Vehicle, error) {
	return txList(tx, KeyArchived, tx.repo.seed.Archived)
}

func (tx *Tx) SetArchived(list []domain.Vehicle) { tx.put(KeyArchived, list) }

func (tx *Tx) Commissions() ([]domain.Commission, error) {
	return txList(tx, KeyCommissions, tx.repo.seed.Commissions)
}

func (tx *Tx) SetCommissions(list []domain.Commission) { tx.put(KeyCommissions, list) }

func (tx *Tx) Phases() ([]domain.Phase, error) {
	return txList(tx, KeyPhases, tx.repo.seed.Phases)
}

func (tx *Tx) SetPhases(list []domain.Phase) { tx.put(KeyPhases, list) }

func (tx *Tx) Clients() ([]domain.ClientRecord, error) {
	return txList(tx, KeyClients, tx.repo.seed.Clients)
}

func (tx *Tx) SetClients(list []domain.ClientRecord) { tx.put(KeyClients, list) }

// Rates reads the commission table.
func (tx *Tx) Rates() (domain.CommissionRates, error) {
	if v, ok := tx.loaded[KeyCommissionRates]; ok {
		return v.(domain.CommissionRates), nil
	}
	rates, err := LoadRates(tx.ctx, tx.repo.kv, tx.repo.logger)
	if err != nil {
		tx.repo.storeError(err)
		return rates, err
	}
	tx.loaded[KeyCommissionRates] = rates
	return rates, nil
}

func (tx *Tx) SetRates(r domain.CommissionRates) { tx.put(KeyCommissionRates, r) }

func (tx *Tx) encodeDirty() (map[string][]byte, error) {
	entries := make(map[string][]byte, len(tx.dirty))
	for k := range tx.dirty {
		var (
			raw []byte
			err error
		)
		switch v := tx.loaded[k].(type) {
		case []domain.Vehicle:
			raw, err = EncodeList(v)
		case []domain.Commission:
			raw, err = EncodeList(v)
		case []domain.Phase:
			raw, err = EncodeList(v)
		case []domain.ClientRecord:
			raw, err = EncodeList(v)
		case domain.CommissionRates:
			raw, err = encodeRates(v)
		default:
			err = fmt.Errorf("unexpected value type %T", v)
		}
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		entries[k] = raw
	}
	return entries, nil
}
