// Package sync implements the bulk-sync orchestrator: a ticker-driven loop
// that pulls authoritative snapshots of the backend collections into the
// shared store, tolerating partial failure of any individual fetch.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alghazaly/storesync/internal/store"
	"github.com/alghazaly/storesync/internal/telemetry"
)

const (
	// DefaultSyncInterval is the default period between sync cycles
	DefaultSyncInterval = 60 * time.Second

	// DefaultSuccessDecay is how long the success status is displayed
	// before decaying back to idle
	DefaultSuccessDecay = 3 * time.Second

	// DefaultErrorDecay is how long the error status is displayed before
	// decaying back to idle
	DefaultErrorDecay = 5 * time.Second
)

// ResourceClient is the set of backend fetches the orchestrator issues.
// Satisfied by *api.Client.
type ResourceClient interface {
	CarBrands(ctx context.Context) ([]store.CarBrand, error)
	CarModels(ctx context.Context) ([]store.CarModel, error)
	ProductBrands(ctx context.Context) ([]store.ProductBrand, error)
	Categories(ctx context.Context) ([]store.Category, error)
	Products(ctx context.Context) ([]store.Product, error)
	Suppliers(ctx context.Context) ([]store.Supplier, error)
	Distributors(ctx context.Context) ([]store.Distributor, error)
	Orders(ctx context.Context) ([]store.Order, error)
	Customers(ctx context.Context) ([]store.Customer, error)
}

// Orchestrator runs periodic and on-demand sync cycles against the store
//
// Cycles are single-flight: a timer tick racing a forced sync never starts a
// second concurrent cycle. Stopping the orchestrator only prevents future
// cycles; a cycle already in progress runs to completion.
type Orchestrator interface {
	// Start marks the orchestrator running, performs one cycle
	// immediately, then performs one cycle per interval. Idempotent.
	Start()

	// Stop cancels the periodic loop and waits for an in-flight cycle to
	// finish. Idempotent.
	Stop()

	// SetSyncInterval updates the period. When running this restarts the
	// loop, so the next cycle fires immediately rather than after the old
	// period elapses.
	SetSyncInterval(d time.Duration)

	// ForceSync performs one cycle immediately regardless of timer phase
	// and returns the cycle's outcome
	ForceSync(ctx context.Context) error

	// Running reports whether the periodic loop is active
	Running() bool
}

// defaultOrchestrator is the default Orchestrator implementation
type defaultOrchestrator struct {
	store   store.Store
	client  ResourceClient
	logger  *slog.Logger
	metrics *telemetry.SyncMetrics

	successDecay time.Duration
	errorDecay   time.Duration

	// mu guards the loop lifecycle fields below
	mu       sync.Mutex
	running  bool
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}

	// cycleMu makes the syncing check-and-set atomic (single-flight) and
	// guards the deferred status resets against clobbering newer outcomes
	cycleMu sync.Mutex
}

// Option configures the orchestrator
type Option func(*defaultOrchestrator)

// WithInterval sets the initial sync period
func WithInterval(d time.Duration) Option {
	return func(o *defaultOrchestrator) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *defaultOrchestrator) {
		o.logger = logger
	}
}

// WithMetrics sets the sync metrics; nil metrics are a no-op
func WithMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(o *defaultOrchestrator) {
		o.metrics = metrics
	}
}

// WithStatusDecay overrides how long success and error outcomes are
// displayed before decaying back to idle
func WithStatusDecay(success, failure time.Duration) Option {
	return func(o *defaultOrchestrator) {
		if success > 0 {
			o.successDecay = success
		}
		if failure > 0 {
			o.errorDecay = failure
		}
	}
}

// New creates an orchestrator writing into st using client for fetches
func New(st store.Store, client ResourceClient, opts ...Option) Orchestrator {
	o := &defaultOrchestrator{
		store:        st,
		client:       client,
		logger:       slog.Default(),
		interval:     DefaultSyncInterval,
		successDecay: DefaultSuccessDecay,
		errorDecay:   DefaultErrorDecay,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Start begins the periodic sync loop
func (o *defaultOrchestrator) Start() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return
	}
	o.startLocked()
}

// startLocked arms the loop. Caller holds o.mu.
func (o *defaultOrchestrator) startLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	o.cancel = cancel
	o.done = done
	o.running = true

	o.logger.Info("Starting sync orchestrator", "interval", o.interval)
	go o.run(ctx, o.interval, done)
}

// run is the periodic loop. Cycles deliberately use a background context:
// stopping the loop must not cancel fetches already in flight.
func (o *defaultOrchestrator) run(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	if err := o.performCycle(context.Background()); err != nil {
		o.logger.Error("Initial sync cycle failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := o.performCycle(context.Background()); err != nil {
				o.logger.Error("Sync cycle failed", "error", err)
			}
		case <-ctx.Done():
			o.logger.Info("Sync orchestrator loop stopping")
			return
		}
	}
}

// Stop halts the periodic loop
func (o *defaultOrchestrator) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	cancel, done := o.cancel, o.done
	o.running = false
	o.cancel = nil
	o.done = nil
	o.mu.Unlock()

	cancel()
	<-done
	o.logger.Info("Sync orchestrator stopped")
}

// SetSyncInterval updates the period, restarting the loop when running
func (o *defaultOrchestrator) SetSyncInterval(d time.Duration) {
	if d <= 0 {
		d = DefaultSyncInterval
	}

	o.mu.Lock()
	o.interval = d
	if !o.running {
		o.mu.Unlock()
		return
	}
	cancel, done := o.cancel, o.done
	o.running = false
	o.cancel = nil
	o.done = nil
	o.mu.Unlock()

	cancel()
	<-done

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.running {
		o.startLocked()
	}
}

// ForceSync performs one cycle immediately
func (o *defaultOrchestrator) ForceSync(ctx context.Context) error {
	return o.performCycle(ctx)
}

// Running reports whether the periodic loop is active
func (o *defaultOrchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// performCycle runs one sync cycle end to end
func (o *defaultOrchestrator) performCycle(ctx context.Context) error {
	if !o.store.Online() {
		o.logger.Debug("Store is offline, skipping sync cycle")
		return nil
	}

	o.cycleMu.Lock()
	if o.store.SyncStatus() == store.StatusSyncing {
		o.cycleMu.Unlock()
		o.logger.Debug("Sync already in progress, skipping cycle")
		return nil
	}
	o.store.SetSyncStatus(store.StatusSyncing)
	o.store.SetSyncError(nil)
	o.cycleMu.Unlock()

	start := time.Now()
	err := o.runCycle(ctx)
	o.metrics.RecordCycleDuration(ctx, time.Since(start), err == nil)

	if err != nil {
		message := err.Error()
		o.cycleMu.Lock()
		o.store.SetSyncStatus(store.StatusError)
		o.store.SetSyncError(&message)
		o.cycleMu.Unlock()

		o.store.AddNotification(store.Notification{
			ID:        uuid.NewString(),
			Title:     "Sync failed",
			Message:   message,
			Type:      store.NotificationError,
			CreatedAt: time.Now(),
		})

		o.logger.Error("Sync cycle failed", "error", err, "duration", time.Since(start))
		o.scheduleStatusReset(store.StatusError, o.errorDecay)
		return err
	}

	o.cycleMu.Lock()
	o.store.SetSyncStatus(store.StatusSuccess)
	o.store.SetLastSyncTime(time.Now())
	o.cycleMu.Unlock()

	o.logger.Info("Sync cycle completed", "duration", time.Since(start))
	o.scheduleStatusReset(store.StatusSuccess, o.successDecay)
	return nil
}

// runCycle fetches the baseline collections, commits them, then runs the
// role-gated privileged batch. Individual fetch failures are substituted
// with empty collections; only orchestration-level failures propagate.
func (o *defaultOrchestrator) runCycle(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("sync cycle aborted before fetching: %w", err)
	}

	var (
		carBrands     []store.CarBrand
		carModels     []store.CarModel
		productBrands []store.ProductBrand
		categories    []store.Category
		products      []store.Product
	)

	// Baseline fetches cannot fail the batch (fetchIsolated substitutes
	// empty), so a plain WaitGroup suffices here.
	var wg sync.WaitGroup
	wg.Add(5)
	go func() {
		defer wg.Done()
		carBrands = fetchIsolated(ctx, o.logger, "car brands", o.client.CarBrands)
	}()
	go func() {
		defer wg.Done()
		carModels = fetchIsolated(ctx, o.logger, "car models", o.client.CarModels)
	}()
	go func() {
		defer wg.Done()
		productBrands = fetchIsolated(ctx, o.logger, "product brands", o.client.ProductBrands)
	}()
	go func() {
		defer wg.Done()
		categories = fetchIsolated(ctx, o.logger, "categories", o.client.Categories)
	}()
	go func() {
		defer wg.Done()
		products = fetchIsolated(ctx, o.logger, "products", o.client.Products)
	}()
	wg.Wait()

	// A failed fetch still overwrites its collection with an empty slice:
	// last good snapshot or empty, never a merge.
	o.store.SetCarBrands(carBrands)
	o.store.SetCarModels(carModels)
	o.store.SetProductBrands(productBrands)
	o.store.SetCategories(categories)
	o.store.SetProducts(products)

	o.metrics.RecordCollectionSize(ctx, "car_brands", int64(len(carBrands)))
	o.metrics.RecordCollectionSize(ctx, "car_models", int64(len(carModels)))
	o.metrics.RecordCollectionSize(ctx, "product_brands", int64(len(productBrands)))
	o.metrics.RecordCollectionSize(ctx, "categories", int64(len(categories)))
	o.metrics.RecordCollectionSize(ctx, "products", int64(len(products)))

	// The privileged batch starts only after the baseline writes are
	// committed.
	o.syncPrivileged(ctx)
	return nil
}

// fetchIsolated performs one fetch, substituting an empty collection on
// failure so a single failing endpoint never aborts the batch
func fetchIsolated[T any](ctx context.Context, logger *slog.Logger, name string, fetch func(context.Context) ([]T, error)) []T {
	items, err := fetch(ctx)
	if err != nil {
		logger.Warn("Fetch failed, substituting empty collection", "collection", name, "error", err)
		return nil
	}
	return items
}

// syncPrivileged fetches the role-gated collections. Each successful fetch
// is written as it completes; failure of the batch is logged only and never
// flips the cycle to the error state.
func (o *defaultOrchestrator) syncPrivileged(ctx context.Context) {
	role := o.store.UserRole()
	collections := PrivilegedCollections(role)
	if len(collections) == 0 {
		return
	}

	g := new(errgroup.Group)
	for _, collection := range collections {
		switch collection {
		case CollectionSuppliers:
			g.Go(func() error {
				items, err := o.client.Suppliers(ctx)
				if err != nil {
					return fmt.Errorf("suppliers: %w", err)
				}
				o.store.SetSuppliers(items)
				o.metrics.RecordCollectionSize(ctx, "suppliers", int64(len(items)))
				return nil
			})
		case CollectionDistributors:
			g.Go(func() error {
				items, err := o.client.Distributors(ctx)
				if err != nil {
					return fmt.Errorf("distributors: %w", err)
				}
				o.store.SetDistributors(items)
				o.metrics.RecordCollectionSize(ctx, "distributors", int64(len(items)))
				return nil
			})
		case CollectionOrders:
			g.Go(func() error {
				items, err := o.client.Orders(ctx)
				if err != nil {
					return fmt.Errorf("orders: %w", err)
				}
				o.store.SetOrders(items)
				o.metrics.RecordCollectionSize(ctx, "orders", int64(len(items)))
				return nil
			})
		case CollectionCustomers:
			g.Go(func() error {
				items, err := o.client.Customers(ctx)
				if err != nil {
					return fmt.Errorf("customers: %w", err)
				}
				o.store.SetCustomers(items)
				o.metrics.RecordCollectionSize(ctx, "customers", int64(len(items)))
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		o.logger.Warn("Privileged collection sync failed", "role", role, "error", err)
	}
}

// scheduleStatusReset decays the given outcome back to idle after the
// window elapses, unless a newer cycle has changed the status since
func (o *defaultOrchestrator) scheduleStatusReset(from store.Status, after time.Duration) {
	time.AfterFunc(after, func() {
		o.cycleMu.Lock()
		defer o.cycleMu.Unlock()
		if o.store.SyncStatus() == from {
			o.store.SetSyncStatus(store.StatusIdle)
		}
	})
}
