package content

import (
	"context"
	"sync"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/generator"
	"github.com/jmgilman/go/generator/maven"
	"github.com/jmgilman/go/generator/npm"
	"github.com/jmgilman/go/logging"
	"github.com/jmgilman/go/nfc"
	"github.com/jmgilman/go/pathmask"
	"github.com/jmgilman/go/store"
	"github.com/jmgilman/go/transfer"
	"github.com/jmgilman/go/worker"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultGenerators are registered when WithGenerators is not given.
var DefaultGenerators = []generator.Factory{maven.New, npm.New}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) { m.logger = logging.OrNop(l) }
}

// WithPool runs requests on p instead of a pool built from
// worker.DefaultConfig. The manager starts and stops it.
func WithPool(p *worker.Pool) Option {
	return func(m *Manager) { m.pool = p }
}

// WithNFC sets the not-found cache.
func WithNFC(c *nfc.Cache) Option {
	return func(m *Manager) { m.nfc = c }
}

// WithGenerators replaces the registered generators.
func WithGenerators(factories ...generator.Factory) Option {
	return func(m *Manager) { m.factories = factories }
}

// WithRegisterer registers request, cache and generation metrics.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(m *Manager) { m.registerer = reg }
}

// WithEventBus publishes events on bus.
func WithEventBus(bus evbus.Bus) Option {
	return func(m *Manager) { m.bus = bus }
}

// WithFetchLimit bounds concurrent member fetches per merge.
func WithFetchLimit(n int) Option {
	return func(m *Manager) { m.fetchLimit = n }
}

// WithClock overrides the time source for events.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager serves content requests for every store in a registry.
type Manager struct {
	registry store.Registry
	accessor *transfer.Accessor
	chain    *generator.Chain
	merges   *generator.MergeStore
	nfc      *nfc.Cache
	masks    *pathmask.Filter
	pool     *worker.Pool
	bus      evbus.Bus
	metrics  *Metrics
	logger   *logging.Logger
	now      func() time.Time

	factories  []generator.Factory
	registerer prometheus.Registerer
	fetchLimit int

	lifecycleMu sync.Mutex
	baseCtx     context.Context
	cancel      context.CancelFunc
	rescans     map[store.Key]context.CancelFunc
	rescanMu    sync.Mutex
	rescanWG    sync.WaitGroup
}

// NewManager returns a manager for the stores in registry, keeping content
// in accessor's storage.
func NewManager(registry store.Registry, accessor *transfer.Accessor, opts ...Option) (*Manager, error) {
	if registry == nil || accessor == nil {
		return nil, errors.New(errors.CodeInvalidInput, "registry and accessor are required")
	}

	m := &Manager{
		registry:  registry,
		accessor:  accessor,
		logger:    logging.NewNopLogger(),
		now:       time.Now,
		factories: DefaultGenerators,
		rescans:   make(map[store.Key]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.nfc == nil {
		c, err := nfc.New(nfc.DefaultConfig(), nfc.WithLogger(m.logger))
		if err != nil {
			return nil, err
		}
		m.nfc = c
	}
	if m.pool == nil {
		m.pool = worker.NewPool(worker.DefaultConfig(), worker.WithLogger(m.logger))
	}
	if m.bus == nil {
		m.bus = evbus.New()
	}
	if m.registerer != nil {
		m.metrics = newMetrics(m.registerer, m.nfc.Len, m.logger)
	}
	m.masks = pathmask.NewFilter(m.logger)

	source := rawSource{m: m}
	mergeOpts := []generator.MergeOption{generator.WithMergeLogger(m.logger)}
	if m.fetchLimit > 0 {
		mergeOpts = append(mergeOpts, generator.WithFetchLimit(m.fetchLimit))
	}
	if m.metrics != nil {
		mergeOpts = append(mergeOpts, generator.WithObserver(m.metrics))
	}
	m.merges = generator.NewMergeStore(accessor, source, mergeOpts...)

	chain, err := generator.NewChain(generator.Env{
		Accessor: accessor,
		Source:   source,
		Merges:   m.merges,
		Logger:   m.logger,
	}, m.factories...)
	if err != nil {
		return nil, err
	}
	m.chain = chain
	return m, nil
}

// Start starts the worker pool and the not-found cache sweeper. Rescans
// run until ctx is canceled or Close is called.
func (m *Manager) Start(ctx context.Context) error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	if m.baseCtx != nil {
		return nil
	}
	if err := m.pool.Start(ctx); err != nil && !errors.Is(err, worker.ErrPoolAlreadyStarted) {
		return err
	}
	m.baseCtx, m.cancel = context.WithCancel(ctx)
	m.nfc.Start(m.baseCtx)
	return nil
}

// Close cancels running rescans and stops the pool and the sweeper.
func (m *Manager) Close() error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	if m.cancel != nil {
		m.cancel()
	}
	m.rescanWG.Wait()
	m.bus.WaitAsync()

	err := m.pool.Stop(30 * time.Second)
	if cerr := m.nfc.Close(); err == nil {
		err = cerr
	}
	return err
}

// NFC returns the not-found cache.
func (m *Manager) NFC() *nfc.Cache { return m.nfc }

// Chain returns the generator chain.
func (m *Manager) Chain() *generator.Chain { return m.chain }

// Merges returns the merge cache.
func (m *Manager) Merges() *generator.MergeStore { return m.merges }

// Stats returns the worker pool counters.
func (m *Manager) Stats() worker.Stats { return m.pool.Stats() }

// Resolve returns the enabled concrete members of a group in order.
func (m *Manager) Resolve(ctx context.Context, key store.Key) ([]*store.ArtifactStore, error) {
	return m.registry.OrderedConcreteMembers(ctx, key, true)
}

// run executes fn on the pool and records the outcome.
func (m *Manager) run(ctx context.Context, op logging.Operation, key store.Key, path string, fn func(ctx context.Context) error) error {
	ctx = withRequestID(ctx)
	start := time.Now()

	err := m.pool.Do(ctx, fn)

	d := time.Since(start)
	m.metrics.observeRequest(op, d, err)
	if err == nil || !errors.IsNotFound(err) {
		logging.LogOperation(ctx, m.logger.WithStore(key).WithPath(path), op, d, err, "request_id", RequestID(ctx))
	}
	return err
}

func notFound(key store.Key, path string) error {
	return errors.WithContextMap(errors.New(errors.CodeNotFound, "content not found"), map[string]interface{}{
		"store": key.String(),
		"path":  path,
	})
}

func policyDenied(key store.Key, path, msg string) error {
	return errors.WithContextMap(errors.New(errors.CodePolicyDenied, msg), map[string]interface{}{
		"store": key.String(),
		"path":  path,
	})
}
