package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/logging"
	"github.com/prometheus/client_golang/prometheus"
)

// Task is a unit of work.
type Task func(ctx context.Context) error

// Config sizes a pool.
type Config struct {
	Workers   int
	QueueSize int
}

// DefaultConfig returns 16 workers and a queue of 256.
func DefaultConfig() Config {
	return Config{Workers: 16, QueueSize: 256}
}

func (c Config) validate() error {
	if c.Workers <= 0 {
		return errors.WithContext(errors.New(errors.CodeInvalidConfig, "workers must be positive"), "workers", c.Workers)
	}
	if c.QueueSize < 0 {
		return errors.WithContext(errors.New(errors.CodeInvalidConfig, "queue size must not be negative"), "queue_size", c.QueueSize)
	}
	return nil
}

type job struct {
	ctx  context.Context
	task Task
	done chan error
}

// Pool runs tasks on a fixed set of goroutines fed by a bounded queue.
type Pool struct {
	cfg    Config
	jobs   chan job
	wg     sync.WaitGroup
	logger *logging.Logger

	lifecycleMu sync.Mutex
	started     bool
	stopped     bool
	ctx         context.Context
	cancel      context.CancelFunc

	submitted atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	rejected  atomic.Int64
	active    atomic.Int64

	registerer prometheus.Registerer
	prefix     string
	metrics    *metrics
}

type metrics struct {
	queueDepth prometheus.GaugeFunc
	active     prometheus.GaugeFunc
	submitted  prometheus.Counter
	rejected   prometheus.Counter
	duration   *prometheus.HistogramVec
}

// Option configures a Pool.
type Option func(*Pool)

// WithRegisterer registers the pool's metrics under prefix.
func WithRegisterer(reg prometheus.Registerer, prefix string) Option {
	return func(p *Pool) {
		p.registerer = reg
		p.prefix = prefix
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Pool) { p.logger = logging.OrNop(l) }
}

// NewPool returns a pool sized by cfg. Invalid sizes fall back to the
// defaults.
func NewPool(cfg Config, opts ...Option) *Pool {
	if err := cfg.validate(); err != nil {
		cfg = DefaultConfig()
	}

	p := &Pool{
		cfg:    cfg,
		jobs:   make(chan job, cfg.QueueSize),
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.registerer != nil && p.prefix != "" {
		p.initMetrics()
	}
	return p
}

func (p *Pool) initMetrics() {
	m := &metrics{
		queueDepth: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: p.prefix + "_queue_depth",
			Help: "Tasks waiting in the worker pool queue.",
		}, func() float64 { return float64(len(p.jobs)) }),
		active: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: p.prefix + "_active",
			Help: "Tasks currently running.",
		}, func() float64 { return float64(p.active.Load()) }),
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: p.prefix + "_submitted_total",
			Help: "Tasks accepted by the worker pool.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: p.prefix + "_rejected_total",
			Help: "Tasks rejected because the queue was full.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    p.prefix + "_task_duration_seconds",
			Help:    "Time spent running tasks.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5, 30},
		}, []string{"status"}),
	}

	for _, c := range []prometheus.Collector{m.queueDepth, m.active, m.submitted, m.rejected, m.duration} {
		if err := p.registerer.Register(c); err != nil {
			p.logger.Warn(context.Background(), "failed to register worker pool metric", "error", err)
		}
	}
	p.metrics = m
}

// Start launches the workers. Cancelling ctx stops them.
func (p *Pool) Start(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.started {
		return ErrPoolAlreadyStarted
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.work(p.ctx)
	}
	p.started = true
	return nil
}

// Stop stops accepting work and waits up to timeout for queued and
// running tasks to finish.
func (p *Pool) Stop(timeout time.Duration) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if !p.started || p.stopped {
		return nil
	}
	p.stopped = true
	close(p.jobs)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-timer.C:
		p.cancel()
		return ErrStopTimeout
	}
}

// Submit queues task without waiting for it. ctx is handed to the task.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	return p.enqueue(job{ctx: ctx, task: task})
}

// Do runs task on the pool and returns its error. It returns early with a
// CodeCanceled error if ctx ends first; the task still sees ctx canceled.
func (p *Pool) Do(ctx context.Context, task Task) error {
	done := make(chan error, 1)
	if err := p.enqueue(job{ctx: ctx, task: task, done: done}); err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), errors.CodeCanceled, "task canceled")
	case <-p.ctx.Done():
		select {
		case err := <-done:
			return err
		default:
			return ErrPoolStopped
		}
	}
}

func (p *Pool) enqueue(j job) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if !p.started {
		return ErrPoolNotStarted
	}
	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.jobs <- j:
		p.submitted.Add(1)
		if p.metrics != nil {
			p.metrics.submitted.Inc()
		}
		return nil
	default:
		p.rejected.Add(1)
		if p.metrics != nil {
			p.metrics.rejected.Inc()
		}
		return ErrQueueFull
	}
}

func (p *Pool) work(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-p.jobs:
			if !ok {
				return
			}
			p.run(ctx, j)
		}
	}
}

func (p *Pool) run(poolCtx context.Context, j job) {
	ctx := j.ctx
	if ctx == nil {
		ctx = poolCtx
	}

	p.active.Add(1)
	start := time.Now()
	err := p.safeRun(ctx, j.task)
	duration := time.Since(start)
	p.active.Add(-1)

	p.processed.Add(1)
	status := "success"
	if err != nil {
		p.failed.Add(1)
		status = "error"
	}
	if p.metrics != nil {
		p.metrics.duration.WithLabelValues(status).Observe(duration.Seconds())
	}

	if j.done != nil {
		j.done <- err
	}
}

func (p *Pool) safeRun(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error(ctx, "task panicked", "panic", r)
			err = errors.WithContext(errors.New(errors.CodeInternal, "task panicked"), "panic", r)
		}
	}()
	return task(ctx)
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Workers    int   `json:"workers" yaml:"workers"`
	QueueSize  int   `json:"queue_size" yaml:"queue_size"`
	QueueDepth int   `json:"queue_depth" yaml:"queue_depth"`
	Active     int64 `json:"active" yaml:"active"`
	Submitted  int64 `json:"submitted" yaml:"submitted"`
	Processed  int64 `json:"processed" yaml:"processed"`
	Failed     int64 `json:"failed" yaml:"failed"`
	Rejected   int64 `json:"rejected" yaml:"rejected"`
}

// Stats returns current counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:    p.cfg.Workers,
		QueueSize:  p.cfg.QueueSize,
		QueueDepth: len(p.jobs),
		Active:     p.active.Load(),
		Submitted:  p.submitted.Load(),
		Processed:  p.processed.Load(),
		Failed:     p.failed.Load(),
		Rejected:   p.rejected.Load(),
	}
}
