package workers

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/neekrasov/typedkv/internal/database"
	"github.com/neekrasov/typedkv/internal/database/auth"
	"github.com/neekrasov/typedkv/internal/database/storage"
	"github.com/neekrasov/typedkv/pkg/logger"
)

const (
	defaultListeners    = 4
	defaultAnalyzers    = 2
	defaultQueueSize    = 128
	defaultPollTimeout  = time.Second
	defaultSendTimeout  = time.Second
	defaultReplyTimeout = 30 * time.Second

	defaultExpirationInterval = 5 * time.Second
	defaultExpirationBatch    = 5
)

// Config - sizing and timing for the pipeline. Zero fields take defaults.
type Config struct {
	Listeners int
	Analyzers int
	QueueSize int

	// PollTimeout - bound on every blocking receive so shutdown flags are
	// observed promptly.
	PollTimeout time.Duration
	// SendTimeout - bound on queue sends; hitting it reports an internal
	// error instead of wedging a worker.
	SendTimeout time.Duration
	// ReplyTimeout - how long a listener waits for the executor's reply.
	ReplyTimeout time.Duration

	ExpirationInterval time.Duration
	ExpirationBatch    int
}

func (c *Config) withDefaults() {
	if c.Listeners <= 0 {
		c.Listeners = defaultListeners
	}
	if c.Analyzers <= 0 {
		c.Analyzers = defaultAnalyzers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = defaultPollTimeout
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = defaultSendTimeout
	}
	if c.ReplyTimeout <= 0 {
		c.ReplyTimeout = defaultReplyTimeout
	}
	if c.ExpirationInterval <= 0 {
		c.ExpirationInterval = defaultExpirationInterval
	}
	if c.ExpirationBatch <= 0 {
		c.ExpirationBatch = defaultExpirationBatch
	}
}

// Coordinator - builds the queues and worker stages over one storage engine
// and runs them until a shutdown statement executes or the context is
// cancelled.
type Coordinator struct {
	listeners  *ListenerPool
	analyzers  *AnalyzerPool
	executor   *Executor
	expiration *ExpirationWorker

	startShutdown *atomic.Bool
	pollTimeout   time.Duration
}

// NewCoordinator - wires the whole pipeline: listener pool -> analysis
// queue -> analyzer pool -> executor queue -> single executor, plus the
// expiration worker feeding the executor queue directly.
func NewCoordinator(cfg Config, source StreamSource, authenticator auth.Service) *Coordinator {
	cfg.withDefaults()

	analysisQueue := make(chan AnalysisJob, cfg.QueueSize)
	executorQueue := make(chan ExecJob, cfg.QueueSize)
	startShutdown := new(atomic.Bool)

	interpreter := database.NewInterpreter(storage.NewEngine())

	return &Coordinator{
		listeners: NewListenerPool(
			cfg.Listeners, source, authenticator, analysisQueue,
			cfg.SendTimeout, cfg.ReplyTimeout,
		),
		analyzers: NewAnalyzerPool(
			cfg.Analyzers, analysisQueue, executorQueue,
			cfg.PollTimeout, cfg.SendTimeout,
		),
		executor: NewExecutor(interpreter, executorQueue, startShutdown, cfg.PollTimeout),
		expiration: NewExpirationWorker(
			executorQueue, cfg.ExpirationInterval, cfg.ExpirationBatch,
			cfg.PollTimeout, cfg.SendTimeout,
		),
		startShutdown: startShutdown,
		pollTimeout:   cfg.PollTimeout,
	}
}

// Serve - starts every stage and blocks until a shutdown statement flips
// the start-shutdown flag or the context is cancelled, then stops the
// stages front to back: listeners first so no new jobs arrive, analyzers so
// no new exec jobs appear, the expiration worker, and the executor last so
// in-flight jobs still get answers.
func (c *Coordinator) Serve(ctx context.Context) error {
	c.executor.Start()
	c.analyzers.Start()
	c.listeners.Start()
	c.expiration.Start()
	logger.Info("ready for requests")

	ticker := time.NewTicker(c.pollTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("context cancelled, stopping the service")
			c.stop()
			return nil
		case <-ticker.C:
			if c.startShutdown.Load() {
				logger.Info("shutdown signal received, stopping the service")
				c.stop()
				return nil
			}
		}
	}
}

func (c *Coordinator) stop() {
	c.listeners.Stop()
	c.analyzers.Stop()
	c.expiration.Stop()
	c.executor.Stop()
	logger.Info("finished shutting down all workers")
}
