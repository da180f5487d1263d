package workers

import (
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/neekrasov/typedkv/internal/database"
	"github.com/neekrasov/typedkv/pkg/logger"
)

// Executor - the single worker owning the one storage instance. Routing
// every mutation through it is what lets the engine stay lock-free: there
// is never a second goroutine inside the store.
//
// On a shutdown acknowledgement it flips the process-wide start-shutdown
// flag but keeps draining, so jobs already queued still receive responses;
// it exits only when its own stop flag is set.
type Executor struct {
	interpreter *database.Interpreter
	input       <-chan ExecJob

	startShutdown *atomic.Bool
	pollTimeout   time.Duration

	shutdown atomic.Bool
	group    errgroup.Group
}

// NewExecutor - creates the executor over an interpreter.
func NewExecutor(
	interpreter *database.Interpreter,
	input <-chan ExecJob,
	startShutdown *atomic.Bool,
	pollTimeout time.Duration,
) *Executor {
	return &Executor{
		interpreter:   interpreter,
		input:         input,
		startShutdown: startShutdown,
		pollTimeout:   pollTimeout,
	}
}

// Start - spawns the executor goroutine.
func (e *Executor) Start() {
	e.group.Go(func() error {
		e.run()
		return nil
	})
}

// Stop - signals the executor and joins it.
func (e *Executor) Stop() {
	e.shutdown.Store(true)
	_ = e.group.Wait()
}

func (e *Executor) run() {
	timer := time.NewTimer(e.pollTimeout)
	defer timer.Stop()

	for !e.shutdown.Load() {
		timer.Reset(e.pollTimeout)
		select {
		case job, ok := <-e.input:
			if !ok {
				logger.Debug("executor queue closed, stopping executor")
				return
			}

			e.execute(job)
		case <-timer.C:
		}
	}

	logger.Debug("shutting down the executor")
}

func (e *Executor) execute(job ExecJob) {
	response, err := e.interpreter.Interpret(job.Request)
	if job.Reply != nil {
		job.Reply.Set(database.Result{Response: response, Err: err})
	}

	if err == nil && response.Kind == database.ResponseShuttingDown {
		logger.Info("shutdown statement executed")
		e.startShutdown.Store(true)
	}
}
