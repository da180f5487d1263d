package workers

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/neekrasov/typedkv/internal/database"
	"github.com/neekrasov/typedkv/internal/database/auth"
	"github.com/neekrasov/typedkv/internal/database/compute"
	"github.com/neekrasov/typedkv/pkg/logger"
)

// ExpirationWorker - periodically submits a batch of expire-keys statements
// to the executor queue at admin level. Each statement samples one random
// expiring key, so the batch size bounds the work a tick can cause; keys
// keep expiring even with no client load. Submissions carry no reply slot,
// and a full queue just drops the rest of the batch with a log line.
type ExpirationWorker struct {
	queue chan<- ExecJob

	interval    time.Duration
	batch       int
	pollTimeout time.Duration
	sendTimeout time.Duration

	shutdown atomic.Bool
	group    errgroup.Group
}

// NewExpirationWorker - creates the worker.
func NewExpirationWorker(
	queue chan<- ExecJob,
	interval time.Duration,
	batch int,
	pollTimeout, sendTimeout time.Duration,
) *ExpirationWorker {
	return &ExpirationWorker{
		queue:       queue,
		interval:    interval,
		batch:       batch,
		pollTimeout: pollTimeout,
		sendTimeout: sendTimeout,
	}
}

// Start - spawns the worker goroutine.
func (w *ExpirationWorker) Start() {
	w.group.Go(func() error {
		w.run()
		return nil
	})
}

// Stop - signals the worker and joins it.
func (w *ExpirationWorker) Stop() {
	w.shutdown.Store(true)
	_ = w.group.Wait()
}

func (w *ExpirationWorker) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	poll := time.NewTicker(w.pollTimeout)
	defer poll.Stop()

	for {
		select {
		case <-ticker.C:
			if w.shutdown.Load() {
				logger.Debug("shutting down expiration worker")
				return
			}

			w.expireKeys()
		case <-poll.C:
			if w.shutdown.Load() {
				logger.Debug("shutting down expiration worker")
				return
			}
		}
	}
}

func (w *ExpirationWorker) expireKeys() {
	job := ExecJob{
		Request: database.Request{
			Statements:    []compute.Statement{{Kind: compute.StatementExpireKeys}},
			Authorization: auth.LevelAdmin,
		},
	}

	for n := 0; n < w.batch; n++ {
		select {
		case w.queue <- job:
		case <-time.After(w.sendTimeout):
			logger.Warn("expiration submission dropped, executor queue full",
				zap.Int("submitted", n), zap.Int("batch", w.batch))
			return
		}
	}
}
