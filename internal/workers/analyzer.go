package workers

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/neekrasov/typedkv/internal/database"
	"github.com/neekrasov/typedkv/internal/database/compute"
	"github.com/neekrasov/typedkv/internal/database/models"
	"github.com/neekrasov/typedkv/pkg/logger"
)

// AnalyzerPool - the middle stage: tokenize and parse each query. Parse
// failures are answered directly on the reply slot and never reach the
// executor.
type AnalyzerPool struct {
	input  <-chan AnalysisJob
	output chan<- ExecJob

	pollTimeout time.Duration
	sendTimeout time.Duration
	workers     int

	shutdown atomic.Bool
	group    errgroup.Group
}

// NewAnalyzerPool - creates a pool of the given size.
func NewAnalyzerPool(
	workers int,
	input <-chan AnalysisJob,
	output chan<- ExecJob,
	pollTimeout, sendTimeout time.Duration,
) *AnalyzerPool {
	return &AnalyzerPool{
		input:       input,
		output:      output,
		pollTimeout: pollTimeout,
		sendTimeout: sendTimeout,
		workers:     workers,
	}
}

// Start - spawns the analyzer workers.
func (p *AnalyzerPool) Start() {
	for n := 0; n < p.workers; n++ {
		id := n
		p.group.Go(func() error {
			p.run(id)
			return nil
		})
	}
}

// Stop - signals every worker and joins them.
func (p *AnalyzerPool) Stop() {
	p.shutdown.Store(true)
	_ = p.group.Wait()
}

func (p *AnalyzerPool) run(id int) {
	timer := time.NewTimer(p.pollTimeout)
	defer timer.Stop()

	for !p.shutdown.Load() {
		timer.Reset(p.pollTimeout)
		select {
		case job, ok := <-p.input:
			if !ok {
				logger.Debug("analysis queue closed, stopping analyzer", zap.Int("analyzer", id))
				return
			}

			p.analyze(job)
		case <-timer.C:
		}
	}

	logger.Debug("shutting down analyzer worker", zap.Int("analyzer", id))
}

func (p *AnalyzerPool) analyze(job AnalysisJob) {
	statements, err := compute.ParseQuery(job.Query)
	if err != nil {
		logger.Debug("query analysis failed", zap.String("query", job.Query), zap.Error(err))
		job.Reply.Set(database.Result{Err: err})
		return
	}

	exec := ExecJob{
		Request: database.Request{Statements: statements, Authorization: job.Level},
		Reply:   job.Reply,
	}

	select {
	case p.output <- exec:
	case <-time.After(p.sendTimeout):
		job.Reply.Set(database.Result{Err: models.InternalErrorf("Internal error found.")})
	}
}
