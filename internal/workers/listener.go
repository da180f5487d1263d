package workers

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/neekrasov/typedkv/internal/database"
	"github.com/neekrasov/typedkv/internal/database/auth"
	"github.com/neekrasov/typedkv/internal/database/models"
	"github.com/neekrasov/typedkv/pkg/logger"
	pkgsync "github.com/neekrasov/typedkv/pkg/sync"
)

// acceptRetryDelay - how long a listener backs off when another listener
// holds the acceptor.
const acceptRetryDelay = 10 * time.Millisecond

// ListenerPool - the front stage: accept a framed request, authenticate it,
// forward an analysis job, await the reply, answer the client. Many
// listeners run, but an exclusive lock keeps exactly one inside the
// blocking accept at any instant.
type ListenerPool struct {
	source        StreamSource
	authenticator auth.Service
	analysisQueue chan<- AnalysisJob

	sendTimeout  time.Duration
	replyTimeout time.Duration
	workers      int

	gen      *pkgsync.IDGenerator
	acceptMu sync.Mutex
	shutdown atomic.Bool
	group    errgroup.Group
}

// NewListenerPool - creates a pool of the given size.
func NewListenerPool(
	workers int,
	source StreamSource,
	authenticator auth.Service,
	analysisQueue chan<- AnalysisJob,
	sendTimeout, replyTimeout time.Duration,
) *ListenerPool {
	return &ListenerPool{
		source:        source,
		authenticator: authenticator,
		analysisQueue: analysisQueue,
		sendTimeout:   sendTimeout,
		replyTimeout:  replyTimeout,
		workers:       workers,
		gen:           pkgsync.NewIDGenerator(0),
	}
}

// Start - spawns the listener workers.
func (p *ListenerPool) Start() {
	for n := 0; n < p.workers; n++ {
		id := n
		p.group.Go(func() error {
			p.run(id)
			return nil
		})
	}
}

// Stop - signals every worker and joins them.
func (p *ListenerPool) Stop() {
	p.shutdown.Store(true)
	_ = p.group.Wait()
}

func (p *ListenerPool) run(id int) {
	for !p.shutdown.Load() {
		request, ok := p.acceptNext()
		if !ok {
			logger.Debug("stream source closed, stopping listener", zap.Int("listener", id))
			return
		}
		if request == nil {
			continue
		}

		p.handle(request)
	}

	logger.Debug("shutting down listener worker", zap.Int("listener", id))
}

// acceptNext - acquire-try-release around the shared acceptor. A nil
// request with ok true means either the lock was busy or the accept timed
// out; the caller just loops.
func (p *ListenerPool) acceptNext() (*StreamRequest, bool) {
	if !p.acceptMu.TryLock() {
		time.Sleep(acceptRetryDelay)
		return nil, true
	}
	defer p.acceptMu.Unlock()

	return p.source.Accept()
}

func (p *ListenerPool) handle(request *StreamRequest) {
	requestID := p.gen.Generate()

	if request.Err != nil {
		p.reply(request.Sender, database.Result{Err: request.Err})
		return
	}

	logger.Debug("handling request",
		zap.Int64("request", requestID), zap.String("query", request.Query))

	level, err := p.authenticate(request.Headers)
	if err != nil {
		logger.Debug("authentication rejected",
			zap.Int64("request", requestID), zap.Error(err))
		p.reply(request.Sender, database.Result{Err: err})
		return
	}

	reply := pkgsync.NewFuture[database.Result]()
	job := AnalysisJob{Query: request.Query, Level: level, Reply: reply}

	select {
	case p.analysisQueue <- job:
	case <-time.After(p.sendTimeout):
		p.reply(request.Sender, database.Result{
			Err: models.InternalErrorf("Internal error found."),
		})
		return
	}

	result, ok := reply.GetTimeout(p.replyTimeout)
	if !ok {
		logger.Warn("request timed out", zap.Int64("request", requestID))
		result = database.Result{Err: models.InternalErrorf("Command timed out.")}
	}

	p.reply(request.Sender, result)
}

// authenticate - classifies the caller: rejected credentials are an
// authentication error, accepted credentials without a level an
// authorization error.
func (p *ListenerPool) authenticate(headers map[string]string) (auth.Level, error) {
	result, err := p.authenticator.Authenticate(headers)
	if err != nil {
		return 0, err
	}

	if !result.Authenticated {
		return 0, models.AuthenticationErrorf("Authentication failed.")
	}

	if !result.HasLevel {
		return 0, models.AuthorizationErrorf(
			"User %s not authorized to access this resource.", result.Username)
	}

	return result.Level, nil
}

func (p *ListenerPool) reply(sender ResponseSender, result database.Result) {
	if sender == nil {
		return
	}

	if err := sender.Send(result); err != nil {
		logger.Warn("failed to send response", zap.Error(err))
	}
}
