package workers

import (
	"github.com/neekrasov/typedkv/internal/database"
	"github.com/neekrasov/typedkv/internal/database/auth"
	pkgsync "github.com/neekrasov/typedkv/pkg/sync"
)

// StreamRequest - one framed client request handed to a listener: either a
// query string with its headers, or the error reading it. The sender, when
// present, is the only way to answer the client.
type StreamRequest struct {
	Query   string
	Err     error
	Headers map[string]string
	Sender  ResponseSender
}

// ResponseSender - writes one result back to the client that produced a
// stream request.
type ResponseSender interface {
	Send(result database.Result) error
}

// StreamSource - the shared acceptor listeners draw from. Accept blocks for
// a bounded time; a nil request with ok true is an accept timeout, and ok
// false means the source has closed for good.
type StreamSource interface {
	Accept() (*StreamRequest, bool)
}

// AnalysisJob - a raw query with the caller's level and a single-use reply
// slot, queued from a listener to the analyzer pool.
type AnalysisJob struct {
	Query string
	Level auth.Level
	Reply *pkgsync.Future[database.Result]
}

// ExecJob - a parsed request queued to the executor. Reply is nil for
// fire-and-forget submissions such as expiration sweeps.
type ExecJob struct {
	Request database.Request
	Reply   *pkgsync.Future[database.Result]
}
