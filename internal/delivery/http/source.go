package http

import (
	"bufio"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/neekrasov/typedkv/internal/database/models"
	"github.com/neekrasov/typedkv/internal/workers"
	"github.com/neekrasov/typedkv/pkg/logger"
)

const defaultAcceptTimeout = time.Second

// Source - the shared stream source listeners draw from: a TCP listener
// whose accepted connections are framed as single HTTP/1.1 requests. One
// request per connection; the sender closes the connection after replying.
type Source struct {
	listener *net.TCPListener

	acceptTimeout time.Duration
	idleTimeout   time.Duration
}

// NewSource - binds the TCP endpoint.
func NewSource(address string, opts ...SourceOption) (*Source, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, models.NetworkErrorf("failed to bind %s: %v", address, err)
	}

	s := &Source{
		listener:      listener.(*net.TCPListener),
		acceptTimeout: defaultAcceptTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	logger.Info("listening", zap.Stringer("addr", listener.Addr()))

	return s, nil
}

// SourceOption - configures the source.
type SourceOption func(*Source)

// WithAcceptTimeout - bounds each blocking accept so shutdown flags are
// observed.
func WithAcceptTimeout(timeout time.Duration) SourceOption {
	return func(s *Source) {
		s.acceptTimeout = timeout
	}
}

// WithIdleTimeout - bounds how long reading a single request may take.
func WithIdleTimeout(timeout time.Duration) SourceOption {
	return func(s *Source) {
		s.idleTimeout = timeout
	}
}

// Addr - the bound address, useful when the configured port was 0.
func (s *Source) Addr() net.Addr {
	return s.listener.Addr()
}

// Close - stops accepting; pending Accept calls report the source closed.
func (s *Source) Close() error {
	return s.listener.Close()
}

// Accept - implements workers.StreamSource. A deadline bounds the blocking
// accept; timeouts report (nil, true) so the caller can observe its
// shutdown flag and come back.
func (s *Source) Accept() (*workers.StreamRequest, bool) {
	if err := s.listener.SetDeadline(time.Now().Add(s.acceptTimeout)); err != nil {
		logger.Warn("failed to set accept deadline", zap.Error(err))
	}

	conn, err := s.listener.Accept()
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			return nil, false
		}

		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, true
		}

		logger.Warn("failed to accept connection", zap.Error(err))
		return &workers.StreamRequest{
			Err: models.NetworkErrorf("Could not read TCP connection."),
		}, true
	}

	return s.readRequest(conn), true
}

// readRequest - frames one HTTP request off the connection. Read or parse
// failures are network errors; a non-POST method, a missing Content-Length
// or an unusable body is a request error. Either way the sender stays
// attached so the client gets an answer.
func (s *Source) readRequest(conn net.Conn) *workers.StreamRequest {
	sender := newSender(conn)

	if s.idleTimeout != 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.idleTimeout)); err != nil {
			logger.Warn("failed to set read deadline", zap.Error(err))
		}
	}

	var request fasthttp.Request
	if err := request.Read(bufio.NewReader(conn)); err != nil {
		logger.Debug("failed to read request", zap.Error(err))
		return &workers.StreamRequest{
			Err:    models.NetworkErrorf("Problem reading request."),
			Sender: sender,
		}
	}

	headers := make(map[string]string)
	request.Header.VisitAll(func(key, value []byte) {
		headers[string(key)] = string(value)
	})
	sender.gzip = strings.Contains(headers[fasthttp.HeaderAcceptEncoding], "gzip")

	if !request.Header.IsPost() {
		return &workers.StreamRequest{
			Err:     models.RequestErrorf("Malformed request."),
			Headers: headers,
			Sender:  sender,
		}
	}

	if len(request.Header.Peek(fasthttp.HeaderContentLength)) == 0 {
		return &workers.StreamRequest{
			Err:     models.RequestErrorf("Malformed request."),
			Headers: headers,
			Sender:  sender,
		}
	}

	var body struct {
		Query *string `json:"query"`
	}
	if err := json.Unmarshal(request.Body(), &body); err != nil || body.Query == nil {
		return &workers.StreamRequest{
			Err:     models.RequestErrorf("Malformed request."),
			Headers: headers,
			Sender:  sender,
		}
	}

	return &workers.StreamRequest{
		Query:   *body.Query,
		Headers: headers,
		Sender:  sender,
	}
}
