package workers_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neekrasov/typedkv/internal/database"
	"github.com/neekrasov/typedkv/internal/database/auth"
	"github.com/neekrasov/typedkv/internal/database/models"
	"github.com/neekrasov/typedkv/internal/workers"
	"github.com/neekrasov/typedkv/pkg/logger"
)

// fakeSender - collects the single reply a request receives.
type fakeSender struct {
	results chan database.Result
}

func newFakeSender() *fakeSender {
	return &fakeSender{results: make(chan database.Result, 1)}
}

func (s *fakeSender) Send(result database.Result) error {
	s.results <- result
	return nil
}

func (s *fakeSender) await(t *testing.T) database.Result {
	t.Helper()

	select {
	case result := <-s.results:
		return result
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a reply")
		return database.Result{}
	}
}

// fakeSource - a stream source fed by a channel, with the same bounded
// accept behavior the TCP source has.
type fakeSource struct {
	requests chan *workers.StreamRequest
}

func newFakeSource() *fakeSource {
	return &fakeSource{requests: make(chan *workers.StreamRequest, 16)}
}

func (s *fakeSource) Accept() (*workers.StreamRequest, bool) {
	select {
	case request, ok := <-s.requests:
		if !ok {
			return nil, false
		}
		return request, true
	case <-time.After(50 * time.Millisecond):
		return nil, true
	}
}

func (s *fakeSource) submit(query, username string) *fakeSender {
	sender := newFakeSender()
	s.requests <- &workers.StreamRequest{
		Query:   query,
		Headers: map[string]string{auth.UsernameHeader: username},
		Sender:  sender,
	}
	return sender
}

func TestCoordinator(t *testing.T) {
	t.Parallel()
	logger.MockLogger()

	source := newFakeSource()
	coordinator := workers.NewCoordinator(workers.Config{
		Listeners:          2,
		Analyzers:          2,
		PollTimeout:        50 * time.Millisecond,
		ReplyTimeout:       5 * time.Second,
		ExpirationInterval: 100 * time.Millisecond,
	}, source, auth.NewMock())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = coordinator.Serve(context.Background())
	}()

	t.Run("write then read", func(t *testing.T) {
		result := source.submit("set x 1; get x", "admin").await(t)
		require.NoError(t, result.Err)
		assert.Equal(t, database.ResponseValue, result.Response.Kind)
	})

	t.Run("parse errors come straight from the analyzer", func(t *testing.T) {
		result := source.submit("frobnicate x", "admin").await(t)
		assert.True(t, models.IsKind(result.Err, models.ParseError))
	})

	t.Run("rejected credentials", func(t *testing.T) {
		result := source.submit("get x", "unauthenticated").await(t)
		assert.True(t, models.IsKind(result.Err, models.AuthenticationError))
	})

	t.Run("unknown user lacks a level", func(t *testing.T) {
		result := source.submit("get x", "someone").await(t)
		assert.True(t, models.IsKind(result.Err, models.AuthorizationError))
	})

	t.Run("read level cannot mutate", func(t *testing.T) {
		result := source.submit("set y 1", "read").await(t)
		assert.True(t, models.IsKind(result.Err, models.AuthorizationError))

		result = source.submit("get y", "admin").await(t)
		assert.True(t, models.IsKind(result.Err, models.KeyError))
	})

	t.Run("request errors from the stream reply as-is", func(t *testing.T) {
		sender := newFakeSender()
		source.requests <- &workers.StreamRequest{
			Err:    models.RequestErrorf("Malformed request."),
			Sender: sender,
		}

		result := sender.await(t)
		assert.True(t, models.IsKind(result.Err, models.RequestError))
	})

	t.Run("shutdown statement stops the service", func(t *testing.T) {
		result := source.submit("shutdown", "admin").await(t)
		require.NoError(t, result.Err)
		assert.Equal(t, database.ResponseShuttingDown, result.Response.Kind)

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("coordinator did not stop after shutdown")
		}
	})
}
