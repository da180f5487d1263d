package workers_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neekrasov/typedkv/internal/database"
	"github.com/neekrasov/typedkv/internal/database/auth"
	"github.com/neekrasov/typedkv/internal/database/compute"
	"github.com/neekrasov/typedkv/internal/database/storage"
	"github.com/neekrasov/typedkv/internal/database/types"
	"github.com/neekrasov/typedkv/internal/workers"
	"github.com/neekrasov/typedkv/pkg/logger"
	pkgsync "github.com/neekrasov/typedkv/pkg/sync"
)

func parseQuery(t *testing.T, query string) []compute.Statement {
	t.Helper()

	statements, err := compute.ParseQuery(query)
	require.NoError(t, err)
	return statements
}

func TestExecutor(t *testing.T) {
	t.Parallel()
	logger.MockLogger()

	queue := make(chan workers.ExecJob, 8)
	startShutdown := new(atomic.Bool)
	interpreter := database.NewInterpreter(storage.NewEngine())

	executor := workers.NewExecutor(interpreter, queue, startShutdown, 50*time.Millisecond)
	executor.Start()
	defer executor.Stop()

	submit := func(query string, level auth.Level) *pkgsync.Future[database.Result] {
		reply := pkgsync.NewFuture[database.Result]()
		queue <- workers.ExecJob{
			Request: database.Request{Statements: parseQuery(t, query), Authorization: level},
			Reply:   reply,
		}
		return reply
	}

	t.Run("executes and replies", func(t *testing.T) {
		result, ok := submit("set x 1; get x", auth.LevelAdmin).GetTimeout(2 * time.Second)
		require.True(t, ok)
		require.NoError(t, result.Err)
		assert.Equal(t, database.ValueResponse(types.Int(1)), result.Response)
	})

	t.Run("jobs without a reply slot still run", func(t *testing.T) {
		queue <- workers.ExecJob{
			Request: database.Request{
				Statements:    []compute.Statement{{Kind: compute.StatementExpireKeys}},
				Authorization: auth.LevelAdmin,
			},
		}

		result, ok := submit("get x", auth.LevelAdmin).GetTimeout(2 * time.Second)
		require.True(t, ok)
		require.NoError(t, result.Err)
	})

	t.Run("shutdown flips the flag and keeps draining", func(t *testing.T) {
		result, ok := submit("shutdown", auth.LevelAdmin).GetTimeout(2 * time.Second)
		require.True(t, ok)
		require.NoError(t, result.Err)
		assert.Equal(t, database.ShuttingDownResponse(), result.Response)

		assert.Eventually(t, startShutdown.Load, 2*time.Second, 10*time.Millisecond)

		result, ok = submit("get x", auth.LevelAdmin).GetTimeout(2 * time.Second)
		require.True(t, ok)
		require.NoError(t, result.Err)
		assert.Equal(t, database.ValueResponse(types.Int(1)), result.Response)
	})
}

func TestExpirationWorker(t *testing.T) {
	t.Parallel()
	logger.MockLogger()

	queue := make(chan workers.ExecJob, 16)
	worker := workers.NewExpirationWorker(
		queue, 50*time.Millisecond, 3, 20*time.Millisecond, 100*time.Millisecond)
	worker.Start()
	defer worker.Stop()

	deadline := time.After(2 * time.Second)
	received := 0
	for received < 3 {
		select {
		case job := <-queue:
			assert.Nil(t, job.Reply)
			assert.Equal(t, auth.LevelAdmin, job.Request.Authorization)
			require.Len(t, job.Request.Statements, 1)
			assert.Equal(t, compute.StatementExpireKeys, job.Request.Statements[0].Kind)
			received++
		case <-deadline:
			t.Fatalf("expected 3 expiration submissions, got %d", received)
		}
	}
}
