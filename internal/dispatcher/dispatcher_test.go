package dispatcher

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricplt/sdlgo/internal/reactor"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *reactor.PollEngine, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	engine, err := reactor.NewPollEngine()
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(engine, client), engine, srv
}

func drainUntil(t *testing.T, engine *reactor.PollEngine, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		require.NoError(t, engine.HandleEvents())
	}
	t.Fatal("condition not met before timeout")
}

func TestDispatcher_WaitConnectedAsyncSucceeds(t *testing.T) {
	d, engine, _ := newTestDispatcher(t)

	var called bool
	var gotErr error
	d.WaitConnectedAsync(func(err error) { called = true; gotErr = err })

	drainUntil(t, engine, time.Second, func() bool { return called })
	assert.NoError(t, gotErr)
}

func TestDispatcher_DispatchAsyncRunsOffReactorGoroutine(t *testing.T) {
	d, engine, _ := newTestDispatcher(t)

	var reply interface{}
	var gotErr error
	done := false
	d.DispatchAsync(func(ctx context.Context, client redis.UniversalClient) (interface{}, error) {
		return client.Set(ctx, "k", "v", 0).Result()
	}, func(r interface{}, err error) {
		reply, gotErr = r, err
		done = true
	})

	drainUntil(t, engine, time.Second, func() bool { return done })
	require.NoError(t, gotErr)
	assert.Equal(t, "OK", reply)
}

func TestDispatcher_DispatchAsyncPreservesSubmissionOrder(t *testing.T) {
	d, engine, _ := newTestDispatcher(t)

	var order []string
	done := 0

	d.DispatchAsync(func(ctx context.Context, client redis.UniversalClient) (interface{}, error) {
		time.Sleep(20 * time.Millisecond)
		return client.Set(ctx, "k", "first", 0).Result()
	}, func(r interface{}, err error) {
		order = append(order, "first")
		done++
	})
	d.DispatchAsync(func(ctx context.Context, client redis.UniversalClient) (interface{}, error) {
		return client.Set(ctx, "k", "second", 0).Result()
	}, func(r interface{}, err error) {
		order = append(order, "second")
		done++
	})

	drainUntil(t, engine, time.Second, func() bool { return done == 2 })
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestDispatcher_WaitConnectedAsyncReportsConnectionLost(t *testing.T) {
	engine, err := reactor.NewPollEngine()
	require.NoError(t, err)
	defer engine.Close()

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond})
	defer client.Close()
	d := New(engine, client)

	var gotErr error
	done := false
	d.WaitConnectedAsync(func(err error) { gotErr = err; done = true })

	drainUntil(t, engine, 2*time.Second, func() bool { return done })
	require.Error(t, gotErr)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, Success, Classify(nil))
	assert.Equal(t, ConnectionLost, Classify(io.ErrUnexpectedEOF))
	assert.Equal(t, UnknownError, Classify(errors.New("some opaque failure")))
}
