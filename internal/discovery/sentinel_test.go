package discovery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricplt/sdlgo/internal/hostport"
	"github.com/ricplt/sdlgo/internal/telemetry/metrics"
)

type fakeSentinelClient struct {
	mu      sync.Mutex
	results []fakeSentinelResult
	calls   int
}

type fakeSentinelResult struct {
	hosts []string
	err   error
}

func (f *fakeSentinelClient) GetMasterAddrByName(_ context.Context, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	f.calls++
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	r := f.results[idx]
	return r.hosts, r.err
}

func drainUntil(t *testing.T, engine interface{ HandleEvents() error }, timeout time.Duration, cond func() bool) {
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

func TestSentinel_SuccessfulInquiryForwardsMasterAddr(t *testing.T) {
	engine := newTestReactorEngine(t)
	client := &fakeSentinelClient{results: []fakeSentinelResult{{hosts: []string{"master1", "6400"}}}}
	s := newSentinel(engine, client, DefaultSentinelMasterName, 50*time.Millisecond, metrics.NewMetrics())

	var got Info
	s.SetStateChangedCb(func(info Info) { got = info })

	drainUntil(t, engine, 2*time.Second, func() bool { return got.Discovery == MethodSentinel })

	require.Len(t, got.Hosts, 1)
	assert.Equal(t, hostport.New("master1", 6400), got.Hosts[0])
	assert.Equal(t, TypeSingle, got.Type)
}

func TestSentinel_TransportErrorRetries(t *testing.T) {
	engine := newTestReactorEngine(t)
	client := &fakeSentinelClient{results: []fakeSentinelResult{
		{err: errors.New("connection refused")},
		{hosts: []string{"master1", "6400"}},
	}}
	s := newSentinel(engine, client, DefaultSentinelMasterName, 10*time.Millisecond, metrics.NewMetrics())

	var got Info
	s.SetStateChangedCb(func(info Info) { got = info })

	drainUntil(t, engine, 2*time.Second, func() bool { return got.Discovery == MethodSentinel })
	assert.Equal(t, hostport.New("master1", 6400), got.Hosts[0])
}

type fakeRetryMetrics struct {
	retries []string
}

func (f *fakeRetryMetrics) ObserveOperation(string, time.Duration, error) {}
func (f *fakeRetryMetrics) ObserveDiscoveryEvent(string)                  {}
func (f *fakeRetryMetrics) SetBackendReady(string, bool)                 {}
func (f *fakeRetryMetrics) IncRetry(component string) {
	f.retries = append(f.retries, component)
}

func TestSentinel_TransportErrorRecordsRetryMetric(t *testing.T) {
	engine := newTestReactorEngine(t)
	client := &fakeSentinelClient{results: []fakeSentinelResult{
		{err: errors.New("connection refused")},
		{hosts: []string{"master1", "6400"}},
	}}
	fm := &fakeRetryMetrics{}
	s := newSentinel(engine, client, DefaultSentinelMasterName, 10*time.Millisecond, fm)

	var got Info
	s.SetStateChangedCb(func(info Info) { got = info })

	drainUntil(t, engine, 2*time.Second, func() bool { return got.Discovery == MethodSentinel })
	assert.Equal(t, []string{retryMetricsComponent}, fm.retries)
}

func TestSentinel_MalformedReplyAborts(t *testing.T) {
	engine := newTestReactorEngine(t)
	client := &fakeSentinelClient{results: []fakeSentinelResult{{hosts: []string{"onlyhost"}}}}
	s := newSentinel(engine, client, DefaultSentinelMasterName, 10*time.Millisecond, metrics.NewMetrics())

	var abortMsg string
	orig := FatalFunc
	FatalFunc = func(msg string) { abortMsg = msg }
	defer func() { FatalFunc = orig }()

	s.SetStateChangedCb(func(Info) {})

	drainUntil(t, engine, 2*time.Second, func() bool { return abortMsg != "" })
	assert.NotEmpty(t, abortMsg)
}

func TestSentinel_MalformedPortAborts(t *testing.T) {
	engine := newTestReactorEngine(t)
	client := &fakeSentinelClient{results: []fakeSentinelResult{{hosts: []string{"host", "not-a-port"}}}}
	s := newSentinel(engine, client, DefaultSentinelMasterName, 10*time.Millisecond, metrics.NewMetrics())

	var abortMsg string
	orig := FatalFunc
	FatalFunc = func(msg string) { abortMsg = msg }
	defer func() { FatalFunc = orig }()

	s.SetStateChangedCb(func(Info) {})

	drainUntil(t, engine, 2*time.Second, func() bool { return abortMsg != "" })
	assert.NotEmpty(t, abortMsg)
}
