package discovery

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ricplt/sdlgo/internal/hostport"
	"github.com/ricplt/sdlgo/internal/reactor"
	logger "github.com/ricplt/sdlgo/internal/telemetry/log"
	"github.com/ricplt/sdlgo/internal/telemetry/metrics"
)

// retryMetricsComponent labels IncRetry calls from this discovery variant.
const retryMetricsComponent = "sentinel_discovery"

// Discovery defaults, embedded per the original configuration.
const (
	DefaultSentinelHost       = "dbaas-ha"
	DefaultSentinelMasterName = "mymaster"
)

// DefaultSentinelRetryInterval is how long Sentinel waits after a transport
// error before reissuing the master inquiry.
const DefaultSentinelRetryInterval = time.Second

// sentinelClient is the subset of *redis.SentinelClient Sentinel depends
// on, narrowed for testability.
type sentinelClient interface {
	GetMasterAddrByName(ctx context.Context, masterName string) ([]string, error)
}

type goRedisSentinelClient struct {
	client *redis.SentinelClient
}

func (c *goRedisSentinelClient) GetMasterAddrByName(ctx context.Context, masterName string) ([]string, error) {
	return c.client.GetMasterAddrByName(ctx, masterName).Result()
}

// Sentinel is discovery variant C: it queries a fixed Redis Sentinel
// endpoint for the current master address and forwards it as a
// single-endpoint DatabaseInfo, retrying every DefaultSentinelRetryInterval
// on transport failure.
type Sentinel struct {
	engine        reactor.Engine
	client        sentinelClient
	masterName    string
	retryInterval time.Duration
	retryTimer    *reactor.Timer
	metrics       metrics.Metrics

	cb StateChangedCb
}

// NewSentinel builds a Sentinel discovery variant against the Sentinel
// endpoint addr, querying for masterName. m is called unguarded, so it must
// not be a bare nil interface; the disabled value metrics.NewMetrics returns
// (a typed nil) is accepted.
func NewSentinel(engine reactor.Engine, addr hostport.HostPort, masterName string, m metrics.Metrics) *Sentinel {
	rc := redis.NewSentinelClient(&redis.Options{Addr: addr.String()})
	return newSentinel(engine, &goRedisSentinelClient{client: rc}, masterName, DefaultSentinelRetryInterval, m)
}

func newSentinel(engine reactor.Engine, client sentinelClient, masterName string, retryInterval time.Duration, m metrics.Metrics) *Sentinel {
	s := &Sentinel{
		engine:        engine,
		client:        client,
		masterName:    masterName,
		retryInterval: retryInterval,
		metrics:       m,
	}
	s.retryTimer = reactor.NewTimer(engine)
	return s
}

// SetStateChangedCb implements Discovery. It immediately issues the first
// master inquiry.
func (s *Sentinel) SetStateChangedCb(cb StateChangedCb) {
	s.cb = cb
	s.sendMasterInquiry()
}

// ClearStateChangedCb implements Discovery.
func (s *Sentinel) ClearStateChangedCb() {
	s.cb = nil
	s.retryTimer.Disarm()
}

func (s *Sentinel) sendMasterInquiry() {
	go func() {
		hosts, err := s.client.GetMasterAddrByName(context.Background(), s.masterName)
		s.engine.PostCallback(func() {
			s.masterInquiryAck(hosts, err)
		})
	}()
}

func (s *Sentinel) masterInquiryAck(hosts []string, err error) {
	if err != nil {
		logger.Debug("discovery: sentinel master inquiry transport error, retrying", logger.Err(err))
		s.metrics.IncRetry(retryMetricsComponent)
		s.retryTimer.Arm(s.retryInterval, s.sendMasterInquiry)
		return
	}

	hp, ok := parseMasterInquiryReply(hosts)
	if !ok {
		msg := fmt.Sprintf("discovery: malformed sentinel master inquiry reply: %v", hosts)
		logger.Error(msg)
		abortFatal(msg)
		return
	}

	info := Info{Hosts: []hostport.HostPort{hp}, Type: TypeSingle, Discovery: MethodSentinel}
	if s.cb != nil {
		s.cb(info)
	}
}

// parseMasterInquiryReply validates the [host, port] shape the original
// reply parser enforces: exactly two elements, the second parseable as a
// port number.
func parseMasterInquiryReply(hosts []string) (hostport.HostPort, bool) {
	if len(hosts) != 2 {
		return hostport.HostPort{}, false
	}
	port, err := strconv.ParseUint(hosts[1], 10, 16)
	if err != nil {
		return hostport.HostPort{}, false
	}
	return hostport.New(hosts[0], uint16(port)), true
}
