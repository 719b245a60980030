package sdl

import (
	"github.com/redis/go-redis/v9"

	"github.com/ricplt/sdlgo/internal/backend"
	"github.com/ricplt/sdlgo/internal/config"
	"github.com/ricplt/sdlgo/internal/discovery"
	"github.com/ricplt/sdlgo/internal/dispatcher"
	"github.com/ricplt/sdlgo/internal/hostport"
	"github.com/ricplt/sdlgo/internal/reactor"
	"github.com/ricplt/sdlgo/internal/routing"
	"github.com/ricplt/sdlgo/internal/telemetry/metrics"
)

// New reads configuration from the environment and the default
// configuration directories (config.DefaultConfDirectories) and returns a
// fully wired blocking SyncStorage.
func New() (*SyncStorage, error) {
	async, err := NewAsync()
	if err != nil {
		return nil, err
	}
	return NewSyncStorage(async), nil
}

// NewAsync is New, returning the non-blocking AsyncStorage surface for
// callers that integrate SDL into their own reactor loop via Fd/HandleEvents.
func NewAsync() (AsyncStorage, error) {
	return NewAsyncWithDirectories(config.DefaultConfDirectories)
}

// NewAsyncWithDirectories is NewAsync with an explicit configuration
// directory list, a seam for tests and for callers with a non-standard
// install layout.
func NewAsyncWithDirectories(dirs []string) (AsyncStorage, error) {
	reader, err := config.NewReader(dirs)
	if err != nil {
		return nil, err
	}

	dbConfig := config.NewDatabaseConfiguration()
	if err := reader.ReadDatabaseConfiguration(dbConfig); err != nil {
		return nil, err
	}
	nsConfigs := config.NewNamespaceConfigurations()
	if err := reader.ReadNamespaceConfigurations(nsConfigs); err != nil {
		return nil, err
	}

	engine, err := reactor.NewPollEngine()
	if err != nil {
		return nil, err
	}

	m := metrics.NewMetrics()

	storage := routing.New(engine, nsConfigs, m, func() routing.RealHandler {
		return newRealHandler(engine, dbConfig, m)
	})

	return newAsync(storage), nil
}

// NewAsyncWithExternalDiscovery builds the same wiring as NewAsyncWithDirectories
// but routes backend discovery through the RCP variant against handle,
// instead of deriving it from dbConfig's topology. Use this when the
// deployment has an out-of-band service-discovery system rather than a
// static or sentinel-managed backend.
func NewAsyncWithExternalDiscovery(dirs []string, handle discovery.ExternalHandle) (AsyncStorage, error) {
	reader, err := config.NewReader(dirs)
	if err != nil {
		return nil, err
	}

	dbConfig := config.NewDatabaseConfiguration()
	if err := reader.ReadDatabaseConfiguration(dbConfig); err != nil {
		return nil, err
	}
	nsConfigs := config.NewNamespaceConfigurations()
	if err := reader.ReadNamespaceConfigurations(nsConfigs); err != nil {
		return nil, err
	}

	engine, err := reactor.NewPollEngine()
	if err != nil {
		return nil, err
	}

	m := metrics.NewMetrics()

	storage := routing.New(engine, nsConfigs, m, func() routing.RealHandler {
		disc := discovery.NewRCP(engine, handle, "")
		client := newRedisClientForConfig(dbConfig)
		d := dispatcher.New(engine, client)
		return backend.New(d, disc, m)
	})

	return newAsync(storage), nil
}

// newRealHandler builds the real backend handler on first routed call,
// wiring the discovery variant and dispatcher chosen by dbConfig's topology.
func newRealHandler(engine reactor.Engine, dbConfig *config.DatabaseConfiguration, m metrics.Metrics) *backend.Handler {
	disc := newDiscoveryForConfig(engine, dbConfig, m)
	client := newRedisClientForConfig(dbConfig)
	d := dispatcher.New(engine, client)
	return backend.New(d, disc, m)
}

// newDiscoveryForConfig selects the discovery variant implied by dbConfig's
// topology: sentinel-based types probe a sentinel for the live master,
// everything else reports the configured (or default) address list once.
//
// The RCP variant has no configuration-derived trigger: it is wired only
// when a caller supplies its own discovery.ExternalHandle directly, since
// that handle is an out-of-band collaborator this factory has no way to
// construct from JSON/env configuration alone.
func newDiscoveryForConfig(engine reactor.Engine, dbConfig *config.DatabaseConfiguration, m metrics.Metrics) discovery.Discovery {
	switch dbConfig.DbType() {
	case config.DbTypeRedisSentinel, config.DbTypeSdlSentinelCluster:
		sentinelAddr, ok := dbConfig.SentinelAddress()
		if !ok {
			sentinelAddr = hostport.New(discovery.DefaultSentinelHost, hostport.DefaultSentinelPort)
		}
		masterName := dbConfig.SentinelMasterName()
		if masterName == "" {
			masterName = discovery.DefaultSentinelMasterName
		}
		return discovery.NewSentinel(engine, sentinelAddr, masterName, m)
	default:
		isCluster := dbConfig.DbType() == config.DbTypeRedisCluster
		return discovery.NewStatic(engine, dbConfig.ServerAddresses(), isCluster, "")
	}
}

// newRedisClientForConfig builds the go-redis client matching dbConfig's
// topology. This is the "command dispatcher" collaborator spec.md treats as
// external; go-redis's redis.UniversalClient fills that role.
func newRedisClientForConfig(dbConfig *config.DatabaseConfiguration) redis.UniversalClient {
	addrs := dbConfig.ServerAddresses()
	if len(addrs) == 0 {
		addrs = dbConfig.DefaultServerAddresses()
	}
	addrStrings := make([]string, len(addrs))
	for i, a := range addrs {
		addrStrings[i] = a.String()
	}

	switch dbConfig.DbType() {
	case config.DbTypeRedisCluster, config.DbTypeSdlStandaloneCluster:
		return redis.NewClusterClient(&redis.ClusterOptions{Addrs: addrStrings})
	case config.DbTypeRedisSentinel, config.DbTypeSdlSentinelCluster:
		sentinelAddr, _ := dbConfig.SentinelAddress()
		return redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:    dbConfig.SentinelMasterName(),
			SentinelAddrs: []string{sentinelAddr.String()},
		})
	default:
		return redis.NewClient(&redis.Options{Addr: addrStrings[0]})
	}
}
