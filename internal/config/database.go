package config

import (
	"fmt"

	"github.com/ricplt/sdlgo/internal/hostport"
)

// DbType identifies which Redis topology the configured database uses.
type DbType int

const (
	DbTypeUnknown DbType = iota
	DbTypeRedisStandalone
	DbTypeRedisCluster
	DbTypeRedisSentinel
	DbTypeSdlStandaloneCluster
	DbTypeSdlSentinelCluster
)

func (t DbType) String() string {
	switch t {
	case DbTypeRedisStandalone:
		return "redis-standalone"
	case DbTypeRedisCluster:
		return "redis-cluster"
	case DbTypeRedisSentinel:
		return "redis-sentinel"
	case DbTypeSdlStandaloneCluster:
		return "sdl-standalone-cluster"
	case DbTypeSdlSentinelCluster:
		return "sdl-sentinel-cluster"
	default:
		return "unknown"
	}
}

var dbTypeByName = map[string]DbType{
	"redis-standalone":       DbTypeRedisStandalone,
	"redis-cluster":          DbTypeRedisCluster,
	"redis-sentinel":         DbTypeRedisSentinel,
	"sdl-standalone-cluster": DbTypeSdlStandaloneCluster,
	"sdl-sentinel-cluster":   DbTypeSdlSentinelCluster,
}

// DatabaseConfiguration accumulates the "database" block of the SDL
// configuration: the backend topology, the server address list, and the
// sentinel address/master name when the topology is sentinel-based.
//
// It is a write-once container: populating an already non-empty
// DatabaseConfiguration is a programming error (see Reader.ReadDatabaseConfiguration).
type DatabaseConfiguration struct {
	dbType             DbType
	serverAddresses    []hostport.HostPort
	sentinelAddress    hostport.HostPort
	sentinelAddressSet bool
	sentinelMasterName string
}

// NewDatabaseConfiguration returns an empty DatabaseConfiguration.
func NewDatabaseConfiguration() *DatabaseConfiguration {
	return &DatabaseConfiguration{}
}

// CheckAndApplyDbType validates typ against the known topology names and, if
// valid, sets the configuration's DbType.
func (c *DatabaseConfiguration) CheckAndApplyDbType(source, typ string) error {
	t, ok := dbTypeByName[typ]
	if !ok {
		return NewInvalidDbTypeError(source, typ)
	}
	c.dbType = t
	return nil
}

// CheckAndApplyServerAddress parses address and appends it to the server
// address list, defaulting to the standard Redis port when address carries
// none.
func (c *DatabaseConfiguration) CheckAndApplyServerAddress(source, address string) error {
	hp, err := hostport.Parse(address, hostport.DefaultPort)
	if err != nil {
		return NewInvalidAddressError(source, address, err)
	}
	c.serverAddresses = append(c.serverAddresses, hp)
	return nil
}

// CheckAndApplySentinelAddress parses address as the sentinel endpoint,
// defaulting to the standard sentinel port when address carries none.
func (c *DatabaseConfiguration) CheckAndApplySentinelAddress(source, address string) error {
	hp, err := hostport.Parse(address, hostport.DefaultSentinelPort)
	if err != nil {
		return NewInvalidAddressError(source, address, err)
	}
	c.sentinelAddress = hp
	c.sentinelAddressSet = true
	return nil
}

// CheckAndApplySentinelMasterName sets the sentinel master group name.
func (c *DatabaseConfiguration) CheckAndApplySentinelMasterName(name string) {
	c.sentinelMasterName = name
}

// DbType returns the configured topology.
func (c *DatabaseConfiguration) DbType() DbType {
	return c.dbType
}

// IsEmpty reports whether no server address has been applied yet.
func (c *DatabaseConfiguration) IsEmpty() bool {
	return len(c.serverAddresses) == 0
}

// ServerAddresses returns every configured server address.
func (c *DatabaseConfiguration) ServerAddresses() []hostport.HostPort {
	out := make([]hostport.HostPort, len(c.serverAddresses))
	copy(out, c.serverAddresses)
	return out
}

// ServerAddress returns the server address at index, or an error if index is
// out of range.
func (c *DatabaseConfiguration) ServerAddress(index int) (hostport.HostPort, error) {
	if index < 0 || index >= len(c.serverAddresses) {
		return hostport.HostPort{}, fmt.Errorf("config: server address index %d out of range (have %d)", index, len(c.serverAddresses))
	}
	return c.serverAddresses[index], nil
}

// DefaultServerAddresses returns the address SDL falls back to when no
// configuration has been applied: localhost on the standard Redis port.
func (c *DatabaseConfiguration) DefaultServerAddresses() []hostport.HostPort {
	return []hostport.HostPort{hostport.New("localhost", hostport.DefaultPort)}
}

// SentinelAddress returns the configured sentinel address and whether one
// has been set at all.
func (c *DatabaseConfiguration) SentinelAddress() (hostport.HostPort, bool) {
	return c.sentinelAddress, c.sentinelAddressSet
}

// GetSentinelAddress returns a sentinel address built from the server
// address at addressIndex combined with the configured sentinel port.
//
// This composes its host from ServerAddresses()[addressIndex] but its port
// from the single configured sentinel address — not from the sentinel
// address at the same index, and not entirely from either source alone.
// This is preserved verbatim from the original implementation; see
// DESIGN.md's Open Question for discussion of whether this is intentional
// (sentinels colocated with servers on a fixed sentinel port) or a latent
// mixup. It is flagged here, not corrected.
func (c *DatabaseConfiguration) GetSentinelAddress(addressIndex int) (hostport.HostPort, bool, error) {
	if !c.sentinelAddressSet {
		return hostport.HostPort{}, false, nil
	}
	if addressIndex < 0 || addressIndex >= len(c.serverAddresses) {
		return hostport.HostPort{}, false, fmt.Errorf("config: server address index %d out of range (have %d)", addressIndex, len(c.serverAddresses))
	}
	return hostport.New(c.serverAddresses[addressIndex].Host, c.sentinelAddress.Port), true, nil
}

// SentinelMasterName returns the configured sentinel master group name.
func (c *DatabaseConfiguration) SentinelMasterName() string {
	return c.sentinelMasterName
}
