// Package discovery implements the three database-discovery variants SDL
// supports — static, external service-discovery (RCP) and Redis Sentinel —
// behind one StateChangedCb contract, mirroring the original
// AsyncDatabaseDiscovery family.
package discovery

import (
	"github.com/ricplt/sdlgo/internal/hostport"
)

// Type is the Redis topology a DatabaseInfo describes.
type Type int

const (
	TypeSingle Type = iota
	TypeCluster
	TypeRedundant
)

func (t Type) String() string {
	switch t {
	case TypeCluster:
		return "cluster"
	case TypeRedundant:
		return "redundant"
	default:
		return "single"
	}
}

// Method identifies which discovery variant produced a DatabaseInfo.
type Method int

const (
	MethodStatic Method = iota
	MethodRCP
	MethodSentinel
)

func (m Method) String() string {
	switch m {
	case MethodRCP:
		return "rcp"
	case MethodSentinel:
		return "sentinel"
	default:
		return "static"
	}
}

// Info is a snapshot of which endpoints, of what topology, are currently
// live. Equality is componentwise, used by the RCP variant to suppress
// redundant notifications.
type Info struct {
	Hosts     []hostport.HostPort
	Type      Type
	Namespace string // empty when not namespace-scoped
	Discovery Method
}

// Equal reports whether info and other describe the same endpoint set,
// topology, namespace scope and discovery method.
func (info Info) Equal(other Info) bool {
	if info.Type != other.Type || info.Namespace != other.Namespace || info.Discovery != other.Discovery {
		return false
	}
	if len(info.Hosts) != len(other.Hosts) {
		return false
	}
	for i := range info.Hosts {
		if info.Hosts[i] != other.Hosts[i] {
			return false
		}
	}
	return true
}

// StateChangedCb is invoked whenever a discovery variant believes the
// active endpoint set may have changed. It always runs from reactor
// context (never concurrently with another callback on the same engine).
type StateChangedCb func(Info)

// Discovery is the contract every variant implements.
type Discovery interface {
	SetStateChangedCb(cb StateChangedCb)
	ClearStateChangedCb()
}
