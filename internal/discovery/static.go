package discovery

import (
	"github.com/ricplt/sdlgo/internal/hostport"
	"github.com/ricplt/sdlgo/internal/reactor"
)

// Static is discovery variant A: it reports one fixed endpoint set, built
// once from configuration, and never changes afterward. If the caller
// configured no server addresses it substitutes the default
// localhost:6379 endpoint.
type Static struct {
	engine    reactor.Engine
	addresses []hostport.HostPort
	isCluster bool
	namespace string

	cb StateChangedCb
}

// NewStatic builds a Static discovery variant. addresses may be empty, in
// which case the default address is substituted when the state-change
// callback fires.
func NewStatic(engine reactor.Engine, addresses []hostport.HostPort, isCluster bool, namespace string) *Static {
	return &Static{engine: engine, addresses: addresses, isCluster: isCluster, namespace: namespace}
}

// SetStateChangedCb implements Discovery. It posts the configured
// DatabaseInfo as a deferred callback rather than calling cb inline, so the
// caller's construction code never has to handle reentrant callbacks.
func (s *Static) SetStateChangedCb(cb StateChangedCb) {
	s.cb = cb

	addrs := s.addresses
	if len(addrs) == 0 {
		addrs = []hostport.HostPort{hostport.New("localhost", hostport.DefaultPort)}
	}
	typ := TypeSingle
	if s.isCluster {
		typ = TypeCluster
	}
	info := Info{Hosts: addrs, Type: typ, Namespace: s.namespace, Discovery: MethodStatic}

	s.engine.PostCallback(func() {
		if s.cb != nil {
			s.cb(info)
		}
	})
}

// ClearStateChangedCb implements Discovery.
func (s *Static) ClearStateChangedCb() {
	s.cb = nil
}
