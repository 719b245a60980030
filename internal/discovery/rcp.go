package discovery

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ricplt/sdlgo/internal/hostport"
	"github.com/ricplt/sdlgo/internal/reactor"
	logger "github.com/ricplt/sdlgo/internal/telemetry/log"
)

// SessionType is the session-type code an ExternalHandle reports, as
// delivered by the external service-discovery system.
type SessionType int

const (
	SessionType2N      SessionType = iota // redundant pair
	SessionTypeCluster                    // clustered deployment
)

// ExternalInfo is the raw discovery result an ExternalHandle produces. Its
// Hosts entries are "host:port" strings in whatever order the external
// system reports them.
type ExternalInfo struct {
	SessionType SessionType
	Hosts       []string
}

// ExternalHandle is the RCP variant's external service-discovery
// collaborator: a readiness-driven source of ExternalInfo. No concrete
// network implementation ships in this library (out of scope); production
// callers supply one, and tests use a fake.
type ExternalHandle interface {
	Fd() int
	Dispatch() (ExternalInfo, error)
}

var sessionTypeToType = map[SessionType]Type{
	SessionType2N:      TypeRedundant,
	SessionTypeCluster: TypeCluster,
}

// RCP is discovery variant B: it watches an ExternalHandle's fd for
// readiness, dispatches it on every event, and forwards a translated
// DatabaseInfo unless the de-dup rule suppresses it.
type RCP struct {
	engine    reactor.Engine
	handle    ExternalHandle
	namespace string

	current    Info
	hasCurrent bool

	cb StateChangedCb
}

// NewRCP builds an RCP discovery variant and registers the handle's fd with
// engine for read-readiness.
func NewRCP(engine reactor.Engine, handle ExternalHandle, namespace string) *RCP {
	r := &RCP{engine: engine, handle: handle, namespace: namespace}
	_ = engine.AddMonitoredFD(handle.Fd(), reactor.EventRead, func(int) {
		r.eventHandler()
	})
	return r
}

// Close unregisters the handle's fd. Call when the RCP discovery is torn
// down.
func (r *RCP) Close() {
	_ = r.engine.DeleteMonitoredFD(r.handle.Fd())
}

// SetStateChangedCb implements Discovery.
func (r *RCP) SetStateChangedCb(cb StateChangedCb) {
	r.cb = cb
}

// ClearStateChangedCb implements Discovery.
func (r *RCP) ClearStateChangedCb() {
	r.cb = nil
}

func (r *RCP) eventHandler() {
	extInfo, err := r.handle.Dispatch()
	if err != nil {
		logger.Warn("discovery: rcp handle dispatch failed", logger.Err(err))
		return
	}

	typ, ok := sessionTypeToType[extInfo.SessionType]
	if !ok {
		msg := fmt.Sprintf("discovery: unknown database session type received: %d", extInfo.SessionType)
		logger.Error(msg)
		abortFatal(msg)
		return
	}

	hosts := make([]hostport.HostPort, 0, len(extInfo.Hosts))
	for _, h := range extInfo.Hosts {
		hp, err := parseExternalHost(h)
		if err != nil {
			msg := fmt.Sprintf("discovery: malformed rcp host %q: %v", h, err)
			logger.Error(msg)
			abortFatal(msg)
			return
		}
		hosts = append(hosts, hp)
	}

	newInfo := Info{Hosts: hosts, Type: typ, Namespace: r.namespace, Discovery: MethodRCP}

	// Cluster events are always forwarded: clustered dispatchers are
	// non-self-healing and must be recreated on every event even when the
	// endpoint set looks unchanged.
	if typ != TypeCluster && r.hasCurrent && newInfo.Equal(r.current) {
		logger.Debug("discovery: rcp state-change received but database info did not change")
	} else if r.cb != nil {
		r.cb(newInfo)
	}

	r.current = newInfo
	r.hasCurrent = true
}

func parseExternalHost(s string) (hostport.HostPort, error) {
	host, portStr, found := strings.Cut(s, ":")
	if !found {
		return hostport.HostPort{}, fmt.Errorf("missing port")
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return hostport.HostPort{}, fmt.Errorf("invalid port: %w", err)
	}
	return hostport.New(host, uint16(port)), nil
}
