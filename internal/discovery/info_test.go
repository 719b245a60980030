package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ricplt/sdlgo/internal/hostport"
)

func TestInfo_Equal(t *testing.T) {
	a := Info{
		Hosts:     []hostport.HostPort{hostport.New("h1", 6379)},
		Type:      TypeSingle,
		Namespace: "ns",
		Discovery: MethodStatic,
	}
	b := a
	assert.True(t, a.Equal(b))

	c := a
	c.Type = TypeCluster
	assert.False(t, a.Equal(c))

	d := a
	d.Hosts = []hostport.HostPort{hostport.New("h2", 6379)}
	assert.False(t, a.Equal(d))

	e := a
	e.Hosts = append([]hostport.HostPort{}, a.Hosts...)
	e.Hosts = append(e.Hosts, hostport.New("h3", 6379))
	assert.False(t, a.Equal(e))
}
