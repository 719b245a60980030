package routing

import "github.com/ricplt/sdlgo/internal/reactor"

// dummyHandler is the no-op sink every call on a namespace whose policy
// disables the database backend is routed to: every operation completes
// successfully on the next reactor tick, with an empty result for reads.
// Mirrors AsyncDummyStorage in the original.
type dummyHandler struct {
	engine reactor.Engine
}

func newDummyHandler(engine reactor.Engine) *dummyHandler {
	return &dummyHandler{engine: engine}
}

func (d *dummyHandler) post(fn func()) {
	d.engine.PostCallback(fn)
}

func (d *dummyHandler) WaitReadyAsync(_ string, cb func(error)) {
	d.post(func() { cb(nil) })
}

func (d *dummyHandler) SetAsync(_ string, _ map[string][]byte, cb func(error)) {
	d.post(func() { cb(nil) })
}

func (d *dummyHandler) SetIfAsync(_, _ string, _, _ []byte, cb func(matched bool, err error)) {
	d.post(func() { cb(false, nil) })
}

// SetIfNotExistsAsync always reports created=true: the dummy sink never
// retains a previous value for any key, so the "not exists" precondition
// always holds and the write nominally succeeds. This is consistent with
// SetIfAsync/RemoveIfAsync always reporting matched=false below — nothing
// the dummy sink holds ever compares equal to a caller-supplied oldData.
func (d *dummyHandler) SetIfNotExistsAsync(_, _ string, _ []byte, cb func(created bool, err error)) {
	d.post(func() { cb(true, nil) })
}

func (d *dummyHandler) GetAsync(_ string, _ []string, cb func(map[string][]byte, error)) {
	d.post(func() { cb(map[string][]byte{}, nil) })
}

func (d *dummyHandler) RemoveAsync(_ string, _ []string, cb func(error)) {
	d.post(func() { cb(nil) })
}

func (d *dummyHandler) RemoveIfAsync(_, _ string, _ []byte, cb func(matched bool, err error)) {
	d.post(func() { cb(false, nil) })
}

func (d *dummyHandler) FindKeysAsync(_, _ string, cb func([]string, error)) {
	d.post(func() { cb([]string{}, nil) })
}

func (d *dummyHandler) RemoveAllAsync(_ string, cb func(error)) {
	d.post(func() { cb(nil) })
}
