package dispatcher

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ErrorCode is the dispatcher-category error classification from spec.md
// §4.6: the set of failures a command dispatcher can report for a single
// operation, independent of any storage-level meaning layered on top.
type ErrorCode int

const (
	// Success indicates the dispatched command completed normally.
	Success ErrorCode = iota
	// UnknownError is any failure that does not fit a more specific code.
	UnknownError
	// ConnectionLost indicates the transport dropped mid-operation.
	ConnectionLost
	// ProtocolError indicates the backend returned a reply the client
	// could not parse according to the expected shape.
	ProtocolError
	// OutOfMemory indicates the backend rejected the command for memory
	// pressure (e.g. Redis OOM command not allowed).
	OutOfMemory
	// DatasetLoading indicates the backend is still loading its dataset
	// and cannot serve commands yet.
	DatasetLoading
	// NotConnected indicates no connection to the backend currently
	// exists.
	NotConnected
	// IOError is a low-level I/O failure (read/write/timeout) on an
	// otherwise established connection.
	IOError
)

// Classify maps a go-redis error into a dispatcher ErrorCode. A nil error
// classifies as Success.
func Classify(err error) ErrorCode {
	if err == nil {
		return Success
	}
	switch {
	case errors.Is(err, redis.ErrClosed):
		return NotConnected
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return IOError
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return ConnectionLost
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return IOError
		}
		return ConnectionLost
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "LOADING"):
		return DatasetLoading
	case strings.Contains(msg, "OOM"):
		return OutOfMemory
	case strings.Contains(msg, "wrong number of args"), strings.Contains(msg, "unknown command"), strings.Contains(msg, "WRONGTYPE"):
		return ProtocolError
	}

	return UnknownError
}
