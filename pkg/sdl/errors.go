package sdl

import (
	"errors"
	"fmt"

	"github.com/ricplt/sdlgo/internal/backend"
	"github.com/ricplt/sdlgo/internal/dispatcher"
)

// Kind is the public failure classification every operation error maps to.
// It mirrors the original's exception hierarchy (syncstorageimpl.cpp's
// throwExceptionForErrorCode), collapsing the dispatcher and backend error
// codes into the categories an application actually needs to branch on.
type Kind int

const (
	// BackendError is an unrecoverable backend-side failure: out of
	// memory, I/O error, or an unclassified backend failure.
	BackendError Kind = iota
	// OperationInterrupted indicates the connection was lost mid-operation.
	OperationInterrupted
	// RejectedByBackend indicates the backend rejected the command itself
	// (a protocol-level error).
	RejectedByBackend
	// NotConnected indicates no usable connection exists yet: the dataset
	// is loading, the transport is down, or discovery has not yet produced
	// an endpoint for this namespace.
	NotConnected
	// RejectedBySdl indicates an internal rate or refusal signal from the
	// SDL layer itself, rather than from the backend.
	RejectedBySdl
	// InvalidNamespace indicates the namespace argument used a disallowed
	// character.
	InvalidNamespace
	// RangeError indicates a source error code outside the table spec.md
	// §4.6 defines — a generic range error, not one of the named failure
	// categories above. Seeing this means the dispatcher or backend layer
	// produced a code this facade does not yet know how to classify.
	RangeError
)

func (k Kind) String() string {
	switch k {
	case BackendError:
		return "BackendError"
	case OperationInterrupted:
		return "OperationInterrupted"
	case RejectedByBackend:
		return "RejectedByBackend"
	case NotConnected:
		return "NotConnected"
	case RejectedBySdl:
		return "RejectedBySdl"
	case InvalidNamespace:
		return "InvalidNamespace"
	case RangeError:
		return "RangeError"
	default:
		return "Unknown"
	}
}

// Error is the error type every public operation returns on failure.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// newError builds an *Error, the one constructor every call site uses so
// the Kind/message pairing stays centralized.
func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// mapOperationError translates the internal error returned by the backend
// storage handler into the public Kind taxonomy. opErr is nil on success.
// Returns a plain nil error interface on success, not a typed nil *Error:
// callers compare the result against nil directly.
func mapOperationError(opErr error) error {
	if opErr == nil {
		return nil
	}

	var opError *backend.OperationError
	if errors.As(opErr, &opError) {
		return mapBackendError(opError)
	}

	return newError(BackendError, "%v", opErr)
}

func mapBackendError(opError *backend.OperationError) *Error {
	switch opError.Code {
	case backend.ErrInvalidNamespace:
		return newError(InvalidNamespace, "%s", opError.Detail)
	case backend.ErrNotYetDiscovered:
		return newError(NotConnected, "%s", opError.Detail)
	case backend.ErrDispatch:
		return mapDispatcherCode(opError.DispatcherCode, opError.Detail)
	default:
		return newError(RangeError, "unmapped backend error code %d: %s", opError.Code, opError.Detail)
	}
}

// mapDispatcherCode implements the §4.6 table for the dispatcher-category
// codes surfaced by a failed command dispatch.
func mapDispatcherCode(code dispatcher.ErrorCode, detail string) *Error {
	switch code {
	case dispatcher.UnknownError, dispatcher.OutOfMemory, dispatcher.IOError:
		return newError(BackendError, "%s", detail)
	case dispatcher.ConnectionLost:
		return newError(OperationInterrupted, "%s", detail)
	case dispatcher.ProtocolError:
		return newError(RejectedByBackend, "%s", detail)
	case dispatcher.DatasetLoading, dispatcher.NotConnected:
		return newError(NotConnected, "%s", detail)
	default:
		// spec.md §4.6: a source code outside the table raises a generic
		// range error, not a backend failure. The facade still returns a
		// value rather than aborting, since an unmapped operational
		// failure should never take down the caller's process.
		return newError(RangeError, "unmapped dispatcher error code %d: %s", code, detail)
	}
}
