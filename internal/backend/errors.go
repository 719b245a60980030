package backend

import (
	"fmt"

	"github.com/ricplt/sdlgo/internal/dispatcher"
)

// Code is the storage-category error classification from spec.md §4.6, plus
// ErrDispatch which carries a nested dispatcher.ErrorCode for commands that
// actually reached the wire.
type Code int

const (
	// Success indicates the operation completed normally.
	Success Code = iota
	// ErrInvalidNamespace indicates the namespace argument used a
	// disallowed character; the operation never reached the dispatcher.
	ErrInvalidNamespace
	// ErrNotYetDiscovered indicates no DatabaseInfo has been delivered to
	// the handler yet; the operation never reached the dispatcher.
	ErrNotYetDiscovered
	// ErrDispatch indicates the command reached the dispatcher and failed
	// there; DispatcherCode classifies the underlying failure.
	ErrDispatch
)

// OperationError is returned by every backend async op on failure.
type OperationError struct {
	Code           Code
	Detail         string
	DispatcherCode dispatcher.ErrorCode
}

func (e *OperationError) Error() string {
	return e.Detail
}

func newInvalidNamespaceError(namespace string) *OperationError {
	return &OperationError{
		Code:   ErrInvalidNamespace,
		Detail: fmt.Sprintf("namespace %q contains a disallowed character", namespace),
	}
}

func newNotYetDiscoveredError(namespace string) *OperationError {
	return &OperationError{
		Code:   ErrNotYetDiscovered,
		Detail: fmt.Sprintf("namespace %q: backend not yet discovered", namespace),
	}
}

func newDispatchError(code dispatcher.ErrorCode, cause error) *OperationError {
	return &OperationError{
		Code:           ErrDispatch,
		Detail:         cause.Error(),
		DispatcherCode: code,
	}
}
