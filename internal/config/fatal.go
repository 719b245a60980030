package config

import (
	"os"

	logger "github.com/ricplt/sdlgo/internal/telemetry/log"
)

// FatalFunc is invoked when the library detects a programming-error
// invariant violation it cannot recover from (reading configuration into an
// already-populated container). The default logs and terminates the
// process; tests override it to observe the abort without killing the test
// binary.
var FatalFunc = func(msg string) {
	logger.Error(msg)
	os.Exit(1)
}

func abort(msg string) {
	FatalFunc(msg)
}
