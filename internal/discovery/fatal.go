package discovery

import (
	"os"

	logger "github.com/ricplt/sdlgo/internal/telemetry/log"
)

// FatalFunc is invoked when a discovery variant detects an invariant
// violation it cannot recover from (an unknown RCP session type, a
// malformed sentinel master-inquiry reply). The default logs and
// terminates the process; tests override it to observe the abort without
// killing the test binary.
var FatalFunc = func(msg string) {
	logger.Error(msg)
	os.Exit(1)
}

func abortFatal(msg string) {
	FatalFunc(msg)
}
