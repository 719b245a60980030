package logger

import (
	"log/slog"
)

// Standard field keys for structured logging, shared across the configuration
// reader, discovery variants, the backend storage handler and the routing and
// sync facades. Use these keys consistently for log aggregation and querying.
const (
	// Namespace & Operation
	KeyNamespace = "namespace" // SDL namespace the operation targets
	KeyOperation = "operation" // set/get/remove/setIf/removeIf/findKeys/...
	KeySource    = "source"    // config source name: env var, file path, "<istream>"

	// Discovery
	KeyDiscoveryMethod = "discovery_method" // static, rcp, sentinel
	KeyDbType          = "db_type"          // standalone, cluster, sentinel, ...
	KeyHosts           = "hosts"            // discovered endpoint list

	// Errors
	KeyError     = "error"      // error message
	KeyErrorKind = "error_kind" // public Kind this error mapped to

	// Operation metadata
	KeyDurationMs = "duration_ms"
	KeyAttempt    = "attempt"
)

// Namespace returns a slog.Attr for the namespace being operated on.
func Namespace(ns string) slog.Attr {
	return slog.String(KeyNamespace, ns)
}

// Operation returns a slog.Attr for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Source returns a slog.Attr for a configuration source name.
func Source(src string) slog.Attr {
	return slog.String(KeySource, src)
}

// DiscoveryMethod returns a slog.Attr for the discovery variant in use.
func DiscoveryMethod(method string) slog.Attr {
	return slog.String(KeyDiscoveryMethod, method)
}

// DbType returns a slog.Attr for a database type tag.
func DbType(t string) slog.Attr {
	return slog.String(KeyDbType, t)
}

// Hosts returns a slog.Attr for a list of discovered endpoints.
func Hosts(hosts []string) slog.Attr {
	return slog.Any(KeyHosts, hosts)
}

// Err returns a slog.Attr for an error, or a zero Attr if err is nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorKind returns a slog.Attr for the public error kind an error mapped to.
func ErrorKind(kind string) slog.Attr {
	return slog.String(KeyErrorKind, kind)
}

// DurationMs returns a slog.Attr for a duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Attempt returns a slog.Attr for a retry attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}
