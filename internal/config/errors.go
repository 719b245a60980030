package config

import "fmt"

// ErrorCode categorizes configuration parsing and validation failures.
type ErrorCode int

const (
	// ErrInvalidDbType indicates an unrecognized database "type" value.
	ErrInvalidDbType ErrorCode = iota

	// ErrInvalidAddress indicates a malformed server or sentinel address.
	ErrInvalidAddress

	// ErrInvalidNamespacePrefix indicates a namespace prefix containing a
	// disallowed character.
	ErrInvalidNamespacePrefix

	// ErrInconsistentNotifications indicates enableNotifications was set
	// true while useDbBackend is false.
	ErrInconsistentNotifications

	// ErrMissingField indicates a required JSON field was absent.
	ErrMissingField

	// ErrMalformedSource indicates the configuration source itself (a JSON
	// file, the input-stream override) could not be parsed.
	ErrMalformedSource
)

// ConfigError is returned by the reader and configuration containers when a
// configuration source is invalid. Every error names the source it came
// from, mirroring the C++ original's "Configuration error in <source>: ..."
// messages.
type ConfigError struct {
	Code   ErrorCode
	Source string
	Detail string
}

func (e *ConfigError) Error() string {
	if e.Source == "" {
		return e.Detail
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Source, e.Detail)
}

// NewInvalidDbTypeError reports an unrecognized "type" value.
func NewInvalidDbTypeError(source, dbType string) *ConfigError {
	return &ConfigError{
		Code:   ErrInvalidDbType,
		Source: source,
		Detail: fmt.Sprintf("invalid database type %q", dbType),
	}
}

// NewInvalidAddressError reports a malformed server/sentinel address.
func NewInvalidAddressError(source, address string, cause error) *ConfigError {
	return &ConfigError{
		Code:   ErrInvalidAddress,
		Source: source,
		Detail: fmt.Sprintf("invalid address %q: %v", address, cause),
	}
}

// NewInvalidNamespacePrefixError reports a namespace prefix using one of the
// disallowed characters.
func NewInvalidNamespacePrefixError(source, prefix string) *ConfigError {
	return &ConfigError{
		Code:   ErrInvalidNamespacePrefix,
		Source: source,
		Detail: fmt.Sprintf("namespacePrefix %q contains some of these disallowed characters: %s", prefix, DisallowedNamespaceCharacters),
	}
}

// NewInconsistentNotificationsError reports enableNotifications=true with
// useDbBackend=false for the same namespace entry.
func NewInconsistentNotificationsError(source, prefix string) *ConfigError {
	return &ConfigError{
		Code:   ErrInconsistentNotifications,
		Source: source,
		Detail: fmt.Sprintf("namespace %q: enableNotifications cannot be true when useDbBackend is false", prefix),
	}
}

// NewMissingFieldError reports a required field absent from a JSON object.
func NewMissingFieldError(source, field string) *ConfigError {
	return &ConfigError{
		Code:   ErrMissingField,
		Source: source,
		Detail: fmt.Sprintf("missing %q", field),
	}
}

// NewMalformedSourceError reports a source that failed to parse as JSON.
func NewMalformedSourceError(source string, cause error) *ConfigError {
	return &ConfigError{
		Code:   ErrMalformedSource,
		Source: source,
		Detail: cause.Error(),
	}
}
