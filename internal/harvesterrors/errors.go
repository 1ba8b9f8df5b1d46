// Package harvesterrors defines the harvester's layered error taxonomy.
package harvesterrors

import "fmt"

// Kind classifies a harvester error for metrics accounting and retry policy.
type Kind string

const (
	KindConfig      Kind = "CONFIG_ERROR"
	KindNetwork     Kind = "NETWORK_ERROR"
	KindHTTP        Kind = "HTTP_ERROR"
	KindTimeout     Kind = "TIMEOUT_ERROR"
	KindTranslation Kind = "TRANSLATION_ERROR"
	KindConversion  Kind = "CONVERSION_ERROR"
	KindDuplicate   Kind = "DUPLICATE_SKIP"
	KindFatal       Kind = "FATAL_ERROR"
)

// Error is the harvester's layered context error, carrying enough structure
// for the tasklet-context logger to attribute a failure to a component and
// operation without losing the original cause.
type Error struct {
	Kind      Kind
	Layer     string // e.g. "download", "convert", "delivery"
	Component string // e.g. "feed_operator", "conversion_engine"
	Operation string // e.g. "directDownload", "archive"
	Message   string
	Cause     error
	HTTPCode  int // populated only for Kind == KindHTTP
}

func (e *Error) Error() string {
	prefix := ""
	if e.Layer != "" && e.Component != "" {
		prefix = fmt.Sprintf("[%s:%s:%s] ", e.Layer, e.Component, e.Operation)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s%s: %s (%v)", prefix, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s%s: %s", prefix, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// IsRetryable reports whether the delivery pipeline should treat this as a
// retry-eligible state rather than a permanent skip.
func (e *Error) IsRetryable() bool {
	switch e.Kind {
	case KindNetwork, KindTimeout, KindHTTP:
		return true
	default:
		return false
	}
}

func New(kind Kind, layer, component, operation, message string, cause error) *Error {
	return &Error{Kind: kind, Layer: layer, Component: component, Operation: operation, Message: message, Cause: cause}
}

func NewHTTP(layer, component, operation, message string, code int, cause error) *Error {
	return &Error{Kind: KindHTTP, Layer: layer, Component: component, Operation: operation, Message: message, Cause: cause, HTTPCode: code}
}

func NewConfig(component, operation, message string, cause error) *Error {
	return New(KindConfig, "config", component, operation, message, cause)
}

func NewNetwork(component, operation, message string, cause error) *Error {
	return New(KindNetwork, "download", component, operation, message, cause)
}

func NewTimeout(component, operation, message string, cause error) *Error {
	return New(KindTimeout, "download", component, operation, message, cause)
}

func NewTranslation(component, operation, message string, cause error) *Error {
	return New(KindTranslation, "translate", component, operation, message, cause)
}

func NewConversion(component, operation, message string, cause error) *Error {
	return New(KindConversion, "convert", component, operation, message, cause)
}

func NewFatal(component, operation, message string, cause error) *Error {
	return New(KindFatal, "pipeline", component, operation, message, cause)
}
