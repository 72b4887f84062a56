package client

import "fmt"

// serializationError signals an argument or result that could not cross the
// call boundary.
type serializationError struct{ err error }

func (e serializationError) Error() string { return "serialization: " + e.err.Error() }
func (e serializationError) Unwrap() error { return e.err }

// IsSerialization reports whether err indicates an untransmittable value.
func IsSerialization(err error) bool {
	_, ok := err.(serializationError)
	return ok
}

// connectionLostError signals that the hosting process is unreachable,
// crashed, or did not answer within the call timeout.
type connectionLostError struct{ err error }

func (e connectionLostError) Error() string { return "connection lost: " + e.err.Error() }
func (e connectionLostError) Unwrap() error { return e.err }

// ErrConnectionLost wraps a transport failure.
func ErrConnectionLost(err error) error { return connectionLostError{err: err} }

// IsConnectionLost reports whether err indicates an unreachable host.
func IsConnectionLost(err error) bool {
	_, ok := err.(connectionLostError)
	return ok
}

// remoteError is a failure raised by the hosted object, with its original
// classification preserved in Kind.
type remoteError struct {
	kind   string
	msg    string
	status int
}

func (e remoteError) Error() string {
	return fmt.Sprintf("remote %s (http %d): %s", e.kind, e.status, e.msg)
}

// Kind returns the stable error kind reported by the host.
func (e remoteError) Kind() string { return e.kind }

// StatusCode returns the HTTP status the host answered with.
func (e remoteError) StatusCode() int { return e.status }

// Remote error kinds as reported by the daemon.
const (
	KindInvalidInput         = "invalid_input"
	KindNotRegistered        = "not_registered"
	KindIndexOutOfRange      = "index_out_of_range"
	KindAlreadyInitialized   = "already_initialized"
	KindInitializationFailed = "initialization_failed"
	KindTooBusy              = "too_busy"
	KindInternal             = "internal"
)

func isRemoteKind(err error, kind string) bool {
	e, ok := err.(remoteError)
	return ok && e.kind == kind
}

// IsRemoteExecution reports whether err is any failure raised by the hosted
// object (as opposed to a transport or serialization failure).
func IsRemoteExecution(err error) bool {
	_, ok := err.(remoteError)
	return ok
}

// IsInvalidInput reports whether the host rejected the input shape.
func IsInvalidInput(err error) bool { return isRemoteKind(err, KindInvalidInput) }

// IsNotRegistered reports whether the named object was never registered.
func IsNotRegistered(err error) bool { return isRemoteKind(err, KindNotRegistered) }

// IsIndexOutOfRange reports whether a collection access was out of range.
func IsIndexOutOfRange(err error) bool { return isRemoteKind(err, KindIndexOutOfRange) }

// IsTooBusy reports whether the host applied backpressure.
func IsTooBusy(err error) bool { return isRemoteKind(err, KindTooBusy) }

// IsInitialization reports whether the hosted model failed or repeated
// initialization.
func IsInitialization(err error) bool {
	return isRemoteKind(err, KindInitializationFailed) || isRemoteKind(err, KindAlreadyInitialized)
}
