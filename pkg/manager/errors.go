package manager

// startupError signals that the hosting process could not be spawned or
// did not become ready in time.
type startupError struct{ msg string }

func (e startupError) Error() string { return "startup: " + e.msg }

// ErrStartup constructs a startupError.
func ErrStartup(msg string) error { return startupError{msg: msg} }

// IsStartup reports whether err indicates a failed daemon start.
func IsStartup(err error) bool {
	_, ok := err.(startupError)
	return ok
}
