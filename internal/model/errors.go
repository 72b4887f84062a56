package model

// initializationError signals a failed or repeated initialization.
type initializationError struct {
	msg     string
	already bool
}

func (e initializationError) Error() string { return e.msg }

// ErrAlreadyInitialized reports a second Initialize call.
func ErrAlreadyInitialized() error {
	return initializationError{msg: "model already initialized", already: true}
}

// ErrInitialization constructs an initialization failure.
func ErrInitialization(msg string) error { return initializationError{msg: msg} }

// IsInitialization reports whether err is any initialization error.
func IsInitialization(err error) bool {
	_, ok := err.(initializationError)
	return ok
}

// IsAlreadyInitialized reports whether err is a double-initialize error.
func IsAlreadyInitialized(err error) bool {
	e, ok := err.(initializationError)
	return ok && e.already
}

// invalidInputError signals a caller-supplied input that fails shape validation.
type invalidInputError struct{ msg string }

func (e invalidInputError) Error() string { return e.msg }

// ErrInvalidInput constructs an invalidInputError.
func ErrInvalidInput(msg string) error { return invalidInputError{msg: msg} }

// IsInvalidInput reports whether err indicates rejected input.
func IsInvalidInput(err error) bool {
	_, ok := err.(invalidInputError)
	return ok
}

// tooBusyError signals queue timeout/overflow for 429 mapping.
type tooBusyError struct{ name string }

func (e tooBusyError) Error() string { return "too busy: " + e.name }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	_, ok := err.(tooBusyError)
	return ok
}
