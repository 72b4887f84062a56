package broker

// notRegisteredError signals a create/call against a name that was never registered.
type notRegisteredError struct{ name string }

func (e notRegisteredError) Error() string { return "object not registered: " + e.name }

// ErrNotRegistered constructs a notRegisteredError.
func ErrNotRegistered(name string) error { return notRegisteredError{name: name} }

// IsNotRegistered reports whether the error indicates an unregistered name.
func IsNotRegistered(err error) bool {
	_, ok := err.(notRegisteredError)
	return ok
}

// kindMismatchError signals an operation invoked on the wrong object kind,
// e.g. a collection read against a model.
type kindMismatchError struct {
	name string
	want string
	got  string
}

func (e kindMismatchError) Error() string {
	return "object " + e.name + " is a " + e.got + ", not a " + e.want
}

// IsKindMismatch reports whether err indicates a wrong-kind operation.
func IsKindMismatch(err error) bool {
	_, ok := err.(kindMismatchError)
	return ok
}

// duplicateError signals a second registration under the same name.
type duplicateError struct{ name string }

func (e duplicateError) Error() string { return "object already registered: " + e.name }

// IsDuplicate reports whether err indicates a duplicate registration.
func IsDuplicate(err error) bool {
	_, ok := err.(duplicateError)
	return ok
}

// invalidSpecError signals a registration spec that cannot be hosted.
type invalidSpecError struct{ msg string }

func (e invalidSpecError) Error() string { return e.msg }

// IsInvalidSpec reports whether err indicates a rejected registration.
func IsInvalidSpec(err error) bool {
	_, ok := err.(invalidSpecError)
	return ok
}
