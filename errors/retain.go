package errors

// Retain marks given error as one that must not revert state changes done
// before it occurred. The transaction is still reported as failed, but the
// savepoint that wraps its execution commits the writes.
//
// Use it only when the partial state is consistent on its own.
func Retain(err error) error {
	if isNilErr(err) {
		return nil
	}
	return &retainedError{parent: err}
}

type retainedError struct {
	parent error
}

func (e *retainedError) Error() string {
	return e.parent.Error()
}

func (e *retainedError) Cause() error {
	return e.parent
}

// IsRetained returns true if given error or any error it wraps was marked
// with Retain.
func IsRetained(err error) bool {
	for {
		if isNilErr(err) {
			return false
		}
		if _, ok := err.(*retainedError); ok {
			return true
		}
		if c, ok := err.(causer); ok {
			err = c.Cause()
		} else {
			return false
		}
	}
}
