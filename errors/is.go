package errors

import (
	stderrors "errors"
)

// Is reports whether any error in e's chain matches original. When original is
// an *Error, the error it wraps is matched as well.
func Is(e error, original error) bool {
	if stderrors.Is(e, original) {
		return true
	}
	if o, ok := original.(*Error); ok && o != nil {
		return stderrors.Is(e, o.Err)
	}
	return false
}

// As is errors.As from the standard library.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Unwrap is errors.Unwrap from the standard library.
func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}
