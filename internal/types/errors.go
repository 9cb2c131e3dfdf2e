package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can tell fatal errors from the
// ones that degrade to placeholder text.
type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration"
	KindCredential    ErrorKind = "credential"
	KindStructural    ErrorKind = "structural"
	KindContent       ErrorKind = "content"
)

// Error attaches an ErrorKind to an underlying failure.
type Error struct {
	Kind      ErrorKind
	Operation string
	Path      string
	Err       error
}

// NewError wraps err with the provided kind. A nil err yields a nil error.
func NewError(kind ErrorKind, operation string, path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Operation: operation, Path: path, Err: err}
}

func (failure *Error) Error() string {
	if failure.Path == "" {
		return fmt.Sprintf("%s: %v", failure.Operation, failure.Err)
	}
	return fmt.Sprintf("%s %s: %v", failure.Operation, failure.Path, failure.Err)
}

func (failure *Error) Unwrap() error {
	return failure.Err
}

// KindOf returns the kind of the first classified error in the chain.
func KindOf(err error) (ErrorKind, bool) {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind, true
	}
	return "", false
}

// IsFatal reports whether err must stop the run. Unclassified errors are fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	kind, ok := KindOf(err)
	return !ok || kind != KindContent
}
