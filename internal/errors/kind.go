package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies failures surfaced by the sync engine and its callers.
type Kind int

const (
	KindUnknown Kind = iota
	// FetchFailed: a full load failed; the previous snapshot is still served.
	FetchFailed
	// WriteFailed: the store rejected a write or confirmed it without a row.
	WriteFailed
	// NotFound: the targeted record is gone; local state is stale.
	NotFound
	// Unauthorized: the caller is not privileged to mutate.
	Unauthorized
	// Invalid: the record failed validation before reaching the store.
	Invalid
)

func (k Kind) String() string {
	switch k {
	case FetchFailed:
		return "fetch failed"
	case WriteFailed:
		return "write failed"
	case NotFound:
		return "not found"
	case Unauthorized:
		return "unauthorized"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Error is a classified failure of an operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// E builds an *Error.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Reason returns the underlying message without the operation and kind
// prefixes, for display next to an outcome.
func (e *Error) Reason() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
