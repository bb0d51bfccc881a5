package encodevorbis

import (
	"fmt"
	"strings"
)

// Kind categorizes an Error.
type Kind string

const (
	KindInvalidAddress    Kind = "invalid_address"
	KindGuestAbort        Kind = "guest_abort"
	KindSourceUnavailable Kind = "source_unavailable"
	KindValidation        Kind = "validation_failure"
	KindOutOfMemory       Kind = "out_of_memory"
	KindMissingExport     Kind = "missing_export"
	KindInstantiation     Kind = "instantiation"
	KindInvalidConfig     Kind = "invalid_config"
)

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrInvalidAddress    = &Error{Kind: KindInvalidAddress}
	ErrGuestAbort        = &Error{Kind: KindGuestAbort}
	ErrSourceUnavailable = &Error{Kind: KindSourceUnavailable}
	ErrValidation        = &Error{Kind: KindValidation}
	ErrOutOfMemory       = &Error{Kind: KindOutOfMemory}
	ErrMissingExport     = &Error{Kind: KindMissingExport}
	ErrInstantiation     = &Error{Kind: KindInstantiation}
	ErrInvalidConfig     = &Error{Kind: KindInvalidConfig}
)

// Error is the structured error returned by the host runtime.
type Error struct {
	Cause error
	// Op is the host import or phase that failed, e.g. "memcpy" or "load".
	Op     string
	Kind   Kind
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Op != "" {
		b.WriteByte('[')
		b.WriteString(e.Op)
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target has the same Kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

func newError(op string, kind Kind, cause error, format string, args ...any) *Error {
	detail := format
	if len(args) > 0 {
		detail = fmt.Sprintf(format, args...)
	}
	return &Error{Op: op, Kind: kind, Detail: detail, Cause: cause}
}

func invalidAddress(op string, format string, args ...any) *Error {
	return newError(op, KindInvalidAddress, nil, format, args...)
}
