package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/wippyai/zmq-runtime/native"
)

// Phase indicates which resource the failing operation belonged to
type Phase string

const (
	PhaseLoad     Phase = "load"     // engine resolution
	PhaseContext  Phase = "context"  // context lifecycle
	PhaseSocket   Phase = "socket"   // socket lifecycle, bind, connect
	PhaseOption   Phase = "option"   // option get/set
	PhaseMessage  Phase = "message"  // message lifecycle and access
	PhaseTransfer Phase = "transfer" // send/receive
)

// Kind categorizes the error
type Kind string

const (
	// KindState is an engine failure or a rejected value. Callers see it as
	// the single StateError kind.
	KindState Kind = "state"
	// KindOutOfBounds is a caller indexing error on message content.
	KindOutOfBounds Kind = "out_of_bounds"
	// KindInvalidInput is a programming error such as a nil library.
	KindInvalidInput Kind = "invalid_input"
)

// Sentinels for errors.Is. A sentinel with an empty Phase matches any phase.
var (
	ErrState        = &Error{Kind: KindState}
	ErrOutOfBounds  = &Error{Kind: KindOutOfBounds}
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Op     string
	Option string
	Detail string
	Errno  native.Errno
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Op != "" {
		b.WriteString(" in ")
		b.WriteString(e.Op)
	}

	if e.Option != "" {
		b.WriteString(" (option ")
		b.WriteString(e.Option)
		b.WriteByte(')')
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil && e.Errno == 0 {
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

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && e.Phase != t.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Op sets the failing operation name
func (b *Builder) Op(op string) *Builder {
	b.err.Op = op
	return b
}

// Option sets the logical option name
func (b *Builder) Option(name string) *Builder {
	b.err.Option = name
	return b
}

// Errno records the engine error code and makes it the cause
func (b *Builder) Errno(code native.Errno) *Builder {
	b.err.Errno = code
	if code != 0 {
		b.err.Cause = code
	}
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// State converts a failed native call into a state error. The detail is the
// engine's text for the errno carried by err (or its last errno).
func State(phase Phase, op string, lib native.Lib, err error) *Error {
	code, ok := native.CodeOf(err)
	if !ok && lib != nil {
		code = lib.Errno()
	}
	return New(phase, KindState).
		Op(op).
		Errno(code).
		Detail("%s", native.Describe(lib, code)).
		Build()
}

// StateCode creates a state error for a known errno without consulting the engine.
func StateCode(phase Phase, op string, code native.Errno) *Error {
	return New(phase, KindState).
		Op(op).
		Errno(code).
		Detail("%s", code.Error()).
		Build()
}

// Rejected creates a state error for a locally validated value
func Rejected(phase Phase, op, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindState,
		Op:     op,
		Detail: detail,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, op string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Op:     op,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// IsState reports whether err is a state error
func IsState(err error) bool {
	return stderrors.Is(err, ErrState)
}

// IsBounds reports whether err is an out of bounds error
func IsBounds(err error) bool {
	return stderrors.Is(err, ErrOutOfBounds)
}

// ErrnoOf returns the engine error code carried by err, or 0
func ErrnoOf(err error) native.Errno {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Errno
	}
	code, _ := native.CodeOf(err)
	return code
}
