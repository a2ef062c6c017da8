// Package errors provides structured error types for zmq-runtime.
//
// Errors are categorized by Phase (which resource the failing operation
// belonged to) and Kind. Two kinds matter to callers:
//
//	KindState        every engine failure and every rejected value; the errno
//	                 and the engine's text are attached
//	KindOutOfBounds  message indexing outside [0, Len)
//
// A failed native call is converted at the call site:
//
//	rc, err := lib.Bind(h, endpoint)
//	if rc != 0 {
//		return errors.State(errors.PhaseSocket, "bind", lib, err)
//	}
//
// Callers tell the kinds apart with IsState/IsBounds or errors.Is against the
// ErrState and ErrOutOfBounds sentinels. The errno is the error's cause, so
// errors.Is(err, native.EAGAIN) also works.
package errors
