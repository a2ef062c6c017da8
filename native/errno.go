package native

import (
	"errors"
	"strconv"
	"syscall"
)

// Errno is an error code reported by the engine.
type Errno int

// hausnumero is the base of the engine's private error codes.
const hausnumero = 156384712

// System error codes the engine reports. Values follow the host platform.
const (
	EINTR           = Errno(syscall.EINTR)
	EAGAIN          = Errno(syscall.EAGAIN)
	ENOMEM          = Errno(syscall.ENOMEM)
	EMFILE          = Errno(syscall.EMFILE)
	EFAULT          = Errno(syscall.EFAULT)
	ENODEV          = Errno(syscall.ENODEV)
	EINVAL          = Errno(syscall.EINVAL)
	ENOTSOCK        = Errno(syscall.ENOTSOCK)
	EPROTONOSUPPORT = Errno(syscall.EPROTONOSUPPORT)
	ENOTSUP         = Errno(syscall.ENOTSUP)
	EADDRINUSE      = Errno(syscall.EADDRINUSE)
	EADDRNOTAVAIL   = Errno(syscall.EADDRNOTAVAIL)
	ECONNREFUSED    = Errno(syscall.ECONNREFUSED)
	EHOSTUNREACH    = Errno(syscall.EHOSTUNREACH)
)

// Engine-specific error codes.
const (
	EFSM           = Errno(hausnumero + 51)
	ENOCOMPATPROTO = Errno(hausnumero + 52)
	ETERM          = Errno(hausnumero + 53)
	EMTHREAD       = Errno(hausnumero + 54)
)

var errnoText = map[Errno]string{
	EFSM:           "Operation cannot be accomplished in current state",
	ENOCOMPATPROTO: "The protocol is not compatible with the socket type",
	ETERM:          "Context was terminated",
	EMTHREAD:       "No thread available",
}

// UnknownError is the text used when the engine cannot describe a code.
const UnknownError = "unknown error"

// Error returns the default text for the code.
func (e Errno) Error() string {
	if s, ok := errnoText[e]; ok {
		return s
	}
	if e > 0 && e < hausnumero {
		return syscall.Errno(e).Error()
	}
	return "errno " + strconv.Itoa(int(e))
}

// Is lets errors.Is match an Errno against the equivalent syscall.Errno.
func (e Errno) Is(target error) bool {
	var se syscall.Errno
	if errors.As(target, &se) {
		return int(se) == int(e)
	}
	return false
}

// Temporary reports whether the call may succeed if retried later.
func (e Errno) Temporary() bool {
	return e == EAGAIN || e == EINTR
}

// Describe renders the error behind a failed native call as text.
// It uses the errno carried by err, or the engine's last errno when err
// carries none, and falls back to UnknownError.
func Describe(lib Lib, err error) string {
	code, ok := CodeOf(err)
	if !ok && lib != nil {
		code = lib.Errno()
	}
	if code == 0 {
		return UnknownError
	}
	if lib != nil {
		if s := lib.Strerror(code); s != "" {
			return s
		}
	}
	return UnknownError
}

// CodeOf extracts the errno carried by err.
func CodeOf(err error) (Errno, bool) {
	if err == nil {
		return 0, false
	}
	var code Errno
	if errors.As(err, &code) {
		return code, code != 0
	}
	var se syscall.Errno
	if errors.As(err, &se) {
		return Errno(se), se != 0
	}
	return 0, false
}
