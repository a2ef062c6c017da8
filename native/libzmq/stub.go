//go:build !cgo || !zmq

package libzmq

import "github.com/wippyai/zmq-runtime/native"

// Open returns ErrUnavailable in builds without the native library.
func Open() (native.Lib, error) {
	return nil, ErrUnavailable
}
