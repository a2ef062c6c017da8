package libzmq

import "errors"

// ErrUnavailable is returned by Open when the binary was built without the
// native library.
var ErrUnavailable = errors.New("libzmq: native library not compiled in (build with -tags zmq)")

// ErrVersion is returned by Open when the loaded library does not match the
// revision the binding was compiled for.
var ErrVersion = errors.New("libzmq: library version does not match the compiled revision")
