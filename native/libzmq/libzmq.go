//go:build cgo && zmq

package libzmq

/*
#cgo pkg-config: libzmq
#include <zmq.h>
#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/wippyai/zmq-runtime/native"
	"github.com/wippyai/zmq-runtime/resource"
)

// lib is the cgo binding. Native context and socket pointers never leave it:
// callers see table handles, which keeps C pointers out of uintptr values.
type lib struct {
	version  native.Version
	objects  *resource.Table
	contexts *resource.Typed[unsafe.Pointer]
	sockets  *resource.Typed[unsafe.Pointer]
}

// Open loads the native library and checks its version against the revision
// the binding was compiled for.
func Open() (native.Lib, error) {
	var major, minor, patch C.int
	C.zmq_version(&major, &minor, &patch)
	v := native.Version{Major: int(major), Minor: int(minor), Patch: int(patch)}
	if !supported(v) {
		return nil, fmt.Errorf("%w: loaded %s, compiled for %s", ErrVersion, v, compiledFor)
	}

	objects := resource.NewTable()
	return &lib{
		version:  v,
		objects:  objects,
		contexts: resource.NewTyped[unsafe.Pointer](objects, resource.KindContext),
		sockets:  resource.NewTyped[unsafe.Pointer](objects, resource.KindSocket),
	}, nil
}

// errnoOf converts the errno cgo captured after a call. A call that failed
// without setting errno falls back to zmq_errno.
func errnoOf(err error) error {
	if code, ok := native.CodeOf(err); ok {
		return code
	}
	return native.Errno(C.zmq_errno())
}

func msgPtr(m *native.Msg) *C.zmq_msg_t {
	return (*C.zmq_msg_t)(unsafe.Pointer(m))
}

func (l *lib) Version() native.Version {
	return l.version
}

func (l *lib) Errno() native.Errno {
	return native.Errno(C.zmq_errno())
}

func (l *lib) Strerror(code native.Errno) string {
	s := C.zmq_strerror(C.int(code))
	if s == nil {
		return ""
	}
	return C.GoString(s)
}

func (l *lib) context(h native.Handle) (unsafe.Pointer, bool) {
	return l.contexts.Get(resource.Handle(h))
}

func (l *lib) socket(h native.Handle) (unsafe.Pointer, bool) {
	return l.sockets.Get(resource.Handle(h))
}

// addContext registers a native context pointer.
func (l *lib) addContext(p unsafe.Pointer) (native.Handle, error) {
	h, err := l.contexts.Insert(p)
	if err != nil {
		return 0, native.ENOMEM
	}
	return native.Handle(h), nil
}

func (l *lib) Socket(ctx native.Handle, kind int) (native.Handle, error) {
	c, ok := l.context(ctx)
	if !ok {
		return 0, native.EFAULT
	}
	p, err := C.zmq_socket(c, C.int(kind))
	if p == nil {
		return 0, errnoOf(err)
	}
	h, terr := l.sockets.Insert(p)
	if terr != nil {
		C.zmq_close(p)
		return 0, native.ENOMEM
	}
	return native.Handle(h), nil
}

func (l *lib) Close(sock native.Handle) (int, error) {
	p, ok := l.socket(sock)
	if !ok {
		return -1, native.ENOTSOCK
	}
	rc, err := C.zmq_close(p)
	if rc != 0 {
		return int(rc), errnoOf(err)
	}
	l.sockets.Remove(resource.Handle(sock))
	return 0, nil
}

func (l *lib) Bind(sock native.Handle, endpoint string) (int, error) {
	p, ok := l.socket(sock)
	if !ok {
		return -1, native.ENOTSOCK
	}
	cs := C.CString(endpoint)
	defer C.free(unsafe.Pointer(cs))

	rc, err := C.zmq_bind(p, cs)
	if rc != 0 {
		return int(rc), errnoOf(err)
	}
	return 0, nil
}

func (l *lib) Connect(sock native.Handle, endpoint string) (int, error) {
	p, ok := l.socket(sock)
	if !ok {
		return -1, native.ENOTSOCK
	}
	cs := C.CString(endpoint)
	defer C.free(unsafe.Pointer(cs))

	rc, err := C.zmq_connect(p, cs)
	if rc != 0 {
		return int(rc), errnoOf(err)
	}
	return 0, nil
}

func (l *lib) Setsockopt(sock native.Handle, opt int, val []byte) (int, error) {
	p, ok := l.socket(sock)
	if !ok {
		return -1, native.ENOTSOCK
	}
	var ptr unsafe.Pointer
	if len(val) > 0 {
		ptr = unsafe.Pointer(&val[0])
	}
	rc, err := C.zmq_setsockopt(p, C.int(opt), ptr, C.size_t(len(val)))
	if rc != 0 {
		return int(rc), errnoOf(err)
	}
	return 0, nil
}

func (l *lib) Getsockopt(sock native.Handle, opt int, buf []byte) (int, int, error) {
	p, ok := l.socket(sock)
	if !ok {
		return -1, 0, native.ENOTSOCK
	}
	if len(buf) == 0 {
		return -1, 0, native.EINVAL
	}
	size := C.size_t(len(buf))
	rc, err := C.zmq_getsockopt(p, C.int(opt), unsafe.Pointer(&buf[0]), &size)
	if rc != 0 {
		return int(rc), 0, errnoOf(err)
	}
	return 0, int(size), nil
}

func (l *lib) MsgInit(m *native.Msg) (int, error) {
	rc, err := C.zmq_msg_init(msgPtr(m))
	if rc != 0 {
		return int(rc), errnoOf(err)
	}
	return 0, nil
}

func (l *lib) MsgInitSize(m *native.Msg, size int) (int, error) {
	rc, err := C.zmq_msg_init_size(msgPtr(m), C.size_t(size))
	if rc != 0 {
		return int(rc), errnoOf(err)
	}
	return 0, nil
}

func (l *lib) MsgClose(m *native.Msg) (int, error) {
	rc, err := C.zmq_msg_close(msgPtr(m))
	if rc != 0 {
		return int(rc), errnoOf(err)
	}
	return 0, nil
}

func (l *lib) MsgSize(m *native.Msg) int {
	return int(C.zmq_msg_size(msgPtr(m)))
}

func (l *lib) MsgData(m *native.Msg) []byte {
	n := int(C.zmq_msg_size(msgPtr(m)))
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(C.zmq_msg_data(msgPtr(m))), n)
}
