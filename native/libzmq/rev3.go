//go:build cgo && zmq && !zmq2

package libzmq

/*
#include <zmq.h>
*/
import "C"

import (
	"github.com/wippyai/zmq-runtime/native"
	"github.com/wippyai/zmq-runtime/resource"
)

var compiledFor = native.Version{Major: 3, Minor: 2}

// zmq_ctx_get and zmq_msg_get appeared in 3.2.
func supported(v native.Version) bool {
	return v.AtLeast(3, 2)
}

func (l *lib) CtxNew() (native.Handle, error) {
	p, err := C.zmq_ctx_new()
	if p == nil {
		return 0, errnoOf(err)
	}
	h, terr := l.addContext(p)
	if terr != nil {
		C.zmq_ctx_destroy(p)
		return 0, terr
	}
	return h, nil
}

func (l *lib) CtxDestroy(ctx native.Handle) (int, error) {
	p, ok := l.context(ctx)
	if !ok {
		return -1, native.EFAULT
	}
	rc, err := C.zmq_ctx_destroy(p)
	if rc != 0 {
		return int(rc), errnoOf(err)
	}
	l.contexts.Remove(resource.Handle(ctx))
	return 0, nil
}

func (l *lib) CtxGet(ctx native.Handle, opt int) (int, error) {
	p, ok := l.context(ctx)
	if !ok {
		return -1, native.EFAULT
	}
	v, err := C.zmq_ctx_get(p, C.int(opt))
	if v < 0 {
		return int(v), errnoOf(err)
	}
	return int(v), nil
}

func (l *lib) CtxSet(ctx native.Handle, opt int, value int) (int, error) {
	p, ok := l.context(ctx)
	if !ok {
		return -1, native.EFAULT
	}
	rc, err := C.zmq_ctx_set(p, C.int(opt), C.int(value))
	if rc != 0 {
		return int(rc), errnoOf(err)
	}
	return 0, nil
}

func (l *lib) SendMsg(sock native.Handle, m *native.Msg, flags int) (int, error) {
	p, ok := l.socket(sock)
	if !ok {
		return -1, native.ENOTSOCK
	}
	n, err := C.zmq_sendmsg(p, msgPtr(m), C.int(flags))
	if n < 0 {
		return -1, errnoOf(err)
	}
	return int(n), nil
}

func (l *lib) RecvMsg(sock native.Handle, m *native.Msg, flags int) (int, error) {
	p, ok := l.socket(sock)
	if !ok {
		return -1, native.ENOTSOCK
	}
	n, err := C.zmq_recvmsg(p, msgPtr(m), C.int(flags))
	if n < 0 {
		return -1, errnoOf(err)
	}
	return int(n), nil
}

func (l *lib) MsgGet(m *native.Msg, prop int) (int, error) {
	v, err := C.zmq_msg_get(msgPtr(m), C.int(prop))
	if v < 0 {
		return -1, errnoOf(err)
	}
	return int(v), nil
}
