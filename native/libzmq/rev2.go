//go:build cgo && zmq && zmq2

package libzmq

/*
#include <zmq.h>
*/
import "C"

import (
	"github.com/wippyai/zmq-runtime/native"
	"github.com/wippyai/zmq-runtime/resource"
)

var compiledFor = native.Version{Major: 2}

func supported(v native.Version) bool {
	return v.Major == 2
}

func (l *lib) Init(ioThreads int) (native.Handle, error) {
	p, err := C.zmq_init(C.int(ioThreads))
	if p == nil {
		return 0, errnoOf(err)
	}
	h, terr := l.addContext(p)
	if terr != nil {
		C.zmq_term(p)
		return 0, terr
	}
	return h, nil
}

func (l *lib) Term(ctx native.Handle) (int, error) {
	p, ok := l.context(ctx)
	if !ok {
		return -1, native.EFAULT
	}
	rc, err := C.zmq_term(p)
	if rc != 0 {
		return int(rc), errnoOf(err)
	}
	l.contexts.Remove(resource.Handle(ctx))
	return 0, nil
}

func (l *lib) Send(sock native.Handle, m *native.Msg, flags int) (int, error) {
	p, ok := l.socket(sock)
	if !ok {
		return -1, native.ENOTSOCK
	}
	rc, err := C.zmq_send(p, msgPtr(m), C.int(flags))
	if rc != 0 {
		return int(rc), errnoOf(err)
	}
	return 0, nil
}

func (l *lib) Recv(sock native.Handle, m *native.Msg, flags int) (int, error) {
	p, ok := l.socket(sock)
	if !ok {
		return -1, native.ENOTSOCK
	}
	rc, err := C.zmq_recv(p, msgPtr(m), C.int(flags))
	if rc != 0 {
		return int(rc), errnoOf(err)
	}
	return 0, nil
}
