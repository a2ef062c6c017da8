package loopback

import (
	"github.com/wippyai/zmq-runtime/native"
	"github.com/wippyai/zmq-runtime/resource"
)

// message is the engine side of a native.Msg. The descriptor's first word
// holds the message handle.
type message struct {
	data []byte
	more bool
}

func (e *Engine) message(m *native.Msg) (*message, bool) {
	if m == nil {
		return nil, false
	}
	return e.messages.Get(resource.Handle(m[0]))
}

// MsgInit implements native.Lib.
func (e *Engine) MsgInit(m *native.Msg) (int, error) {
	return e.msgInit(m, 0)
}

// MsgInitSize implements native.Lib.
func (e *Engine) MsgInitSize(m *native.Msg, size int) (int, error) {
	if size < 0 {
		return -1, e.fail(native.EINVAL)
	}
	return e.msgInit(m, size)
}

func (e *Engine) msgInit(m *native.Msg, size int) (int, error) {
	if m == nil {
		return -1, e.fail(native.EFAULT)
	}
	msg := &message{}
	if size > 0 {
		msg.data = make([]byte, size)
	}
	h, err := e.messages.Insert(msg)
	if err != nil {
		return -1, e.fail(native.ENOMEM)
	}
	*m = native.Msg{}
	m[0] = uint64(h)
	return 0, nil
}

// MsgClose implements native.Lib. Closing an uninitialized or already closed
// descriptor fails with EFAULT.
func (e *Engine) MsgClose(m *native.Msg) (int, error) {
	if m == nil {
		return -1, e.fail(native.EFAULT)
	}
	if _, ok := e.messages.Remove(resource.Handle(m[0])); !ok {
		return -1, e.fail(native.EFAULT)
	}
	m[0] = 0
	return 0, nil
}

// MsgSize implements native.Lib.
func (e *Engine) MsgSize(m *native.Msg) int {
	msg, ok := e.message(m)
	if !ok {
		return 0
	}
	return len(msg.data)
}

// MsgData implements native.Lib.
func (e *Engine) MsgData(m *native.Msg) []byte {
	msg, ok := e.message(m)
	if !ok {
		return nil
	}
	return msg.data
}

// MsgGet implements native.Rev3.
func (e *Engine) MsgGet(m *native.Msg, prop int) (int, error) {
	msg, ok := e.message(m)
	if !ok {
		return -1, e.fail(native.EFAULT)
	}
	if prop != native.MsgMore {
		return -1, e.fail(native.EINVAL)
	}
	if msg.more {
		return 1, nil
	}
	return 0, nil
}
