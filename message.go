package zmqruntime

import (
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/zmq-runtime/dispatch"
	"github.com/wippyai/zmq-runtime/errors"
	"github.com/wippyai/zmq-runtime/native"
)

// Message is a native message. Its content lives in engine-owned storage and
// its size is always queried from the engine. A Message is released exactly
// once, by Close or by the garbage collector.
type Message struct {
	state   *messageState
	cleanup runtime.Cleanup
}

type messageState struct {
	d      *dispatch.Dispatcher
	logger *zap.Logger
	msg    native.Msg
	open   bool
	sent   bool
	mu     sync.Mutex
}

// NewMessage creates an empty message on the process default engine.
func NewMessage() (*Message, error) {
	d, err := defaultDispatcher()
	if err != nil {
		return nil, err
	}
	return newMessage(d, Logger())
}

// NewMessageSize creates a message of n zero bytes on the process default
// engine.
func NewMessageSize(n int) (*Message, error) {
	d, err := defaultDispatcher()
	if err != nil {
		return nil, err
	}
	return newMessageSize(d, Logger(), n)
}

// NewMessageFromBytes creates a message holding a copy of data on the process
// default engine.
func NewMessageFromBytes(data []byte) (*Message, error) {
	d, err := defaultDispatcher()
	if err != nil {
		return nil, err
	}
	return newMessageFromBytes(d, Logger(), data)
}

// NewMessage creates an empty message on the context's engine.
func (c *Context) NewMessage() (*Message, error) {
	return newMessage(c.state.d, c.state.logger)
}

// NewMessageSize creates a message of n zero bytes on the context's engine.
func (c *Context) NewMessageSize(n int) (*Message, error) {
	return newMessageSize(c.state.d, c.state.logger, n)
}

// NewMessageFromBytes creates a message holding a copy of data on the
// context's engine.
func (c *Context) NewMessageFromBytes(data []byte) (*Message, error) {
	return newMessageFromBytes(c.state.d, c.state.logger, data)
}

func defaultDispatcher() (*dispatch.Dispatcher, error) {
	lib, err := Library()
	if err != nil {
		return nil, err
	}
	return dispatch.Resolve(lib)
}

// track initializes the descriptor in place and arms the cleanup. The
// descriptor is never copied once the engine has seen it.
func track(d *dispatch.Dispatcher, logger *zap.Logger, init func(*native.Msg) error) (*Message, error) {
	ms := &messageState{d: d, logger: logger}
	if err := init(&ms.msg); err != nil {
		return nil, err
	}
	ms.open = true

	m := &Message{state: ms}
	m.cleanup = runtime.AddCleanup(m, func(ms *messageState) {
		if err := ms.close(); err != nil {
			ms.logger.Warn("message cleanup failed", zap.Error(err))
		}
	}, ms)
	return m, nil
}

func newMessage(d *dispatch.Dispatcher, logger *zap.Logger) (*Message, error) {
	return track(d, logger, d.MsgInit)
}

func newMessageSize(d *dispatch.Dispatcher, logger *zap.Logger, n int) (*Message, error) {
	return track(d, logger, func(m *native.Msg) error {
		return d.MsgInitSize(m, n)
	})
}

func newMessageFromBytes(d *dispatch.Dispatcher, logger *zap.Logger, data []byte) (*Message, error) {
	m, err := newMessageSize(d, logger, len(data))
	if err != nil {
		return nil, err
	}
	copy(d.Lib().MsgData(&m.state.msg), data)
	return m, nil
}

func (ms *messageState) close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if !ms.open {
		return nil
	}
	ms.open = false
	return ms.d.MsgClose(&ms.msg)
}

// usable reports a state error when the content may no longer be touched.
// ms.mu must be held.
func (ms *messageState) usable(op string) error {
	if !ms.open {
		return errors.Rejected(errors.PhaseMessage, op, "message is closed")
	}
	if ms.sent {
		return errors.Rejected(errors.PhaseMessage, op, "message was sent")
	}
	return nil
}

// view returns the live content. ms.mu must be held.
func (ms *messageState) view(op string) ([]byte, error) {
	if err := ms.usable(op); err != nil {
		return nil, err
	}
	return ms.d.Lib().MsgData(&ms.msg), nil
}

// Close releases the message. Closing twice is a no-op.
func (m *Message) Close() error {
	m.cleanup.Stop()
	return m.state.close()
}

// Len returns the content size reported by the engine, or 0 once the
// message is closed.
func (m *Message) Len() int {
	ms := m.state
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if !ms.open {
		return 0
	}
	return ms.d.Lib().MsgSize(&ms.msg)
}

// At returns the byte at 0-based index i.
func (m *Message) At(i int) (byte, error) {
	ms := m.state
	ms.mu.Lock()
	defer ms.mu.Unlock()

	data, err := ms.view("at")
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= len(data) {
		return 0, errors.OutOfBounds(errors.PhaseMessage, "at", i, len(data))
	}
	return data[i], nil
}

// SetAt writes b at 0-based index i.
func (m *Message) SetAt(i int, b byte) error {
	ms := m.state
	ms.mu.Lock()
	defer ms.mu.Unlock()

	data, err := ms.view("set")
	if err != nil {
		return err
	}
	if i < 0 || i >= len(data) {
		return errors.OutOfBounds(errors.PhaseMessage, "set", i, len(data))
	}
	data[i] = b
	return nil
}

// Data returns the live engine-owned content. The slice is valid until the
// message is closed or sent.
func (m *Message) Data() ([]byte, error) {
	ms := m.state
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.view("data")
}

// Bytes returns a copy of the content.
func (m *Message) Bytes() ([]byte, error) {
	ms := m.state
	ms.mu.Lock()
	defer ms.mu.Unlock()

	data, err := ms.view("bytes")
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// String returns the content as text, or "" when it is no longer readable.
func (m *Message) String() string {
	b, err := m.Bytes()
	if err != nil {
		return ""
	}
	return string(b)
}

// More reports whether more frames of the same message follow this received
// frame. 2.x engines return a state error; use Socket.HasMore there.
func (m *Message) More() (bool, error) {
	ms := m.state
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if !ms.open {
		return false, errors.Rejected(errors.PhaseMessage, "more", "message is closed")
	}
	return ms.d.MsgMore(&ms.msg)
}

// Closed reports whether the message was released.
func (m *Message) Closed() bool {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	return !m.state.open
}
