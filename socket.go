package zmqruntime

import (
	"runtime"
	"sync"
	"weak"

	"go.uber.org/zap"

	"github.com/wippyai/zmq-runtime/dispatch"
	"github.com/wippyai/zmq-runtime/errors"
	"github.com/wippyai/zmq-runtime/native"
)

// Socket is a native socket owned by a Context. A Socket keeps its Context
// reachable. It is not safe for concurrent use, except that Close may be
// called from any goroutine.
type Socket struct {
	state   *socketState
	ctx     *Context
	cleanup runtime.Cleanup
}

type socketState struct {
	ctx    *contextState
	d      *dispatch.Dispatcher
	logger *zap.Logger
	owner  weak.Pointer[Socket]
	handle native.Handle
	kind   SocketType
	mu     sync.Mutex
}

// close releases the native socket. The handle is cleared only when the
// engine accepted the close, so a failed close can be retried.
func (ss *socketState) close() error {
	ss.mu.Lock()
	if ss.handle == 0 {
		ss.mu.Unlock()
		return nil
	}
	if err := ss.d.CloseSocket(ss.handle); err != nil {
		ss.mu.Unlock()
		return err
	}
	ss.handle = 0
	ss.mu.Unlock()

	ss.ctx.unregister(ss)
	ss.logger.Debug("socket closed", zap.Stringer("type", ss.kind))
	return nil
}

func (ss *socketState) live(phase errors.Phase, op string) (native.Handle, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.handle == 0 {
		return 0, errors.Rejected(phase, op, "socket is closed")
	}
	return ss.handle, nil
}

// Close closes the socket and removes it from its context. Closing twice is
// a no-op.
func (s *Socket) Close() error {
	if err := s.state.close(); err != nil {
		return err
	}
	s.cleanup.Stop()
	return nil
}

// Closed reports whether the socket was closed.
func (s *Socket) Closed() bool {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return s.state.handle == 0
}

// Type returns the socket type.
func (s *Socket) Type() SocketType {
	return s.state.kind
}

// Context returns the owning context.
func (s *Socket) Context() *Context {
	return s.ctx
}

// Bind attaches the socket to a local endpoint such as "tcp://*:5555".
func (s *Socket) Bind(endpoint string) error {
	h, err := s.state.live(errors.PhaseSocket, "bind")
	if err != nil {
		return err
	}
	return s.state.d.Bind(h, endpoint)
}

// Connect attaches the socket to a remote endpoint.
func (s *Socket) Connect(endpoint string) error {
	h, err := s.state.live(errors.PhaseSocket, "connect")
	if err != nil {
		return err
	}
	return s.state.d.Connect(h, endpoint)
}

// Send transfers msg. After Send the message may only be closed, whether or
// not the transfer succeeded.
func (s *Socket) Send(msg *Message, flags Flag) error {
	h, err := s.state.live(errors.PhaseTransfer, "send")
	if err != nil {
		return err
	}
	ms := msg.state
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if err := ms.usable("send"); err != nil {
		return err
	}
	if ms.d != s.state.d {
		return errors.Rejected(errors.PhaseTransfer, "send", "message belongs to a different engine")
	}
	ms.sent = true
	return s.state.d.Send(h, &ms.msg, int(flags))
}

// SendMessage is Send with the flag word composed from booleans.
func (s *Socket) SendMessage(msg *Message, nonBlocking, sendMore bool) error {
	return s.Send(msg, Flag(dispatch.Flags(nonBlocking, sendMore)))
}

// Recv receives the next frame into a new message.
func (s *Socket) Recv(flags Flag) (*Message, error) {
	h, err := s.state.live(errors.PhaseTransfer, "recv")
	if err != nil {
		return nil, err
	}
	m, err := newMessage(s.state.d, s.state.logger)
	if err != nil {
		return nil, err
	}
	if err := s.state.d.Recv(h, &m.state.msg, int(flags)); err != nil {
		_ = m.Close()
		return nil, err
	}
	return m, nil
}

// RecvMessage is Recv with the flag word composed from a boolean.
func (s *Socket) RecvMessage(nonBlocking bool) (*Message, error) {
	return s.Recv(Flag(dispatch.Flags(nonBlocking, false)))
}

// SendBytes sends data as one frame.
func (s *Socket) SendBytes(data []byte, flags Flag) error {
	m, err := newMessageFromBytes(s.state.d, s.state.logger, data)
	if err != nil {
		return err
	}
	defer m.Close()
	return s.Send(m, flags)
}

// SendString sends text as one frame.
func (s *Socket) SendString(text string, flags Flag) error {
	return s.SendBytes([]byte(text), flags)
}

// RecvBytes receives one frame and returns a copy of its content.
func (s *Socket) RecvBytes(flags Flag) ([]byte, error) {
	m, err := s.Recv(flags)
	if err != nil {
		return nil, err
	}
	defer m.Close()
	return m.Bytes()
}

// RecvString receives one frame as text.
func (s *Socket) RecvString(flags Flag) (string, error) {
	b, err := s.RecvBytes(flags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SendMultipart sends parts as one message. SndMore is added to every part
// but the last.
func (s *Socket) SendMultipart(parts [][]byte, flags Flag) error {
	if len(parts) == 0 {
		return errors.Rejected(errors.PhaseTransfer, "send", "empty multi-part message")
	}
	for i, p := range parts {
		f := flags &^ SndMore
		if i < len(parts)-1 {
			f |= SndMore
		}
		if err := s.SendBytes(p, f); err != nil {
			return err
		}
	}
	return nil
}

// RecvMultipart receives every frame of the next message.
func (s *Socket) RecvMultipart(flags Flag) ([][]byte, error) {
	var parts [][]byte
	for {
		b, err := s.RecvBytes(flags)
		if err != nil {
			return parts, err
		}
		parts = append(parts, b)

		more, err := s.HasMore()
		if err != nil {
			return parts, err
		}
		if !more {
			return parts, nil
		}
	}
}

// HasMore reports whether the last received frame has more frames following.
func (s *Socket) HasMore() (bool, error) {
	return s.RcvMore()
}
