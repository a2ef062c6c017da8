package loopback

import (
	"bytes"
	"time"

	"github.com/wippyai/zmq-runtime/native"
	"github.com/wippyai/zmq-runtime/resource"
)

// Send implements native.Rev2. The content moves to the engine and the
// message is left empty.
func (e *Engine) Send(sock native.Handle, m *native.Msg, flags int) (int, error) {
	if _, err := e.send(sock, m, flags); err != nil {
		return -1, err
	}
	return 0, nil
}

// Recv implements native.Rev2.
func (e *Engine) Recv(sock native.Handle, m *native.Msg, flags int) (int, error) {
	if _, err := e.recv(sock, m, flags); err != nil {
		return -1, err
	}
	return 0, nil
}

// SendMsg implements native.Rev3.
func (e *Engine) SendMsg(sock native.Handle, m *native.Msg, flags int) (int, error) {
	n, err := e.send(sock, m, flags)
	if err != nil {
		return -1, err
	}
	return n, nil
}

// RecvMsg implements native.Rev3.
func (e *Engine) RecvMsg(sock native.Handle, m *native.Msg, flags int) (int, error) {
	n, err := e.recv(sock, m, flags)
	if err != nil {
		return -1, err
	}
	return n, nil
}

// deadline converts the flags and the socket timeout into a wait limit.
// ok is false when the call must not block at all.
func deadline(flags int, timeoutMs int64) (limit time.Time, ok bool) {
	if flags&native.FlagDontWait != 0 || timeoutMs == 0 {
		return time.Time{}, false
	}
	if timeoutMs < 0 {
		return time.Time{}, true
	}
	return time.Now().Add(time.Duration(timeoutMs) * time.Millisecond), true
}

// waitLocked blocks until the engine state changes. It reports false when
// limit passed first. e.mu is held on entry and on return.
func (e *Engine) waitLocked(limit time.Time) bool {
	ch := e.changed
	e.mu.Unlock()
	defer e.mu.Lock()

	if limit.IsZero() {
		<-ch
		return true
	}
	d := time.Until(limit)
	if d <= 0 {
		return false
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ch:
		return true
	case <-t.C:
		return false
	}
}

func (e *Engine) send(sock native.Handle, m *native.Msg, flags int) (int, error) {
	s, ok := e.sockets.Get(resource.Handle(sock))
	if !ok {
		return 0, e.fail(native.ENOTSOCK)
	}
	msg, ok := e.message(m)
	if !ok {
		return 0, e.fail(native.EFAULT)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if code := s.usable(); code != 0 {
		return 0, e.fail(code)
	}
	if !s.canSend() {
		return 0, e.fail(native.ENOTSUP)
	}
	if len(s.out) == 0 {
		switch {
		case s.kind == native.Req && s.awaiting:
			return 0, e.fail(native.EFSM)
		case s.kind == native.Rep && !s.replying:
			return 0, e.fail(native.EFSM)
		}
	}

	frame := msg.data
	if frame == nil {
		frame = []byte{}
	}
	if flags&native.FlagSndMore != 0 {
		if len(s.out) == 0 {
			limit, block := deadline(flags, s.ints[native.OptSndTimeo])
			for !s.routable() {
				if !block || !e.waitLocked(limit) {
					return 0, e.fail(native.EAGAIN)
				}
				if code := s.usable(); code != 0 {
					return 0, e.fail(code)
				}
			}
		}
		s.out = append(s.out, frame)
		msg.data = nil
		return len(frame), nil
	}

	frames := append(s.out[:len(s.out):len(s.out)], frame)
	limit, block := deadline(flags, s.ints[native.OptSndTimeo])
	for {
		code, done := e.routeLocked(s, frames)
		if code != 0 {
			s.out = nil
			return 0, e.fail(code)
		}
		if done {
			break
		}
		if !block || !e.waitLocked(limit) {
			return 0, e.fail(native.EAGAIN)
		}
		if code := s.usable(); code != 0 {
			return 0, e.fail(code)
		}
	}

	s.out = nil
	msg.data = nil
	return len(frame), nil
}

// routeLocked hands a complete message to peers. done is false when the
// message has nowhere to go yet and the caller may wait.
func (e *Engine) routeLocked(s *socket, frames [][]byte) (code native.Errno, done bool) {
	switch s.kind {
	case native.Pub, native.XPub:
		for _, p := range s.peers {
			if p.subscribed(frames[0]) {
				e.deliverLocked(p, s, cloneFrames(frames))
			}
		}
		return 0, true

	case native.XSub:
		if f := frames[0]; len(f) > 0 && (f[0] == 0 || f[0] == 1) {
			e.subscribeLocked(s, f[1:], f[0] == 1)
		}
		return 0, true

	case native.Router:
		if len(frames) < 2 {
			return 0, true
		}
		p := s.routes[string(frames[0])]
		if p == nil {
			if s.ints[native.OptRouterMandatory] != 0 {
				return native.EHOSTUNREACH, false
			}
			return 0, true
		}
		e.deliverLocked(p, s, frames[1:])
		return 0, true

	case native.Rep:
		e.deliverLocked(s.replyTo, s, append(s.envelope, frames...))
		s.replying, s.replyTo, s.envelope = false, nil, nil
		return 0, true

	case native.Req:
		p := s.nextPeer()
		if p == nil {
			return 0, false
		}
		e.deliverLocked(p, s, append([][]byte{{}}, frames...))
		s.awaiting = true
		return 0, true

	default:
		p := s.nextPeer()
		if p == nil {
			return 0, false
		}
		e.deliverLocked(p, s, frames)
		return 0, true
	}
}

// routable reports whether a message started now has somewhere to go.
// Kinds that drop unroutable messages are always routable.
func (s *socket) routable() bool {
	switch s.kind {
	case native.Pub, native.XPub, native.XSub, native.Router, native.Rep:
		return true
	default:
		return len(s.peers) > 0
	}
}

func (s *socket) nextPeer() *socket {
	if len(s.peers) == 0 {
		return nil
	}
	if s.kind == native.Pair {
		return s.peers[0]
	}
	if s.next >= len(s.peers) {
		s.next = 0
	}
	p := s.peers[s.next]
	s.next = (s.next + 1) % len(s.peers)
	return p
}

func (e *Engine) deliverLocked(to, from *socket, frames [][]byte) {
	if to == nil || to.closed {
		return
	}
	to.in = append(to.in, delivery{from: from, frames: frames})
	e.signalLocked()
}

func (e *Engine) recv(sock native.Handle, m *native.Msg, flags int) (int, error) {
	s, ok := e.sockets.Get(resource.Handle(sock))
	if !ok {
		return 0, e.fail(native.ENOTSOCK)
	}
	msg, ok := e.message(m)
	if !ok {
		return 0, e.fail(native.EFAULT)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if code := s.usable(); code != 0 {
		return 0, e.fail(code)
	}
	if !s.canRecv() {
		return 0, e.fail(native.ENOTSUP)
	}
	if len(s.cur) == 0 {
		switch {
		case s.kind == native.Req && !s.awaiting:
			return 0, e.fail(native.EFSM)
		case s.kind == native.Rep && s.replying:
			return 0, e.fail(native.EFSM)
		}
	}

	limit, block := deadline(flags, s.ints[native.OptRcvTimeo])
	for len(s.cur) == 0 {
		if e.popLocked(s) {
			break
		}
		if !block || !e.waitLocked(limit) {
			return 0, e.fail(native.EAGAIN)
		}
		if code := s.usable(); code != 0 {
			return 0, e.fail(code)
		}
	}

	frame := s.cur[0]
	s.cur = s.cur[1:]
	more := len(s.cur) > 0
	if !more {
		switch s.kind {
		case native.Req:
			s.awaiting = false
		case native.Rep:
			s.replying = true
		}
	}

	msg.data = frame
	msg.more = more
	return len(frame), nil
}

// popLocked moves the next queued message into the frame cursor, unwrapping
// envelopes for the socket type. Malformed messages are dropped.
func (e *Engine) popLocked(s *socket) bool {
	for len(s.in) > 0 {
		d := s.in[0]
		s.in[0] = delivery{}
		s.in = s.in[1:]

		switch s.kind {
		case native.Router:
			id := s.ids[d.from]
			if id == nil {
				continue
			}
			s.cur = append([][]byte{bytes.Clone(id)}, d.frames...)
			return true

		case native.Req, native.Rep:
			i := delimiter(d.frames)
			if i < 0 || i == len(d.frames)-1 {
				continue
			}
			if s.kind == native.Rep {
				s.replyTo = d.from
				s.envelope = d.frames[: i+1 : i+1]
			}
			s.cur = d.frames[i+1:]
			return true

		default:
			if len(d.frames) == 0 {
				continue
			}
			s.cur = d.frames
			return true
		}
	}
	return false
}

// cloneFrames copies frames fanned out to several receivers so each one owns
// its content.
func cloneFrames(frames [][]byte) [][]byte {
	out := make([][]byte, len(frames))
	for i, f := range frames {
		out[i] = bytes.Clone(f)
	}
	return out
}

func delimiter(frames [][]byte) int {
	for i, f := range frames {
		if len(f) == 0 {
			return i
		}
	}
	return -1
}
