package loopback

import (
	"github.com/wippyai/zmq-runtime/native"
	"github.com/wippyai/zmq-runtime/options"
	"github.com/wippyai/zmq-runtime/resource"
)

var rev2Defaults = map[int]int64{
	native.OptRate:            100,
	native.OptRecoveryIvl:     10,
	native.OptMcastLoop:       1,
	native.OptLinger:          -1,
	native.OptReconnectIvl:    100,
	native.OptBacklog:         100,
	native.OptRecoveryIvlMsec: -1,
	native.OptRcvTimeo:        -1,
	native.OptSndTimeo:        -1,
}

var rev3Defaults = map[int]int64{
	native.OptRate:              100,
	native.OptRecoveryIvl:       10000,
	native.OptLinger:            -1,
	native.OptReconnectIvl:      100,
	native.OptBacklog:           100,
	native.OptMaxMsgSize:        -1,
	native.OptSndHWM:            1000,
	native.OptRcvHWM:            1000,
	native.OptMulticastHops:     1,
	native.OptRcvTimeo:          -1,
	native.OptSndTimeo:          -1,
	native.OptIPv4Only:          1,
	native.OptTCPKeepalive:      -1,
	native.OptTCPKeepaliveCnt:   -1,
	native.OptTCPKeepaliveIdle:  -1,
	native.OptTCPKeepaliveIntvl: -1,
}

func defaultInts(v native.Version) map[int]int64 {
	src := rev3Defaults
	if v.Major == 2 {
		src = rev2Defaults
	}
	out := make(map[int]int64, len(src))
	for id, val := range src {
		out[id] = val
	}
	return out
}

// Setsockopt implements native.Lib. Integer values must be exactly the width
// of the option's native type.
func (e *Engine) Setsockopt(sock native.Handle, opt int, val []byte) (int, error) {
	s, ok := e.sockets.Get(resource.Handle(sock))
	if !ok {
		return -1, e.fail(native.ENOTSOCK)
	}
	if e.options == nil {
		return -1, e.fail(native.EINVAL)
	}
	entry, ok := e.options.ByID(opt)
	if !ok || !entry.CanSet() {
		return -1, e.fail(native.EINVAL)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if code := s.usable(); code != 0 {
		return -1, e.fail(code)
	}

	if entry.Encoding == options.Bytes {
		if len(val) > native.MaxOptionBytes {
			return -1, e.fail(native.EINVAL)
		}
		switch opt {
		case native.OptSubscribe, native.OptUnsubscribe:
			if s.kind != native.Sub {
				return -1, e.fail(native.EINVAL)
			}
			e.subscribeLocked(s, val, opt == native.OptSubscribe)
		case native.OptIdentity:
			if len(val) == 0 || val[0] == 0 {
				return -1, e.fail(native.EINVAL)
			}
			s.bytes[opt] = append([]byte(nil), val...)
		default:
			s.bytes[opt] = append([]byte(nil), val...)
		}
		return 0, nil
	}

	if len(val) != entry.Encoding.Width() {
		return -1, e.fail(native.EINVAL)
	}
	v := entry.Encoding.Value(val)
	switch opt {
	case native.OptRouterMandatory:
		if s.kind != native.Router {
			return -1, e.fail(native.EINVAL)
		}
	case native.OptXPubVerbose:
		if s.kind != native.XPub {
			return -1, e.fail(native.EINVAL)
		}
	}
	s.ints[opt] = v
	return 0, nil
}

// Getsockopt implements native.Lib.
func (e *Engine) Getsockopt(sock native.Handle, opt int, buf []byte) (int, int, error) {
	s, ok := e.sockets.Get(resource.Handle(sock))
	if !ok {
		return -1, 0, e.fail(native.ENOTSOCK)
	}
	if e.options == nil {
		return -1, 0, e.fail(native.EINVAL)
	}
	entry, ok := e.options.ByID(opt)
	if !ok || !entry.CanGet() {
		return -1, 0, e.fail(native.EINVAL)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if code := s.usable(); code != 0 {
		return -1, 0, e.fail(code)
	}

	if entry.Encoding == options.Bytes {
		var v []byte
		if opt == native.OptLastEndpoint {
			v = append([]byte(s.lastEndpoint), 0)
		} else {
			v = s.bytes[opt]
		}
		if len(v) > len(buf) {
			return -1, 0, e.fail(native.EINVAL)
		}
		return 0, copy(buf, v), nil
	}

	width := entry.Encoding.Width()
	if len(buf) < width {
		return -1, 0, e.fail(native.EINVAL)
	}

	var v int64
	switch opt {
	case native.OptType:
		v = int64(s.kind)
	case native.OptRcvMore:
		if len(s.cur) > 0 {
			v = 1
		}
	case native.OptEvents:
		v = int64(e.eventsLocked(s))
	case native.OptFD:
		v = -1
	default:
		v = s.ints[opt]
	}
	entry.Encoding.Put(buf[:width], v)
	return 0, width, nil
}

// eventsLocked reports which transfers would complete without blocking.
func (e *Engine) eventsLocked(s *socket) int {
	var ev int
	if s.canRecv() && (len(s.cur) > 0 || len(s.in) > 0) {
		if s.kind != native.Req || s.awaiting {
			ev |= native.PollIn
		}
	}
	if s.canSend() {
		switch s.kind {
		case native.Pub, native.XPub, native.Router:
			ev |= native.PollOut
		case native.Rep:
			if s.replying {
				ev |= native.PollOut
			}
		case native.Req:
			if !s.awaiting && len(s.peers) > 0 {
				ev |= native.PollOut
			}
		default:
			if len(s.peers) > 0 {
				ev |= native.PollOut
			}
		}
	}
	return ev
}
