package zmqruntime

import (
	"strconv"
	"strings"

	"github.com/wippyai/zmq-runtime/native"
)

// SocketType selects the messaging pattern of a socket.
type SocketType int

const (
	Pair   SocketType = native.Pair
	Pub    SocketType = native.Pub
	Sub    SocketType = native.Sub
	Req    SocketType = native.Req
	Rep    SocketType = native.Rep
	Dealer SocketType = native.Dealer
	Router SocketType = native.Router
	Pull   SocketType = native.Pull
	Push   SocketType = native.Push
	XPub   SocketType = native.XPub
	XSub   SocketType = native.XSub

	// Legacy names.
	XReq       = Dealer
	XRep       = Router
	Upstream   = Pull
	Downstream = Push
)

var socketTypeNames = map[SocketType]string{
	Pair:   "PAIR",
	Pub:    "PUB",
	Sub:    "SUB",
	Req:    "REQ",
	Rep:    "REP",
	Dealer: "DEALER",
	Router: "ROUTER",
	Pull:   "PULL",
	Push:   "PUSH",
	XPub:   "XPUB",
	XSub:   "XSUB",
}

func (t SocketType) String() string {
	if s, ok := socketTypeNames[t]; ok {
		return s
	}
	return "SocketType(" + strconv.Itoa(int(t)) + ")"
}

// ParseSocketType resolves a type name such as "REQ" or the legacy "XREP".
// Case is ignored.
func ParseSocketType(name string) (SocketType, bool) {
	name = strings.ToUpper(name)
	switch name {
	case "XREQ":
		return XReq, true
	case "XREP":
		return XRep, true
	case "UPSTREAM":
		return Upstream, true
	case "DOWNSTREAM":
		return Downstream, true
	}
	for t, s := range socketTypeNames {
		if s == name {
			return t, true
		}
	}
	return 0, false
}

// Flag is the send/receive flag word.
type Flag int

const (
	// DontWait makes a transfer fail with EAGAIN instead of blocking.
	DontWait Flag = native.FlagDontWait
	// NoBlock is the 2.x name of DontWait.
	NoBlock Flag = native.FlagDontWait
	// SndMore marks a frame as followed by more frames of the same message.
	SndMore Flag = native.FlagSndMore
)

// Poll event bits, as reported by Socket.Events.
const (
	PollIn  = native.PollIn
	PollOut = native.PollOut
	PollErr = native.PollErr
)

// Device kinds of the 2.x device call.
const (
	Streamer  = native.DeviceStreamer
	Forwarder = native.DeviceForwarder
	Queue     = native.DeviceQueue
)

// ContextOption identifies a context option (3.x).
type ContextOption int

const (
	IOThreads  ContextOption = native.CtxIOThreads
	MaxSockets ContextOption = native.CtxMaxSockets
)

// More is the message property set on every frame but the last of a
// multi-part message.
const More = native.MsgMore

// Engine error codes.
const (
	EAGAIN          = native.EAGAIN
	EINVAL          = native.EINVAL
	ENOTSUP         = native.ENOTSUP
	EPROTONOSUPPORT = native.EPROTONOSUPPORT
	EADDRINUSE      = native.EADDRINUSE
	ENOTSOCK        = native.ENOTSOCK
	EFAULT          = native.EFAULT
	EHOSTUNREACH    = native.EHOSTUNREACH
	EFSM            = native.EFSM
	ENOCOMPATPROTO  = native.ENOCOMPATPROTO
	ETERM           = native.ETERM
	EMTHREAD        = native.EMTHREAD
)
