package loopback

import (
	"bytes"
	"slices"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/zmq-runtime/native"
	"github.com/wippyai/zmq-runtime/resource"
)

var kindNames = [...]string{
	native.Pair:   "PAIR",
	native.Pub:    "PUB",
	native.Sub:    "SUB",
	native.Req:    "REQ",
	native.Rep:    "REP",
	native.Dealer: "DEALER",
	native.Router: "ROUTER",
	native.Pull:   "PULL",
	native.Push:   "PUSH",
	native.XPub:   "XPUB",
	native.XSub:   "XSUB",
}

func kindName(kind int) string {
	if kind >= 0 && kind < len(kindNames) {
		return kindNames[kind]
	}
	return "kind(" + strconv.Itoa(kind) + ")"
}

// compatible lists the peer types each socket type attaches to.
var compatible = map[int][]int{
	native.Pair:   {native.Pair},
	native.Pub:    {native.Sub, native.XSub},
	native.XPub:   {native.Sub, native.XSub},
	native.Sub:    {native.Pub, native.XPub},
	native.XSub:   {native.Pub, native.XPub},
	native.Req:    {native.Rep, native.Router},
	native.Rep:    {native.Req, native.Dealer},
	native.Dealer: {native.Rep, native.Router, native.Dealer},
	native.Router: {native.Req, native.Dealer, native.Router},
	native.Push:   {native.Pull},
	native.Pull:   {native.Push},
}

type delivery struct {
	from   *socket
	frames [][]byte
}

type socket struct {
	ctx    *context
	handle native.Handle
	kind   int

	ints  map[int]int64
	bytes map[int][]byte

	peers  []*socket
	next   int
	bound  []string
	routes map[string]*socket
	ids    map[*socket][]byte

	in  []delivery
	cur [][]byte
	out [][]byte

	subs   [][]byte
	topics map[string]int

	awaiting bool
	replying bool
	replyTo  *socket
	envelope [][]byte

	lastEndpoint string
	closed       bool
}

func (s *socket) canSend() bool {
	return s.kind != native.Sub && s.kind != native.Pull
}

func (s *socket) canRecv() bool {
	return s.kind != native.Pub && s.kind != native.Push
}

// usable reports the errno an operation on s fails with, or 0.
func (s *socket) usable() native.Errno {
	if s.closed {
		return native.ENOTSOCK
	}
	if s.ctx.terminated {
		return native.ETERM
	}
	return 0
}

// subscribed reports whether a subscriber wants a message starting with frame.
func (s *socket) subscribed(frame []byte) bool {
	for _, p := range s.subs {
		if bytes.HasPrefix(frame, p) {
			return true
		}
	}
	return false
}

func (s *socket) identity() []byte {
	return s.bytes[native.OptIdentity]
}

// Socket implements native.Lib.
func (e *Engine) Socket(ctx native.Handle, kind int) (native.Handle, error) {
	c, ok := e.contexts.Get(resource.Handle(ctx))
	if !ok {
		return 0, e.fail(native.EFAULT)
	}
	if _, ok := compatible[kind]; !ok {
		return 0, e.fail(native.EINVAL)
	}

	e.mu.Lock()
	if c.terminated {
		e.mu.Unlock()
		return 0, e.fail(native.ETERM)
	}
	if len(c.sockets) >= c.maxSockets {
		e.mu.Unlock()
		return 0, e.fail(native.EMFILE)
	}
	s := &socket{
		ctx:   c,
		kind:  kind,
		ints:  defaultInts(e.version),
		bytes: make(map[int][]byte),
	}
	c.sockets[s] = struct{}{}
	e.mu.Unlock()

	h, err := e.sockets.Insert(s)
	if err != nil {
		e.mu.Lock()
		delete(c.sockets, s)
		e.mu.Unlock()
		return 0, e.fail(native.ENOMEM)
	}
	s.handle = native.Handle(h)
	e.logger.Debug("socket created", zap.Uint64("handle", uint64(s.handle)), zap.String("type", kindName(kind)))
	return s.handle, nil
}

// Close implements native.Lib. Queued messages are discarded.
func (e *Engine) Close(sock native.Handle) (int, error) {
	s, ok := e.sockets.Remove(resource.Handle(sock))
	if !ok {
		return -1, e.fail(native.ENOTSOCK)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s.closed = true
	for _, p := range s.peers {
		e.detachLocked(p, s)
	}
	s.peers = nil
	for _, key := range s.bound {
		delete(e.endpoints, key)
	}
	for key, waiting := range e.pending {
		e.pending[key] = slices.DeleteFunc(waiting, func(w *socket) bool { return w == s })
		if len(e.pending[key]) == 0 {
			delete(e.pending, key)
		}
	}
	s.in, s.cur, s.out = nil, nil, nil
	delete(s.ctx.sockets, s)
	e.signalLocked()

	e.logger.Debug("socket closed", zap.Uint64("handle", uint64(sock)), zap.String("type", kindName(s.kind)))
	return 0, nil
}

// Bind implements native.Lib.
func (e *Engine) Bind(sock native.Handle, addr string) (int, error) {
	s, ok := e.sockets.Get(resource.Handle(sock))
	if !ok {
		return -1, e.fail(native.ENOTSOCK)
	}
	ep, code := parseEndpoint(addr)
	if code != 0 {
		return -1, e.fail(code)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if code := s.usable(); code != 0 {
		return -1, e.fail(code)
	}
	if ep.port == "*" {
		ep.port = strconv.Itoa(e.nextPort)
		e.nextPort++
	}
	key := ep.key()
	if _, taken := e.endpoints[key]; taken {
		return -1, e.fail(native.EADDRINUSE)
	}
	e.endpoints[key] = s
	s.bound = append(s.bound, key)
	s.lastEndpoint = ep.resolved()

	for _, w := range e.pending[key] {
		e.attachLocked(w, s)
	}
	delete(e.pending, key)
	e.signalLocked()

	e.logger.Debug("socket bound", zap.Uint64("handle", uint64(sock)), zap.String("endpoint", s.lastEndpoint))
	return 0, nil
}

// Connect implements native.Lib. Connecting to an unbound inproc endpoint
// fails; other transports wait for a later bind.
func (e *Engine) Connect(sock native.Handle, addr string) (int, error) {
	s, ok := e.sockets.Get(resource.Handle(sock))
	if !ok {
		return -1, e.fail(native.ENOTSOCK)
	}
	ep, code := parseEndpoint(addr)
	if code != 0 {
		return -1, e.fail(code)
	}
	if ep.port == "*" {
		return -1, e.fail(native.EINVAL)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if code := s.usable(); code != 0 {
		return -1, e.fail(code)
	}
	key := ep.key()
	s.lastEndpoint = addr
	if binder, ok := e.endpoints[key]; ok {
		e.attachLocked(s, binder)
		e.signalLocked()
	} else {
		if ep.transport == "inproc" && !e.version.AtLeast(4, 0) {
			return -1, e.fail(native.ECONNREFUSED)
		}
		e.pending[key] = append(e.pending[key], s)
	}

	e.logger.Debug("socket connected", zap.Uint64("handle", uint64(sock)), zap.String("endpoint", addr))
	return 0, nil
}

// attachLocked joins two sockets. Incompatible pairs stay unattached, the way
// a failed handshake leaves them.
func (e *Engine) attachLocked(a, b *socket) {
	if !slices.Contains(compatible[a.kind], b.kind) {
		e.logger.Debug("incompatible socket types, not attaching",
			zap.String("local", kindName(a.kind)), zap.String("peer", kindName(b.kind)))
		return
	}
	a.peers = append(a.peers, b)
	b.peers = append(b.peers, a)
	e.addRouteLocked(a, b)
	e.addRouteLocked(b, a)
	e.announceLocked(a, b)
	e.announceLocked(b, a)
}

func (e *Engine) addRouteLocked(router, peer *socket) {
	if router.kind != native.Router {
		return
	}
	if router.routes == nil {
		router.routes = make(map[string]*socket)
		router.ids = make(map[*socket][]byte)
	}
	id := peer.identity()
	if len(id) == 0 || router.routes[string(id)] != nil {
		u := uuid.New()
		id = append([]byte{0}, u[:4]...)
	}
	router.routes[string(id)] = peer
	router.ids[peer] = id
}

// announceLocked replays the subscriptions of sub to a newly attached XPUB.
func (e *Engine) announceLocked(sub, pub *socket) {
	if pub.kind != native.XPub {
		return
	}
	for _, topic := range sub.subs {
		e.notifySubscriptionLocked(pub, sub, topic, true)
	}
}

func (e *Engine) detachLocked(s, gone *socket) {
	s.peers = slices.DeleteFunc(s.peers, func(p *socket) bool { return p == gone })
	if s.next >= len(s.peers) {
		s.next = 0
	}
	if id, ok := s.ids[gone]; ok {
		delete(s.routes, string(id))
		delete(s.ids, gone)
	}
	if s.kind == native.XPub {
		for _, topic := range gone.subs {
			e.notifySubscriptionLocked(s, gone, topic, false)
		}
	}
}

// notifySubscriptionLocked queues a subscription message on an XPUB. Without
// XPUB_VERBOSE only the first subscribe and the last unsubscribe of a topic
// are passed on.
func (e *Engine) notifySubscriptionLocked(pub, from *socket, topic []byte, subscribe bool) {
	if pub.topics == nil {
		pub.topics = make(map[string]int)
	}
	n := pub.topics[string(topic)]
	verbose := pub.ints[native.OptXPubVerbose] != 0

	var pass bool
	if subscribe {
		pub.topics[string(topic)] = n + 1
		pass = n == 0 || verbose
	} else {
		if n == 0 {
			return
		}
		pub.topics[string(topic)] = n - 1
		pass = n == 1
	}
	if !pass {
		return
	}

	msg := make([]byte, 0, len(topic)+1)
	if subscribe {
		msg = append(msg, 1)
	} else {
		msg = append(msg, 0)
	}
	msg = append(msg, topic...)
	pub.in = append(pub.in, delivery{from: from, frames: [][]byte{msg}})
}

// subscribeLocked updates the subscription set of a SUB or XSUB and tells
// attached XPUB peers.
func (e *Engine) subscribeLocked(s *socket, topic []byte, subscribe bool) {
	topic = bytes.Clone(topic)
	if topic == nil {
		topic = []byte{}
	}
	if subscribe {
		s.subs = append(s.subs, topic)
	} else {
		i := slices.IndexFunc(s.subs, func(p []byte) bool { return bytes.Equal(p, topic) })
		if i < 0 {
			return
		}
		s.subs = slices.Delete(s.subs, i, i+1)
	}
	for _, p := range s.peers {
		if p.kind == native.XPub {
			e.notifySubscriptionLocked(p, s, topic, subscribe)
		}
	}
	e.signalLocked()
}
