package loopback

import (
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/zmq-runtime/native"
	"github.com/wippyai/zmq-runtime/resource"
)

func newContext(t *testing.T, e *Engine) native.Handle {
	t.Helper()
	ctx, err := e.CtxNew()
	require.NoError(t, err)
	require.NotZero(t, ctx)
	return ctx
}

func newSocket(t *testing.T, e *Engine, ctx native.Handle, kind int) native.Handle {
	t.Helper()
	s, err := e.Socket(ctx, kind)
	require.NoError(t, err)
	require.NotZero(t, s)
	return s
}

func sendFrame(t *testing.T, e *Engine, sock native.Handle, data string, flags int) {
	t.Helper()
	var m native.Msg
	_, err := e.MsgInitSize(&m, len(data))
	require.NoError(t, err)
	copy(e.MsgData(&m), data)
	n, err := e.SendMsg(sock, &m, flags)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	_, err = e.MsgClose(&m)
	require.NoError(t, err)
}

func recvFrame(t *testing.T, e *Engine, sock native.Handle, flags int) (string, bool) {
	t.Helper()
	var m native.Msg
	_, err := e.MsgInit(&m)
	require.NoError(t, err)
	defer e.MsgClose(&m)
	_, err = e.RecvMsg(sock, &m, flags)
	require.NoError(t, err)
	more, err := e.MsgGet(&m, native.MsgMore)
	require.NoError(t, err)
	return string(e.MsgData(&m)), more == 1
}

func intOpt(v int32) []byte {
	var b [4]byte
	binary.NativeEndian.PutUint32(b[:], uint32(v))
	return b[:]
}

func TestEngine_DefaultVersion(t *testing.T) {
	e := New()
	assert.Equal(t, DefaultVersion, e.Version())

	e = New(WithVersion(2, 2, 0))
	assert.Equal(t, native.Version{Major: 2, Minor: 2}, e.Version())
}

func TestEngine_PushPull(t *testing.T) {
	e := New()
	ctx := newContext(t, e)
	push := newSocket(t, e, ctx, native.Push)
	pull := newSocket(t, e, ctx, native.Pull)

	_, err := e.Bind(pull, "inproc://pipeline")
	require.NoError(t, err)
	_, err = e.Connect(push, "inproc://pipeline")
	require.NoError(t, err)

	sendFrame(t, e, push, "a", native.FlagSndMore)
	sendFrame(t, e, push, "b", 0)

	got, more := recvFrame(t, e, pull, 0)
	assert.Equal(t, "a", got)
	assert.True(t, more)
	got, more = recvFrame(t, e, pull, 0)
	assert.Equal(t, "b", got)
	assert.False(t, more)
}

func TestEngine_ReqRepStateMachine(t *testing.T) {
	e := New()
	ctx := newContext(t, e)
	req := newSocket(t, e, ctx, native.Req)
	rep := newSocket(t, e, ctx, native.Rep)

	_, err := e.Bind(rep, "tcp://*:5555")
	require.NoError(t, err)
	_, err = e.Connect(req, "tcp://localhost:5555")
	require.NoError(t, err)

	var m native.Msg
	_, err = e.MsgInit(&m)
	require.NoError(t, err)
	_, err = e.RecvMsg(req, &m, 0)
	assert.ErrorIs(t, err, native.EFSM)
	_, err = e.SendMsg(rep, &m, 0)
	assert.ErrorIs(t, err, native.EFSM)
	_, _ = e.MsgClose(&m)

	sendFrame(t, e, req, "ping", 0)

	_, err = e.MsgInit(&m)
	require.NoError(t, err)
	_, err = e.SendMsg(req, &m, 0)
	assert.ErrorIs(t, err, native.EFSM)
	_, _ = e.MsgClose(&m)

	got, more := recvFrame(t, e, rep, 0)
	assert.Equal(t, "ping", got)
	assert.False(t, more)

	sendFrame(t, e, rep, "pong", 0)
	got, _ = recvFrame(t, e, req, 0)
	assert.Equal(t, "pong", got)
}

func TestEngine_RouterDealer(t *testing.T) {
	e := New()
	ctx := newContext(t, e)
	router := newSocket(t, e, ctx, native.Router)
	dealer := newSocket(t, e, ctx, native.Dealer)

	_, err := e.Setsockopt(dealer, native.OptIdentity, []byte("worker-1"))
	require.NoError(t, err)
	_, err = e.Bind(router, "ipc:///tmp/router")
	require.NoError(t, err)
	_, err = e.Connect(dealer, "ipc:///tmp/router")
	require.NoError(t, err)

	sendFrame(t, e, dealer, "hello", 0)

	id, more := recvFrame(t, e, router, 0)
	assert.Equal(t, "worker-1", id)
	assert.True(t, more)
	body, more := recvFrame(t, e, router, 0)
	assert.Equal(t, "hello", body)
	assert.False(t, more)

	sendFrame(t, e, router, "worker-1", native.FlagSndMore)
	sendFrame(t, e, router, "back", 0)
	got, _ := recvFrame(t, e, dealer, 0)
	assert.Equal(t, "back", got)
}

func TestEngine_RouterMandatory(t *testing.T) {
	e := New()
	ctx := newContext(t, e)
	router := newSocket(t, e, ctx, native.Router)

	// unknown identities are dropped silently by default
	sendFrame(t, e, router, "nobody", native.FlagSndMore)
	sendFrame(t, e, router, "x", 0)

	_, err := e.Setsockopt(router, native.OptRouterMandatory, intOpt(1))
	require.NoError(t, err)

	sendFrame(t, e, router, "nobody", native.FlagSndMore)
	var m native.Msg
	_, err = e.MsgInit(&m)
	require.NoError(t, err)
	defer e.MsgClose(&m)
	_, err = e.SendMsg(router, &m, 0)
	assert.ErrorIs(t, err, native.EHOSTUNREACH)
}

func TestEngine_PubSubPrefixMatch(t *testing.T) {
	e := New()
	ctx := newContext(t, e)
	pub := newSocket(t, e, ctx, native.Pub)
	sub := newSocket(t, e, ctx, native.Sub)

	_, err := e.Bind(pub, "inproc://feed")
	require.NoError(t, err)
	_, err = e.Connect(sub, "inproc://feed")
	require.NoError(t, err)
	_, err = e.Setsockopt(sub, native.OptSubscribe, []byte("weather."))
	require.NoError(t, err)

	sendFrame(t, e, pub, "sports.score", 0)
	sendFrame(t, e, pub, "weather.rain", 0)

	got, _ := recvFrame(t, e, sub, 0)
	assert.Equal(t, "weather.rain", got)

	var m native.Msg
	_, err = e.MsgInit(&m)
	require.NoError(t, err)
	defer e.MsgClose(&m)
	_, err = e.RecvMsg(sub, &m, native.FlagDontWait)
	assert.ErrorIs(t, err, native.EAGAIN)
}

func TestEngine_XPubNotifications(t *testing.T) {
	e := New()
	ctx := newContext(t, e)
	xpub := newSocket(t, e, ctx, native.XPub)
	sub1 := newSocket(t, e, ctx, native.Sub)
	sub2 := newSocket(t, e, ctx, native.Sub)

	_, err := e.Bind(xpub, "inproc://x")
	require.NoError(t, err)
	for _, s := range []native.Handle{sub1, sub2} {
		_, err = e.Connect(s, "inproc://x")
		require.NoError(t, err)
		_, err = e.Setsockopt(s, native.OptSubscribe, []byte("t"))
		require.NoError(t, err)
	}

	got, _ := recvFrame(t, e, xpub, 0)
	assert.Equal(t, "\x01t", got)

	var m native.Msg
	_, err = e.MsgInit(&m)
	require.NoError(t, err)
	_, err = e.RecvMsg(xpub, &m, native.FlagDontWait)
	assert.ErrorIs(t, err, native.EAGAIN, "duplicate subscription is folded")
	_, _ = e.MsgClose(&m)

	_, err = e.Close(sub1)
	require.NoError(t, err)
	_, err = e.Close(sub2)
	require.NoError(t, err)
	got, _ = recvFrame(t, e, xpub, 0)
	assert.Equal(t, "\x00t", got)
}

func TestEngine_NonBlockingMultipartWithoutPeer(t *testing.T) {
	e := New()
	ctx := newContext(t, e)
	push := newSocket(t, e, ctx, native.Push)
	pull := newSocket(t, e, ctx, native.Pull)

	var m native.Msg
	_, err := e.MsgInitSize(&m, 1)
	require.NoError(t, err)
	_, err = e.SendMsg(push, &m, native.FlagDontWait|native.FlagSndMore)
	assert.ErrorIs(t, err, native.EAGAIN)
	_, err = e.MsgClose(&m)
	require.NoError(t, err)

	_, err = e.Bind(pull, "inproc://late-peer")
	require.NoError(t, err)
	_, err = e.Connect(push, "inproc://late-peer")
	require.NoError(t, err)

	sendFrame(t, e, push, "a", native.FlagDontWait|native.FlagSndMore)
	sendFrame(t, e, push, "b", native.FlagDontWait)

	got, more := recvFrame(t, e, pull, native.FlagDontWait)
	assert.Equal(t, "a", got)
	assert.True(t, more)
	got, more = recvFrame(t, e, pull, native.FlagDontWait)
	assert.Equal(t, "b", got)
	assert.False(t, more)

	pub := newSocket(t, e, ctx, native.Pub)
	sendFrame(t, e, pub, "topic", native.FlagDontWait|native.FlagSndMore)
	sendFrame(t, e, pub, "dropped", native.FlagDontWait)
}

func TestEngine_UnsupportedDirection(t *testing.T) {
	e := New()
	ctx := newContext(t, e)
	pub := newSocket(t, e, ctx, native.Pub)
	pull := newSocket(t, e, ctx, native.Pull)

	var m native.Msg
	_, err := e.MsgInit(&m)
	require.NoError(t, err)
	defer e.MsgClose(&m)

	_, err = e.RecvMsg(pub, &m, 0)
	assert.ErrorIs(t, err, native.ENOTSUP)
	_, err = e.SendMsg(pull, &m, 0)
	assert.ErrorIs(t, err, native.ENOTSUP)
}

func TestEngine_BlockingRecvWakesOnSend(t *testing.T) {
	e := New()
	ctx := newContext(t, e)
	a := newSocket(t, e, ctx, native.Pair)
	b := newSocket(t, e, ctx, native.Pair)
	_, err := e.Bind(a, "inproc://pair")
	require.NoError(t, err)
	_, err = e.Connect(b, "inproc://pair")
	require.NoError(t, err)

	done := make(chan string)
	go func() {
		var m native.Msg
		_, _ = e.MsgInit(&m)
		defer e.MsgClose(&m)
		if _, err := e.RecvMsg(a, &m, 0); err != nil {
			done <- err.Error()
			return
		}
		done <- string(e.MsgData(&m))
	}()

	time.Sleep(10 * time.Millisecond)
	sendFrame(t, e, b, "wake", 0)

	select {
	case got := <-done:
		assert.Equal(t, "wake", got)
	case <-time.After(2 * time.Second):
		t.Fatal("receiver did not wake")
	}
}

func TestEngine_RecvTimeout(t *testing.T) {
	e := New()
	ctx := newContext(t, e)
	pull := newSocket(t, e, ctx, native.Pull)
	_, err := e.Setsockopt(pull, native.OptRcvTimeo, intOpt(20))
	require.NoError(t, err)

	var m native.Msg
	_, err = e.MsgInit(&m)
	require.NoError(t, err)
	defer e.MsgClose(&m)

	start := time.Now()
	n, err := e.RecvMsg(pull, &m, 0)
	assert.Equal(t, -1, n)
	assert.ErrorIs(t, err, native.EAGAIN)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, native.EAGAIN, e.Errno())
}

func TestEngine_Endpoints(t *testing.T) {
	e := New()
	ctx := newContext(t, e)
	a := newSocket(t, e, ctx, native.Pull)
	b := newSocket(t, e, ctx, native.Pull)
	c := newSocket(t, e, ctx, native.Push)

	_, err := e.Bind(a, "bogus")
	assert.ErrorIs(t, err, native.EINVAL)
	_, err = e.Bind(a, "udp://x")
	assert.ErrorIs(t, err, native.EPROTONOSUPPORT)
	_, err = e.Connect(c, "inproc://missing")
	assert.ErrorIs(t, err, native.ECONNREFUSED)

	_, err = e.Bind(a, "tcp://*:*")
	require.NoError(t, err)
	buf := make([]byte, native.MaxOptionBytes)
	rc, n, err := e.Getsockopt(a, native.OptLastEndpoint, buf)
	require.NoError(t, err)
	require.Zero(t, rc)
	assert.Equal(t, "tcp://0.0.0.0:49152\x00", string(buf[:n]))

	_, err = e.Bind(b, "tcp://127.0.0.1:49152")
	assert.ErrorIs(t, err, native.EADDRINUSE)

	// tcp connects before bind attach once the endpoint appears
	_, err = e.Connect(c, "tcp://localhost:6000")
	require.NoError(t, err)
	_, err = e.Bind(b, "tcp://*:6000")
	require.NoError(t, err)
	sendFrame(t, e, c, "late", 0)
	got, _ := recvFrame(t, e, b, 0)
	assert.Equal(t, "late", got)
}

func TestEngine_IncompatiblePeersStayDetached(t *testing.T) {
	e := New()
	ctx := newContext(t, e)
	push := newSocket(t, e, ctx, native.Push)
	sub := newSocket(t, e, ctx, native.Sub)

	_, err := e.Bind(sub, "inproc://mismatch")
	require.NoError(t, err)
	_, err = e.Connect(push, "inproc://mismatch")
	require.NoError(t, err)

	var m native.Msg
	_, err = e.MsgInit(&m)
	require.NoError(t, err)
	defer e.MsgClose(&m)
	_, err = e.SendMsg(push, &m, native.FlagDontWait)
	assert.ErrorIs(t, err, native.EAGAIN)
}

func TestEngine_Options(t *testing.T) {
	e := New()
	ctx := newContext(t, e)
	s := newSocket(t, e, ctx, native.Dealer)

	buf := make([]byte, 4)
	_, n, err := e.Getsockopt(s, native.OptSndHWM, buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, uint32(1000), binary.NativeEndian.Uint32(buf))

	_, _, err = e.Getsockopt(s, native.OptType, buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(native.Dealer), binary.NativeEndian.Uint32(buf))

	_, err = e.Setsockopt(s, native.OptLinger, make([]byte, 8))
	assert.ErrorIs(t, err, native.EINVAL, "wrong width")
	_, err = e.Setsockopt(s, native.OptType, intOpt(1))
	assert.ErrorIs(t, err, native.EINVAL, "read-only")
	_, err = e.Setsockopt(s, native.OptSwap, make([]byte, 8))
	assert.ErrorIs(t, err, native.EINVAL, "not a 3.x option")
	_, err = e.Setsockopt(s, native.OptIdentity, []byte{0, 1})
	assert.ErrorIs(t, err, native.EINVAL, "reserved identity")
	_, err = e.Setsockopt(s, native.OptSubscribe, []byte("x"))
	assert.ErrorIs(t, err, native.EINVAL, "subscribe on non-SUB")

	_, err = e.Setsockopt(s, native.OptIdentity, []byte("me"))
	require.NoError(t, err)
	id := make([]byte, native.MaxOptionBytes)
	_, n, err = e.Getsockopt(s, native.OptIdentity, id)
	require.NoError(t, err)
	assert.Equal(t, "me", string(id[:n]))
}

func TestEngine_Rev2Options(t *testing.T) {
	e := New(WithVersion(2, 2, 0))
	ctx, err := e.Init(1)
	require.NoError(t, err)
	s := newSocket(t, e, ctx, native.Sub)

	var b [8]byte
	binary.NativeEndian.PutUint64(b[:], 7)
	_, err = e.Setsockopt(s, native.OptHWM, b[:])
	require.NoError(t, err)

	out := make([]byte, 8)
	_, n, err := e.Getsockopt(s, native.OptHWM, out)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, uint64(7), binary.NativeEndian.Uint64(out))

	_, err = e.Setsockopt(s, native.OptSndHWM, intOpt(1))
	assert.ErrorIs(t, err, native.EINVAL)

	_, err = e.Close(s)
	require.NoError(t, err)
	rc, err := e.Term(ctx)
	require.NoError(t, err)
	assert.Zero(t, rc)
}

func TestEngine_ContextOptions(t *testing.T) {
	e := New()
	ctx := newContext(t, e)

	_, err := e.CtxSet(ctx, native.CtxMaxSockets, 1)
	require.NoError(t, err)
	v, err := e.CtxGet(ctx, native.CtxMaxSockets)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	newSocket(t, e, ctx, native.Pair)
	_, err = e.Socket(ctx, native.Pair)
	assert.ErrorIs(t, err, native.EMFILE)

	_, err = e.Socket(ctx, 99)
	assert.ErrorIs(t, err, native.EINVAL)

	_, err = e.CtxGet(ctx, 42)
	assert.ErrorIs(t, err, native.EINVAL)
}

func TestEngine_DestroyWaitsForSockets(t *testing.T) {
	e := New()
	ctx := newContext(t, e)
	s := newSocket(t, e, ctx, native.Pull)

	blocked := make(chan error, 1)
	go func() {
		var m native.Msg
		_, _ = e.MsgInit(&m)
		defer e.MsgClose(&m)
		_, err := e.RecvMsg(s, &m, 0)
		blocked <- err
	}()

	destroyed := make(chan struct{})
	go func() {
		_, _ = e.CtxDestroy(ctx)
		close(destroyed)
	}()

	select {
	case err := <-blocked:
		assert.ErrorIs(t, err, native.ETERM)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked recv did not observe termination")
	}

	select {
	case <-destroyed:
		t.Fatal("destroy returned with a socket open")
	case <-time.After(20 * time.Millisecond):
	}

	_, err := e.Close(s)
	require.NoError(t, err)
	select {
	case <-destroyed:
	case <-time.After(2 * time.Second):
		t.Fatal("destroy did not return after close")
	}
}

func TestEngine_MessageLifecycle(t *testing.T) {
	e := New()

	var m native.Msg
	_, err := e.MsgInitSize(&m, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, e.MsgSize(&m))
	assert.Equal(t, 1, e.Live(resource.KindMessage))

	_, err = e.MsgClose(&m)
	require.NoError(t, err)
	assert.Zero(t, e.Live(resource.KindMessage))

	_, err = e.MsgClose(&m)
	assert.ErrorIs(t, err, native.EFAULT)

	_, err = e.MsgInitSize(&m, -1)
	assert.ErrorIs(t, err, native.EINVAL)
}

func TestEngine_ObserverSeesTeardownOrder(t *testing.T) {
	e := New()

	var mu sync.Mutex
	var dropped []resource.Kind
	e.Subscribe(resource.ObserverFunc(func(ev resource.Event) {
		if ev.Type != resource.EventDropped {
			return
		}
		mu.Lock()
		dropped = append(dropped, ev.Kind)
		mu.Unlock()
	}))

	ctx := newContext(t, e)
	s := newSocket(t, e, ctx, native.Pair)
	_, err := e.Close(s)
	require.NoError(t, err)
	_, err = e.CtxDestroy(ctx)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []resource.Kind{resource.KindSocket, resource.KindContext}, dropped)
}

func TestEngine_ClosedSocket(t *testing.T) {
	e := New()
	ctx := newContext(t, e)
	s := newSocket(t, e, ctx, native.Pair)
	_, err := e.Close(s)
	require.NoError(t, err)

	rc, err := e.Close(s)
	assert.Equal(t, -1, rc)
	assert.ErrorIs(t, err, native.ENOTSOCK)
	_, err = e.Bind(s, "inproc://x")
	assert.ErrorIs(t, err, native.ENOTSOCK)
}

func TestEngine_Strerror(t *testing.T) {
	e := New()
	assert.Equal(t, "", e.Strerror(0))
	assert.Equal(t, native.ETERM.Error(), e.Strerror(native.ETERM))
}
