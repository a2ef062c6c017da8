package native

// Handle is an opaque reference to an engine-owned context or socket.
// Handle 0 is the null handle.
type Handle uintptr

// Msg is the inline message descriptor passed to the engine.
// 64 bytes with 8-byte alignment covers zmq_msg_t of every supported revision.
type Msg [8]uint64

// Lib is the call surface shared by every engine revision.
//
// Methods mirror the C primitives: the int result is the raw return code and
// the error, when non-nil, carries the errno captured right after the call.
// Callers must check the return code first; the error is only meaningful on
// failure.
type Lib interface {
	// Version reports the engine's major.minor.patch.
	Version() Version

	// Errno returns the calling thread's last error code.
	Errno() Errno

	// Strerror renders an error code as text. It returns "" when the engine
	// has no text for the code.
	Strerror(code Errno) string

	// Socket creates a socket of the given type inside ctx. Returns 0 on failure.
	Socket(ctx Handle, kind int) (Handle, error)

	// Close closes a socket. Returns 0 on success.
	Close(sock Handle) (int, error)

	// Bind attaches the socket to a local endpoint. Returns 0 on success.
	Bind(sock Handle, endpoint string) (int, error)

	// Connect attaches the socket to a remote endpoint. Returns 0 on success.
	Connect(sock Handle, endpoint string) (int, error)

	// Setsockopt sets option opt from val, passing len(val) as the value size.
	Setsockopt(sock Handle, opt int, val []byte) (int, error)

	// Getsockopt reads option opt into buf using len(buf) as the capacity.
	// n is the size the engine wrote back.
	Getsockopt(sock Handle, opt int, buf []byte) (rc int, n int, err error)

	// MsgInit initializes an empty message.
	MsgInit(m *Msg) (int, error)

	// MsgInitSize initializes a message with an engine-owned buffer of size bytes.
	MsgInitSize(m *Msg, size int) (int, error)

	// MsgClose releases the message content. Not idempotent.
	MsgClose(m *Msg) (int, error)

	// MsgSize returns the current content size.
	MsgSize(m *Msg) int

	// MsgData returns a view of the engine-owned content. The view is valid
	// until the message is closed, sent or received into.
	MsgData(m *Msg) []byte
}

// Rev2 is the 2.x context and transfer surface.
type Rev2 interface {
	// Init is zmq_init: creates a context with ioThreads I/O threads.
	Init(ioThreads int) (Handle, error)

	// Term is zmq_term. Blocks while sockets of ctx remain open.
	Term(ctx Handle) (int, error)

	// Send is zmq_send. Returns 0 on success. The message stays valid and must
	// still be closed by the caller.
	Send(sock Handle, m *Msg, flags int) (int, error)

	// Recv is zmq_recv. Returns 0 on success.
	Recv(sock Handle, m *Msg, flags int) (int, error)
}

// Rev3 is the 3.x+ context and transfer surface.
type Rev3 interface {
	// CtxNew is zmq_ctx_new.
	CtxNew() (Handle, error)

	// CtxDestroy is zmq_ctx_destroy. Blocks while sockets of ctx remain open.
	CtxDestroy(ctx Handle) (int, error)

	// CtxGet is zmq_ctx_get. Returns the value or -1.
	CtxGet(ctx Handle, opt int) (int, error)

	// CtxSet is zmq_ctx_set. Returns 0 on success.
	CtxSet(ctx Handle, opt int, value int) (int, error)

	// SendMsg is zmq_sendmsg. Returns the byte count or -1. On success the
	// engine takes the content and leaves the message empty.
	SendMsg(sock Handle, m *Msg, flags int) (int, error)

	// RecvMsg is zmq_recvmsg. Returns the byte count or -1.
	RecvMsg(sock Handle, m *Msg, flags int) (int, error)

	// MsgGet is zmq_msg_get. Returns the property value or -1.
	MsgGet(m *Msg, prop int) (int, error)
}
