// Package zmqruntime is a resource-safe Go layer over a native asynchronous
// messaging engine with the libzmq call surface.
//
// It owns native contexts, sockets and messages, releasing each exactly once
// whether the caller closes it or the garbage collector finds it unreachable.
// Sockets always close before the context that owns them.
//
// # Architecture Overview
//
//	zmqruntime/        Context, Socket, Message and transfer calls
//	├── dispatch/      Revision selection (2.x vs 3.x call sequences)
//	├── options/       Declarative socket option tables and codecs
//	├── native/        Native call surface, ABI ids and errno
//	│   └── libzmq/    cgo binding (build tag zmq)
//	├── engine/
//	│   └── loopback/  In-process engine implementing both revisions
//	├── resource/      Handle tables with lifecycle observers
//	├── errors/        Structured error types
//	└── cmd/zmqsh/     Interactive shell
//
// # Quick Start
//
//	ctx, err := zmqruntime.NewContext(zmqruntime.WithLibrary(loopback.New()))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctx.Close()
//
//	rep, _ := ctx.NewSocket(zmqruntime.Rep)
//	req, _ := ctx.NewSocket(zmqruntime.Req)
//	_ = rep.Bind("inproc://echo")
//	_ = req.Connect("inproc://echo")
//
//	_ = req.SendString("ping", 0)
//	msg, _ := rep.RecvString(0)
//	fmt.Println(msg) // "ping"
//
// Without WithLibrary the first context opens the native library through
// native/libzmq, which needs the zmq build tag. SetLibrary replaces the
// process default.
//
// # Engine Revisions
//
// The engine version decides the call sequence once per library: 2.x uses
// zmq_init/zmq_term and zmq_send/zmq_recv, 3.x uses zmq_ctx_new/
// zmq_ctx_destroy and zmq_sendmsg/zmq_recvmsg. Option ids and value widths
// differ between revisions; the options package resolves them by name.
//
// # Errors
//
// Engine failures and rejected values are *errors.Error with Kind
// errors.KindState and carry the errno, so errors.Is(err, EAGAIN) works.
// Message indexing past the end is errors.KindOutOfBounds.
//
// # Thread Safety
//
// Context is safe for concurrent use. Socket and Message are NOT: use each
// from one goroutine at a time, as with the native library. Closing from
// another goroutine is allowed.
package zmqruntime
