package dispatch

import (
	"fmt"
	"sync"

	"github.com/wippyai/zmq-runtime/errors"
	"github.com/wippyai/zmq-runtime/native"
	"github.com/wippyai/zmq-runtime/options"
)

// Revision identifies one of the two native call sequences.
type Revision int

const (
	Rev2 Revision = 2
	Rev3 Revision = 3
)

func (r Revision) String() string {
	return fmt.Sprintf("rev%d", int(r))
}

// Dispatcher is the resolved primitive table for one engine. Every method
// converts native failures into state errors at the call site.
type Dispatcher struct {
	lib      native.Lib
	options  *options.Table
	ops      ops
	version  native.Version
	revision Revision
}

// ops holds the revision-dependent primitives.
type ops struct {
	newContext     func(ioThreads int) (native.Handle, error)
	destroyContext func(ctx native.Handle) error
	contextGet     func(ctx native.Handle, opt int) (int, error)
	contextSet     func(ctx native.Handle, opt, value int) error
	send           func(sock native.Handle, m *native.Msg, flags int) error
	recv           func(sock native.Handle, m *native.Msg, flags int) error
	msgMore        func(m *native.Msg) (bool, error)
}

var resolved sync.Map // map[native.Lib]*Dispatcher

// Resolve returns the dispatcher for lib, building it on first use.
func Resolve(lib native.Lib) (*Dispatcher, error) {
	if lib == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "nil engine library")
	}
	if d, ok := resolved.Load(lib); ok {
		return d.(*Dispatcher), nil
	}
	d, err := New(lib)
	if err != nil {
		return nil, err
	}
	actual, _ := resolved.LoadOrStore(lib, d)
	return actual.(*Dispatcher), nil
}

// New builds a dispatcher for lib without caching it.
func New(lib native.Lib) (*Dispatcher, error) {
	if lib == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "nil engine library")
	}

	v := lib.Version()
	table := options.ForVersion(v)
	if table == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, fmt.Sprintf("unsupported engine version %s", v))
	}

	d := &Dispatcher{lib: lib, version: v, options: table}

	switch {
	case v.Major == 2:
		r2, ok := lib.(native.Rev2)
		if !ok {
			return nil, errors.InvalidInput(errors.PhaseLoad, fmt.Sprintf("engine %s does not provide the 2.x surface", v))
		}
		d.revision = Rev2
		d.ops = rev2Ops(lib, r2)
	default:
		r3, ok := lib.(native.Rev3)
		if !ok {
			return nil, errors.InvalidInput(errors.PhaseLoad, fmt.Sprintf("engine %s does not provide the 3.x surface", v))
		}
		d.revision = Rev3
		d.ops = rev3Ops(lib, r3)
	}

	return d, nil
}

// Lib returns the underlying engine.
func (d *Dispatcher) Lib() native.Lib { return d.lib }

// Version returns the engine version the table was resolved for.
func (d *Dispatcher) Version() native.Version { return d.version }

// Revision returns the selected call sequence.
func (d *Dispatcher) Revision() Revision { return d.revision }

// Options returns the option table for the engine version.
func (d *Dispatcher) Options() *options.Table { return d.options }

// NewContext creates a native context with ioThreads I/O threads.
func (d *Dispatcher) NewContext(ioThreads int) (native.Handle, error) {
	if ioThreads < 0 {
		return 0, errors.Rejected(errors.PhaseContext, "create", fmt.Sprintf("negative io thread count %d", ioThreads))
	}
	return d.ops.newContext(ioThreads)
}

// DestroyContext destroys a native context. All of its sockets must already
// be closed or the engine blocks.
func (d *Dispatcher) DestroyContext(ctx native.Handle) error {
	return d.ops.destroyContext(ctx)
}

// ContextGet reads a context option (3.x only).
func (d *Dispatcher) ContextGet(ctx native.Handle, opt int) (int, error) {
	return d.ops.contextGet(ctx, opt)
}

// ContextSet writes a context option (3.x only).
func (d *Dispatcher) ContextSet(ctx native.Handle, opt, value int) error {
	return d.ops.contextSet(ctx, opt, value)
}

// Socket creates a socket of kind inside ctx.
func (d *Dispatcher) Socket(ctx native.Handle, kind int) (native.Handle, error) {
	h, err := d.lib.Socket(ctx, kind)
	if h == 0 {
		return 0, errors.State(errors.PhaseSocket, "create", d.lib, err)
	}
	return h, nil
}

// CloseSocket closes a socket handle.
func (d *Dispatcher) CloseSocket(sock native.Handle) error {
	rc, err := d.lib.Close(sock)
	if rc != 0 {
		return errors.State(errors.PhaseSocket, "close", d.lib, err)
	}
	return nil
}

// Bind attaches sock to a local endpoint.
func (d *Dispatcher) Bind(sock native.Handle, endpoint string) error {
	rc, err := d.lib.Bind(sock, endpoint)
	if rc != 0 {
		return errors.State(errors.PhaseSocket, "bind "+endpoint, d.lib, err)
	}
	return nil
}

// Connect attaches sock to a remote endpoint.
func (d *Dispatcher) Connect(sock native.Handle, endpoint string) error {
	rc, err := d.lib.Connect(sock, endpoint)
	if rc != 0 {
		return errors.State(errors.PhaseSocket, "connect "+endpoint, d.lib, err)
	}
	return nil
}

// MsgInit initializes an empty message.
func (d *Dispatcher) MsgInit(m *native.Msg) error {
	rc, err := d.lib.MsgInit(m)
	if rc != 0 {
		return errors.State(errors.PhaseMessage, "init", d.lib, err)
	}
	return nil
}

// MsgInitSize initializes a message with size bytes of engine-owned storage.
func (d *Dispatcher) MsgInitSize(m *native.Msg, size int) error {
	if size < 0 {
		return errors.Rejected(errors.PhaseMessage, "init", fmt.Sprintf("negative message size %d", size))
	}
	rc, err := d.lib.MsgInitSize(m, size)
	if rc != 0 {
		return errors.State(errors.PhaseMessage, "init", d.lib, err)
	}
	return nil
}

// MsgClose releases a message. Callers guarantee it runs once per message.
func (d *Dispatcher) MsgClose(m *native.Msg) error {
	rc, err := d.lib.MsgClose(m)
	if rc != 0 {
		return errors.State(errors.PhaseMessage, "close", d.lib, err)
	}
	return nil
}

// Send transfers m on sock with the composed flag word.
func (d *Dispatcher) Send(sock native.Handle, m *native.Msg, flags int) error {
	return d.ops.send(sock, m, flags)
}

// Recv receives the next frame on sock into m.
func (d *Dispatcher) Recv(sock native.Handle, m *native.Msg, flags int) error {
	return d.ops.recv(sock, m, flags)
}

// MsgMore reads the MORE property of a received message (3.x only).
func (d *Dispatcher) MsgMore(m *native.Msg) (bool, error) {
	return d.ops.msgMore(m)
}

// Flags composes the transfer flag word.
func Flags(nonBlocking, sendMore bool) int {
	flags := 0
	if nonBlocking {
		flags |= native.FlagDontWait
	}
	if sendMore {
		flags |= native.FlagSndMore
	}
	return flags
}
