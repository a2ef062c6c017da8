package loopback

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/zmq-runtime/native"
	"github.com/wippyai/zmq-runtime/options"
	"github.com/wippyai/zmq-runtime/resource"
)

// DefaultVersion is the release reported when none is configured.
var DefaultVersion = native.Version{Major: 3, Minor: 2, Patch: 5}

const defaultMaxSockets = 1024

// Engine is an in-process messaging engine. It implements native.Lib,
// native.Rev2 and native.Rev3; the dispatcher picks the surface matching the
// configured version. Every endpoint, whatever its transport, is resolved
// inside the engine instance.
type Engine struct {
	logger    *zap.Logger
	objects   *resource.Table
	contexts  *resource.Typed[*context]
	sockets   *resource.Typed[*socket]
	messages  *resource.Typed[*message]
	options   *options.Table
	endpoints map[string]*socket
	pending   map[string][]*socket
	changed   chan struct{}
	version   native.Version
	nextPort  int
	lastErr   atomic.Int64
	mu        sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithVersion sets the release the engine reports and emulates.
func WithVersion(major, minor, patch int) Option {
	return func(e *Engine) {
		e.version = native.Version{Major: major, Minor: minor, Patch: patch}
	}
}

// WithLogger sets the engine's logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		version:   DefaultVersion,
		logger:    Logger(),
		objects:   resource.NewTable(),
		endpoints: make(map[string]*socket),
		pending:   make(map[string][]*socket),
		changed:   make(chan struct{}),
		nextPort:  49152,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.contexts = resource.NewTyped[*context](e.objects, resource.KindContext)
	e.sockets = resource.NewTyped[*socket](e.objects, resource.KindSocket)
	e.messages = resource.NewTyped[*message](e.objects, resource.KindMessage)
	e.options = options.ForVersion(e.version)
	return e
}

// Subscribe registers an observer for context, socket and message lifecycle
// events. Events are delivered synchronously in call order.
func (e *Engine) Subscribe(o resource.Observer) {
	e.objects.Subscribe(o)
}

// Unsubscribe removes an observer.
func (e *Engine) Unsubscribe(o resource.Observer) {
	e.objects.Unsubscribe(o)
}

// Live returns the number of live objects of a kind.
func (e *Engine) Live(kind resource.Kind) int {
	return e.objects.LenKind(kind)
}

// Version implements native.Lib.
func (e *Engine) Version() native.Version {
	return e.version
}

// Errno implements native.Lib. The engine keeps one last-error slot shared
// by all goroutines; the errno returned with each failed call is exact.
func (e *Engine) Errno() native.Errno {
	return native.Errno(e.lastErr.Load())
}

// Strerror implements native.Lib.
func (e *Engine) Strerror(code native.Errno) string {
	if code == 0 {
		return ""
	}
	return code.Error()
}

// fail records code as the last error and returns it for the caller.
func (e *Engine) fail(code native.Errno) error {
	e.lastErr.Store(int64(code))
	return code
}

// signalLocked wakes every goroutine waiting for a state change.
func (e *Engine) signalLocked() {
	close(e.changed)
	e.changed = make(chan struct{})
}

type context struct {
	sockets    map[*socket]struct{}
	handle     native.Handle
	ioThreads  int
	maxSockets int
	terminated bool
}

func (e *Engine) newContext(ioThreads int) (native.Handle, error) {
	if ioThreads < 0 {
		return 0, e.fail(native.EINVAL)
	}
	c := &context{
		sockets:    make(map[*socket]struct{}),
		ioThreads:  ioThreads,
		maxSockets: defaultMaxSockets,
	}
	h, err := e.contexts.Insert(c)
	if err != nil {
		return 0, e.fail(native.ENOMEM)
	}
	c.handle = native.Handle(h)
	e.logger.Debug("context created", zap.Uint64("handle", uint64(c.handle)), zap.Int("io_threads", ioThreads))
	return c.handle, nil
}

// destroyContext terminates the context, waits for its sockets to be closed
// and releases it.
func (e *Engine) destroyContext(h native.Handle) (int, error) {
	c, ok := e.contexts.Get(resource.Handle(h))
	if !ok {
		return -1, e.fail(native.EFAULT)
	}

	e.mu.Lock()
	if !c.terminated {
		c.terminated = true
		e.signalLocked()
	}
	for len(c.sockets) > 0 {
		e.logger.Debug("context destroy waiting for open sockets", zap.Int("open", len(c.sockets)))
		ch := e.changed
		e.mu.Unlock()
		<-ch
		e.mu.Lock()
	}
	e.mu.Unlock()

	if _, ok := e.contexts.Remove(resource.Handle(h)); !ok {
		return -1, e.fail(native.EFAULT)
	}
	e.logger.Debug("context destroyed", zap.Uint64("handle", uint64(h)))
	return 0, nil
}

// Init implements native.Rev2.
func (e *Engine) Init(ioThreads int) (native.Handle, error) {
	return e.newContext(ioThreads)
}

// Term implements native.Rev2.
func (e *Engine) Term(ctx native.Handle) (int, error) {
	return e.destroyContext(ctx)
}

// CtxNew implements native.Rev3.
func (e *Engine) CtxNew() (native.Handle, error) {
	return e.newContext(1)
}

// CtxDestroy implements native.Rev3.
func (e *Engine) CtxDestroy(ctx native.Handle) (int, error) {
	return e.destroyContext(ctx)
}

// CtxGet implements native.Rev3.
func (e *Engine) CtxGet(ctx native.Handle, opt int) (int, error) {
	c, ok := e.contexts.Get(resource.Handle(ctx))
	if !ok {
		return -1, e.fail(native.EFAULT)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch opt {
	case native.CtxIOThreads:
		return c.ioThreads, nil
	case native.CtxMaxSockets:
		return c.maxSockets, nil
	default:
		return -1, e.fail(native.EINVAL)
	}
}

// CtxSet implements native.Rev3.
func (e *Engine) CtxSet(ctx native.Handle, opt int, value int) (int, error) {
	c, ok := e.contexts.Get(resource.Handle(ctx))
	if !ok {
		return -1, e.fail(native.EFAULT)
	}
	if value < 0 {
		return -1, e.fail(native.EINVAL)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch opt {
	case native.CtxIOThreads:
		c.ioThreads = value
	case native.CtxMaxSockets:
		if value < 1 {
			return -1, e.fail(native.EINVAL)
		}
		c.maxSockets = value
	default:
		return -1, e.fail(native.EINVAL)
	}
	return 0, nil
}
