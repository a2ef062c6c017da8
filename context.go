package zmqruntime

import (
	stderrors "errors"
	"runtime"
	"slices"
	"sync"
	"weak"

	"go.uber.org/zap"

	"github.com/wippyai/zmq-runtime/dispatch"
	"github.com/wippyai/zmq-runtime/errors"
	"github.com/wippyai/zmq-runtime/native"
)

// Option configures NewContext.
type Option func(*contextConfig)

type contextConfig struct {
	lib       native.Lib
	logger    *zap.Logger
	ioThreads int
}

// WithIOThreads sets the number of engine I/O threads. The default is 1.
func WithIOThreads(n int) Option {
	return func(c *contextConfig) {
		c.ioThreads = n
	}
}

// WithLibrary selects the engine instead of the process default.
func WithLibrary(lib native.Lib) Option {
	return func(c *contextConfig) {
		c.lib = lib
	}
}

// WithLogger sets the logger for the context and its sockets.
func WithLogger(l *zap.Logger) Option {
	return func(c *contextConfig) {
		c.logger = l
	}
}

// Context owns a native context and every socket created from it.
type Context struct {
	state   *contextState
	cleanup runtime.Cleanup
}

// contextState is everything the cleanup needs. It never points back to the
// Context so the Context can become unreachable.
type contextState struct {
	d       *dispatch.Dispatcher
	logger  *zap.Logger
	sockets []*socketState
	handle  native.Handle
	closing bool
	mu      sync.Mutex
}

// NewContext creates a context on the selected engine.
func NewContext(opts ...Option) (*Context, error) {
	cfg := contextConfig{ioThreads: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = Logger()
	}
	if cfg.ioThreads < 0 {
		return nil, errors.Rejected(errors.PhaseContext, "create", "negative io thread count")
	}

	lib := cfg.lib
	if lib == nil {
		var err error
		if lib, err = Library(); err != nil {
			return nil, err
		}
	}
	d, err := dispatch.Resolve(lib)
	if err != nil {
		return nil, err
	}

	h, err := d.NewContext(cfg.ioThreads)
	if err != nil {
		return nil, err
	}

	st := &contextState{d: d, logger: cfg.logger, handle: h}
	c := &Context{state: st}
	c.cleanup = runtime.AddCleanup(c, func(st *contextState) {
		if err := st.close(); err != nil {
			st.logger.Warn("context cleanup failed", zap.Error(err))
		}
	}, st)

	st.logger.Debug("context created",
		zap.Stringer("version", d.Version()),
		zap.Stringer("revision", d.Revision()),
		zap.Int("io_threads", cfg.ioThreads))
	return c, nil
}

// Close closes every owned socket in creation order, then destroys the native
// context. A failed destroy is reported but the context still counts as
// closed. Closing twice is a no-op.
func (c *Context) Close() error {
	c.cleanup.Stop()
	return c.state.close()
}

func (st *contextState) close() error {
	st.mu.Lock()
	if st.handle == 0 || st.closing {
		st.mu.Unlock()
		return nil
	}
	st.closing = true
	sockets := slices.Clone(st.sockets)
	h := st.handle
	st.mu.Unlock()

	var errs []error
	for _, ss := range sockets {
		if err := ss.close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := st.d.DestroyContext(h); err != nil {
		errs = append(errs, err)
	}

	st.mu.Lock()
	st.handle = 0
	st.sockets = nil
	st.mu.Unlock()

	st.logger.Debug("context closed", zap.Int("sockets", len(sockets)))
	return stderrors.Join(errs...)
}

// Closed reports whether the context was closed.
func (c *Context) Closed() bool {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()
	return c.state.handle == 0 || c.state.closing
}

// Version returns the engine version the context runs on.
func (c *Context) Version() native.Version {
	return c.state.d.Version()
}

// Get reads a context option. 2.x engines have no context options and
// return a state error.
func (c *Context) Get(opt ContextOption) (int, error) {
	h, err := c.state.live("get")
	if err != nil {
		return 0, err
	}
	return c.state.d.ContextGet(h, int(opt))
}

// Set writes a context option. 2.x engines have no context options and
// return a state error.
func (c *Context) Set(opt ContextOption, value int) error {
	h, err := c.state.live("set")
	if err != nil {
		return err
	}
	return c.state.d.ContextSet(h, int(opt), value)
}

// Sockets returns the open sockets in creation order.
func (c *Context) Sockets() []*Socket {
	c.state.mu.Lock()
	states := slices.Clone(c.state.sockets)
	c.state.mu.Unlock()

	out := make([]*Socket, 0, len(states))
	for _, ss := range states {
		if s := ss.owner.Value(); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (st *contextState) live(op string) (native.Handle, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.handle == 0 || st.closing {
		return 0, errors.Rejected(errors.PhaseContext, op, "context is closed")
	}
	return st.handle, nil
}

// NewSocket creates a socket owned by the context.
func (c *Context) NewSocket(kind SocketType) (*Socket, error) {
	st := c.state
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.handle == 0 || st.closing {
		return nil, errors.Rejected(errors.PhaseSocket, "create", "context is closed")
	}
	h, err := st.d.Socket(st.handle, int(kind))
	if err != nil {
		return nil, err
	}

	ss := &socketState{ctx: st, d: st.d, logger: st.logger, handle: h, kind: kind}
	s := &Socket{state: ss, ctx: c}
	ss.owner = weak.Make(s)
	st.sockets = append(st.sockets, ss)
	s.cleanup = runtime.AddCleanup(s, func(ss *socketState) {
		if err := ss.close(); err != nil {
			ss.logger.Warn("socket cleanup failed", zap.Stringer("type", ss.kind), zap.Error(err))
		}
	}, ss)

	st.logger.Debug("socket created", zap.Stringer("type", kind))
	return s, nil
}

// unregister drops a closed socket from the owned set.
func (st *contextState) unregister(ss *socketState) {
	st.mu.Lock()
	st.sockets = slices.DeleteFunc(st.sockets, func(x *socketState) bool { return x == ss })
	st.mu.Unlock()
}
