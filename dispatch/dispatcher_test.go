package dispatch

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/zmq-runtime/engine/loopback"
	"github.com/wippyai/zmq-runtime/errors"
	"github.com/wippyai/zmq-runtime/native"
)

// rev3Only hides the 2.x surface of an engine.
type rev3Only struct {
	native.Lib
	native.Rev3
}

// libOnly exposes neither transfer surface.
type libOnly struct {
	native.Lib
}

func TestNew_SelectsRevision(t *testing.T) {
	tests := []struct {
		name     string
		version  [3]int
		revision Revision
	}{
		{"2.1", [3]int{2, 1, 11}, Rev2},
		{"2.2", [3]int{2, 2, 0}, Rev2},
		{"3.2", [3]int{3, 2, 5}, Rev3},
		{"4.3", [3]int{4, 3, 4}, Rev3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := loopback.New(loopback.WithVersion(tt.version[0], tt.version[1], tt.version[2]))
			d, err := New(e)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if d.Revision() != tt.revision {
				t.Errorf("revision = %s, want %s", d.Revision(), tt.revision)
			}
			if d.Version() != e.Version() {
				t.Errorf("version = %s, want %s", d.Version(), e.Version())
			}
			if d.Options() == nil {
				t.Error("no option table")
			}
		})
	}
}

func TestNew_Rejects(t *testing.T) {
	if _, err := New(nil); !stderrors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("nil lib: got %v", err)
	}

	old := loopback.New(loopback.WithVersion(1, 0, 0))
	if _, err := New(old); !stderrors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("1.x: got %v", err)
	}

	v2 := loopback.New(loopback.WithVersion(2, 2, 0))
	if _, err := New(rev3Only{Lib: v2, Rev3: v2}); err == nil {
		t.Error("2.x engine without the 2.x surface was accepted")
	}

	v3 := loopback.New()
	if _, err := New(libOnly{Lib: v3}); err == nil {
		t.Error("3.x engine without the 3.x surface was accepted")
	}
}

func TestResolve_Caches(t *testing.T) {
	e := loopback.New()
	a, err := Resolve(e)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Resolve(e)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("Resolve built a second dispatcher for the same engine")
	}
}

func TestDispatcher_Lifecycle(t *testing.T) {
	for _, v := range [][3]int{{2, 2, 0}, {3, 2, 5}} {
		e := loopback.New(loopback.WithVersion(v[0], v[1], v[2]))
		d, err := New(e)
		if err != nil {
			t.Fatal(err)
		}

		ctx, err := d.NewContext(1)
		if err != nil {
			t.Fatalf("%s: NewContext: %v", e.Version(), err)
		}
		pull, err := d.Socket(ctx, native.Pull)
		if err != nil {
			t.Fatal(err)
		}
		push, err := d.Socket(ctx, native.Push)
		if err != nil {
			t.Fatal(err)
		}
		if err := d.Bind(pull, "inproc://d"); err != nil {
			t.Fatal(err)
		}
		if err := d.Connect(push, "inproc://d"); err != nil {
			t.Fatal(err)
		}

		var out native.Msg
		if err := d.MsgInitSize(&out, 3); err != nil {
			t.Fatal(err)
		}
		copy(e.MsgData(&out), "abc")
		if err := d.Send(push, &out, Flags(false, false)); err != nil {
			t.Fatalf("%s: Send: %v", e.Version(), err)
		}
		if err := d.MsgClose(&out); err != nil {
			t.Fatal(err)
		}

		var in native.Msg
		if err := d.MsgInit(&in); err != nil {
			t.Fatal(err)
		}
		if err := d.Recv(pull, &in, 0); err != nil {
			t.Fatalf("%s: Recv: %v", e.Version(), err)
		}
		if got := string(e.MsgData(&in)); got != "abc" {
			t.Errorf("%s: received %q", e.Version(), got)
		}
		if err := d.MsgClose(&in); err != nil {
			t.Fatal(err)
		}

		if err := d.CloseSocket(pull); err != nil {
			t.Fatal(err)
		}
		if err := d.CloseSocket(push); err != nil {
			t.Fatal(err)
		}
		if err := d.DestroyContext(ctx); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDispatcher_FailuresAreStateErrors(t *testing.T) {
	for _, v := range [][3]int{{2, 2, 0}, {3, 2, 5}} {
		e := loopback.New(loopback.WithVersion(v[0], v[1], v[2]))
		d, err := New(e)
		if err != nil {
			t.Fatal(err)
		}
		ctx, err := d.NewContext(1)
		if err != nil {
			t.Fatal(err)
		}
		push, err := d.Socket(ctx, native.Push)
		if err != nil {
			t.Fatal(err)
		}

		var m native.Msg
		if err := d.MsgInit(&m); err != nil {
			t.Fatal(err)
		}
		err = d.Send(push, &m, Flags(true, false))
		if !errors.IsState(err) || !stderrors.Is(err, native.EAGAIN) {
			t.Errorf("%s: send without peer: %v", e.Version(), err)
		}
		if got := errors.ErrnoOf(err); got != native.EAGAIN {
			t.Errorf("%s: errno = %v", e.Version(), got)
		}
		_ = d.MsgClose(&m)

		if _, err := d.Socket(ctx, 99); !errors.IsState(err) {
			t.Errorf("%s: bad socket type: %v", e.Version(), err)
		}
		if err := d.CloseSocket(push); err != nil {
			t.Fatal(err)
		}
		if err := d.CloseSocket(push); !stderrors.Is(err, native.ENOTSOCK) {
			t.Errorf("%s: double close: %v", e.Version(), err)
		}
		if _, err := d.NewContext(-1); !errors.IsState(err) {
			t.Errorf("%s: negative io threads: %v", e.Version(), err)
		}
		if err := d.MsgInitSize(&m, -1); !errors.IsState(err) {
			t.Errorf("%s: negative size: %v", e.Version(), err)
		}
		if err := d.DestroyContext(ctx); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDispatcher_ContextOptions(t *testing.T) {
	v2, err := New(loopback.New(loopback.WithVersion(2, 2, 0)))
	if err != nil {
		t.Fatal(err)
	}
	ctx, _ := v2.NewContext(1)
	if _, err := v2.ContextGet(ctx, native.CtxIOThreads); !stderrors.Is(err, native.ENOTSUP) {
		t.Errorf("2.x get: %v", err)
	}
	if err := v2.ContextSet(ctx, native.CtxIOThreads, 2); !stderrors.Is(err, native.ENOTSUP) {
		t.Errorf("2.x set: %v", err)
	}
	var m native.Msg
	_ = v2.MsgInit(&m)
	if _, err := v2.MsgMore(&m); !stderrors.Is(err, native.ENOTSUP) {
		t.Errorf("2.x more: %v", err)
	}
	_ = v2.MsgClose(&m)

	v3, err := New(loopback.New())
	if err != nil {
		t.Fatal(err)
	}
	ctx, err = v3.NewContext(3)
	if err != nil {
		t.Fatal(err)
	}
	n, err := v3.ContextGet(ctx, native.CtxIOThreads)
	if err != nil || n != 3 {
		t.Errorf("3.x io threads = %d, %v", n, err)
	}
	if _, err := v3.ContextGet(ctx, 77); !errors.IsState(err) {
		t.Errorf("3.x unknown option: %v", err)
	}
}

func TestFlags(t *testing.T) {
	tests := []struct {
		nonBlocking, sendMore bool
		want                  int
	}{
		{false, false, 0},
		{true, false, native.FlagDontWait},
		{false, true, native.FlagSndMore},
		{true, true, native.FlagDontWait | native.FlagSndMore},
	}
	for _, tt := range tests {
		if got := Flags(tt.nonBlocking, tt.sendMore); got != tt.want {
			t.Errorf("Flags(%v, %v) = %d, want %d", tt.nonBlocking, tt.sendMore, got, tt.want)
		}
	}
}
