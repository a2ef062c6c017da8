package dispatch

import (
	"github.com/wippyai/zmq-runtime/errors"
	"github.com/wippyai/zmq-runtime/native"
)

func rev2Ops(lib native.Lib, r native.Rev2) ops {
	return ops{
		newContext: func(ioThreads int) (native.Handle, error) {
			h, err := r.Init(ioThreads)
			if h == 0 {
				return 0, errors.State(errors.PhaseContext, "init", lib, err)
			}
			return h, nil
		},
		destroyContext: func(ctx native.Handle) error {
			rc, err := r.Term(ctx)
			if rc != 0 {
				return errors.State(errors.PhaseContext, "term", lib, err)
			}
			return nil
		},
		contextGet: func(native.Handle, int) (int, error) {
			return 0, errors.StateCode(errors.PhaseContext, "get", native.ENOTSUP)
		},
		contextSet: func(native.Handle, int, int) error {
			return errors.StateCode(errors.PhaseContext, "set", native.ENOTSUP)
		},
		send: func(sock native.Handle, m *native.Msg, flags int) error {
			rc, err := r.Send(sock, m, flags)
			if rc != 0 {
				return errors.State(errors.PhaseTransfer, "send", lib, err)
			}
			return nil
		},
		recv: func(sock native.Handle, m *native.Msg, flags int) error {
			rc, err := r.Recv(sock, m, flags)
			if rc != 0 {
				return errors.State(errors.PhaseTransfer, "recv", lib, err)
			}
			return nil
		},
		msgMore: func(*native.Msg) (bool, error) {
			return false, errors.StateCode(errors.PhaseMessage, "get more", native.ENOTSUP)
		},
	}
}

func rev3Ops(lib native.Lib, r native.Rev3) ops {
	return ops{
		newContext: func(ioThreads int) (native.Handle, error) {
			h, err := r.CtxNew()
			if h == 0 {
				return 0, errors.State(errors.PhaseContext, "ctx_new", lib, err)
			}
			if rc, err := r.CtxSet(h, native.CtxIOThreads, ioThreads); rc != 0 {
				se := errors.State(errors.PhaseContext, "ctx_set io_threads", lib, err)
				_, _ = r.CtxDestroy(h)
				return 0, se
			}
			return h, nil
		},
		destroyContext: func(ctx native.Handle) error {
			rc, err := r.CtxDestroy(ctx)
			if rc != 0 {
				return errors.State(errors.PhaseContext, "ctx_destroy", lib, err)
			}
			return nil
		},
		contextGet: func(ctx native.Handle, opt int) (int, error) {
			v, err := r.CtxGet(ctx, opt)
			if v < 0 {
				return 0, errors.State(errors.PhaseContext, "ctx_get", lib, err)
			}
			return v, nil
		},
		contextSet: func(ctx native.Handle, opt, value int) error {
			rc, err := r.CtxSet(ctx, opt, value)
			if rc != 0 {
				return errors.State(errors.PhaseContext, "ctx_set", lib, err)
			}
			return nil
		},
		send: func(sock native.Handle, m *native.Msg, flags int) error {
			rc, err := r.SendMsg(sock, m, flags)
			if rc == -1 {
				return errors.State(errors.PhaseTransfer, "sendmsg", lib, err)
			}
			return nil
		},
		recv: func(sock native.Handle, m *native.Msg, flags int) error {
			rc, err := r.RecvMsg(sock, m, flags)
			if rc == -1 {
				return errors.State(errors.PhaseTransfer, "recvmsg", lib, err)
			}
			return nil
		},
		msgMore: func(m *native.Msg) (bool, error) {
			v, err := r.MsgGet(m, native.MsgMore)
			if v < 0 {
				return false, errors.State(errors.PhaseMessage, "msg_get more", lib, err)
			}
			return v == 1, nil
		},
	}
}
