// Package native describes the call surface of the messaging engine.
//
// The engine ships in two incompatible revisions. Primitives common to both are
// collected in Lib; the context and transfer primitives that differ live in
// Rev2 (zmq_init, zmq_term, zmq_send, zmq_recv) and Rev3 (zmq_ctx_new,
// zmq_ctx_destroy, zmq_sendmsg, zmq_recvmsg, ...). An engine implements Lib
// plus exactly the revision interface matching its Version.
//
// Implementations:
//
//	native/libzmq     cgo binding to the system libzmq (build tag "zmq")
//	engine/loopback   in-process engine implementing both revisions
//
// Constants in this package are the engine's ABI values and must not change.
//
// Describe is the error probe used after every failed call: it renders the
// errno captured with the failure as the engine's own text.
package native
