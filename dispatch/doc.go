// Package dispatch resolves the engine revision once and exposes one
// primitive table for the rest of the module.
//
// Resolve inspects lib.Version(): a 2.x engine must implement native.Rev2
// and gets the zmq_init/zmq_term/zmq_send/zmq_recv sequence; anything newer
// must implement native.Rev3 and gets zmq_ctx_new/zmq_ctx_destroy/
// zmq_sendmsg/zmq_recvmsg. The option table for the same version is selected
// at the same time. After that no caller branches on the revision.
//
// Failure conventions differ per primitive and revision (null handle,
// nonzero, -1). The dispatcher applies the right one and returns state errors
// from the errors package carrying the engine's text.
package dispatch
