// Package libzmq binds the native messaging library through cgo.
//
// The binding is compiled only with the zmq build tag and cgo enabled:
//
//	go build -tags zmq ./...         # 3.2 or newer, context and msg API
//	go build -tags "zmq zmq2" ./...  # 2.x, zmq_init/zmq_term API
//
// Without the tag Open returns ErrUnavailable and callers fall back to the
// in-process loopback engine.
package libzmq
