package zmqruntime

import (
	"sync"

	"github.com/wippyai/zmq-runtime/errors"
	"github.com/wippyai/zmq-runtime/native"
	"github.com/wippyai/zmq-runtime/native/libzmq"
)

var (
	defaultLib native.Lib
	defaultMu  sync.Mutex
)

// SetLibrary sets the engine used by contexts created without WithLibrary.
// Contexts that already exist keep their engine.
func SetLibrary(lib native.Lib) error {
	if lib == nil {
		return errors.InvalidInput(errors.PhaseLoad, "nil engine library")
	}
	defaultMu.Lock()
	defaultLib = lib
	defaultMu.Unlock()
	return nil
}

// Library returns the process default engine, opening the native library on
// first use.
func Library() (native.Lib, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultLib != nil {
		return defaultLib, nil
	}
	lib, err := libzmq.Open()
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindState, err, "open native library")
	}
	defaultLib = lib
	return lib, nil
}

// Version reports the version of the process default engine.
func Version() (native.Version, error) {
	lib, err := Library()
	if err != nil {
		return native.Version{}, err
	}
	return lib.Version(), nil
}
