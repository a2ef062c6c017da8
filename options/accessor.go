package options

import (
	"github.com/wippyai/zmq-runtime/errors"
	"github.com/wippyai/zmq-runtime/native"
)

// SetInt writes an integer option. The value goes through call-local scratch
// storage of exactly the encoding's width.
func SetInt(lib native.Lib, sock native.Handle, e Entry, v int64) error {
	if err := checkInt(e, Set); err != nil {
		return err
	}
	if !e.Encoding.InRange(v) {
		return errors.New(errors.PhaseOption, errors.KindState).
			Op("set").
			Option(string(e.Name)).
			Value(v).
			Detail("value %d out of range for %s", v, e.Encoding).
			Build()
	}

	var scratch [8]byte
	buf := scratch[:e.Encoding.Width()]
	e.Encoding.Put(buf, v)

	if err := setRaw(lib, sock, e, e.ID, buf); err != nil {
		return err
	}
	for _, id := range e.Mirror {
		if err := setRaw(lib, sock, e, id, buf); err != nil {
			return err
		}
	}
	return nil
}

// GetInt reads an integer option.
func GetInt(lib native.Lib, sock native.Handle, e Entry) (int64, error) {
	if err := checkInt(e, Get); err != nil {
		return 0, err
	}

	var scratch [8]byte
	buf := scratch[:e.Encoding.Width()]

	rc, _, err := lib.Getsockopt(sock, e.ID, buf)
	if rc != 0 {
		return 0, optionError(lib, e, "get", err)
	}
	return e.Encoding.Value(buf), nil
}

// SetBytes writes a byte-string option. Values longer than
// native.MaxOptionBytes are rejected before any native call.
func SetBytes(lib native.Lib, sock native.Handle, e Entry, v []byte) error {
	if err := checkBytes(e, Set); err != nil {
		return err
	}
	if len(v) > native.MaxOptionBytes {
		return errors.New(errors.PhaseOption, errors.KindState).
			Op("set").
			Option(string(e.Name)).
			Value(len(v)).
			Detail("value of %d bytes exceeds %d", len(v), native.MaxOptionBytes).
			Build()
	}

	var scratch [native.MaxOptionBytes]byte
	n := copy(scratch[:], v)
	return setRaw(lib, sock, e, e.ID, scratch[:n])
}

// GetBytes reads a byte-string option, copying out the length the engine
// wrote back. LAST_ENDPOINT loses its trailing NUL.
func GetBytes(lib native.Lib, sock native.Handle, e Entry) ([]byte, error) {
	if err := checkBytes(e, Get); err != nil {
		return nil, err
	}

	var scratch [native.MaxOptionBytes]byte
	rc, n, err := lib.Getsockopt(sock, e.ID, scratch[:])
	if rc != 0 {
		return nil, optionError(lib, e, "get", err)
	}
	if n < 0 || n > len(scratch) {
		n = len(scratch)
	}
	if e.Name == LastEndpoint && n > 0 && scratch[n-1] == 0 {
		n--
	}

	out := make([]byte, n)
	copy(out, scratch[:n])
	return out, nil
}

func setRaw(lib native.Lib, sock native.Handle, e Entry, id int, buf []byte) error {
	rc, err := lib.Setsockopt(sock, id, buf)
	if rc != 0 {
		return optionError(lib, e, "set", err)
	}
	return nil
}

func optionError(lib native.Lib, e Entry, op string, err error) error {
	se := errors.State(errors.PhaseOption, op, lib, err)
	se.Option = string(e.Name)
	return se
}

func checkInt(e Entry, want Access) error {
	if e.Encoding == Bytes {
		return errors.Rejected(errors.PhaseOption, "access", string(e.Name)+" is a byte-string option")
	}
	return checkAccess(e, want)
}

func checkBytes(e Entry, want Access) error {
	if e.Encoding != Bytes {
		return errors.Rejected(errors.PhaseOption, "access", string(e.Name)+" is an integer option")
	}
	return checkAccess(e, want)
}

func checkAccess(e Entry, want Access) error {
	if e.Access&want != 0 {
		return nil
	}
	if want == Set {
		return errors.Rejected(errors.PhaseOption, "set", string(e.Name)+" is read-only")
	}
	return errors.Rejected(errors.PhaseOption, "get", string(e.Name)+" is write-only")
}
