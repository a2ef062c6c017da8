package options

import (
	"encoding/binary"
	"math"
)

// Encoding is the native representation of an option value.
type Encoding uint8

const (
	Uint64 Encoding = iota + 1 // uint64_t
	Int64                      // int64_t
	Int                        // C int
	Uint32                     // uint32_t
	Bytes                      // byte buffer up to native.MaxOptionBytes
)

// Width returns the byte size passed to the engine. For Bytes it is the
// scratch capacity used by getters.
func (e Encoding) Width() int {
	switch e {
	case Uint64, Int64:
		return 8
	case Int, Uint32:
		return 4
	case Bytes:
		return 255
	default:
		return 0
	}
}

func (e Encoding) String() string {
	switch e {
	case Uint64:
		return "uint64"
	case Int64:
		return "int64"
	case Int:
		return "int"
	case Uint32:
		return "uint32"
	case Bytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// InRange reports whether v is representable in the encoding. Uint64 takes
// v as a bit pattern, so negative values set the top bit.
func (e Encoding) InRange(v int64) bool {
	switch e {
	case Uint64, Int64:
		return true
	case Int:
		return v >= math.MinInt32 && v <= math.MaxInt32
	case Uint32:
		return v >= 0 && v <= math.MaxUint32
	default:
		return false
	}
}

// Put writes v into buf, which must be Width() bytes long.
func (e Encoding) Put(buf []byte, v int64) {
	switch e {
	case Uint64, Int64:
		binary.NativeEndian.PutUint64(buf, uint64(v))
	case Int, Uint32:
		binary.NativeEndian.PutUint32(buf, uint32(v))
	}
}

// Value reinterprets buf according to the encoding.
func (e Encoding) Value(buf []byte) int64 {
	switch e {
	case Uint64:
		return int64(binary.NativeEndian.Uint64(buf))
	case Int64:
		return int64(binary.NativeEndian.Uint64(buf))
	case Int:
		return int64(int32(binary.NativeEndian.Uint32(buf)))
	case Uint32:
		return int64(binary.NativeEndian.Uint32(buf))
	default:
		return 0
	}
}
