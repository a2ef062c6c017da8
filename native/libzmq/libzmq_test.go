//go:build cgo && zmq

package libzmq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/zmq-runtime/native"
)

func TestOpen_ReportsVersion(t *testing.T) {
	lib, err := Open()
	require.NoError(t, err)
	v := lib.Version()
	assert.True(t, supported(v), "version %s", v)
}

func TestMessage_RoundTrip(t *testing.T) {
	lib, err := Open()
	require.NoError(t, err)

	var m native.Msg
	rc, err := lib.MsgInitSize(&m, 5)
	require.NoError(t, err)
	require.Zero(t, rc)
	copy(lib.MsgData(&m), "hello")
	assert.Equal(t, 5, lib.MsgSize(&m))
	assert.Equal(t, "hello", string(lib.MsgData(&m)))

	rc, err = lib.MsgClose(&m)
	require.NoError(t, err)
	assert.Zero(t, rc)
}

func TestSocket_InvalidHandle(t *testing.T) {
	lib, err := Open()
	require.NoError(t, err)

	rc, err := lib.Close(12345)
	assert.Equal(t, -1, rc)
	assert.ErrorIs(t, err, native.ENOTSOCK)
	assert.NotEmpty(t, lib.Strerror(native.EINVAL))
}
