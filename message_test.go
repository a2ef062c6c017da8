package zmqruntime

import (
	"bytes"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/zmq-runtime/engine/loopback"
	"github.com/wippyai/zmq-runtime/errors"
	"github.com/wippyai/zmq-runtime/resource"
)

func TestMessage_FromBytesRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"empty", 0},
		{"one byte", 1},
		{"large", 100000},
	}

	eachRevision(t, func(t *testing.T, e *loopback.Engine) {
		ctx := newTestContext(t, e)
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				data := bytes.Repeat([]byte{0xAB}, tt.size)
				m, err := ctx.NewMessageFromBytes(data)
				require.NoError(t, err)
				defer m.Close()

				assert.Equal(t, tt.size, m.Len())
				got, err := m.Bytes()
				require.NoError(t, err)
				assert.Equal(t, len(data), len(got))
				assert.True(t, bytes.Equal(data, got))
			})
		}
	})
}

func TestMessage_Size(t *testing.T) {
	eachRevision(t, func(t *testing.T, e *loopback.Engine) {
		ctx := newTestContext(t, e)

		for _, n := range []int{0, 1, 64, 4096} {
			m, err := ctx.NewMessageSize(n)
			require.NoError(t, err)
			assert.Equal(t, n, m.Len())
			require.NoError(t, m.Close())
			assert.Zero(t, m.Len())
		}

		_, err := ctx.NewMessageSize(-1)
		assert.True(t, errors.IsState(err))
	})
}

func TestMessage_LenRequeriedAfterRecv(t *testing.T) {
	eachRevision(t, func(t *testing.T, e *loopback.Engine) {
		ctx := newTestContext(t, e)
		a, b := pair(t, ctx, Pair, Pair, "inproc://len")

		require.NoError(t, b.SendString("twelve bytes", 0))

		m, err := a.Recv(0)
		require.NoError(t, err)
		defer m.Close()
		assert.Equal(t, 12, m.Len())
	})
}

func TestMessage_Indexing(t *testing.T) {
	eachRevision(t, func(t *testing.T, e *loopback.Engine) {
		ctx := newTestContext(t, e)
		m, err := ctx.NewMessageFromBytes([]byte("abc"))
		require.NoError(t, err)
		defer m.Close()

		b, err := m.At(0)
		require.NoError(t, err)
		assert.Equal(t, byte('a'), b)

		require.NoError(t, m.SetAt(2, 'z'))
		assert.Equal(t, "abz", m.String())

		for _, i := range []int{-1, 3, 100} {
			_, err := m.At(i)
			assert.True(t, errors.IsBounds(err), "index %d", i)
			assert.False(t, errors.IsState(err), "index %d", i)

			err = m.SetAt(i, 0)
			assert.True(t, errors.IsBounds(err), "index %d", i)
		}
	})
}

func TestMessage_Data(t *testing.T) {
	ctx := newTestContext(t, loopback.New())
	m, err := ctx.NewMessageSize(4)
	require.NoError(t, err)
	defer m.Close()

	data, err := m.Data()
	require.NoError(t, err)
	copy(data, "live")
	assert.Equal(t, "live", m.String())
}

func TestMessage_SentIsCloseOnly(t *testing.T) {
	eachRevision(t, func(t *testing.T, e *loopback.Engine) {
		ctx := newTestContext(t, e)
		pull, push := pair(t, ctx, Pull, Push, "inproc://sent")
		_ = pull

		m, err := ctx.NewMessageFromBytes([]byte("once"))
		require.NoError(t, err)
		require.NoError(t, push.Send(m, 0))

		_, err = m.Bytes()
		assert.True(t, errors.IsState(err))
		_, err = m.At(0)
		assert.True(t, errors.IsState(err))
		assert.True(t, errors.IsState(push.Send(m, 0)), "resend")

		require.NoError(t, m.Close())
		require.NoError(t, m.Close())
		assert.True(t, m.Closed())
	})
}

func TestMessage_More(t *testing.T) {
	t.Run("3.x", func(t *testing.T) {
		ctx := newTestContext(t, loopback.New())
		pull, push := pair(t, ctx, Pull, Push, "inproc://more")
		require.NoError(t, push.SendMultipart([][]byte{[]byte("1"), []byte("2")}, 0))

		first, err := pull.Recv(0)
		require.NoError(t, err)
		defer first.Close()
		more, err := first.More()
		require.NoError(t, err)
		assert.True(t, more)

		second, err := pull.Recv(0)
		require.NoError(t, err)
		defer second.Close()
		more, err = second.More()
		require.NoError(t, err)
		assert.False(t, more)
	})

	t.Run("2.x", func(t *testing.T) {
		ctx := newTestContext(t, loopback.New(loopback.WithVersion(2, 2, 0)))
		m, err := ctx.NewMessage()
		require.NoError(t, err)
		defer m.Close()

		_, err = m.More()
		assert.True(t, errors.IsState(err))
		assert.ErrorIs(t, err, ENOTSUP)
	})
}

func TestMessage_DefaultEngine(t *testing.T) {
	e := loopback.New()
	require.NoError(t, SetLibrary(e))

	m, err := NewMessageFromBytes([]byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
	require.NoError(t, m.Close())

	m, err = NewMessageSize(3)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())
	require.NoError(t, m.Close())

	m, err = NewMessage()
	require.NoError(t, err)
	assert.Zero(t, m.Len())
	require.NoError(t, m.Close())

	assert.Zero(t, e.Live(resource.KindMessage))
}

func TestMessage_GarbageCollected(t *testing.T) {
	e := loopback.New()
	ctx := newTestContext(t, e)

	func() {
		for range 8 {
			_, err := ctx.NewMessageSize(16)
			require.NoError(t, err)
		}
	}()

	deadline := time.Now().Add(5 * time.Second)
	for e.Live(resource.KindMessage) > 0 && time.Now().Before(deadline) {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
	assert.Zero(t, e.Live(resource.KindMessage))
}
