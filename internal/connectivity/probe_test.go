package connectivity

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/loginflow/internal/login"
)

var (
	_ login.ConnectivityProbe = (*DialProbe)(nil)
	_ login.ConnectivityProbe = (*Static)(nil)
)

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()
	return ln
}

// closedAddr returns an address nothing listens on.
func closedAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestDialProbe_Check(t *testing.T) {
	ln := listen(t)
	p := NewDialProbe(ln.Addr().String(), WithTimeout(time.Second))

	assert.True(t, p.Check(context.Background()))

	require.NoError(t, ln.Close())
	assert.False(t, p.Check(context.Background()))
}

func TestDialProbe_StartsOnline(t *testing.T) {
	p := NewDialProbe(closedAddr(t), WithInterval(time.Hour))
	assert.True(t, p.online.Load())
}

func TestDialProbe_IsOnlineKicksRecheck(t *testing.T) {
	p := NewDialProbe(closedAddr(t), WithInterval(time.Hour), WithTimeout(time.Second))

	assert.True(t, p.IsOnline(), "first answer comes from the cached flag")
	require.Eventually(t, func() bool { return !p.online.Load() }, 2*time.Second, 5*time.Millisecond)
	assert.False(t, p.IsOnline())
}

func TestDialProbe_Run(t *testing.T) {
	ln := listen(t)
	p := NewDialProbe(ln.Addr().String(), WithInterval(10*time.Millisecond), WithTimeout(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.NoError(t, ln.Close())
	require.Eventually(t, func() bool { return !p.online.Load() }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestStatic(t *testing.T) {
	s := NewStatic(false)
	assert.False(t, s.IsOnline())
	s.Set(true)
	assert.True(t, s.IsOnline())
}
