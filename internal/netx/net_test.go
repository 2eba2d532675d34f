package netx

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTCPProber_ReachableListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err == nil {
			_ = conn.Close()
		}
	}()

	p := NewTCPProber(ln.Addr().String())
	assert.True(t, p.Reachable(context.Background()))
}

func TestTCPProber_UnreachableAddr(t *testing.T) {
	// A listener closed immediately leaves a port nothing is bound to.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	p := NewTCPProber(addr)
	assert.False(t, p.Reachable(context.Background()))
}
