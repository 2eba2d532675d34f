// Package netx contains small network helpers.
package netx

import (
	"context"
	"net"
	"time"
)

// DefaultProbeTimeout bounds a single reachability probe.
const DefaultProbeTimeout = 3 * time.Second

// Prober reports whether the sync authority is reachable. The run
// coordinator consults it before starting a run.
type Prober interface {
	Reachable(ctx context.Context) bool
}

// TCPProber probes reachability by dialing the authority's host:port.
type TCPProber struct {
	Addr    string
	Timeout time.Duration
}

func NewTCPProber(addr string) *TCPProber {
	return &TCPProber{Addr: addr, Timeout: DefaultProbeTimeout}
}

func (p *TCPProber) Reachable(ctx context.Context) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", p.Addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
