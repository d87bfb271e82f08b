package pgctl

import (
	"context"
	"net"
	"strconv"
	"time"
)

// TCPProber reports an instance reachable when its port accepts a TCP
// connection.
type TCPProber struct {
	Timeout time.Duration
}

func (p TCPProber) Reachable(ctx context.Context, host string, port int) bool {
	if host == "" {
		return false
	}
	d := net.Dialer{Timeout: p.Timeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
