package diag

import (
	"fmt"
	"net"

	"boilerctl/internal/control"
)

type udpConn interface {
	Write([]byte) (int, error)
	Close() error
}

type resolveUDPAddrFn func(network, address string) (*net.UDPAddr, error)
type dialUDPFn func(network string, laddr, raddr *net.UDPAddr) (udpConn, error)

// UDP sends one CSV record per datagram.
type UDP struct {
	dest  string
	conn  udpConn
	every int
	n     int
	buf   []byte
}

func DialUDP(dest string, every int) (*UDP, error) {
	return newUDP(dest, every, net.ResolveUDPAddr, func(network string, laddr, raddr *net.UDPAddr) (udpConn, error) {
		return net.DialUDP(network, laddr, raddr)
	})
}

func newUDP(dest string, every int, resolve resolveUDPAddrFn, dial dialUDPFn) (*UDP, error) {
	raddr, err := resolve("udp", dest)
	if err != nil {
		return nil, fmt.Errorf("diag: udp %s: %w", dest, err)
	}
	conn, err := dial("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("diag: udp %s: %w", dest, err)
	}
	if every < 1 {
		every = 1
	}
	return &UDP{dest: dest, conn: conn, every: every}, nil
}

func (u *UDP) Record(r control.Record) error {
	u.n++
	if (u.n-1)%u.every != 0 {
		return nil
	}
	u.buf = AppendRecord(u.buf[:0], r)
	return u.Send(u.buf)
}

// Send writes p as a single datagram.
func (u *UDP) Send(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if _, err := u.conn.Write(p); err != nil {
		return fmt.Errorf("diag: udp %s: %w", u.dest, err)
	}
	return nil
}

func (u *UDP) Close() error {
	if u.conn == nil {
		return nil
	}
	return u.conn.Close()
}
