package master

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/ryandielhenn/das/pkg/transport"
)

var (
	selfIP   = net.IPv4(192, 168, 1, 10).To4()
	selfAddr = &net.UDPAddr{IP: selfIP, Port: 5000}
	peer     = &net.UDPAddr{IP: net.IPv4(192, 168, 1, 20).To4(), Port: 40123}
)

// fakeConn feeds datagrams from a channel and records broadcasts.
type fakeConn struct {
	in    chan transport.Datagram
	errs  chan error
	sent  chan int64
	local *net.UDPAddr

	mu           sync.Mutex
	broadcastErr error

	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan transport.Datagram, 16),
		errs:   make(chan error, 1),
		sent:   make(chan int64, 16),
		local:  selfAddr,
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) Receive() (transport.Datagram, error) {
	select {
	case <-c.closed:
		return transport.Datagram{}, net.ErrClosed
	default:
	}
	select {
	case d := <-c.in:
		return d, nil
	case err := <-c.errs:
		return transport.Datagram{}, err
	case <-c.closed:
		return transport.Datagram{}, net.ErrClosed
	}
}

func (c *fakeConn) Broadcast(v int64) error {
	c.mu.Lock()
	err := c.broadcastErr
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.sent <- v
	return nil
}

func (c *fakeConn) LocalAddr() *net.UDPAddr { return c.local }

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) setBroadcastErr(err error) {
	c.mu.Lock()
	c.broadcastErr = err
	c.mu.Unlock()
}

func (c *fakeConn) push(payload string, from *net.UDPAddr) {
	c.in <- transport.Datagram{Payload: []byte(payload), Src: from}
}

func (c *fakeConn) expectBroadcast(t *testing.T, want int64) {
	t.Helper()
	select {
	case got := <-c.sent:
		if got != want {
			t.Fatalf("broadcast = %d, want %d", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no broadcast, want %d", want)
	}
}

func (c *fakeConn) expectNoBroadcast(t *testing.T) {
	t.Helper()
	select {
	case got := <-c.sent:
		t.Fatalf("unexpected broadcast %d", got)
	default:
	}
}

var errBoom = errors.New("boom")
