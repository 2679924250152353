package transport

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/ipv4"

	"github.com/ryandielhenn/das/pkg/protocol"
)

const DefaultPacing = 100 * time.Millisecond

// Options configure a Conn. Port is the coordination port every send targets,
// regardless of the port the socket itself is bound to.
type Options struct {
	Port       int
	Identity   Identity
	Pacing     time.Duration
	BufferSize int
	TTL        int
	Logger     *zap.Logger
}

// Datagram is one received packet. Dst is nil when the platform does not report
// destination addresses.
type Datagram struct {
	Payload []byte
	Src     *net.UDPAddr
	Dst     net.IP
}

type Conn struct {
	udp  *net.UDPConn
	pc   *ipv4.PacketConn
	opts Options
	log  *zap.Logger
	buf  []byte

	closeOnce sync.Once
	closed    atomic.Bool
	closeErr  error
}

// Listen binds a UDP4 socket on all interfaces. bindPort 0 picks an ephemeral port.
func Listen(bindPort int, opts Options) (*Conn, error) {
	udp, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: bindPort})
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = protocol.MaxDatagram
	}

	c := &Conn{
		udp:  udp,
		pc:   ipv4.NewPacketConn(udp),
		opts: opts,
		log:  opts.Logger.Named("transport"),
		buf:  make([]byte, opts.BufferSize),
	}
	if err := c.pc.SetControlMessage(ipv4.FlagDst, true); err != nil {
		c.log.Debug("destination control messages unavailable", zap.Error(err))
	}
	if opts.TTL > 0 {
		if err := c.pc.SetTTL(opts.TTL); err != nil {
			c.log.Warn("set ttl", zap.Int("ttl", opts.TTL), zap.Error(err))
		}
	}
	return c, nil
}

// IsAddrInUse reports whether a bind failed because another socket holds the port.
func IsAddrInUse(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE)
}

func (c *Conn) LocalAddr() *net.UDPAddr {
	return c.udp.LocalAddr().(*net.UDPAddr)
}

func (c *Conn) Identity() Identity {
	return c.opts.Identity
}

// Send writes v as one datagram to dst on the coordination port, then pauses.
func (c *Conn) Send(v int64, dst net.IP) error {
	to := &net.UDPAddr{IP: dst, Port: c.opts.Port}
	if _, err := c.pc.WriteTo(protocol.Encode(v), nil, to); err != nil {
		return fmt.Errorf("send %d to %s: %w", v, to, err)
	}
	c.log.Debug("sent", zap.Int64("value", v), zap.Stringer("to", to))
	if c.opts.Pacing > 0 {
		time.Sleep(c.opts.Pacing)
	}
	return nil
}

// Broadcast sends v to the subnet broadcast address.
func (c *Conn) Broadcast(v int64) error {
	if c.opts.Identity.Broadcast == nil {
		return fmt.Errorf("broadcast %d: %w", v, ErrNoIPv4)
	}
	return c.Send(v, c.opts.Identity.Broadcast)
}

// Receive blocks until a datagram arrives or the conn is closed. Once closed it
// returns net.ErrClosed.
func (c *Conn) Receive() (Datagram, error) {
	n, cm, src, err := c.pc.ReadFrom(c.buf)
	if err != nil {
		if c.Closed() {
			return Datagram{}, net.ErrClosed
		}
		return Datagram{}, err
	}
	d := Datagram{Payload: append([]byte(nil), c.buf[:n]...)}
	if ua, ok := src.(*net.UDPAddr); ok {
		d.Src = ua
	}
	if cm != nil {
		d.Dst = cm.Dst
	}
	return d, nil
}

// Close releases the socket. It is safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.closeErr = c.udp.Close()
	})
	return c.closeErr
}

func (c *Conn) Closed() bool {
	return c.closed.Load()
}
