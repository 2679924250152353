// Package master runs the coordinator side of das: it collects values sent by
// slaves, answers average requests with a broadcast and shuts the network down
// on a terminate command.
//
// The master is an actor. A reader goroutine blocks on the socket and hands
// datagrams over a channel; only the actor goroutine touches the state machine,
// so values are appended and averaged in datagram arrival order.
package master

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ryandielhenn/das/internal/telemetry"
	"github.com/ryandielhenn/das/pkg/protocol"
	"github.com/ryandielhenn/das/pkg/transport"
	"github.com/ryandielhenn/das/pkg/values"
)

const DefaultGrace = 500 * time.Millisecond

var ErrAlreadyRun = errors.New("master already run")

type State int32

const (
	StateRunning State = iota
	StateTerminating
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateTerminating:
		return "terminating"
	default:
		return "stopped"
	}
}

// Conn is the part of *transport.Conn the master needs.
type Conn interface {
	Receive() (transport.Datagram, error)
	Broadcast(v int64) error
	LocalAddr() *net.UDPAddr
	Close() error
}

type Option func(*Master)

func WithLogger(l *zap.Logger) Option {
	return func(m *Master) {
		if l != nil {
			m.log = l.Named("master")
		}
	}
}

// WithGrace sets how long the master waits after broadcasting termination.
func WithGrace(d time.Duration) Option {
	return func(m *Master) { m.grace = d }
}

type Master struct {
	conn  Conn
	self  net.IP
	vals  *values.Set
	grace time.Duration
	log   *zap.Logger

	state   atomic.Int32
	running atomic.Bool
	started atomic.Bool

	mu      sync.Mutex
	lastAvg int64
	hasAvg  bool
}

// New returns a running master that owns conn. self is the host address used to
// recognise datagrams the master sent to itself.
func New(conn Conn, self net.IP, seed int64, opts ...Option) *Master {
	m := &Master{
		conn:  conn,
		self:  self,
		vals:  values.New(seed),
		grace: DefaultGrace,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.state.Store(int32(StateRunning))
	m.running.Store(true)
	telemetry.Values.Set(float64(m.vals.Len()))
	return m
}

// Run processes datagrams until a terminate command arrives, ctx is cancelled or
// the socket fails. The socket is closed on return.
func (m *Master) Run(ctx context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		return ErrAlreadyRun
	}
	defer m.stop()

	datagrams := make(chan transport.Datagram)
	errc := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go m.receive(datagrams, errc, done)

	m.log.Info("master running", zap.Stringer("addr", m.conn.LocalAddr()), zap.Int64s("values", m.vals.Values()))
	for m.running.Load() {
		select {
		case <-ctx.Done():
			m.log.Info("shutdown requested", zap.Error(ctx.Err()))
			return nil
		case err := <-errc:
			m.log.Error("error in master mode", zap.Error(err))
			return err
		case d := <-datagrams:
			m.handle(d)
		}
	}
	return nil
}

func (m *Master) receive(out chan<- transport.Datagram, errc chan<- error, done <-chan struct{}) {
	for {
		d, err := m.conn.Receive()
		if err != nil {
			// closed during shutdown
			if errors.Is(err, net.ErrClosed) {
				return
			}
			errc <- err
			return
		}
		select {
		case out <- d:
		case <-done:
			return
		}
	}
}

func (m *Master) handle(d transport.Datagram) {
	v, err := protocol.Decode(d.Payload)
	if err != nil {
		telemetry.DatagramsTotal.WithLabelValues(telemetry.KindMalformed).Inc()
		m.log.Error("invalid number format", zap.Stringer("from", d.Src), zap.Error(err))
		return
	}

	cmd := protocol.Classify(v)
	if cmd != protocol.CommandValue && m.fromSelf(d.Src) {
		telemetry.DatagramsTotal.WithLabelValues(telemetry.KindSelf).Inc()
		m.log.Debug("ignoring own datagram", zap.Int64("value", v))
		return
	}

	switch cmd {
	case protocol.CommandTerminate:
		telemetry.DatagramsTotal.WithLabelValues(telemetry.KindTerminate).Inc()
		m.terminate()
	case protocol.CommandAverage:
		telemetry.DatagramsTotal.WithLabelValues(telemetry.KindAverage).Inc()
		m.average()
	default:
		telemetry.DatagramsTotal.WithLabelValues(telemetry.KindValue).Inc()
		m.vals.Append(v)
		telemetry.Values.Set(float64(m.vals.Len()))
		m.log.Info("received", zap.Int64("value", v), zap.Stringer("from", d.Src))
	}
}

func (m *Master) fromSelf(src *net.UDPAddr) bool {
	if src == nil {
		return false
	}
	return src.IP.Equal(m.self) && src.Port == m.conn.LocalAddr().Port
}

func (m *Master) average() {
	avg, count, ok := m.vals.Average()
	if !ok {
		m.log.Debug("no values to average")
		return
	}
	m.log.Info("computed average", zap.Int("count", count), zap.Int64("average", avg))

	m.mu.Lock()
	m.lastAvg, m.hasAvg = avg, true
	m.mu.Unlock()
	telemetry.LastAverage.Set(float64(avg))

	m.broadcast(avg, protocol.CommandAverage)
}

func (m *Master) terminate() {
	m.state.Store(int32(StateTerminating))
	m.log.Info("received termination signal")

	m.broadcast(protocol.Terminate, protocol.CommandTerminate)
	time.Sleep(m.grace)
	m.running.Store(false)
}

// broadcast failures are logged and abandoned; nothing confirms delivery anyway.
func (m *Master) broadcast(v int64, cmd protocol.Command) {
	err := m.conn.Broadcast(v)
	telemetry.ObserveBroadcast(cmd.String(), err)
	if err != nil {
		m.log.Error("error broadcasting message", zap.Int64("value", v), zap.Error(err))
		return
	}
	m.log.Info("broadcast sent", zap.Int64("value", v))
}

func (m *Master) stop() {
	m.running.Store(false)
	if err := m.conn.Close(); err != nil {
		m.log.Warn("close socket", zap.Error(err))
	}
	m.state.Store(int32(StateStopped))
	m.log.Info("master terminated")
}

func (m *Master) State() State {
	return State(m.state.Load())
}

// Values returns the value set in insertion order.
func (m *Master) Values() []int64 {
	return m.vals.Values()
}

// LastAverage returns the most recently computed average.
func (m *Master) LastAverage() (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastAvg, m.hasAvg
}
