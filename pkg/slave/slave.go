// Package slave sends one value to the master and releases its socket.
package slave

import (
	"net"

	"go.uber.org/zap"
)

// Conn is the part of *transport.Conn a sender needs.
type Conn interface {
	Send(v int64, dst net.IP) error
	Close() error
}

type Sender struct {
	conn   Conn
	target net.IP
	log    *zap.Logger
}

// New returns a sender that delivers to target on the coordination port the conn
// was configured with.
func New(conn Conn, target net.IP, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{conn: conn, target: target, log: logger.Named("slave")}
}

// Send transmits v exactly once and closes the socket. 0 and -1 act as remote
// average and terminate commands. There is no retry.
func (s *Sender) Send(v int64) error {
	defer s.conn.Close()

	if err := s.conn.Send(v, s.target); err != nil {
		s.log.Error("send failed", zap.Int64("value", v), zap.Stringer("to", s.target), zap.Error(err))
		return err
	}
	s.log.Info("sent", zap.Int64("value", v), zap.Stringer("to", s.target))
	return nil
}
