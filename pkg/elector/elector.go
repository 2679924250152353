// Package elector decides whether this process is the master or a slave. The
// first process to bind the coordination port wins; there is no re-election,
// heartbeat or failover.
package elector

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ryandielhenn/das/pkg/transport"
)

type Role uint8

const (
	RoleMaster Role = iota
	RoleSlave
)

func (r Role) String() string {
	if r == RoleMaster {
		return "master"
	}
	return "slave"
}

// Elect binds port. Success makes the caller the master on that socket. If the
// port is already bound the caller becomes a slave on a fresh ephemeral socket
// whose sends still target port. Any other bind error is returned.
func Elect(port int, opts transport.Options) (Role, *transport.Conn, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	opts.Port = port

	c, err := transport.Listen(port, opts)
	if err == nil {
		log.Info("won coordination port", zap.Int("port", port))
		return RoleMaster, c, nil
	}
	if !transport.IsAddrInUse(err) {
		return 0, nil, fmt.Errorf("bind port %d: %w", port, err)
	}

	log.Info("coordination port taken", zap.Int("port", port))
	c, err = transport.Listen(0, opts)
	if err != nil {
		return 0, nil, fmt.Errorf("bind ephemeral port: %w", err)
	}
	return RoleSlave, c, nil
}
