package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	"github.com/ryandielhenn/das/discovery"
	"github.com/ryandielhenn/das/internal/config"
	"github.com/ryandielhenn/das/internal/logging"
	"github.com/ryandielhenn/das/internal/telemetry"
	"github.com/ryandielhenn/das/pkg/elector"
	"github.com/ryandielhenn/das/pkg/master"
	"github.com/ryandielhenn/das/pkg/slave"
	"github.com/ryandielhenn/das/pkg/transport"
)

func run(cmd *cobra.Command, args []string) error {
	port, value, err := parseArgs(args)
	if err != nil {
		printUsage(cmd.ErrOrStderr())
		return err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	applyFlags(cmd.Flags(), &cfg)
	cfg.Port = port
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.New(cfg.Verbose)
	defer log.Sync()
	log.Info("starting das", zap.Int("port", port), zap.Int64("value", value))

	// 1. Resolve this host once; there is no other address source.
	id, err := transport.Discover(cfg.Host)
	if err != nil {
		log.Error("error getting network addresses", zap.Error(err))
		return err
	}
	log.Info("network identity", zap.Stringer("local", id.Local), zap.Stringer("broadcast", id.Broadcast))

	// 2. Whoever binds the coordination port is the master.
	role, conn, err := elector.Elect(cfg.Port, transport.Options{
		Identity:   id,
		Pacing:     cfg.Pacing,
		BufferSize: cfg.BufferSize,
		TTL:        cfg.TTL,
		Logger:     log,
	})
	if err != nil {
		log.Error("failed to start", zap.Error(err))
		return err
	}
	telemetry.SetBuildInfo(version, role.String())
	log.Info("started", zap.Stringer("role", role), zap.Stringer("addr", conn.LocalAddr()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if role == elector.RoleMaster {
		return runMaster(ctx, cfg, id, conn, value, log)
	}
	return runSlave(ctx, cfg, id, conn, value, log)
}

func runMaster(ctx context.Context, cfg config.Config, id transport.Identity, conn *transport.Conn, value int64, log *zap.Logger) error {
	m := master.New(conn, id.Local, value, master.WithLogger(log), master.WithGrace(cfg.Grace))

	if cfg.StatusAddr != "" {
		srv := &http.Server{Addr: cfg.StatusAddr, Handler: m.Router()}
		go func() {
			log.Info("status listening", zap.String("addr", cfg.StatusAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("status server", zap.Error(err))
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	if len(cfg.Etcd) > 0 {
		cli, err := discovery.NewClient(cfg.Etcd)
		if err != nil {
			log.Warn("etcd unavailable, not registering", zap.Error(err))
		} else {
			defer cli.Close()
			if release := register(ctx, cli, cfg, id, log); release != nil {
				defer release()
			}
		}
	}

	return m.Run(ctx)
}

// register publishes the master in etcd. Failure only costs remote slaves the
// ability to find this master, so it is logged, not fatal.
func register(ctx context.Context, cli *clientv3.Client, cfg config.Config, id transport.Identity, log *zap.Logger) func() {
	rctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	lease, keepalive, err := discovery.RegisterMaster(rctx, cli, cfg.Port, id.Local.String(), cfg.LeaseTTL)
	if err != nil {
		log.Warn("register master", zap.Error(err))
		return nil
	}
	log.Info("registered master", zap.Int("port", cfg.Port), zap.Int64("lease", int64(lease)))
	return func() {
		keepalive()
		_, _ = cli.Revoke(context.TODO(), lease)
	}
}

func runSlave(ctx context.Context, cfg config.Config, id transport.Identity, conn *transport.Conn, value int64, log *zap.Logger) error {
	dst, err := resolveTarget(ctx, cfg, id, log)
	if err != nil {
		conn.Close()
		log.Error("failed to start in slave mode", zap.Error(err))
		return err
	}
	return slave.New(conn, dst, log).Send(value)
}

// resolveTarget picks the master address a slave sends to. With etcd configured
// and the default target, the registered master host wins over the local one.
func resolveTarget(ctx context.Context, cfg config.Config, id transport.Identity, log *zap.Logger) (net.IP, error) {
	switch cfg.Target {
	case config.TargetBroadcast:
		return id.Broadcast, nil
	case config.TargetLocal:
		if len(cfg.Etcd) > 0 {
			if ip := lookupMaster(ctx, cfg, log); ip != nil {
				return ip, nil
			}
		}
		return id.Local, nil
	}
	ip := net.ParseIP(cfg.Target)
	if ip == nil {
		return nil, fmt.Errorf("invalid target %q", cfg.Target)
	}
	return ip, nil
}

func lookupMaster(ctx context.Context, cfg config.Config, log *zap.Logger) net.IP {
	cli, err := discovery.NewClient(cfg.Etcd)
	if err != nil {
		log.Warn("etcd unavailable", zap.Error(err))
		return nil
	}
	defer cli.Close()

	lctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	h, err := discovery.LookupMaster(lctx, cli, cfg.Port)
	if err != nil {
		log.Warn("lookup master", zap.Error(err))
		return nil
	}
	return net.ParseIP(h)
}
