// Package discovery publishes the master's host in etcd so slaves on other
// machines can find it without relying on the local host address.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
)

const prefix = "/das/masters/"

var ErrNotFound = errors.New("master not registered")

func NewClient(endpoints []string) (*clientv3.Client, error) {
	return clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
}

func masterKey(port int) string {
	return prefix + strconv.Itoa(port)
}

// RegisterMaster stores host under the coordination port with a lease that is
// kept alive until cancel is called.
func RegisterMaster(ctx context.Context, cli *clientv3.Client, port int, host string, ttl int64) (clientv3.LeaseID, context.CancelFunc, error) {
	lease, err := cli.Grant(ctx, ttl)
	if err != nil {
		return 0, nil, fmt.Errorf("grant lease: %w", err)
	}
	if _, err := cli.Put(ctx, masterKey(port), host, clientv3.WithLease(lease.ID)); err != nil {
		return 0, nil, fmt.Errorf("put %s: %w", masterKey(port), err)
	}

	kctx, cancel := context.WithCancel(context.Background())
	ch, err := cli.KeepAlive(kctx, lease.ID)
	if err != nil {
		cancel()
		return 0, nil, fmt.Errorf("keepalive: %w", err)
	}
	go func() {
		for range ch {
		}
	}()
	return lease.ID, cancel, nil
}

// LookupMaster returns the host registered for port.
func LookupMaster(ctx context.Context, cli *clientv3.Client, port int) (string, error) {
	resp, err := cli.Get(ctx, masterKey(port))
	if err != nil {
		return "", err
	}
	if len(resp.Kvs) == 0 {
		return "", fmt.Errorf("port %d: %w", port, ErrNotFound)
	}
	return string(resp.Kvs[0].Value), nil
}

// ListMasters returns every registered master keyed by coordination port.
func ListMasters(ctx context.Context, cli *clientv3.Client) (map[int]string, error) {
	resp, err := cli.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}
	return Masters(resp.Kvs), nil
}

// Masters decodes a prefix listing. Keys that do not end in a port are skipped.
func Masters(kvs []*mvccpb.KeyValue) map[int]string {
	out := make(map[int]string, len(kvs))
	for _, kv := range kvs {
		port, err := strconv.Atoi(strings.TrimPrefix(string(kv.Key), prefix))
		if err != nil {
			continue
		}
		out[port] = string(kv.Value)
	}
	return out
}
