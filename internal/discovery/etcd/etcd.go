package etcd

import (
	"context"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const keyPrefix = "/services/"

// Registry registers service endpoints in etcd under a leased key so the
// chat orchestrator can look up the memory service's retrieval endpoint.
// The key disappears on its own once the lease stops being refreshed.
type Registry struct {
	cli *clientv3.Client
}

func NewRegistry(endpoints []string) (*Registry, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}
	return &Registry{cli: cli}, nil
}

// Register publishes serviceName -> addr with the given lease TTL and
// keeps the lease alive until the returned stop channel is closed.
func (r *Registry) Register(ctx context.Context, serviceName, addr string, ttl int64) (chan<- struct{}, error) {
	lease, err := r.cli.Grant(ctx, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to grant lease: %w", err)
	}

	key := keyPrefix + serviceName + "/" + addr
	if _, err := r.cli.Put(ctx, key, addr, clientv3.WithLease(lease.ID)); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", serviceName, err)
	}

	keepAlive, err := r.cli.KeepAlive(context.Background(), lease.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to keep lease alive: %w", err)
	}

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				r.cli.Delete(context.Background(), key)
				r.cli.Revoke(context.Background(), lease.ID)
				return
			case _, ok := <-keepAlive:
				if !ok {
					// Lease expired; etcd drops the key by itself.
					return
				}
			}
		}
	}()
	return stop, nil
}

// Lookup returns the registered addresses of a service.
func (r *Registry) Lookup(ctx context.Context, serviceName string) ([]string, error) {
	resp, err := r.cli.Get(ctx, keyPrefix+serviceName+"/", clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", serviceName, err)
	}
	addrs := make([]string, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		addrs = append(addrs, string(kv.Value))
	}
	return addrs, nil
}

func (r *Registry) Close() error {
	return r.cli.Close()
}
