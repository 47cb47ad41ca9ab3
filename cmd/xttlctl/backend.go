package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/omeyang/xttl/pkg/observability/xlog"
	"github.com/omeyang/xttl/pkg/storage/xkv"
)

// openStore 按配置打开后端存储，并包装重试与熔断。
func openStore(ctx context.Context, cfg storeConfig, logger xlog.Logger) (xkv.Store, error) {
	store, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := []xkv.ResilientOption{
		xkv.WithBreakerName("xttlctl-" + cfg.Backend),
		xkv.WithStateChange(func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "store circuit breaker state changed",
				xlog.Component(name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		}),
	}
	if cfg.Retry.MaxAttempts > 0 {
		opts = append(opts, xkv.WithMaxAttempts(cfg.Retry.MaxAttempts))
	}
	if cfg.Retry.FailureThreshold > 0 {
		opts = append(opts, xkv.WithFailureThreshold(cfg.Retry.FailureThreshold))
	}
	if cfg.Retry.OpenTimeout > 0 {
		opts = append(opts, xkv.WithOpenTimeout(cfg.Retry.OpenTimeout))
	}

	resilient, err := xkv.NewResilient(store, opts...)
	if err != nil {
		return nil, errors.Join(err, store.Close())
	}
	return resilient, nil
}

func openBackend(ctx context.Context, cfg storeConfig) (xkv.Store, error) {
	switch cfg.Backend {
	case backendBolt:
		if cfg.Bolt.Path == "" {
			return nil, usagef("bolt 后端需要 --path")
		}
		var opts []xkv.BoltOption
		if cfg.Bolt.Bucket != "" {
			opts = append(opts, xkv.WithBoltBucket(cfg.Bolt.Bucket))
		}
		return xkv.NewBolt(cfg.Bolt.Path, opts...)

	case backendRedis:
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    cfg.Redis.Addrs,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return xkv.NewRedis(client, xkv.WithRedisKeyPrefix(cfg.Redis.KeyPrefix))

	case backendEtcd:
		client, err := clientv3.New(clientv3.Config{
			Endpoints:   cfg.Etcd.Endpoints,
			DialTimeout: cfg.Etcd.DialTimeout,
			Context:     ctx,
		})
		if err != nil {
			return nil, fmt.Errorf("connect etcd: %w", err)
		}
		return xkv.NewEtcd(client, xkv.WithEtcdRootPrefix(cfg.Etcd.RootPrefix))

	case backendMongo:
		client, err := mongo.Connect(options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		store, err := xkv.NewMongo(client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection))
		if err != nil {
			return nil, errors.Join(err, client.Disconnect(ctx))
		}
		return &closingStore{Store: store, closeFn: func() error {
			return client.Disconnect(context.Background())
		}}, nil

	case backendConfigMap:
		restCfg, err := clientcmd.BuildConfigFromFlags("", cfg.ConfigMap.Kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("load kubeconfig: %w", err)
		}
		clientset, err := kubernetes.NewForConfig(restCfg)
		if err != nil {
			return nil, fmt.Errorf("create kubernetes client: %w", err)
		}
		return xkv.NewConfigMap(clientset, cfg.ConfigMap.Namespace, cfg.ConfigMap.Name)

	default:
		return nil, usagef("未知的存储后端 %q（可选: bolt, redis, etcd, mongo, configmap）", cfg.Backend)
	}
}

// closingStore 在关闭 Store 后释放其底层客户端。
type closingStore struct {
	xkv.Store
	closeFn func() error
}

func (s *closingStore) Close() error {
	err := s.Store.Close()
	if errors.Is(err, xkv.ErrClosed) {
		return err
	}
	return errors.Join(err, s.closeFn())
}
