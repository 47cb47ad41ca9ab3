package xkv

import (
	"context"
	"io"
	"strings"
	"sync/atomic"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// etcdKV 定义 etcd KV 操作接口，用于依赖注入和测试。
// 接口方法与 clientv3.KV 保持一致。
type etcdKV interface {
	Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error)
	Put(ctx context.Context, key, val string, opts ...clientv3.OpOption) (*clientv3.PutResponse, error)
	Delete(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.DeleteResponse, error)
}

// 确保 clientv3.KV 满足 etcdKV（编译时检查）
var _ etcdKV = clientv3.KV(nil)

// =============================================================================
// etcd 配置选项
// =============================================================================

// EtcdOptions 定义 etcd 存储的配置选项。
type EtcdOptions struct {
	// RootPrefix 所有物理 key 的根前缀（如 "/xttl/"）。
	// Keys 只读取该前缀下的 key，并在返回前去掉前缀。
	// 默认为空（读取整个 keyspace）。
	RootPrefix string
}

// EtcdOption 定义配置 etcd 存储的函数类型。
type EtcdOption func(*EtcdOptions)

// WithEtcdRootPrefix 设置根前缀。
func WithEtcdRootPrefix(prefix string) EtcdOption {
	return func(o *EtcdOptions) {
		o.RootPrefix = prefix
	}
}

// =============================================================================
// etcd 存储实现
// =============================================================================

// etcdStore 基于 etcd clientv3 的存储实现。
type etcdStore struct {
	kv      etcdKV
	closer  io.Closer // 可为 nil（测试注入时）
	options *EtcdOptions
	closed  atomic.Bool
}

// NewEtcd 创建 etcd 存储。Close 时会关闭 client。
func NewEtcd(client *clientv3.Client, opts ...EtcdOption) (Store, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	return newEtcdStore(client.KV, client, opts...), nil
}

func newEtcdStore(kv etcdKV, closer io.Closer, opts ...EtcdOption) *etcdStore {
	options := &EtcdOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return &etcdStore{kv: kv, closer: closer, options: options}
}

func (s *etcdStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := s.check(ctx, key); err != nil {
		return nil, err
	}
	resp, err := s.kv.Get(ctx, s.options.RootPrefix+key)
	if err != nil {
		return nil, err
	}
	if len(resp.Kvs) == 0 {
		return nil, ErrNotFound
	}
	return resp.Kvs[0].Value, nil
}

func (s *etcdStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.check(ctx, key); err != nil {
		return err
	}
	_, err := s.kv.Put(ctx, s.options.RootPrefix+key, string(value))
	return err
}

func (s *etcdStore) Delete(ctx context.Context, key string) error {
	if err := s.check(ctx, key); err != nil {
		return err
	}
	_, err := s.kv.Delete(ctx, s.options.RootPrefix+key)
	return err
}

func (s *etcdStore) Keys(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		resp *clientv3.GetResponse
		err  error
	)
	root := s.options.RootPrefix
	if root == "" {
		// 空前缀：从最小 key 开始读到末尾，即整个 keyspace
		resp, err = s.kv.Get(ctx, "\x00", clientv3.WithFromKey(), clientv3.WithKeysOnly())
	} else {
		resp, err = s.kv.Get(ctx, root, clientv3.WithPrefix(), clientv3.WithKeysOnly())
	}
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		keys = append(keys, strings.TrimPrefix(string(kv.Key), root))
	}
	return keys, nil
}

func (s *etcdStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func (s *etcdStore) check(ctx context.Context, key string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return checkKey(ctx, key)
}
