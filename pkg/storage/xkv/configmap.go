package xkv

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/client-go/kubernetes"
	typedcorev1 "k8s.io/client-go/kubernetes/typed/core/v1"
	"k8s.io/client-go/util/retry"
)

// configMapStore 把所有条目存放在同一个 ConfigMap 的 binaryData 中。
//
// 适用于条目数量少、希望随集群持久化的场景。ConfigMap 总大小受 etcd 限制（约 1MiB）。
// 并发写入通过 resourceVersion 乐观锁 + RetryOnConflict 处理。
type configMapStore struct {
	client    kubernetes.Interface
	namespace string
	name      string
	closed    atomic.Bool
}

// NewConfigMap 创建基于 ConfigMap 的存储。
// ConfigMap 不存在时会在首次写入时创建。
//
// key 必须满足 ConfigMap 的 key 规则（[-._a-zA-Z0-9]+），否则返回 ErrInvalidKey。
func NewConfigMap(client kubernetes.Interface, namespace, name string) (Store, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if namespace == "" || name == "" {
		return nil, fmt.Errorf("%w: configmap namespace and name are required", ErrInvalidConfig)
	}
	return &configMapStore{client: client, namespace: namespace, name: name}, nil
}

func (s *configMapStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := s.check(ctx, key); err != nil {
		return nil, err
	}
	cm, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if cm == nil {
		return nil, ErrNotFound
	}
	value, ok := cm.BinaryData[key]
	if !ok {
		return nil, ErrNotFound
	}
	return value, nil
}

func (s *configMapStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.check(ctx, key); err != nil {
		return err
	}
	return retry.RetryOnConflict(retry.DefaultRetry, func() error {
		cm, err := s.load(ctx)
		if err != nil {
			return err
		}
		if cm == nil {
			_, err = s.configMaps().Create(ctx, &corev1.ConfigMap{
				ObjectMeta: metav1.ObjectMeta{Name: s.name, Namespace: s.namespace},
				BinaryData: map[string][]byte{key: value},
			}, metav1.CreateOptions{})
			if apierrors.IsAlreadyExists(err) {
				// 并发创建：转换为冲突，让 RetryOnConflict 重新读取
				return apierrors.NewConflict(corev1.Resource("configmaps"), s.name, err)
			}
			return err
		}
		if cm.BinaryData == nil {
			cm.BinaryData = make(map[string][]byte, 1)
		}
		cm.BinaryData[key] = value
		_, err = s.configMaps().Update(ctx, cm, metav1.UpdateOptions{})
		return err
	})
}

func (s *configMapStore) Delete(ctx context.Context, key string) error {
	if err := s.check(ctx, key); err != nil {
		return err
	}
	return retry.RetryOnConflict(retry.DefaultRetry, func() error {
		cm, err := s.load(ctx)
		if err != nil || cm == nil {
			return err
		}
		if _, ok := cm.BinaryData[key]; !ok {
			return nil
		}
		delete(cm.BinaryData, key)
		_, err = s.configMaps().Update(ctx, cm, metav1.UpdateOptions{})
		return err
	})
}

func (s *configMapStore) Keys(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cm, err := s.load(ctx)
	if err != nil || cm == nil {
		return nil, err
	}
	keys := make([]string, 0, len(cm.BinaryData))
	for k := range cm.BinaryData {
		keys = append(keys, k)
	}
	return keys, nil
}

// Close 不持有需要释放的资源，clientset 由调用方管理。
func (s *configMapStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return nil
}

// load 读取 ConfigMap，不存在时返回 (nil, nil)。
func (s *configMapStore) load(ctx context.Context) (*corev1.ConfigMap, error) {
	cm, err := s.configMaps().Get(ctx, s.name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xkv: get configmap %s/%s: %w", s.namespace, s.name, err)
	}
	return cm, nil
}

func (s *configMapStore) configMaps() typedcorev1.ConfigMapInterface {
	return s.client.CoreV1().ConfigMaps(s.namespace)
}

func (s *configMapStore) check(ctx context.Context, key string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := checkKey(ctx, key); err != nil {
		return err
	}
	if errs := validation.IsConfigMapKey(key); len(errs) > 0 {
		return fmt.Errorf("%w: %q: %s", ErrInvalidKey, key, strings.Join(errs, "; "))
	}
	return nil
}
