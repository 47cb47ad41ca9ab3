package xttl

import (
	"fmt"
	"strings"
)

// Separator 是命名空间与逻辑 key 之间的分隔符。
const Separator = "-"

// PhysicalKey 返回逻辑 key 在存储中的物理 key。
func PhysicalKey(namespace, key string) string {
	return namespace + Separator + key
}

// LogicalKey 去掉物理 key 的命名空间前缀。
// 物理 key 不以 namespace+"-" 开头时返回 ErrNotInNamespace。
func LogicalKey(namespace, physical string) (string, error) {
	key, ok := strings.CutPrefix(physical, namespace+Separator)
	if !ok {
		return "", ErrNotInNamespace
	}
	return key, nil
}

// validateNamespace 要求命名空间非空且不含分隔符，
// 保证不同命名空间的前缀互不包含。
func validateNamespace(ns string) error {
	if ns == "" {
		return fmt.Errorf("%w: empty", ErrInvalidNamespace)
	}
	if strings.Contains(ns, Separator) {
		return fmt.Errorf("%w: %q contains %q", ErrInvalidNamespace, ns, Separator)
	}
	return nil
}
