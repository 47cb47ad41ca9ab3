// Package storage 提供数据存储相关的子包。
//
// 子包列表：
//   - xkv: 键值存储抽象，提供内存、bbolt、Redis、etcd、MongoDB、ConfigMap 后端以及重试熔断包装
//   - xttl: 基于 xkv 的命名空间 TTL 缓存，支持惰性过期和定时清理
//
// 存储后端的生命周期由调用方管理：xttl 不会关闭它使用的 xkv.Store。
package storage
