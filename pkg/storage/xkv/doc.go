// Package xkv 定义 TTL 缓存所依赖的持久化 KV 存储契约，并提供多种后端实现。
//
// # 设计理念
//
// xkv 只关心"字节进、字节出"的最小存储语义：
//   - Get / Set / Delete：单 key 操作，key 不存在时 Get 返回 ErrNotFound
//   - Keys：枚举整个物理 key 空间（不区分命名空间，命名空间由上层负责）
//   - Close：释放后端持有的资源
//
// 过期、命名空间、序列化都不属于存储层，由 xttl 负责。
//
// # 后端
//
//   - NewMemory：进程内 map，适合测试和临时场景
//   - NewBolt：基于 bbolt 的嵌入式持久化存储（单文件）
//   - NewRedis：基于 go-redis UniversalClient，Keys 使用 SCAN 遍历
//   - NewEtcd：基于 etcd clientv3，Keys 使用 keys-only 范围读
//   - NewMongo：基于 mongo-driver v2，每个 key 一个文档
//   - NewConfigMap：基于 client-go，所有条目存放在同一个 ConfigMap 的 binaryData 中
//
// # 容错
//
// NewResilient 为任意 Store 叠加重试（avast/retry-go）和熔断（sony/gobreaker）：
//   - ErrNotFound 不重试、不计入熔断失败
//   - 熔断打开期间直接返回 ErrUnavailable，避免对不可用的后端反复施压
//
// # Keys 的类型过滤
//
// 部分后端的物理 key 并不总是合法字符串（bbolt 的 []byte、MongoDB 的任意 _id）。
// Keys 只返回字符串类型的 key，其余 key 被静默跳过，不视为错误。
package xkv
