// Package xttl 提供带命名空间和过期时间的缓存，条目持久化在任意 xkv.Store 上。
//
// # 模型
//
// 每个逻辑 key 存为物理 key "namespace-key"，值是编码后的条目：
//
//	{"value": <V>, "expires": 1730000000123}
//
// expires 为 unix 毫秒；条目永不过期时省略。缓存本身不在内存中保存任何条目，
// 每次操作都直接读写存储。
//
// # 过期
//
// 过期采用两种方式回收：
//   - 惰性：Get 读到已过期（expires < now）的条目时删除它，并在删除完成后返回未命中
//   - 清理：CleanExpired 遍历本命名空间的全部 key，并发检查并删除过期条目
//
// New 默认在后台立即执行一次清理，并每 60 秒清理一次；
// 也可以通过 WithCleaningSchedule 使用标准 cron 表达式。Close 停止定时清理。
//
// # 错误处理
//
// 存储故障不会传递给调用方：Get 返回未命中，Set/Delete 成为空操作。
// 故障以 Debug 级别记录到 xlog，并在 xmetrics 跨度上标记为 error。
// 只有 New 会返回错误（参数无效）。
//
// # 使用示例
//
//	store, _ := xkv.NewBolt("/var/lib/app/cache.db")
//	cache, err := xttl.New[Session](store, xttl.WithNamespace("sessions"))
//	if err != nil {
//		return err
//	}
//	defer cache.Close()
//
//	cache.SetWithTTL(ctx, "u-1", sess, 10*time.Minute)
//	if s, ok := cache.Get(ctx, "u-1"); ok {
//		// ...
//	}
package xttl
