// Package xconf 提供统一的配置加载和解析功能，基于 koanf 实现。
//
// # 设计理念
//
// xconf 定位为最小化配置加载器，负责文件/字节数据的加载、环境变量覆盖和反序列化。
// 不负责必选字段校验和默认值注入，这些由使用方（如 xttl.Config）完成。
//
//   - 工厂函数：New, NewFromBytes
//   - Client() 暴露底层 koanf 实例
//   - 增值功能：并发安全的 Reload、类型安全的 Unmarshal、环境变量覆盖
//
// # 支持的格式
//
//   - YAML（默认，推荐）：.yaml, .yml
//   - JSON：.json
//
// # 环境变量覆盖
//
// WithEnvPrefix("XTTL_") 之后，XTTL_CACHE__DEFAULT_TTL=30s 会覆盖 cache.default_ttl。
// 双下划线表示层级分隔，单下划线保留为 key 的一部分，key 统一转为小写。
//
// # Unmarshal
//
// Unmarshal 使用 koanf 默认的 mapstructure 配置，支持弱类型转换、
// "1m30s" 形式的 time.Duration 以及 encoding.TextUnmarshaler（如 xlog.Level）。
package xconf
