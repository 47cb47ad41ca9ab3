// Package xlog 基于 log/slog 的结构化日志库。
//
// # 核心功能
//
//   - Builder 模式配置（输出目标、级别、格式、轮转）
//   - 动态级别调整（运行时热更新）
//   - 固定属性注入（如进程名、组件名）
//   - 全局 Logger 便利函数
//
// # 创建 Logger
//
// 使用 Builder 模式（first-error-wins：遇到第一个配置错误后，Build 返回该错误）。
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		SetRotation("/var/log/xttl.log", xlog.WithMaxSize(50)).
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
//
// SetRotation 使用 lumberjack 按大小轮转，cleanup 负责关闭文件。
//
// # 全局 Logger
//
// 适用于脚手架、小工具等简单场景，库代码推荐依赖注入。
//
//   - [Default]: 获取全局 Logger（惰性初始化：stderr、Info 级别、text 格式）
//   - [SetDefault]: 替换全局 Logger（nil 会被忽略）
//   - [ResetDefault]: 重置为未初始化状态（仅用于测试）
//
// # 便捷属性
//
// [Err]、[Duration]、[Component]、[Operation]、[Count]，
// 以及缓存相关的 [Namespace]、[Key]。
package xlog
