package xlog

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Level 日志级别，与 slog.Level 兼容
type Level slog.Level

// 日志级别常量，与 slog 保持一致。
//
// 缓存按以下约定使用级别：
//   - Debug：被吞掉的存储故障、被丢弃的无法解码条目
//   - Info：删除了条目或出现失败的清理汇总
//   - Warn：熔断器状态变化、永远不会触发的清理计划
//   - Error：缓存自身不使用，留给调用方
const (
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

// String 返回级别的字符串表示，非标准级别形如 "INFO+2"。
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return slog.Level(l).String()
	}
}

// MarshalText 实现 encoding.TextMarshaler 接口
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler 接口，
// xconf 解码 log.level 时使用。
func (l *Level) UnmarshalText(data []byte) error {
	parsed, err := ParseLevel(string(data))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ErrUnknownLevel 表示无法识别的级别名称。
var ErrUnknownLevel = errors.New("xlog: unknown level")

// LevelNames 返回 ParseLevel 接受的规范级别名称，按严重程度升序。
// 用于命令行帮助和配置校验提示。
func LevelNames() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ParseLevel 解析 debug/info/warn/warning/error（大小写不敏感）。
// 无法识别时返回 LevelInfo 和包装了 ErrUnknownLevel 的错误。
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w %q (want one of %s)", ErrUnknownLevel, s, strings.Join(LevelNames(), ", "))
	}
}
