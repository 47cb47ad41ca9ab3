package xlog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// DefaultMaxSizeMB 默认单个日志文件最大大小（MB）
	DefaultMaxSizeMB = 100

	// DefaultMaxBackups 默认保留的备份文件数量
	DefaultMaxBackups = 7

	// DefaultMaxAgeDays 默认保留备份的天数
	DefaultMaxAgeDays = 30

	maxSizeMB = 10240
)

// 轮转配置错误
var (
	ErrEmptyFilename   = errors.New("xlog: empty rotation filename")
	ErrInvalidMaxSize  = errors.New("xlog: invalid rotation max size")
	ErrNoCleanupPolicy = errors.New("xlog: rotation needs max backups or max age")
)

// rotationConfig lumberjack 按大小轮转的配置
type rotationConfig struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	LocalTime  bool
}

// RotationOption 轮转配置选项
type RotationOption func(*rotationConfig)

// WithMaxSize 设置单个日志文件最大大小（MB）
func WithMaxSize(mb int) RotationOption {
	return func(c *rotationConfig) { c.MaxSizeMB = mb }
}

// WithMaxBackups 设置保留的备份文件数量，0 表示不按数量清理
func WithMaxBackups(n int) RotationOption {
	return func(c *rotationConfig) { c.MaxBackups = n }
}

// WithMaxAge 设置保留备份的天数，0 表示不按天数清理
func WithMaxAge(days int) RotationOption {
	return func(c *rotationConfig) { c.MaxAgeDays = days }
}

// WithCompress 设置是否 gzip 压缩备份
func WithCompress(compress bool) RotationOption {
	return func(c *rotationConfig) { c.Compress = compress }
}

// WithLocalTime 备份文件名使用本地时间（默认 UTC）
func WithLocalTime(local bool) RotationOption {
	return func(c *rotationConfig) { c.LocalTime = local }
}

// newRotator 创建 lumberjack 写入器，父目录不存在时创建。
func newRotator(filename string, opts ...RotationOption) (*lumberjack.Logger, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	cfg := rotationConfig{
		MaxSizeMB:  DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAgeDays: DefaultMaxAgeDays,
		Compress:   true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.MaxSizeMB <= 0 || cfg.MaxSizeMB > maxSizeMB {
		return nil, fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidMaxSize, cfg.MaxSizeMB, maxSizeMB)
	}
	if cfg.MaxBackups <= 0 && cfg.MaxAgeDays <= 0 {
		return nil, ErrNoCleanupPolicy
	}

	path := filepath.Clean(filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("xlog: create log dir: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: max(cfg.MaxBackups, 0),
		MaxAge:     max(cfg.MaxAgeDays, 0),
		Compress:   cfg.Compress,
		LocalTime:  cfg.LocalTime,
	}, nil
}
