package xconf

import "os"

// Options 定义配置加载选项。
type Options struct {
	// Delim 配置键的分隔符，默认为 "."。
	Delim string

	// Tag 结构体标签名，用于 Unmarshal，默认为 "koanf"。
	Tag string

	// EnvPrefix 环境变量覆盖的前缀，为空时不读取环境变量。
	EnvPrefix string

	// Environ 返回环境变量列表（"KEY=value" 形式），作为 env provider 的数据源。
	// 默认 os.Environ。
	Environ func() []string
}

// Option 定义配置选项函数类型。
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Delim:   ".",
		Tag:     "koanf",
		Environ: os.Environ,
	}
}

// WithDelim 设置配置键分隔符。
func WithDelim(delim string) Option {
	return func(o *Options) {
		if delim != "" {
			o.Delim = delim
		}
	}
}

// WithTag 设置结构体标签名。
func WithTag(tag string) Option {
	return func(o *Options) {
		if tag != "" {
			o.Tag = tag
		}
	}
}

// WithEnvPrefix 启用以 prefix 开头的环境变量覆盖。
func WithEnvPrefix(prefix string) Option {
	return func(o *Options) {
		o.EnvPrefix = prefix
	}
}

// WithEnviron 替换环境变量来源，主要用于测试。
func WithEnviron(fn func() []string) Option {
	return func(o *Options) {
		if fn != nil {
			o.Environ = fn
		}
	}
}
