package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// koanfConfig 是 Config 接口的 koanf 实现。
type koanfConfig struct {
	mu     sync.RWMutex
	k      *koanf.Koanf
	path   string
	format Format
	opts   *Options
}

// New 从文件路径创建配置实例。
// 根据文件扩展名自动检测格式（.yaml/.yml 或 .json）。
func New(path string, opts ...Option) (Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	c := &koanfConfig{path: path, format: format, opts: applyOptions(opts)}
	k, err := c.loadFile()
	if err != nil {
		return nil, err
	}
	c.k = k
	return c, nil
}

// NewFromBytes 从字节数据创建配置实例，需要显式指定格式。
// 空数据会创建一个空配置（环境变量覆盖仍然生效）。
func NewFromBytes(data []byte, format Format, opts ...Option) (Config, error) {
	if !isValidFormat(format) {
		return nil, ErrUnsupportedFormat
	}

	c := &koanfConfig{format: format, opts: applyOptions(opts)}
	k, err := c.build(data)
	if err != nil {
		return nil, err
	}
	c.k = k
	return c, nil
}

func applyOptions(opts []Option) *Options {
	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return options
}

// Client 返回底层的 koanf 实例。
func (c *koanfConfig) Client() *koanf.Koanf {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.k
}

// Unmarshal 将指定路径的配置反序列化到目标结构体。
func (c *koanfConfig) Unmarshal(path string, target any) error {
	k := c.Client()
	if err := k.UnmarshalWithConf(path, target, koanf.UnmarshalConf{Tag: c.opts.Tag}); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

// Reload 重新加载配置文件。解析失败时保留旧配置。
func (c *koanfConfig) Reload() error {
	if c.path == "" {
		return ErrReloadUnsupported
	}
	k, err := c.loadFile()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.k = k
	c.mu.Unlock()
	return nil
}

// Path 返回配置文件路径。
func (c *koanfConfig) Path() string {
	return c.path
}

// Format 返回配置格式。
func (c *koanfConfig) Format() Format {
	return c.format
}

// =============================================================================
// 内部辅助函数
// =============================================================================

func (c *koanfConfig) loadFile() (*koanf.Koanf, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return c.build(data)
}

// build 解析 data 并叠加环境变量覆盖，返回新的 koanf 实例。
func (c *koanfConfig) build(data []byte) (*koanf.Koanf, error) {
	k := koanf.New(c.opts.Delim)
	if len(data) > 0 {
		if err := loadData(k, data, c.format); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(k, c.opts); err != nil {
		return nil, err
	}
	return k, nil
}

// applyEnv 通过 koanf env provider 把 EnvPrefix 开头的环境变量叠加到 k。
// PREFIX_A__B_C=v 对应 key "a.b_c"。
func applyEnv(k *koanf.Koanf, opts *Options) error {
	if opts.EnvPrefix == "" {
		return nil
	}
	provider := env.Provider(opts.Delim, env.Opt{
		Prefix:        opts.EnvPrefix,
		EnvironFunc:   opts.Environ,
		TransformFunc: envKeyTransform(opts.EnvPrefix, opts.Delim),
	})
	if err := k.Load(provider, nil); err != nil {
		return fmt.Errorf("%w: env: %w", ErrLoadFailed, err)
	}
	return nil
}

// envKeyTransform 去掉前缀、转小写，并把 "__" 换成分隔符。
// 返回空 key 的变量会被 provider 跳过。
func envKeyTransform(prefix, delim string) func(key, value string) (string, any) {
	return func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, prefix))
		return strings.ReplaceAll(key, "__", delim), value
	}
}

// detectFormat 根据文件扩展名检测配置格式。
func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}

func isValidFormat(format Format) bool {
	return format == FormatYAML || format == FormatJSON
}

// loadData 加载数据到 koanf 实例。
func loadData(k *koanf.Koanf, data []byte, format Format) error {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return ErrUnsupportedFormat
	}

	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return nil
}
