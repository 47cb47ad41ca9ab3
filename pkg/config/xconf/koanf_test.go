package xconf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cacheSection struct {
	Namespace  string        `koanf:"namespace"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	Disable    *bool         `koanf:"disable_cleaning"`
}

const yamlConfig = `
cache:
  namespace: sessions
  default_ttl: 90s
store:
  backend: bolt
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNew_YAML(t *testing.T) {
	path := writeFile(t, "xttl.yaml", yamlConfig)

	cfg, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path())
	assert.Equal(t, FormatYAML, cfg.Format())
	assert.Equal(t, "bolt", cfg.Client().String("store.backend"))

	var c cacheSection
	require.NoError(t, cfg.Unmarshal("cache", &c))
	assert.Equal(t, "sessions", c.Namespace)
	assert.Equal(t, 90*time.Second, c.DefaultTTL)
	assert.Nil(t, c.Disable)
}

func TestNew_Errors(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = New("config.toml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = New(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrLoadFailed)

	_, err = New(writeFile(t, "bad.json", "{not json"))
	assert.ErrorIs(t, err, ErrParseFailed)
}

func TestNewFromBytes(t *testing.T) {
	cfg, err := NewFromBytes([]byte(`{"cache":{"namespace":"api","default_ttl":"1m"}}`), FormatJSON)
	require.NoError(t, err)
	assert.Empty(t, cfg.Path())
	assert.ErrorIs(t, cfg.Reload(), ErrReloadUnsupported)

	var c cacheSection
	require.NoError(t, cfg.Unmarshal("cache", &c))
	assert.Equal(t, "api", c.Namespace)
	assert.Equal(t, time.Minute, c.DefaultTTL)

	empty, err := NewFromBytes(nil, FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, empty.Client().Keys())

	_, err = NewFromBytes(nil, Format("ini"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestUnmarshal_TypeMismatch(t *testing.T) {
	cfg, err := NewFromBytes([]byte("cache:\n  default_ttl: forever\n"), FormatYAML)
	require.NoError(t, err)

	var c cacheSection
	assert.ErrorIs(t, cfg.Unmarshal("cache", &c), ErrUnmarshalFailed)
	assert.Panics(t, func() { MustUnmarshal(cfg, "cache", &c) })
}

func TestEnvOverride(t *testing.T) {
	env := func() []string {
		return []string{
			"XTTL_CACHE__DEFAULT_TTL=5s",
			"XTTL_CACHE__DISABLE_CLEANING=true",
			"XTTL_=ignored",
			"OTHER_CACHE__NAMESPACE=ignored",
			"malformed",
		}
	}
	cfg, err := NewFromBytes([]byte(yamlConfig), FormatYAML, WithEnvPrefix("XTTL_"), WithEnviron(env))
	require.NoError(t, err)

	var c cacheSection
	require.NoError(t, cfg.Unmarshal("cache", &c))
	assert.Equal(t, "sessions", c.Namespace)
	assert.Equal(t, 5*time.Second, c.DefaultTTL)
	require.NotNil(t, c.Disable)
	assert.True(t, *c.Disable)
}

func TestEnvOverride_ProcessEnv(t *testing.T) {
	t.Setenv("XTTL_TEST_CACHE__NAMESPACE", "from-env")
	t.Setenv("XTTL_TEST_STORE__BACKEND", "redis")

	cfg, err := NewFromBytes([]byte(yamlConfig), FormatYAML, WithEnvPrefix("XTTL_TEST_"))
	require.NoError(t, err)

	var c cacheSection
	require.NoError(t, cfg.Unmarshal("cache", &c))
	assert.Equal(t, "from-env", c.Namespace)
	assert.Equal(t, 90*time.Second, c.DefaultTTL)
	assert.Equal(t, "redis", cfg.Client().String("store.backend"))
}

func TestEnvOverride_Disabled(t *testing.T) {
	t.Setenv("XTTL_CACHE__NAMESPACE", "from-env")

	cfg, err := NewFromBytes([]byte(yamlConfig), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "sessions", cfg.Client().String("cache.namespace"))
}

func TestEnvKeyTransform(t *testing.T) {
	transform := envKeyTransform("XTTL_", ".")

	key, value := transform("XTTL_CACHE__DEFAULT_TTL", "5s")
	assert.Equal(t, "cache.default_ttl", key)
	assert.Equal(t, "5s", value)

	key, _ = transform("XTTL_LOG__LEVEL", "debug")
	assert.Equal(t, "log.level", key)

	key, _ = transform("XTTL_", "x")
	assert.Empty(t, key)
}

func TestReload(t *testing.T) {
	path := writeFile(t, "xttl.yaml", yamlConfig)
	cfg, err := New(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("cache:\n  namespace: reloaded\n"), 0o600))
	require.NoError(t, cfg.Reload())
	assert.Equal(t, "reloaded", cfg.Client().String("cache.namespace"))

	// 解析失败保留旧配置
	require.NoError(t, os.WriteFile(path, []byte("cache: [unclosed"), 0o600))
	assert.ErrorIs(t, cfg.Reload(), ErrParseFailed)
	assert.Equal(t, "reloaded", cfg.Client().String("cache.namespace"))
}

func TestOptions_IgnoreEmpty(t *testing.T) {
	o := applyOptions([]Option{WithDelim(""), WithTag(""), WithEnviron(nil), nil})
	assert.Equal(t, ".", o.Delim)
	assert.Equal(t, "koanf", o.Tag)
	assert.NotNil(t, o.Environ)
}
