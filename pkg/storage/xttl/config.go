package xttl

import "time"

// Config 是可从配置文件加载的缓存配置（见 xconf）。
//
//	cache:
//	  namespace: sessions
//	  default_ttl: 10m
//	  cleaning_interval: 30s
//	  immediate_clean: false
//
// 零值字段表示使用默认值；default_ttl 设为负值（如 "-1s"）表示默认永不过期。
type Config struct {
	Namespace        string        `koanf:"namespace"`
	DefaultTTL       time.Duration `koanf:"default_ttl"`
	CleaningInterval time.Duration `koanf:"cleaning_interval"`
	CleaningSchedule string        `koanf:"cleaning_schedule"`
	DisableCleaning  *bool         `koanf:"disable_cleaning"`
	ImmediateClean   *bool         `koanf:"immediate_clean"`
	SweepConcurrency int           `koanf:"sweep_concurrency"`
}

// Options 把配置转换为 Option 列表，只包含显式设置的字段。
func (c Config) Options() []Option {
	var opts []Option
	if c.Namespace != "" {
		opts = append(opts, WithNamespace(c.Namespace))
	}
	if c.DefaultTTL != 0 {
		opts = append(opts, WithDefaultTTL(c.DefaultTTL))
	}
	if c.CleaningInterval > 0 {
		opts = append(opts, WithCleaningInterval(c.CleaningInterval))
	}
	if c.CleaningSchedule != "" {
		opts = append(opts, WithCleaningSchedule(c.CleaningSchedule))
	}
	if c.DisableCleaning != nil {
		opts = append(opts, WithDisableCleaning(*c.DisableCleaning))
	}
	if c.ImmediateClean != nil {
		opts = append(opts, WithImmediateClean(*c.ImmediateClean))
	}
	if c.SweepConcurrency > 0 {
		opts = append(opts, WithSweepConcurrency(c.SweepConcurrency))
	}
	return opts
}
