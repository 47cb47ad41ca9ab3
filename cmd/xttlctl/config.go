package main

import (
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xttl/pkg/config/xconf"
	"github.com/omeyang/xttl/pkg/observability/xlog"
	"github.com/omeyang/xttl/pkg/storage/xttl"
)

// envPrefix 环境变量覆盖前缀，如 XTTL_STORE__BACKEND=redis。
const envPrefix = "XTTL_"

// 存储后端名称
const (
	backendBolt      = "bolt"
	backendRedis     = "redis"
	backendEtcd      = "etcd"
	backendMongo     = "mongo"
	backendConfigMap = "configmap"
)

// appConfig 是配置文件的完整结构。
//
//	cache:
//	  namespace: sessions
//	  default_ttl: 10m
//	store:
//	  backend: redis
//	  redis:
//	    addrs: ["127.0.0.1:6379"]
//	log:
//	  level: info
type appConfig struct {
	Cache xttl.Config `koanf:"cache"`
	Store storeConfig `koanf:"store"`
	Log   logConfig   `koanf:"log"`
}

type storeConfig struct {
	Backend   string          `koanf:"backend"`
	Bolt      boltConfig      `koanf:"bolt"`
	Redis     redisConfig     `koanf:"redis"`
	Etcd      etcdConfig      `koanf:"etcd"`
	Mongo     mongoConfig     `koanf:"mongo"`
	ConfigMap configMapConfig `koanf:"configmap"`
	Retry     retryConfig     `koanf:"retry"`
}

type boltConfig struct {
	Path   string `koanf:"path"`
	Bucket string `koanf:"bucket"`
}

type redisConfig struct {
	Addrs     []string `koanf:"addrs"`
	Password  string   `koanf:"password"`
	DB        int      `koanf:"db"`
	KeyPrefix string   `koanf:"key_prefix"`
}

type etcdConfig struct {
	Endpoints   []string      `koanf:"endpoints"`
	DialTimeout time.Duration `koanf:"dial_timeout"`
	RootPrefix  string        `koanf:"root_prefix"`
}

type mongoConfig struct {
	URI        string `koanf:"uri"`
	Database   string `koanf:"database"`
	Collection string `koanf:"collection"`
}

type configMapConfig struct {
	Kubeconfig string `koanf:"kubeconfig"`
	Namespace  string `koanf:"namespace"`
	Name       string `koanf:"name"`
}

// retryConfig 对应 xkv.Resilient 的选项，零值使用默认值。
type retryConfig struct {
	MaxAttempts      uint          `koanf:"max_attempts"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
	OpenTimeout      time.Duration `koanf:"open_timeout"`
}

type logConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	File   string `koanf:"file"`
}

func defaultAppConfig() *appConfig {
	return &appConfig{
		Store: storeConfig{
			Backend: backendBolt,
			Bolt:    boltConfig{Path: "xttl.db"},
			Etcd:    etcdConfig{DialTimeout: 5 * time.Second},
			Mongo: mongoConfig{
				URI:        "mongodb://127.0.0.1:27017",
				Database:   "xttl",
				Collection: "cache",
			},
			ConfigMap: configMapConfig{Namespace: "default", Name: "xttl-cache"},
		},
		Log: logConfig{Level: "warn", Format: "text"},
	}
}

// globalFlags 返回所有全局选项。命令行显式设置的值覆盖配置文件。
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "配置文件路径（yaml/json）"},
		&cli.StringFlag{Name: "backend", Usage: "存储后端: bolt, redis, etcd, mongo, configmap", Value: backendBolt},
		&cli.StringFlag{Name: "namespace", Aliases: []string{"n"}, Usage: "缓存命名空间", Value: xttl.DefaultNamespace},
		&cli.StringFlag{Name: "path", Usage: "bolt 数据库文件路径", Value: "xttl.db"},
		&cli.StringSliceFlag{Name: "redis-addr", Usage: "Redis 地址，可重复指定"},
		&cli.StringSliceFlag{Name: "etcd-endpoints", Usage: "etcd 地址，可重复指定"},
		&cli.StringFlag{Name: "mongo-uri", Usage: "MongoDB 连接串"},
		&cli.StringFlag{Name: "mongo-db", Usage: "MongoDB 数据库"},
		&cli.StringFlag{Name: "mongo-collection", Usage: "MongoDB 集合"},
		&cli.StringFlag{Name: "kubeconfig", Usage: "kubeconfig 路径，为空时使用集群内配置"},
		&cli.StringFlag{Name: "configmap-namespace", Usage: "ConfigMap 所在的 K8s 命名空间"},
		&cli.StringFlag{Name: "configmap-name", Usage: "ConfigMap 名称"},
		&cli.StringFlag{Name: "log-level", Usage: "日志级别: " + strings.Join(xlog.LevelNames(), ", "), Value: "warn"},
		&cli.StringFlag{Name: "log-format", Usage: "日志格式: text, json", Value: "text"},
		&cli.StringFlag{Name: "log-file", Usage: "日志文件（按大小轮转），为空时输出到 stderr"},
		&cli.DurationFlag{Name: "timeout", Aliases: []string{"t"}, Usage: "单条命令超时时间", Value: defaultTimeout},
	}
}

// loadConfig 依次应用默认值、配置文件、XTTL_ 环境变量和命令行选项。
func loadConfig(cmd *cli.Command) (*appConfig, error) {
	cfg := defaultAppConfig()

	var (
		src xconf.Config
		err error
	)
	if path := cmd.String("config"); path != "" {
		src, err = xconf.New(path, xconf.WithEnvPrefix(envPrefix))
	} else {
		src, err = xconf.NewFromBytes(nil, xconf.FormatYAML, xconf.WithEnvPrefix(envPrefix))
	}
	if err != nil {
		return nil, usagef("加载配置失败: %v", err)
	}
	if err := src.Unmarshal("", cfg); err != nil {
		return nil, usagef("解析配置失败: %v", err)
	}

	overrideString(cmd, "backend", &cfg.Store.Backend)
	overrideString(cmd, "namespace", &cfg.Cache.Namespace)
	overrideString(cmd, "path", &cfg.Store.Bolt.Path)
	overrideString(cmd, "mongo-uri", &cfg.Store.Mongo.URI)
	overrideString(cmd, "mongo-db", &cfg.Store.Mongo.Database)
	overrideString(cmd, "mongo-collection", &cfg.Store.Mongo.Collection)
	overrideString(cmd, "kubeconfig", &cfg.Store.ConfigMap.Kubeconfig)
	overrideString(cmd, "configmap-namespace", &cfg.Store.ConfigMap.Namespace)
	overrideString(cmd, "configmap-name", &cfg.Store.ConfigMap.Name)
	overrideString(cmd, "log-level", &cfg.Log.Level)
	overrideString(cmd, "log-format", &cfg.Log.Format)
	overrideString(cmd, "log-file", &cfg.Log.File)
	if cmd.IsSet("redis-addr") {
		cfg.Store.Redis.Addrs = cmd.StringSlice("redis-addr")
	}
	if cmd.IsSet("etcd-endpoints") {
		cfg.Store.Etcd.Endpoints = cmd.StringSlice("etcd-endpoints")
	}

	if _, err := xlog.ParseLevel(cfg.Log.Level); err != nil {
		return nil, usagef("日志级别错误: %v", err)
	}

	// 列表类默认值在合并后补齐，避免与配置文件中的列表逐项合并
	if len(cfg.Store.Redis.Addrs) == 0 {
		cfg.Store.Redis.Addrs = []string{"127.0.0.1:6379"}
	}
	if len(cfg.Store.Etcd.Endpoints) == 0 {
		cfg.Store.Etcd.Endpoints = []string{"127.0.0.1:2379"}
	}
	return cfg, nil
}

func overrideString(cmd *cli.Command, flag string, dst *string) {
	if cmd.IsSet(flag) {
		*dst = cmd.String(flag)
	}
}
