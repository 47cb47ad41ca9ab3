package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xttl/pkg/observability/xlog"
	"github.com/omeyang/xttl/pkg/observability/xmetrics"
	"github.com/omeyang/xttl/pkg/storage/xkv"
	"github.com/omeyang/xttl/pkg/storage/xttl"
)

// session 是一次命令执行所需的缓存、存储和日志器。
type session struct {
	cache    *xttl.Cache[json.RawMessage]
	store    xkv.Store
	logger   xlog.Logger
	failures *failureObserver
	out      io.Writer
	errOut   io.Writer
	cleanup  func() error
}

// openSession 按全局选项创建会话。maintain 为 false 时不启动任何后台清理。
func openSession(ctx context.Context, cmd *cli.Command, maintain bool, extra ...xttl.Option) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	root := cmd.Root()
	builder := xlog.New().
		SetOutput(root.ErrWriter).
		SetLevelString(cfg.Log.Level).
		SetFormat(cfg.Log.Format)
	if cfg.Log.File != "" {
		builder.SetRotation(cfg.Log.File)
	}
	logger, logCleanup, err := builder.Build()
	if err != nil {
		return nil, usagef("日志配置错误: %v", err)
	}

	store, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, errors.Join(err, logCleanup())
	}

	otelObs, err := xmetrics.NewOTelObserver(xmetrics.WithMetricAttrKeys(xmetrics.CacheMetricAttrKeys()...))
	if err != nil {
		return nil, errors.Join(err, store.Close(), logCleanup())
	}
	failures := newFailureObserver(otelObs)

	opts := cfg.Cache.Options()
	opts = append(opts, extra...)
	opts = append(opts, xttl.WithLogger(logger), xttl.WithObserver(failures))
	if !maintain {
		opts = append(opts, xttl.WithImmediateClean(false), xttl.WithDisableCleaning(true))
	}
	cache, err := xttl.New[json.RawMessage](store, opts...)
	if err != nil {
		if errors.Is(err, xttl.ErrInvalidNamespace) || errors.Is(err, xttl.ErrInvalidSchedule) {
			err = &usageError{msg: err.Error()}
		}
		return nil, errors.Join(err, store.Close(), logCleanup())
	}

	return &session{
		cache:    cache,
		store:    store,
		logger:   logger,
		failures: failures,
		out:      root.Writer,
		errOut:   root.ErrWriter,
		cleanup:  logCleanup,
	}, nil
}

// close 停止后台清理并释放存储和日志文件。
func (s *session) close() error {
	err := s.cache.Close()
	if errors.Is(err, xttl.ErrClosed) {
		err = nil
	}
	return errors.Join(err, s.store.Close(), s.cleanup())
}

// withSession 在超时控制下打开会话、执行 fn 并关闭会话。
// 操作过程中出现的存储错误作为命令错误返回。
func withSession(ctx context.Context, cmd *cli.Command, fn func(ctx context.Context, s *session) error) error {
	ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	s, err := openSession(ctx, cmd, false)
	if err != nil {
		return err
	}
	err = fn(ctx, s)
	if err == nil {
		if ferr := s.failures.Err(); ferr != nil {
			err = fmt.Errorf("存储操作失败: %w", ferr)
		}
	}
	return errors.Join(err, s.close())
}

// requireArgs 校验位置参数个数。
func requireArgs(cmd *cli.Command, n int) ([]string, error) {
	args := cmd.Args().Slice()
	if len(args) != n {
		return nil, usagef("%s 需要 %d 个参数: %s", cmd.Name, n, cmd.ArgsUsage)
	}
	return args, nil
}

// createSetCommand 创建 set 子命令。
func createSetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "写入条目",
		ArgsUsage: "<key> <value>",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "存活时间，0 使用默认 TTL，负值永不过期",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "value 为 JSON 文本，原样存储",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := requireArgs(cmd, 2)
			if err != nil {
				return err
			}
			value, err := encodeValue(args[1], cmd.Bool("json"))
			if err != nil {
				return err
			}
			return withSession(ctx, cmd, func(ctx context.Context, s *session) error {
				s.cache.SetWithTTL(ctx, args[0], value, cmd.Duration("ttl"))
				return nil
			})
		},
	}
}

// createGetCommand 创建 get 子命令。未命中时退出码为 1。
func createGetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "读取条目",
		ArgsUsage: "<key>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := requireArgs(cmd, 1)
			if err != nil {
				return err
			}
			return withSession(ctx, cmd, func(ctx context.Context, s *session) error {
				value, ok := s.cache.Get(ctx, args[0])
				if !ok {
					if s.failures.Err() == nil {
						fmt.Fprintf(s.errOut, "未找到: %s\n", args[0])
						return &exitError{code: 1}
					}
					return nil
				}
				fmt.Fprintln(s.out, formatValue(value))
				return nil
			})
		},
	}
}

// createDeleteCommand 创建 delete 子命令。
func createDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"del", "rm"},
		Usage:     "删除条目",
		ArgsUsage: "<key>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := requireArgs(cmd, 1)
			if err != nil {
				return err
			}
			return withSession(ctx, cmd, func(ctx context.Context, s *session) error {
				s.cache.Delete(ctx, args[0])
				return nil
			})
		},
	}
}

// createKeysCommand 创建 keys 子命令。
func createKeysCommand() *cli.Command {
	return &cli.Command{
		Name:  "keys",
		Usage: "列出命名空间中的 key（包括尚未清理的过期条目）",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := requireArgs(cmd, 0); err != nil {
				return err
			}
			return withSession(ctx, cmd, func(ctx context.Context, s *session) error {
				for _, key := range s.cache.Keys(ctx) {
					fmt.Fprintln(s.out, key)
				}
				return nil
			})
		},
	}
}

// createCleanCommand 创建 clean 子命令。
func createCleanCommand() *cli.Command {
	return &cli.Command{
		Name:  "clean",
		Usage: "立即清理过期条目",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := requireArgs(cmd, 0); err != nil {
				return err
			}
			return withSession(ctx, cmd, func(ctx context.Context, s *session) error {
				stats := s.cache.CleanExpired(ctx)
				fmt.Fprintf(s.out, "scanned=%d expired=%d invalid=%d failed=%d\n",
					stats.Scanned, stats.Expired, stats.Invalid, stats.Failed)
				if stats.Failed > 0 {
					return &exitError{code: 1}
				}
				return nil
			})
		},
	}
}

// createWatchCommand 创建 watch 子命令，按计划持续清理直到 ctx 取消。
func createWatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "按计划持续清理过期条目，直到收到 SIGINT/SIGTERM",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "清理间隔（覆盖配置文件）",
			},
			&cli.StringFlag{
				Name:  "schedule",
				Usage: "cron 表达式（覆盖 --interval），如 \"*/5 * * * *\"",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := requireArgs(cmd, 0); err != nil {
				return err
			}
			var extra []xttl.Option
			if cmd.IsSet("interval") {
				if cmd.Duration("interval") <= 0 {
					return usagef("--interval 必须大于 0")
				}
				extra = append(extra, xttl.WithCleaningInterval(cmd.Duration("interval")))
			}
			if cmd.IsSet("schedule") {
				extra = append(extra, xttl.WithCleaningSchedule(cmd.String("schedule")))
			}
			return cmdWatch(ctx, cmd, extra)
		},
	}
}

func cmdWatch(ctx context.Context, cmd *cli.Command, extra []xttl.Option) error {
	extra = append(extra, xttl.WithDisableCleaning(false))
	s, err := openSession(ctx, cmd, true, extra...)
	if err != nil {
		return err
	}

	start := time.Now()
	s.logger.Info(ctx, "watching for expired entries", xlog.Namespace(s.cache.Namespace()))
	<-ctx.Done()
	s.logger.Info(context.Background(), "watch stopped",
		xlog.Namespace(s.cache.Namespace()),
		xlog.Duration(time.Since(start)),
		slog.String("reason", context.Cause(ctx).Error()),
	)
	return s.close()
}

// encodeValue 把命令行参数编码为缓存值。非 JSON 模式下按字符串存储。
func encodeValue(arg string, isJSON bool) (json.RawMessage, error) {
	if isJSON {
		if !json.Valid([]byte(arg)) {
			return nil, usagef("value 不是合法的 JSON: %s", arg)
		}
		return json.RawMessage(arg), nil
	}
	data, err := json.Marshal(arg)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return data, nil
}

// formatValue 字符串值去掉引号输出，其他 JSON 值原样输出。
func formatValue(value json.RawMessage) string {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return s
	}
	return string(value)
}

// setupSignalHandler 设置信号处理。
// 第一次信号优雅取消，第二次信号强制退出（退出码 130 = 128 + SIGINT）。
func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()

		<-sigCh
		signal.Stop(sigCh)
		os.Exit(130)
	}()
}
