// xttlctl 是 xttl 缓存的命令行工具，直接读写缓存所在的后端存储。
//
// 用法:
//
//	xttlctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config        配置文件路径（yaml/json），环境变量前缀 XTTL_
//	    --backend       存储后端: bolt, redis, etcd, mongo, configmap (默认: bolt)
//	-n, --namespace     缓存命名空间 (默认: LocalCache)
//	-t, --timeout       单条命令超时时间 (默认: 10s)
//	    --log-level     日志级别 (默认: warn)
//
// 命令:
//
//	set <key> <value>   写入条目（--ttl 指定存活时间，-1s 表示永不过期）
//	get <key>           读取条目
//	delete <key>        删除条目
//	keys                列出命名空间中的 key
//	clean               立即清理过期条目
//	watch               按计划持续清理，直到收到 SIGINT/SIGTERM
//
// 退出码:
//
//	0: 命令执行成功
//	1: 命令执行失败，或 get 未命中
//	2: 参数错误
//
// 示例:
//
//	xttlctl --path /var/lib/app/cache.db set user-1 '{"name":"a"}' --json --ttl 5m
//	xttlctl --backend redis --redis-addr 127.0.0.1:6379 -n sessions keys
//	xttlctl -c /etc/xttl.yaml watch
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
)

// defaultTimeout 默认超时时间。
const defaultTimeout = 10 * time.Second

// 版本信息（可通过 -ldflags 注入，例如:
//
//	go build -ldflags "-X main.Version=1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD)"
//
// ）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

// exitError 表示需要非零退出码但已完成输出的场景。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return "" }

// usageError 表示参数错误，退出码为 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	return &cli.Command{
		Name:    "xttlctl",
		Usage:   "xttl 缓存命令行工具",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			createSetCommand(),
			createGetCommand(),
			createDeleteCommand(),
			createKeysCommand(),
			createCleanCommand(),
			createWatchCommand(),
		},
		DefaultCommand: "help",
		// 退出码由 run() 统一映射，禁止 urfave/cli 直接 os.Exit
		ExitErrHandler: func(_ context.Context, cmd *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(cmd.Root().ErrWriter, err)
			}
		},
	}
}

func run() int {
	app := createApp()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	return exitCode(app.Run(ctx, os.Args))
}

// exitCode 把命令错误映射为退出码并输出错误信息。
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(os.Stderr, "参数错误: %v\n", usageErr)
		return 2
	}
	if isCLIUsageError(err) {
		// flag 解析器已输出错误详情
		return 2
	}
	fmt.Fprintf(os.Stderr, "错误: %v\n", err)
	return 1
}

// isCLIUsageError 判断是否为 urfave/cli 产生的参数错误（未知 flag、flag 值非法等）。
func isCLIUsageError(err error) bool {
	if _, ok := err.(cli.ExitCoder); ok {
		return true
	}
	msg := err.Error()
	for _, prefix := range []string{
		"flag provided but not defined",
		"invalid value",
		"flag needs an argument",
		"No help topic for",
		"Required flag",
	} {
		if strings.Contains(msg, prefix) {
			return true
		}
	}
	return false
}
