package xttl

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xttl/pkg/observability/xlog"
	"github.com/omeyang/xttl/pkg/observability/xmetrics"
)

// SweepStats 汇总一次清理的结果。
type SweepStats struct {
	// Scanned 检查过的本命名空间 key 数。
	Scanned int
	// Expired 删除的过期条目数。
	Expired int
	// Invalid 删除的无法解码条目数。
	Invalid int
	// Failed 读取或删除失败的 key 数。
	Failed int
}

// CleanExpired 删除本命名空间中所有已过期的条目，等待全部删除完成后返回。
//
// 其他命名空间以及不属于任何命名空间的 key 不会被读取或修改。
// 列出 key 失败时返回空结果；单个 key 的失败计入 Failed，不影响其他 key。
func (c *Cache[V]) CleanExpired(ctx context.Context) SweepStats {
	start := time.Now()
	ctx, span := c.startSpan(ctx, opSweep, xmetrics.KindInternal)

	stats, err := c.sweep(ctx)
	if err != nil {
		c.logger.Debug(ctx, "xttl: sweep list keys failed", xlog.Err(err))
	}
	span.End(xmetrics.Result{
		Err: err,
		Attrs: []xmetrics.Attr{
			xmetrics.Int("scanned", stats.Scanned),
			xmetrics.Int("expired", stats.Expired),
			xmetrics.Int("failed", stats.Failed),
		},
	})

	removed := stats.Expired + stats.Invalid
	if removed > 0 || stats.Failed > 0 {
		c.logger.Info(ctx, "xttl: sweep finished",
			xlog.Count(int64(removed)),
			xlog.Duration(time.Since(start)),
			slog.Int("scanned", stats.Scanned),
			slog.Int("failed", stats.Failed),
		)
	}
	return stats
}

func (c *Cache[V]) sweep(ctx context.Context) (SweepStats, error) {
	keys, err := c.logicalKeys(ctx)
	if err != nil {
		return SweepStats{}, err
	}

	var (
		stats                    SweepStats
		expired, invalid, failed atomic.Int64
		g                        errgroup.Group
	)
	g.SetLimit(c.opts.SweepConcurrency)

	for _, key := range keys {
		if ctx.Err() != nil {
			break
		}
		stats.Scanned++
		g.Go(func() error {
			_, result, err := c.lookup(ctx, key)
			switch result {
			case resultExpired:
				if err == nil {
					expired.Add(1)
				}
			case resultInvalid:
				if err == nil {
					invalid.Add(1)
				}
			}
			if err != nil {
				failed.Add(1)
				c.logger.Debug(ctx, "xttl: sweep key failed", xlog.Key(key), xlog.Err(err))
			}
			// 单个 key 的失败不取消其他检查
			return nil
		})
	}
	_ = g.Wait()

	stats.Expired = int(expired.Load())
	stats.Invalid = int(invalid.Load())
	stats.Failed = int(failed.Load())
	return stats, nil
}
