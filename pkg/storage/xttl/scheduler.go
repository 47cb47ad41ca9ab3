package xttl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// intervalSchedule 按固定间隔触发。
// cron.Every 会把间隔向上取整到秒，这里保留亚秒精度。
type intervalSchedule struct {
	every time.Duration
}

// Next 实现 cron.Schedule。
func (s intervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.every)
}

// newSchedule 根据配置返回定时清理计划，关闭定时清理时返回 nil。
func newSchedule(o *Options) (cron.Schedule, error) {
	if o.DisableCleaning {
		return nil, nil
	}
	if o.CleaningSchedule != "" {
		s, err := cron.ParseStandard(o.CleaningSchedule)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, o.CleaningSchedule, err)
		}
		return s, nil
	}
	return intervalSchedule{every: o.CleaningInterval}, nil
}

// startMaintenance 启动立即清理和定时清理。两者使用同一个由 Close 取消的 context。
func (c *Cache[V]) startMaintenance() {
	if !c.opts.ImmediateClean && c.schedule == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	if c.opts.ImmediateClean {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.CleanExpired(ctx)
		}()
	}

	if c.schedule != nil {
		c.wg.Add(1)
		go c.runSchedule(ctx)
	}
}

// runSchedule 按计划触发清理直到 ctx 取消。
// 清理耗时超过间隔时跳过错过的触发点，不会补跑。
func (c *Cache[V]) runSchedule(ctx context.Context) {
	defer c.wg.Done()

	now := time.Now()
	next := c.schedule.Next(now)
	if next.IsZero() {
		// cron 表达式永远不会触发（如 2 月 30 日）
		c.logger.Warn(ctx, "xttl: cleaning schedule never fires")
		return
	}
	timer := time.NewTimer(next.Sub(now))
	defer timer.Stop()

	c.logger.Debug(ctx, "xttl: scheduled cleaning started", slog.Time("next", next))

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		c.CleanExpired(ctx)

		now = time.Now()
		next = c.schedule.Next(next)
		if !next.After(now) {
			next = c.schedule.Next(now)
		}
		if next.IsZero() {
			return
		}
		timer.Reset(next.Sub(now))
	}
}
