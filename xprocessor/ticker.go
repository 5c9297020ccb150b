package xprocessor

import (
	"context"
	"time"

	"github.com/xiaoshicae/xframe/xpipeline"
)

// Ticker source 节拍器，首次调用记录基准时间后立即放行，之后每次等待到 上次放行时间+period 再放行
// 已经落后时立即放行并以当前时间为新基准，保证相邻两帧间隔不小于 period
// 等待期间 ctx 取消则丢弃该帧
func Ticker[F any](period time.Duration) xpipeline.Processor[F] {
	if period <= 0 {
		panic("XFrame xprocessor.Ticker period must be positive")
	}
	return &ticker[F]{period: period}
}

type ticker[F any] struct {
	period  time.Duration
	started bool
	last    time.Time
}

func (t *ticker[F]) Process(ctx context.Context, frame F) (F, bool) {
	now := time.Now()
	if !t.started {
		t.started = true
		t.last = now
		return frame, true
	}

	target := t.last.Add(t.period)
	wait := target.Sub(now)
	if wait <= 0 {
		t.last = now
		return frame, true
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		t.last = target
		return frame, true
	case <-ctx.Done():
		return frame, false
	}
}

func (t *ticker[F]) Name() string {
	return "Ticker(" + t.period.String() + ")"
}
