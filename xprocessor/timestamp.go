package xprocessor

import (
	"context"
	"time"

	"github.com/xiaoshicae/xframe/xpipeline"

	"lukechampine.com/uint128"
)

// TimestampAdder frame[key] = 当前时间的毫秒数
func TimestampAdder[F xpipeline.Properties](key string) xpipeline.Processor[F] {
	return xpipeline.Named[F]("TimestampAdder("+key+")", xpipeline.ProcessorFunc[F](
		func(_ context.Context, frame F) (F, bool) {
			frame.Set(key, nowMillis())
			return frame, true
		}))
}

// TimestampDiffCalculator frame[dst] = 当前时间 - frame[src]，src 不存在或晚于当前时间时为 0
func TimestampDiffCalculator[F xpipeline.Properties](src, dst string) xpipeline.Processor[F] {
	return xpipeline.Named[F]("TimestampDiffCalculator("+src+","+dst+")", xpipeline.ProcessorFunc[F](
		func(_ context.Context, frame F) (F, bool) {
			frame.Set(dst, saturatingSub(nowMillis(), frame, src))
			return frame, true
		}))
}

func saturatingSub[F xpipeline.Properties](now uint128.Uint128, frame F, src string) uint128.Uint128 {
	v, ok := frame.Get(src)
	if !ok || now.Cmp(v) <= 0 {
		return uint128.Zero
	}
	return now.Sub(v)
}

func nowMillis() uint128.Uint128 {
	return uint128.From64(uint64(time.Now().UnixMilli()))
}
