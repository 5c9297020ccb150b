package xprocessor

import (
	"context"

	"github.com/xiaoshicae/xframe/xpipeline"

	"lukechampine.com/uint128"
)

// ThresholdDropper frame[key] > threshold 时丢弃，key 不存在时放行
func ThresholdDropper[F xpipeline.Properties](key string, threshold uint128.Uint128) xpipeline.Processor[F] {
	return &thresholdDropper[F]{key: key, threshold: threshold}
}

// ThresholdDropperWithReason 丢弃前设置 DropReason，帧类型必须支持 DropReason
func ThresholdDropperWithReason[F xpipeline.DroppableFrame[R], R any](key string, threshold uint128.Uint128, reason R) xpipeline.Processor[F] {
	return &thresholdDropper[F]{
		key:       key,
		threshold: threshold,
		setReason: func(frame F) { frame.SetDropReason(reason) },
	}
}

type thresholdDropper[F xpipeline.Properties] struct {
	key       string
	threshold uint128.Uint128
	setReason func(F)
}

func (t *thresholdDropper[F]) Process(_ context.Context, frame F) (F, bool) {
	v, ok := frame.Get(t.key)
	if !ok || v.Cmp(t.threshold) <= 0 {
		return frame, true
	}
	if t.setReason != nil {
		t.setReason(frame)
	}
	return frame, false
}

func (t *thresholdDropper[F]) Name() string {
	return "ThresholdDropper(" + t.key + ">" + t.threshold.String() + ")"
}
