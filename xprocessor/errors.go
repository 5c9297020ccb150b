package xprocessor

import (
	"context"

	"github.com/xiaoshicae/xframe/xpipeline"
)

// ErrorDropper 丢弃已设置错误的帧
func ErrorDropper[F xpipeline.ErrorChecker]() xpipeline.Processor[F] {
	return &errorDropper[F]{}
}

// ErrorDropperWithReason 丢弃已设置错误的帧并设置 DropReason
func ErrorDropperWithReason[F interface {
	xpipeline.ErrorChecker
	xpipeline.DropReason[R]
}, R any](reason R) xpipeline.Processor[F] {
	return &errorDropper[F]{setReason: func(frame F) { frame.SetDropReason(reason) }}
}

type errorDropper[F xpipeline.ErrorChecker] struct {
	setReason func(F)
}

func (e *errorDropper[F]) Process(_ context.Context, frame F) (F, bool) {
	if !frame.HasError() {
		return frame, true
	}
	if e.setReason != nil {
		e.setReason(frame)
	}
	return frame, false
}

func (e *errorDropper[F]) Name() string {
	return "ErrorDropper"
}

// ErrorTagger pred 成立且帧上尚无错误时设置 err，帧始终放行
func ErrorTagger[F xpipeline.ErrorReport[E], E any](pred func(frame F) bool, err E) xpipeline.Processor[F] {
	if pred == nil {
		panic("XFrame xprocessor.ErrorTagger pred can not be nil")
	}
	return xpipeline.Named[F]("ErrorTagger", xpipeline.ProcessorFunc[F](
		func(_ context.Context, frame F) (F, bool) {
			if !frame.HasError() && pred(frame) {
				frame.SetError(err)
			}
			return frame, true
		}))
}
