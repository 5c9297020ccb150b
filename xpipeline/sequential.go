package xpipeline

import (
	"context"
	"errors"
	"strings"
)

// Sequential 组合处理器，按顺序执行子处理器，任一丢弃即短路
// 效果等同于把子处理器直接追加到 Component 中，用于给一组处理器命名和复用
type Sequential[F any] struct {
	name       string
	processors []Processor[F]
}

func NewSequential[F any](processors ...Processor[F]) *Sequential[F] {
	s := &Sequential[F]{}
	for _, p := range processors {
		s.Append(p)
	}
	return s
}

// Append 追加子处理器，p 为 nil 时 panic
func (s *Sequential[F]) Append(p Processor[F]) *Sequential[F] {
	if p == nil {
		panic("XFrame Sequential.Append processor can not be nil")
	}
	s.processors = append(s.processors, p)
	return s
}

// WithName 设置名称，未设置时由子处理器名称拼接
func (s *Sequential[F]) WithName(name string) *Sequential[F] {
	s.name = name
	return s
}

func (s *Sequential[F]) Len() int {
	return len(s.processors)
}

func (s *Sequential[F]) Process(ctx context.Context, frame F) (F, bool) {
	return runChain(ctx, s.processors, frame, nil)
}

func (s *Sequential[F]) Name() string {
	if s.name != "" {
		return s.name
	}
	return "Sequential(" + strings.Join(processorNames(s.processors), ",") + ")"
}

// Close 关闭所有实现了 Closer 的子处理器
func (s *Sequential[F]) Close() error {
	return closeProcessors(s.processors)
}

// runChain Component 与 Sequential 共用的短路执行逻辑，cursor 非 nil 时记录正在执行的处理器下标
func runChain[F any](ctx context.Context, processors []Processor[F], frame F, cursor *int) (F, bool) {
	for i, p := range processors {
		if cursor != nil {
			*cursor = i
		}
		out, ok := p.Process(ctx, frame)
		if !ok {
			return out, false
		}
		frame = out
	}
	return frame, true
}

func processorNames[F any](processors []Processor[F]) []string {
	names := make([]string, 0, len(processors))
	for _, p := range processors {
		names = append(names, ProcessorName(p))
	}
	return names
}

func closeProcessors[F any](processors []Processor[F]) error {
	var errs []error
	for _, p := range processors {
		if err := closeProcessor(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
