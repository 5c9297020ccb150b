package xpipeline

import (
	"context"
	"errors"

	"github.com/xiaoshicae/xframe/xutil"
)

// Processor 处理单元，每次处理一帧
// 返回 false 表示丢弃，同一 Component 内后续处理器不再执行；丢弃时可把帧一并返回，供 OnDrop 观测
// 业务错误通过帧上的 ErrorReport 传递，panic 视为致命错误，会终止整个 Pipeline
type Processor[F any] interface {
	Process(ctx context.Context, frame F) (F, bool)
}

// ProcessorFunc 函数适配为 Processor
type ProcessorFunc[F any] func(ctx context.Context, frame F) (F, bool)

func (fn ProcessorFunc[F]) Process(ctx context.Context, frame F) (F, bool) {
	return fn(ctx, frame)
}

// Namer 处理器可选实现，用于日志与监控展示
type Namer interface {
	Name() string
}

// Closer 处理器可选实现，所在 Component 结束时调用
type Closer interface {
	Close() error
}

// Function 同步处理器，不感知 ctx
func Function[F any](fn func(frame F) (F, bool)) Processor[F] {
	if fn == nil {
		panic("XFrame xpipeline.Function fn can not be nil")
	}
	return &functional[F]{fn: fn}
}

type functional[F any] struct {
	fn func(F) (F, bool)
}

func (p *functional[F]) Process(_ context.Context, frame F) (F, bool) {
	return p.fn(frame)
}

func (p *functional[F]) Name() string {
	return "Function(" + xutil.GetFuncName(p.fn) + ")"
}

// AsyncFunction 异步处理器，fn 在独立 goroutine 中执行，等待期间 ctx 取消则丢弃该帧
// fn 应自行响应 ctx，否则取消后 goroutine 会继续运行到 fn 返回
func AsyncFunction[F any](fn func(ctx context.Context, frame F) (F, bool)) Processor[F] {
	if fn == nil {
		panic("XFrame xpipeline.AsyncFunction fn can not be nil")
	}
	return &asyncFunctional[F]{fn: fn}
}

type asyncResult[F any] struct {
	frame F
	ok    bool
}

type asyncFunctional[F any] struct {
	fn func(context.Context, F) (F, bool)
}

func (p *asyncFunctional[F]) Process(ctx context.Context, frame F) (F, bool) {
	future := xutil.Async(func() (asyncResult[F], error) {
		out, ok := p.fn(ctx, frame)
		return asyncResult[F]{frame: out, ok: ok}, nil
	})

	res, err := future.GetWithContext(ctx)
	if err != nil && future.IsDone() {
		// 结果与 ctx 取消同时到达时以结果为准
		res, err = future.Get()
	}
	if err == nil {
		return res.frame, res.ok
	}

	// fn 内的 panic 重新抛出交给 Component 处理，其余错误只可能来自 ctx
	var pe *xutil.PanicError
	if errors.As(err, &pe) {
		panic(pe)
	}
	var zero F
	return zero, false
}

func (p *asyncFunctional[F]) Name() string {
	return "AsyncFunction(" + xutil.GetFuncName(p.fn) + ")"
}

// Named 为处理器指定名称
func Named[F any](name string, p Processor[F]) Processor[F] {
	if p == nil {
		panic("XFrame xpipeline.Named processor can not be nil")
	}
	return &named[F]{name: name, Processor: p}
}

type named[F any] struct {
	Processor[F]
	name string
}

func (n *named[F]) Name() string {
	return n.name
}

func (n *named[F]) Close() error {
	return closeProcessor(n.Processor)
}

// ProcessorName 返回处理器名称，未实现 Namer 时使用类型名
func ProcessorName(p any) string {
	if n, ok := p.(Namer); ok {
		return n.Name()
	}
	return xutil.TypeName(p)
}

func closeProcessor(p any) error {
	if c, ok := p.(Closer); ok {
		return c.Close()
	}
	return nil
}
