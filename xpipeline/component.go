package xpipeline

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"github.com/xiaoshicae/xframe/xlog"
	"github.com/xiaoshicae/xframe/xtrace"
	"github.com/xiaoshicae/xframe/xutil"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName        = "github.com/xiaoshicae/xframe/xpipeline"
	componentSpanName = "xpipeline.component"
)

// Component 有序的处理器列表，运行时独占一个 goroutine
// 无输入 channel 时为 source，由帧工厂构造帧；无输出 channel 时为 sink
type Component[F Properties] struct {
	mu         sync.Mutex
	id         string
	name       string
	processors []Processor[F]
	onDrop     func(ctx context.Context, frame F)
	maxFrames  uint64
	owner      any
	err        error
}

func NewComponent[F Properties](processors ...Processor[F]) *Component[F] {
	c := &Component[F]{id: uuid.NewString()}
	for _, p := range processors {
		c.Append(p)
	}
	return c
}

// Append 追加处理器，p 为 nil 时 panic；绑定后追加会被忽略并记录 ErrTopologyFrozen
func (c *Component[F]) Append(p Processor[F]) *Component[F] {
	if p == nil {
		panic("XFrame Component.Append processor can not be nil")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozenLocked("Append") {
		return c
	}
	c.processors = append(c.processors, p)
	return c
}

func (c *Component[F]) WithName(name string) *Component[F] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.frozenLocked("WithName") {
		c.name = name
	}
	return c
}

// OnDrop 帧被丢弃时回调，frame 为丢弃该帧的处理器返回的值
func (c *Component[F]) OnDrop(fn func(ctx context.Context, frame F)) *Component[F] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.frozenLocked("OnDrop") {
		c.onDrop = fn
	}
	return c
}

// WithMaxFrames source 构造 n 帧后正常结束，0 表示不限制，非 source 忽略
func (c *Component[F]) WithMaxFrames(n uint64) *Component[F] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.frozenLocked("WithMaxFrames") {
		c.maxFrames = n
	}
	return c
}

// frozenLocked 已绑定时记录错误并返回 true，调用方需持有锁
func (c *Component[F]) frozenLocked(op string) bool {
	if c.owner == nil {
		return false
	}
	c.err = errors.Join(c.err, ErrTopologyFrozen)
	xutil.WarnIfEnableDebug("XFrame Component.%s ignored, component=[%s] already bound", op, c.displayName())
	return true
}

func (c *Component[F]) ID() string {
	return c.id
}

func (c *Component[F]) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.displayName()
}

func (c *Component[F]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.processors)
}

// Err 绑定后修改 Component 产生的错误
func (c *Component[F]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Component[F]) displayName() string {
	if c.name != "" {
		return c.name
	}
	return "component-" + c.id[:8]
}

func (c *Component[F]) checkBindable(owner any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.owner != nil && c.owner != owner {
		return ErrComponentReused
	}
	if len(c.processors) == 0 {
		return ErrEmptyComponent
	}
	return nil
}

func (c *Component[F]) bind(owner any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.owner = owner
}

// componentRun 单次运行所需的上下文，由 Pipeline 在 Run 时构造
type componentRun[F any] struct {
	pipelineName string
	pipelineID   string
	in           <-chan F
	out          chan<- F
	// srcCtx 优雅停止信号，source 在构造帧前与发送时检查
	srcCtx context.Context
	// abortCtx 致命错误信号，非 source 在发送时检查
	abortCtx context.Context
	factory  func() F
	monitor  Monitor
	tracing  bool
}

func (rc *componentRun[F]) isSource() bool {
	return rc.in == nil
}

// run Component 的 goroutine 主体，返回致命错误
func (c *Component[F]) run(rc *componentRun[F]) (stats ComponentStats, err error) {
	start := time.Now()
	stats.Name = c.Name()

	base := rc.abortCtx
	if rc.isSource() {
		base = rc.srcCtx
	}
	ctx := xlog.CtxWithKV(base, map[string]any{
		"pipeline":  rc.pipelineName,
		"component": stats.Name,
	})

	var span trace.Span
	if rc.tracing {
		ctx, span = xtrace.GetTracer(tracerName).Start(ctx, componentSpanName, trace.WithAttributes(
			attribute.String("xpipeline.pipeline", rc.pipelineName),
			attribute.String("xpipeline.pipeline_id", rc.pipelineID),
			attribute.String("xpipeline.component", stats.Name),
			attribute.String("xpipeline.component_id", c.id),
		))
	}

	defer func() {
		if rc.out != nil {
			close(rc.out)
		}
		if cerr := closeProcessors(c.processors); cerr != nil {
			xlog.Warn(ctx, "[xpipeline] component=[%s] close processors failed, err=[%v]", stats.Name, cerr)
		}
		stats.Err = err
		c.finish(ctx, rc, span, &stats, time.Since(start))
	}()

	err = c.loop(ctx, rc, &stats)
	return stats, err
}

func (c *Component[F]) loop(ctx context.Context, rc *componentRun[F], stats *ComponentStats) (err error) {
	cursor := -1
	defer func() {
		if r := recover(); r != nil {
			ce := &ComponentError{
				PipelineName:  rc.pipelineName,
				ComponentName: stats.Name,
				Panic:         r,
				Stack:         debug.Stack(),
			}
			// AsyncFunction 重新抛出的 panic，还原原始值与原 goroutine 的堆栈
			if pe, ok := r.(*xutil.PanicError); ok {
				ce.Panic, ce.Stack = pe.Value, pe.Stack
			}
			if cursor >= 0 && cursor < len(c.processors) {
				ce.Processor = ProcessorName(c.processors[cursor])
			}
			err = ce
		}
	}()

	sendCtx := rc.abortCtx
	if rc.isSource() {
		sendCtx = rc.srcCtx
	}

	for {
		var frame F
		if rc.isSource() {
			if rc.srcCtx.Err() != nil || (c.maxFrames > 0 && stats.Received >= c.maxFrames) {
				return nil
			}
			frame = rc.factory()
		} else {
			f, ok := <-rc.in
			if !ok {
				return nil
			}
			frame = f
		}
		stats.Received++

		out, ok := runChain(ctx, c.processors, frame, &cursor)
		cursor = -1
		if !ok && ctx.Err() != nil {
			// 停止信号之后的丢弃视为放弃，不计入 Dropped 也不回调 OnDrop
			if rc.isSource() {
				return nil
			}
			continue
		}
		if !ok {
			stats.Dropped++
			if c.onDrop != nil {
				c.onDrop(ctx, out)
			}
			continue
		}

		if rc.out == nil {
			stats.Emitted++
			continue
		}
		select {
		case rc.out <- out:
			stats.Emitted++
		case <-sendCtx.Done():
			return nil
		}
	}
}

func (c *Component[F]) finish(ctx context.Context, rc *componentRun[F], span trace.Span, stats *ComponentStats, cost time.Duration) {
	var carrier map[string]string
	if span != nil {
		carrier = xtrace.InjectCarrier(ctx)
		span.SetAttributes(
			attribute.Int64("xpipeline.received", int64(stats.Received)),
			attribute.Int64("xpipeline.emitted", int64(stats.Emitted)),
			attribute.Int64("xpipeline.dropped", int64(stats.Dropped)),
		)
		if stats.Err != nil {
			span.RecordError(stats.Err)
			span.SetStatus(codes.Error, stats.Err.Error())
		}
		span.End()
	}

	if rc.monitor == nil {
		return
	}
	rc.monitor.OnComponentDone(ctx, &ComponentEvent{
		PipelineName:  rc.pipelineName,
		PipelineID:    rc.pipelineID,
		ComponentName: stats.Name,
		ComponentID:   c.id,
		Processors:    processorNames(c.processors),
		Source:        rc.in == nil,
		Sink:          rc.out == nil,
		Received:      stats.Received,
		Emitted:       stats.Emitted,
		Dropped:       stats.Dropped,
		Err:           stats.Err,
		TraceCarrier:  carrier,
		Duration:      cost,
	})
}
