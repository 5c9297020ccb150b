package xpipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/xiaoshicae/xframe/xerror"
	"github.com/xiaoshicae/xframe/xutil"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Pipeline 由 Component 串联而成，相邻 Component 之间通过有界 channel 连接
// 生命周期：Link 组装 -> Bind 分配 channel 并冻结拓扑 -> Run 启动 goroutine
type Pipeline[F Properties] struct {
	mu      sync.Mutex
	id      string
	name    string
	opts    *options
	factory func() F

	// capacity monitor tracing 在 Bind 时由配置与 Option 决定
	capacity   int
	monitor    Monitor
	tracing    bool
	components []*Component[F]
	channels   []chan F

	// err Link 阶段产生的错误，Bind/Run 时返回
	err     error
	bound   bool
	running bool
	stopped bool

	stop    context.CancelFunc
	handles []*Handle
	done    chan struct{}
	result  *RunResult
}

// New 构造 Pipeline，XPipeline 配置延迟到 Bind 时读取，Option 优先于配置
func New[F Properties](opts ...Option) *Pipeline[F] {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	p := &Pipeline[F]{
		id:   uuid.NewString(),
		name: o.name,
		opts: o,
		done: make(chan struct{}),
	}
	if p.name == "" {
		p.name = "pipeline-" + p.id[:8]
	}

	if o.factory != nil {
		fn, ok := o.factory.(func() F)
		if !ok {
			p.err = fmt.Errorf("%w, factory type=[%T] mismatch frame type=[%s]", ErrFrameFactory, o.factory, reflect.TypeFor[F]())
		}
		p.factory = fn
	} else {
		p.factory = defaultFrameFactory[F]()
	}
	return p
}

func (p *Pipeline[F]) Name() string {
	return p.name
}

func (p *Pipeline[F]) ID() string {
	return p.id
}

// Link 追加 Component，顺序即数据流向；绑定后调用会记录 ErrTopologyFrozen
func (p *Pipeline[F]) Link(c *Component[F]) *Pipeline[F] {
	if c == nil {
		panic("XFrame Pipeline.Link component can not be nil")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bound {
		p.err = ErrTopologyFrozen
		xutil.WarnIfEnableDebug("XFrame Pipeline.Link ignored, pipeline=[%s] already bound", p.name)
		return p
	}
	p.components = append(p.components, c)
	return p
}

// Bind 校验拓扑并分配 channel，重复调用返回 ErrAlreadyBound
func (p *Pipeline[F]) Bind() (*Pipeline[F], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bound {
		return p, xerror.Newf("xpipeline", "bind", "pipeline=[%s], %w", p.name, ErrAlreadyBound)
	}
	return p, p.bindLocked()
}

func (p *Pipeline[F]) bindLocked() error {
	p.applyConfigLocked(GetConfig())
	if err := p.validateLocked(); err != nil {
		return xerror.Newf("xpipeline", "bind", "pipeline=[%s], %w", p.name, err)
	}

	for _, c := range p.components {
		c.bind(p)
	}
	p.channels = make([]chan F, len(p.components)-1)
	for i := range p.channels {
		p.channels[i] = make(chan F, p.capacity)
	}
	p.bound = true
	xutil.InfoIfEnableDebug("XFrame Pipeline bound, pipeline=[%s], components=[%d], capacity=[%d]",
		p.name, len(p.components), p.capacity)
	return nil
}

func (p *Pipeline[F]) applyConfigLocked(cfg *Config) {
	p.capacity = cfg.ChannelCapacity
	if p.opts.capacity != nil {
		p.capacity = *p.opts.capacity
	}
	p.tracing = !cfg.DisableTrace

	switch {
	case p.opts.monitor != nil:
		p.monitor = p.opts.monitor
	case !cfg.DisableMonitor:
		p.monitor = GetDefaultMonitor()
	default:
		p.monitor = nil
	}
}

// frozenErrLocked 绑定后 Link 或修改 Component 产生的错误
func (p *Pipeline[F]) frozenErrLocked() error {
	errs := []error{p.err}
	for _, c := range p.components {
		errs = append(errs, c.Err())
	}
	return errors.Join(errs...)
}

func (p *Pipeline[F]) validateLocked() error {
	if p.err != nil {
		return p.err
	}
	if p.capacity < 1 {
		return fmt.Errorf("%w, capacity=[%d]", ErrInvalidCapacity, p.capacity)
	}
	if len(p.components) == 0 {
		return ErrEmptyPipeline
	}
	if p.factory == nil {
		return fmt.Errorf("%w, frame type=[%s] need WithFrameFactory", ErrFrameFactory, reflect.TypeFor[F]())
	}

	seen := make(map[*Component[F]]struct{}, len(p.components))
	for i, c := range p.components {
		if _, ok := seen[c]; ok {
			return fmt.Errorf("%w, component=[%s] index=[%d]", ErrComponentReused, c.Name(), i)
		}
		seen[c] = struct{}{}
		if err := c.checkBindable(p); err != nil {
			return fmt.Errorf("%w, component=[%s] index=[%d]", err, c.Name(), i)
		}
	}
	return nil
}

// Run 为每个 Component 启动一个 goroutine 并返回句柄，未绑定时隐式 Bind
// ctx 取消或调用 Stop 后 source 停止构造新帧，下游处理完 channel 中剩余的帧后退出
// 任一 Component 发生致命错误时，source 停止，阻塞的发送被释放，下游处理完剩余帧后退出
func (p *Pipeline[F]) Run(ctx context.Context) ([]*Handle, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil, xerror.Newf("xpipeline", "run", "pipeline=[%s], %w", p.name, ErrAlreadyRunning)
	}
	if !p.bound {
		if err := p.bindLocked(); err != nil {
			return nil, err
		}
	} else if err := p.frozenErrLocked(); err != nil {
		return nil, xerror.Newf("xpipeline", "run", "pipeline=[%s], %w", p.name, err)
	}
	p.running = true

	srcCtx, srcCancel := context.WithCancel(ctx)
	g, abortCtx := errgroup.WithContext(context.WithoutCancel(ctx))
	stopAfter := context.AfterFunc(abortCtx, srcCancel)
	p.stop = srcCancel
	if p.stopped {
		srcCancel()
	}

	start := time.Now()
	last := len(p.components) - 1
	p.handles = make([]*Handle, 0, len(p.components))
	for i, c := range p.components {
		rc := &componentRun[F]{
			pipelineName: p.name,
			pipelineID:   p.id,
			srcCtx:       srcCtx,
			abortCtx:     abortCtx,
			factory:      p.factory,
			monitor:      p.monitor,
			tracing:      p.tracing,
		}
		if i > 0 {
			rc.in = p.channels[i-1]
		}
		if i < last {
			rc.out = p.channels[i]
		}

		h := newHandle(c.Name())
		p.handles = append(p.handles, h)
		g.Go(func() error {
			stats, err := c.run(rc)
			h.finish(stats, err)
			return err
		})
	}

	handles := p.handles
	go func() {
		err := g.Wait()
		stopAfter()
		srcCancel()
		p.finish(ctx, handles, err, time.Since(start))
	}()

	xutil.InfoIfEnableDebug("XFrame Pipeline running, pipeline=[%s], id=[%s]", p.name, p.id)
	return append([]*Handle(nil), handles...), nil
}

func (p *Pipeline[F]) finish(ctx context.Context, handles []*Handle, err error, cost time.Duration) {
	result := &RunResult{Err: err, Components: make([]ComponentStats, 0, len(handles))}
	for _, h := range handles {
		result.Components = append(result.Components, h.Stats())
	}

	p.mu.Lock()
	p.result = result
	p.mu.Unlock()

	if p.monitor != nil {
		p.monitor.OnPipelineDone(context.WithoutCancel(ctx), &PipelineEvent{
			PipelineName: p.name,
			PipelineID:   p.id,
			Result:       result,
			Duration:     cost,
		})
	}
	close(p.done)
}

// Wait 阻塞到所有 Component 结束，返回首个致命错误
func (p *Pipeline[F]) Wait() error {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()
	if !running {
		return xerror.Newf("xpipeline", "wait", "pipeline=[%s], %w", p.name, ErrNotRunning)
	}

	<-p.done
	return p.Result().Err
}

// Done 所有 Component 结束后关闭
func (p *Pipeline[F]) Done() <-chan struct{} {
	return p.done
}

// Result 运行结束前返回 nil
func (p *Pipeline[F]) Result() *RunResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

// Stop 优雅停止，可重复调用；Run 之前调用时 Run 启动后 source 立即停止
func (p *Pipeline[F]) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	if p.stop != nil {
		p.stop()
	}
}

// defaultFrameFactory 指针类型分配新的元素，值类型返回零值，接口类型无法构造返回 nil
func defaultFrameFactory[F any]() func() F {
	t := reflect.TypeFor[F]()
	switch t.Kind() {
	case reflect.Pointer:
		elem := t.Elem()
		return func() F {
			return reflect.New(elem).Interface().(F)
		}
	case reflect.Interface:
		return nil
	default:
		return func() F {
			var zero F
			return zero
		}
	}
}
