package xpipeline

import (
	"context"
	"sync"
	"time"

	"github.com/xiaoshicae/xframe/xlog"
)

// ComponentEvent Component 结束事件
type ComponentEvent struct {
	PipelineName  string
	PipelineID    string
	ComponentName string
	ComponentID   string
	Processors    []string
	Source        bool
	Sink          bool
	// Received 从输入 channel 读取的帧数，source 为构造的帧数
	Received uint64
	// Emitted 通过全部处理器的帧数，sink 为消费的帧数
	Emitted uint64
	Dropped uint64
	Err     error
	// TraceCarrier Component span 的传播头，未开启 trace 时为空
	TraceCarrier map[string]string
	Duration     time.Duration
}

// PipelineEvent Pipeline 结束事件
type PipelineEvent struct {
	PipelineName string
	PipelineID   string
	Result       *RunResult
	Duration     time.Duration
}

// Monitor 监控接口，回调在 Component goroutine 中执行，实现必须并发安全
type Monitor interface {
	// OnComponentDone Component goroutine 结束时调用
	OnComponentDone(ctx context.Context, event *ComponentEvent)
	// OnPipelineDone 所有 Component 结束后调用
	OnPipelineDone(ctx context.Context, event *PipelineEvent)
}

// defaultMonitor 默认实现，使用 xlog 打印
type defaultMonitor struct{}

func (d *defaultMonitor) OnComponentDone(ctx context.Context, e *ComponentEvent) {
	if e.Err != nil {
		xlog.Warn(ctx, "[xpipeline] pipeline=[%s] component=[%s] received=[%d] emitted=[%d] dropped=[%d] duration=[%s] status=[failed] err=[%v]",
			e.PipelineName, e.ComponentName, e.Received, e.Emitted, e.Dropped, e.Duration, e.Err)
		return
	}
	xlog.Info(ctx, "[xpipeline] pipeline=[%s] component=[%s] received=[%d] emitted=[%d] dropped=[%d] duration=[%s] status=[success]",
		e.PipelineName, e.ComponentName, e.Received, e.Emitted, e.Dropped, e.Duration)
}

func (d *defaultMonitor) OnPipelineDone(ctx context.Context, e *PipelineEvent) {
	if !e.Result.Success() {
		xlog.Warn(ctx, "[xpipeline] pipeline=[%s] duration=[%s] status=[failed] %s", e.PipelineName, e.Duration, e.Result)
		return
	}
	xlog.Info(ctx, "[xpipeline] pipeline=[%s] duration=[%s] status=[success]", e.PipelineName, e.Duration)
}

var (
	defaultMonitorInstance Monitor = &defaultMonitor{}
	monitorMu              sync.RWMutex
)

// SetDefaultMonitor 设置全局默认 Monitor，替换内置的 xlog 打印
func SetDefaultMonitor(m Monitor) {
	monitorMu.Lock()
	defer monitorMu.Unlock()
	defaultMonitorInstance = m
}

// GetDefaultMonitor 获取全局默认 Monitor
func GetDefaultMonitor() Monitor {
	monitorMu.RLock()
	defer monitorMu.RUnlock()
	return defaultMonitorInstance
}
