package xpipeline

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyBound    = errors.New("pipeline already bound")
	ErrAlreadyRunning  = errors.New("pipeline already running")
	ErrNotRunning      = errors.New("pipeline not running")
	ErrTopologyFrozen  = errors.New("topology frozen after bind")
	ErrEmptyPipeline   = errors.New("pipeline has no component")
	ErrEmptyComponent  = errors.New("component has no processor")
	ErrComponentReused = errors.New("component already linked")
	ErrInvalidCapacity = errors.New("channel capacity must be >= 1")
	ErrFrameFactory    = errors.New("frame factory unavailable")
)

// ComponentError 致命错误，Component 内处理器 panic 时产生
type ComponentError struct {
	PipelineName  string
	ComponentName string
	// Processor 发生 panic 时正在执行的处理器，无法确定时为空
	Processor string
	Panic     any
	Stack     []byte
}

func (e *ComponentError) Error() string {
	if e.Processor != "" {
		return fmt.Sprintf("pipeline=[%s], component=[%s], processor=[%s], panic=[%v]",
			e.PipelineName, e.ComponentName, e.Processor, e.Panic)
	}
	return fmt.Sprintf("pipeline=[%s], component=[%s], panic=[%v]", e.PipelineName, e.ComponentName, e.Panic)
}

// Unwrap panic 值本身是 error 时支持 errors.Is / errors.As
func (e *ComponentError) Unwrap() error {
	if err, ok := e.Panic.(error); ok {
		return err
	}
	return nil
}
