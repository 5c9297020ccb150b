package xutil

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"
)

// PanicError 异步任务中的 panic，保留原始值与发生 panic 的 goroutine 堆栈
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic occurred, %v", e.Value)
}

// Unwrap 原始值是 error 时支持 errors.Is / errors.As
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Future 异步计算结果，支持阻塞等待、超时等待和随 ctx 取消等待
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Async 启动异步任务，返回 Future 用于获取结果，fn 中的 panic 转换为 *PanicError
func Async[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.err = &PanicError{Value: r, Stack: debug.Stack()}
			}
			close(f.done)
		}()
		f.val, f.err = fn()
	}()
	return f
}

// Get 阻塞等待任务完成
func (f *Future[T]) Get() (T, error) {
	<-f.done
	return f.val, f.err
}

// GetWithTimeout 等待任务完成，超时返回 context.DeadlineExceeded
func (f *Future[T]) GetWithTimeout(timeout time.Duration) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-time.After(timeout):
		var zero T
		return zero, context.DeadlineExceeded
	}
}

// GetWithContext 等待任务完成，ctx 先结束时返回 ctx.Err()
// 放弃等待并不会中断任务本身
func (f *Future[T]) GetWithContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// IsDone 非阻塞检查任务是否已完成
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
