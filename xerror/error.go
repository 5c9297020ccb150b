// Package xerror 提供 xframe 各模块统一的错误类型
package xerror

import (
	"errors"
	"fmt"
)

// XFrameError 带模块名和操作名的错误
type XFrameError struct {
	Module string // 模块名，如 "xpipeline", "xhook"
	Op     string // 操作名，如 "bind", "run"
	Err    error  // 原始错误
}

func (e *XFrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("XFrame %s %s failed, err=[%v]", e.Module, e.Op, e.Err)
	}
	return fmt.Sprintf("XFrame %s %s failed", e.Module, e.Op)
}

// Unwrap 支持 errors.Is / errors.As
func (e *XFrameError) Unwrap() error {
	return e.Err
}

// New 包装已有错误
func New(module, op string, err error) *XFrameError {
	return &XFrameError{Module: module, Op: op, Err: err}
}

// Newf 以格式化消息创建错误，format 中的 %w 会保留被包装错误
func Newf(module, op, format string, args ...any) *XFrameError {
	return &XFrameError{Module: module, Op: op, Err: fmt.Errorf(format, args...)}
}

// Is 判断 err 链中是否包含指定模块的 XFrameError
func Is(err error, module string) bool {
	var xe *XFrameError
	return errors.As(err, &xe) && xe.Module == module
}

// Module 提取 err 链中第一个 XFrameError 的模块名
func Module(err error) string {
	var xe *XFrameError
	if errors.As(err, &xe) {
		return xe.Module
	}
	return ""
}
