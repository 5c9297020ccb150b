// Package xhook 管理进程级生命周期钩子：BeforeStart 在服务启动前按顺序执行，
// BeforeStop 在服务退出前执行（整体受 stop 超时约束）。
package xhook

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"sync"
	"time"

	"github.com/xiaoshicae/xframe/xerror"
	"github.com/xiaoshicae/xframe/xutil"

	"golang.org/x/exp/slices"
)

var (
	defaultStopTimeout = 30 * time.Second
	maxHookNum         = 1000
)

var (
	beforeStartHooks = make([]hook, 0)
	beforeStopHooks  = make([]hook, 0)
	registeredFuncs  = make(map[string]struct{}) // hookType:函数指针
	hooksMu          sync.RWMutex
)

// HookFunc hook 函数
type HookFunc func() error

type hook struct {
	HookFunc HookFunc
	Options  *options
}

// SetStopTimeout 设置 BeforeStop hooks 的整体超时
func SetStopTimeout(timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	hooksMu.Lock()
	defaultStopTimeout = timeout
	hooksMu.Unlock()
}

// BeforeStart 注册 BeforeStart hook
func BeforeStart(f HookFunc, opts ...Option) {
	registerHook(f, opts, &beforeStartHooks, "BeforeStart")
}

// BeforeStop 注册 BeforeStop hook
func BeforeStop(f HookFunc, opts ...Option) {
	registerHook(f, opts, &beforeStopHooks, "BeforeStop")
}

func registerHook(f HookFunc, opts []Option, hooks *[]hook, hookType string) {
	if f == nil {
		panic(fmt.Sprintf("XFrame %s hook can not be nil", hookType))
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	hooksMu.Lock()
	defer hooksMu.Unlock()

	if len(*hooks) >= maxHookNum {
		panic(fmt.Sprintf("XFrame %s hook can not be more than %d", hookType, maxHookNum))
	}

	key := hookType + ":" + strconv.FormatUint(uint64(reflect.ValueOf(f).Pointer()), 10)
	if _, ok := registeredFuncs[key]; ok {
		xutil.WarnIfEnableDebug("XFrame %s hook duplicate registration detected, skipping", hookType)
		return
	}
	registeredFuncs[key] = struct{}{}

	*hooks = append(*hooks, hook{HookFunc: f, Options: o})
}

// InvokeBeforeStartHook 按 Order 执行所有 BeforeStart hook
// MustInvokeSuccess 的 hook 失败时立即返回错误，其余失败仅记录
func InvokeBeforeStartHook() error {
	for _, h := range sortedHooks(beforeStartHooks) {
		funcName := getInvokeFuncFullName(h.HookFunc)
		err := invokeHookWithTimeout(h, h.Options.Timeout)
		if err == nil {
			xutil.InfoIfEnableDebug("XFrame invoke before start hook success, func=[%v]", funcName)
			continue
		}
		if h.Options.MustInvokeSuccess {
			xutil.ErrorIfEnableDebug("XFrame invoke before start hook failed, func=[%v], err=[%v]", funcName, err)
			return xerror.Newf("xhook", "BeforeStart", "func=[%v], err=[%v]", funcName, err)
		}
		xutil.WarnIfEnableDebug("XFrame invoke before start hook failed and skipped, func=[%v], err=[%v]", funcName, err)
	}
	return nil
}

// InvokeBeforeStopHook 按 Order 执行所有 BeforeStop hook，错误合并返回
func InvokeBeforeStopHook() error {
	hooks := sortedHooks(beforeStopHooks)
	if len(hooks) == 0 {
		return nil
	}

	hooksMu.RLock()
	stopTimeout := defaultStopTimeout
	hooksMu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	resultCh := make(chan error, 1)
	go func() {
		resultCh <- invokeBeforeStopHooks(ctx, hooks)
	}()

	select {
	case err := <-resultCh:
		return err
	case <-ctx.Done():
		return xerror.Newf("xhook", "BeforeStop", "timeout after %v", stopTimeout)
	}
}

func invokeBeforeStopHooks(ctx context.Context, hooks []hook) error {
	var errs []error
	for i, h := range hooks {
		if ctx.Err() != nil {
			return xerror.Newf("xhook", "BeforeStop", "interrupted due to timeout, completed %d/%d hooks", i, len(hooks))
		}

		// 取 min(hook 超时, 全局剩余时间)
		timeout := h.Options.Timeout
		if deadline, ok := ctx.Deadline(); ok {
			if remaining := time.Until(deadline); timeout <= 0 || remaining < timeout {
				timeout = remaining
			}
		}

		funcName := getInvokeFuncFullName(h.HookFunc)
		if err := invokeHookWithTimeout(h, timeout); err != nil {
			xutil.ErrorIfEnableDebug("XFrame invoke before stop hook failed, func=[%v], err=[%v]", funcName, err)
			errs = append(errs, xerror.Newf("xhook", "BeforeStop", "func=[%v], %w", funcName, err))
			continue
		}
		xutil.InfoIfEnableDebug("XFrame invoke before stop hook success, func=[%v]", funcName)
	}
	return errors.Join(errs...)
}

// sortedHooks 返回按 Order 稳定排序后的副本
func sortedHooks(hooks []hook) []hook {
	hooksMu.RLock()
	res := slices.Clone(hooks)
	hooksMu.RUnlock()

	slices.SortStableFunc(res, func(a, b hook) int {
		return a.Options.Order - b.Options.Order
	})
	return res
}

// invokeHookWithTimeout 超时只代表放弃等待，hook 本身仍会继续执行直到返回
func invokeHookWithTimeout(h hook, timeout time.Duration) error {
	if timeout <= 0 {
		return safeInvokeHook(h.HookFunc)
	}

	f := xutil.Async(func() (struct{}, error) {
		return struct{}{}, h.HookFunc()
	})
	if _, err := f.GetWithTimeout(timeout); err != nil && !f.IsDone() {
		return xerror.Newf("xhook", "invokeHook", "hook timeout after %v, func=[%v]", timeout, getInvokeFuncFullName(h.HookFunc))
	}
	_, err := f.Get()
	return err
}

func safeInvokeHook(h HookFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic occurred, %v", r)
		}
	}()
	return h()
}

func getInvokeFuncFullName(hf HookFunc) string {
	file, line, name := xutil.GetFuncInfo(hf)
	return fmt.Sprintf("%s:%d %s()", file, line, name)
}
