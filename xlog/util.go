package xlog

import (
	"context"

	"github.com/sirupsen/logrus"
)

type ctxKVContainerKey struct{}

func Error(ctx context.Context, msg string, args ...any) {
	RawLog(ctx, logrus.ErrorLevel, msg, args...)
}

func Warn(ctx context.Context, msg string, args ...any) {
	RawLog(ctx, logrus.WarnLevel, msg, args...)
}

func Info(ctx context.Context, msg string, args ...any) {
	RawLog(ctx, logrus.InfoLevel, msg, args...)
}

func Debug(ctx context.Context, msg string, args ...any) {
	RawLog(ctx, logrus.DebugLevel, msg, args...)
}

// RawLog args 中的 Option 作为附加字段，其余作为 msg 的格式化参数
func RawLog(ctx context.Context, level logrus.Level, msg string, args ...any) {
	if ctx == nil {
		return
	}

	if len(args) == 0 {
		logrus.WithContext(ctx).Log(level, msg)
		return
	}

	logArgs := make([]any, 0, len(args))
	opts := make([]Option, 0, 2)
	for _, arg := range args {
		if opt, ok := arg.(Option); ok {
			opts = append(opts, opt)
		} else {
			logArgs = append(logArgs, arg)
		}
	}

	if len(opts) == 0 {
		logrus.WithContext(ctx).Logf(level, msg, logArgs...)
		return
	}

	dos := defaultOptions()
	for _, o := range opts {
		o(dos)
	}
	logrus.WithContext(ctx).WithFields(dos.KV).Logf(level, msg, logArgs...)
}

// CtxWithKV 向 ctx 注入字段，之后用该 ctx 打印的日志都会带上
// 每次返回新的 map，不修改父 ctx 中的数据
func CtxWithKV(ctx context.Context, kvs map[string]any) context.Context {
	parent := getKVContainerFromCtx(ctx)
	merged := make(map[string]any, len(parent)+len(kvs))
	for k, v := range parent {
		merged[k] = v
	}
	for k, v := range kvs {
		merged[k] = v
	}
	return context.WithValue(ctx, ctxKVContainerKey{}, merged)
}

func getKVContainerFromCtx(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	m, _ := ctx.Value(ctxKVContainerKey{}).(map[string]any)
	return m
}
