package xutil

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// GetTraceIDFromCtx 从 ctx 中的 span 获取 TraceID，无有效 span 时返回空串
func GetTraceIDFromCtx(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// GetSpanIDFromCtx 从 ctx 中的 span 获取 SpanID
func GetSpanIDFromCtx(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.SpanID().String()
}
