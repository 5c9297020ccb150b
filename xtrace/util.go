package xtrace

import (
	"context"
	"strings"

	"github.com/xiaoshicae/xframe/xconfig"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	XTraceEnableKey = "XTrace.Enable"
)

func EnableTrace() bool {
	enable := strings.TrimSpace(xconfig.GetString(XTraceEnableKey))
	return strings.ToLower(enable) != "false" // 需要明确配置false才会关闭trace
}

func GetTracer(name string, opts ...oteltrace.TracerOption) oteltrace.Tracer {
	return otel.Tracer(name, opts...)
}

// InjectCarrier 把 ctx 中的链路信息按已注册的传播格式写出，无链路信息时返回空 map
func InjectCarrier(ctx context.Context) map[string]string {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier
}

// ExtractCarrier 从 carrier 中恢复链路信息
func ExtractCarrier(ctx context.Context, carrier map[string]string) context.Context {
	if len(carrier) == 0 {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(carrier))
}
