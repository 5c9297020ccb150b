package xtrace

import (
	"context"
	"strings"
	"time"

	"github.com/xiaoshicae/xframe/xconfig"
	"github.com/xiaoshicae/xframe/xerror"
	"github.com/xiaoshicae/xframe/xhook"
	"github.com/xiaoshicae/xframe/xutil"

	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace/noop"
)

var (
	defaultShutdownTimeout = 5 * time.Second
	xTraceShutdownFunc     func() error
)

func init() {
	xhook.BeforeStart(initXTrace, xhook.Order(3))
	xhook.BeforeStop(shutdownXTrace, xhook.Order(200))
}

// SetShutdownTimeout 设置 TracerProvider 关闭超时，<=0 时忽略
func SetShutdownTimeout(d time.Duration) {
	if d > 0 {
		defaultShutdownTimeout = d
	}
}

func initXTrace() error {
	c, err := getConfig()
	if err != nil {
		return xerror.New("xtrace", "init", err)
	}

	if c.Enable != nil && !*c.Enable {
		otel.SetTracerProvider(noop.NewTracerProvider())
		xutil.InfoIfEnableDebug("XFrame initXTrace ignored, because of config XTrace.Enable=false")
		return nil
	}

	serviceName := xconfig.GetServerName()
	serviceVersion := xconfig.GetServerVersion()
	xutil.InfoIfEnableDebug("XFrame initXTrace got param: ServiceName:%s, ServiceVersion:%s", serviceName, serviceVersion)

	return initXTraceByConfig(c, serviceName, serviceVersion)
}

func initXTraceByConfig(c *Config, serviceName, serviceVersion string) error {
	r, err := resource.New(
		context.Background(),
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
			attribute.String("framework", "xframe"),
		),
	)
	if err != nil {
		return xerror.Newf("xtrace", "init", "build resource failed, %w", err)
	}

	tpOpts := []trace.TracerProviderOption{
		trace.WithSampler(newSampler(c.SampleRatio)),
		trace.WithResource(r),
	}
	if c.Console {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return xerror.Newf("xtrace", "init", "build stdout exporter failed, %w", err)
		}
		tpOpts = append(tpOpts, trace.WithBatcher(exporter))
	}

	tp := trace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(buildPropagator(c.Propagators))

	xTraceShutdownFunc = func() error {
		ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		return tp.Shutdown(ctx)
	}
	return nil
}

// newSampler 上游 ctx 已带采样决策时沿用，否则按比例采样
func newSampler(ratio float64) trace.Sampler {
	if ratio >= 1 {
		return trace.ParentBased(trace.AlwaysSample())
	}
	return trace.ParentBased(trace.TraceIDRatioBased(ratio))
}

func buildPropagator(names []string) propagation.TextMapPropagator {
	ps := make([]propagation.TextMapPropagator, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "tracecontext":
			ps = append(ps, propagation.TraceContext{})
		case "baggage":
			ps = append(ps, propagation.Baggage{})
		case "b3":
			ps = append(ps, b3.New(b3.WithInjectEncoding(b3.B3SingleHeader)))
		case "b3multi":
			ps = append(ps, b3.New(b3.WithInjectEncoding(b3.B3MultipleHeader)))
		default:
			xutil.WarnIfEnableDebug("XFrame initXTrace unknown propagator [%s], ignored", name)
		}
	}
	return propagation.NewCompositeTextMapPropagator(ps...)
}

func getConfig() (*Config, error) {
	c := &Config{}
	if err := xconfig.UnmarshalConfig(XTraceConfigKey, c); err != nil {
		return nil, err
	}
	return configMergeDefault(c), nil
}

func shutdownXTrace() error {
	fn := xTraceShutdownFunc
	xTraceShutdownFunc = nil
	if fn == nil {
		return nil
	}
	return fn()
}
