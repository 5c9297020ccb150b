package xtrace

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xiaoshicae/xframe/xconfig"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	. "github.com/bytedance/mockey"
	. "github.com/smartystreets/goconvey/convey"
)

func TestXTraceConfig(t *testing.T) {
	PatchConvey("TestXTraceConfig-configMergeDefault-Param-Nil", t, func() {
		c := configMergeDefault(nil)
		So(*c.Enable, ShouldBeTrue)
		So(c.Console, ShouldBeFalse)
		So(c.SampleRatio, ShouldEqual, 1)
		So(c.Propagators, ShouldResemble, []string{"tracecontext", "baggage", "b3"})
	})
	PatchConvey("TestXTraceConfig-configMergeDefault-Param-Exist", t, func() {
		enableFalse := false
		c := configMergeDefault(&Config{Enable: &enableFalse, Console: true, SampleRatio: 0.25, Propagators: []string{"b3multi"}})
		So(*c.Enable, ShouldBeFalse)
		So(c.SampleRatio, ShouldEqual, 0.25)
		So(c.Console, ShouldBeTrue)
		So(c.Propagators, ShouldResemble, []string{"b3multi"})
	})
}

func TestNewSampler(t *testing.T) {
	PatchConvey("TestNewSampler", t, func() {
		So(newSampler(1).Description(), ShouldContainSubstring, "AlwaysOnSampler")
		So(newSampler(0.5).Description(), ShouldContainSubstring, "TraceIDRatioBased{0.5}")
	})
}

func TestEnableTrace(t *testing.T) {
	PatchConvey("TestEnableTrace-default enabled", t, func() {
		Mock(xconfig.GetString).Return("").Build()
		So(EnableTrace(), ShouldBeTrue)
	})

	PatchConvey("TestEnableTrace-explicit false", t, func() {
		Mock(xconfig.GetString).Return(" FALSE ").Build()
		So(EnableTrace(), ShouldBeFalse)
	})
}

func TestShutdownXTraceIdempotent(t *testing.T) {
	PatchConvey("TestShutdownXTraceIdempotent", t, func() {
		calls := 0
		xTraceShutdownFunc = func() error {
			calls++
			return nil
		}

		So(shutdownXTrace(), ShouldBeNil)
		So(shutdownXTrace(), ShouldBeNil)
		So(calls, ShouldEqual, 1)
	})
}

func TestSetShutdownTimeout(t *testing.T) {
	PatchConvey("TestSetShutdownTimeout", t, func() {
		original := defaultShutdownTimeout
		defer func() { defaultShutdownTimeout = original }()

		SetShutdownTimeout(10 * time.Second)
		So(defaultShutdownTimeout, ShouldEqual, 10*time.Second)

		SetShutdownTimeout(0)
		So(defaultShutdownTimeout, ShouldEqual, 10*time.Second)
	})
}

func TestInitXTrace(t *testing.T) {
	PatchConvey("TestInitXTrace-GetConfigFail", t, func() {
		Mock(xconfig.UnmarshalConfig).Return(errors.New("unmarshal failed")).Build()

		err := initXTrace()
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "getConfig failed")
	})

	PatchConvey("TestInitXTrace-Disabled", t, func() {
		enableFalse := false
		Mock(getConfig).Return(&Config{Enable: &enableFalse}, nil).Build()
		So(initXTrace(), ShouldBeNil)
	})
}

func TestCarrierRoundTrip(t *testing.T) {
	PatchConvey("TestCarrierRoundTrip", t, func() {
		So(initXTraceByConfig(configMergeDefault(nil), "xframe.test", "v0.0.1"), ShouldBeNil)
		defer func() { So(shutdownXTrace(), ShouldBeNil) }()

		ctx, span := GetTracer("xtrace_test").Start(context.Background(), "root")
		defer span.End()

		carrier := InjectCarrier(ctx)
		So(carrier["traceparent"], ShouldNotBeEmpty)
		So(carrier["b3"], ShouldNotBeEmpty)

		restored := trace.SpanContextFromContext(ExtractCarrier(context.Background(), carrier))
		So(restored.TraceID(), ShouldEqual, span.SpanContext().TraceID())
		So(restored.IsRemote(), ShouldBeTrue)

		So(InjectCarrier(context.Background()), ShouldBeEmpty)
		So(ExtractCarrier(context.Background(), nil), ShouldEqual, context.Background())
		So(otel.GetTextMapPropagator().Fields(), ShouldContain, "b3")
	})
}
