package xtrace

import "github.com/xiaoshicae/xframe/xutil"

const XTraceConfigKey = "XTrace"

var defaultPropagators = []string{"tracecontext", "baggage", "b3"}

// Config XTrace 配置段
type Config struct {
	// Enable 只有显式配置为 false 才关闭，关闭后组件 span 为 noop
	Enable *bool `mapstructure:"Enable"`

	// Console span 以 pretty json 打印到 stdout
	Console bool `mapstructure:"Console"`

	// SampleRatio 根 span 采样率，取值 (0,1]，默认 1
	// 每个 Component 一个根 span，长时间运行的 pipeline 可以调低
	SampleRatio float64 `mapstructure:"SampleRatio"`

	// Propagators 支持 tracecontext、baggage、b3、b3multi，决定 ComponentEvent.TraceCarrier 中的字段
	Propagators []string `mapstructure:"Propagators"`
}

func configMergeDefault(c *Config) *Config {
	if c == nil {
		c = &Config{}
	}
	if c.Enable == nil {
		c.Enable = xutil.ToPtr(true)
	}
	if c.SampleRatio <= 0 || c.SampleRatio > 1 {
		c.SampleRatio = 1
	}
	if len(c.Propagators) == 0 {
		c.Propagators = defaultPropagators
	}
	return c
}
