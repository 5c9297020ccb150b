package xpipeline

type options struct {
	name     string
	capacity *int
	factory  any
	monitor  Monitor
}

type Option func(*options)

func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithChannelCapacity 相邻 Component 之间 channel 的容量，必须 >= 1
func WithChannelCapacity(k int) Option {
	return func(o *options) {
		o.capacity = &k
	}
}

// WithFrameFactory source 构造新帧的方式，fn 的返回类型必须与 Pipeline 的帧类型一致
func WithFrameFactory[F any](fn func() F) Option {
	return func(o *options) {
		o.factory = fn
	}
}

// WithMonitor 指定 Monitor，优先于全局默认 Monitor 与 DisableMonitor 配置
func WithMonitor(m Monitor) Option {
	return func(o *options) {
		o.monitor = m
	}
}
