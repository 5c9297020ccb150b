package xpipeline

import (
	"github.com/xiaoshicae/xframe/xconfig"
	"github.com/xiaoshicae/xframe/xutil"
)

// XPipelineConfigKey 配置 key
const XPipelineConfigKey = "XPipeline"

const defaultChannelCapacity = 32

// Config xpipeline 配置
type Config struct {
	// ChannelCapacity 相邻 Component 之间 channel 的容量
	// optional default 32
	ChannelCapacity int `mapstructure:"ChannelCapacity"`

	// DisableMonitor 是否禁用监控
	// optional default false
	DisableMonitor bool `mapstructure:"DisableMonitor"`

	// DisableTrace 是否禁用 Component 级别的 span
	// optional default false
	DisableTrace bool `mapstructure:"DisableTrace"`
}

func configMergeDefault(c *Config) *Config {
	if c == nil {
		c = &Config{}
	}
	c.ChannelCapacity = xutil.GetOrDefault(c.ChannelCapacity, defaultChannelCapacity)
	return c
}

// GetConfig 读取当前生效的 XPipeline 配置，Pipeline 在 Bind 时调用
// 不做缓存：Pipeline 往往在 BeforeStart hook 加载配置文件之前构造
func GetConfig() *Config {
	c := &Config{}
	if err := xconfig.UnmarshalConfig(XPipelineConfigKey, c); err != nil {
		xutil.WarnIfEnableDebug("XFrame xpipeline unmarshal config failed, use default, err=[%v]", err)
		return configMergeDefault(nil)
	}
	return configMergeDefault(c)
}
