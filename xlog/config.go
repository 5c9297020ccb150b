package xlog

import "github.com/xiaoshicae/xframe/xutil"

const XLogConfigKey = "XLog"

const (
	defaultLevel      = "info"
	defaultName       = "xframe"
	defaultPath       = "./log"
	defaultMaxAge     = "7d"
	defaultRotateTime = "1d"
	defaultTimezone   = "Asia/Shanghai"
)

// defaultConsoleFields 控制台默认附带的 ctx 字段，由 xpipeline 在 processor ctx 中注入
var defaultConsoleFields = []string{"pipeline", "component"}

// Config XLog 配置段
type Config struct {
	// Level 低于该级别的日志不落盘，debug/info/warn/error/fatal
	Level string `mapstructure:"Level"`

	// Name 落盘文件为 <Path>/<Name>.log
	Name string `mapstructure:"Name"`

	Path string `mapstructure:"Path"`

	// Console 同时打印到控制台
	Console bool `mapstructure:"Console"`

	// ConsoleFormatIsRaw 控制台打印原始 json
	ConsoleFormatIsRaw bool `mapstructure:"ConsoleFormatIsRaw"`

	// ConsoleFields 非 raw 模式下控制台额外打印的 ctx 字段
	ConsoleFields []string `mapstructure:"ConsoleFields"`

	// MaxAge 文件保留时长，支持 "7d"
	MaxAge string `mapstructure:"MaxAge"`

	// RotateTime 文件切割间隔
	RotateTime string `mapstructure:"RotateTime"`

	Timezone string `mapstructure:"Timezone"`
}

func configMergeDefault(c *Config) *Config {
	if c == nil {
		c = &Config{}
	}
	c.Level = xutil.GetOrDefault(c.Level, defaultLevel)
	c.Name = xutil.GetOrDefault(c.Name, defaultName)
	c.Path = xutil.GetOrDefault(c.Path, defaultPath)
	c.MaxAge = xutil.GetOrDefault(c.MaxAge, defaultMaxAge)
	c.RotateTime = xutil.GetOrDefault(c.RotateTime, defaultRotateTime)
	c.Timezone = xutil.GetOrDefault(c.Timezone, defaultTimezone)
	if c.ConsoleFields == nil {
		c.ConsoleFields = defaultConsoleFields
	}
	return c
}
