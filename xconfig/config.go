package xconfig

const ServerConfigKey = "Server"

// Server 进程级配置，各模块的配置段(XLog、XTrace、XPipeline、XCache)与之平级
type Server struct {
	// Name 服务名，写入日志 servername 字段与 trace 的 service.name
	Name string `mapstructure:"Name"`

	// Version 默认 "v0.0.1"
	Version string `mapstructure:"Version"`

	Profiles *Profiles `mapstructure:"Profiles"`
}

// Profiles Active=dev 时额外加载 application-dev.yml 并覆盖基础配置
type Profiles struct {
	Active string `mapstructure:"Active"`
}
