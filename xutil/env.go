package xutil

import (
	"os"
	"strings"
)

const (
	DebugKey = "XFRAME_ENABLE_DEBUG"
)

// EnableDebug 是否开启 xframe 内部调试日志（启动、配置加载、hook 执行等过程）
func EnableDebug() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(DebugKey))) {
	case "true", "1", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}
