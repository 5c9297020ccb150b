package xframe

import (
	_ "github.com/xiaoshicae/xframe/xconfig" // 配置加载
	_ "github.com/xiaoshicae/xframe/xlog"    // 日志初始化
	"github.com/xiaoshicae/xframe/xpipeline"
	"github.com/xiaoshicae/xframe/xserver"
	_ "github.com/xiaoshicae/xframe/xtrace" // 默认加载trace
)

// RunPipeline 执行 before start hook 后运行 Pipeline，阻塞到 Pipeline 结束或收到退出信号
// 收到退出信号时 source 停止，下游处理完剩余帧后退出，最后执行 before stop hook
func RunPipeline[F xpipeline.Properties](p *xpipeline.Pipeline[F]) error {
	return xserver.Run(xpipeline.Server(p))
}

// RunServer 运行自定义 Server，多个 Pipeline 可通过 xserver.Group 合并后托管
func RunServer(server xserver.Server) error {
	return xserver.Run(server)
}

// R 只执行 before start hook，建议用于调试
func R() error {
	return xserver.R()
}
