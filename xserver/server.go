package xserver

import "errors"

// ErrServerClosed Run 因 Stop 正常返回时可使用，框架视为正常退出
var ErrServerClosed = errors.New("xserver: server closed")

// Server 服务接口
type Server interface {
	// Run 启动服务
	// 建议服务以阻塞方式运行，框架会以异步方式运行服务，且阻塞等待退出信号，Run 结束后 XFrame 也会随之结束
	Run() error

	// Stop 停止服务，收到退出信号时调用
	Stop() error
}
