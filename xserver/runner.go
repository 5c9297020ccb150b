package xserver

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/xiaoshicae/xframe/xerror"
	"github.com/xiaoshicae/xframe/xhook"
	"github.com/xiaoshicae/xframe/xutil"
)

// Run 执行 before start hook 后以阻塞方式运行 Server，等待退出信号或 Server 自行结束，最后执行 before stop hook
func Run(server Server) error {
	return run(server)
}

// R 只执行 before start hook，建议用于调试
func R() error {
	return run(nil)
}

func run(server Server) error {
	if err := xhook.InvokeBeforeStartHook(); err != nil {
		return err
	}

	// 只执行 before start hook，一般用于调试
	if server == nil {
		return nil
	}

	serverRunErr := runWithServer(server)
	beforeStopHookErr := xhook.InvokeBeforeStopHook()
	if serverRunErr != nil || beforeStopHookErr != nil {
		return errors.Join(serverRunErr, beforeStopHookErr)
	}
	return nil
}

func runWithServer(s Server) error {
	serverRunErrChan := make(chan error, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, quitSignals...)
	defer signal.Stop(quit)

	go safeInvokeServerRun(s, serverRunErrChan)

	select {
	case err := <-serverRunErrChan:
		if err != nil {
			return xerror.New("xserver", "run", err)
		}
		xutil.InfoIfEnableDebug("XFrame Run server finished")
		return nil
	case sig := <-quit:
		xutil.InfoIfEnableDebug("********** XFrame Stop server begin, signal=[%v] **********", sig)
		if err := safeInvokeServerStop(s); err != nil {
			return xerror.New("xserver", "stop", err)
		}
		// pipeline 需要排空在途帧，Stop 后等待 Run 返回
		if err := <-serverRunErrChan; err != nil {
			return xerror.New("xserver", "run", err)
		}
		xutil.InfoIfEnableDebug("********** XFrame Stop server success **********")
		return nil
	}
}

func safeInvokeServerRun(s Server, serverRunErrChan chan<- error) {
	defer func() {
		if r := recover(); r != nil {
			serverRunErrChan <- fmt.Errorf("panic occurred, %v", r)
		}
	}()

	err := s.Run() // 服务一般会阻塞在此处
	if err != nil && !errors.Is(err, ErrServerClosed) {
		serverRunErrChan <- err
		return
	}
	serverRunErrChan <- nil
}

func safeInvokeServerStop(s Server) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic occurred, %v", r)
		}
	}()
	return s.Stop()
}

var quitSignals = []os.Signal{
	syscall.SIGHUP,
	syscall.SIGINT,
	syscall.SIGTERM,
}
