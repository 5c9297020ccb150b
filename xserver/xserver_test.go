package xserver

import (
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/xiaoshicae/xframe/xhook"

	. "github.com/bytedance/mockey"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRun(t *testing.T) {
	PatchConvey("TestRun-错误合并", t, func() {
		Mock(xhook.InvokeBeforeStartHook).Return(nil).Build()
		Mock(runWithServer).Return(errors.New("for test")).Build()
		Mock(xhook.InvokeBeforeStopHook).Return(errors.New("for test 2")).Build()
		err := Run(NormalServer{})
		So(err.Error(), ShouldEqual, "for test\nfor test 2")
	})

	PatchConvey("TestRun-start hook 失败", t, func() {
		Mock(xhook.InvokeBeforeStartHook).Return(errors.New("start failed")).Build()
		stopCalled := Mock(xhook.InvokeBeforeStopHook).Return(nil).Build()
		So(Run(NormalServer{}).Error(), ShouldEqual, "start failed")
		So(stopCalled.Times(), ShouldEqual, 0)
	})

	PatchConvey("TestR", t, func() {
		Mock(xhook.InvokeBeforeStartHook).Return(nil).Build()
		So(R(), ShouldBeNil)
	})
}

func TestRunWithServer(t *testing.T) {
	PatchConvey("TestRunWithServer-Panic", t, func() {
		err := runWithServer(PanicRunServer{})
		So(err.Error(), ShouldEqual, "XFrame xserver run failed, err=[panic occurred, panic run]")
	})

	PatchConvey("TestRunWithServer-Err", t, func() {
		err := runWithServer(ErrRunServer{})
		So(err.Error(), ShouldEqual, "XFrame xserver run failed, err=[err run]")
	})

	PatchConvey("TestRunWithServer-ServerClosed", t, func() {
		So(runWithServer(ClosedServer{}), ShouldBeNil)
	})

	PatchConvey("TestRunWithServer-Normal", t, func() {
		So(runWithServer(NormalServer{}), ShouldBeNil)
	})

	PatchConvey("TestRunWithServer-Signal", t, func() {
		MockValue(&quitSignals).To([]os.Signal{syscall.SIGUSR1})
		s := newWaitServer(nil)
		go func() {
			<-s.started
			_ = syscall.Kill(os.Getpid(), syscall.SIGUSR1)
		}()
		So(runWithServer(s), ShouldBeNil)
	})

	PatchConvey("TestRunWithServer-SignalStopError", t, func() {
		MockValue(&quitSignals).To([]os.Signal{syscall.SIGUSR1})
		s := newWaitServer(errors.New("stop err"))
		go func() {
			<-s.started
			_ = syscall.Kill(os.Getpid(), syscall.SIGUSR1)
		}()
		So(runWithServer(s).Error(), ShouldEqual, "XFrame xserver stop failed, err=[stop err]")
		s.Release()
	})
}

func TestSafeInvokeServerStop(t *testing.T) {
	PatchConvey("TestSafeInvokeServerStop-Panic", t, func() {
		So(safeInvokeServerStop(PanicStopServer{}).Error(), ShouldEqual, "panic occurred, stop panic")
	})

	PatchConvey("TestSafeInvokeServerStop-Err", t, func() {
		So(safeInvokeServerStop(ErrStopServer{}).Error(), ShouldEqual, "stop err")
	})

	PatchConvey("TestSafeInvokeServerStop-Normal", t, func() {
		So(safeInvokeServerStop(NormalServer{}), ShouldBeNil)
	})
}

func TestGroup(t *testing.T) {
	PatchConvey("TestGroup-全部正常结束", t, func() {
		So(Group(NormalServer{}, ClosedServer{}).Run(), ShouldBeNil)
	})

	PatchConvey("TestGroup-成员出错时停止其余成员", t, func() {
		w := newWaitServer(nil)
		err := Group(w, ErrRunServer{}).Run()
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldEqual, "err run")
		So(isClosed(w.quit), ShouldBeTrue)
	})

	PatchConvey("TestGroup-Stop 只执行一次并合并错误", t, func() {
		g := Group(ErrStopServer{}, PanicStopServer{}, NormalServer{})
		err := g.Stop()
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "stop err")
		So(err.Error(), ShouldContainSubstring, "panic occurred, stop panic")
		So(g.Stop(), ShouldEqual, err)
	})

	PatchConvey("TestGroup-信号停止", t, func() {
		MockValue(&quitSignals).To([]os.Signal{syscall.SIGUSR1})
		a, b := newWaitServer(nil), newWaitServer(nil)
		go func() {
			<-a.started
			<-b.started
			_ = syscall.Kill(os.Getpid(), syscall.SIGUSR1)
		}()
		So(runWithServer(Group(a, b)), ShouldBeNil)
	})
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

type PanicRunServer struct{}

func (PanicRunServer) Run() error  { panic("panic run") }
func (PanicRunServer) Stop() error { return nil }

type ErrRunServer struct{}

func (ErrRunServer) Run() error  { return errors.New("err run") }
func (ErrRunServer) Stop() error { return nil }

type ClosedServer struct{}

func (ClosedServer) Run() error  { return ErrServerClosed }
func (ClosedServer) Stop() error { return nil }

type NormalServer struct{}

func (NormalServer) Run() error  { return nil }
func (NormalServer) Stop() error { return nil }

type PanicStopServer struct{}

func (PanicStopServer) Run() error  { return nil }
func (PanicStopServer) Stop() error { panic("stop panic") }

type ErrStopServer struct{}

func (ErrStopServer) Run() error  { return nil }
func (ErrStopServer) Stop() error { return errors.New("stop err") }

// waitServer Run 阻塞到 Stop 成功或 Release
type waitServer struct {
	started chan struct{}
	quit    chan struct{}
	stopErr error
}

func newWaitServer(stopErr error) *waitServer {
	return &waitServer{started: make(chan struct{}), quit: make(chan struct{}), stopErr: stopErr}
}

func (w *waitServer) Run() error {
	close(w.started)
	select {
	case <-w.quit:
		return ErrServerClosed
	case <-time.After(5 * time.Second):
		return errors.New("not stopped")
	}
}

func (w *waitServer) Stop() error {
	if w.stopErr != nil {
		return w.stopErr
	}
	close(w.quit)
	return nil
}

func (w *waitServer) Release() {
	close(w.quit)
}
