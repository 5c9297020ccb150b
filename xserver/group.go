package xserver

import (
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Group 将多个 Server 合并为一个：Run 并发运行全部成员，任一成员出错时停止其余成员
// 全部成员正常结束时 Run 返回 nil
func Group(servers ...Server) Server {
	return &group{servers: servers}
}

type group struct {
	servers  []Server
	stopOnce sync.Once
	stopErr  error
}

func (g *group) Run() error {
	var eg errgroup.Group
	for _, s := range g.servers {
		eg.Go(func() error {
			err := s.Run()
			if err == nil || errors.Is(err, ErrServerClosed) {
				return nil
			}
			_ = g.Stop()
			return err
		})
	}
	return eg.Wait()
}

// Stop 停止全部成员，只执行一次，返回各成员 Stop 错误的合并
func (g *group) Stop() error {
	g.stopOnce.Do(func() {
		errs := make([]error, 0, len(g.servers))
		for _, s := range g.servers {
			errs = append(errs, safeInvokeServerStop(s))
		}
		g.stopErr = errors.Join(errs...)
	})
	return g.stopErr
}
