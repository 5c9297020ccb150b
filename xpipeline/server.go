package xpipeline

import (
	"context"

	"github.com/xiaoshicae/xframe/xserver"
)

// Server 将 Pipeline 适配为 xserver.Server：Run 阻塞到 Pipeline 结束，Stop 触发优雅停止
func Server[F Properties](p *Pipeline[F]) xserver.Server {
	return &pipelineServer[F]{p: p}
}

type pipelineServer[F Properties] struct {
	p *Pipeline[F]
}

func (s *pipelineServer[F]) Run() error {
	if _, err := s.p.Run(context.Background()); err != nil {
		return err
	}
	return s.p.Wait()
}

func (s *pipelineServer[F]) Stop() error {
	s.p.Stop()
	return nil
}
