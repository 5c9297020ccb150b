package xpipeline

import "sync"

// Handle 单个 Component goroutine 的句柄
type Handle struct {
	name string
	done chan struct{}

	mu    sync.Mutex
	err   error
	stats ComponentStats
}

func newHandle(name string) *Handle {
	return &Handle{name: name, done: make(chan struct{})}
}

func (h *Handle) Name() string {
	return h.name
}

// Done goroutine 结束时关闭
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait 阻塞到 goroutine 结束，返回该 Component 的致命错误
func (h *Handle) Wait() error {
	<-h.done
	return h.Err()
}

// Err 非阻塞，未结束时返回 nil
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Stats 未结束时返回零值
func (h *Handle) Stats() ComponentStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

func (h *Handle) finish(stats ComponentStats, err error) {
	h.mu.Lock()
	h.stats = stats
	h.err = err
	h.mu.Unlock()
	close(h.done)
}
