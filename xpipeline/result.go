package xpipeline

import (
	"fmt"
	"strings"
)

// ComponentStats 单个 Component 的运行统计
// 停止信号到达时正在处理并被放弃的帧只计入 Received，因此 Received 可能大于 Emitted+Dropped
type ComponentStats struct {
	Name     string
	Received uint64
	Emitted  uint64
	Dropped  uint64
	Err      error
}

// RunResult Pipeline 运行结果，Components 与 Link 顺序一致
type RunResult struct {
	Components []ComponentStats
	// Err 首个致命错误
	Err error
}

func (r *RunResult) Success() bool {
	return r.Err == nil
}

// Dropped 所有 Component 丢弃帧数之和
func (r *RunResult) Dropped() uint64 {
	var n uint64
	for _, c := range r.Components {
		n += c.Dropped
	}
	return n
}

func (r *RunResult) String() string {
	parts := make([]string, 0, len(r.Components))
	for _, c := range r.Components {
		parts = append(parts, fmt.Sprintf("%s(in=%d,out=%d,drop=%d)", c.Name, c.Received, c.Emitted, c.Dropped))
	}
	s := "components=[" + strings.Join(parts, " ") + "]"
	if r.Err != nil {
		s += fmt.Sprintf(" err=[%v]", r.Err)
	}
	return s
}
