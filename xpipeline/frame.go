package xpipeline

import (
	"fmt"
	"sort"
	"strings"

	"lukechampine.com/uint128"
)

// Properties 帧上的属性表，key 为短文本，value 为 128 位无符号整数
type Properties interface {
	Set(key string, v uint128.Uint128)
	// Get key 不存在时返回 false
	Get(key string) (uint128.Uint128, bool)
}

// ErrorReport 帧上的业务错误槽位，设置后下游处理器应跳过业务逻辑
type ErrorReport[E any] interface {
	SetError(e E)
	Error() (E, bool)
	HasError() bool
}

// DropReason 帧上的丢弃原因槽位，只用于观测
type DropReason[R any] interface {
	SetDropReason(r R)
	DropReason() (R, bool)
}

// ErrorChecker 只关心是否存在错误的处理器使用
type ErrorChecker interface {
	HasError() bool
}

// DroppableFrame 同时具备属性表与丢弃原因的帧
type DroppableFrame[R any] interface {
	Properties
	DropReason[R]
}

// BasicFrame 内置帧实现，E=error，R=string，零值可直接使用
type BasicFrame struct {
	props      map[string]uint128.Uint128
	err        error
	dropReason string
	hasReason  bool
}

func NewBasicFrame() *BasicFrame {
	return &BasicFrame{props: make(map[string]uint128.Uint128, 4)}
}

func (f *BasicFrame) Set(key string, v uint128.Uint128) {
	if f.props == nil {
		f.props = make(map[string]uint128.Uint128, 4)
	}
	f.props[key] = v
}

func (f *BasicFrame) Get(key string) (uint128.Uint128, bool) {
	v, ok := f.props[key]
	return v, ok
}

// SetUint64 Set 的便捷写法
func (f *BasicFrame) SetUint64(key string, v uint64) {
	f.Set(key, uint128.From64(v))
}

// GetUint64 超出 64 位时返回 false
func (f *BasicFrame) GetUint64(key string) (uint64, bool) {
	v, ok := f.props[key]
	if !ok || v.Hi != 0 {
		return 0, false
	}
	return v.Lo, true
}

func (f *BasicFrame) SetError(e error) {
	f.err = e
}

func (f *BasicFrame) Error() (error, bool) {
	return f.err, f.err != nil
}

func (f *BasicFrame) HasError() bool {
	return f.err != nil
}

func (f *BasicFrame) SetDropReason(r string) {
	f.dropReason = r
	f.hasReason = true
}

func (f *BasicFrame) DropReason() (string, bool) {
	return f.dropReason, f.hasReason
}

// Keys 按字典序返回所有属性 key
func (f *BasicFrame) Keys() []string {
	keys := make([]string, 0, len(f.props))
	for k := range f.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot 返回属性表的拷贝
func (f *BasicFrame) Snapshot() map[string]uint128.Uint128 {
	m := make(map[string]uint128.Uint128, len(f.props))
	for k, v := range f.props {
		m[k] = v
	}
	return m
}

func (f *BasicFrame) String() string {
	var sb strings.Builder
	sb.WriteString("Frame{")
	for i, k := range f.Keys() {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%s", k, f.props[k])
	}
	if f.err != nil {
		fmt.Fprintf(&sb, ", error=%v", f.err)
	}
	if f.hasReason {
		fmt.Fprintf(&sb, ", drop=%s", f.dropReason)
	}
	sb.WriteString("}")
	return sb.String()
}
