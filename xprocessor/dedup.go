package xprocessor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/xiaoshicae/xframe/xcache"
	"github.com/xiaoshicae/xframe/xerror"
	"github.com/xiaoshicae/xframe/xpipeline"
)

var errEmptyKey = errors.New("key is empty")

// Deduplicator frame[key] 的值在 ttl 内出现过则丢弃，key 不存在时放行
// 基于 ristretto，缓存满时可能提前淘汰，属于尽力而为的去重
type Deduplicator[F xpipeline.Properties] struct {
	key string
	ttl time.Duration

	// cache 首次 Process 时按 XCache 配置创建，此时配置文件已由 BeforeStart hook 加载
	initOnce sync.Once
	cache    *xcache.Cache
	initErr  error
}

// NewDeduplicator ttl<=0 时使用 XCache.DefaultTTL
func NewDeduplicator[F xpipeline.Properties](key string, ttl time.Duration) (*Deduplicator[F], error) {
	if key == "" {
		return nil, xerror.New("xprocessor", "newDeduplicator", errEmptyKey)
	}
	return &Deduplicator[F]{key: key, ttl: ttl}, nil
}

// Process 缓存创建失败时 panic，由所在 Component 作为致命错误上报
func (d *Deduplicator[F]) Process(_ context.Context, frame F) (F, bool) {
	if err := d.init(); err != nil {
		panic(err)
	}
	v, ok := frame.Get(d.key)
	if !ok {
		return frame, true
	}
	return frame, d.cache.Mark(d.key+"="+v.String(), d.ttl)
}

func (d *Deduplicator[F]) init() error {
	d.initOnce.Do(func() {
		cfg, err := xcache.LoadConfig()
		if err == nil {
			d.cache, err = xcache.New(cfg)
		}
		if err != nil {
			d.initErr = xerror.Newf("xprocessor", "deduplicator", "key=[%s], %w", d.key, err)
			return
		}
		if d.ttl <= 0 {
			d.ttl = d.cache.DefaultTTL()
		}
	})
	return d.initErr
}

func (d *Deduplicator[F]) Name() string {
	return "Deduplicator(" + d.key + ")"
}

// Close 所在 Component 结束时由运行时调用，未处理过帧时无需释放
func (d *Deduplicator[F]) Close() error {
	if d.cache != nil {
		d.cache.Close()
	}
	return nil
}
