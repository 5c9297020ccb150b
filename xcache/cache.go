package xcache

import (
	"sync"
	"time"

	"github.com/xiaoshicae/xframe/xconfig"
	"github.com/xiaoshicae/xframe/xerror"
	"github.com/xiaoshicae/xframe/xutil"

	"github.com/dgraph-io/ristretto"
)

// Cache 本地缓存封装，基于 ristretto
type Cache struct {
	raw        *ristretto.Cache
	defaultTTL time.Duration

	// 保证 Mark 的检查与写入是原子的
	markMu    sync.Mutex
	closeOnce sync.Once
}

// New 按配置创建缓存，c 中未配置的字段使用默认值
func New(c *Config) (*Cache, error) {
	c = configMergeDefault(c)
	raw, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        c.NumCounters,
		MaxCost:            c.MaxCost,
		BufferItems:        c.BufferItems,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, xerror.Newf("xcache", "new", "ristretto.NewCache failed, err=[%v]", err)
	}
	return &Cache{raw: raw, defaultTTL: xutil.ToDuration(c.DefaultTTL)}, nil
}

// LoadConfig 读取 XCache 配置，未配置时返回默认配置
func LoadConfig() (*Config, error) {
	c := &Config{}
	if xconfig.ContainKey(XCacheConfigKey) {
		if err := xconfig.UnmarshalConfig(XCacheConfigKey, c); err != nil {
			return nil, xerror.Newf("xcache", "loadConfig", "unmarshal failed, err=[%v]", err)
		}
	}
	return configMergeDefault(c), nil
}

// Get 获取缓存值
func (c *Cache) Get(key string) (any, bool) {
	return c.raw.Get(key)
}

// Set 设置缓存值，使用默认 TTL
func (c *Cache) Set(key string, value any) bool {
	return c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL 设置缓存值并等待写入完成，ttl<=0 表示不过期
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) bool {
	if ttl < 0 {
		ttl = 0
	}
	ok := c.raw.SetWithTTL(key, value, 1, ttl)
	c.raw.Wait()
	return ok
}

// Mark 若 key 不存在则写入并返回 true，已存在返回 false
func (c *Cache) Mark(key string, ttl time.Duration) bool {
	c.markMu.Lock()
	defer c.markMu.Unlock()

	if _, ok := c.raw.Get(key); ok {
		return false
	}
	c.SetWithTTL(key, struct{}{}, ttl)
	return true
}

// Del 删除缓存值
func (c *Cache) Del(key string) {
	c.raw.Del(key)
}

// Clear 清空缓存
func (c *Cache) Clear() {
	c.raw.Clear()
}

// DefaultTTL 返回默认过期时间
func (c *Cache) DefaultTTL() time.Duration {
	return c.defaultTTL
}

// Close 关闭缓存，可重复调用
func (c *Cache) Close() {
	c.closeOnce.Do(c.raw.Close)
}
