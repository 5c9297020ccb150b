package xcache

const XCacheConfigKey = "XCache"

// 每个条目 cost=1，MaxCost 即最多保留的条目数
// NumCounters 按 ristretto 的建议取 MaxCost 的 10 倍
const (
	defaultMaxCost     = 10000
	defaultNumCounters = 10 * defaultMaxCost
	defaultBufferItems = 64
	defaultTTL         = "1m"
)

// Config XCache 配置段，xprocessor.Deduplicator 的每个实例按此创建独立缓存
type Config struct {
	// NumCounters 频率统计的计数器数量
	NumCounters int64 `mapstructure:"NumCounters"`

	// MaxCost 超过后按 TinyLFU 淘汰，去重因此可能漏判
	MaxCost int64 `mapstructure:"MaxCost"`

	BufferItems int64 `mapstructure:"BufferItems"`

	// DefaultTTL 调用方 ttl<=0 时使用，支持 "1d"
	DefaultTTL string `mapstructure:"DefaultTTL"`
}

func configMergeDefault(c *Config) *Config {
	if c == nil {
		c = &Config{}
	}
	if c.MaxCost <= 0 {
		c.MaxCost = defaultMaxCost
	}
	if c.NumCounters <= 0 {
		c.NumCounters = 10 * c.MaxCost
	}
	if c.BufferItems <= 0 {
		c.BufferItems = defaultBufferItems
	}
	if c.DefaultTTL == "" {
		c.DefaultTTL = defaultTTL
	}
	return c
}
