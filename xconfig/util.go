package xconfig

import (
	"errors"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/xiaoshicae/xframe/xerror"
	"github.com/xiaoshicae/xframe/xutil"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	serverNameConfigKey    = ServerConfigKey + ".Name"
	serverVersionConfigKey = ServerConfigKey + ".Version"

	defaultServerName    = "unknown.unknown.unknown"
	defaultServerVersion = "v0.0.1"
)

var (
	errEmptyKey = errors.New("key is empty")
	errNotPtr   = errors.New("conf must be a non-nil pointer")
)

// current 当前生效的配置，Load 整体替换
var current atomic.Pointer[viper.Viper]

// UnmarshalConfig 将 key 对应的配置段反序列化到 conf，conf 必须为非 nil 指针
func UnmarshalConfig(key string, conf any) error {
	if key == "" {
		return xerror.New("xconfig", "unmarshal", errEmptyKey)
	}
	if rv := reflect.ValueOf(conf); rv.Kind() != reflect.Pointer || rv.IsNil() {
		return xerror.Newf("xconfig", "unmarshal", "key=[%s], %w", key, errNotPtr)
	}
	if err := getViperConfig().UnmarshalKey(key, conf); err != nil {
		return xerror.Newf("xconfig", "unmarshal", "key=[%s], %w", key, err)
	}
	return nil
}

// GetConfig 原始配置值，不存在返回 nil
func GetConfig(key string) any {
	return getViperConfig().Get(key)
}

func ContainKey(key string) bool {
	return getViperConfig().IsSet(key)
}

func GetString(key string) string {
	return cast.ToString(GetConfig(key))
}

func GetStringSlice(key string) []string {
	return cast.ToStringSlice(GetConfig(key))
}

func GetBool(key string) bool {
	return cast.ToBool(GetConfig(key))
}

func GetInt(key string) int {
	return cast.ToInt(GetConfig(key))
}

// GetDuration 额外支持天单位，如 "1d"
func GetDuration(key string) time.Duration {
	return xutil.ToDuration(GetConfig(key))
}

// GetServerName 未配置 Server.Name 时返回默认值，xlog 与 xtrace 使用
func GetServerName() string {
	return xutil.GetOrDefault(GetString(serverNameConfigKey), defaultServerName)
}

func GetServerVersion() string {
	return xutil.GetOrDefault(GetString(serverVersionConfigKey), defaultServerVersion)
}

func getViperConfig() *viper.Viper {
	if vp := current.Load(); vp != nil {
		return vp
	}
	return viper.New()
}

func setViperConfig(vp *viper.Viper) {
	current.Store(vp)
}
