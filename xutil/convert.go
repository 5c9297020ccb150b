package xutil

import (
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// ToPtr 获取值的指针
func ToPtr[T any](t T) *T {
	return &t
}

// GetOrDefault v 为零值时返回 defaultV
func GetOrDefault[T any](v T, defaultV T) T {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.IsZero() {
		return defaultV
	}
	return v
}

// ToDuration 转换为 time.Duration，字符串额外支持天单位，如 "1d"、"2d12h"
func ToDuration(i any) time.Duration {
	switch d := i.(type) {
	case nil:
		return 0
	case string:
		return strToDuration(d)
	case *string:
		if d == nil {
			return 0
		}
		return strToDuration(*d)
	default:
		return cast.ToDuration(i)
	}
}

func strToDuration(duration string) time.Duration {
	day, left, found := strings.Cut(duration, "d")
	if !found {
		return cast.ToDuration(duration)
	}
	days, _ := cast.ToIntE(day)
	return time.Duration(days)*24*time.Hour + cast.ToDuration(left)
}
