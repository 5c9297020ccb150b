package xutil

import "encoding/json"

// ToJsonString 序列化为紧凑 json，失败时返回空串
func ToJsonString(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

// ToJsonStringIndent 序列化为带缩进的 json，用于调试打印配置
func ToJsonStringIndent(v any) string {
	b, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		ErrorIfEnableDebug("ToJsonStringIndent failed, err=[%v]", err)
		return ""
	}
	return string(b)
}
