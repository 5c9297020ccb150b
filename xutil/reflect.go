package xutil

import (
	"reflect"
	"runtime"
	"strings"
)

// GetFuncName 获取函数名称，非函数返回空字符串
func GetFuncName(fc any) string {
	_, _, name := GetFuncInfo(fc)
	return name
}

// GetFuncInfo 获取函数的源文件、行号和名称（不含包路径）
func GetFuncInfo(fc any) (file string, line int, name string) {
	if fc == nil {
		return "", 0, ""
	}
	f := reflect.ValueOf(fc)
	if f.Kind() != reflect.Func || f.IsNil() {
		return "", 0, ""
	}

	fn := runtime.FuncForPC(f.Pointer())
	if fn == nil {
		return "", 0, ""
	}

	fullName := fn.Name()
	if idx := strings.LastIndex(fullName, "/"); idx != -1 {
		fullName = fullName[idx+1:]
	}
	_, after, found := strings.Cut(fullName, ".")
	if !found {
		return "", 0, ""
	}

	file, line = fn.FileLine(f.Pointer())
	return file, line, after
}

// TypeName 返回值的类型名，指针类型带 * 前缀，用作处理器的默认名称
func TypeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	t := reflect.TypeOf(v)
	prefix := ""
	for t.Kind() == reflect.Ptr {
		prefix += "*"
		t = t.Elem()
	}
	name := t.Name()
	if i := strings.IndexByte(name, '['); i != -1 { // 去掉泛型实参
		name = name[:i]
	}
	if name == "" {
		name = t.Kind().String()
	}
	return prefix + name
}
