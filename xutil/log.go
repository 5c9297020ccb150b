package xutil

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// 框架内部调试日志，只打印到标准输出，由 XFRAME_ENABLE_DEBUG 控制

const (
	currentFilePath        = "/xutil/log.go"
	maximumCallerDepth int = 25
	minimumCallerDepth int = 5
)

var (
	logger = newDebugLogger()

	ignoredCallerPatterns = compilePatterns(
		`logrus(|@v.*)/hooks\.go`,
		`logrus(|@v.*)/entry\.go`,
		`logrus(|@v.*)/logger\.go`,
		`logrus(|@v.*)/exported\.go`,
		`asm_amd64\.s`,
	)
)

func ErrorIfEnableDebug(msg string, args ...any) {
	LogIfEnableDebug(logrus.ErrorLevel, msg, args...)
}

func InfoIfEnableDebug(msg string, args ...any) {
	LogIfEnableDebug(logrus.InfoLevel, msg, args...)
}

func WarnIfEnableDebug(msg string, args ...any) {
	LogIfEnableDebug(logrus.WarnLevel, msg, args...)
}

func LogIfEnableDebug(level logrus.Level, msg string, args ...any) {
	if EnableDebug() {
		logger.Logf(level, msg, args...)
	}
}

// GetLogCaller 返回第一个不属于日志框架自身的调用栈帧
func GetLogCaller(callDepth int, suffixToIgnore []string) (frame *runtime.Frame) {
	pcs := make([]uintptr, maximumCallerDepth)
	depth := runtime.Callers(minimumCallerDepth+callDepth, pcs)
	frames := runtime.CallersFrames(pcs[:depth])
OUTER:
	for f, hasMore := frames.Next(); hasMore; f, hasMore = frames.Next() {
		frame = &f
		for _, s := range suffixToIgnore {
			if strings.HasSuffix(f.File, s) {
				continue OUTER
			}
		}
		for _, r := range ignoredCallerPatterns {
			if r.MatchString(f.File) {
				continue OUTER
			}
		}
		break
	}
	return
}

func callerPretty(_ *runtime.Frame) (string, string) {
	frame := GetLogCaller(0, []string{currentFilePath})
	if frame == nil {
		return "", " ???"
	}
	return "", fmt.Sprintf(" \x1b[34m%s:%d\x1b[0m", path.Base(frame.File), frame.Line)
}

func newDebugLogger() *logrus.Logger {
	l := logrus.New()
	l.Formatter = &logrus.TextFormatter{
		ForceColors:      true,
		FullTimestamp:    true,
		TimestampFormat:  "2006-01-02 15:04:05.999",
		CallerPrettyfier: callerPretty,
	}
	l.SetReportCaller(true)
	l.SetLevel(logrus.InfoLevel)
	l.SetOutput(os.Stdout)
	return l
}

func compilePatterns(patterns ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		res = append(res, regexp.MustCompile(p))
	}
	return res
}
