package xlog

import (
	"context"
	"fmt"
	"io"
	"path"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/xiaoshicae/xframe/xutil"

	"github.com/sirupsen/logrus"
)

const consoleTimeLayout = "2006-01-02 15:04:05.999"

// fieldHook 为每条日志补充进程、调用位置、trace 与 ctx 字段
// console 不为 nil 时同时打印到控制台
type fieldHook struct {
	serverName     string
	pid            string
	ignoreSuffixes []string
	console        *consolePrinter
}

func newFieldHook(serverName string, c *Config, w io.Writer) *fieldHook {
	h := &fieldHook{
		serverName:     serverName,
		pid:            strconv.Itoa(pid()),
		ignoreSuffixes: findFrameIgnoreFileNames,
	}
	if c.Console {
		h.console = &consolePrinter{w: w, raw: c.ConsoleFormatIsRaw, fields: c.ConsoleFields}
	}
	return h
}

func (h *fieldHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fieldHook) Fire(entry *logrus.Entry) error {
	data := entry.Data
	if _, ok := data["servername"]; !ok {
		data["servername"] = h.serverName
	}
	data["pid"] = h.pid

	caller := entry.Caller
	if caller == nil {
		caller = xutil.GetLogCaller(0, h.ignoreSuffixes)
	}
	if caller != nil {
		data["filename"] = path.Base(caller.File)
		data["lineid"] = strconv.Itoa(caller.Line)
	}

	data["traceid"] = xutil.GetTraceIDFromCtx(entry.Context)
	data["spanid"] = xutil.GetSpanIDFromCtx(entry.Context)
	for k, v := range getKVContainerFromCtx(entry.Context) {
		data[k] = v
	}

	if h.console == nil {
		return nil
	}
	return h.console.print(entry, caller)
}

// consolePrinter 打印格式: LEVEL[time] file:line traceid [k=v ...] message
type consolePrinter struct {
	w      io.Writer
	raw    bool
	fields []string
}

func (p *consolePrinter) print(entry *logrus.Entry, caller *runtime.Frame) error {
	if p.raw {
		line, err := entry.Bytes()
		if err != nil {
			return err
		}
		_, err = p.w.Write(line)
		return err
	}

	var b strings.Builder
	b.Grow(len(entry.Message) + 128)
	fmt.Fprintf(&b, "\x1b[%dm%s\x1b[0m[%s] \x1b[34m%s\x1b[0m %v",
		levelColor(entry.Level),
		strings.ToUpper(entry.Level.String()),
		entry.Time.Format(consoleTimeLayout),
		callerPretty(caller),
		entry.Data["traceid"],
	)
	if kv := p.selectedFields(entry.Data); kv != "" {
		b.WriteString(" [")
		b.WriteString(kv)
		b.WriteByte(']')
	}
	b.WriteByte(' ')
	b.WriteString(entry.Message)
	b.WriteByte('\n')

	_, err := io.WriteString(p.w, b.String())
	return err
}

func (p *consolePrinter) selectedFields(data logrus.Fields) string {
	parts := make([]string, 0, len(p.fields))
	for _, k := range p.fields {
		if v, ok := data[k]; ok {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
	}
	return strings.Join(parts, " ")
}

// zoneFormatter 按配置时区格式化时间，在 entry 副本上修改
type zoneFormatter struct {
	logrus.Formatter
	loc *time.Location
}

func (z zoneFormatter) Format(e *logrus.Entry) ([]byte, error) {
	cp := *e
	if cp.Context == nil {
		cp.Context = context.Background()
	}
	if z.loc != nil {
		cp.Time = cp.Time.In(z.loc)
	}
	return z.Formatter.Format(&cp)
}

func levelColor(l logrus.Level) int {
	switch {
	case l <= logrus.ErrorLevel:
		return 31
	case l == logrus.WarnLevel:
		return 33
	case l == logrus.InfoLevel:
		return 36
	default:
		return 37
	}
}

func callerPretty(f *runtime.Frame) string {
	if f == nil {
		return "???"
	}
	return path.Base(f.File) + ":" + strconv.Itoa(f.Line)
}
