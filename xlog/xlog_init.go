package xlog

import (
	"io"
	"os"
	"path"
	"runtime"
	"time"

	"github.com/xiaoshicae/xframe/xconfig"
	"github.com/xiaoshicae/xframe/xerror"
	"github.com/xiaoshicae/xframe/xhook"
	"github.com/xiaoshicae/xframe/xutil"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"
	logwriter "github.com/sirupsen/logrus/hooks/writer"
)

var findFrameIgnoreFileNames = []string{
	"/xlog/util.go",
	"/xlog/xlog_hook.go",
}

var pid = os.Getpid

func init() {
	xhook.BeforeStart(initXLog, xhook.Order(2))
}

func initXLog() error {
	c := &Config{}
	if err := xconfig.UnmarshalConfig(XLogConfigKey, c); err != nil {
		return xerror.New("xlog", "init", err)
	}
	c = configMergeDefault(c)
	xutil.InfoIfEnableDebug("XFrame initXLog got config: %s", xutil.ToJsonString(c))
	return initXLogByConfig(c)
}

func initXLogByConfig(c *Config) error {
	fileWriter, err := newFileWriter(c)
	if err != nil {
		return err
	}
	xhook.BeforeStop(fileWriter.Close)

	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		xutil.WarnIfEnableDebug("XFrame initXLog unknown level [%s], use info", c.Level)
		level = logrus.InfoLevel
	}

	// std logger 本身不输出，文件与控制台都由 hook 负责
	logrus.SetOutput(io.Discard)
	logrus.SetFormatter(newFormatter(c.Timezone))
	logrus.AddHook(newFieldHook(xconfig.GetServerName(), c, os.Stdout))
	logrus.AddHook(&logwriter.Hook{Writer: fileWriter, LogLevels: enabledLevels(level)})
	logrus.SetLevel(level)
	return nil
}

func newFileWriter(c *Config) (*rotatelogs.RotateLogs, error) {
	if !xutil.DirExist(c.Path) {
		if err := os.MkdirAll(c.Path, os.ModePerm); err != nil {
			return nil, xerror.Newf("xlog", "init", "mkdir [%s] failed, %w", c.Path, err)
		}
	}
	linkName := path.Join(c.Path, c.Name+".log")
	w, err := rotatelogs.New(
		linkName+".%Y%m%d",
		rotatelogs.WithLinkName(linkName),
		rotatelogs.WithMaxAge(xutil.ToDuration(c.MaxAge)),
		rotatelogs.WithRotationTime(xutil.ToDuration(c.RotateTime)),
	)
	if err != nil {
		return nil, xerror.Newf("xlog", "init", "rotatelogs [%s] failed, %w", linkName, err)
	}
	return w, nil
}

func newFormatter(timezone string) logrus.Formatter {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		xutil.WarnIfEnableDebug("XFrame initXLog load timezone [%s] failed, use Local, err=[%v]", timezone, err)
		loc = time.Local
	}
	return zoneFormatter{
		Formatter: &logrus.JSONFormatter{
			TimestampFormat:  consoleTimeLayout,
			CallerPrettyfier: func(*runtime.Frame) (string, string) { return "", "" },
		},
		loc: loc,
	}
}

// enabledLevels 返回不低于 l 的全部级别，logrus.AllLevels 按严重程度降序排列
func enabledLevels(l logrus.Level) []logrus.Level {
	return append([]logrus.Level(nil), logrus.AllLevels[:l+1]...)
}
