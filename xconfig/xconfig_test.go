package xconfig

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/bytedance/mockey"
	. "github.com/smartystreets/goconvey/convey"
)

const baseYaml = `
Server:
  Name: xframe.demo.ticker
XPipeline:
  ChannelCapacity: 8
  DisableMonitor: true
XLog:
  Path: ${XFRAME_TEST_LOG_PATH:-./log}
  Level: ${XFRAME_TEST_LOG_LEVEL}
`

const devYaml = `
XPipeline:
  ChannelCapacity: 4
`

func writeFile(t *testing.T, dir, name, content string) string {
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func restoreConfig() {
	setViperConfig(nil)
}

func TestLoad(t *testing.T) {
	PatchConvey("TestLoad", t, func() {
		defer restoreConfig()
		defer os.Unsetenv(profilesActiveEnvKey)
		defer os.Unsetenv("XFRAME_TEST_LOG_LEVEL")

		dir := t.TempDir()
		location := writeFile(t, dir, "application.yml", baseYaml)
		writeFile(t, dir, "application-dev.yml", devYaml)
		writeFile(t, dir, ".env", "XFRAME_TEST_LOG_LEVEL=debug\n")

		PatchConvey("基础配置 + .env + 占位符", func() {
			So(Load(location), ShouldBeNil)
			So(GetServerName(), ShouldEqual, "xframe.demo.ticker")
			So(GetServerVersion(), ShouldEqual, defaultServerVersion)
			So(GetInt("XPipeline.ChannelCapacity"), ShouldEqual, 8)
			So(GetBool("XPipeline.DisableMonitor"), ShouldBeTrue)
			So(GetString("XLog.Level"), ShouldEqual, "debug")
			So(GetString("XLog.Path"), ShouldEqual, "./log")
			So(ContainKey("XLog"), ShouldBeTrue)

			var c struct {
				ChannelCapacity int  `mapstructure:"ChannelCapacity"`
				DisableMonitor  bool `mapstructure:"DisableMonitor"`
			}
			So(UnmarshalConfig("XPipeline", &c), ShouldBeNil)
			So(c.ChannelCapacity, ShouldEqual, 8)
			So(c.DisableMonitor, ShouldBeTrue)
		})

		PatchConvey("profiles 覆盖", func() {
			_ = os.Setenv(profilesActiveEnvKey, "dev")
			So(Load(location), ShouldBeNil)
			So(GetInt("XPipeline.ChannelCapacity"), ShouldEqual, 4)
			So(GetBool("XPipeline.DisableMonitor"), ShouldBeTrue)
		})

		PatchConvey("文件不存在", func() {
			So(Load(filepath.Join(dir, "missing.yml")), ShouldNotBeNil)
		})
	})
}

func TestDefaultsWithoutConfig(t *testing.T) {
	PatchConvey("TestDefaultsWithoutConfig", t, func() {
		restoreConfig()
		So(GetServerName(), ShouldEqual, defaultServerName)
		So(GetServerVersion(), ShouldEqual, defaultServerVersion)
		So(ContainKey("XPipeline"), ShouldBeFalse)
	})
}

func TestCheckParam(t *testing.T) {
	PatchConvey("TestCheckParam", t, func() {
		var c struct{}
		So(UnmarshalConfig("", &c), ShouldNotBeNil)
		So(UnmarshalConfig("k", nil), ShouldNotBeNil)
		So(UnmarshalConfig("k", c), ShouldNotBeNil)
		So(UnmarshalConfig("k", &c), ShouldBeNil)
	})
}

func TestToProfilesActiveConfigLocation(t *testing.T) {
	PatchConvey("TestToProfilesActiveConfigLocation", t, func() {
		loc, err := toProfilesActiveConfigLocation("./conf/application.yml", "prod")
		So(err, ShouldBeNil)
		So(loc, ShouldEqual, "./conf/application-prod.yml")

		_, err = toProfilesActiveConfigLocation("application", "prod")
		So(err, ShouldNotBeNil)
	})
}
