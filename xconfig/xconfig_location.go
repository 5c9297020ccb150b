package xconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/xiaoshicae/xframe/xutil"

	"github.com/spf13/viper"
)

const (
	configLocationArgKey = "server.config.location"
	configLocationEnvKey = "SERVER_CONFIG_LOCATION"

	profilesActiveArgKey    = "server.profiles.active"
	profilesActiveEnvKey    = "SERVER_PROFILES_ACTIVE"
	profilesActiveConfigKey = "Server.Profiles.Active"
)

// configLocationPaths 未显式指定时依次探测的配置文件
var configLocationPaths = []string{
	"./application.yml",
	"./application.yaml",
	"./conf/application.yml",
	"./conf/application.yaml",
	"./config/application.yml",
	"./config/application.yaml",
}

// detectConfigLocation 优先级：启动参数 > 环境变量 > 默认路径
func detectConfigLocation() string {
	if loc, _ := xutil.GetConfigFromArgs(configLocationArgKey); loc != "" {
		xutil.InfoIfEnableDebug("XFrame detect config location [%s] from arg", loc)
		return loc
	}
	if loc := os.Getenv(configLocationEnvKey); loc != "" {
		xutil.InfoIfEnableDebug("XFrame detect config location [%s] from env", loc)
		return loc
	}
	for _, loc := range configLocationPaths {
		if xutil.FileExist(loc) {
			xutil.InfoIfEnableDebug("XFrame detect config location [%s] from current dir", loc)
			return loc
		}
	}
	return ""
}

// detectProfilesActive 优先级：启动参数 > 环境变量 > 基础配置文件
func detectProfilesActive(vp *viper.Viper) string {
	if pa, _ := xutil.GetConfigFromArgs(profilesActiveArgKey); pa != "" {
		return pa
	}
	if pa := os.Getenv(profilesActiveEnvKey); pa != "" {
		return pa
	}
	if vp != nil {
		return vp.GetString(profilesActiveConfigKey)
	}
	return ""
}

// toProfilesActiveConfigLocation conf/application.yml + dev -> conf/application-dev.yml
func toProfilesActiveConfigLocation(configLocation string, pa string) (string, error) {
	idx := strings.LastIndex(configLocation, ".")
	if idx <= 0 || idx == len(configLocation)-1 {
		return "", fmt.Errorf("config file name [%s] is invalid", configLocation)
	}
	return fmt.Sprintf("%s-%s%s", configLocation[:idx], pa, configLocation[idx:]), nil
}
