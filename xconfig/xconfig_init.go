package xconfig

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/xiaoshicae/xframe/xerror"
	"github.com/xiaoshicae/xframe/xhook"
	"github.com/xiaoshicae/xframe/xutil"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const dotEnvFileName = ".env"

// ${VAR} 或 ${VAR:-default}
var envPlaceholderRegex = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func init() {
	xhook.BeforeStart(initXConfig, xhook.Order(1))
}

func initXConfig() error {
	configLocation := detectConfigLocation()
	if configLocation == "" {
		xutil.WarnIfEnableDebug("XFrame initXConfig config file location not found, use default config")
		return nil
	}
	return Load(configLocation)
}

// Load 从指定文件加载配置并替换当前配置，一般由 BeforeStart hook 自动调用
func Load(configLocation string) error {
	if err := loadDotEnvIfExist(configLocation); err != nil {
		return xerror.Newf("xconfig", "load", "load .env failed, %w", err)
	}

	vp, err := parseConfig(configLocation)
	if err != nil {
		return xerror.New("xconfig", "load", err)
	}

	if xutil.EnableDebug() {
		fmt.Printf("\n********** XFrame load config **********\n%s\n\n", xutil.ToJsonStringIndent(vp.AllSettings()))
	}

	setViperConfig(vp)
	return nil
}

func loadDotEnvIfExist(configLocation string) error {
	dotEnvFile := path.Join(path.Dir(configLocation), dotEnvFileName)
	if xutil.FileExist(dotEnvFile) {
		return godotenv.Load(dotEnvFile)
	}
	return nil
}

func parseConfig(configLocation string) (*viper.Viper, error) {
	vp, err := loadLocalConfig(configLocation)
	if err != nil {
		return nil, fmt.Errorf("load config file [%s] failed, err=[%v]", configLocation, err)
	}

	if pa := detectProfilesActive(vp); pa != "" {
		envConfigLocation, err := toProfilesActiveConfigLocation(configLocation, pa)
		if err != nil {
			return nil, err
		}
		envVp, err := loadLocalConfig(envConfigLocation)
		if err != nil {
			return nil, fmt.Errorf("load profiles config file [%s] failed, err=[%v]", envConfigLocation, err)
		}
		// 环境配置覆盖基础配置
		if err := vp.MergeConfigMap(envVp.AllSettings()); err != nil {
			return nil, fmt.Errorf("merge profiles config failed, err=[%v]", err)
		}
	}

	if vp.GetString(serverNameConfigKey) == "" {
		xutil.WarnIfEnableDebug("config Server.Name should not be empty, it is used by xlog and xtrace")
	}

	expandEnvPlaceholders(vp)
	return vp, nil
}

func loadLocalConfig(configLocation string) (*viper.Viper, error) {
	vp := viper.New()
	vp.SetConfigFile(configLocation)
	if err := vp.ReadInConfig(); err != nil {
		return nil, err
	}
	return vp, nil
}

// expandEnvPlaceholders 展开所有字符串配置中的环境变量占位符
// 直接 Set 子 key 会让 UnmarshalKey(父 key) 只看到被覆盖的部分，因此改写 AllSettings 后整体回填
func expandEnvPlaceholders(vp *viper.Viper) {
	expansions := make(map[string]string)
	for _, key := range vp.AllKeys() {
		val, ok := vp.Get(key).(string)
		if !ok || !strings.Contains(val, "${") {
			continue
		}
		expanded := envPlaceholderRegex.ReplaceAllStringFunc(val, func(match string) string {
			m := envPlaceholderRegex.FindStringSubmatch(match)
			if len(m) < 2 {
				return match
			}
			if envVal := os.Getenv(m[1]); envVal != "" {
				return envVal
			}
			if len(m) >= 3 {
				return m[2]
			}
			return ""
		})
		if expanded != val {
			expansions[key] = expanded
		}
	}
	if len(expansions) == 0 {
		return
	}

	allSettings := vp.AllSettings()
	for key, val := range expansions {
		setNestedValue(allSettings, key, val)
	}
	for k, v := range allSettings {
		vp.Set(k, v)
	}
}

func setNestedValue(m map[string]any, key string, value any) {
	keys := strings.Split(key, ".")
	current := m
	for _, k := range keys[:len(keys)-1] {
		next, ok := current[k].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[k] = next
		}
		current = next
	}
	current[keys[len(keys)-1]] = value
}
