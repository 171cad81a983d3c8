package model

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type ControllerConfig struct {
	Address string
	WsPath  string
	Timeout time.Duration
}

type PushConfig struct {
	RetryInterval time.Duration
	MaxTrials     int
}

type BinRootConfig struct {
	Controller     ControllerConfig
	Push           PushConfig
	HealthAddress  string
	HealthTimeout  time.Duration
	ViewAddress    string
	TopologySize   int
	LogLevel       string
	ConfigFileUsed string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("controller.address", "http://localhost:8080")
	v.SetDefault("controller.wsPath", "/v1.0/topology/ws")
	v.SetDefault("controller.timeout", "5s")
	v.SetDefault("push.retryInterval", "1s")
	v.SetDefault("push.maxTrials", 0)
	v.SetDefault("rpc.healthAddress", "127.0.0.1:4600")
	v.SetDefault("health.timeout", "10s")
	v.SetDefault("view.address", "127.0.0.1:8090")
	v.SetDefault("topology.switches", DefaultMeshSize)
	v.SetDefault("log.level", "info")
}

func setCommonPaths(v *viper.Viper, configName string, configPaths ...string) {
	v.SetConfigName(configName)
	v.AddConfigPath("/etc/slice-console/")  // path to look for the config file in
	v.AddConfigPath("$HOME/.slice-console") // call multiple times to add many search paths
	v.AddConfigPath(".")
	v.AddConfigPath("./conf")
	for _, confPath := range configPaths {
		v.AddConfigPath(confPath)
	}
}

// ReadConfigFile loads the console configuration. cfgFile may be an explicit
// file path; when empty the "slice-console" config is searched for in the
// usual locations. A missing file is not an error: defaults apply.
func ReadConfigFile(cfgFile string, configPaths ...string) (*BinRootConfig, error) {
	v := viper.New()
	setDefaults(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		setCommonPaths(v, "slice-console", configPaths...)
	}

	err := v.ReadInConfig() // Find and read the config file
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		logrus.Warn("[Config] No configuration file found, using defaults")
	}

	cfg := &BinRootConfig{}
	cfg.Controller.Address = v.GetString("controller.address")
	cfg.Controller.WsPath = v.GetString("controller.wsPath")
	cfg.Controller.Timeout = v.GetDuration("controller.timeout")
	cfg.Push.RetryInterval = v.GetDuration("push.retryInterval")
	cfg.Push.MaxTrials = v.GetInt("push.maxTrials")
	cfg.HealthAddress = v.GetString("rpc.healthAddress")
	cfg.HealthTimeout = v.GetDuration("health.timeout")
	cfg.ViewAddress = v.GetString("view.address")
	cfg.TopologySize = v.GetInt("topology.switches")
	cfg.LogLevel = v.GetString("log.level")
	cfg.ConfigFileUsed = v.ConfigFileUsed()

	return cfg, nil
}
