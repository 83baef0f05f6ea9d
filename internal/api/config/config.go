package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg
func LoadConfig() error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")

	// 环境变量覆盖，例如 HERALD_REDIS_ADDR
	v.SetEnvPrefix("HERALD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Cfg = &cfg

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("auth.provider", "local")
	v.SetDefault("auth.remote_timeout", 3)
	v.SetDefault("ws.path", "/notify/ws")
	v.SetDefault("ws.handshake_timeout", 5)
	v.SetDefault("ws.write_timeout", 10)
	v.SetDefault("ws.read_limit", 512)
	v.SetDefault("ws.idle_timeout", 90)
	v.SetDefault("ws.evict_idle", false)
	v.SetDefault("ws.sweep_spec", "@every 1m")
	v.SetDefault("notification.store", "mongo")
	v.SetDefault("notification.write_timeout", 2)
	v.SetDefault("logstash.index", "logstash-herald")
}
