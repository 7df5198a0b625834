// Package config loads the service configuration with viper: a YAML file,
// overridden by VESTING_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"vesting-project/host"
)

const (
	DefaultPath = "config/config.yaml"
	EnvPrefix   = "VESTING"

	TokenModeLocal = "local"
	TokenModeHTTP  = "http"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	LevelDB LevelDBConfig `mapstructure:"leveldb"`
	Vesting VestingConfig `mapstructure:"vesting"`
	Token   TokenConfig   `mapstructure:"token"`
	Events  EventsConfig  `mapstructure:"events"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type LogConfig struct {
	AppLogFile string `mapstructure:"app_log_file"`
	Level      string `mapstructure:"level"`
}

type LevelDBConfig struct {
	Path string `mapstructure:"path"`
}

type VestingConfig struct {
	// Admin may call init. Empty lets the first caller become owner.
	Admin          string `mapstructure:"admin"`
	RequireRelease bool   `mapstructure:"require_release"`
}

type TokenConfig struct {
	Mode    string        `mapstructure:"mode"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type EventsConfig struct {
	// SQLitePath empty means events only go to the log
	SQLitePath string `mapstructure:"sqlite_path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.app_log_file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("leveldb.path", "data/vesting")
	v.SetDefault("vesting.admin", "")
	v.SetDefault("vesting.require_release", false)
	v.SetDefault("token.mode", TokenModeLocal)
	v.SetDefault("token.base_url", "")
	v.SetDefault("token.timeout", 10*time.Second)
	v.SetDefault("events.sqlite_path", "")
}

// Load reads the file at path, then applies environment overrides such as
// VESTING_SERVER_PORT or VESTING_VESTING_ADMIN. A missing file is not an
// error; defaults and environment still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Warnings lists settings that load fine but are unsafe to run with
func (c *Config) Warnings() []string {
	var out []string
	if c.Vesting.Admin == "" {
		out = append(out, "vesting.admin is empty: whoever calls init first becomes owner")
	}
	return out
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.LevelDB.Path == "" {
		return errors.New("leveldb.path is required")
	}
	if c.Vesting.Admin != "" && !host.IsIdentity(c.Vesting.Admin) {
		return fmt.Errorf("invalid vesting.admin %q", c.Vesting.Admin)
	}
	switch c.Token.Mode {
	case TokenModeLocal:
	case TokenModeHTTP:
		if c.Token.BaseURL == "" {
			return errors.New("token.base_url is required in http mode")
		}
	default:
		return fmt.Errorf("unknown token.mode %q", c.Token.Mode)
	}
	return nil
}
