package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrConfiguration marks an invalid startup configuration. Fatal at startup.
var ErrConfiguration = errors.New("configuration error")

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Gate     GateConfig     `mapstructure:"gate"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Camera   CameraConfig   `mapstructure:"camera"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type StorageConfig struct {
	// Driver is "postgres" or "memory".
	Driver string `mapstructure:"driver"`
}

type PipelineConfig struct {
	CooldownSeconds     int     `mapstructure:"cooldown_seconds"`
	MinPlateLength      int     `mapstructure:"min_plate_length"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
	IoUThreshold        float64 `mapstructure:"iou_threshold"`
}

type GateConfig struct {
	// URL of the gate controller; empty disables gate actuation.
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type AuthConfig struct {
	AdminUsername string        `mapstructure:"admin_username"`
	AdminPassword string        `mapstructure:"admin_password"`
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
}

type FeedConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	BootstrapServers string `mapstructure:"bootstrap_servers"`
	Topic            string `mapstructure:"topic"`
}

type CameraConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	URL           string `mapstructure:"url"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	MinConfidence int    `mapstructure:"min_confidence"`
}

// Load reads the config file (optional) and GATE_-prefixed environment
// variables, applies defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("GATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: read config file: %v", ErrConfiguration, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("storage.driver", "postgres")
	v.SetDefault("database.dsn", "")

	v.SetDefault("pipeline.cooldown_seconds", 20)
	v.SetDefault("pipeline.min_plate_length", 5)
	v.SetDefault("pipeline.confidence_threshold", 0.3)
	v.SetDefault("pipeline.iou_threshold", 0.5)

	v.SetDefault("gate.url", "")
	v.SetDefault("gate.timeout", "3s")

	v.SetDefault("auth.admin_username", "")
	v.SetDefault("auth.admin_password", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "12h")

	v.SetDefault("feed.enabled", false)
	v.SetDefault("feed.bootstrap_servers", "")
	v.SetDefault("feed.topic", "access-events")

	v.SetDefault("camera.enabled", false)
	v.SetDefault("camera.url", "")
	v.SetDefault("camera.username", "")
	v.SetDefault("camera.password", "")
	v.SetDefault("camera.min_confidence", 30)
}

// Validate checks invariants once at startup. Any violation is fatal.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port must be in 1..65535", ErrConfiguration)
	}
	if c.Storage.Driver != "postgres" && c.Storage.Driver != "memory" {
		return fmt.Errorf("%w: storage.driver must be postgres or memory", ErrConfiguration)
	}
	if c.Storage.Driver == "postgres" && c.Database.DSN == "" {
		return fmt.Errorf("%w: database.dsn is required for the postgres driver", ErrConfiguration)
	}
	if c.Pipeline.CooldownSeconds <= 0 {
		return fmt.Errorf("%w: pipeline.cooldown_seconds must be positive", ErrConfiguration)
	}
	if c.Pipeline.MinPlateLength <= 0 {
		return fmt.Errorf("%w: pipeline.min_plate_length must be positive", ErrConfiguration)
	}
	if c.Pipeline.ConfidenceThreshold < 0 || c.Pipeline.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: pipeline.confidence_threshold must be in [0,1]", ErrConfiguration)
	}
	if c.Pipeline.IoUThreshold <= 0 || c.Pipeline.IoUThreshold > 1 {
		return fmt.Errorf("%w: pipeline.iou_threshold must be in (0,1]", ErrConfiguration)
	}
	if c.Gate.URL != "" && c.Gate.Timeout <= 0 {
		return fmt.Errorf("%w: gate.timeout must be positive", ErrConfiguration)
	}
	if c.Auth.AdminUsername == "" || c.Auth.AdminPassword == "" {
		return fmt.Errorf("%w: auth.admin_username and auth.admin_password are required", ErrConfiguration)
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("%w: auth.jwt_secret must be at least 32 characters", ErrConfiguration)
	}
	if c.Feed.Enabled && c.Feed.BootstrapServers == "" {
		return fmt.Errorf("%w: feed.bootstrap_servers is required when the feed is enabled", ErrConfiguration)
	}
	if c.Camera.Enabled && c.Camera.URL == "" {
		return fmt.Errorf("%w: camera.url is required when the camera source is enabled", ErrConfiguration)
	}
	return nil
}

// Cooldown returns the cooldown window as a duration.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Pipeline.CooldownSeconds) * time.Second
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
