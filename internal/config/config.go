// Package config loads service configuration from defaults, an optional
// YAML file and BGEVAL_* environment variables, in increasing precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	Engine EngineConfig `mapstructure:"engine"`
	Pool   PoolConfig   `mapstructure:"pool"`
	Log    LogConfig    `mapstructure:"log"`
}

// EngineConfig tunes the evaluator.
type EngineConfig struct {
	CacheSize   uint32 `mapstructure:"cache_size"`
	Parallelism int    `mapstructure:"parallelism"`
	DefaultPly  int    `mapstructure:"default_ply"`
}

// PoolConfig bounds request concurrency. Fast covers evaluate, move and
// cube requests; Slow covers rollouts.
type PoolConfig struct {
	Fast int64 `mapstructure:"fast"`
	Slow int64 `mapstructure:"slow"`
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Load reads the configuration. file may be empty; environment variables
// use the BGEVAL prefix with underscores, e.g. BGEVAL_PORT,
// BGEVAL_POOL_FAST.
func Load(file string) (*Config, error) {
	v := viper.New()

	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("shutdown_timeout", 10*time.Second)
	v.SetDefault("engine.cache_size", uint32(1<<19))
	v.SetDefault("engine.parallelism", 4)
	v.SetDefault("engine.default_ply", 1)
	v.SetDefault("pool.fast", int64(32))
	v.SetDefault("pool.slow", int64(2))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", true)

	v.SetEnvPrefix("BGEVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Pool.Fast < 1 || c.Pool.Slow < 1 {
		return fmt.Errorf("pool sizes must be positive")
	}
	if c.Engine.Parallelism < 1 {
		return fmt.Errorf("engine parallelism must be positive")
	}
	if c.Engine.DefaultPly < 0 || c.Engine.DefaultPly > 2 {
		return fmt.Errorf("default ply %d out of range", c.Engine.DefaultPly)
	}
	return nil
}

// Addr is the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
