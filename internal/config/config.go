// Package config loads service settings from defaults, an optional YAML
// file and INTELHUB_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "INTELHUB"

// Config represents the application configuration.
type Config struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	PGDSN           string        `mapstructure:"pg_dsn"`
	AuthSecret      string        `mapstructure:"auth_secret"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	RateBurst       int           `mapstructure:"rate_burst"`
	RatePerSec      float64       `mapstructure:"rate_per_sec"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	SeedDemo        bool          `mapstructure:"seed_demo"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("grpc_addr", ":9090")
	v.SetDefault("pg_dsn", "")
	v.SetDefault("auth_secret", "")
	v.SetDefault("token_ttl", "1h")
	v.SetDefault("rate_burst", 50)
	v.SetDefault("rate_per_sec", 20.0)
	v.SetDefault("max_body_bytes", 1<<20)
	v.SetDefault("cors_origins", []string{})
	v.SetDefault("seed_demo", false)
	v.SetDefault("shutdown_timeout", "10s")
}

// Load reads configuration. path may be empty, in which case only defaults
// and the environment apply.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.CORSOrigins = splitOrigins(cfg.CORSOrigins)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("http_addr is required"))
	}
	if c.RateBurst <= 0 {
		errs = append(errs, fmt.Errorf("rate_burst must be > 0, got %d", c.RateBurst))
	}
	if c.RatePerSec <= 0 {
		errs = append(errs, fmt.Errorf("rate_per_sec must be > 0, got %g", c.RatePerSec))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_body_bytes must be > 0, got %d", c.MaxBodyBytes))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("token_ttl must be > 0, got %s", c.TokenTTL))
	}
	if s := strings.TrimSpace(c.AuthSecret); s != "" && len(s) < 16 {
		errs = append(errs, errors.New("auth_secret must be at least 16 bytes"))
	}
	return errors.Join(errs...)
}

// AuthEnabled reports whether bearer tokens are required on /v1 routes.
func (c Config) AuthEnabled() bool { return strings.TrimSpace(c.AuthSecret) != "" }

// splitOrigins accepts both a YAML list and a comma separated env value.
func splitOrigins(in []string) []string {
	var out []string
	for _, item := range in {
		for _, o := range strings.Split(item, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}
