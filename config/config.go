// Package config loads the server's configuration. Values are applied in
// order: `default` tags, configuration files, then MODKIT_ environment
// variables. The result is validated before it is returned.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/GoCodeAlone/modkit/feeders"
	"github.com/go-playground/validator/v10"
	golobby "github.com/golobby/config/v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "MODKIT"

var (
	ErrConfigNil        = errors.New("config is nil")
	ErrConfigNotPointer = errors.New("config must be a pointer to a struct")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrNoConfigFiles    = errors.New("no configuration files to watch")
)

// AppConfig is the root configuration of cmd/server.
type AppConfig struct {
	Production bool            `yaml:"production" toml:"production" json:"production" env:"PRODUCTION"`
	HTTP       HTTPConfig      `yaml:"http" toml:"http" json:"http" env:"HTTP"`
	Database   DatabaseConfig  `yaml:"database" toml:"database" json:"database" env:"DATABASE"`
	Log        LogConfig       `yaml:"log" toml:"log" json:"log" env:"LOG"`
	Lang       LangConfig      `yaml:"lang" toml:"lang" json:"lang" env:"LANG"`
	Container  ContainerConfig `yaml:"container" toml:"container" json:"container" env:"CONTAINER"`
	Health     HealthConfig    `yaml:"health" toml:"health" json:"health" env:"HEALTH"`
}

// HTTPConfig configures the listener and the router middleware.
type HTTPConfig struct {
	Addr             string        `yaml:"addr" toml:"addr" json:"addr" env:"ADDR" default:":3000" validate:"required"`
	BasePath         string        `yaml:"base_path" toml:"base_path" json:"base_path" env:"BASE_PATH" default:"/api"`
	Timeout          time.Duration `yaml:"timeout" toml:"timeout" json:"timeout" env:"TIMEOUT" default:"30s" validate:"gt=0"`
	AllowedOrigins   []string      `yaml:"allowed_origins" toml:"allowed_origins" json:"allowed_origins" env:"ALLOWED_ORIGINS" default:"*"`
	AllowedMethods   []string      `yaml:"allowed_methods" toml:"allowed_methods" json:"allowed_methods" env:"ALLOWED_METHODS" default:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string      `yaml:"allowed_headers" toml:"allowed_headers" json:"allowed_headers" env:"ALLOWED_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	AllowCredentials bool          `yaml:"allow_credentials" toml:"allow_credentials" json:"allow_credentials" env:"ALLOW_CREDENTIALS"`
	MaxAge           int           `yaml:"max_age" toml:"max_age" json:"max_age" env:"MAX_AGE" default:"300" validate:"gte=0"`
	ReadTimeout      time.Duration `yaml:"read_timeout" toml:"read_timeout" json:"read_timeout" env:"READ_TIMEOUT" default:"15s" validate:"gte=0"`
	WriteTimeout     time.Duration `yaml:"write_timeout" toml:"write_timeout" json:"write_timeout" env:"WRITE_TIMEOUT" default:"60s" validate:"gte=0"`
	IdleTimeout      time.Duration `yaml:"idle_timeout" toml:"idle_timeout" json:"idle_timeout" env:"IDLE_TIMEOUT" default:"60s" validate:"gte=0"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout" json:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" default:"30s" validate:"gt=0"`
}

// DatabaseConfig selects the user repository backend.
type DatabaseConfig struct {
	Driver       string `yaml:"driver" toml:"driver" json:"driver" env:"DRIVER" default:"memory" validate:"oneof=memory postgres"`
	DSN          string `yaml:"dsn" toml:"dsn" json:"dsn" env:"DSN" validate:"required_if=Driver postgres"`
	MaxOpenConns int    `yaml:"max_open_conns" toml:"max_open_conns" json:"max_open_conns" env:"MAX_OPEN_CONNS" default:"10" validate:"gte=1"`
}

type LogConfig struct {
	Level string `yaml:"level" toml:"level" json:"level" env:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
}

type LangConfig struct {
	Default string `yaml:"default" toml:"default" json:"default" env:"DEFAULT" default:"vi" validate:"oneof=en vi"`
}

type ContainerConfig struct {
	// EagerSingletons builds every singleton during bootstrap instead of on
	// first use.
	EagerSingletons bool `yaml:"eager_singletons" toml:"eager_singletons" json:"eager_singletons" env:"EAGER_SINGLETONS"`
}

type HealthConfig struct {
	// Schedule runs the health checks in the background, as a cron spec or
	// "@every <duration>". Set it to "" in a file to disable the monitor.
	Schedule string `yaml:"schedule" toml:"schedule" json:"schedule" env:"SCHEDULE" default:"@every 30s"`
}

// Default returns an AppConfig with only the default tags applied.
func Default() *AppConfig {
	cfg := &AppConfig{}
	if err := ApplyDefaults(cfg); err != nil {
		panic(err)
	}
	return cfg
}

// Load builds an AppConfig from defaults, the given files in order and the
// environment. Files are matched to feeders by extension.
func Load(paths ...string) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := ApplyDefaults(cfg); err != nil {
		return nil, err
	}

	builder := golobby.New()
	for _, path := range paths {
		f, err := feeders.ForFile(path)
		if err != nil {
			return nil, err
		}
		if dotenv, ok := f.(feeders.DotEnvFeeder); ok {
			dotenv.Prefix = EnvPrefix
			f = dotenv
		}
		builder.AddFeeder(f)
	}
	builder.AddFeeder(feeders.NewEnvFeeder(EnvPrefix))
	builder.AddStruct(cfg)
	if err := builder.Feed(); err != nil {
		return nil, fmt.Errorf("feeding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the `validate` tags of every section.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q (value %v)", ErrInvalidConfig, fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ApplyDefaults sets every zero field carrying a `default` tag. Nested
// structs are walked; nil pointers are left alone.
func ApplyDefaults(cfg any) error {
	if cfg == nil {
		return ErrConfigNil
	}
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return ErrConfigNotPointer
	}
	return applyDefaults(v.Elem())
}

func applyDefaults(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}
		switch {
		case field.Kind() == reflect.Struct:
			if err := applyDefaults(field); err != nil {
				return err
			}
			continue
		case field.Kind() == reflect.Pointer && field.Type().Elem().Kind() == reflect.Struct:
			if !field.IsNil() {
				if err := applyDefaults(field.Elem()); err != nil {
					return err
				}
			}
			continue
		}

		def, ok := t.Field(i).Tag.Lookup("default")
		if !ok || !field.IsZero() {
			continue
		}
		if err := feeders.SetField(field, def); err != nil {
			return fmt.Errorf("default for %s.%s: %w", t.Name(), t.Field(i).Name, err)
		}
	}
	return nil
}
