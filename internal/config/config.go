// Package config provides Viper-based configuration loading for the arena
// service.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// ArenaConfig holds combat session settings.
type ArenaConfig struct {
	// EnrollmentWindow is how long a timed-enrollment session accepts joins
	// before initiative is rolled.
	EnrollmentWindow time.Duration `mapstructure:"enrollment_window"`
	// PromptTimeout bounds how long the engine waits for a human
	// adjudication or reaction choice before applying the default.
	PromptTimeout time.Duration `mapstructure:"prompt_timeout"`
	// MaxMonsters caps the quantity of one monster spawned per encounter.
	MaxMonsters int `mapstructure:"max_monsters"`
	// ReflexDCBase is the base difficulty of the reflex save; the attacking
	// monster's level is added on top.
	ReflexDCBase int `mapstructure:"reflex_dc_base"`
	// DefendACBonus is the armor class bonus the defend reaction grants for
	// one turn.
	DefendACBonus int `mapstructure:"defend_ac_bonus"`
	// DefaultDamage is rolled when an attacker has no usable damage formula.
	DefaultDamage string `mapstructure:"default_damage"`
}

// ScriptingConfig holds Lua drop-override settings.
type ScriptingConfig struct {
	// Enabled toggles the Lua hook layer entirely.
	Enabled bool `mapstructure:"enabled"`
	// ScriptDir is the directory of per-species drop override scripts.
	ScriptDir string `mapstructure:"script_dir"`
	// CallTimeout bounds a single script invocation.
	CallTimeout time.Duration `mapstructure:"call_timeout"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// ServerConfig holds process lifecycle settings.
type ServerConfig struct {
	// ShutdownTimeout bounds graceful shutdown before the process exits.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Arena     ArenaConfig     `mapstructure:"arena"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error
// describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateArena(c.Arena); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateScripting(c.Scripting); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, "server.shutdown_timeout must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateArena(a ArenaConfig) error {
	var errs []string
	if a.EnrollmentWindow < 0 {
		errs = append(errs, "arena.enrollment_window must not be negative")
	}
	if a.PromptTimeout <= 0 {
		errs = append(errs, "arena.prompt_timeout must be positive")
	}
	if a.MaxMonsters < 1 {
		errs = append(errs, fmt.Sprintf("arena.max_monsters must be >= 1, got %d", a.MaxMonsters))
	}
	if a.ReflexDCBase < 0 {
		errs = append(errs, "arena.reflex_dc_base must not be negative")
	}
	if a.DefendACBonus < 0 {
		errs = append(errs, "arena.defend_ac_bonus must not be negative")
	}
	if a.DefaultDamage == "" {
		errs = append(errs, "arena.default_damage must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateScripting(s ScriptingConfig) error {
	if s.Enabled && s.ScriptDir == "" {
		return errors.New("scripting.script_dir must not be empty when scripting is enabled")
	}
	if s.CallTimeout < 0 {
		return errors.New("scripting.call_timeout must not be negative")
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with ARENA_ prefix
	v.SetEnvPrefix("ARENA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "arena")
	v.SetDefault("database.password", "arena")
	v.SetDefault("database.name", "arena")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("arena.enrollment_window", "60s")
	v.SetDefault("arena.prompt_timeout", "120s")
	v.SetDefault("arena.max_monsters", 20)
	v.SetDefault("arena.reflex_dc_base", 10)
	v.SetDefault("arena.defend_ac_bonus", 4)
	v.SetDefault("arena.default_damage", "1d4")

	v.SetDefault("scripting.enabled", false)
	v.SetDefault("scripting.script_dir", "scripts/drops")
	v.SetDefault("scripting.call_timeout", "2s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
