// Package config provides YAML-based configuration loading for the wampio
// example client.
package config

import (
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"

    "github.com/spf13/viper"
)

// Config is the root application configuration.
type Config struct {
    // AppName optional logical name of the client application
    AppName string `mapstructure:"app_name"`

    // Router holds the router connection settings
    Router RouterConfig `mapstructure:"router"`

    // Auth holds the authentication settings
    Auth AuthConfig `mapstructure:"auth"`

    // Log holds logging configuration
    Log LogConfig `mapstructure:"log"`
}

// RouterConfig describes how to reach the router and which realm to join.
type RouterConfig struct {
    // Transport: websocket, rawsocket or quic
    Transport string `mapstructure:"transport"`
    // Address: URL for websocket (ws://host/ws), host:port otherwise
    Address string `mapstructure:"address"`
    // Realm to join
    Realm string `mapstructure:"realm"`
    // Serializer: json, msgpack or cbor
    Serializer string `mapstructure:"serializer"`
    // GoodbyeTimeoutMS bounds the wait for the peer Goodbye on close
    GoodbyeTimeoutMS int `mapstructure:"goodbye_timeout_ms"`
}

// AuthConfig selects an authentication method. Empty method means none.
type AuthConfig struct {
    // Method: wampcra or ticket
    Method string `mapstructure:"method"`
    AuthID string `mapstructure:"auth_id"`
    // Secret for wampcra, ticket value for ticket
    Secret string `mapstructure:"secret"`
}

// LogConfig defines logger settings.
type LogConfig struct {
    // Level: debug, info, warn, error
    Level string `mapstructure:"level"`
    // Format: console or json
    Format string `mapstructure:"format"`
    // Outputs: list of outputs: stdout, stderr, or file paths
    Outputs []string `mapstructure:"outputs"`

    // Rotation controls file rotation when writing to files
    Rotation RotationConfig `mapstructure:"rotation"`
    // Development toggles development-friendly logging options
    Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
    Enable     bool   `mapstructure:"enable"`
    Filename   string `mapstructure:"filename"`
    MaxSizeMB  int    `mapstructure:"max_size_mb"`
    MaxBackups int    `mapstructure:"max_backups"`
    MaxAgeDays int    `mapstructure:"max_age_days"`
    Compress   bool   `mapstructure:"compress"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
    return &Config{
        AppName: "wampio-client",
        Router: RouterConfig{
            Transport:        "websocket",
            Address:          "ws://127.0.0.1:8080/ws",
            Realm:            "realm1",
            Serializer:       "json",
            GoodbyeTimeoutMS: 5000,
        },
        Log: LogConfig{
            Level:       "info",
            Format:      "console",
            Outputs:     []string{"stdout"},
            Development: true,
            Rotation: RotationConfig{
                Enable:     false,
                Filename:   "logs/wampio.log",
                MaxSizeMB:  50,
                MaxBackups: 3,
                MaxAgeDays: 28,
                Compress:   true,
            },
        },
    }
}

// Load reads configuration from the provided path (if non-empty),
// otherwise it searches common locations and supports environment overrides.
// Environment variables use the prefix WAMPIO and `.`/`-` are replaced with `_`.
// Example: WAMPIO_LOG_LEVEL=debug
func Load(path string) (*Config, error) {
    cfg := Default()

    v := viper.New()
    v.SetConfigType("yaml")
    v.SetEnvPrefix("WAMPIO")
    v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
    v.AutomaticEnv()

    // seed defaults for viper so env-only configs work
    v.SetDefault("app_name", cfg.AppName)
    v.SetDefault("router.transport", cfg.Router.Transport)
    v.SetDefault("router.address", cfg.Router.Address)
    v.SetDefault("router.realm", cfg.Router.Realm)
    v.SetDefault("router.serializer", cfg.Router.Serializer)
    v.SetDefault("router.goodbye_timeout_ms", cfg.Router.GoodbyeTimeoutMS)
    v.SetDefault("auth.method", cfg.Auth.Method)
    v.SetDefault("auth.auth_id", cfg.Auth.AuthID)
    v.SetDefault("auth.secret", cfg.Auth.Secret)
    v.SetDefault("log.level", cfg.Log.Level)
    v.SetDefault("log.format", cfg.Log.Format)
    v.SetDefault("log.outputs", cfg.Log.Outputs)
    v.SetDefault("log.development", cfg.Log.Development)
    v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
    v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
    v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
    v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
    v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
    v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)

    // Choose config file
    if path == "" {
        if envPath := os.Getenv("WAMPIO_CONFIG"); envPath != "" {
            path = envPath
        }
    }

    if path != "" {
        v.SetConfigFile(path)
    } else {
        // Search common locations with base name `wampio`
        v.SetConfigName("wampio")
        v.AddConfigPath(".")
        v.AddConfigPath("./configs")
        if home, err := os.UserHomeDir(); err == nil {
            v.AddConfigPath(filepath.Join(home, ".wampio"))
        }
    }

    // Read config file if present; if not found, continue with defaults/env
    if err := v.ReadInConfig(); err != nil {
        var viperConfigFileNotFound viper.ConfigFileNotFoundError
        if !errors.As(err, &viperConfigFileNotFound) {
            return nil, fmt.Errorf("read config: %w", err)
        }
    }

    if err := v.Unmarshal(&cfg); err != nil {
        return nil, fmt.Errorf("decode config: %w", err)
    }

    if err := cfg.validate(); err != nil {
        return nil, err
    }
    return cfg, nil
}

func (c *Config) validate() error {
    lvl := strings.ToLower(strings.TrimSpace(c.Log.Level))
    switch lvl {
    case "debug", "info", "warn", "warning", "error":
        // ok
    default:
        return fmt.Errorf("invalid log.level: %q", c.Log.Level)
    }

    if c.Log.Format == "" {
        c.Log.Format = "console"
    }
    if len(c.Log.Outputs) == 0 {
        c.Log.Outputs = []string{"stdout"}
    }

    switch strings.ToLower(strings.TrimSpace(c.Router.Transport)) {
    case "websocket", "rawsocket", "quic":
        // ok
    default:
        return fmt.Errorf("invalid router.transport: %q", c.Router.Transport)
    }
    switch strings.ToLower(strings.TrimSpace(c.Router.Serializer)) {
    case "json", "msgpack", "cbor":
        // ok
    default:
        return fmt.Errorf("invalid router.serializer: %q", c.Router.Serializer)
    }
    if strings.TrimSpace(c.Router.Realm) == "" {
        return errors.New("router.realm is required")
    }
    switch strings.ToLower(strings.TrimSpace(c.Auth.Method)) {
    case "", "wampcra", "ticket":
        // ok
    default:
        return fmt.Errorf("invalid auth.method: %q", c.Auth.Method)
    }
    return nil
}

// MustLoad is a convenience that panics on error.
func MustLoad(path string) *Config {
    cfg, err := Load(path)
    if err != nil {
        panic(err)
    }
    return cfg
}
