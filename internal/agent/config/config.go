package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variables before they are matched
// against koanf keys, so GOODTURKEY_SYNC_INTERVAL sets sync_interval.
const EnvPrefix = "GOODTURKEY_"

// Config holds the enforcement agent's settings.
type Config struct {
	// ServerURL is the base URL of the policy server, without the /api suffix.
	ServerURL string `koanf:"server_url" validate:"required,http_url"`

	// Token is the bearer token sent to the server. Without one every sync
	// is rejected and the agent enforces its cached rules.
	Token string `koanf:"token"`

	DataDir string `koanf:"data_dir" validate:"required"`

	// ListenAddr is the local API address. It must be a loopback address.
	ListenAddr string `koanf:"listen_addr" validate:"required"`

	SyncInterval time.Duration `koanf:"sync_interval" validate:"gte=1m"`
	StaleAfter   time.Duration `koanf:"stale_after" validate:"gtefield=SyncInterval"`

	// Timezone is an IANA name used for day-of-week and time-of-day.
	Timezone string `koanf:"timezone" validate:"required"`

	// CacheSize bounds the hostname match cache. Zero disables it.
	CacheSize int `koanf:"cache_size" validate:"gte=0"`

	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	location *time.Location
}

// Location returns the loaded Timezone.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// DBPath is the bbolt file inside DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "agent.db")
}

// SlogLevel maps LogLevel onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaults() Config {
	dataDir := ".goodturkey"
	if dir, err := os.UserConfigDir(); err == nil {
		dataDir = filepath.Join(dir, "goodturkey")
	}
	return Config{
		ServerURL:    "http://localhost:8080",
		DataDir:      dataDir,
		ListenAddr:   "127.0.0.1:7878",
		SyncInterval: 15 * time.Minute,
		StaleAfter:   45 * time.Minute,
		Timezone:     "Local",
		CacheSize:    1024,
		LogLevel:     "info",
	}
}

// envLoader overlays GOODTURKEY_* variables. It is a variable so tests can
// replace it.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), value
		},
	}), nil)
}

// Load builds the configuration from defaults and the environment, then
// validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}
	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := requireLoopback(cfg.ListenAddr); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q is not a known time zone: %w", cfg.Timezone, err)
	}
	cfg.location = loc

	return &cfg, nil
}

// requireLoopback rejects listen addresses reachable from other hosts.
func requireLoopback(addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("listen_addr %q: %w", addr, err)
	}
	if host == "localhost" {
		return nil
	}
	ip, err := netip.ParseAddr(host)
	if err != nil || !ip.IsLoopback() {
		return fmt.Errorf("listen_addr %q must be a loopback address", addr)
	}
	return nil
}
