// Package console wires the client-side session lifecycle to a terminal:
// the login form with its lockout guard, the activity monitor, the
// notification channel and the payment and invoice helpers.
package console

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/nhonest/supermarket-web/internal/core/lockout"
	"github.com/nhonest/supermarket-web/internal/core/session"
)

const (
	defaultServerURL = "http://localhost:8080"
	configDirName    = ".nhonest"
	configFileName   = "console.toml"
	stateFileName    = "state.json"
)

// Config is the console configuration file.
type Config struct {
	ServerURL string `toml:"server_url"`
	StatePath string `toml:"state_path"`
	LogLevel  string `toml:"log_level"`

	Session SessionConfig `toml:"session"`
	Lockout LockoutConfig `toml:"lockout"`
	Payment PaymentConfig `toml:"payment"`
}

type SessionConfig struct {
	Timeout          time.Duration `toml:"timeout"`
	CustomerTimeout  time.Duration `toml:"customer_timeout"`
	RefreshThreshold time.Duration `toml:"refresh_threshold"`
	WarningTime      time.Duration `toml:"warning_time"`
}

type LockoutConfig struct {
	MaxAttempts int           `toml:"max_attempts"`
	Duration    time.Duration `toml:"duration"`
}

type PaymentConfig struct {
	PollInterval time.Duration `toml:"poll_interval"`
	PollTimeout  time.Duration `toml:"poll_timeout"`
}

// Policy returns the session policy described by c.
func (c SessionConfig) Policy() session.Policy {
	return session.Policy{
		SessionTimeout:   c.Timeout,
		CustomerTimeout:  c.CustomerTimeout,
		RefreshThreshold: c.RefreshThreshold,
	}
}

// Dir returns ~/.nhonest, falling back to the working directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return configDirName
	}
	return filepath.Join(home, configDirName)
}

// DefaultConfigPath returns ~/.nhonest/console.toml.
func DefaultConfigPath() string {
	return filepath.Join(Dir(), configFileName)
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	p := session.DefaultPolicy()
	return &Config{
		ServerURL: defaultServerURL,
		StatePath: filepath.Join(Dir(), stateFileName),
		LogLevel:  "warn",
		Session: SessionConfig{
			Timeout:          p.SessionTimeout,
			CustomerTimeout:  p.CustomerTimeout,
			RefreshThreshold: p.RefreshThreshold,
			WarningTime:      session.DefaultWarningTime,
		},
		Lockout: LockoutConfig{
			MaxAttempts: lockout.DefaultMaxAttempts,
			Duration:    lockout.DefaultLockoutDuration,
		},
		Payment: PaymentConfig{
			PollInterval: 5 * time.Second,
			PollTimeout:  5 * time.Minute,
		},
	}
}

// LoadConfig reads path over the defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("console config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("console config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.ServerURL = strings.TrimRight(strings.TrimSpace(c.ServerURL), "/")
	switch {
	case !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://"):
		return fmt.Errorf("server_url must be an http(s) URL, got %q", c.ServerURL)
	case c.StatePath == "":
		return errors.New("state_path must not be empty")
	case c.Session.Timeout <= 0:
		return errors.New("session.timeout must be positive")
	}
	return nil
}
