package console

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nhonest/supermarket-web/internal/core/lockout"
	"github.com/nhonest/supermarket-web/internal/core/session"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "console.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ServerURL != "http://localhost:8080" {
		t.Fatalf("unexpected server url %q", cfg.ServerURL)
	}
	if cfg.Session.Policy() != session.DefaultPolicy() {
		t.Fatalf("expected the default policy, got %+v", cfg.Session.Policy())
	}
	if cfg.Lockout.MaxAttempts != lockout.DefaultMaxAttempts || cfg.Lockout.Duration != lockout.DefaultLockoutDuration {
		t.Fatalf("unexpected lockout defaults %+v", cfg.Lockout)
	}
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server_url = "https://shop.nhonest.ug/"

[session]
timeout = "45m"
warning_time = "2m"

[lockout]
max_attempts = 3

[payment]
poll_interval = "2s"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ServerURL != "https://shop.nhonest.ug" {
		t.Fatalf("expected trimmed server url, got %q", cfg.ServerURL)
	}
	if cfg.Session.Timeout != 45*time.Minute || cfg.Session.WarningTime != 2*time.Minute {
		t.Fatalf("unexpected session config %+v", cfg.Session)
	}
	if cfg.Session.RefreshThreshold != session.DefaultRefreshThreshold {
		t.Fatalf("unset keys must keep defaults, got %v", cfg.Session.RefreshThreshold)
	}
	if cfg.Lockout.MaxAttempts != 3 || cfg.Lockout.Duration != lockout.DefaultLockoutDuration {
		t.Fatalf("unexpected lockout config %+v", cfg.Lockout)
	}
	if cfg.Payment.PollInterval != 2*time.Second || cfg.Payment.PollTimeout != 5*time.Minute {
		t.Fatalf("unexpected payment config %+v", cfg.Payment)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad scheme":   `server_url = "localhost:8080"`,
		"zero timeout": "[session]\ntimeout = \"0s\"",
		"empty state":  `state_path = ""`,
		"syntax":       `server_url = `,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, content)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
