package app

import (
	"path/filepath"
	"testing"

	"github.com/leynos/claude-q/internal/config"
)

func TestGetDefaults(t *testing.T) {
	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("Q_CONFIG_PATH", "/custom/q.toml")
		t.Setenv("Q_DIR", "/custom/queues")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults: %v", err)
		}
		if got := defaults["config_path"]; got != "/custom/q.toml" {
			t.Errorf("config_path = %q, want %q", got, "/custom/q.toml")
		}
		if got := defaults["base_dir"]; got != "/custom/queues" {
			t.Errorf("base_dir = %q, want %q", got, "/custom/queues")
		}
		if got := defaults["log_dir"]; got != filepath.Join("/custom/queues", "log") {
			t.Errorf("log_dir = %q, want %q", got, filepath.Join("/custom/queues", "log"))
		}
	})

	t.Run("xdg state home", func(t *testing.T) {
		t.Setenv("Q_CONFIG_PATH", "/custom/q.toml")
		t.Setenv("Q_DIR", "")
		t.Setenv("XDG_STATE_HOME", "/xdg/state")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults: %v", err)
		}
		if got := defaults["base_dir"]; got != filepath.Join("/xdg/state", "q") {
			t.Errorf("base_dir = %q, want %q", got, filepath.Join("/xdg/state", "q"))
		}
	})

	t.Run("home fallbacks", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		t.Setenv("Q_CONFIG_PATH", "")
		t.Setenv("Q_DIR", "")
		t.Setenv("XDG_STATE_HOME", "")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults: %v", err)
		}
		if got := defaults["config_path"]; got != filepath.Join(home, ".config", "q.toml") {
			t.Errorf("config_path = %q", got)
		}
		if got := defaults["base_dir"]; got != filepath.Join(home, ".local", "state", "q") {
			t.Errorf("base_dir = %q", got)
		}
	})
}

func TestResolveBaseDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		name    string
		flagDir string
		env     map[string]string
		cfg     *config.Config
		want    string
	}{
		{
			name:    "flag wins over everything",
			flagDir: "/flag/dir",
			env:     map[string]string{"Q_DIR": "/env/dir", "XDG_STATE_HOME": "/xdg"},
			cfg:     &config.Config{BaseDir: "/cfg/dir"},
			want:    "/flag/dir",
		},
		{
			name: "env wins over config",
			env:  map[string]string{"Q_DIR": "/env/dir"},
			cfg:  &config.Config{BaseDir: "/cfg/dir"},
			want: "/env/dir",
		},
		{
			name: "config wins over xdg",
			env:  map[string]string{"XDG_STATE_HOME": "/xdg"},
			cfg:  &config.Config{BaseDir: "/cfg/dir"},
			want: "/cfg/dir",
		},
		{
			name: "xdg state home",
			env:  map[string]string{"XDG_STATE_HOME": "/xdg"},
			cfg:  &config.Config{},
			want: filepath.Join("/xdg", "q"),
		},
		{
			name: "home fallback",
			cfg:  nil,
			want: filepath.Join(home, ".local", "state", "q"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("Q_DIR", "")
			t.Setenv("XDG_STATE_HOME", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := ResolveBaseDir(tt.flagDir, tt.cfg)
			if err != nil {
				t.Fatalf("ResolveBaseDir: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveBaseDir = %q, want %q", got, tt.want)
			}
		})
	}
}
