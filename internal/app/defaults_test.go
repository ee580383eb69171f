package app

import (
	"os"
	"path/filepath"
	"testing"

	"folio/internal/config"
)

func TestGetDefaults(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		name       string
		env        map[string]string
		wantConfig string
		wantBase   string
	}{
		{
			name:       "folio env vars win",
			env:        map[string]string{EnvConfigPath: "/etc/folio.toml", EnvHome: "/srv/folio", "XDG_DATA_HOME": "/xdg/data"},
			wantConfig: "/etc/folio.toml",
			wantBase:   "/srv/folio",
		},
		{
			name:       "xdg homes",
			env:        map[string]string{"XDG_CONFIG_HOME": "/xdg/config", "XDG_DATA_HOME": "/xdg/data"},
			wantConfig: "/xdg/config/folio.toml",
			wantBase:   "/xdg/data/folio",
		},
		{
			name:       "relative xdg paths are ignored",
			env:        map[string]string{"XDG_CONFIG_HOME": "config", "XDG_DATA_HOME": "data"},
			wantConfig: filepath.Join(homeDir, ".config", "folio.toml"),
			wantBase:   filepath.Join(homeDir, ".local", "share", "folio"),
		},
		{
			name:       "home dir fallback",
			wantConfig: filepath.Join(homeDir, ".config", "folio.toml"),
			wantBase:   filepath.Join(homeDir, ".local", "share", "folio"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{EnvConfigPath, EnvHome, "XDG_CONFIG_HOME", "XDG_DATA_HOME"} {
				t.Setenv(k, tt.env[k])
			}

			d, err := GetDefaults()
			if err != nil {
				t.Fatalf("GetDefaults() error = %v", err)
			}
			if d.ConfigPath != tt.wantConfig {
				t.Errorf("ConfigPath = %q, want %q", d.ConfigPath, tt.wantConfig)
			}
			if d.BaseDir != tt.wantBase {
				t.Errorf("BaseDir = %q, want %q", d.BaseDir, tt.wantBase)
			}
			if got, want := d.NewConfig().LogDir, filepath.Join(tt.wantBase, "log"); got != want {
				t.Errorf("NewConfig().LogDir = %q, want %q", got, want)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Run("overrides from environment", func(t *testing.T) {
		t.Setenv(EnvDatabaseDSN, "postgres://folio@db/folio")
		t.Setenv(EnvSMTPPassword, "s3cret")
		t.Setenv(EnvServerAddr, ":9000")

		cfg := config.NewConfig(t.TempDir())
		ApplyEnv(cfg)

		if cfg.Database.Type != "postgres" || cfg.Database.DSN != "postgres://folio@db/folio" || cfg.Database.DataDir != "" {
			t.Errorf("Database = %+v, want postgres with DSN only", cfg.Database)
		}
		if cfg.Mail.Password != "s3cret" {
			t.Errorf("Mail.Password = %q, want %q", cfg.Mail.Password, "s3cret")
		}
		if cfg.Server.Addr != ":9000" {
			t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, ":9000")
		}
	})

	t.Run("unset variables leave config alone", func(t *testing.T) {
		for _, k := range []string{EnvDatabaseDSN, EnvSMTPPassword, EnvServerAddr} {
			t.Setenv(k, "")
		}
		base := t.TempDir()
		cfg := config.NewConfig(base)
		ApplyEnv(cfg)

		want := config.NewConfig(base)
		if cfg.Database != want.Database || cfg.Server.Addr != want.Server.Addr || cfg.Mail.Password != "" {
			t.Errorf("ApplyEnv() changed config: %+v", cfg)
		}
	})
}
