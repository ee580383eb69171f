package app

import (
	"fmt"
	"os"
	"path/filepath"

	"folio/internal/config"
)

// Environment variables read by folio.
const (
	EnvConfigPath   = "FOLIO_CONFIG_PATH"   // config file location
	EnvHome         = "FOLIO_HOME"          // base directory for database, blobs, keys and logs
	EnvDatabaseDSN  = "FOLIO_DATABASE_DSN"  // switches the store to postgres with this DSN
	EnvSMTPPassword = "FOLIO_SMTP_PASSWORD" // keeps the SMTP password out of the config file
	EnvServerAddr   = "FOLIO_ADDR"          // listen address for `folio serve`
)

// Defaults holds the locations folio uses when the config does not say otherwise.
type Defaults struct {
	ConfigPath string
	BaseDir    string
}

// GetDefaults resolves default paths. FOLIO_CONFIG_PATH and FOLIO_HOME win;
// otherwise the XDG config and data homes are used, falling back to
// ~/.config/folio.toml and ~/.local/share/folio.
func GetDefaults() (Defaults, error) {
	configPath, err := configPath()
	if err != nil {
		return Defaults{}, err
	}
	baseDir, err := baseDir()
	if err != nil {
		return Defaults{}, err
	}
	return Defaults{ConfigPath: configPath, BaseDir: baseDir}, nil
}

// NewConfig returns a fresh local config rooted at the default base dir.
func (d Defaults) NewConfig() *config.Config {
	return config.NewConfig(d.BaseDir)
}

// ApplyEnv overrides config values that are commonly injected by the
// environment in server deployments.
func ApplyEnv(cfg *config.Config) {
	if dsn := os.Getenv(EnvDatabaseDSN); dsn != "" {
		cfg.Database = config.DatabaseConfig{Type: "postgres", DSN: dsn}
	}
	if pw := os.Getenv(EnvSMTPPassword); pw != "" {
		cfg.Mail.Password = pw
	}
	if addr := os.Getenv(EnvServerAddr); addr != "" {
		cfg.Server.Addr = addr
	}
}

func configPath() (string, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path, nil
	}
	dir, err := xdgDir("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "folio.toml"), nil
}

func baseDir() (string, error) {
	if path := os.Getenv(EnvHome); path != "" {
		return path, nil
	}
	dir, err := xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "folio"), nil
}

// xdgDir returns $env when it is an absolute path, else ~/fallback.
func xdgDir(env, fallback string) (string, error) {
	if dir := os.Getenv(env); filepath.IsAbs(dir) {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, fallback), nil
}
