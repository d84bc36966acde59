// Package config resolves fleetcal settings from config.yaml, FLEETCAL_*
// environment variables and command-line overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/julianstephens/fleetcal/internal/constants"
	"github.com/julianstephens/fleetcal/internal/keyring"
)

type Config struct {
	ConfigDir    string
	Database     string
	Year         int
	Timezone     string
	ResyncWindow time.Duration
	Notify       bool
	Debug        bool
}

// IsPostgres reports whether Database is a PostgreSQL connection string.
func (c *Config) IsPostgres() bool {
	return IsPostgresConnString(c.Database)
}

func IsPostgresConnString(s string) bool {
	return strings.HasPrefix(s, "postgres://") ||
		strings.HasPrefix(s, "postgresql://") ||
		strings.Contains(s, "host=")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf("failed to expand %s: %w", p, err)
	}
	return expanded, nil
}

// Load reads config.yaml from dir (if present) and the environment.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = constants.DefaultConfigDir
	}
	configDir, err := ExpandPath(dir)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault(constants.SettingDatabase, "")
	v.SetDefault(constants.SettingYear, 0)
	v.SetDefault(constants.SettingTimezone, constants.DefaultTimezone)
	v.SetDefault(constants.SettingResyncWindow, constants.DefaultResyncWindow)
	v.SetDefault(constants.SettingNotify, constants.DefaultNotify)
	v.SetDefault(constants.SettingDebug, false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		ConfigDir:    configDir,
		Database:     v.GetString(constants.SettingDatabase),
		Year:         v.GetInt(constants.SettingYear),
		Timezone:     v.GetString(constants.SettingTimezone),
		ResyncWindow: v.GetDuration(constants.SettingResyncWindow),
		Notify:       v.GetBool(constants.SettingNotify),
		Debug:        v.GetBool(constants.SettingDebug),
	}
	return cfg, nil
}

// ResolveDatabase picks the storage location. An explicit override wins,
// then the configured database, then FLEETCAL_DB_CONNECTION, then the
// connection string in the OS keyring, then the default SQLite file.
func (c *Config) ResolveDatabase(override string) error {
	db := override
	if db == "" {
		db = c.Database
	}
	if db == "" {
		db = os.Getenv(constants.EnvDBConnection)
	}
	if db == "" {
		if connStr, err := keyring.GetConnectionString(); err == nil {
			db = connStr
		}
	}
	if db == "" {
		db = filepath.Join(c.ConfigDir, constants.AppName+".db")
	}

	if !IsPostgresConnString(db) {
		expanded, err := ExpandPath(db)
		if err != nil {
			return err
		}
		db = expanded
	}
	c.Database = db
	return nil
}

// YearOr returns the configured year, or fallback when none is set.
func (c *Config) YearOr(fallback int) int {
	if c.Year > 0 {
		return c.Year
	}
	return fallback
}

// Save writes the persistent settings of c to config.yaml in c.ConfigDir.
// PostgreSQL connection strings are never written to the file.
func Save(c *Config) (string, error) {
	if err := os.MkdirAll(c.ConfigDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if c.Database != "" && !c.IsPostgres() {
		v.Set(constants.SettingDatabase, c.Database)
	}
	if c.Year > 0 {
		v.Set(constants.SettingYear, c.Year)
	}
	v.Set(constants.SettingTimezone, c.Timezone)
	v.Set(constants.SettingResyncWindow, c.ResyncWindow.String())
	v.Set(constants.SettingNotify, c.Notify)

	path := filepath.Join(c.ConfigDir, "config.yaml")
	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}
