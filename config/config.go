// Package config loads settings from defaults, an optional config file,
// a .env file and NOTES_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"secret-notes/db"
	"secret-notes/passwords"
)

const envPrefix = "NOTES"

const (
	AuthModeMulti  = "multi"
	AuthModeSingle = "single"
)

type Config struct {
	Addr           string        `mapstructure:"addr"`
	Storage        string        `mapstructure:"storage"`
	DataDir        string        `mapstructure:"data_dir"`
	UsersFile      string        `mapstructure:"users_file"`
	NotesFile      string        `mapstructure:"notes_file"`
	DSN            string        `mapstructure:"dsn"`
	SessionSecret  string        `mapstructure:"session_secret"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	SecureCookies  bool          `mapstructure:"secure_cookies"`
	AuthMode       string        `mapstructure:"auth_mode"`
	AuthorUsername string        `mapstructure:"author_username"`
	AuthorPassword string        `mapstructure:"author_password"`
	PasswordScheme string        `mapstructure:"password_scheme"`
	CORSOrigins    []string      `mapstructure:"cors_origins"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":5000")
	v.SetDefault("storage", db.BackendJSON)
	v.SetDefault("data_dir", ".")
	v.SetDefault("users_file", "users.json")
	v.SetDefault("notes_file", "notes.json")
	v.SetDefault("dsn", "")
	v.SetDefault("session_secret", "")
	v.SetDefault("session_ttl", 24*time.Hour)
	v.SetDefault("secure_cookies", false)
	v.SetDefault("auth_mode", AuthModeMulti)
	v.SetDefault("author_username", "")
	v.SetDefault("author_password", "")
	v.SetDefault("password_scheme", string(passwords.SchemeBcrypt))
	v.SetDefault("cors_origins", []string{})
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Load reads configuration. configFile may be empty. A missing .env file
// is not an error.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage {
	case db.BackendJSON, db.BackendSQLite, db.BackendMySQL:
	default:
		return fmt.Errorf("storage must be json, sqlite or mysql, got %q", c.Storage)
	}
	if c.Storage == db.BackendMySQL && c.DSN == "" {
		return errors.New("dsn is required for mysql storage")
	}
	switch c.AuthMode {
	case AuthModeMulti:
	case AuthModeSingle:
		if c.AuthorUsername == "" || c.AuthorPassword == "" {
			return errors.New("author_username and author_password are required in single auth mode")
		}
	default:
		return fmt.Errorf("auth_mode must be multi or single, got %q", c.AuthMode)
	}
	switch passwords.Scheme(c.PasswordScheme) {
	case passwords.SchemeBcrypt, passwords.SchemeArgon2id:
	default:
		return fmt.Errorf("password_scheme must be bcrypt or argon2id, got %q", c.PasswordScheme)
	}
	return nil
}

// StoreOptions maps the storage settings onto db.Options.
func (c *Config) StoreOptions() db.Options {
	return db.Options{
		Backend:   c.Storage,
		DataDir:   c.DataDir,
		UsersFile: c.UsersFile,
		NotesFile: c.NotesFile,
		DSN:       c.DSN,
	}
}

func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
