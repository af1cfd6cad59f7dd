// Package config reads the command line tool settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/hidal-go/dblist/persist"
)

// Default file names used by the file backend when none are configured.
const (
	DefaultFile          = "dblist.json"
	DefaultEncryptedFile = "dblist.bin"
)

// Config holds the command line tool settings.
type Config struct {
	Backend       string
	File          string
	EncryptedFile string
	Encrypt       bool
	Decrypt       bool
	SecretKey     string
	SecretPwd     string
	Path          string // kv backends
	Addr          string // remote backends
	Database      string
	LogLevel      slog.Level
}

// Load reads the configuration from the environment, after loading .env if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Backend:       os.Getenv("DBLIST_BACKEND"),
		File:          os.Getenv("DBLIST_FILE"),
		EncryptedFile: os.Getenv("DBLIST_ENCRYPTED_FILE"),
		SecretKey:     os.Getenv("DBLIST_SECRET_KEY"),
		SecretPwd:     os.Getenv("DBLIST_SECRET_PWD"),
		Path:          os.Getenv("DBLIST_PATH"),
		Addr:          os.Getenv("DBLIST_ADDR"),
		Database:      os.Getenv("DBLIST_DATABASE"),
		LogLevel:      slog.LevelInfo,
	}
	if cfg.Backend == "" {
		cfg.Backend = persist.DefaultBackend
	}

	var err error
	if cfg.Encrypt, err = parseBool("DBLIST_ENCRYPT"); err != nil {
		return nil, err
	}
	if cfg.Decrypt, err = parseBool("DBLIST_DECRYPT"); err != nil {
		return nil, err
	}
	if cfg.Encrypt && cfg.Decrypt {
		return nil, fmt.Errorf("DBLIST_ENCRYPT and DBLIST_DECRYPT cannot be both set")
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return nil, err
		}
		cfg.LogLevel = level
	}

	if cfg.Backend == persist.DefaultBackend && cfg.File == "" && cfg.EncryptedFile == "" {
		if cfg.hasSecret() {
			cfg.EncryptedFile = DefaultEncryptedFile
		} else {
			cfg.File = DefaultFile
		}
	}
	return cfg, nil
}

func (c *Config) hasSecret() bool {
	return c.SecretKey != "" || c.SecretPwd != ""
}

// PersistOptions returns options for opening the registry storage.
func (c *Config) PersistOptions() persist.Options {
	opts := persist.Options{
		Backend:           c.Backend,
		FileName:          c.File,
		EncryptedFileName: c.EncryptedFile,
		Encrypt:           c.Encrypt,
		Decrypt:           c.Decrypt,
		Path:              c.Path,
		Addr:              c.Addr,
		Database:          c.Database,
	}
	if c.hasSecret() {
		opts.Secret = &persist.Secret{Key: c.SecretKey, Pwd: c.SecretPwd}
	}
	return opts
}

func parseBool(name string) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", name, v, err)
	}
	return b, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL value %q: must be debug, info, warn, or error", s)
	}
}
