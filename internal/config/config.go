// Package config loads the client configuration from a JSON file and the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"conduit/internal/utils"
)

const (
	EnvAPI     = "CONDUIT_API"
	EnvDataDir = "CONDUIT_DATA_DIR"

	DefaultAPIBaseURL = "http://localhost:8081"
)

// Config holds the client settings.
type Config struct {
	APIBaseURL string `json:"apiBaseURL"`
	DataDir    string `json:"dataDir"`
	// LogPath defaults to client.log in DataDir.
	LogPath string `json:"logPath"`
	// EncryptStorage seals the stored viewer with a key derived from the master key.
	EncryptStorage bool   `json:"encryptStorage"`
	MasterKeyFile  string `json:"masterKeyFile"`
	// StrictStorage panics on an unreadable stored viewer instead of starting as guest.
	StrictStorage bool `json:"strictStorage"`
	// CACertDir holds extra CA certificates (.crt, .pem) trusted for the API.
	CACertDir string `json:"caCertDir"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	dir := utils.GetDataDir()
	return Config{
		APIBaseURL:    DefaultAPIBaseURL,
		DataDir:       dir,
		LogPath:       filepath.Join(dir, "client.log"),
		MasterKeyFile: filepath.Join(dir, "master.key"),
	}
}

// Load reads path over the defaults, then applies environment overrides. A missing
// file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	// a relocated data dir moves the derived paths along unless they were set
	dataDirSet := cfg.DataDir != Default().DataDir
	if env := os.Getenv(EnvDataDir); env != "" {
		cfg.DataDir = env
		dataDirSet = true
	}
	if dataDirSet {
		def := Default()
		if cfg.LogPath == def.LogPath {
			cfg.LogPath = filepath.Join(cfg.DataDir, "client.log")
		}
		if cfg.MasterKeyFile == def.MasterKeyFile {
			cfg.MasterKeyFile = filepath.Join(cfg.DataDir, "master.key")
		}
	}
	if env := os.Getenv(EnvAPI); env != "" {
		cfg.APIBaseURL = env
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	return cfg, cfg.Validate()
}

// WithAPIBaseURL returns c pointed at url, normalized and validated the way Load does.
func (c Config) WithAPIBaseURL(url string) (Config, error) {
	c.APIBaseURL = strings.TrimRight(url, "/")
	return c, c.Validate()
}

// Validate reports settings the client cannot run with.
func (c Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("config: apiBaseURL is empty")
	}
	if !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		return fmt.Errorf("config: apiBaseURL %q is not an http(s) url", c.APIBaseURL)
	}
	if c.DataDir == "" {
		return errors.New("config: dataDir is empty")
	}
	return nil
}
