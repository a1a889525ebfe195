package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the client-side settings Ripple needs to reach a feed server.
type Config struct {
	Server            string // host:port of the feed service
	TLS               bool   // use https/wss when true
	PageSize          int
	HeartbeatEvery    time.Duration
	ReconnectBase     time.Duration
	ReconnectAttempts int
	LogFile           string
}

const (
	defaultConfigPath = "~/.config/ripple/config.toml"
	defaultServer     = "127.0.0.1:8000"
	defaultLogFile    = "~/.local/share/ripple/ripple.log"

	defaultPageSize          = 20
	defaultHeartbeatSeconds  = 30
	defaultReconnectBaseMS   = 1000
	defaultReconnectAttempts = 5
)

// Load locates and parses the ripple config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Server            string `toml:"server"`
		TLS               bool   `toml:"tls"`
		PageSize          int    `toml:"page_size"`
		HeartbeatSeconds  int    `toml:"heartbeat_seconds"`
		ReconnectBaseMS   int    `toml:"reconnect_base_ms"`
		ReconnectAttempts int    `toml:"reconnect_max_attempts"`
		LogFile           string `toml:"log_file"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if server := strings.TrimSpace(raw.Server); server != "" {
		cfg.Server = server
	}
	cfg.TLS = raw.TLS
	if raw.PageSize > 0 {
		cfg.PageSize = raw.PageSize
	}
	if raw.HeartbeatSeconds > 0 {
		cfg.HeartbeatEvery = time.Duration(raw.HeartbeatSeconds) * time.Second
	}
	if raw.ReconnectBaseMS > 0 {
		cfg.ReconnectBase = time.Duration(raw.ReconnectBaseMS) * time.Millisecond
	}
	if raw.ReconnectAttempts > 0 {
		cfg.ReconnectAttempts = raw.ReconnectAttempts
	}
	if logFile := strings.TrimSpace(raw.LogFile); logFile != "" {
		cfg.LogFile = logFile
	}
	cfg.LogFile = mustExpand(cfg.LogFile)

	return cfg, nil
}

func defaults() Config {
	return Config{
		Server:            defaultServer,
		PageSize:          defaultPageSize,
		HeartbeatEvery:    defaultHeartbeatSeconds * time.Second,
		ReconnectBase:     defaultReconnectBaseMS * time.Millisecond,
		ReconnectAttempts: defaultReconnectAttempts,
		LogFile:           mustExpand(defaultLogFile),
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
