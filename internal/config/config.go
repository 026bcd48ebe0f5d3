// Package config loads ghostcli settings from a JSON5 file and GHOSTCLI_*
// environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yosuke-furukawa/json5/encoding/json5"
)

const (
	DirName         = "ghostcli"
	ConfigFileName  = "config.json"
	ProxiesFileName = "proxies.txt"

	envPrefix = "GHOSTCLI_"
)

const (
	defaultPrimaryEndpoint = "https://ghostcli-backend.vercel.app"
	defaultLocalEndpoint   = "http://localhost:8000"
)

// Config holds the tunables of the pipeline.
type Config struct {
	Endpoints              []string `json:"endpoints"`
	EndpointTimeoutSeconds int      `json:"endpoint_timeout_seconds"`
	FreshnessMinutes       int      `json:"freshness_minutes"`
	HistoryBackend         string   `json:"history_backend"`
	HistoryPath            string   `json:"history_path"`
	RedisURL               string   `json:"redis_url"`
	ListenAddr             string   `json:"listen_addr"`
	MaxAttempts            int      `json:"max_attempts"`
	RetryStepMS            int      `json:"retry_step_ms"`
	SettleDelayMS          int      `json:"settle_delay_ms"`
	MinTextLength          int      `json:"min_text_length"`
}

func DefaultConfig() Config {
	return Config{
		Endpoints:              []string{defaultPrimaryEndpoint, defaultLocalEndpoint},
		EndpointTimeoutSeconds: 20,
		FreshnessMinutes:       30,
		HistoryBackend:         "file",
		RedisURL:               "redis://localhost:6379/0",
		ListenAddr:             "127.0.0.1:8787",
		MaxAttempts:            5,
		RetryStepMS:            1000,
		SettleDelayMS:          1500,
		MinTextLength:          200,
	}
}

// ConfigDir honors GHOSTCLI_CONFIG_DIR, then the user config directory.
func ConfigDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(envPrefix + "CONFIG_DIR")); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, DirName), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

func ProxiesPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ProxiesFileName), nil
}

// Load reads config.json over the defaults and applies environment
// overrides. A missing or blank file is not an error.
func Load() (Config, error) {
	cfg := DefaultConfig()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, err
	}
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json5.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	cfg.fillDefaults()
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if env := strings.TrimSpace(os.Getenv(envPrefix + "ENDPOINTS")); env != "" {
		cfg.Endpoints = splitCSV(env)
	}
	cfg.EndpointTimeoutSeconds = envInt(envPrefix+"ENDPOINT_TIMEOUT_SECONDS", cfg.EndpointTimeoutSeconds)
	cfg.FreshnessMinutes = envInt(envPrefix+"FRESHNESS_MINUTES", cfg.FreshnessMinutes)
	cfg.HistoryBackend = envString(envPrefix+"HISTORY_BACKEND", cfg.HistoryBackend)
	cfg.HistoryPath = envString(envPrefix+"HISTORY_PATH", cfg.HistoryPath)
	cfg.RedisURL = envString(envPrefix+"REDIS_URL", cfg.RedisURL)
	cfg.ListenAddr = envString(envPrefix+"LISTEN_ADDR", cfg.ListenAddr)
	cfg.MaxAttempts = envInt(envPrefix+"MAX_ATTEMPTS", cfg.MaxAttempts)
	cfg.RetryStepMS = envInt(envPrefix+"RETRY_STEP_MS", cfg.RetryStepMS)
	cfg.SettleDelayMS = envInt(envPrefix+"SETTLE_DELAY_MS", cfg.SettleDelayMS)
	cfg.MinTextLength = envInt(envPrefix+"MIN_TEXT_LENGTH", cfg.MinTextLength)
}

// fillDefaults replaces zero or negative values written in the file.
func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if len(c.Endpoints) == 0 {
		c.Endpoints = def.Endpoints
	}
	if c.EndpointTimeoutSeconds <= 0 {
		c.EndpointTimeoutSeconds = def.EndpointTimeoutSeconds
	}
	if c.FreshnessMinutes <= 0 {
		c.FreshnessMinutes = def.FreshnessMinutes
	}
	if strings.TrimSpace(c.HistoryBackend) == "" {
		c.HistoryBackend = def.HistoryBackend
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.RetryStepMS <= 0 {
		c.RetryStepMS = def.RetryStepMS
	}
	if c.SettleDelayMS < 0 {
		c.SettleDelayMS = def.SettleDelayMS
	}
	if c.MinTextLength < 0 {
		c.MinTextLength = def.MinTextLength
	}
	if strings.TrimSpace(c.ListenAddr) == "" {
		c.ListenAddr = def.ListenAddr
	}
}

func (c Config) EndpointTimeout() time.Duration {
	return time.Duration(c.EndpointTimeoutSeconds) * time.Second
}

func (c Config) Freshness() time.Duration {
	return time.Duration(c.FreshnessMinutes) * time.Minute
}

func (c Config) RetryStep() time.Duration {
	return time.Duration(c.RetryStepMS) * time.Millisecond
}

func (c Config) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMS) * time.Millisecond
}

// ResolveHistoryPath returns history_path, or a backend-specific file in dir.
func (c Config) ResolveHistoryPath(dir string) string {
	if path := strings.TrimSpace(c.HistoryPath); path != "" {
		return path
	}
	if strings.EqualFold(strings.TrimSpace(c.HistoryBackend), "sqlite") {
		return filepath.Join(dir, "history.db")
	}
	return filepath.Join(dir, "history.json")
}

// Init writes default config.json and proxies.txt if they don't already exist.
func Init() ([]string, error) {
	var created []string

	dir, err := ConfigDir()
	if err != nil {
		return created, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return created, err
	}

	configPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := writeConfig(configPath, DefaultConfig()); err != nil {
			return created, err
		}
		created = append(created, configPath)
	}

	proxiesPath := filepath.Join(dir, ProxiesFileName)
	if _, err := os.Stat(proxiesPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(proxiesPath, []byte(""), 0o644); err != nil {
			return created, err
		}
		created = append(created, proxiesPath)
	}

	return created, nil
}

func writeConfig(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// LoadProxies returns proxies from the flag value, GHOSTCLI_PROXIES or
// proxies.txt, in that order of precedence.
func LoadProxies(flagValue string) ([]string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return splitCSV(flagValue), nil
	}

	if env := strings.TrimSpace(os.Getenv(envPrefix + "PROXIES")); env != "" {
		return splitCSV(env), nil
	}

	path, err := ProxiesPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var proxies []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		proxies = append(proxies, line)
	}
	return proxies, nil
}

func envString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
