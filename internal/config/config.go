package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/secondbrain/config.yaml"

// Config holds all secondbrain configuration.
type Config struct {
	Capture   CaptureConfig   `yaml:"capture" toml:"capture"`
	Probe     ProbeConfig     `yaml:"probe" toml:"probe"`
	Query     QueryConfig     `yaml:"query" toml:"query"`
	Summarize SummarizeConfig `yaml:"summarize" toml:"summarize"`
	Storage   StorageConfig   `yaml:"storage" toml:"storage"`
	Retention RetentionConfig `yaml:"retention" toml:"retention"`
	Recall    RecallConfig    `yaml:"recall" toml:"recall"`
	LLM       LLMConfig       `yaml:"llm" toml:"llm"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
}

type CaptureConfig struct {
	Enabled         bool     `yaml:"enabled" toml:"enabled"`
	BufferSize      int      `yaml:"buffer_size" toml:"buffer_size"`
	FlushIntervalMS int      `yaml:"flush_interval_ms" toml:"flush_interval_ms"`
	FlushBatch      int      `yaml:"flush_batch" toml:"flush_batch"`
	Devices         []string `yaml:"devices" toml:"devices"`
	Demo            bool     `yaml:"demo" toml:"demo"`
}

type ProbeConfig struct {
	TimeoutMS int `yaml:"timeout_ms" toml:"timeout_ms"`
	// Browsers are extra app-name aliases treated as browsers for URL extraction.
	Browsers []string `yaml:"browsers" toml:"browsers"`
}

type QueryConfig struct {
	KnownApps []string `yaml:"known_apps" toml:"known_apps"`
	Rewrite   bool     `yaml:"rewrite" toml:"rewrite"`
}

type SummarizeConfig struct {
	Enabled         bool `yaml:"enabled" toml:"enabled"`
	IntervalMinutes int  `yaml:"interval_minutes" toml:"interval_minutes"`
	ExtractTags     bool `yaml:"extract_tags" toml:"extract_tags"`
}

type StorageConfig struct {
	Backend         string `yaml:"backend" toml:"backend"`
	Driver          string `yaml:"driver" toml:"driver"`
	Path            string `yaml:"path" toml:"path"`
	SQLiteFile      string `yaml:"sqlite_file" toml:"sqlite_file"`
	PostgrestURL    string `yaml:"postgrest_url" toml:"postgrest_url"`
	PostgrestKeyEnv string `yaml:"postgrest_key_env" toml:"postgrest_key_env"`
}

type RetentionConfig struct {
	Days       int    `yaml:"days" toml:"days"`
	ArchiveDir string `yaml:"archive_dir" toml:"archive_dir"`
}

type RecallConfig struct {
	Host                  string            `yaml:"host" toml:"host"`
	Port                  int               `yaml:"port" toml:"port"`
	RequestTimeoutSeconds int               `yaml:"request_timeout_seconds" toml:"request_timeout_seconds"`
	MaxRequestSize        int               `yaml:"max_request_size" toml:"max_request_size"`
	AppAliases            map[string]string `yaml:"app_aliases" toml:"app_aliases"`
}

type LLMConfig struct {
	Provider       string `yaml:"provider" toml:"provider"`
	Model          string `yaml:"model" toml:"model"`
	BaseURL        string `yaml:"base_url" toml:"base_url"`
	APIKeyEnv      string `yaml:"api_key_env" toml:"api_key_env"`
	TimeoutSeconds int    `yaml:"timeout_seconds" toml:"timeout_seconds"`
}

type LoggingConfig struct {
	Level string `yaml:"level" toml:"level"`
	File  string `yaml:"file" toml:"file"`
}

// Load reads a YAML or TOML config file at path and merges it with defaults.
// Files ending in .toml are decoded as TOML, everything else as YAML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := ExpandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}

// DataDir returns the expanded storage directory.
func (c *Config) DataDir() (string, error) {
	return ExpandPath(c.Storage.Path)
}

// DBPath returns the full path of the SQLite database file.
func (c *Config) DBPath() (string, error) {
	dir, err := c.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Storage.SQLiteFile), nil
}

// RecallAddr returns the host:port the recall service listens on.
func (c *Config) RecallAddr() string {
	return fmt.Sprintf("%s:%d", c.Recall.Host, c.Recall.Port)
}
