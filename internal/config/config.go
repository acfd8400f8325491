// Package config handles paperdock configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration, stored as config.yml in the data
// directory.
type Config struct {
	DataDir string        `yaml:"data_dir,omitempty"`
	Harvest HarvestConfig `yaml:"harvest"`
	Ollama  OllamaConfig  `yaml:"ollama"`
	Index   IndexConfig   `yaml:"index"`
	Serve   ServeConfig   `yaml:"serve"`
}

// HarvestConfig controls the bulk harvester.
type HarvestConfig struct {
	Categories      []string      `yaml:"categories"`
	PageSize        int           `yaml:"page_size"`
	RetryLimit      int           `yaml:"retry_limit"`
	RetryBackoff    time.Duration `yaml:"retry_backoff"`
	RequestInterval time.Duration `yaml:"request_interval"`
	WindowDays      int           `yaml:"window_days"`
}

// OllamaConfig points at the embedding backend.
type OllamaConfig struct {
	URL        string `yaml:"url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// IndexConfig holds the similarity index construction parameters.
type IndexConfig struct {
	M              int `yaml:"m"`
	EfConstruction int `yaml:"ef_construction"`
	Ef             int `yaml:"ef"`
	Headroom       int `yaml:"headroom"`
}

// ServeConfig controls the HTTP serving layer.
type ServeConfig struct {
	Addr string `yaml:"addr"`
}

const (
	// ConfigFile is the config file name under the data directory.
	ConfigFile = "config.yml"

	// DBFile is the SQLite database file name.
	DBFile = "papers.db"

	// ResumeFile holds the resume record of an interrupted window.
	ResumeFile = "resume.txt"

	// FailedFile is the failed-query log.
	FailedFile = "failed_queries.txt"

	// DefaultDataDir is used when no data directory is configured.
	DefaultDataDir = "."
)

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		DataDir: DefaultDataDir,
		Harvest: HarvestConfig{
			Categories:      []string{"cs.CL"},
			PageSize:        500,
			RetryLimit:      3,
			RetryBackoff:    5 * time.Second,
			RequestInterval: 3 * time.Second,
			WindowDays:      90,
		},
		Ollama: OllamaConfig{
			URL:        "http://localhost:11434",
			Model:      "all-minilm:l6-v2",
			Dimensions: 384,
		},
		Index: IndexConfig{
			M:              16,
			EfConstruction: 200,
			Ef:             50,
			Headroom:       0,
		},
		Serve: ServeConfig{
			Addr: ":8080",
		},
	}
}

// ConfigPath returns the path of the config file under dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, ConfigFile)
}

// DBPath returns the path of the paper database under dataDir.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, DBFile)
}

// ResumePath returns the path of the resume record under dataDir.
func ResumePath(dataDir string) string {
	return filepath.Join(dataDir, ResumeFile)
}

// FailedPath returns the path of the failed-query log under dataDir.
func FailedPath(dataDir string) string {
	return filepath.Join(dataDir, FailedFile)
}

// Load reads the config file under dataDir, filling unset fields with
// defaults. A missing file yields the defaults, not an error.
func Load(dataDir string) (*Config, error) {
	cfg := Default()
	cfg.DataDir = dataDir

	data, err := os.ReadFile(ConfigPath(dataDir))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	return cfg, nil
}

// Save writes the config file under dataDir.
func (c *Config) Save(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(dataDir), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
