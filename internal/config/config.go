// Package config manages labelctl configuration and the .labelctl directory
// structure. It handles loading, saving, and initializing the project
// configuration including the closed label schema.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	LabelctlDir    = ".labelctl"
	ConfigFile     = "config"
	DatabaseFile   = "labelctl.db"
	SnapshotsDir   = "snapshots"
	BatchesDir     = "batches"
	TrainingDir    = "training"
	TrainingFile   = "ft_data.jsonl"
	EvaluationsDir = "evaluations"
)

// Label is one entry of the closed label schema.
type Label struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
}

// Classifier holds settings for the external classifier service.
type Classifier struct {
	Model      string `toml:"model"`
	APIKeyEnv  string `toml:"api_key_env"`
	BaseURL    string `toml:"base_url"`
	TimeoutSec int    `toml:"timeout_sec"`
	MaxRetries int    `toml:"max_retries"`
}

// Batch holds default batch selection settings.
type Batch struct {
	Size        int    `toml:"size"`
	Strategy    string `toml:"strategy"`
	MaxExamples int    `toml:"max_examples"`
	RandomSeed  int64  `toml:"random_seed"`
}

// Retention controls how many batch artifacts are kept by prune.
type Retention struct {
	KeepBatches int `toml:"keep_batches"`
}

// Config represents the labelctl project configuration.
// The label schema is loaded once and treated as immutable for the
// process lifetime.
type Config struct {
	Labels     []Label    `toml:"labels"`
	Classifier Classifier `toml:"classifier"`
	Batch      Batch      `toml:"batch"`
	Retention  Retention  `toml:"retention"`

	path string // path to .labelctl directory
}

// FindRoot finds the .labelctl directory by walking up from the current directory.
func FindRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		path := filepath.Join(dir, LabelctlDir)
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not a labelctl project (or any parent up to root)")
		}
		dir = parent
	}
}

// Load loads the configuration from the .labelctl directory and validates
// the label schema.
func Load() (*Config, error) {
	path, err := FindRoot()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from a specific .labelctl directory.
func LoadFrom(path string) (*Config, error) {
	configPath := filepath.Join(path, ConfigFile)
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.path = path
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save saves the configuration to disk.
func (c *Config) Save() error {
	configPath := filepath.Join(c.path, ConfigFile)
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

func (c *Config) applyDefaults() {
	if c.Classifier.Model == "" {
		c.Classifier.Model = "gpt-4.1"
	}
	if c.Classifier.APIKeyEnv == "" {
		c.Classifier.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.Classifier.TimeoutSec == 0 {
		c.Classifier.TimeoutSec = 60
	}
	if c.Classifier.MaxRetries == 0 {
		c.Classifier.MaxRetries = 3
	}
	if c.Batch.Size == 0 {
		c.Batch.Size = 10
	}
	if c.Batch.Strategy == "" {
		c.Batch.Strategy = "longest"
	}
	if c.Batch.MaxExamples == 0 {
		c.Batch.MaxExamples = 30
	}
	if c.Batch.RandomSeed == 0 {
		c.Batch.RandomSeed = 42
	}
	if c.Retention.KeepBatches == 0 {
		c.Retention.KeepBatches = 3
	}
}

func (c *Config) validate() error {
	if len(c.Labels) == 0 {
		return fmt.Errorf("no labels defined in config")
	}
	seen := make(map[string]bool, len(c.Labels))
	for _, l := range c.Labels {
		if l.Name == "" {
			return fmt.Errorf("label with empty name in config")
		}
		if l.Name == "id" || l.Name == "text" {
			return fmt.Errorf("label name %q collides with a reserved record field", l.Name)
		}
		if seen[l.Name] {
			return fmt.Errorf("duplicate label %q in config", l.Name)
		}
		seen[l.Name] = true
	}
	return nil
}

// LabelNames returns the names of the closed label set, in schema order.
func (c *Config) LabelNames() []string {
	names := make([]string, len(c.Labels))
	for i, l := range c.Labels {
		names[i] = l.Name
	}
	return names
}

// Definitions returns label name → description, in schema order alongside
// LabelNames.
func (c *Config) Definitions() map[string]string {
	defs := make(map[string]string, len(c.Labels))
	for _, l := range c.Labels {
		defs[l.Name] = l.Description
	}
	return defs
}

// Path returns the path to the .labelctl directory.
func (c *Config) Path() string {
	return c.path
}

// DatabasePath returns the path to the sidecar index database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.path, DatabaseFile)
}

// SnapshotsPath returns the path to the snapshots directory.
func (c *Config) SnapshotsPath() string {
	return filepath.Join(c.path, SnapshotsDir)
}

// BatchesPath returns the path to the batches directory.
func (c *Config) BatchesPath() string {
	return filepath.Join(c.path, BatchesDir)
}

// TrainingPath returns the path to the training-example export file.
func (c *Config) TrainingPath() string {
	return filepath.Join(c.path, TrainingDir, TrainingFile)
}

// EvaluationsPath returns the path to the evaluation predictions directory.
func (c *Config) EvaluationsPath() string {
	return filepath.Join(c.path, EvaluationsDir)
}

// Initialize creates a new .labelctl directory with initial configuration.
func Initialize(labels []Label) (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return InitializeAt(cwd, labels)
}

// InitializeAt creates a new .labelctl directory under the given directory.
func InitializeAt(dir string, labels []Label) (*Config, error) {
	path := filepath.Join(dir, LabelctlDir)

	// Check if already initialized
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("labelctl project already exists")
	}

	for _, sub := range []string{"", SnapshotsDir, BatchesDir, TrainingDir, EvaluationsDir} {
		if err := os.MkdirAll(filepath.Join(path, sub), 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", filepath.Join(LabelctlDir, sub), err)
		}
	}

	cfg := &Config{
		Labels: labels,
		path:   path,
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		os.RemoveAll(path)
		return nil, err
	}

	if err := cfg.Save(); err != nil {
		// Cleanup on failure
		os.RemoveAll(path)
		return nil, err
	}

	return cfg, nil
}
