package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	merrors "github.com/solace-labs/memoria/internal/errors"
)

// SemanticIndexConfig tunes the HNSW-backed semantic index.
type SemanticIndexConfig struct {
	Dimensions     int    `yaml:"dimensions"`
	MaxElements    int    `yaml:"maxElements"`
	M              int    `yaml:"m"`
	EfConstruction int    `yaml:"efConstruction"`
	EfSearch       int    `yaml:"efSearch"`
	Model          string `yaml:"model"`
}

// LoggingConfig controls the engine's structured logger.
type LoggingConfig struct {
	Level         string `yaml:"level"`
	FilePath      string `yaml:"filePath"`
	MaxSizeMB     int    `yaml:"maxSizeMB"`
	MaxFiles      int    `yaml:"maxFiles"`
	WriteToStderr bool   `yaml:"writeToStderr"`
}

// Config is memoria's top-level engine configuration.
type Config struct {
	DataDir       string               `yaml:"dataDir"`
	SemanticIndex SemanticIndexConfig  `yaml:"semanticIndex"`
	Logging       LoggingConfig        `yaml:"logging"`
}

const configFileName = ".memoria.yaml"

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	home, err := os.UserHomeDir()
	dataDir := filepath.Join(os.TempDir(), "memoria", "data")
	if err == nil {
		dataDir = filepath.Join(home, ".memoria", "data")
	}

	return &Config{
		DataDir: dataDir,
		SemanticIndex: SemanticIndexConfig{
			Dimensions:     384,
			MaxElements:    10000,
			M:              16,
			EfConstruction: 100,
			EfSearch:       50,
			Model:          "hash-ngram-v1",
		},
		Logging: LoggingConfig{
			Level:         "info",
			FilePath:      "",
			MaxSizeMB:     10,
			MaxFiles:      5,
			WriteToStderr: false,
		},
	}
}

// GetUserConfigPath returns the path memoria checks for a user-level config
// file, honoring XDG_CONFIG_HOME when set.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "memoria", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "memoria", "config.yaml")
	}
	return filepath.Join(home, ".config", "memoria", "config.yaml")
}

// Load builds a Config by layering, in order of increasing precedence:
// built-in defaults, the user config file (if present), a project-local
// .memoria.yaml in dir (if present), and environment variable overrides.
// The merged config is validated before being returned.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := mergeFromFile(cfg, userPath); err != nil {
			return nil, err
		}
	}

	if dir != "" {
		projectPath := filepath.Join(dir, configFileName)
		if fileExists(projectPath) {
			if err := mergeFromFile(cfg, projectPath); err != nil {
				return nil, err
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func mergeFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return merrors.IOError("failed to read config file "+path, err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return merrors.InvalidFormat("config file "+path+" is not valid YAML", err)
	}

	mergeWith(cfg, &loaded)
	return nil
}

// mergeWith copies every non-zero field of other into cfg: an unset field in
// the overriding layer leaves the base value untouched, so each config layer
// only needs to specify what it changes.
func mergeWith(cfg *Config, other *Config) {
	if other.DataDir != "" {
		cfg.DataDir = other.DataDir
	}

	si := other.SemanticIndex
	if si.Dimensions != 0 {
		cfg.SemanticIndex.Dimensions = si.Dimensions
	}
	if si.MaxElements != 0 {
		cfg.SemanticIndex.MaxElements = si.MaxElements
	}
	if si.M != 0 {
		cfg.SemanticIndex.M = si.M
	}
	if si.EfConstruction != 0 {
		cfg.SemanticIndex.EfConstruction = si.EfConstruction
	}
	if si.EfSearch != 0 {
		cfg.SemanticIndex.EfSearch = si.EfSearch
	}
	if si.Model != "" {
		cfg.SemanticIndex.Model = si.Model
	}

	lg := other.Logging
	if lg.Level != "" {
		cfg.Logging.Level = lg.Level
	}
	if lg.FilePath != "" {
		cfg.Logging.FilePath = lg.FilePath
	}
	if lg.MaxSizeMB != 0 {
		cfg.Logging.MaxSizeMB = lg.MaxSizeMB
	}
	if lg.MaxFiles != 0 {
		cfg.Logging.MaxFiles = lg.MaxFiles
	}
	if lg.WriteToStderr {
		cfg.Logging.WriteToStderr = lg.WriteToStderr
	}
}

// applyEnvOverrides layers environment variables on top of the file-derived
// config. Environment variables always win; they're the last step of Load.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MEMORIA_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("MEMORIA_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("MEMORIA_LOG_FILE"); v != "" {
		cfg.Logging.FilePath = v
	}
	if v := os.Getenv("MEMORIA_MAX_ELEMENTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SemanticIndex.MaxElements = n
		}
	}
}

// Validate checks the config for values the engine cannot operate with.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return merrors.MissingRequiredField("dataDir")
	}
	if c.SemanticIndex.Dimensions <= 0 {
		return merrors.InvalidFormat("semanticIndex.dimensions must be positive", nil)
	}
	if c.SemanticIndex.MaxElements <= 0 {
		return merrors.InvalidFormat("semanticIndex.maxElements must be positive", nil)
	}
	if c.SemanticIndex.M <= 0 {
		return merrors.InvalidFormat("semanticIndex.m must be positive", nil)
	}
	if c.SemanticIndex.EfConstruction <= 0 {
		return merrors.InvalidFormat("semanticIndex.efConstruction must be positive", nil)
	}
	if c.SemanticIndex.EfSearch <= 0 {
		return merrors.InvalidFormat("semanticIndex.efSearch must be positive", nil)
	}
	return nil
}

// LogFilePath resolves the effective log file path, defaulting to a file
// inside DataDir when Logging.FilePath is unset.
func (c *Config) LogFilePath() string {
	if c.Logging.FilePath != "" {
		return c.Logging.FilePath
	}
	return filepath.Join(c.DataDir, "logs", "memoria.log")
}
