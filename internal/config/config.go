package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LogDir string `toml:"log_dir"`
}

// ExifTool contains configuration for the metadata worker process.
type ExifTool struct {
	// Binary is the exiftool executable name or path.
	Binary string `toml:"binary"`
	// RoundTripTimeout bounds one persistent-mode request/response cycle, in seconds.
	RoundTripTimeout int `toml:"round_trip_timeout"`
	// OneShotTimeout bounds a fallback single-shot invocation, in seconds.
	// Fallback handles large files, so this is deliberately generous.
	OneShotTimeout int `toml:"one_shot_timeout"`
	// LockWrites serializes write round trips per target file across engine
	// processes using an advisory lock.
	LockWrites bool `toml:"lock_writes"`
}

// Journal contains configuration for the round-trip journal.
type Journal struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // Default: <log_dir>/journal.db
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for exifpipe.
type Config struct {
	Paths    Paths    `toml:"paths"`
	ExifTool ExifTool `toml:"exiftool"`
	Journal  Journal  `toml:"journal"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/exifpipe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("exifpipe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// Validate checks configuration invariants that normalization cannot repair.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ExifTool.Binary) == "" {
		return fmt.Errorf("exiftool.binary must not be empty")
	}
	if c.ExifTool.RoundTripTimeout <= 0 {
		return fmt.Errorf("exiftool.round_trip_timeout must be positive, got %d", c.ExifTool.RoundTripTimeout)
	}
	if c.ExifTool.OneShotTimeout <= 0 {
		return fmt.Errorf("exiftool.one_shot_timeout must be positive, got %d", c.ExifTool.OneShotTimeout)
	}
	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir}
	if c.Journal.Enabled && c.Journal.Path != "" {
		dirs = append(dirs, filepath.Dir(c.Journal.Path))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RoundTripTimeout returns the persistent round-trip deadline.
func (c *Config) RoundTripTimeout() time.Duration {
	return time.Duration(c.ExifTool.RoundTripTimeout) * time.Second
}

// OneShotTimeout returns the fallback invocation deadline.
func (c *Config) OneShotTimeout() time.Duration {
	return time.Duration(c.ExifTool.OneShotTimeout) * time.Second
}

// JournalPath returns the resolved journal database path.
func (c *Config) JournalPath() string {
	if strings.TrimSpace(c.Journal.Path) != "" {
		return c.Journal.Path
	}
	return filepath.Join(c.Paths.LogDir, "journal.db")
}

// WriteLockDir returns the directory holding per-target advisory locks.
func (c *Config) WriteLockDir() string {
	return filepath.Join(c.Paths.LogDir, "locks")
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.ExifTool.Binary = strings.TrimSpace(c.ExifTool.Binary)
	if c.ExifTool.Binary == "" {
		c.ExifTool.Binary = defaultExifToolBinary
	}
	if c.ExifTool.RoundTripTimeout == 0 {
		c.ExifTool.RoundTripTimeout = defaultRoundTripTimeout
	}
	if c.ExifTool.OneShotTimeout == 0 {
		c.ExifTool.OneShotTimeout = defaultOneShotTimeout
	}
	c.Journal.Path = strings.TrimSpace(c.Journal.Path)
	if c.Journal.Path != "" {
		if c.Journal.Path, err = expandPath(c.Journal.Path); err != nil {
			return fmt.Errorf("journal.path: %w", err)
		}
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// CreateSample writes the embedded sample configuration to the target path.
func CreateSample(target string) error {
	return os.WriteFile(target, []byte(sampleConfig), 0o644)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
