package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"owlmap/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations.
type Paths struct {
	Database   string `toml:"database"`
	OutputDir  string `toml:"output_dir"`
	CorpusRoot string `toml:"corpus_root"`
	LogDir     string `toml:"log_dir"`
}

// Matching contains thresholds for vocabulary matching and extraction flags.
type Matching struct {
	// FuzzyThreshold is the minimum similarity for the fuzzy tier. Default: 0.90
	FuzzyThreshold float64 `toml:"fuzzy_threshold"`
	// FuzzyConfidence is the confidence recorded for fuzzy matches. Default: 0.8
	FuzzyConfidence float64 `toml:"fuzzy_confidence"`
	// ShortTermLength flags terms with fewer characters than this. Default: 5
	ShortTermLength int `toml:"short_term_length"`
	// ShortContextLength flags surrounding text shorter than this. Default: 12
	ShortContextLength int `toml:"short_context_length"`
}

// Vocab contains vocabulary list discovery settings.
type Vocab struct {
	DirKeyword     string   `toml:"dir_keyword"`
	FileExtensions []string `toml:"file_extensions"`
	PreferChapterOrdered bool `toml:"prefer_chapter_ordered"`
}

// Audit contains audit and decision log file names, relative to output_dir.
type Audit struct {
	AuditFile       string `toml:"audit_file"`
	DecisionLogFile string `toml:"decision_log_file"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for owlmap.
//
// Configuration sections by subsystem:
//   - Paths: store file, output directory, corpus root and logs
//   - Matching: fuzzy tier and extraction flag thresholds
//   - Vocab: vocabulary list discovery
//   - Audit: audit CSV and decision log file names
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Matching Matching `toml:"matching"`
	Vocab    Vocab    `toml:"vocab"`
	Audit    Audit    `toml:"audit"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/owlmap/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
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

	projectPath, err := filepath.Abs("owlmap.toml")
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

// EnsureDirectories creates the output and log directories. The store's parent
// directory is deliberately not created: a missing store is a setup failure.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// AuditPath returns the absolute path of the audit CSV.
func (c *Config) AuditPath() string {
	return c.outputFile(c.Audit.AuditFile)
}

// DecisionLogPath returns the absolute path of the append-only decision log.
func (c *Config) DecisionLogPath() string {
	return c.outputFile(c.Audit.DecisionLogFile)
}

func (c *Config) outputFile(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Paths.OutputDir, name)
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

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	err := fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		_, err := io.WriteString(w, sampleConfig)
		return err
	})
	if err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
