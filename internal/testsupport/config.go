package testsupport

import (
	"path/filepath"
	"testing"

	"owlmap/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.Database = filepath.Join(base, "data", "owl_knowledge_map.db")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.CorpusRoot = filepath.Join(base, "corpus")
	cfgVal.Paths.LogDir = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithCorpusRoot points the config at an existing corpus directory.
func WithCorpusRoot(dir string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.CorpusRoot = dir
	}
}

// WithFuzzyThreshold overrides the fuzzy match threshold.
func WithFuzzyThreshold(threshold float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Matching.FuzzyThreshold = threshold
	}
}

// WithLogDir enables file logging under the temp directory.
func WithLogDir() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.LogDir = filepath.Join(b.baseDir, "logs")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
