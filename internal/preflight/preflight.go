package preflight

import (
	"path/filepath"
	"strings"

	"owlmap/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes the directory checks that apply to cfg. Optional paths are
// only checked when configured.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Store directory", filepath.Dir(cfg.Paths.Database)),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
	}
	if strings.TrimSpace(cfg.Paths.LogDir) != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	if strings.TrimSpace(cfg.Paths.CorpusRoot) != "" {
		results = append(results, CheckDirectoryReadable("Corpus root", cfg.Paths.CorpusRoot))
	}
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
