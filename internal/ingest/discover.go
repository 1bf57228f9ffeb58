package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Discover expands paths into extraction files. Directories are searched
// recursively for *.json; files are taken as given. Hidden entries are
// ignored and the result is sorted with duplicates removed.
func Discover(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		out = append(out, path)
	}

	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			add(abs)
			continue
		}
		matches, err := doublestar.Glob(os.DirFS(abs), "**/*.json", doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", p, err)
		}
		for _, m := range matches {
			if hidden(m) {
				continue
			}
			add(filepath.Join(abs, filepath.FromSlash(m)))
		}
	}
	sort.Strings(out)
	return out, nil
}

func hidden(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
