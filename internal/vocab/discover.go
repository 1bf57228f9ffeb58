package vocab

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Discoverer locates the vocabulary list that belongs to a booklet.
type Discoverer struct {
	// DirKeyword selects sibling directories of the booklet folder.
	DirKeyword string
	// Extensions lists accepted file extensions, lowercase with leading dot.
	Extensions []string
	// PreferChapterOrdered picks chapter-ordered lists over A-Z variants.
	PreferChapterOrdered bool
}

type candidate struct {
	path  string
	mtime time.Time
	az    bool
}

// Find returns the vocabulary file for the booklet at bookletPath. Sibling
// directories of the booklet's folder whose name contains DirKeyword are
// searched recursively for files whose name also contains it.
func (d Discoverer) Find(bookletPath string) (string, error) {
	if strings.TrimSpace(bookletPath) == "" {
		return "", fmt.Errorf("%w: booklet path unknown", ErrSourceNotFound)
	}
	keyword := strings.ToLower(d.DirKeyword)
	if keyword == "" {
		keyword = "vocab"
	}
	unitDir := filepath.Dir(filepath.Dir(bookletPath))
	entries, err := os.ReadDir(unitDir)
	if err != nil {
		return "", fmt.Errorf("%w: read unit folder %s: %v", ErrSourceNotFound, unitDir, err)
	}

	var found []candidate
	for _, entry := range entries {
		if !entry.IsDir() || !strings.Contains(strings.ToLower(entry.Name()), keyword) {
			continue
		}
		dir := filepath.Join(unitDir, entry.Name())
		matches, err := doublestar.Glob(os.DirFS(dir), "**/*", doublestar.WithFilesOnly())
		if err != nil {
			return "", fmt.Errorf("glob vocabulary folder %s: %w", dir, err)
		}
		for _, rel := range matches {
			name := filepath.Base(rel)
			lower := strings.ToLower(name)
			if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
				continue
			}
			if !strings.Contains(lower, keyword) || !d.accepts(lower) {
				continue
			}
			full := filepath.Join(dir, filepath.FromSlash(rel))
			info, err := os.Stat(full)
			if err != nil {
				continue
			}
			found = append(found, candidate{path: full, mtime: info.ModTime(), az: isAZ(lower)})
		}
	}

	if d.PreferChapterOrdered {
		chapterOrdered := slices.DeleteFunc(slices.Clone(found), func(c candidate) bool { return c.az })
		if len(chapterOrdered) > 0 {
			found = chapterOrdered
		}
	}
	if len(found) == 0 {
		return "", fmt.Errorf("%w: no vocabulary list near %s", ErrSourceNotFound, bookletPath)
	}

	best := slices.MaxFunc(found, func(a, b candidate) int {
		if c := a.mtime.Compare(b.mtime); c != 0 {
			return c
		}
		return strings.Compare(b.path, a.path)
	})
	return best.path, nil
}

func (d Discoverer) accepts(lowerName string) bool {
	ext := filepath.Ext(lowerName)
	if len(d.Extensions) == 0 {
		_, err := FormatForPath(lowerName)
		return err == nil
	}
	return slices.Contains(d.Extensions, ext)
}

func isAZ(lowerName string) bool {
	return strings.HasPrefix(lowerName, "a-z") ||
		strings.Contains(lowerName, " a-z") ||
		strings.Contains(lowerName, "_a-z")
}

