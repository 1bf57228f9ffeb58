package testsupport

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// WriteText writes content to path, creating parent directories.
func WriteText(t testing.TB, path, content string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteDocx writes a minimal Word document with one paragraph per entry.
// An entry prefixed with "Title:" is written with the Title style.
func WriteDocx(t testing.TB, path string, paragraphs ...string) string {
	t.Helper()

	var body strings.Builder
	for _, p := range paragraphs {
		style := ""
		if rest, ok := strings.CutPrefix(p, "Title:"); ok {
			style = `<w:pPr><w:pStyle w:val="Title"/></w:pPr>`
			p = rest
		}
		fmt.Fprintf(&body, `<w:p>%s<w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, style, escape(t, p))
	}
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`
	writeZip(t, path, map[string]string{"word/document.xml": doc})
	return path
}

// WritePPTX writes a minimal slide deck. Each slide is a list of paragraphs.
func WritePPTX(t testing.TB, path string, slides ...[]string) string {
	t.Helper()

	files := make(map[string]string, len(slides))
	for i, paras := range slides {
		var body strings.Builder
		for _, p := range paras {
			fmt.Fprintf(&body, `<a:p><a:r><a:t>%s</a:t></a:r></a:p>`, escape(t, p))
		}
		files[fmt.Sprintf("ppt/slides/slide%d.xml", i+1)] = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
			`xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">` +
			`<p:cSld><p:spTree><p:sp><p:txBody>` + body.String() +
			`</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
	}
	writeZip(t, path, files)
	return path
}

// SetModTime adjusts a file's modification time.
func SetModTime(t testing.TB, path string, mtime time.Time) {
	t.Helper()

	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

// UnitLayout mirrors the corpus folder shape: <unit>/<booklet dir>/<file> with
// a sibling vocabulary folder.
type UnitLayout struct {
	UnitDir    string
	BookletDir string
	VocabDir   string
}

// NewUnitLayout creates an empty unit folder under a temp root.
func NewUnitLayout(t testing.TB, unit string) UnitLayout {
	t.Helper()

	root := t.TempDir()
	layout := UnitLayout{
		UnitDir:    filepath.Join(root, unit),
		BookletDir: filepath.Join(root, unit, "Booklets"),
		VocabDir:   filepath.Join(root, unit, "Vocab Lists"),
	}
	for _, dir := range []string{layout.BookletDir, layout.VocabDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	return layout
}

func writeZip(t testing.TB, path string, files map[string]string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close %s: %v", path, err)
	}
}

func escape(t testing.TB, s string) string {
	t.Helper()

	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		t.Fatalf("escape %q: %v", s, err)
	}
	return b.String()
}
