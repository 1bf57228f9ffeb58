package vocab

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
)

// Format identifies a vocabulary source encoding.
type Format string

const (
	FormatText Format = "text"
	FormatDocx Format = "docx"
	FormatYAML Format = "yaml"
)

// titleLength is the length above which a leading unscoped line is taken to be
// the document title rather than a term.
const titleLength = 40

var (
	chapterPattern    = regexp.MustCompile(`(?i)^Chapter\s+(\d+)`)
	enumeratorPattern = regexp.MustCompile(`^(\d+)\.\s+(.+)$`)
	listMarker        = regexp.MustCompile(`^(?:[-*+\x{2022}]|\d+\))\s+`)
)

// FormatForPath infers the source format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown":
		return FormatText, nil
	case ".docx":
		return FormatDocx, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported vocabulary format %q", filepath.Ext(path))
	}
}

// paragraph is one line of source text plus the style it was authored with,
// when the format carries styles.
type paragraph struct {
	text  string
	style string
}

// Build parses r as the given format. source names the document in errors
// and in Index.Source.
func Build(r io.Reader, format Format, source string) (*Index, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, parseErr(source, "unreadable", err)
	}
	switch format {
	case FormatText:
		return indexParagraphs(source, textParagraphs(data))
	case FormatDocx:
		paras, err := docxParagraphs(data)
		if err != nil {
			return nil, parseErr(source, "unreadable word document", err)
		}
		return indexParagraphs(source, paras)
	case FormatYAML:
		return indexYAML(source, data)
	default:
		return nil, fmt.Errorf("build vocabulary index: unknown format %q", format)
	}
}

func textParagraphs(data []byte) []paragraph {
	var out []paragraph
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		style := ""
		if strings.HasPrefix(line, "#") {
			style = "Heading"
			line = strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
		line = listMarker.ReplaceAllString(line, "")
		out = append(out, paragraph{text: line, style: style})
	}
	return out
}

// chapterLabel reports whether text opens a chapter and returns its label.
func chapterLabel(text string) (string, bool) {
	if m := chapterPattern.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	if m := enumeratorPattern.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	return "", false
}

func isTitleStyle(style string) bool {
	switch style {
	case "Title", "Heading1", "Heading 1", "Heading2", "Heading 2", "Heading":
		return true
	}
	return false
}

func indexParagraphs(source string, paras []paragraph) (*Index, error) {
	ix := newIndex(source)
	current := UnscopedChapter
	markers := 0
	nonEmpty := 0
	termsSeen := 0

	for _, p := range paras {
		text := strings.TrimSpace(p.text)
		if text == "" {
			continue
		}
		nonEmpty++
		if label, ok := chapterLabel(text); ok {
			current = label
			markers++
			ix.openChapter(label)
			continue
		}
		if current == UnscopedChapter && termsSeen == 0 {
			if len(text) > titleLength || isTitleStyle(p.style) {
				continue
			}
		}
		ix.add(current, text)
		termsSeen++
	}

	if nonEmpty == 0 {
		return nil, parseErr(source, "empty document", nil)
	}
	if markers == 0 && termsSeen > 0 {
		return nil, parseErr(source, "no chapter markers found", nil)
	}
	return ix, nil
}
