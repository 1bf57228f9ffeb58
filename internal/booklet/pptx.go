package booklet

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
)

const drawingNS = "http://schemas.openxmlformats.org/drawingml/2006/main"

// ErrNoSlides indicates an archive without slide parts.
var ErrNoSlides = errors.New("presentation has no slides")

// ReadPPTX extracts paragraph text from every slide of a .pptx file. Slides
// are ordered by their part number.
func ReadPPTX(filename string) (*Document, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("open pptx %s: %w", filename, err)
	}
	defer zr.Close()

	type part struct {
		number int
		file   *zip.File
	}
	var parts []part
	for _, f := range zr.File {
		dir, name := path.Split(f.Name)
		if dir != "ppt/slides/" || !strings.HasPrefix(name, "slide") || !strings.HasSuffix(name, ".xml") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "slide"), ".xml"))
		if err != nil {
			continue
		}
		parts = append(parts, part{number: n, file: f})
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("read pptx %s: %w", filename, ErrNoSlides)
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].number < parts[j].number })

	doc := &Document{Source: filename, Slides: make([]Slide, 0, len(parts))}
	for _, p := range parts {
		paras, err := slideParagraphs(p.file)
		if err != nil {
			return nil, fmt.Errorf("read %s in %s: %w", p.file.Name, filename, err)
		}
		doc.Slides = append(doc.Slides, Slide{Index: p.number, Paragraphs: paras})
	}
	return doc, nil
}

// slideParagraphs joins the a:t runs of each a:p into one string.
func slideParagraphs(f *zip.File) ([]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var (
		out    []string
		buf    strings.Builder
		depth  int
		inText bool
	)
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != drawingNS {
				continue
			}
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					buf.Reset()
				}
				depth++
			case "t":
				inText = true
			case "br":
				buf.WriteByte(' ')
			}
		case xml.EndElement:
			if t.Name.Space != drawingNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				depth--
				if depth == 0 {
					if text := buf.String(); strings.TrimSpace(text) != "" {
						out = append(out, text)
					}
				}
			}
		case xml.CharData:
			if depth > 0 && inText {
				buf.Write(t)
			}
		}
	}
}
