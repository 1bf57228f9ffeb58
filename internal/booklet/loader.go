package booklet

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	gocache "github.com/patrickmn/go-cache"
)

// ErrUnsupported indicates a source file the loader cannot read as a booklet.
var ErrUnsupported = errors.New("unsupported booklet format")

// Loader reads booklets and keeps parsed documents for the rest of the run,
// since audit search revisits the same source once per missed term.
type Loader struct {
	docs *gocache.Cache
}

type cachedDoc struct {
	doc *Document
	err error
}

// NewLoader returns an empty loader.
func NewLoader() *Loader {
	return &Loader{docs: gocache.New(gocache.NoExpiration, 0)}
}

// Open returns the document at path. Only .pptx files are read directly.
func (l *Loader) Open(path string) (*Document, error) {
	if v, ok := l.docs.Get(path); ok {
		hit := v.(cachedDoc)
		return hit.doc, hit.err
	}
	var (
		doc *Document
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".pptx") {
		doc, err = ReadPPTX(path)
	} else {
		err = fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
	l.docs.Set(path, cachedDoc{doc: doc, err: err}, gocache.NoExpiration)
	return doc, err
}
