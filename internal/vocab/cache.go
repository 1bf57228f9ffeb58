package vocab

import (
	"errors"

	gocache "github.com/patrickmn/go-cache"
)

// Cache memoizes discovery and parsing for the lifetime of one run. Missing
// and malformed sources are cached too so a unit is reported once.
type Cache struct {
	discoverer Discoverer
	indices    *gocache.Cache
	located    *gocache.Cache
}

type cachedIndex struct {
	index *Index
	err   error
}

type cachedPath struct {
	path string
	err  error
}

// NewCache returns a cache backed by discoverer.
func NewCache(discoverer Discoverer) *Cache {
	return &Cache{
		discoverer: discoverer,
		indices:    gocache.New(gocache.NoExpiration, 0),
		located:    gocache.New(gocache.NoExpiration, 0),
	}
}

// Locate returns the vocabulary path for a booklet.
func (c *Cache) Locate(bookletPath string) (string, error) {
	if v, ok := c.located.Get(bookletPath); ok {
		hit := v.(cachedPath)
		return hit.path, hit.err
	}
	path, err := c.discoverer.Find(bookletPath)
	c.located.Set(bookletPath, cachedPath{path: path, err: err}, gocache.NoExpiration)
	return path, err
}

// Load returns the parsed index at path.
func (c *Cache) Load(path string) (*Index, error) {
	if v, ok := c.indices.Get(path); ok {
		hit := v.(cachedIndex)
		return hit.index, hit.err
	}
	ix, err := Load(path)
	c.indices.Set(path, cachedIndex{index: ix, err: err}, gocache.NoExpiration)
	return ix, err
}

// ForBooklet locates and loads the vocabulary for a booklet. An explicit
// override path bypasses discovery.
func (c *Cache) ForBooklet(bookletPath, override string) (*Index, error) {
	path := override
	if path == "" {
		var err error
		if path, err = c.Locate(bookletPath); err != nil {
			return nil, err
		}
	}
	ix, err := c.Load(path)
	if err != nil && !errors.Is(err, ErrSourceNotFound) && !errors.Is(err, ErrParse) {
		return nil, &ParseError{Source: path, Reason: "unreadable", Err: err}
	}
	return ix, err
}

// Flush drops all cached entries.
func (c *Cache) Flush() {
	c.indices.Flush()
	c.located.Flush()
}
