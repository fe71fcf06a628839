package catalog

import "context"

// Source loads the pricing catalog. Implementations must return a fully
// validated catalog; the service loads it once at startup.
type Source interface {
	Load(ctx context.Context) (*Catalog, error)
}

type staticSource struct {
	catalog *Catalog
}

// NewStaticSource returns a Source that always serves the given catalog.
// Panics on nil to fail fast during initialization.
func NewStaticSource(c *Catalog) Source {
	if c == nil {
		panic("catalog: static source requires a catalog")
	}
	return &staticSource{catalog: c}
}

func (s *staticSource) Load(ctx context.Context) (*Catalog, error) {
	return s.catalog, nil
}
