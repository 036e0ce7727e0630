package catalog

import (
	"context"
	"fmt"
	"os"

	"gearbot/internal/obs"
)

// Store hands out catalog snapshots. On failure it returns an empty catalog
// together with an error wrapping ErrUnavailable, so callers can always render.
type Store interface {
	Load(ctx context.Context) (*Catalog, error)
}

// StoreFunc adapts a function to Store.
type StoreFunc func(ctx context.Context) (*Catalog, error)

// Load calls f.
func (f StoreFunc) Load(ctx context.Context) (*Catalog, error) { return f(ctx) }

// Static returns a Store that always serves c.
func Static(c *Catalog) Store {
	return StoreFunc(func(context.Context) (*Catalog, error) { return c, nil })
}

// FileStore re-reads and decodes the document on every Load.
type FileStore struct {
	path string
}

// NewFileStore returns a store reading path on each query.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads and decodes the catalog file.
func (s *FileStore) Load(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return Empty(), fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	c, err := readFile(s.path)
	if err != nil {
		obs.Logger.Error("catalog_load_failed", "path", s.path, "error", err)
		return Empty(), fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return c, nil
}

func readFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	c.source = path
	return c, nil
}
