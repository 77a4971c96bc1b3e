package fixtures

import (
	"context"
	"fmt"
	"io"
)

// Source yields the bundle the service seeds itself from.
type Source interface {
	Load(ctx context.Context) (Bundle, error)
}

// EmbeddedSource serves the bundle compiled into the binary.
type EmbeddedSource struct{}

// Load implements Source.
func (EmbeddedSource) Load(context.Context) (Bundle, error) {
	return Embedded()
}

// ObjectFetcher opens a stored object by key.
type ObjectFetcher interface {
	Fetch(ctx context.Context, key string) (io.ReadCloser, error)
}

// ObjectSource reads a bundle document from an object store.
type ObjectSource struct {
	Objects ObjectFetcher
	Key     string
}

// Load implements Source.
func (s ObjectSource) Load(ctx context.Context) (Bundle, error) {
	if s.Objects == nil {
		return Bundle{}, fmt.Errorf("fixture object store not configured")
	}

	body, err := s.Objects.Fetch(ctx, s.Key)
	if err != nil {
		return Bundle{}, fmt.Errorf("fetch fixture bundle %s: %w", s.Key, err)
	}
	defer body.Close()

	return Decode(body)
}
