// Package storage reads and removes uploaded statement files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
)

// ErrUnsupportedScheme is returned for locations no backend handles.
var ErrUnsupportedScheme = errors.New("unsupported storage scheme")

// Backend is one storage implementation addressed by URL.
type Backend interface {
	Open(ctx context.Context, location *url.URL) (io.ReadCloser, error)
	Delete(ctx context.Context, location *url.URL) error
}

// Router implements usecase.FileStore by dispatching on the location's
// URL scheme. A location without a scheme is treated as file://.
type Router struct {
	backends map[string]Backend
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{backends: make(map[string]Backend)}
}

// Register binds a backend to a scheme.
func (r *Router) Register(scheme string, b Backend) {
	r.backends[scheme] = b
}

// Open opens the object at location.
func (r *Router) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	u, b, err := r.resolve(location)
	if err != nil {
		return nil, err
	}
	return b.Open(ctx, u)
}

// Delete removes the object at location.
func (r *Router) Delete(ctx context.Context, location string) error {
	u, b, err := r.resolve(location)
	if err != nil {
		return err
	}
	return b.Delete(ctx, u)
}

func (r *Router) resolve(location string) (*url.URL, Backend, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, nil, fmt.Errorf("parse location %q: %w", location, err)
	}

	scheme := u.Scheme
	if scheme == "" {
		scheme = "file"
	}

	b, ok := r.backends[scheme]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
	}

	return u, b, nil
}
