// Package upload stores grading artifacts (diagnostic files, reports) in
// remote object storage.
package upload

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

// Provider is an object store backend.
type Provider interface {
	// Configure validates settings and connects to the backend.
	Configure(ctx context.Context, config map[string]any) error

	// Upload streams r to key.
	Upload(ctx context.Context, r io.Reader, key string) error

	Name() string
}

// Factory creates an unconfigured provider.
type Factory func() Provider

var (
	mu        sync.RWMutex
	factories = map[string]Factory{
		"minio": func() Provider { return NewMinioProvider() },
	}
)

// Register makes a provider available under name, replacing any previous
// registration.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = factory
}

// New returns an unconfigured provider by name.
func New(name string) (Provider, error) {
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown upload provider %q (available: %v)", name, Names())
	}
	return factory(), nil
}

// Names lists registered providers.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
