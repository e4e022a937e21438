package config

import (
	"log"
	"os"
	"path/filepath"
	"sync"
)

// maxAncestry caps the directory walk so a symlink cycle on disk cannot
// recurse forever.
const maxAncestry = 64

// Resolver computes the effective configuration for a directory by merging
// every layer between the workspace root and that directory, child over
// parent. Results are memoized per directory; a directory without a local
// layer still gets a cache entry (a copy of its parent's), so resolving N
// siblings costs one ancestry walk, not N.
type Resolver struct {
	root     string
	defaults Config

	mu    sync.RWMutex
	cache map[string]Config
}

// NewResolver creates a Resolver bounded at the given workspace root.
func NewResolver(root string, defaults Config) *Resolver {
	return &Resolver{
		root:     filepath.ToSlash(filepath.Clean(root)),
		defaults: defaults,
		cache:    make(map[string]Config),
	}
}

// ConfigFor returns the effective configuration for the given directory.
// It never fails: absent any layer in the ancestry it returns the
// defaults, and a malformed layer degrades to "no layer here" with a
// logged warning.
func (r *Resolver) ConfigFor(dir string) Config {
	return r.resolve(filepath.ToSlash(filepath.Clean(dir)), 0)
}

func (r *Resolver) resolve(dir string, depth int) Config {
	if depth > maxAncestry {
		return r.defaults
	}

	r.mu.RLock()
	cached, ok := r.cache[dir]
	r.mu.RUnlock()
	if ok {
		return cached
	}

	parent := r.defaults
	if dir != r.root {
		parentDir := filepath.ToSlash(filepath.Dir(dir))
		if parentDir != dir {
			parent = r.resolve(parentDir, depth+1)
		}
	}

	resolved := parent
	if layer, err := os.ReadFile(filepath.Join(filepath.FromSlash(dir), ConfigFileName)); err == nil {
		merged, err := Merge(parent, layer)
		if err != nil {
			log.Printf("config: ignoring %s in %s: %v", ConfigFileName, dir, err)
		} else {
			resolved = merged
		}
	}

	// Racing fills recompute the same value; last write wins.
	r.mu.Lock()
	r.cache[dir] = resolved
	r.mu.Unlock()
	return resolved
}

// InvalidateAll drops every cached entry. A single layer edit can affect
// arbitrary descendants, so invalidation is workspace-wide.
func (r *Resolver) InvalidateAll() {
	r.mu.Lock()
	r.cache = make(map[string]Config)
	r.mu.Unlock()
}
