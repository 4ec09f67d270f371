// Package assets provides the byte sources model files are read from.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrNotFound is returned when no source holds the requested file.
var ErrNotFound = errors.New("asset not found")

// Source reads asset files by slash-separated relative name.
type Source interface {
	Read(name string) ([]byte, error)
}

// Lister is implemented by sources that can enumerate their files.
type Lister interface {
	List(ext string) ([]string, error)
}

// clean normalizes a name and rejects names escaping the source root.
func clean(name string) (string, error) {
	n := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))[1:]
	if n == "" || n == "." {
		return "", fmt.Errorf("invalid asset name %q", name)
	}
	return n, nil
}

// DirSource reads files below a root directory.
type DirSource struct {
	root string
}

// NewDirSource creates a source rooted at dir.
func NewDirSource(dir string) (*DirSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening asset dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("asset root %s is not a directory", dir)
	}
	return &DirSource{root: dir}, nil
}

// Root returns the directory the source reads from.
func (d *DirSource) Root() string {
	return d.root
}

// Read reads one file.
func (d *DirSource) Read(name string) ([]byte, error) {
	n, err := clean(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(d.root, filepath.FromSlash(n)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, n)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", n, err)
	}
	return data, nil
}

// List returns every file name with the given extension, sorted.
func (d *DirSource) List(ext string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(d.root, func(p string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if e.IsDir() || !strings.EqualFold(filepath.Ext(p), ext) {
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", d.root, err)
	}
	sort.Strings(out)
	return out, nil
}

// MemSource is an in-memory source, mostly for tests.
type MemSource map[string][]byte

// Read returns the named file.
func (m MemSource) Read(name string) ([]byte, error) {
	n, err := clean(name)
	if err != nil {
		return nil, err
	}
	data, ok := m[n]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, n)
	}
	return data, nil
}

// List returns every file name with the given extension, sorted.
func (m MemSource) List(ext string) ([]string, error) {
	var out []string
	for name := range m {
		if strings.EqualFold(path.Ext(name), ext) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Manager reads from several sources, last added first, with an optional
// cache in front.
type Manager struct {
	sources []Source
	cache   *Cache
	mu      sync.RWMutex
}

// NewManager creates a manager. A nil cache disables caching.
func NewManager(cache *Cache) *Manager {
	return &Manager{cache: cache}
}

// AddSource adds a source with the highest priority.
func (m *Manager) AddSource(s Source) {
	m.mu.Lock()
	m.sources = append(m.sources, s)
	m.mu.Unlock()
}

// AddDir adds a directory source.
func (m *Manager) AddDir(dir string) error {
	d, err := NewDirSource(dir)
	if err != nil {
		return err
	}
	m.AddSource(d)
	return nil
}

// Read reads a file from the first source that has it.
func (m *Manager) Read(name string) ([]byte, error) {
	key, err := clean(name)
	if err != nil {
		return nil, err
	}
	if m.cache != nil {
		if data, ok := m.cache.Get(key); ok {
			return data, nil
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.sources) - 1; i >= 0; i-- {
		data, err := m.sources[i].Read(key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if m.cache != nil {
			m.cache.Set(key, data)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
}

// List merges the listings of every source that supports it.
func (m *Manager) List(ext string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, s := range m.sources {
		l, ok := s.(Lister)
		if !ok {
			continue
		}
		names, err := l.List(ext)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// Close drops all sources and clears the cache.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources = nil
	if m.cache != nil {
		m.cache.Clear()
	}
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.RWMutex

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	data, ok := c.data[key]
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Len returns the number of cached files.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	return int(c.hits.Load()), int(c.misses.Load())
}
