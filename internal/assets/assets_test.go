package assets

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pm0001/pm0001.trmdl", []byte("model"))
	writeFile(t, dir, "pm0001/pm0001.trmsh", []byte("mesh"))
	writeFile(t, dir, "pm0025/pm0025.TRMDL", []byte("model2"))

	src, err := NewDirSource(dir)
	if err != nil {
		t.Fatalf("NewDirSource() error = %v", err)
	}

	data, err := src.Read("pm0001/pm0001.trmdl")
	if err != nil || string(data) != "model" {
		t.Errorf("Read() = %q, %v", data, err)
	}
	if _, err := src.Read("pm0001/missing.trmsh"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file error = %v, want ErrNotFound", err)
	}

	names, err := src.List(".trmdl")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"pm0001/pm0001.trmdl", "pm0025/pm0025.TRMDL"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("List() = %v, want %v", names, want)
	}

	if _, err := NewDirSource(filepath.Join(dir, "nope")); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestDirSource_StaysInRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "root")
	writeFile(t, parent, "secret.txt", []byte("secret"))
	writeFile(t, root, "a.trmdl", []byte("a"))

	src, err := NewDirSource(root)
	if err != nil {
		t.Fatal(err)
	}
	if data, err := src.Read("../secret.txt"); err == nil {
		t.Errorf("read outside root: %q", data)
	}
	if _, err := src.Read(""); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestManagerPriorityAndCache(t *testing.T) {
	base := MemSource{"a.trmdl": []byte("base"), "b.trmdl": []byte("only base")}
	patch := MemSource{"a.trmdl": []byte("patch")}

	m := NewManager(NewCache())
	m.AddSource(base)
	m.AddSource(patch)

	data, err := m.Read("a.trmdl")
	if err != nil || string(data) != "patch" {
		t.Errorf("Read(a) = %q, %v; want patch", data, err)
	}
	data, err = m.Read("./b.trmdl")
	if err != nil || string(data) != "only base" {
		t.Errorf("Read(b) = %q, %v", data, err)
	}

	// Served from cache even after the source changes.
	patch["a.trmdl"] = []byte("changed")
	data, _ = m.Read("a.trmdl")
	if string(data) != "patch" {
		t.Errorf("cached Read(a) = %q", data)
	}
	hits, misses := m.cache.Stats()
	if hits != 1 || misses != 2 {
		t.Errorf("Stats() = %d hits, %d misses; want 1, 2", hits, misses)
	}

	if _, err := m.Read("c.trmdl"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read(c) error = %v, want ErrNotFound", err)
	}

	names, err := m.List(".trmdl")
	if err != nil || !reflect.DeepEqual(names, []string{"a.trmdl", "b.trmdl"}) {
		t.Errorf("List() = %v, %v", names, err)
	}

	m.Close()
	if m.cache.Len() != 0 {
		t.Error("Close() did not clear cache")
	}
}

func TestManagerWithoutCache(t *testing.T) {
	src := MemSource{"a.trmdl": []byte("v1")}
	m := NewManager(nil)
	m.AddSource(src)

	_, _ = m.Read("a.trmdl")
	src["a.trmdl"] = []byte("v2")
	data, _ := m.Read("a.trmdl")
	if string(data) != "v2" {
		t.Errorf("uncached Read() = %q, want v2", data)
	}
}

func TestCacheConcurrent(t *testing.T) {
	c := NewCache()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set("k", []byte{byte(j)})
				c.Get("k")
				c.Get("missing")
			}
		}()
	}
	wg.Wait()

	hits, misses := c.Stats()
	if hits != 800 || misses != 800 {
		t.Errorf("Stats() = %d, %d; want 800, 800", hits, misses)
	}
}
