package artifact

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// FileMode is the permission of every file the cache or CopyFile writes.
const FileMode fs.FileMode = 0o644

// Cache is a directory of content-addressed artifacts.
type Cache struct {
	dir string
}

func NewCache(dir string) *Cache {
	if dir == "" {
		dir = "."
	}
	return &Cache{dir: dir}
}

func (c *Cache) Dir() string { return c.dir }

// Path returns where name lives in the cache.
func (c *Cache) Path(name string) string {
	return filepath.Join(c.dir, name)
}

// Lookup returns the entry for name if it is present.
func (c *Cache) Lookup(name string) (Entry, bool, error) {
	path := c.Path(name)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Entry{}, false, fmt.Errorf("cache entry %s is a directory", path)
	}
	return Entry{Name: name, Path: path, Origin: OriginCached, Size: info.Size()}, true, nil
}

// Write stores data under name atomically: readers see either no file or
// the complete file.
func (c *Cache) Write(name string, data []byte, origin Origin) (Entry, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return Entry{}, fmt.Errorf("create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, "."+name+".*.tmp")
	if err != nil {
		return Entry{}, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(FileMode); err != nil {
		tmp.Close()
		return Entry{}, fmt.Errorf("chmod %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return Entry{}, fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return Entry{}, fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return Entry{}, fmt.Errorf("close %s: %w", name, err)
	}
	return c.Commit(tmp.Name(), name, origin)
}

// PartialPath is the scratch path an external producer writes name to
// before Commit moves it into place.
func (c *Cache) PartialPath(name string) string {
	return filepath.Join(c.dir, "."+name+".partial")
}

// Commit renames a finished scratch file into its cache slot.
func (c *Cache) Commit(scratch, name string, origin Origin) (Entry, error) {
	path := c.Path(name)
	if err := os.Rename(scratch, path); err != nil {
		return Entry{}, fmt.Errorf("move %s into cache: %w", name, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return Entry{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return Entry{Name: name, Path: path, Origin: origin, Size: info.Size()}, nil
}

// CopyFile copies src to dst, replacing dst. The copy lands under a temp
// name first so dst is never observed half-written.
func CopyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(FileMode); err != nil {
		tmp.Close()
		return 0, err
	}
	n, err := io.Copy(tmp, in)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("copy %s: %w", src, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return 0, err
	}
	return n, nil
}
