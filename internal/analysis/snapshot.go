package analysis

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mrz1836/go-pranalyzer/internal/cache"
	appErrors "github.com/mrz1836/go-pranalyzer/internal/errors"
)

// SnapshotCacheSize bounds the number of file contents kept per context.
const SnapshotCacheSize = 256

type fileContent struct {
	data  string
	found bool
}

type snapshotState struct {
	base  string
	head  string
	cache *cache.Cache[fileContent]
	final CacheStats
}

// CacheStats describes snapshot reads served by the content cache.
type CacheStats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Entries int     `json:"entries"`
	HitRate float64 `json:"hit_rate"`
}

func statsOf(fc *cache.Cache[fileContent]) CacheStats {
	hits, misses, size, rate := fc.Stats()
	return CacheStats{Hits: hits, Misses: misses, Entries: size, HitRate: rate}
}

// SnapshotCacheStats reports the snapshot cache counters. After Close it
// returns the counters captured when the cache was released.
func (c *Context) SnapshotCacheStats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.snapshots.cache == nil {
		return c.snapshots.final
	}
	return statsOf(c.snapshots.cache)
}

// SetBaseSnapshot sets the directory holding the base branch checkout.
func (c *Context) SetBaseSnapshot(dir string) error {
	return c.setSnapshot(dir, func(s *snapshotState, abs string) { s.base = abs })
}

// SetHeadSnapshot sets the directory holding the head branch checkout.
func (c *Context) SetHeadSnapshot(dir string) error {
	return c.setSnapshot(dir, func(s *snapshotState, abs string) { s.head = abs })
}

func (c *Context) setSnapshot(dir string, assign func(*snapshotState, string)) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", appErrors.ErrSnapshotMissing, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", appErrors.ErrSnapshotMissing, dir)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return appErrors.WrapWithContext(err, "resolve snapshot path")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	assign(&c.snapshots, abs)
	return nil
}

// BaseSnapshot returns the base snapshot directory, empty when unset.
func (c *Context) BaseSnapshot() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshots.base
}

// HeadSnapshot returns the head snapshot directory, empty when unset.
func (c *Context) HeadSnapshot() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshots.head
}

// FileContentBase reads a file from the base snapshot. A missing file
// returns found=false without an error.
func (c *Context) FileContentBase(path string) (string, bool, error) {
	return c.fileContent("base", c.BaseSnapshot(), path)
}

// FileContentHead reads a file from the head snapshot. A missing file
// returns found=false without an error.
func (c *Context) FileContentHead(path string) (string, bool, error) {
	return c.fileContent("head", c.HeadSnapshot(), path)
}

func (c *Context) fileContent(side, root, path string) (string, bool, error) {
	if root == "" {
		return "", false, fmt.Errorf("%w: %s", appErrors.ErrSnapshotNotSet, side)
	}

	// Clean against a rooted path so "../" cannot escape the snapshot.
	full := filepath.Join(root, filepath.Clean(string(filepath.Separator)+path))
	load := func() (fileContent, error) {
		data, err := os.ReadFile(full) //nolint:gosec // path is confined to the snapshot root
		if errors.Is(err, fs.ErrNotExist) {
			return fileContent{}, nil
		}
		if err != nil {
			return fileContent{}, appErrors.FileReadError(full, err)
		}
		return fileContent{data: string(data), found: true}, nil
	}

	fc := c.snapshotCache()
	if fc == nil {
		content, err := load()
		return content.data, content.found, err
	}

	content, err := fc.GetOrLoad(side+":"+full, load)
	return content.data, content.found, err
}

func (c *Context) snapshotCache() *cache.Cache[fileContent] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshots.cache == nil && !c.closed {
		c.snapshots.cache = cache.New[fileContent](cache.DefaultTTL, SnapshotCacheSize)
	}
	return c.snapshots.cache
}

// Close releases the snapshot cache. Later reads go straight to disk.
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshots.cache != nil {
		c.snapshots.final = statsOf(c.snapshots.cache)
		c.snapshots.cache.Close()
		c.snapshots.cache = nil
	}
	c.closed = true
}
