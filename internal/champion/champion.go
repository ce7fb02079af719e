// Package champion tracks the content hash of the current best network and
// replaces it on promotion.
package champion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/singleflight"
)

// ErrRecompute is returned when the champion hash could not be derived from
// the pointer file. Failures are not cached; the next call retries.
var ErrRecompute = errors.New("champion hash recomputation failed")

// Cache resolves the champion hash from a gzip-compressed pointer file. The
// hash is recomputed only when the file's modification time changes, and
// concurrent callers observing the same change share one recomputation.
type Cache struct {
	path       string
	networkDir string
	logger     *slog.Logger

	flight singleflight.Group

	mu    sync.RWMutex
	hash  string
	mtime time.Time

	// promoteMu serializes pointer replacement.
	promoteMu sync.Mutex

	// OnRecompute, if set, is called after every recomputation attempt.
	OnRecompute func(err error)
}

// NewCache creates a cache for the pointer file at path. networkDir holds the
// <hash>.gz artifacts candidates are promoted from.
func NewCache(path, networkDir string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{path: path, networkDir: networkDir, logger: logger}
}

// Path returns the pointer file path.
func (c *Cache) Path() string {
	return c.path
}

// Cached returns the last resolved hash without touching the filesystem.
func (c *Cache) Cached() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hash
}

// Resolve returns the current champion hash.
func (c *Cache) Resolve(ctx context.Context) (string, error) {
	info, err := os.Stat(c.path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRecompute, err)
	}
	mtime := info.ModTime()

	c.mu.RLock()
	hash, cached := c.hash, c.mtime
	c.mu.RUnlock()
	if hash != "" && cached.Equal(mtime) {
		return hash, nil
	}

	key := strconv.FormatInt(mtime.UnixNano(), 10)
	ch := c.flight.DoChan(key, func() (any, error) {
		c.logger.Info("champion pointer changed, recomputing hash", "path", c.path, "mtime", mtime)
		start := time.Now()
		h, err := HashFile(c.path)
		if c.OnRecompute != nil {
			c.OnRecompute(err)
		}
		if err != nil {
			c.logger.Error("failed to hash champion", "path", c.path, "error", err)
			return "", err
		}
		c.store(h, mtime)
		c.logger.Info("champion hash resolved", "hash", h, "duration", time.Since(start))
		return h, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", fmt.Errorf("%w: %w", ErrRecompute, res.Err)
		}
		return res.Val.(string), nil
	}
}

func (c *Cache) store(hash string, mtime time.Time) {
	c.mu.Lock()
	c.hash = hash
	c.mtime = mtime
	c.mu.Unlock()
}

// HashFile returns the hex SHA-256 of a gzip file's decompressed content.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("decompress %s: %w", path, err)
	}
	defer zr.Close()

	h := sha256.New()
	if _, err := io.Copy(h, zr); err != nil {
		return "", fmt.Errorf("decompress %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// NetworkPath returns the artifact path for a network hash.
func (c *Cache) NetworkPath(hash string) string {
	return filepath.Join(c.networkDir, hash+".gz")
}

// Promote replaces the pointer file with candidate's artifact if incumbent is
// still the champion. It reports whether the replacement happened, so racing
// callers for the same match promote exactly once.
func (c *Cache) Promote(ctx context.Context, incumbent, candidate string) (bool, error) {
	c.promoteMu.Lock()
	defer c.promoteMu.Unlock()

	current, err := c.Resolve(ctx)
	if err != nil {
		return false, err
	}
	if current != incumbent {
		c.logger.Debug("promotion skipped, champion already changed",
			"incumbent", incumbent, "current", current, "candidate", candidate)
		return false, nil
	}

	if err := c.replace(c.NetworkPath(candidate)); err != nil {
		return false, fmt.Errorf("replace champion: %w", err)
	}

	info, err := os.Stat(c.path)
	if err != nil {
		return true, fmt.Errorf("stat champion: %w", err)
	}
	c.store(candidate, info.ModTime())

	c.logger.Info("new champion promoted", "hash", candidate, "previous", incumbent)
	return true, nil
}

// replace copies src next to the pointer file and renames it into place.
func (c *Cache) replace(src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".champion-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, c.path)
}
