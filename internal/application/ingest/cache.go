package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/T-Klug/aws-cur-report-generator/internal/domain/entity"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CacheStore is a content-addressed local store for closed-period CUR files,
// keyed by a stable hash of (bucket, key). It is a best-effort acceleration
// layer, never a source of truth. Concurrent fetchers operate on distinct
// keys without any store-wide lock; writes go to a temp file and are renamed
// into place so a concurrent Get never sees a half-written file.
type CacheStore struct {
	root    string
	enabled bool
	logger  *zap.Logger
}

// NewCacheStore creates a store rooted at root. When enabled is false, Get
// always misses and Put always writes process-scoped temp files.
func NewCacheStore(root string, enabled bool, logger *zap.Logger) *CacheStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheStore{root: root, enabled: enabled, logger: logger}
}

// KeyFor returns the stable cache file name for an object: a hash of
// bucket and key (content-independent, stable across runs) plus the
// object's original extension so decoders can sniff the format.
func (s *CacheStore) KeyFor(ref entity.ObjectRef) string {
	sum := sha256.Sum256([]byte(ref.Bucket + "/" + ref.Key))
	return hex.EncodeToString(sum[:16]) + fileExt(ref.Key)
}

// Get returns the local path of a previously persisted closed-period object.
func (s *CacheStore) Get(ref entity.ObjectRef) (string, bool) {
	if !s.enabled {
		return "", false
	}
	path := filepath.Join(s.root, s.KeyFor(ref))
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path, true
	}
	return "", false
}

// Put writes the object's content to local disk. Closed-period objects land
// under the cache root at their stable-hash path via an atomic rename; open
// or unknown periods go to a temp file with a random suffix (collision-safe
// across concurrent fetchers) that the caller removes after use.
func (s *CacheStore) Put(ref entity.ObjectRef, content io.Reader, closed bool) (entity.CacheEntry, error) {
	if closed && s.enabled {
		return s.putPersistent(ref, content)
	}
	return s.putTemp(ref, content)
}

func (s *CacheStore) putPersistent(ref entity.ObjectRef, content io.Reader) (entity.CacheEntry, error) {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return entity.CacheEntry{}, fmt.Errorf("creating cache root %s: %w", s.root, err)
	}

	final := filepath.Join(s.root, s.KeyFor(ref))
	tmp := final + partialInfix + uuid.NewString()

	if err := writeFile(tmp, content); err != nil {
		return entity.CacheEntry{}, err
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return entity.CacheEntry{}, fmt.Errorf("publishing cache entry for %s: %w", ref.Key, err)
	}

	s.logger.Debug("cached closed-period object",
		zap.String("key", ref.Key), zap.String("path", final))
	return entity.CacheEntry{Object: ref, LocalPath: final, Persisted: true}, nil
}

func (s *CacheStore) putTemp(ref entity.ObjectRef, content io.Reader) (entity.CacheEntry, error) {
	path := filepath.Join(os.TempDir(), "cur-"+uuid.NewString()+fileExt(ref.Key))
	if err := writeFile(path, content); err != nil {
		return entity.CacheEntry{}, err
	}
	return entity.CacheEntry{Object: ref, LocalPath: path, Persisted: false}, nil
}

// partialInfix marks in-flight writes under the cache root. A crash between
// write and rename strands such files; they are never served by Get, are
// excluded from Stats, and are swept by Clear without counting as entries.
const partialInfix = ".partial-"

func isPartial(name string) bool {
	return strings.Contains(name, partialInfix)
}

// Clear deletes every file under the cache root, stranded partial writes
// included, and returns the number of real entries removed.
func (s *CacheStore) Clear() (int, error) {
	entries, err := os.ReadDir(s.root)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading cache root %s: %w", s.root, err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.root, e.Name())); err != nil {
			return removed, fmt.Errorf("removing cache entry %s: %w", e.Name(), err)
		}
		if !isPartial(e.Name()) {
			removed++
		}
	}
	return removed, nil
}

// Stats returns the entry count and total byte size under the cache root.
func (s *CacheStore) Stats() (int, int64, error) {
	entries, err := os.ReadDir(s.root)
	if os.IsNotExist(err) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("reading cache root %s: %w", s.root, err)
	}

	count := 0
	var bytes int64
	for _, e := range entries {
		if e.IsDir() || isPartial(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		count++
		bytes += info.Size()
	}
	return count, bytes, nil
}

func writeFile(path string, content io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// fileExt keeps compound CUR extensions intact (.csv.gz, .snappy.parquet).
func fileExt(key string) string {
	base := filepath.Base(key)
	if idx := strings.Index(base, "."); idx >= 0 {
		return base[idx:]
	}
	return ""
}
