package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var entryPrefix = []byte("resp:")

// Entry represents a cached inference response.
type Entry struct {
	Response   string    `json:"response"`
	TokensUsed int       `json:"tokensUsed,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Cache stores inference responses in a LevelDB database.
type Cache struct {
	dir        string
	ttlSeconds int
	enabled    bool
	db         *leveldb.DB
	now        func() time.Time
}

// New creates a new Cache. If dir is empty, uses the default cache
// directory. A disabled cache opens nothing and misses on every read.
func New(enabled bool, dir string, ttlSeconds int) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false, now: time.Now}, nil
	}
	if dir == "" {
		d, err := defaultCacheDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	db, err := leveldb.OpenFile(filepath.Join(dir, "responses"), nil)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return &Cache{
		dir:        dir,
		ttlSeconds: ttlSeconds,
		enabled:    true,
		db:         db,
		now:        time.Now,
	}, nil
}

// Close releases the database. It is safe to call on a disabled cache.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get retrieves a cached entry by key. Returns false on miss.
func (c *Cache) Get(key string) (Entry, bool) {
	if !c.enabled {
		return Entry{}, false
	}
	dbKey := entryKey(key)
	data, err := c.db.Get(dbKey, nil)
	if err != nil {
		return Entry{}, false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, false
	}
	if c.expired(entry) {
		_ = c.db.Delete(dbKey, nil)
		return Entry{}, false
	}
	return entry, true
}

// Put stores a response in the cache.
func (c *Cache) Put(key string, response string, tokensUsed int) error {
	if !c.enabled {
		return nil
	}
	data, err := json.Marshal(Entry{
		Response:   response,
		TokensUsed: tokensUsed,
		CreatedAt:  c.now(),
	})
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	if err := c.db.Put(entryKey(key), data, nil); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Clear removes all cache entries and returns how many were removed.
func (c *Cache) Clear() (int, error) {
	if !c.enabled {
		return 0, nil
	}
	batch := new(leveldb.Batch)
	iter := c.db.NewIterator(util.BytesPrefix(entryPrefix), nil)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return 0, fmt.Errorf("reading cache: %w", err)
	}
	if err := c.db.Write(batch, nil); err != nil {
		return 0, fmt.Errorf("clearing cache: %w", err)
	}
	return batch.Len(), nil
}

// Stats returns cache statistics.
type Stats struct {
	Dir        string `json:"dir"`
	Entries    int    `json:"entries"`
	TotalBytes int64  `json:"totalBytes"`
	Expired    int    `json:"expired"`
}

// GetStats returns information about the cache.
func (c *Cache) GetStats() (Stats, error) {
	stats := Stats{Dir: c.dir}
	if !c.enabled {
		return stats, nil
	}
	iter := c.db.NewIterator(util.BytesPrefix(entryPrefix), nil)
	defer iter.Release()
	for iter.Next() {
		stats.Entries++
		stats.TotalBytes += int64(len(iter.Value()))

		var entry Entry
		if err := json.Unmarshal(iter.Value(), &entry); err != nil {
			continue
		}
		if c.expired(entry) {
			stats.Expired++
		}
	}
	if err := iter.Error(); err != nil {
		return stats, fmt.Errorf("reading cache: %w", err)
	}
	return stats, nil
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string {
	return c.dir
}

// Enabled returns whether caching is enabled.
func (c *Cache) Enabled() bool {
	return c.enabled
}

func (c *Cache) expired(e Entry) bool {
	return c.ttlSeconds > 0 && c.now().Sub(e.CreatedAt) > time.Duration(c.ttlSeconds)*time.Second
}

// HashKey creates a SHA-256 hash of the given key material.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}

// BuildCacheKey creates a cache key from everything that affects a response.
// Parts are length-prefixed so adjacent fields cannot run together.
func BuildCacheKey(provider, model, endpoint, systemPrompt, userPrompt string) string {
	var material []byte
	for _, part := range []string{provider, model, endpoint, systemPrompt, userPrompt} {
		material = fmt.Appendf(material, "%d:%s;", len(part), part)
	}
	return HashKey(string(material))
}

func entryKey(key string) []byte {
	return append(append([]byte(nil), entryPrefix...), key...)
}

func defaultCacheDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "dupecheck"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "dupecheck"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "dupecheck", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "dupecheck", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "dupecheck"), nil
	}
}
