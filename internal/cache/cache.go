// Package cache implements the content-addressed research cache used
// by document-generation tooling to avoid redundant external lookups.
//
// Entries live one per file at <cache-dir>/<YYYY-MM-DD>/<hash>.json,
// grouped by creation date for manual pruning. The key is the SHA-256
// of the normalized query. Expiry is lazy: an entry past its TTL is a
// miss on read and is deleted then, with no background sweep.
//
// The cache is advisory. Every failure reading or writing an entry is
// logged and treated as a miss; a caller always falls back to a fresh
// lookup and never fails because of the cache.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry is one cached lookup result.
type Entry struct {
	Key        string    `json:"key"`
	Query      string    `json:"query"`
	Result     string    `json:"result"`
	Tags       []string  `json:"tags,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	TTLSeconds int       `json:"ttl_seconds"`
}

// expired reports whether the entry's TTL has elapsed at now.
func (e *Entry) expired(now time.Time) bool {
	age := now.Sub(e.CreatedAt)
	return age >= time.Duration(e.TTLSeconds)*time.Second
}

// Stats summarizes the cache directory and its accounting totals.
type Stats struct {
	Entries    int   `json:"entries"`
	Expired    int   `json:"expired"`
	SizeBytes  int64 `json:"size_bytes"`
	Hits       int   `json:"hits"`
	Misses     int   `json:"misses"`
	Accounting bool  `json:"accounting"`
}

// Cache owns one cache directory.
type Cache struct {
	dir  string
	acct *accounting
	now  func() time.Time
}

// New opens (or creates) the cache at dir. An accounting failure only
// disables hit/miss counting; the cache itself stays usable.
func New(dir string) *Cache {
	c := &Cache{dir: dir, now: time.Now}

	acct, err := openAccounting(dir)
	if err != nil {
		log.Printf("cache: accounting disabled: %v", err)
	} else {
		c.acct = acct
	}
	return c
}

// Close releases the accounting database.
func (c *Cache) Close() error {
	return c.acct.close()
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Key returns the content hash for a query: SHA-256 of the normalized
// text, hex-encoded.
func Key(query string) string {
	sum := sha256.Sum256([]byte(Normalize(query)))
	return hex.EncodeToString(sum[:])
}

// Normalize lowercases a query and collapses runs of whitespace so that
// formatting differences do not defeat the cache.
func Normalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// Get returns the cached result for a query, or ok=false on a miss.
// Expired entries count as misses and are deleted lazily. Read failures
// are logged and reported as misses.
func (c *Cache) Get(query string) (result string, ok bool) {
	key := Key(query)

	path, err := c.find(key)
	if err != nil || path == "" {
		if err != nil {
			log.Printf("cache: lookup failed for %s: %v", key[:12], err)
		}
		c.logAccess(key, "miss")
		return "", false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("cache: read failed for %s: %v", key[:12], err)
		c.logAccess(key, "miss")
		return "", false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		log.Printf("cache: corrupt entry %s: %v", path, err)
		os.Remove(path)
		c.logAccess(key, "miss")
		return "", false
	}

	if entry.expired(c.now()) {
		os.Remove(path)
		c.logAccess(key, "miss")
		return "", false
	}

	c.logAccess(key, "hit")
	return entry.Result, true
}

// Put stores a result for a query, overwriting any existing entry for
// the same key (including copies under older date directories).
func (c *Cache) Put(query, result string, tags []string, ttl time.Duration) error {
	key := Key(query)

	// Drop stale copies of this key first so find() never sees two.
	if old, err := c.find(key); err == nil && old != "" {
		os.Remove(old)
	}

	entry := Entry{
		Key:        key,
		Query:      query,
		Result:     result,
		Tags:       tags,
		CreatedAt:  c.now(),
		TTLSeconds: int(ttl / time.Second),
	}

	dateDir := filepath.Join(c.dir, entry.CreatedAt.Format("2006-01-02"))
	if err := os.MkdirAll(dateDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache date directory: %w", err)
	}

	data, err := json.MarshalIndent(&entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	path := filepath.Join(dateDir, key+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Clear evicts entries older than the given number of days; zero
// removes everything. Returns the number of entries removed.
func (c *Cache) Clear(olderThanDays int) (int, error) {
	cutoff := c.now().AddDate(0, 0, -olderThanDays)
	removed := 0

	err := c.walkEntries(func(path string, entry *Entry) {
		if olderThanDays == 0 || entry.CreatedAt.Before(cutoff) {
			if os.Remove(path) == nil {
				removed++
			}
		}
	})
	if err != nil {
		return removed, err
	}

	c.pruneEmptyDateDirs()
	return removed, nil
}

// Refresh evicts only expired entries plus entries older than maxAge
// days (0 = TTL-expired only). Returns the number removed.
func (c *Cache) Refresh(maxAgeDays int) (int, error) {
	now := c.now()
	cutoff := now.AddDate(0, 0, -maxAgeDays)
	removed := 0

	err := c.walkEntries(func(path string, entry *Entry) {
		if entry.expired(now) || (maxAgeDays > 0 && entry.CreatedAt.Before(cutoff)) {
			if os.Remove(path) == nil {
				removed++
			}
		}
	})
	if err != nil {
		return removed, err
	}

	c.pruneEmptyDateDirs()
	return removed, nil
}

// CollectStats scans the cache directory and merges accounting totals.
func (c *Cache) CollectStats() (*Stats, error) {
	stats := &Stats{}
	now := c.now()

	err := c.walkEntries(func(path string, entry *Entry) {
		stats.Entries++
		if entry.expired(now) {
			stats.Expired++
		}
		if info, err := os.Stat(path); err == nil {
			stats.SizeBytes += info.Size()
		}
	})
	if err != nil {
		return nil, err
	}

	if c.acct != nil {
		hits, misses, err := c.acct.totals()
		if err != nil {
			log.Printf("cache: accounting totals unavailable: %v", err)
		} else {
			stats.Hits = hits
			stats.Misses = misses
			stats.Accounting = true
		}
	}

	return stats, nil
}

// find locates the entry file for a key across date directories.
func (c *Cache) find(key string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*", key+".json"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", nil
	}
	// Newest date directory wins if older copies linger.
	return matches[len(matches)-1], nil
}

// walkEntries calls fn for every parseable entry file. Unparseable
// files are removed rather than reported.
func (c *Cache) walkEntries(fn func(path string, entry *Entry)) error {
	dateDirs, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, dd := range dateDirs {
		if !dd.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(c.dir, dd.Name()))
		if err != nil {
			continue
		}
		for _, f := range files {
			if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
				continue
			}
			path := filepath.Join(c.dir, dd.Name(), f.Name())
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			var entry Entry
			if err := json.Unmarshal(data, &entry); err != nil {
				os.Remove(path)
				continue
			}
			fn(path, &entry)
		}
	}
	return nil
}

func (c *Cache) pruneEmptyDateDirs() {
	dateDirs, err := os.ReadDir(c.dir)
	if err != nil {
		return
	}
	for _, dd := range dateDirs {
		if !dd.IsDir() {
			continue
		}
		path := filepath.Join(c.dir, dd.Name())
		if entries, err := os.ReadDir(path); err == nil && len(entries) == 0 {
			os.Remove(path)
		}
	}
}

func (c *Cache) logAccess(key, event string) {
	if err := c.acct.record(key, event); err != nil {
		log.Printf("cache: accounting write failed: %v", err)
	}
}
