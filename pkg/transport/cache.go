package transport

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// CachedResponse is one stored upstream response.
type CachedResponse struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	FetchedAt  time.Time
}

// Cache stores responses between requests. Implementations must be safe
// for concurrent use.
type Cache interface {
	Get(url string) (*CachedResponse, bool)
	Set(url string, resp *CachedResponse) error
	Close() error
}

// =============================================================================
// In-memory cache
// =============================================================================

// MemoryCache is the default run-scoped cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*CachedResponse
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]*CachedResponse)}
}

// Get returns the cached response for url.
func (m *MemoryCache) Get(url string) (*CachedResponse, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.entries[url]
	return r, ok
}

// Set stores the response for url.
func (m *MemoryCache) Set(url string, resp *CachedResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[url] = resp
	return nil
}

// Len returns the number of cached entries.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close is a no-op for the in-memory cache.
func (m *MemoryCache) Close() error { return nil }

// =============================================================================
// SQLite cache
// =============================================================================

// SQLiteCache persists responses across runs. Bodies are zstd-compressed;
// registry metadata compresses well and large indexes (NuGet registration
// pages) otherwise dominate the file.
type SQLiteCache struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewSQLiteCache opens (creating if needed) a persistent cache at path.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	schema := `CREATE TABLE IF NOT EXISTS responses (
		url        TEXT PRIMARY KEY,
		status     INTEGER NOT NULL,
		body       BLOB NOT NULL,
		header     TEXT NOT NULL DEFAULT '',
		fetched_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init compressor: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init decompressor: %w", err)
	}

	return &SQLiteCache{db: db, enc: enc, dec: dec}, nil
}

// Get returns the cached response for url.
func (s *SQLiteCache) Get(url string) (*CachedResponse, bool) {
	var (
		status    int
		blob      []byte
		header    string
		fetchedAt int64
	)
	row := s.db.QueryRow(`SELECT status, body, header, fetched_at FROM responses WHERE url = ?`, url)
	if err := row.Scan(&status, &blob, &header, &fetchedAt); err != nil {
		return nil, false
	}

	body, err := s.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, false
	}

	resp := &CachedResponse{
		StatusCode: status,
		Body:       body,
		FetchedAt:  time.Unix(fetchedAt, 0),
	}
	if header != "" {
		var h http.Header
		if err := json.Unmarshal([]byte(header), &h); err != nil {
			return nil, false
		}
		resp.Header = h
	}
	return resp, true
}

// Set stores the response for url, replacing any earlier entry. Headers
// are persisted too: pagination of the typed API clients depends on the
// Link header surviving a replay from cache.
func (s *SQLiteCache) Set(url string, resp *CachedResponse) error {
	blob := s.enc.EncodeAll(resp.Body, nil)

	var header string
	if len(resp.Header) > 0 {
		encoded, err := json.Marshal(resp.Header)
		if err != nil {
			return fmt.Errorf("encode header: %w", err)
		}
		header = string(encoded)
	}

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO responses (url, status, body, header, fetched_at) VALUES (?, ?, ?, ?, ?)`,
		url, resp.StatusCode, blob, header, resp.FetchedAt.Unix(),
	)
	return err
}

// Close releases the database and codec resources.
func (s *SQLiteCache) Close() error {
	s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}
