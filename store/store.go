// Package store caches compiled chunks in a SQLite database keyed by
// content hash.
package store

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/luna/vm"
	"github.com/chazu/luna/vm/dist"
)

// DefaultPath is the database location relative to a project root.
const DefaultPath = ".luna/chunks.db"

// ErrNotFound indicates the requested chunk doesn't exist.
var ErrNotFound = errors.New("chunk not found")

var log = commonlog.GetLogger("luna.store")

// Store handles SQLite storage for compiled chunks.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// Open opens (creating if needed) the chunk database at dbPath.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS chunks (
		hash    TEXT PRIMARY KEY,
		module  TEXT NOT NULL,
		unit_id TEXT NOT NULL,
		data    BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put stores a chunk. Storing the same hash twice keeps the newest unit ID.
func (s *Store) Put(c *dist.Chunk) error {
	if err := dist.VerifyChunk(c); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO chunks (hash, module, unit_id, data) VALUES (?, ?, ?, ?)",
		HashString(c.Hash), c.Module, c.UnitID, c.Data,
	)
	if err != nil {
		return fmt.Errorf("saving chunk: %w", err)
	}
	log.Debugf("stored chunk %s (%s)", HashString(c.Hash), c.Module)
	return nil
}

// PutFunction encodes a compiled main function and stores it, returning the chunk.
func (s *Store) PutFunction(f *vm.Function) (*dist.Chunk, error) {
	c, err := dist.NewChunk(f)
	if err != nil {
		return nil, err
	}
	if err := s.Put(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get retrieves a chunk by hash.
func (s *Store) Get(hash [32]byte) (*dist.Chunk, error) {
	c := &dist.Chunk{Hash: hash}
	err := s.db.QueryRow(
		"SELECT module, unit_id, data FROM chunks WHERE hash = ?", HashString(hash),
	).Scan(&c.Module, &c.UnitID, &c.Data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debugf("miss %s", HashString(hash))
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying chunk: %w", err)
	}
	log.Debugf("hit %s", HashString(hash))
	return c, nil
}

// GetFunction retrieves and decodes a chunk by hash.
func (s *Store) GetFunction(hash [32]byte) (*vm.Function, error) {
	c, err := s.Get(hash)
	if err != nil {
		return nil, err
	}
	return c.Function()
}

// Entry summarizes one stored chunk.
type Entry struct {
	Hash   string
	Module string
	UnitID string
}

// List returns every stored chunk ordered by module then hash.
func (s *Store) List() ([]Entry, error) {
	rows, err := s.db.Query("SELECT hash, module, unit_id FROM chunks ORDER BY module, hash")
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Hash, &e.Module, &e.UnitID); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// HashString renders a content hash as lowercase hex.
func HashString(hash [32]byte) string {
	return hex.EncodeToString(hash[:])
}

// ParseHash parses a hex content hash.
func ParseHash(s string) ([32]byte, error) {
	var h [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("parsing hash: %w", err)
	}
	if len(b) != len(h) {
		return h, fmt.Errorf("parsing hash: got %d bytes, want %d", len(b), len(h))
	}
	copy(h[:], b)
	return h, nil
}
