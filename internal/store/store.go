// Package store persists file records in a local SQLite database.
//
// One row per indexed file, keyed by its path relative to the indexed
// root. Embeddings are stored as raw little-endian float32 blobs so a
// stored vector decodes back byte for byte.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/senselabs/sense/pkg/embedding"
	"github.com/senselabs/sense/pkg/types"
)

// Record is one indexed file.
type Record struct {
	Path   string
	Hash   string
	FileID string // external asset reference, empty until registered
	Label  string
	Vector *embedding.Vector
}

// Store wraps the SQLite database holding the index. All operations are
// serialized with a mutex; the store is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	db       *sql.DB
	path     string
	readOnly bool
}

// Open opens the database at path, creating it unless readOnly is set.
// Opening a missing database read-only fails with ErrReadOnly.
func Open(path string, readOnly bool) (*Store, error) {
	if readOnly {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", types.ErrReadOnly, path)
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database dir: %w", err)
		}
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	if readOnly {
		dsn = "file:" + path + "?mode=ro&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, path: path, readOnly: readOnly}
	if !readOnly {
		if err := s.createSchema(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return s, nil
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS files (
			file_path TEXT PRIMARY KEY,
			file_hash TEXT NOT NULL,
			file_id   TEXT,
			label     TEXT NOT NULL,
			embedding BLOB NOT NULL
		)
	`)
	return err
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Upsert inserts the record, replacing any existing row with the same
// path. The stored file_id is replaced too; callers that want to keep an
// existing reference must carry it into the record themselves.
func (s *Store) Upsert(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`INSERT OR REPLACE INTO files (file_path, file_hash, file_id, label, embedding) VALUES (?, ?, ?, ?, ?)`,
		rec.Path, rec.Hash, nullable(rec.FileID), rec.Label, rec.Vector.Bytes(),
	)
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %v", types.ErrStoreFailed, rec.Path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %v", types.ErrStoreFailed, rec.Path, err)
	}
	if n != 1 {
		return fmt.Errorf("%w: upsert %s affected %d rows", types.ErrStoreFailed, rec.Path, n)
	}
	return nil
}

// Get returns the record for path, or ErrNotFound.
func (s *Store) Get(path string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(
		`SELECT file_path, file_hash, file_id, label, embedding FROM files WHERE file_path = ?`,
		path,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", types.ErrNotFound, path)
	}
	return rec, err
}

// Delete removes the record for path. Deleting a missing path is not an
// error.
func (s *Store) Delete(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM files WHERE file_path = ?`, path); err != nil {
		return fmt.Errorf("%w: delete %s: %v", types.ErrStoreFailed, path, err)
	}
	return nil
}

// SetFileID updates only the external reference of an existing record.
func (s *Store) SetFileID(path, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE files SET file_id = ? WHERE file_path = ?`, fileID, path)
	if err != nil {
		return fmt.Errorf("%w: set file_id for %s: %v", types.ErrStoreFailed, path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: set file_id for %s: %v", types.ErrStoreFailed, path, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", types.ErrNotFound, path)
	}
	return nil
}

// Hashes returns the stored path to hash mapping for the whole index.
func (s *Store) Hashes() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT file_path, file_hash FROM files`)
	if err != nil {
		return nil, fmt.Errorf("%w: scan hashes: %v", types.ErrStoreFailed, err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, fmt.Errorf("%w: scan hashes: %v", types.ErrStoreFailed, err)
		}
		out[path] = hash
	}
	return out, rows.Err()
}

// PathsWithoutFileID returns paths of records that have no external
// reference yet, along with their labels.
func (s *Store) PathsWithoutFileID() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT file_path, file_hash, file_id, label, embedding FROM files
		 WHERE file_id IS NULL OR file_id = '' ORDER BY file_path`,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: scan unregistered: %v", types.ErrStoreFailed, err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// ScanEmbeddings streams every record to fn in unspecified order. A
// non-nil error from fn stops the scan and is returned.
func (s *Store) ScanEmbeddings(fn func(*Record) error) error {
	return s.scan(`SELECT file_path, file_hash, file_id, label, embedding FROM files`, fn)
}

// ScanEmbeddingsWithID streams only records that carry an external
// reference.
func (s *Store) ScanEmbeddingsWithID(fn func(*Record) error) error {
	return s.scan(
		`SELECT file_path, file_hash, file_id, label, embedding FROM files
		 WHERE file_id IS NOT NULL AND file_id != ''`,
		fn,
	)
}

func (s *Store) scan(query string, fn func(*Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(query)
	if err != nil {
		return fmt.Errorf("%w: scan: %v", types.ErrStoreFailed, err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Clean removes records whose file no longer exists under root and
// returns the deleted paths.
func (s *Store) Clean(root string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT file_path FROM files`)
	if err != nil {
		return nil, fmt.Errorf("%w: clean: %v", types.ErrStoreFailed, err)
	}

	var stale []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: clean: %v", types.ErrStoreFailed, err)
		}
		if _, err := os.Stat(filepath.Join(root, path)); os.IsNotExist(err) {
			stale = append(stale, path)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("%w: clean: %v", types.ErrStoreFailed, err)
	}
	rows.Close()

	for _, path := range stale {
		if _, err := s.db.Exec(`DELETE FROM files WHERE file_path = ?`, path); err != nil {
			return nil, fmt.Errorf("%w: clean %s: %v", types.ErrStoreFailed, path, err)
		}
	}
	return stale, nil
}

// Count returns the number of indexed records and how many of them are
// unlabeled placeholders.
func (s *Store) Count() (total, unlabeled int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&total); err != nil {
		return 0, 0, fmt.Errorf("%w: count: %v", types.ErrStoreFailed, err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM files WHERE label = ''`).Scan(&unlabeled); err != nil {
		return 0, 0, fmt.Errorf("%w: count: %v", types.ErrStoreFailed, err)
	}
	return total, unlabeled, nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec    Record
		fileID sql.NullString
		blob   []byte
	)
	if err := row.Scan(&rec.Path, &rec.Hash, &fileID, &rec.Label, &blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: scan row: %v", types.ErrStoreFailed, err)
	}
	rec.FileID = fileID.String

	vec, err := embedding.FromBytes(blob)
	if err != nil {
		return nil, fmt.Errorf("corrupt embedding for %s: %w", rec.Path, err)
	}
	rec.Vector = vec
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
