// Package sqlite persists chunk vectors in a local SQLite database so the
// index survives between ingestion runs and question sessions.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"scangestor/internal/domain"
	"scangestor/internal/vectorstore"
)

var _ vectorstore.Storage = (*Storage)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS index_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS chunks (
	id          TEXT PRIMARY KEY,
	source_file TEXT NOT NULL,
	category    TEXT NOT NULL,
	chunk_index INTEGER NOT NULL,
	text        TEXT NOT NULL,
	embedding   BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source_file, chunk_index);
CREATE INDEX IF NOT EXISTS idx_chunks_category ON chunks(category);
`

// Storage is a brute-force cosine vector store backed by SQLite.
type Storage struct {
	db   *sql.DB
	path string
}

// NewStorage opens (creating if needed) the database at path.
func NewStorage(path string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Storage{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Storage) Path() string { return s.path }

func (s *Storage) Close() error { return s.db.Close() }

// Init records the dimension on first use and rejects a different one later.
func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return domain.ErrInvalidDimension
	}
	var stored string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM index_meta WHERE key = 'dimension'`).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.ExecContext(ctx, `INSERT INTO index_meta (key, value) VALUES ('dimension', ?)`, strconv.Itoa(dimension))
		if err != nil {
			return fmt.Errorf("saving dimension: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("reading dimension: %w", err)
	}
	if stored != strconv.Itoa(dimension) {
		return fmt.Errorf("%w: store has %s, got %d", domain.ErrDimensionMismatch, stored, dimension)
	}
	return nil
}

// Upsert writes all records in one transaction.
func (s *Storage) Upsert(ctx context.Context, records []vectorstore.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, source_file, category, chunk_index, text, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_file = excluded.source_file,
			category = excluded.category,
			chunk_index = excluded.chunk_index,
			text = excluded.text,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		ch := r.Chunk
		if _, err := stmt.ExecContext(ctx, ch.ID, ch.SourcePath, ch.Category, ch.Index, ch.Text, float32SliceToBytes(r.Vector)); err != nil {
			return fmt.Errorf("saving chunk %s: %w", ch.ID, err)
		}
	}
	return tx.Commit()
}

func (s *Storage) Search(ctx context.Context, vector []float64, topK int, filter domain.Filter) ([]vectorstore.Match, error) {
	if topK <= 0 {
		topK = 5
	}
	where, args := whereClause(filter)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_file, category, chunk_index, text, embedding FROM chunks`+where+` ORDER BY rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var matches []vectorstore.Match
	for rows.Next() {
		var ch domain.Chunk
		var blob []byte
		if err := rows.Scan(&ch.ID, &ch.SourcePath, &ch.Category, &ch.Index, &ch.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		matches = append(matches, vectorstore.Match{Chunk: ch, Score: vectorstore.Cosine(bytesToFloat64Slice(blob), vector)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *Storage) Get(ctx context.Context, filter domain.Filter, limit int) ([]domain.Chunk, error) {
	where, args := whereClause(filter)
	q := `SELECT id, source_file, category, chunk_index, text FROM chunks` + where + ` ORDER BY source_file, chunk_index`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var out []domain.Chunk
	for rows.Next() {
		var ch domain.Chunk
		if err := rows.Scan(&ch.ID, &ch.SourcePath, &ch.Category, &ch.Index, &ch.Text); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

func (s *Storage) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

func whereClause(f domain.Filter) (string, []any) {
	var conds []string
	var args []any
	if f.SourceFile != "" {
		conds = append(conds, "source_file = ?")
		args = append(args, f.SourceFile)
	}
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// float32SliceToBytes stores vectors at float32 precision, which is what
// embedding APIs actually deliver.
func float32SliceToBytes(floats []float64) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(f)))
	}
	return buf
}

func bytesToFloat64Slice(data []byte) []float64 {
	out := make([]float64, len(data)/4)
	for i := range out {
		out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
	}
	return out
}
