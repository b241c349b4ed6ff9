// Package ingest walks the documents tree and keeps the vector index in step
// with it: new files are chunked and inserted, update files replace the
// chunks of the document they target, and already indexed files are skipped.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"scangestor/internal/domain"
)

const (
	DefaultExcludeSuffix = "__exclude"
	DefaultUpdateSuffix  = "__ACT"
)

// Summary counts the outcome of one ingestion pass.
type Summary struct {
	Processed int
	Skipped   int
	// Deleted is the number of chunks removed because an update replaced them.
	Deleted int
	// Updated is the number of update files that replaced an indexed document.
	Updated int
}

// Options configures a Manager. Zero values select the defaults.
type Options struct {
	ExcludeSuffix string
	UpdateSuffix  string
	Logger        *slog.Logger
}

// Manager runs ingestion passes. A single pass must not run concurrently with
// another pass over the same index.
type Manager struct {
	index         domain.VectorIndex
	chunker       domain.Chunker
	logger        *slog.Logger
	excludeSuffix string
	updateSuffix  string

	rename func(oldpath, newpath string) error
	newID  func() string
}

func NewManager(index domain.VectorIndex, chunker domain.Chunker, opts Options) *Manager {
	if opts.ExcludeSuffix == "" {
		opts.ExcludeSuffix = DefaultExcludeSuffix
	}
	if opts.UpdateSuffix == "" {
		opts.UpdateSuffix = DefaultUpdateSuffix
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		index:         index,
		chunker:       chunker,
		logger:        opts.Logger,
		excludeSuffix: opts.ExcludeSuffix,
		updateSuffix:  opts.UpdateSuffix,
		rename:        os.Rename,
		newID:         uuid.NewString,
	}
}

// Ingest processes every markdown file under root. Per-file failures are
// logged and counted as skipped; only context cancellation aborts the pass.
func (m *Manager) Ingest(ctx context.Context, root string) (Summary, error) {
	var sum Summary
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		m.logger.Warn("documents root not found", "root", root)
		return sum, nil
	}

	files, err := m.collect(root)
	if err != nil {
		return sum, err
	}
	if len(files) == 0 {
		m.logger.Warn("no markdown files found", "root", root)
		return sum, nil
	}
	m.logger.Info("scanning documents", "root", root, "files", len(files))

	for _, p := range files {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if err := m.ingestFile(ctx, p, &sum); err != nil {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			m.logger.Error("ingest failed", "path", filepath.ToSlash(p), "error", err)
			sum.Skipped++
		}
	}
	m.logger.Info("ingestion finished",
		"processed", sum.Processed, "skipped", sum.Skipped,
		"updated", sum.Updated, "deleted", sum.Deleted)
	return sum, nil
}

func (m *Manager) collect(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			m.logger.Warn("cannot read directory entry", "path", filepath.ToSlash(p), "error", err)
			return nil
		}
		if !d.IsDir() && isMarkdown(d.Name()) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

// ingestFile applies the exclusion, update and idempotency rules to one file.
// On a nil return the file has already been counted.
func (m *Manager) ingestFile(ctx context.Context, p string, sum *Summary) error {
	if IsExcluded(p, m.excludeSuffix) {
		m.logger.Info("skip", "path", filepath.ToSlash(p), "reason", "excluded")
		sum.Skipped++
		return nil
	}

	readPath := p
	if target, ok := UpdateTarget(p, m.updateSuffix); ok {
		deleted, err := m.deleteSource(ctx, filepath.ToSlash(target))
		if err != nil {
			return err
		}
		if deleted > 0 {
			sum.Updated++
			sum.Deleted += deleted
		}
		m.logger.Info("update", "path", filepath.ToSlash(p), "target", filepath.ToSlash(target), "deleted", deleted)

		if err := m.rename(p, target); err != nil {
			m.logger.Warn("rename failed, indexing under original name", "path", filepath.ToSlash(p), "error", err)
			indexed, err := m.indexed(ctx, filepath.ToSlash(p))
			if err != nil {
				return err
			}
			if indexed {
				m.logger.Info("skip", "path", filepath.ToSlash(p), "reason", "already indexed")
				sum.Skipped++
				return nil
			}
		} else {
			readPath = target
		}
	} else {
		superseded, err := m.superseded(ctx, p)
		if err != nil {
			return err
		}
		if superseded {
			m.logger.Info("skip", "path", filepath.ToSlash(p), "reason", "update file indexed in its place")
			sum.Skipped++
			return nil
		}
		indexed, err := m.indexed(ctx, filepath.ToSlash(p))
		if err != nil {
			return err
		}
		if indexed {
			m.logger.Info("skip", "path", filepath.ToSlash(p), "reason", "already indexed")
			sum.Skipped++
			return nil
		}
	}

	data, err := os.ReadFile(readPath)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	doc := domain.Document{
		Path:     filepath.ToSlash(readPath),
		Category: filepath.Base(filepath.Dir(readPath)),
		Content:  string(data),
	}
	if strings.TrimSpace(doc.Content) == "" {
		m.logger.Info("skip", "path", doc.Path, "reason", "empty")
		sum.Skipped++
		return nil
	}

	n, err := m.insert(ctx, doc)
	if err != nil {
		return err
	}
	m.logger.Info("insert", "path", doc.Path, "category", doc.Category, "chunks", n)
	sum.Processed++
	return nil
}

func (m *Manager) insert(ctx context.Context, doc domain.Document) (int, error) {
	texts := m.chunker.Chunk(doc.Content)
	if len(texts) == 0 {
		return 0, errors.New("chunker produced no chunks")
	}
	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			ID:         m.newID(),
			Text:       text,
			SourcePath: doc.Path,
			Category:   doc.Category,
			Index:      i,
		}
	}
	if err := m.index.Upsert(ctx, chunks); err != nil {
		return 0, fmt.Errorf("upsert: %w", err)
	}
	return len(chunks), nil
}

func (m *Manager) indexed(ctx context.Context, source string) (bool, error) {
	chunks, err := m.index.Get(ctx, domain.Filter{SourceFile: source}, 1)
	if err != nil {
		return false, fmt.Errorf("lookup %s: %w", source, err)
	}
	return len(chunks) > 0, nil
}

// superseded reports whether the update file for p is still on disk and
// already indexed under its own name, which happens after a failed rename.
func (m *Manager) superseded(ctx context.Context, p string) (bool, error) {
	update := UpdateSource(p, m.updateSuffix)
	if _, err := os.Stat(update); err != nil {
		return false, nil
	}
	return m.indexed(ctx, filepath.ToSlash(update))
}

func (m *Manager) deleteSource(ctx context.Context, source string) (int, error) {
	chunks, err := m.index.Get(ctx, domain.Filter{SourceFile: source}, 0)
	if err != nil {
		return 0, fmt.Errorf("lookup %s: %w", source, err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}
	ids := make([]string, len(chunks))
	for i, ch := range chunks {
		ids[i] = ch.ID
	}
	if err := m.index.Delete(ctx, ids); err != nil {
		return 0, fmt.Errorf("delete %s: %w", source, err)
	}
	return len(ids), nil
}
