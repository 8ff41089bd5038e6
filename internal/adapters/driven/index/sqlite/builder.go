package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/corvidae-labs/archivist/internal/core/ports/driving"
	"github.com/corvidae-labs/archivist/internal/core/services"
	"github.com/corvidae-labs/archivist/internal/logger"
)

var _ driving.IndexBuilder = (*Builder)(nil)

const insertBatchSize = 1000

// Corpus supplies the documents to index. The filesystem archive
// adapter implements it.
type Corpus interface {
	// Walk visits every document in the corpus. Returning an error
	// from fn aborts the walk.
	Walk(ctx context.Context, fn func(path, title string, content []byte) error) error
}

// Builder rebuilds the lexical indexes from a corpus. The database is
// written fresh to a temporary file and swapped into place, so index
// queries keep serving the previous build until the new one is
// complete.
type Builder struct {
	idx     *Index
	corpus  Corpus
	chunker *services.SectionChunker
}

// NewBuilder creates a builder writing into idx's directory.
func NewBuilder(idx *Index, corpus Corpus, chunker *services.SectionChunker) *Builder {
	return &Builder{idx: idx, corpus: corpus, chunker: chunker}
}

type pending struct {
	path    string
	title   string
	content string
}

// Build walks the corpus and rebuilds both FTS5 tables, reporting
// progress through the optional callback. It returns the number of
// documents indexed.
func (b *Builder) Build(ctx context.Context, progress func(frac float64, msg string)) (int, error) {
	report := func(frac float64, msg string) {
		if progress != nil {
			progress(frac, msg)
		}
	}

	tmpPath := b.idx.Path() + ".build"
	os.Remove(tmpPath)

	db, err := sql.Open("sqlite", tmpPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return 0, fmt.Errorf("creating build database: %w", err)
	}
	defer db.Close()

	if err := createSchema(ctx, db); err != nil {
		os.Remove(tmpPath)
		return 0, err
	}

	report(0, "scanning corpus")

	var batch []pending
	total := 0
	err = b.corpus.Walk(ctx, func(path, title string, content []byte) error {
		batch = append(batch, pending{path: path, title: title, content: b.plainText(content, path)})
		total++
		if len(batch) >= insertBatchSize {
			if err := insertBatch(ctx, db, batch); err != nil {
				return err
			}
			batch = batch[:0]
			report(0.9, fmt.Sprintf("indexed %d documents", total))
		}
		return nil
	})
	if err != nil {
		db.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("walking corpus: %w", err)
	}
	if len(batch) > 0 {
		if err := insertBatch(ctx, db, batch); err != nil {
			db.Close()
			os.Remove(tmpPath)
			return 0, err
		}
	}

	if err := db.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("finalising build database: %w", err)
	}

	// Stale WAL side files from the previous build must not attach to
	// the freshly swapped database.
	os.Remove(b.idx.Path() + "-wal")
	os.Remove(b.idx.Path() + "-shm")
	if err := os.Rename(tmpPath, b.idx.Path()); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("swapping index into place: %w", err)
	}
	if err := b.idx.Reopen(); err != nil {
		return 0, err
	}

	logger.Info("index build complete: %d documents", total)
	report(1, fmt.Sprintf("indexed %d documents", total))
	return total, nil
}

// plainText reduces a document to prose for the page index, stripping
// markup and navigation chrome the same way the retrieval chunker does.
func (b *Builder) plainText(content []byte, path string) string {
	sections := b.chunker.Sections(content, path)
	parts := make([]string, 0, len(sections))
	for _, sec := range sections {
		parts = append(parts, sec.Text)
	}
	return strings.Join(parts, "\n")
}

func createSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE VIRTUAL TABLE titles USING fts5(title, path UNINDEXED, tokenize='porter')`,
		`CREATE VIRTUAL TABLE pages USING fts5(title UNINDEXED, path UNINDEXED, content, tokenize='porter')`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating index schema: %w", err)
		}
	}
	return nil
}

func insertBatch(ctx context.Context, db *sql.DB, batch []pending) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting batch: %w", err)
	}
	defer tx.Rollback()

	titleStmt, err := tx.PrepareContext(ctx, `INSERT INTO titles (title, path) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing title insert: %w", err)
	}
	defer titleStmt.Close()

	pageStmt, err := tx.PrepareContext(ctx, `INSERT INTO pages (title, path, content) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing page insert: %w", err)
	}
	defer pageStmt.Close()

	for _, p := range batch {
		if _, err := titleStmt.ExecContext(ctx, p.title, p.path); err != nil {
			return fmt.Errorf("inserting title %q: %w", p.path, err)
		}
		if _, err := pageStmt.ExecContext(ctx, p.title, p.path, p.content); err != nil {
			return fmt.Errorf("inserting page %q: %w", p.path, err)
		}
	}
	return tx.Commit()
}
