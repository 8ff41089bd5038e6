// Package sqlite provides the persisted lexical indexes: an FTS5 title
// index for candidate discovery and an FTS5 page index for full-text
// fallback recall.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/corvidae-labs/archivist/internal/core/domain"
	"github.com/corvidae-labs/archivist/internal/core/ports/driven"
	"github.com/corvidae-labs/archivist/internal/core/services"
)

// Ensure Index implements the interfaces.
var (
	_ driven.TitleIndex       = (*Index)(nil)
	_ driven.Suggester        = (*Index)(nil)
	_ driven.FullTextSearcher = (*Index)(nil)
)

// FileName is the index database file within the index directory.
const FileName = "index.db"

// Index is an SQLite-backed lexical index over document titles and
// full page text.
//
// An absent database is not an error: queries return
// domain.ErrIndexUnavailable until a build (or an external rebuild
// picked up by Watch) makes the index available.
type Index struct {
	mu  sync.RWMutex
	dir string
	db  *sql.DB
}

// Open creates an index handle for the given directory, attaching to
// the database file if it already exists.
func Open(dir string) (*Index, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".archivist", "index")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	idx := &Index{dir: dir}
	if _, err := os.Stat(idx.Path()); err == nil {
		if err := idx.Reopen(); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// Path returns the database file path.
func (x *Index) Path() string {
	return filepath.Join(x.dir, FileName)
}

// Ready reports whether the index database is attached.
func (x *Index) Ready() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.db != nil
}

// Reopen (re-)attaches to the database file. Called at open time and
// by the rebuild watcher.
func (x *Index) Reopen() error {
	db, err := sql.Open("sqlite", x.Path()+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("opening index database: %w", err)
	}

	x.mu.Lock()
	old := x.db
	x.db = db
	x.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return nil
}

// Close closes the database connection.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.db == nil {
		return nil
	}
	err := x.db.Close()
	x.db = nil
	return err
}

func (x *Index) handle() (*sql.DB, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.db == nil {
		return nil, domain.ErrIndexUnavailable
	}
	return x.db, nil
}

// Query runs an OR-joined term query over indexed titles, ranked by
// BM25 with ties broken by shorter title then lexical order.
func (x *Index) Query(ctx context.Context, tokens []string, limit int) ([]domain.TitleRecord, error) {
	db, err := x.handle()
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 || limit <= 0 {
		return nil, nil
	}

	match := orTerms(tokens)
	rows, err := db.QueryContext(ctx,
		`SELECT title, path FROM titles WHERE titles MATCH ?
		 ORDER BY bm25(titles), length(title), title LIMIT ?`,
		match, limit)
	if err != nil {
		return nil, fmt.Errorf("title query: %w", err)
	}
	defer rows.Close()

	return scanTitleRecords(rows)
}

// Suggest returns documents whose titles start with the given prefix.
func (x *Index) Suggest(ctx context.Context, prefix string, limit int) ([]domain.DocumentRef, error) {
	db, err := x.handle()
	if err != nil {
		return nil, err
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || limit <= 0 {
		return nil, nil
	}

	rows, err := db.QueryContext(ctx,
		`SELECT title, path FROM titles WHERE titles MATCH ?
		 ORDER BY bm25(titles), length(title), title LIMIT ?`,
		phrasePrefix(prefix), limit)
	if err != nil {
		return nil, fmt.Errorf("suggest query: %w", err)
	}
	defer rows.Close()

	return scanRefs(rows)
}

// Search performs BM25-ranked full-text search over page content,
// independently of the title index.
func (x *Index) Search(ctx context.Context, query string, limit int) ([]domain.DocumentRef, error) {
	db, err := x.handle()
	if err != nil {
		return nil, err
	}
	tokens := services.Tokenize(query)
	if len(tokens) == 0 || limit <= 0 {
		return nil, nil
	}

	rows, err := db.QueryContext(ctx,
		`SELECT title, path FROM pages WHERE pages MATCH ?
		 ORDER BY bm25(pages) LIMIT ?`,
		"content: "+orTerms(tokens), limit)
	if err != nil {
		return nil, fmt.Errorf("full-text query: %w", err)
	}
	defer rows.Close()

	return scanRefs(rows)
}

// Stat returns the number of indexed titles.
func (x *Index) Stat(ctx context.Context) (int, error) {
	db, err := x.handle()
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM titles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("title count: %w", err)
	}
	return n, nil
}

// orTerms builds an OR-joined FTS5 match expression from raw tokens.
// Tokens are quoted so query punctuation cannot reach the FTS parser.
func orTerms(tokens []string) string {
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = quoteToken(tok)
	}
	return strings.Join(quoted, " OR ")
}

// phrasePrefix builds an FTS5 phrase-prefix expression for suggestions.
func phrasePrefix(prefix string) string {
	return quoteToken(prefix) + "*"
}

func quoteToken(tok string) string {
	return `"` + strings.ReplaceAll(tok, `"`, `""`) + `"`
}

func scanTitleRecords(rows *sql.Rows) ([]domain.TitleRecord, error) {
	var records []domain.TitleRecord
	for rows.Next() {
		var rec domain.TitleRecord
		if err := rows.Scan(&rec.Title, &rec.Path); err != nil {
			return nil, fmt.Errorf("scan title record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRefs(rows *sql.Rows) ([]domain.DocumentRef, error) {
	var refs []domain.DocumentRef
	for rows.Next() {
		var ref domain.DocumentRef
		if err := rows.Scan(&ref.Title, &ref.Path); err != nil {
			return nil, fmt.Errorf("scan document ref: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
