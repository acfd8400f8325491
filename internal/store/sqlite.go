package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// timeFormat is how timestamps are stored; RFC 3339 sorts lexically.
const timeFormat = time.RFC3339

// schema creates the paper tables. arxiv_id carries a unique index so
// that replaying a harvest or the retry pass skips rows it already
// inserted instead of duplicating them.
const schema = `
CREATE TABLE IF NOT EXISTS papers (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  arxiv_id TEXT NOT NULL,
  published TEXT NOT NULL,
  updated TEXT NOT NULL,
  summary TEXT,
  author TEXT,
  category TEXT,
  pdf_link TEXT,
  abstract_link TEXT,
  arxiv_link TEXT
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_papers_arxiv_id ON papers(arxiv_id);
CREATE INDEX IF NOT EXISTS idx_papers_published ON papers(published);

CREATE TABLE IF NOT EXISTS users (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  username TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS user_saved_papers (
  user_id INTEGER NOT NULL,
  paper_id INTEGER NOT NULL
);
`

// DB wraps the SQLite connection for paper storage.
type DB struct {
	db *sql.DB
}

// Open opens (and initializes) the paper database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// InsertPapers inserts one page batch atomically. Rows whose arxiv_id is
// already present are skipped. Returns the number of rows inserted.
func (d *DB) InsertPapers(ctx context.Context, papers []Paper) (int, error) {
	if len(papers) == 0 {
		return 0, nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO papers (
			title, arxiv_id, published, updated, summary,
			author, category, pdf_link, abstract_link, arxiv_link
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, p := range papers {
		res, err := stmt.ExecContext(ctx,
			p.Title, p.ArxivID,
			p.Published.UTC().Format(timeFormat),
			p.Updated.UTC().Format(timeFormat),
			p.Summary,
			joinList(p.Authors), joinList(p.Categories),
			p.PDFLink, p.AbstractLink, p.ArxivLink)
		if err != nil {
			return 0, fmt.Errorf("inserting paper %s: %w", p.ArxivID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("checking rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing batch: %w", err)
	}

	return inserted, nil
}

// CountPapers returns the number of stored papers.
func (d *DB) CountPapers(ctx context.Context) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM papers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}

// RecentPapers returns the most recently published papers.
func (d *DB) RecentPapers(ctx context.Context, limit int) ([]Paper, error) {
	rows, err := d.db.QueryContext(ctx,
		selectPapers+` ORDER BY published DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent papers: %w", err)
	}
	defer rows.Close()
	return scanPapers(rows)
}

// PapersByIDs returns the papers for the given ids, preserving the
// order of the input (the similarity index ranks them).
func (d *DB) PapersByIDs(ctx context.Context, ids []int64) ([]Paper, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := d.db.QueryContext(ctx,
		selectPapers+` WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying papers by id: %w", err)
	}
	defer rows.Close()

	papers, err := scanPapers(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]Paper, len(papers))
	for _, p := range papers {
		byID[p.ID] = p
	}

	ordered := make([]Paper, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// AllPapers returns every paper in insertion order.
func (d *DB) AllPapers(ctx context.Context) ([]Paper, error) {
	rows, err := d.db.QueryContext(ctx, selectPapers+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()
	return scanPapers(rows)
}

// PaperByID returns a single paper or sql.ErrNoRows.
func (d *DB) PaperByID(ctx context.Context, id int64) (Paper, error) {
	row := d.db.QueryRowContext(ctx, selectPapers+` WHERE id = ?`, id)
	return scanPaper(row)
}

// SummariesForIndex returns (id, summary) for every paper with a
// non-empty summary, the input to an index build.
func (d *DB) SummariesForIndex(ctx context.Context) ([]PaperSummary, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, summary FROM papers WHERE summary IS NOT NULL AND summary != '' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying summaries: %w", err)
	}
	defer rows.Close()

	var out []PaperSummary
	for rows.Next() {
		var s PaperSummary
		if err := rows.Scan(&s.ID, &s.Summary); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// EnsureUser creates the user if needed and returns its id.
func (d *DB) EnsureUser(ctx context.Context, username string) (int64, error) {
	if _, err := d.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (username) VALUES (?)`, username); err != nil {
		return 0, fmt.Errorf("creating user: %w", err)
	}

	var id int64
	err := d.db.QueryRowContext(ctx,
		`SELECT id FROM users WHERE username = ?`, username).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("looking up user: %w", err)
	}
	return id, nil
}

// SavePaper records a save action for the user.
func (d *DB) SavePaper(ctx context.Context, userID, paperID int64) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO user_saved_papers (user_id, paper_id) VALUES (?, ?)`, userID, paperID)
	if err != nil {
		return fmt.Errorf("saving paper: %w", err)
	}
	return nil
}

// UnsavePaper removes a save action.
func (d *DB) UnsavePaper(ctx context.Context, userID, paperID int64) error {
	_, err := d.db.ExecContext(ctx,
		`DELETE FROM user_saved_papers WHERE user_id = ? AND paper_id = ?`, userID, paperID)
	if err != nil {
		return fmt.Errorf("unsaving paper: %w", err)
	}
	return nil
}

// SavedPapers returns the papers a user has saved.
func (d *DB) SavedPapers(ctx context.Context, userID int64) ([]Paper, error) {
	rows, err := d.db.QueryContext(ctx, selectPapers+`
		WHERE id IN (SELECT paper_id FROM user_saved_papers WHERE user_id = ?)
		ORDER BY published DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying saved papers: %w", err)
	}
	defer rows.Close()
	return scanPapers(rows)
}

const selectPapers = `
	SELECT id, title, arxiv_id, published, updated, summary,
	       author, category, pdf_link, abstract_link, arxiv_link
	FROM papers`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaper(row rowScanner) (Paper, error) {
	var p Paper
	var published, updated string
	var summary, author, category, pdfLink, absLink, arxLink sql.NullString

	err := row.Scan(&p.ID, &p.Title, &p.ArxivID, &published, &updated,
		&summary, &author, &category, &pdfLink, &absLink, &arxLink)
	if err != nil {
		return Paper{}, err
	}

	p.Published, err = time.Parse(timeFormat, published)
	if err != nil {
		return Paper{}, fmt.Errorf("parsing published time: %w", err)
	}
	p.Updated, err = time.Parse(timeFormat, updated)
	if err != nil {
		return Paper{}, fmt.Errorf("parsing updated time: %w", err)
	}

	p.Summary = summary.String
	p.Authors = splitList(author.String)
	p.Categories = splitList(category.String)
	p.PDFLink = pdfLink.String
	p.AbstractLink = absLink.String
	p.ArxivLink = arxLink.String

	return p, nil
}

func scanPapers(rows *sql.Rows) ([]Paper, error) {
	var papers []Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}
