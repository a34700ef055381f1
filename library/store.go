package library

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Store is the sole gateway to the relational store. Every durable row is
// owned here; anything callers hold in memory is a disposable snapshot.
type Store struct {
	db  *sqlx.DB
	log *slog.Logger

	insertItemStmt *sql.Stmt
	insertUserStmt *sql.Stmt
}

// Open opens (or creates) the SQLite database at dbPath, applies schema
// migrations, and prepares common statements. A nil logger discards logs.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// Enable busy_timeout and foreign keys.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, storeErr("open sqlite", err)
	}

	if err := applyMigrations(db, logger); err != nil {
		db.Close()
		return nil, err
	}

	store := &Store{db: db, log: logger}
	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases prepared statements and closes the DB.
func (s *Store) Close() error {
	if s.insertItemStmt != nil {
		s.insertItemStmt.Close()
	}
	if s.insertUserStmt != nil {
		s.insertUserStmt.Close()
	}
	return s.db.Close()
}

// storeErr tags a driver failure so callers can match errors.Is(err, ErrStorage).
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStorage, err)
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sqlx.DB, logger *slog.Logger) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return storeErr("enable WAL", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return storeErr("create meta table", err)
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}
	logger.Info("applying schema migrations", "from", current, "to", schemaVersion)

	tx, err := db.Begin()
	if err != nil {
		return storeErr("begin migration", err)
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            username TEXT UNIQUE NOT NULL,
            password TEXT DEFAULT '',
            role TEXT NOT NULL,
            created_date TEXT DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS catalogue_items (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            item_type TEXT NOT NULL,
            dewey_decimal TEXT,
            isbn TEXT,
            genre TEXT,
            rating TEXT,
            issue_number INTEGER,
            publication_date TEXT,
            publication_year INTEGER,
            condition TEXT DEFAULT 'Good',
            is_available BOOLEAN DEFAULT 1,
            UNIQUE(title, author, publication_year)
        );`,
		`CREATE TABLE IF NOT EXISTS loans (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id INTEGER NOT NULL REFERENCES users(id),
            item_id INTEGER NOT NULL REFERENCES catalogue_items(id),
            checkout_date TEXT NOT NULL,
            due_date TEXT NOT NULL,
            return_date TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS holds (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id INTEGER NOT NULL REFERENCES users(id),
            item_id INTEGER NOT NULL REFERENCES catalogue_items(id),
            position INTEGER NOT NULL,
            created_date TEXT DEFAULT CURRENT_TIMESTAMP
        );`,
		`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, schemaVersion); err != nil {
			return storeErr("apply migration", err)
		}
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (s *Store) prepareStatements() error {
	var err error
	if s.insertItemStmt, err = s.db.Prepare(`INSERT INTO catalogue_items
        (title, author, item_type, dewey_decimal, isbn, genre, rating, issue_number, publication_date, publication_year, condition)
        VALUES (?,?,?,?,?,?,?,?,?,?,?)`); err != nil {
		return storeErr("prepare insert item", err)
	}
	if s.insertUserStmt, err = s.db.Prepare(`INSERT INTO users(username, password, role) VALUES(?,?,?)`); err != nil {
		return storeErr("prepare insert user", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Item encode / decode
// ---------------------------------------------------------------------------

// itemColumns flattens nullable payload columns so rows scan straight into
// Item. Selection order is insertion (key) order.
const itemColumns = `id, title, author, item_type,
    COALESCE(dewey_decimal,'') AS dewey_decimal,
    COALESCE(isbn,'') AS isbn,
    COALESCE(genre,'') AS genre,
    COALESCE(rating,'') AS rating,
    COALESCE(issue_number,0) AS issue_number,
    COALESCE(publication_date,'') AS publication_date,
    publication_year, condition, is_available`

// encodeItem maps a validated NewItem onto the insert statement's bind args,
// keyed on the kind discriminant. Payload columns outside the kind's subset
// stay NULL.
func encodeItem(n NewItem) []any {
	var dewey, isbn, genre, rating, pubDate sql.NullString
	var issue sql.NullInt64

	switch n.Kind {
	case KindFiction:
		isbn = sql.NullString{String: n.ISBN, Valid: true}
	case KindNonFiction:
		dewey = sql.NullString{String: n.DeweyDecimal, Valid: true}
		isbn = sql.NullString{String: n.ISBN, Valid: true}
	case KindMagazine:
		issue = sql.NullInt64{Int64: int64(n.IssueNumber), Valid: true}
		pubDate = sql.NullString{String: n.PublicationDate, Valid: true}
	case KindMovie, KindVideoGame:
		genre = sql.NullString{String: n.Genre, Valid: true}
		rating = sql.NullString{String: n.Rating, Valid: true}
	}

	return []any{n.Title, n.Author, string(n.Kind), dewey, isbn, genre, rating,
		issue, pubDate, n.PublicationYear, string(n.Condition)}
}

// decodeItem keeps only the payload fields that belong to the row's kind.
// Rows written by older tooling may carry stray values in unrelated columns;
// the variant never exposes them.
func decodeItem(it Item) Item {
	isbn, dewey, genre, rating, pubDate := it.ISBN, it.DeweyDecimal, it.Genre, it.Rating, it.PublicationDate
	issue := it.IssueNumber

	it.ISBN, it.DeweyDecimal, it.Genre, it.Rating, it.PublicationDate = "", "", "", "", ""
	it.IssueNumber = 0

	switch it.Kind {
	case KindFiction:
		it.ISBN = isbn
	case KindNonFiction:
		it.ISBN, it.DeweyDecimal = isbn, dewey
	case KindMagazine:
		it.IssueNumber, it.PublicationDate = issue, pubDate
	case KindMovie, KindVideoGame:
		it.Genre, it.Rating = genre, rating
	}
	return it
}

// ---------------------------------------------------------------------------
// Catalogue operations
// ---------------------------------------------------------------------------

// LoadAllItems returns the whole catalogue in key order.
func (s *Store) LoadAllItems() ([]Item, error) {
	var rows []Item
	if err := s.db.Select(&rows, `SELECT `+itemColumns+` FROM catalogue_items ORDER BY id`); err != nil {
		return nil, storeErr("load items", err)
	}
	for i := range rows {
		rows[i] = decodeItem(rows[i])
	}
	return rows, nil
}

// LoadItem fetches a single catalogue item by id.
func (s *Store) LoadItem(id int64) (Item, error) {
	var it Item
	err := s.db.Get(&it, `SELECT `+itemColumns+` FROM catalogue_items WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Item{}, storeErr("load item", err)
	}
	return decodeItem(it), nil
}

// ResolveID looks an item's id up by (title, author). Known limitation: the
// pair is not unique across reissues, and the first match by key order wins.
// Items loaded from the store already carry their id; prefer that.
func (s *Store) ResolveID(title, author string) (int64, error) {
	var id int64
	err := s.db.Get(&id, `SELECT id FROM catalogue_items WHERE title=? AND author=? ORDER BY id LIMIT 1`, title, author)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("item %q by %q: %w", title, author, ErrNotFound)
	}
	if err != nil {
		return 0, storeErr("resolve item id", err)
	}
	return id, nil
}

// InsertItem validates and inserts a new catalogue item, returning its id.
func (s *Store) InsertItem(n NewItem) (int64, error) {
	if err := n.Validate(); err != nil {
		return 0, err
	}

	res, err := s.insertItemStmt.Exec(encodeItem(n)...)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, fmt.Errorf("%q by %q (%d): %w", n.Title, n.Author, n.PublicationYear, ErrConstraintViolation)
		}
		return 0, storeErr("insert item", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("insert item", err)
	}
	return id, nil
}

// DeleteItem removes an item from the catalogue. It refuses with
// ErrDeleteProtected while any open loan or any hold references the id;
// that check lives here so no caller can skip it.
func (s *Store) DeleteItem(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return storeErr("delete item", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM catalogue_items WHERE id=?)`, id).Scan(&exists); err != nil {
		return storeErr("delete item", err)
	}
	if !exists {
		return fmt.Errorf("item %d: %w", id, ErrNotFound)
	}

	var openLoans, holds int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM loans WHERE item_id=? AND return_date IS NULL`, id).Scan(&openLoans); err != nil {
		return storeErr("delete item", err)
	}
	if err := tx.QueryRow(`SELECT COUNT(*) FROM holds WHERE item_id=?`, id).Scan(&holds); err != nil {
		return storeErr("delete item", err)
	}
	if openLoans > 0 || holds > 0 {
		return fmt.Errorf("item %d: %w", id, ErrDeleteProtected)
	}

	// Only closed loans remain at this point; drop them so the loans FK
	// does not block the delete.
	if _, err := tx.Exec(`DELETE FROM loans WHERE item_id=?`, id); err != nil {
		return storeErr("delete item", err)
	}
	if _, err := tx.Exec(`DELETE FROM catalogue_items WHERE id=?`, id); err != nil {
		return storeErr("delete item", err)
	}
	return tx.Commit()
}
