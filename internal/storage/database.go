package storage

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/mattn/go-sqlite3"
)

// DriverName is the SQLite driver registered with a REGEXP function.
// SQLite rewrites "x REGEXP y" into regexp(y, x); the function is backed by
// regexp2 so label patterns may use lookahead.
const DriverName = "sqlite3_regexp"

const (
	regexpCacheSize = 512
	regexpTimeout   = 200 * time.Millisecond
)

var (
	regexpMu    sync.Mutex
	regexpCache = make(map[string]*regexp2.Regexp)
)

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("regexp", regexpMatch, true)
		},
	})
}

func regexpMatch(pattern, value string) (bool, error) {
	re, err := compilePattern(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(value)
}

func compilePattern(pattern string) (*regexp2.Regexp, error) {
	regexpMu.Lock()
	defer regexpMu.Unlock()

	if re, ok := regexpCache[pattern]; ok {
		return re, nil
	}
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	re.MatchTimeout = regexpTimeout
	if len(regexpCache) >= regexpCacheSize {
		regexpCache = make(map[string]*regexp2.Regexp)
	}
	regexpCache[pattern] = re
	return re, nil
}

// New opens a SQLite database connection at the given path.
// It enables foreign keys and sets connection pool settings.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys (disabled by default in SQLite)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS statutes (
			law_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			level TEXT NOT NULL DEFAULT '',
			issue_org TEXT NOT NULL DEFAULT '',
			issue_date TEXT NOT NULL DEFAULT '',
			effect_date TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT '有效',
			summary TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '[]',
			source_url TEXT NOT NULL DEFAULT '',
			full_text TEXT NOT NULL DEFAULT '',
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS articles (
			id TEXT PRIMARY KEY,
			law_id TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			label TEXT NOT NULL DEFAULT '',
			chapter_path TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			keywords TEXT NOT NULL DEFAULT '[]',
			embedding BLOB,
			FOREIGN KEY (law_id) REFERENCES statutes(law_id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_articles_law_seq ON articles (law_id, sequence);`,
		`CREATE INDEX IF NOT EXISTS idx_statutes_title ON statutes (title);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
