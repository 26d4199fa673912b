package lyriccache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ytget/qrcdl/internal/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS lyrics (
    key         TEXT PRIMARY KEY,
    lyrics      TEXT NOT NULL,
    trans       TEXT NOT NULL,
    roma        TEXT NOT NULL,
    stored_at   INTEGER NOT NULL,
    expires_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_lyrics_expires ON lyrics(expires_at);
`

// SQLiteCache keeps lyric entries in a SQLite database. An expires_at of 0
// means the entry never expires.
type SQLiteCache struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens or creates the cache database at path.
func OpenSQLite(path string) (*SQLiteCache, error) {
	if path == "" {
		return nil, errors.New("cache path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteCache{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (c *SQLiteCache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Get retrieves an entry by key. Read errors are logged and reported as a miss.
func (c *SQLiteCache) Get(key string) (Entry, bool) {
	var (
		e         Entry
		expiresAt int64
	)
	err := c.db.QueryRow(`SELECT lyrics, trans, roma, expires_at FROM lyrics WHERE key = ?`, key).
		Scan(&e.Lyrics, &e.Trans, &e.Roma, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false
	}
	if err != nil {
		logger.WithComponent(logger.ComponentCache).Warn("Cache read failed", map[string]interface{}{
			"key":   key,
			"error": err,
		})
		return Entry{}, false
	}
	if expiresAt != 0 {
		e.ExpiresAt = time.Unix(0, expiresAt)
	}
	if e.Expired(c.now()) {
		if _, err := c.db.Exec(`DELETE FROM lyrics WHERE key = ?`, key); err != nil {
			logger.WithComponent(logger.ComponentCache).Warn("Cache delete failed", map[string]interface{}{
				"key":   key,
				"error": err,
			})
		}
		return Entry{}, false
	}
	return e, true
}

// Set stores an entry, replacing any previous value. Write errors are logged.
func (c *SQLiteCache) Set(key string, value Entry) {
	var expiresAt int64
	if !value.ExpiresAt.IsZero() {
		expiresAt = value.ExpiresAt.UnixNano()
	}
	_, err := c.db.Exec(`
		INSERT INTO lyrics (key, lyrics, trans, roma, stored_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			lyrics = excluded.lyrics,
			trans = excluded.trans,
			roma = excluded.roma,
			stored_at = excluded.stored_at,
			expires_at = excluded.expires_at`,
		key, value.Lyrics, value.Trans, value.Roma, c.now().UnixNano(), expiresAt,
	)
	if err != nil {
		logger.WithComponent(logger.ComponentCache).Warn("Cache write failed", map[string]interface{}{
			"key":   key,
			"error": err,
		})
	}
}

// Purge deletes every expired entry and returns how many were removed.
func (c *SQLiteCache) Purge() (int64, error) {
	res, err := c.db.Exec(`DELETE FROM lyrics WHERE expires_at != 0 AND expires_at <= ?`, c.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	return res.RowsAffected()
}
