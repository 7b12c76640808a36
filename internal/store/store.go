// Package store implements the durable record store backing sessions,
// messages, todos and the fallback owner, on top of libsql.
package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/pressly/goose/v3"
	_ "github.com/tursodatabase/go-libsql"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotFound 表示按标识查询的记录不存在。
var ErrNotFound = errors.New("record not found")

// timeLayout 是定宽的时间戳格式。created_at 列按字典序排序，小数位必须
// 补零到固定长度，否则 "…00.12Z" 会排在 "…00.123Z" 之后。
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime 统一时间戳写入格式，始终使用 UTC。
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// Store wraps the libsql connection. Every exported method is a single
// atomic statement (or statement pair on one connection); there are no
// cross-call transactions, matching the per-invocation unit of work the
// tool set requires.
type Store struct {
	db *sql.DB
}

// Open connects to the libsql database at url (for example
// "file:data/todo.db") and applies pending migrations.
func Open(url string) (*Store, error) {
	db, err := sql.Open("libsql", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	log.Printf("[store] database ready at %s", url)
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
