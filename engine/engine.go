package engine

import (
	"database/sql"
	"sync"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

// DriverName is the database/sql driver name registered by modernc.org/sqlite.
const DriverName = "sqlite"

var registerOnce sync.Once

// Open opens a SQLite database using the modernc.org/sqlite driver. The
// vector scalar functions are registered before the first connection is
// created so every connection sees them.
//
// For file-based databases, pass a path like "./features.sqlite". For
// in-memory databases, pass ":memory:"; note that each pooled connection gets
// its own in-memory database, so callers should SetMaxOpenConns(1).
func Open(dsn string) (*sql.DB, error) {
	registerOnce.Do(registerVectorFunctions)
	return sql.Open(DriverName, dsn)
}
