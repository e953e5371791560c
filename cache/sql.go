package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql" // register mysql driver
	_ "github.com/lib/pq"              // register postgres driver
	"github.com/viant/imgsim/engine"
	"github.com/viant/imgsim/vector"
)

// Dialect selects SQL syntax for a relational backend.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

// SQL stores one row per image in image_features, keyed by (dataset, name),
// and records every saved dataset in feature_datasets so an empty dataset is
// distinguishable from a missing one.
type SQL struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQL opens a database for the dialect and ensures the schema exists.
func OpenSQL(dialect Dialect, dsn string) (*SQL, error) {
	var (
		db  *sql.DB
		err error
	)
	switch dialect {
	case SQLite:
		db, err = engine.Open(dsn)
	case Postgres, MySQL:
		db, err = sql.Open(string(dialect), dsn)
	default:
		return nil, fmt.Errorf("cache: unsupported SQL dialect %q", dialect)
	}
	if err != nil {
		return nil, err
	}
	s, err := NewSQL(db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQL wraps an open database. It ensures the feature tables exist.
func NewSQL(db *sql.DB, dialect Dialect) (*SQL, error) {
	if db == nil {
		return nil, fmt.Errorf("cache: db is nil")
	}
	s := &SQL{db: db, dialect: dialect}
	if err := s.EnsureSchema(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// DB returns the underlying database handle.
func (s *SQL) DB() *sql.DB { return s.db }

// Close closes the underlying database.
func (s *SQL) Close() error { return s.db.Close() }

// EnsureSchema creates the feature tables if they do not already exist.
func (s *SQL) EnsureSchema(ctx context.Context) error {
	text, integer, blob := "TEXT", "INTEGER", "BLOB"
	switch s.dialect {
	case Postgres:
		integer, blob = "BIGINT", "BYTEA"
	case MySQL:
		text, integer, blob = "VARCHAR(255)", "BIGINT", "LONGBLOB"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS feature_datasets (
    dataset   ` + text + ` PRIMARY KEY,
    dimension ` + integer + ` NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS image_features (
    dataset   ` + text + ` NOT NULL,
    name      ` + text + ` NOT NULL,
    position  ` + integer + ` NOT NULL,
    embedding ` + blob + `,
    PRIMARY KEY(dataset, name)
)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("cache: ensure schema: %w", err)
		}
	}
	return nil
}

// bind rewrites ? placeholders to $n for postgres.
func (s *SQL) bind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQL) upsert(conflict, column string) string {
	if s.dialect == MySQL {
		return fmt.Sprintf(" ON DUPLICATE KEY UPDATE %[1]s = VALUES(%[1]s)", column)
	}
	return fmt.Sprintf(" ON CONFLICT(%s) DO UPDATE SET %[2]s = excluded.%[2]s", conflict, column)
}

func (s *SQL) markDataset(ctx context.Context, tx *sql.Tx, dataset string, dim int) error {
	q := `INSERT INTO feature_datasets(dataset, dimension) VALUES(?, ?)` + s.upsert("dataset", "dimension")
	_, err := tx.ExecContext(ctx, s.bind(q), dataset, dim)
	return err
}

// Save replaces all rows of dataset inside a single transaction.
func (s *SQL) Save(ctx context.Context, dataset string, vectors []vector.Vector) error {
	if dataset == "" {
		return fmt.Errorf("cache: dataset name is empty")
	}
	dim, err := vector.Dimension(vectors)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.bind(`DELETE FROM image_features WHERE dataset = ?`), dataset); err != nil {
		return err
	}
	if err := s.markDataset(ctx, tx, dataset, dim); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, s.bind(`INSERT INTO image_features(dataset, name, position, embedding) VALUES(?, ?, ?, ?)`))
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, v := range vectors {
		if _, err := stmt.ExecContext(ctx, dataset, v.Owner, i, vector.EncodeEmbedding(v.Values)); err != nil {
			return fmt.Errorf("cache: insert %q: %w", v.Owner, err)
		}
	}
	return tx.Commit()
}

// Load returns the rows of dataset ordered by position.
func (s *SQL) Load(ctx context.Context, dataset string) ([]vector.Vector, error) {
	var dim int
	err := s.db.QueryRowContext(ctx, s.bind(`SELECT dimension FROM feature_datasets WHERE dataset = ?`), dataset).Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, s.bind(`SELECT name, embedding FROM image_features WHERE dataset = ? ORDER BY position`), dataset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []vector.Vector{}
	for rows.Next() {
		var (
			name string
			blob []byte
		)
		if err := rows.Scan(&name, &blob); err != nil {
			return nil, err
		}
		values, err := vector.DecodeEmbedding(blob)
		if err != nil {
			return nil, err
		}
		if len(values) != dim {
			return nil, &vector.DimensionMismatchError{Expected: dim, Actual: len(values), Owner: name}
		}
		out = append(out, vector.Vector{Owner: name, Values: values})
	}
	return out, rows.Err()
}

// Append inserts or overwrites one row. An overwritten row keeps its position.
func (s *SQL) Append(ctx context.Context, dataset string, v vector.Vector) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.markDataset(ctx, tx, dataset, v.Dim()); err != nil {
		return err
	}
	var next int64
	if err := tx.QueryRowContext(ctx, s.bind(`SELECT COALESCE(MAX(position) + 1, 0) FROM image_features WHERE dataset = ?`), dataset).Scan(&next); err != nil {
		return err
	}
	q := `INSERT INTO image_features(dataset, name, position, embedding) VALUES(?, ?, ?, ?)` + s.upsert("dataset, name", "embedding")
	if _, err := tx.ExecContext(ctx, s.bind(q), dataset, v.Owner, next, vector.EncodeEmbedding(v.Values)); err != nil {
		return err
	}
	return tx.Commit()
}

// Remove deletes one row.
func (s *SQL) Remove(ctx context.Context, dataset, owner string) error {
	_, err := s.db.ExecContext(ctx, s.bind(`DELETE FROM image_features WHERE dataset = ? AND name = ?`), dataset, owner)
	return err
}

// Match is a row returned by Nearest.
type Match struct {
	Name     string
	Distance float64
}

// Nearest runs an exact Euclidean kNN inside SQLite using the vec_l2 scalar
// function, ordering ties by position. Only the sqlite dialect supports it.
func (s *SQL) Nearest(ctx context.Context, dataset string, query []float32, k int) ([]Match, error) {
	if s.dialect != SQLite {
		return nil, fmt.Errorf("cache: Nearest requires the sqlite dialect, got %s", s.dialect)
	}
	if k <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT name, vec_l2(embedding, ?) AS distance
FROM image_features WHERE dataset = ?
ORDER BY distance, position LIMIT ?`, vector.EncodeEmbedding(query), dataset, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.Name, &m.Distance); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

var (
	_ Backend  = (*SQL)(nil)
	_ Appender = (*SQL)(nil)
	_ Remover  = (*SQL)(nil)
)
