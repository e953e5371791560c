package cache

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/viant/imgsim/vector"
)

// Badger is a Backend storing both artifacts of a dataset under
// imgsim/<key>/vectors and imgsim/<key>/names in a BadgerDB.
type Badger struct {
	db *badger.DB
}

// BadgerOptions configures the BadgerDB backend.
type BadgerOptions struct {
	// Dir is the directory for BadgerDB data files. Required unless InMemory.
	Dir string

	// InMemory runs BadgerDB without disk persistence.
	InMemory bool

	// Logger sets the badger logger. Nil silences badger output.
	Logger badger.Logger
}

// NewBadger opens a BadgerDB-backed cache.
func NewBadger(opts BadgerOptions) (*Badger, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("cache: BadgerOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	if opts.Logger != nil {
		dbOpts = dbOpts.WithLogger(opts.Logger)
	} else {
		dbOpts = dbOpts.WithLogger(quietLogger{})
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("cache: open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

// Close closes the underlying database.
func (b *Badger) Close() error { return b.db.Close() }

func badgerKeys(dataset string) ([]byte, []byte, error) {
	key, err := Key(dataset)
	if err != nil {
		return nil, nil, err
	}
	return []byte("imgsim/" + key + "/vectors"), []byte("imgsim/" + key + "/names"), nil
}

func (b *Badger) Save(_ context.Context, dataset string, vectors []vector.Vector) error {
	vecKey, namesKey, err := badgerKeys(dataset)
	if err != nil {
		return err
	}
	a, err := encode(vectors)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(vecKey, a.vectors); err != nil {
			return err
		}
		return txn.Set(namesKey, a.names)
	})
}

func (b *Badger) Load(_ context.Context, dataset string) ([]vector.Vector, error) {
	vecKey, namesKey, err := badgerKeys(dataset)
	if err != nil {
		return nil, err
	}
	var a artifacts
	err = b.db.View(func(txn *badger.Txn) error {
		if a.vectors, err = getValue(txn, vecKey); err != nil {
			return err
		}
		a.names, err = getValue(txn, namesKey)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return decode(a)
}

func getValue(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

type quietLogger struct{}

func (quietLogger) Errorf(string, ...interface{})   {}
func (quietLogger) Warningf(string, ...interface{}) {}
func (quietLogger) Infof(string, ...interface{})    {}
func (quietLogger) Debugf(string, ...interface{})   {}

var _ Backend = (*Badger)(nil)
