package store

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// State is the population state of a Store.
type State int

const (
	Empty State = iota
	Loading
	Populated
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Loading:
		return "loading"
	case Populated:
		return "populated"
	}
	return "unknown"
}

var (
	locksMu sync.Mutex
	locks   = map[string]*semaphore.Weighted{}
)

// datasetLock returns the process-wide writer lock of a dataset.
func datasetLock(dataset string) *semaphore.Weighted {
	locksMu.Lock()
	defer locksMu.Unlock()
	l, ok := locks[dataset]
	if !ok {
		l = semaphore.NewWeighted(1)
		locks[dataset] = l
	}
	return l
}

// lock acquires the dataset lock, giving up when ctx is done.
func (s *Store) lock(ctx context.Context) (func(), error) {
	if err := s.writer.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { s.writer.Release(1) }, nil
}
