package iavl

import (
	"sync"

	"github.com/tendermint/iavl"
	dbm "github.com/tendermint/tendermint/libs/db"

	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/store"
)

// DefaultCacheSize is the number of tree nodes kept in memory.
const DefaultCacheSize = 10000

// CommitStore manages a iavl committed state.
//
// The underlying tree is not safe for concurrent use. All access goes
// through the store's lock, so both the adapter and its cache wraps can
// be shared between goroutines.
type CommitStore struct {
	mu   sync.Mutex
	tree *iavl.MutableTree
	db   dbm.DB
}

var _ store.CommitKVStore = (*CommitStore)(nil)

// NewCommitStore creates a new store with disk backing. Data is kept in a
// goleveldb database called name, inside of dir.
func NewCommitStore(dir, name string) (*CommitStore, error) {
	db, err := dbm.NewGoLevelDB(name, dir)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open %s/%s: %s", dir, name, err)
	}
	s := newCommitStore(db)
	if err := s.LoadLatestVersion(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// MockCommitStore creates a new in-memory store for testing.
func MockCommitStore() *CommitStore {
	return newCommitStore(dbm.NewMemDB())
}

func newCommitStore(db dbm.DB) *CommitStore {
	return &CommitStore{
		tree: iavl.NewMutableTree(db, DefaultCacheSize),
		db:   db,
	}
}

// Close releases the database.
func (s *CommitStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.db.Close()
}

// Get returns the value at last committed state
// returns nil iff key doesn't exist. Panics on nil key.
func (s *CommitStore) Get(key []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, val := s.tree.GetVersioned(key, s.tree.Version())
	return val, nil
}

// Commit the next version to disk, and returns info
func (s *CommitStore) Commit() (store.CommitID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash, version, err := s.tree.SaveVersion()
	if err != nil {
		return store.CommitID{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return store.CommitID{
		Version: version,
		Hash:    hash,
	}, nil
}

// LoadLatestVersion loads the latest persisted version.
// If there was a crash during the last commit, it is guaranteed
// to return a stable state, even if older.
func (s *CommitStore) LoadLatestVersion() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.tree.Load(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// LatestVersion returns info on the latest version saved to disk
func (s *CommitStore) LatestVersion() (store.CommitID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return store.CommitID{
		Version: s.tree.Version(),
		Hash:    s.tree.Hash(),
	}, nil
}

// Adapter returns a wrapped version of the tree.
//
// Data written here is stored in the tip of the version tree,
// and will be written to disk on Commit. There is no way
// to rollback writes here, without throwing away this store
// and loading from disk.
func (s *CommitStore) Adapter() store.CacheableKVStore {
	return adapter{s: s}
}

// CacheWrap wraps the adapter with a btree cache that is isolated and can
// be discarded or written.
func (s *CommitStore) CacheWrap() store.KVCacheWrap {
	return s.Adapter().CacheWrap()
}

// adapter gives access to the working tree
type adapter struct {
	s *CommitStore
}

var _ store.CacheableKVStore = adapter{}

// Get returns nil iff key doesn't exist. Panics on nil key.
func (a adapter) Get(key []byte) ([]byte, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	_, val := a.s.tree.Get(key)
	return val, nil
}

// Has checks if a key exists. Panics on nil key.
func (a adapter) Has(key []byte) (bool, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	return a.s.tree.Has(key), nil
}

// Set adds a new value
func (a adapter) Set(key, value []byte) error {
	if key == nil || value == nil {
		return errors.Wrap(errors.ErrHuman, "nil key or value")
	}
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	a.s.tree.Set(key, value)
	return nil
}

// Delete removes from the tree
func (a adapter) Delete(key []byte) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	a.s.tree.Remove(key)
	return nil
}

// NewBatch returns a batch that can write multiple ops
func (a adapter) NewBatch() store.Batch {
	return store.NewNonAtomicBatch(a)
}

// CacheWrap wraps us once again, with btree
func (a adapter) CacheWrap() store.KVCacheWrap {
	return store.NewBTreeCacheWrap(a, a.NewBatch(), nil)
}

// Iterator over a domain of keys in ascending order. End is exclusive.
// Start must be less than end, or the Iterator is invalid.
func (a adapter) Iterator(start, end []byte) (store.Iterator, error) {
	return a.iterate(start, end, true), nil
}

// ReverseIterator over a domain of keys in descending order. End is exclusive.
func (a adapter) ReverseIterator(start, end []byte) (store.Iterator, error) {
	return a.iterate(start, end, false), nil
}

// iterate loads the whole range while holding the lock.
func (a adapter) iterate(start, end []byte, ascending bool) store.Iterator {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	var res []store.Model
	a.s.tree.IterateRange(start, end, ascending, func(key, value []byte) bool {
		res = append(res, store.Pair(key, value))
		return false
	})
	return store.NewSliceIterator(res)
}
