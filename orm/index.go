package orm

import (
	"bytes"

	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/errors"
)

// Index is a secondary index of a bucket.
type Index interface {
	// Name returns the name of this index.
	Name() string

	// Update updates the index. It should be called when any of the bucket
	// entities has changed in the store.
	//
	// prev == nil means insert
	// save == nil means delete
	// both == nil is error
	// if both != nil and prev.Key() != save.Key() this is an error
	Update(db tokenflow.KVStore, prev Object, save Object) error

	// Keys returns all entity keys that were indexed under given value.
	Keys(db tokenflow.ReadOnlyKVStore, value []byte) ([][]byte, error)
}

const compactIdxPrefix = "_i."

// Indexer calculates the secondary index key for a given object
type Indexer func(Object) ([]byte, error)

// MultiKeyIndexer calculates the secondary index keys for a given object
type MultiKeyIndexer func(Object) ([][]byte, error)

// compactIndex stores all entities indexed under one value as a set
// serialized under a single key. It is indexed by an arbitrary key
// returned by the indexer. The value is one primary key (unique),
// or a MultiRef of primary keys (!unique).
type compactIndex struct {
	name   string
	id     []byte
	unique bool
	index  MultiKeyIndexer
}

// NewMultiKeyIndex constructs an index with multi key indexer.
// Indexer calculates the index for an object
// unique enforces a unique constraint on the index
func NewMultiKeyIndex(name string, indexer MultiKeyIndexer, unique bool) Index {
	return compactIndex{
		name:   name,
		id:     append([]byte(compactIdxPrefix), []byte(name+":")...),
		index:  indexer,
		unique: unique,
	}
}

func asMultiKeyIndexer(indexer Indexer) MultiKeyIndexer {
	return func(obj Object) ([][]byte, error) {
		key, err := indexer(obj)
		switch {
		case err != nil:
			return nil, err
		case key == nil:
			return nil, nil
		}
		return [][]byte{key}, nil
	}
}

func (i compactIndex) Name() string {
	return i.name
}

// indexKey is the full key we store in the db, including prefix
func (i compactIndex) indexKey(key []byte) []byte {
	l := len(i.id)
	out := make([]byte, l+len(key))
	copy(out, i.id)
	copy(out[l:], key)
	return out
}

// Update handles updating the reference to the object in
// the secondary index.
func (i compactIndex) Update(db tokenflow.KVStore, prev Object, save Object) error {
	switch {
	case prev == nil && save == nil:
		return errors.Wrap(errors.ErrHuman, "update requires at least one non-nil object")
	case prev == nil:
		keys, err := i.index(save)
		if err != nil {
			return err
		}
		return i.insertAll(db, keys, save.Key())
	case save == nil:
		keys, err := i.index(prev)
		if err != nil {
			return err
		}
		return i.removeAll(db, keys, prev.Key())
	}

	if !bytes.Equal(prev.Key(), save.Key()) {
		return errors.Wrap(errors.ErrHuman, "cannot modify the primary key of an object")
	}
	prevKeys, err := i.index(prev)
	if err != nil {
		return err
	}
	saveKeys, err := i.index(save)
	if err != nil {
		return err
	}
	if err := i.removeAll(db, subtract(prevKeys, saveKeys), prev.Key()); err != nil {
		return err
	}
	return i.insertAll(db, subtract(saveKeys, prevKeys), save.Key())
}

// subtract returns the elements of a not present in b.
func subtract(a, b [][]byte) [][]byte {
	var res [][]byte
outer:
	for _, x := range a {
		for _, y := range b {
			if bytes.Equal(x, y) {
				continue outer
			}
		}
		res = append(res, x)
	}
	return res
}

func (i compactIndex) insertAll(db tokenflow.KVStore, keys [][]byte, pk []byte) error {
	for _, key := range keys {
		if err := i.insert(db, key, pk); err != nil {
			return err
		}
	}
	return nil
}

func (i compactIndex) removeAll(db tokenflow.KVStore, keys [][]byte, pk []byte) error {
	for _, key := range keys {
		if err := i.remove(db, key, pk); err != nil {
			return err
		}
	}
	return nil
}

func (i compactIndex) insert(db tokenflow.KVStore, key, pk []byte) error {
	dbkey := i.indexKey(key)
	cur, err := db.Get(dbkey)
	if err != nil {
		return err
	}

	if i.unique {
		if cur != nil {
			return errors.Wrapf(errors.ErrDuplicate, "unique index %s: %X", i.name, key)
		}
		return db.Set(dbkey, pk)
	}

	var refs MultiRef
	if cur != nil {
		if err := refs.Unmarshal(cur); err != nil {
			return errors.Wrap(errors.ErrInvalidState, err.Error())
		}
	}
	if err := refs.Add(pk); err != nil {
		return err
	}
	bz, err := refs.Marshal()
	if err != nil {
		return err
	}
	return db.Set(dbkey, bz)
}

func (i compactIndex) remove(db tokenflow.KVStore, key, pk []byte) error {
	dbkey := i.indexKey(key)
	cur, err := db.Get(dbkey)
	if err != nil {
		return err
	}
	if cur == nil {
		return errors.Wrapf(errors.ErrNotFound, "index %s: %X", i.name, key)
	}

	if i.unique {
		if !bytes.Equal(cur, pk) {
			return errors.Wrapf(errors.ErrInvalidState, "index %s: %X references another object", i.name, key)
		}
		return db.Delete(dbkey)
	}

	var refs MultiRef
	if err := refs.Unmarshal(cur); err != nil {
		return errors.Wrap(errors.ErrInvalidState, err.Error())
	}
	if err := refs.Remove(pk); err != nil {
		return err
	}
	if len(refs.Refs) == 0 {
		return db.Delete(dbkey)
	}
	bz, err := refs.Marshal()
	if err != nil {
		return err
	}
	return db.Set(dbkey, bz)
}

// Keys returns a list of all entity keys that were indexed under given value.
func (i compactIndex) Keys(db tokenflow.ReadOnlyKVStore, value []byte) ([][]byte, error) {
	val, err := db.Get(i.indexKey(value))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, nil
	}
	if i.unique {
		return [][]byte{val}, nil
	}
	var refs MultiRef
	if err := refs.Unmarshal(val); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidState, err.Error())
	}
	return refs.Refs, nil
}
