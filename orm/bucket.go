/*
Package orm provides an easy to use db wrapper

Break state space into prefixed sections called Buckets.
* Each bucket contains only one type of object.
* It has a primary index (which may be composite),
and may possess secondary indexes.
* It may possess one or more secondary indexes (1:1 or 1:N)
* Easy queries for one and iteration.
*/
package orm

import (
	"fmt"
	"regexp"

	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/store"
)

const (
	// SeqID is a constant to use to get a default ID sequence
	SeqID = "id"
)

var (
	isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString
)

// Bucket is a generic holder that stores data as well
// as references to secondary indexes and sequences.
//
// This is a generic building block that should generally
// be embedded in a type-safe wrapper to ensure all data
// is the same type.
// Bucket is a prefixed subspace of the DB
// proto defines the default Model, all elements of this type
type Bucket struct {
	name    string
	prefix  []byte
	proto   Cloneable
	indexes map[string]Index
}

// NewBucket creates a bucket to store data
func NewBucket(name string, proto Cloneable) Bucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("Illegal bucket: %s", name))
	}

	return Bucket{
		name:   name,
		prefix: append([]byte(name), ':'),
		proto:  proto,
	}
}

// Name returns the name of this bucket.
func (b Bucket) Name() string {
	return b.name
}

// DBKey is the full key we store in the db, including prefix
// We copy into a new array rather than use append, as we don't
// want consecutive calls to overwrite the same byte array.
func (b Bucket) DBKey(key []byte) []byte {
	l := len(b.prefix)
	out := make([]byte, l+len(key))
	copy(out, b.prefix)
	copy(out[l:], key)
	return out
}

// Get one element. Returns nil and no error on a miss.
func (b Bucket) Get(db tokenflow.ReadOnlyKVStore, key []byte) (Object, error) {
	bz, err := db.Get(b.DBKey(key))
	if err != nil {
		return nil, errors.Wrap(err, "bucket get")
	}
	if bz == nil {
		return nil, nil
	}
	return b.Parse(key, bz)
}

// Has returns true if an element exists under given key.
func (b Bucket) Has(db tokenflow.ReadOnlyKVStore, key []byte) (bool, error) {
	return db.Has(b.DBKey(key))
}

// Parse takes a key and value data and reconstructs the data this Bucket
// would return.
func (b Bucket) Parse(key, value []byte) (Object, error) {
	obj := b.proto.Clone()
	if err := obj.Value().Unmarshal(value); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidState, "cannot parse %s %X: %s", b.name, key, err)
	}
	obj.SetKey(key)
	return obj, nil
}

// Save will write a model, it must be of the same type as proto
func (b Bucket) Save(db tokenflow.KVStore, model Object) error {
	if err := model.Validate(); err != nil {
		return err
	}
	bz, err := model.Value().Marshal()
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidState, "cannot serialize: %s", err)
	}
	if err := b.updateIndexes(db, model.Key(), model); err != nil {
		return err
	}
	return db.Set(b.DBKey(model.Key()), bz)
}

// Delete will remove the value at a key
func (b Bucket) Delete(db tokenflow.KVStore, key []byte) error {
	if err := b.updateIndexes(db, key, nil); err != nil {
		return err
	}
	return db.Delete(b.DBKey(key))
}

func (b Bucket) updateIndexes(db tokenflow.KVStore, key []byte, model Object) error {
	if len(b.indexes) == 0 {
		return nil
	}
	prev, err := b.Get(db, key)
	if err != nil {
		return err
	}
	if prev == nil && model == nil {
		return nil
	}
	for _, idx := range b.indexes {
		if err := idx.Update(db, prev, model); err != nil {
			return err
		}
	}
	return nil
}

// Sequence returns a Sequence by name
func (b Bucket) Sequence(name string) Sequence {
	return NewSequence(b.name, name)
}

// WithIndex returns a copy of this bucket with given index,
// panics if it an index with that name is already registered.
//
// Designed to be chained.
func (b Bucket) WithIndex(name string, indexer Indexer, unique bool) Bucket {
	return b.WithMultiKeyIndex(name, asMultiKeyIndexer(indexer), unique)
}

// WithMultiKeyIndex returns a copy of this bucket with an index that may
// reference one object under several keys.
func (b Bucket) WithMultiKeyIndex(name string, indexer MultiKeyIndexer, unique bool) Bucket {
	// no duplicate indexes! (panic on init)
	if _, ok := b.indexes[name]; ok {
		panic(fmt.Sprintf("Index %s registered twice", name))
	}

	iname := b.name + "_" + name
	add := NewMultiKeyIndex(iname, indexer, unique)
	indexes := make(map[string]Index, len(b.indexes)+1)
	for n, i := range b.indexes {
		indexes[n] = i
	}
	indexes[name] = add
	b.indexes = indexes
	return b
}

// GetIndexed queries the named index for the given key
func (b Bucket) GetIndexed(db tokenflow.ReadOnlyKVStore, name string, key []byte) ([]Object, error) {
	idx, ok := b.indexes[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrHuman, "no index %q in %s bucket", name, b.name)
	}
	refs, err := idx.Keys(db, key)
	if err != nil {
		return nil, err
	}
	return b.readRefs(db, refs)
}

func (b Bucket) readRefs(db tokenflow.ReadOnlyKVStore, refs [][]byte) ([]Object, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	objs := make([]Object, 0, len(refs))
	for _, key := range refs {
		obj, err := b.Get(db, key)
		if err != nil {
			return nil, err
		}
		if obj == nil {
			return nil, errors.Wrapf(errors.ErrInvalidState, "index references missing %s %X", b.name, key)
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

// Scan visits, in key order, every object of this bucket whose key starts
// with given prefix. Returning false from fn stops the iteration.
func (b Bucket) Scan(db tokenflow.ReadOnlyKVStore, prefix []byte, fn func(Object) (bool, error)) error {
	start := b.DBKey(prefix)
	it, err := db.Iterator(start, store.PrefixEnd(start))
	if err != nil {
		return errors.Wrap(err, "scan")
	}
	defer it.Close()

	for it.Valid() {
		obj, err := b.Parse(it.Key()[len(b.prefix):], it.Value())
		if err != nil {
			return err
		}
		more, err := fn(obj)
		if err != nil || !more {
			return err
		}
		if err := it.Next(); err != nil {
			return errors.Wrap(err, "scan")
		}
	}
	return nil
}
