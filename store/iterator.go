package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/iov-one/tokenflow/errors"
)

// ascendBtree returns a snapshot of all btree items within [start, end) in
// ascending order. A nil boundary is open.
//
// The snapshot decouples iteration from later writes to the btree, so an
// iterator never observes a half applied change.
func ascendBtree(bt *btree.BTree, start, end []byte) []cacheItem {
	var items []cacheItem
	collect := func(i btree.Item) bool {
		items = append(items, i.(cacheItem))
		return true
	}
	switch {
	case start == nil && end == nil:
		bt.Ascend(collect)
	case start == nil:
		bt.AscendLessThan(cacheItem{key: end}, collect)
	case end == nil:
		bt.AscendGreaterOrEqual(cacheItem{key: start}, collect)
	default:
		bt.AscendRange(cacheItem{key: start}, cacheItem{key: end}, collect)
	}
	return items
}

// descendBtree returns the same items as ascendBtree, in descending order.
func descendBtree(bt *btree.BTree, start, end []byte) []cacheItem {
	items := ascendBtree(bt, start, end)
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items
}

// mergeIter combines the items cached in a btree with the iterator of the
// parent store. Where both hold the same key, the cached item wins. Deleted
// cached items hide the parent value.
type mergeIter struct {
	items  []cacheItem
	pos    int
	parent Iterator
	asc    bool
}

var _ Iterator = (*mergeIter)(nil)

func newMergeIter(items []cacheItem, parent Iterator, ascending bool) (*mergeIter, error) {
	it := &mergeIter{
		items:  items,
		parent: parent,
		asc:    ascending,
	}
	if err := it.skipDeleted(); err != nil {
		it.Close()
		return nil, err
	}
	return it, nil
}

// source marks where the current item comes from
type source int32

const (
	none source = iota
	us
	parent
	both
)

func (i *mergeIter) ourValid() bool {
	return i.pos < len(i.items)
}

func (i *mergeIter) parentValid() bool {
	return i.parent != nil && i.parent.Valid()
}

// current selects the iterator positioned on the next key to return.
func (i *mergeIter) current() source {
	switch ours, theirs := i.ourValid(), i.parentValid(); {
	case !ours && !theirs:
		return none
	case !theirs:
		return us
	case !ours:
		return parent
	}

	cmp := bytes.Compare(i.items[i.pos].key, i.parent.Key())
	if !i.asc {
		cmp = -cmp
	}
	switch {
	case cmp < 0:
		return us
	case cmp > 0:
		return parent
	default:
		return both
	}
}

// skipDeleted advances over cached deletions, including the parent value
// they shadow.
func (i *mergeIter) skipDeleted() error {
	for {
		src := i.current()
		if src != us && src != both {
			return nil
		}
		if !i.items[i.pos].deleted {
			return nil
		}
		i.pos++
		if src == both {
			if err := i.parent.Next(); err != nil {
				return err
			}
		}
	}
}

// Valid implements Iterator and returns true iff it can be read
func (i *mergeIter) Valid() bool {
	return i.current() != none
}

// Next moves the iterator to the next sequential key in the database, as
// defined by order of iteration.
//
// If Valid returns false, this method will panic.
func (i *mergeIter) Next() error {
	switch i.current() {
	case us:
		i.pos++
	case both:
		i.pos++
		if err := i.parent.Next(); err != nil {
			return err
		}
	case parent:
		if err := i.parent.Next(); err != nil {
			return err
		}
	default:
		panic("Advanced past the end!")
	}
	return i.skipDeleted()
}

// Key returns the key of the cursor.
func (i *mergeIter) Key() []byte {
	switch i.current() {
	case us, both:
		return i.items[i.pos].key
	case parent:
		return i.parent.Key()
	default:
		panic("Advanced past the end!")
	}
}

// Value returns the value of the cursor.
func (i *mergeIter) Value() []byte {
	switch i.current() {
	case us, both:
		return i.items[i.pos].value
	case parent:
		return i.parent.Value()
	default:
		panic("Advanced past the end!")
	}
}

// Close releases the Iterator.
func (i *mergeIter) Close() {
	if i.parent != nil {
		i.parent.Close()
	}
	i.items = nil
}

// ReadAll consumes the whole iterator and returns all visited pairs. The
// iterator is closed.
func ReadAll(it Iterator) ([]Model, error) {
	defer it.Close()
	var res []Model
	for it.Valid() {
		res = append(res, Pair(it.Key(), it.Value()))
		if err := it.Next(); err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, err.Error())
		}
	}
	return res, nil
}
