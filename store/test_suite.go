package store

import (
	"bytes"
	"crypto/rand"
	"sort"
	"testing"

	"github.com/iov-one/tokenflow/ledgertest/assert"
)

/*
TestSuite provides many methods that can be called in package-specific test
code. We just customize the store being tested (pass in constructor), the rest
of the logic is generic to the KVStore interface.

It is shared by btree_test.go and iavl/adapter_test.go, but can be used for
any implementation of CacheableKVStore.
*/
type TestSuite struct {
	makeBase TestStoreConstructor
}

// TestStoreConstructor returns a fresh store and a function releasing it.
type TestStoreConstructor func() (base CacheableKVStore, cleanup func())

func NewTestSuite(constructor TestStoreConstructor) *TestSuite {
	return &TestSuite{
		makeBase: constructor,
	}
}

// GetSet does basic sanity checks on our cache layers: writes are visible
// only in the layer they were made in until that layer is written.
func (s *TestSuite) GetSet(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	k, v := []byte("french"), []byte("fry")
	s.AssertGetHas(t, base, k, nil, false)
	assert.Nil(t, base.Set(k, v))
	s.AssertGetHas(t, base, k, v, true)

	cache := base.CacheWrap()
	s.AssertGetHas(t, cache, k, v, true)

	k2, v2 := []byte("LA"), []byte("Dodgers")
	s.AssertGetHas(t, cache, k2, nil, false)
	assert.Nil(t, cache.Set(k2, v2))
	s.AssertGetHas(t, cache, k2, v2, true)
	s.AssertGetHas(t, base, k2, nil, false)

	assert.Nil(t, cache.Write())
	s.AssertGetHas(t, base, k, v, true)
	s.AssertGetHas(t, base, k2, v2, true)

	k3, v3 := []byte("Bayern"), []byte("Munich")
	c2 := base.CacheWrap()
	assert.Nil(t, c2.Set(k3, v3))
	c2.Discard()
	s.AssertGetHas(t, base, k3, nil, false)

	c3 := base.CacheWrap()
	assert.Nil(t, c3.Delete(k))
	s.AssertGetHas(t, c3, k, nil, false)
	s.AssertGetHas(t, base, k, v, true)
	assert.Nil(t, c3.Write())

	s.AssertGetHas(t, base, k, nil, false)
	s.AssertGetHas(t, base, k2, v2, true)
	s.AssertGetHas(t, base, k3, nil, false)
}

// CacheConflicts checks that we can handle
// overwriting values and deleting underlying values
func (s *TestSuite) CacheConflicts(t *testing.T) {
	ks := randKeys(10, 16)
	vs := randKeys(20, 40)

	cases := map[string]struct {
		parentOps     []Op
		childOps      []Op
		parentQueries []Model // Key is what we query, Value is what we expect
		childQueries  []Model // Key is what we query, Value is what we expect
	}{
		"overwrite one, delete another, add a third": {
			parentOps:     []Op{SetOp(ks[1], vs[1]), SetOp(ks[2], vs[2])},
			childOps:      []Op{SetOp(ks[1], vs[11]), SetOp(ks[3], vs[7]), DelOp(ks[2])},
			parentQueries: []Model{Pair(ks[1], vs[1]), Pair(ks[2], vs[2]), Pair(ks[3], nil)},
			childQueries:  []Model{Pair(ks[1], vs[11]), Pair(ks[2], nil), Pair(ks[3], vs[7])},
		},
		"delete then set again": {
			parentOps:     []Op{SetOp(ks[4], vs[4])},
			childOps:      []Op{DelOp(ks[4]), SetOp(ks[4], vs[5])},
			parentQueries: []Model{Pair(ks[4], vs[4])},
			childQueries:  []Model{Pair(ks[4], vs[5])},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			parent, cleanup := s.makeBase()
			defer cleanup()

			for _, op := range tc.parentOps {
				assert.Nil(t, op.Apply(parent))
			}
			child := parent.CacheWrap()
			for _, op := range tc.childOps {
				assert.Nil(t, op.Apply(child))
			}

			for _, q := range tc.parentQueries {
				s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
			}
			for _, q := range tc.childQueries {
				s.AssertGetHas(t, child, q.Key, q.Value, q.Value != nil)
			}

			assert.Nil(t, child.Write())
			for _, q := range tc.childQueries {
				s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
			}
		})
	}
}

// FuzzIterator makes sure the merged iterator works over random data,
// including random deletes of absent keys.
func (s *TestSuite) FuzzIterator(t *testing.T) {
	const size = 50
	const deleteCount = 20

	toSet := randModels(size, 8, 40)
	ops := append(makeSetOps(toSet...), makeDelOps(randModels(deleteCount, 8, 40)...)...)
	expect := sortModels(toSet)

	parentSet := randModels(size, 8, 40)
	parentOps := append(makeSetOps(parentSet...), makeDelOps(randModels(deleteCount, 8, 40)...)...)
	both := sortModels(append(toSet, parentSet...))

	cases := map[string]iterCase{
		"just write to a child with empty parent": {
			child: ops,
			queries: []rangeQuery{
				{nil, nil, false, expect},
				{expect[10].Key, nil, false, expect[10:]},
				{nil, expect[size-8].Key, false, expect[:size-8]},
				{expect[17].Key, expect[28].Key, false, expect[17:28]},

				{nil, nil, true, reverse(expect)},
				{expect[34].Key, nil, true, reverse(expect[34:])},
				{nil, expect[19].Key, true, reverse(expect[:19])},
				{expect[6].Key, expect[26].Key, true, reverse(expect[6:26])},
			},
		},
		"iterator combines child and parent": {
			pre:   parentOps,
			child: ops,
			queries: []rangeQuery{
				{nil, nil, false, both},
				{both[10].Key, nil, false, both[10:]},
				{nil, both[size-8].Key, false, both[:size-8]},
				{both[17].Key, both[28].Key, false, both[17:28]},

				{nil, nil, true, reverse(both)},
				{both[34].Key, nil, true, reverse(both[34:])},
				{nil, both[19].Key, true, reverse(both[:19])},
				{both[6].Key, both[26].Key, true, reverse(both[6:26])},
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			base, cleanup := s.makeBase()
			defer cleanup()
			tc.verify(t, base)
		})
	}
}

// IteratorWithConflicts covers overwrites and deletes shadowing the
// parent layer.
func (s *TestSuite) IteratorWithConflicts(t *testing.T) {
	ms := randModels(6, 20, 100)
	a, a2, b, b2, c, d := ms[0], ms[1], ms[2], ms[3], ms[4], ms[5]
	a2.Key = a.Key
	b2.Key = b.Key

	expect0 := sortModels([]Model{a, b, c})
	expect1 := sortModels([]Model{a2, b2, c, d})
	expect2 := []Model{c}

	cases := map[string]iterCase{
		"iterate in child only": {
			child: makeSetOps(a, b, c),
			queries: []rangeQuery{
				{nil, nil, false, expect0},
				{expect0[1].Key, expect0[2].Key, false, expect0[1:2]},
				{nil, nil, true, reverse(expect0)},
			},
		},
		"iterate over parent only": {
			pre: makeSetOps(a, b, c),
			queries: []rangeQuery{
				{nil, nil, false, expect0},
				{expect0[1].Key, expect0[2].Key, false, expect0[1:2]},
				{nil, nil, true, reverse(expect0)},
			},
		},
		"overwrite data should show child data": {
			pre:   makeSetOps(a, b, c),
			child: makeSetOps(a2, b2, d),
			queries: []rangeQuery{
				{nil, nil, false, expect1},
				{expect1[1].Key, expect1[3].Key, false, expect1[1:3]},
				{nil, nil, true, reverse(expect1)},
			},
		},
		"deletes hide parent data": {
			pre:   makeSetOps(a, c, d),
			child: makeDelOps(a, b, d),
			queries: []rangeQuery{
				{nil, nil, false, expect2},
				{nil, nil, true, expect2},
				{nil, c.Key, false, nil},
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			base, cleanup := s.makeBase()
			defer cleanup()
			tc.verify(t, base)
		})
	}
}

// AssertGetHas checks both Get and Has report the expected value.
func (s *TestSuite) AssertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	assert.Nil(t, err)
	if !bytes.Equal(val, got) {
		t.Fatalf("want %X value, got %X", val, got)
	}
	exists, err := kv.Has(key)
	assert.Nil(t, err)
	assert.Equal(t, has, exists)
}

func randBytes(length int) []byte {
	res := make([]byte, length)
	if _, err := rand.Read(res); err != nil {
		panic(err)
	}
	return res
}

// randKeys returns a slice of count keys, all of a given size
func randKeys(count, size int) [][]byte {
	res := make([][]byte, count)
	for i := 0; i < count; i++ {
		res[i] = randBytes(size)
	}
	return res
}

// randModels produces a random set of models
func randModels(count, keySize, valueSize int) []Model {
	models := make([]Model, count)
	for i := 0; i < count; i++ {
		models[i] = Pair(randBytes(keySize), randBytes(valueSize))
	}
	return models
}

// iterCase is a test case for iteration
type iterCase struct {
	pre     []Op
	child   []Op
	queries []rangeQuery
}

func (i iterCase) verify(t testing.TB, base CacheableKVStore) {
	t.Helper()
	for _, op := range i.pre {
		assert.Nil(t, op.Apply(base))
	}
	child := base.CacheWrap()
	for _, op := range i.child {
		assert.Nil(t, op.Apply(child))
	}

	for _, q := range i.queries {
		var iter Iterator
		var err error
		if q.reverse {
			iter, err = child.ReverseIterator(q.start, q.end)
		} else {
			iter, err = child.Iterator(q.start, q.end)
		}
		assert.Nil(t, err)

		got, err := ReadAll(iter)
		assert.Nil(t, err)
		if len(got) != len(q.expected) {
			t.Fatalf("want %d models, got %d", len(q.expected), len(got))
		}
		for n, m := range q.expected {
			if !bytes.Equal(m.Key, got[n].Key) {
				t.Fatalf("want key %d to be %X, got %X", n, m.Key, got[n].Key)
			}
			if !bytes.Equal(m.Value, got[n].Value) {
				t.Fatalf("want value %d to be %X, got %X", n, m.Value, got[n].Value)
			}
		}
	}
}

// range query checks the results of iteration
type rangeQuery struct {
	start    []byte
	end      []byte
	reverse  bool
	expected []Model
}

// reverse returns a copy of the slice with elements in reverse order
func reverse(models []Model) []Model {
	max := len(models)
	res := make([]Model, max)
	for i := 0; i < max; i++ {
		res[i] = models[max-1-i]
	}
	return res
}

// sortModels returns a copy of the models sorted by key
func sortModels(models []Model) []Model {
	res := make([]Model, len(models))
	copy(res, models)
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].Key, res[j].Key) < 0
	})
	return res
}

func makeSetOps(ms ...Model) []Op {
	res := make([]Op, len(ms))
	for i, m := range ms {
		res[i] = SetOp(m.Key, m.Value)
	}
	return res
}

func makeDelOps(ms ...Model) []Op {
	res := make([]Op, len(ms))
	for i, m := range ms {
		res[i] = DelOp(m.Key)
	}
	return res
}
