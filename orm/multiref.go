package orm

import (
	"bytes"

	"github.com/iov-one/tokenflow/errors"
	amino "github.com/tendermint/go-amino"
)

// MultiRef is a sorted set of references, the value of a non unique index
// entry.
type MultiRef struct {
	Refs [][]byte
}

var _ CloneableData = (*MultiRef)(nil)

// NewMultiRef creates a MultiRef with any number of initial references
func NewMultiRef(refs ...[]byte) (*MultiRef, error) {
	m := new(MultiRef)
	for _, r := range refs {
		if err := m.Add(r); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Add inserts this reference in the multiref, sorted by order.
// Returns an error if already there
func (m *MultiRef) Add(ref []byte) error {
	i, found := m.findRef(ref)
	if found {
		return errors.Wrap(errors.ErrDuplicate, "ref already in set")
	}
	m.Refs = append(m.Refs, nil)
	copy(m.Refs[i+1:], m.Refs[i:])
	m.Refs[i] = ref
	return nil
}

// Remove removes this reference from the multiref.
// Returns an error if not there
func (m *MultiRef) Remove(ref []byte) error {
	i, found := m.findRef(ref)
	if !found {
		return errors.Wrap(errors.ErrNotFound, "ref not in set")
	}
	m.Refs = append(m.Refs[:i], m.Refs[i+1:]...)
	return nil
}

// returns (index, found) where found is true if
// the ref was in the set, index is where it is
// (or where it should be)
func (m *MultiRef) findRef(ref []byte) (int, bool) {
	for i, r := range m.Refs {
		switch bytes.Compare(ref, r) {
		case -1:
			return i, false
		case 0:
			return i, true
		}
	}
	return len(m.Refs), false
}

// Copy does a shallow copy of the slice of refs and creates a new MultiRef
func (m *MultiRef) Copy() CloneableData {
	refs := make([][]byte, len(m.Refs))
	copy(refs, m.Refs)
	return &MultiRef{Refs: refs}
}

// Validate just returns an error if empty
func (m *MultiRef) Validate() error {
	if len(m.Refs) == 0 {
		return errors.Wrap(errors.ErrEmpty, "no references")
	}
	return nil
}

func (m *MultiRef) Marshal() ([]byte, error) {
	return amino.MarshalBinaryBare(m)
}

func (m *MultiRef) Unmarshal(raw []byte) error {
	m.Refs = nil
	return amino.UnmarshalBinaryBare(raw, m)
}
