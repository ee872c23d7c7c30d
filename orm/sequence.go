package orm

import (
	"encoding/binary"

	"github.com/iov-one/tokenflow"
)

// Sequence maintains a counter, and generates a
// series of keys. Each key is greater than the last,
// both NextInt() as well as bytes.Compare() on NextVal().
type Sequence struct {
	id []byte
}

// NewSequence returns a sequence counter. Sequence is using following pattern
// to construct a key:
//    _s.<bucket>:<name>
func NewSequence(bucket, name string) Sequence {
	id := "_s." + bucket + ":" + name
	return Sequence{
		id: []byte(id),
	}
}

// NextVal increments the sequence and returns its state as 8 bytes.
func (s *Sequence) NextVal(db tokenflow.KVStore) ([]byte, error) {
	_, bz, err := s.increment(db, 1)
	return bz, err
}

// NextInt increments the sequence and returns its state as int.
func (s *Sequence) NextInt(db tokenflow.KVStore) (int64, error) {
	val, _, err := s.increment(db, 1)
	return val, err
}

// Latest returns the recently returned value of the sequence. This method does
// not modify the sequence state.
func (s *Sequence) Latest(db tokenflow.ReadOnlyKVStore) (int64, error) {
	raw, err := db.Get(s.id)
	if err != nil {
		return 0, err
	}
	return DecodeSequence(raw), nil
}

func (s *Sequence) increment(db tokenflow.KVStore, inc int64) (int64, []byte, error) {
	val, err := s.Latest(db)
	if err != nil {
		return 0, nil, err
	}
	val += inc
	raw := EncodeSequence(val)
	return val, raw, db.Set(s.id, raw)
}

// DecodeSequence reads a big endian counter, zero if missing.
func DecodeSequence(bz []byte) int64 {
	if len(bz) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(bz))
}

// EncodeSequence writes a counter in big endian, preserving byte order.
func EncodeSequence(val int64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, uint64(val))
	return bz
}
