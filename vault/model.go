package vault

import (
	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/ledger"
	"github.com/iov-one/tokenflow/orm"
	amino "github.com/tendermint/go-amino"
)

// Holding is an unspent state known to the vault.
type Holding struct {
	State ledger.TokenState
	Ref   ledger.StateRef
}

var _ orm.CloneableData = (*Holding)(nil)

func (h *Holding) Validate() error {
	if err := h.State.Validate(); err != nil {
		return errors.Field("State", err, "invalid state")
	}
	return errors.Field("Ref", h.Ref.Validate(), "invalid reference")
}

func (h *Holding) Copy() orm.CloneableData {
	cpy := *h
	return &cpy
}

func (h *Holding) Marshal() ([]byte, error) {
	return amino.MarshalBinaryBare(h)
}

func (h *Holding) Unmarshal(raw []byte) error {
	*h = Holding{}
	return amino.UnmarshalBinaryBare(raw, h)
}

// StateAndRef returns the unspent state with its reference.
func (h *Holding) StateAndRef() ledger.StateAndRef {
	return ledger.StateAndRef{State: h.State, Ref: h.Ref}
}

// TxRecord is a committed transaction stored by the vault.
type TxRecord struct {
	Tx ledger.CommittedTx
}

var _ orm.CloneableData = (*TxRecord)(nil)

func (r *TxRecord) Validate() error {
	if len(r.Tx.Certification.TxID) != ledger.TxIDLength {
		return errors.Field("Certification", errors.ErrEmpty, "missing certification")
	}
	return nil
}

// Copy returns a shallow copy. Committed transactions are never modified.
func (r *TxRecord) Copy() orm.CloneableData {
	cpy := *r
	return &cpy
}

func (r *TxRecord) Marshal() ([]byte, error) {
	return r.Tx.Marshal()
}

func (r *TxRecord) Unmarshal(raw []byte) error {
	return r.Tx.Unmarshal(raw)
}

func holdingOf(obj orm.Object) (*Holding, error) {
	h, ok := obj.Value().(*Holding)
	if !ok {
		return nil, errors.WithType(errors.ErrInvalidType, obj.Value())
	}
	return h, nil
}

func refIndexer(obj orm.Object) ([]byte, error) {
	h, err := holdingOf(obj)
	if err != nil {
		return nil, err
	}
	return h.Ref.Key(), nil
}

func ownerIndexer(obj orm.Object) ([]byte, error) {
	h, err := holdingOf(obj)
	if err != nil {
		return nil, err
	}
	return h.State.Owner, nil
}

func participantIndexer(obj orm.Object) ([][]byte, error) {
	h, err := holdingOf(obj)
	if err != nil {
		return nil, err
	}
	var keys [][]byte
	for _, p := range h.State.Participants() {
		keys = append(keys, p)
	}
	return keys, nil
}

func newHoldingBucket() orm.Bucket {
	return orm.NewBucket("unspent", orm.NewSimpleObj(nil, &Holding{})).
		WithIndex("ref", refIndexer, true).
		WithIndex("owner", ownerIndexer, false).
		WithMultiKeyIndex("party", participantIndexer, false)
}

func newTxBucket() orm.Bucket {
	return orm.NewBucket("committed", orm.NewSimpleObj(nil, &TxRecord{}))
}
