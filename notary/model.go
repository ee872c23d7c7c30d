package notary

import (
	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/ledger"
	"github.com/iov-one/tokenflow/orm"
	amino "github.com/tendermint/go-amino"
)

// Consumed marks a state reference as spent by a transaction.
type Consumed struct {
	TxID ledger.TxID
}

var _ orm.CloneableData = (*Consumed)(nil)

func (c *Consumed) Validate() error {
	if len(c.TxID) != ledger.TxIDLength {
		return errors.Wrap(errors.ErrInvalidInput, "consuming transaction id")
	}
	return nil
}

func (c *Consumed) Copy() orm.CloneableData {
	return &Consumed{TxID: append(ledger.TxID(nil), c.TxID...)}
}

func (c *Consumed) Marshal() ([]byte, error) {
	return amino.MarshalBinaryBare(c)
}

func (c *Consumed) Unmarshal(raw []byte) error {
	*c = Consumed{}
	return amino.UnmarshalBinaryBare(raw, c)
}

// consumedBucket holds one marker per spent state, keyed by the state
// reference key.
type consumedBucket struct {
	orm.Bucket
}

func newConsumedBucket() consumedBucket {
	return consumedBucket{
		Bucket: orm.NewBucket("consumed", orm.NewSimpleObj(nil, &Consumed{})),
	}
}

// by returns the transaction that consumed given reference, nil if it is
// unspent.
func (b consumedBucket) by(db tokenflow.ReadOnlyKVStore, ref ledger.StateRef) (ledger.TxID, error) {
	obj, err := b.Get(db, ref.Key())
	if err != nil || obj == nil {
		return nil, err
	}
	c, ok := obj.Value().(*Consumed)
	if !ok {
		return nil, errors.WithType(errors.ErrInvalidType, obj.Value())
	}
	return c.TxID, nil
}
