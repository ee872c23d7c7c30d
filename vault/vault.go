/*
Package vault keeps the ledger view of one party: the committed
transactions it took part in and the states that are still unspent.
*/
package vault

import (
	"context"
	"sync"

	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/ledger"
	"github.com/iov-one/tokenflow/orm"
)

// Committer persists the working state of a store.
type Committer interface {
	Commit() (tokenflow.CommitID, error)
}

// Relevance reports whether an output belongs in the vault.
type Relevance func(ledger.TokenState) bool

// ParticipantOf keeps the states any of given identities participates in.
func ParticipantOf(ids ...tokenflow.Address) Relevance {
	return func(s ledger.TokenState) bool {
		for _, id := range ids {
			if s.IsParticipant(id) {
				return true
			}
		}
		return false
	}
}

// Vault records committed transactions.
type Vault struct {
	// mu serialises every access to db.
	mu       sync.Mutex
	db       tokenflow.CacheableKVStore
	commit   Committer
	relevant Relevance
	holdings orm.Bucket
	txs      orm.Bucket
	seq      orm.Sequence
}

// New returns a vault keeping its data in db. Only outputs accepted by
// relevant are recorded as unspent, a nil relevance keeps all of them.
func New(db tokenflow.CacheableKVStore, relevant Relevance) *Vault {
	holdings := newHoldingBucket()
	return &Vault{
		db:       db,
		relevant: relevant,
		holdings: holdings,
		txs:      newTxBucket(),
		seq:      holdings.Sequence(orm.SeqID),
	}
}

// NewPersistent returns a vault that commits given store after every
// recorded transaction.
func NewPersistent(cs tokenflow.CommitKVStore, relevant Relevance) *Vault {
	v := New(cs.Adapter(), relevant)
	v.commit = cs
	return v
}

// Record stores a committed transaction: its inputs stop being unspent
// and its relevant outputs become unspent, in the order of the transaction.
// Recording a transaction twice is a no-op.
func (v *Vault) Record(ctx context.Context, tx *ledger.CommittedTx) error {
	id, err := tx.ID()
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if has, err := v.txs.Has(v.db, id); err != nil {
		return errors.Wrap(err, "vault")
	} else if has {
		return nil
	}

	cache := v.db.CacheWrap()
	if err := v.record(cache, id, tx); err != nil {
		cache.Discard()
		return err
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if v.commit != nil {
		if _, err := v.commit.Commit(); err != nil {
			return errors.Wrap(errors.ErrDatabase, err.Error())
		}
	}
	tokenflow.GetLogger(ctx).Info("transaction recorded",
		"tx", id, "inputs", len(tx.Tx.Inputs), "outputs", len(tx.Tx.Outputs))
	return nil
}

func (v *Vault) record(db tokenflow.KVStore, id ledger.TxID, tx *ledger.CommittedTx) error {
	for _, ref := range tx.Tx.InputRefs() {
		objs, err := v.holdings.GetIndexed(db, "ref", ref.Key())
		if err != nil {
			return err
		}
		for _, obj := range objs {
			if err := v.holdings.Delete(db, obj.Key()); err != nil {
				return errors.Wrapf(err, "consume %s", ref)
			}
		}
	}
	for _, out := range ledger.OutputRefs(id, &tx.Tx) {
		if v.relevant != nil && !v.relevant(out.State) {
			continue
		}
		key, err := v.seq.NextVal(db)
		if err != nil {
			return errors.Wrap(err, "sequence")
		}
		h := &Holding{State: out.State, Ref: out.Ref}
		if err := v.holdings.Save(db, orm.NewSimpleObj(key, h)); err != nil {
			return errors.Wrapf(err, "output %s", out.Ref)
		}
	}
	return v.txs.Save(db, orm.NewSimpleObj(id, &TxRecord{Tx: *tx}))
}

// Unspent returns all unspent states in the order they were recorded.
func (v *Vault) Unspent() ([]ledger.StateAndRef, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	var res []ledger.StateAndRef
	err := v.holdings.Scan(v.db, nil, func(obj orm.Object) (bool, error) {
		h, err := holdingOf(obj)
		if err != nil {
			return false, err
		}
		res = append(res, h.StateAndRef())
		return true, nil
	})
	return res, err
}

// UnspentByOwner returns the unspent states held by given identity, in the
// order they were recorded.
func (v *Vault) UnspentByOwner(owner tokenflow.Address) ([]ledger.StateAndRef, error) {
	return v.indexed("owner", owner)
}

// UnspentFor returns the unspent states given identity participates in,
// as issuer or owner.
func (v *Vault) UnspentFor(party tokenflow.Address) ([]ledger.StateAndRef, error) {
	return v.indexed("party", party)
}

func (v *Vault) indexed(index string, key []byte) ([]ledger.StateAndRef, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	objs, err := v.holdings.GetIndexed(v.db, index, key)
	if err != nil {
		return nil, err
	}
	res := make([]ledger.StateAndRef, 0, len(objs))
	for _, obj := range objs {
		h, err := holdingOf(obj)
		if err != nil {
			return nil, err
		}
		res = append(res, h.StateAndRef())
	}
	return res, nil
}

// IsUnspent returns true if the referenced state is unspent.
func (v *Vault) IsUnspent(ref ledger.StateRef) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	objs, err := v.holdings.GetIndexed(v.db, "ref", ref.Key())
	return len(objs) != 0, err
}

// Transaction returns a recorded transaction.
func (v *Vault) Transaction(id ledger.TxID) (*ledger.CommittedTx, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	obj, err := v.txs.Get(v.db, id)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "transaction %s", id)
	}
	r, ok := obj.Value().(*TxRecord)
	if !ok {
		return nil, errors.WithType(errors.ErrInvalidType, obj.Value())
	}
	tx := r.Tx
	return &tx, nil
}
