/*
Package notary guards the ledger against double spending.

A notary certifies a fully signed transaction only if none of its inputs
was consumed by another transaction. The check of all inputs and the
insertion of their markers happen atomically.
*/
package notary

import (
	"context"
	"sync"

	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/contract"
	"github.com/iov-one/tokenflow/crypto"
	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/ledger"
	"github.com/iov-one/tokenflow/orm"
)

// Notary certifies transactions.
type Notary interface {
	Notarise(ctx context.Context, stx ledger.SignedTx) (ledger.Certification, error)
}

// Committer persists the working state of a store.
type Committer interface {
	Commit() (tokenflow.CommitID, error)
}

// Service is a single process notary.
type Service struct {
	key     crypto.Signer
	addr    tokenflow.Address
	bucket  consumedBucket
	metrics *Metrics

	// mu guards every access to db.
	mu     sync.Mutex
	db     tokenflow.CacheableKVStore
	commit Committer
}

var _ Notary = (*Service)(nil)

// NewService returns a notary signing with given key and keeping its
// consumed markers in db.
func NewService(key crypto.Signer, db tokenflow.CacheableKVStore) *Service {
	return &Service{
		key:    key,
		addr:   crypto.SignerAddress(key),
		bucket: newConsumedBucket(),
		db:     db,
	}
}

// NewPersistentService returns a notary that commits its store after every
// accepted transaction.
func NewPersistentService(key crypto.Signer, cs tokenflow.CommitKVStore) *Service {
	s := NewService(key, cs.Adapter())
	s.commit = cs
	return s
}

// WithMetrics makes the service count its decisions.
func (s *Service) WithMetrics(m *Metrics) *Service {
	s.metrics = m
	return s
}

// Address returns the identity of this notary.
func (s *Service) Address() tokenflow.Address {
	return s.addr
}

// Notarise validates the fully signed transaction, consumes its inputs
// and returns the certification.
func (s *Service) Notarise(ctx context.Context, stx ledger.SignedTx) (ledger.Certification, error) {
	cert, err := s.notarise(stx)
	log := tokenflow.GetLogger(ctx).With("notary", s.addr)
	if err != nil {
		s.metrics.rejected(reason(err))
		log.Error("notarisation rejected", "err", err)
		return ledger.Certification{}, err
	}
	s.metrics.certified()
	log.Info("transaction certified", "tx", cert.TxID)
	return cert, nil
}

func (s *Service) notarise(stx ledger.SignedTx) (ledger.Certification, error) {
	if !stx.Tx.Notary.Equals(s.addr) {
		return ledger.Certification{}, errors.Wrapf(errors.ErrUnauthorized, "transaction is assigned to notary %s", stx.Tx.Notary)
	}
	if !stx.FullySigned() {
		return ledger.Certification{}, errors.Wrapf(errors.ErrIncompleteSignature, "missing %d signatures", len(stx.Missing()))
	}
	if err := stx.VerifySignatures(); err != nil {
		return ledger.Certification{}, err
	}
	if err := contract.VerifyTx(stx.Tx); err != nil {
		return ledger.Certification{}, err
	}
	id, err := stx.ID()
	if err != nil {
		return ledger.Certification{}, err
	}
	if err := s.CheckAndConsume(stx.Tx.InputRefs(), id); err != nil {
		return ledger.Certification{}, err
	}
	return ledger.Certify(s.key, id)
}

// CheckAndConsume marks all given references consumed by the transaction.
// It fails with ErrDoubleSpend, and marks nothing, if any of them was
// consumed by another transaction. Consuming again for the same
// transaction succeeds.
func (s *Service) CheckAndConsume(refs []ledger.StateRef, id ledger.TxID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache := s.db.CacheWrap()
	for _, ref := range refs {
		if err := ref.Validate(); err != nil {
			cache.Discard()
			return err
		}
		by, err := s.bucket.by(cache, ref)
		if err != nil {
			cache.Discard()
			return errors.Wrap(err, "load consumed marker")
		}
		if by != nil && !by.Equals(id) {
			cache.Discard()
			return errors.Wrapf(errors.ErrDoubleSpend, "input %s consumed by %s", ref, by)
		}
		obj := orm.NewSimpleObj(ref.Key(), &Consumed{TxID: id})
		if err := s.bucket.Save(cache, obj); err != nil {
			cache.Discard()
			return errors.Wrap(err, "save consumed marker")
		}
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if s.commit != nil {
		if _, err := s.commit.Commit(); err != nil {
			return errors.Wrap(errors.ErrDatabase, err.Error())
		}
	}
	return nil
}

// IsConsumed returns true if given reference was consumed by a notarised
// transaction.
func (s *Service) IsConsumed(ref ledger.StateRef) (bool, error) {
	by, err := s.ConsumedBy(ref)
	return by != nil, err
}

// ConsumedBy returns the transaction that consumed given reference or nil.
func (s *Service) ConsumedBy(ref ledger.StateRef) (ledger.TxID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bucket.by(s.db, ref)
}

func reason(err error) string {
	switch {
	case errors.ErrDoubleSpend.Is(err):
		return "double_spend"
	case errors.IsValidation(err):
		return "validation"
	case errors.ErrIncompleteSignature.Is(err), errors.ErrInvalidSignature.Is(err):
		return "signature"
	case errors.ErrUnauthorized.Is(err):
		return "wrong_notary"
	default:
		return "internal"
	}
}
