/*
Package finality commits fully signed transactions.

The coordinator obtains the notary certification, records the committed
transaction locally and then delivers it to every other participant, one
session after another.
*/
package finality

import (
	"context"

	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/contract"
	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/ledger"
	"github.com/iov-one/tokenflow/notary"
	"github.com/iov-one/tokenflow/transport"
)

// Recorder stores committed transactions. Recording the same transaction
// twice must be a no-op.
type Recorder interface {
	Record(ctx context.Context, tx *ledger.CommittedTx) error
}

// Coordinator finalizes transactions of one party.
type Coordinator struct {
	flow     string
	notary   notary.Notary
	recorder Recorder
}

// NewCoordinator returns a coordinator using given notary and recording
// committed transactions with rec.
func NewCoordinator(flow string, n notary.Notary, rec Recorder) *Coordinator {
	return &Coordinator{flow: flow, notary: n, recorder: rec}
}

// Finalize notarises the transaction, records it and broadcasts it to all
// sessions.
//
// Once the notary certified the transaction it is committed. If the
// broadcast fails the committed transaction is returned together with an
// ErrSession error naming every peer that was not reached.
func (c *Coordinator) Finalize(ctx context.Context, stx ledger.SignedTx, sessions []transport.Session) (*ledger.CommittedTx, error) {
	if !stx.FullySigned() {
		return nil, errors.Wrapf(errors.ErrIncompleteSignature, "missing %d signatures", len(stx.Missing()))
	}
	cert, err := c.notary.Notarise(ctx, stx)
	if err != nil {
		return nil, errors.Wrap(err, "notarise")
	}
	committed := ledger.NewCommittedTx(stx, cert)
	if err := c.recorder.Record(ctx, committed); err != nil {
		return nil, errors.Wrap(err, "record")
	}

	log := tokenflow.GetLogger(ctx).With("flow", c.flow, "tx", cert.TxID)
	raw, err := committed.Marshal()
	if err != nil {
		return committed, errors.Wrapf(errors.ErrInvalidState, "encode committed transaction: %s", err)
	}
	var errs error
	for _, s := range sessions {
		if err := c.deliver(ctx, s, raw); err != nil {
			log.Error("finality not delivered", "peer", s.Peer(), "err", err)
			errs = errors.Append(errs, errors.Wrapf(errors.ErrSession, "finality to %s: %s", s.Peer(), err))
			continue
		}
		log.Debug("finality delivered", "peer", s.Peer())
	}
	return committed, errs
}

func (c *Coordinator) deliver(ctx context.Context, s transport.Session, raw []byte) error {
	if err := s.Send(ctx, &transport.Envelope{Kind: transport.Finality, Flow: c.flow, Payload: raw}); err != nil {
		return err
	}
	env, err := s.Receive(ctx)
	if err != nil {
		return err
	}
	return transport.Expect(env, transport.Ack)
}

// Receive handles a finality envelope on the participant side. The
// committed transaction is verified, recorded and acknowledged. It must be
// certified by the trusted notary. When expect is not nil the transaction
// must have that identifier, use it to accept only the transaction this
// party signed.
func Receive(ctx context.Context, s transport.Session, env *transport.Envelope, rec Recorder, trusted tokenflow.Address, expect ledger.TxID) (*ledger.CommittedTx, error) {
	committed, err := accept(env, trusted, expect)
	if err == nil {
		err = rec.Record(ctx, committed)
	}
	if err != nil {
		tokenflow.GetLogger(ctx).Error("finality rejected", "flow", env.Flow, "peer", s.Peer(), "err", err)
		if serr := s.Send(ctx, transport.RejectEnvelope(env.Flow, err)); serr != nil {
			return nil, errors.Append(err, serr)
		}
		return nil, err
	}
	if err := s.Send(ctx, &transport.Envelope{Kind: transport.Ack, Flow: env.Flow}); err != nil {
		return committed, err
	}
	return committed, nil
}

func accept(env *transport.Envelope, trusted tokenflow.Address, expect ledger.TxID) (*ledger.CommittedTx, error) {
	if err := transport.Expect(env, transport.Finality); err != nil {
		return nil, err
	}
	var committed ledger.CommittedTx
	if err := committed.Unmarshal(env.Payload); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "committed transaction: %s", err)
	}
	id, err := committed.ID()
	if err != nil {
		return nil, err
	}
	if expect != nil && !expect.Equals(id) {
		return nil, errors.Wrapf(errors.ErrInvalidState, "finality of %s, signed %s", id, expect)
	}
	if err := contract.VerifyTx(committed.Tx); err != nil {
		return nil, err
	}
	if err := committed.Verify(); err != nil {
		return nil, err
	}
	if !committed.Certification.Notary.Equals(trusted) {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "notary %s is not trusted", committed.Certification.Notary)
	}
	return &committed, nil
}
