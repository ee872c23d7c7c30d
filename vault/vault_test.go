package vault

import (
	"context"
	"testing"

	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/crypto"
	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/ledger"
	"github.com/iov-one/tokenflow/ledgertest"
	"github.com/iov-one/tokenflow/ledgertest/assert"
	"github.com/iov-one/tokenflow/store"
	"github.com/iov-one/tokenflow/store/iavl"
)

var (
	alice  = ledgertest.NewParty("alice")
	bob    = ledgertest.NewParty("bob")
	carol  = ledgertest.NewParty("carol")
	notary = ledgertest.NewParty("notary")
)

func commit(t *testing.T, tx ledger.ProposedTx, keys ...crypto.Signer) *ledger.CommittedTx {
	t.Helper()
	stx := ledgertest.SignAll(t, tx, keys...)
	cert, err := ledger.Certify(notary.Key, ledgertest.TxID(t, tx))
	assert.Nil(t, err)
	return ledger.NewCommittedTx(stx, cert)
}

func transferTx(in ledger.StateAndRef, to ledgertest.Party) ledger.ProposedTx {
	out := in.State
	out.Owner = to.Address()
	return ledger.ProposedTx{
		Inputs:  []ledger.StateAndRef{in},
		Outputs: []ledger.TokenState{out},
		Command: ledger.NewCommand(ledger.Transfer, in.State.Owner, to.Address()),
		Notary:  notary.Address(),
		Salt:    ledgertest.Salt(9),
	}
}

func TestRecord(t *testing.T) {
	ctx := context.Background()
	v := New(store.MemStore(), nil)

	issue := commit(t, ledgertest.IssueTx(t, notary.Address(), alice.Address(), bob.Address(), 100), alice.Key, bob.Key)
	assert.Nil(t, v.Record(ctx, issue))
	// recording again changes nothing
	assert.Nil(t, v.Record(ctx, issue))

	issueID, err := issue.ID()
	assert.Nil(t, err)
	issued := ledger.OutputRefs(issueID, &issue.Tx)[0]

	unspent, err := v.Unspent()
	assert.Nil(t, err)
	assert.Equal(t, []ledger.StateAndRef{issued}, unspent)

	owned, err := v.UnspentByOwner(bob.Address())
	assert.Nil(t, err)
	assert.Equal(t, []ledger.StateAndRef{issued}, owned)

	owned, err = v.UnspentByOwner(alice.Address())
	assert.Nil(t, err)
	assert.Equal(t, 0, len(owned))

	visible, err := v.UnspentFor(alice.Address())
	assert.Nil(t, err)
	assert.Equal(t, []ledger.StateAndRef{issued}, visible)

	ok, err := v.IsUnspent(issued.Ref)
	assert.Nil(t, err)
	assert.Equal(t, true, ok)

	got, err := v.Transaction(issueID)
	assert.Nil(t, err)
	assert.Equal(t, issue.Certification.TxID, got.Certification.TxID)
	assert.Nil(t, got.Verify())

	// a transfer consumes the issued state
	transfer := commit(t, transferTx(issued, carol), bob.Key, carol.Key)
	assert.Nil(t, v.Record(ctx, transfer))
	transferID, err := transfer.ID()
	assert.Nil(t, err)
	moved := ledger.OutputRefs(transferID, &transfer.Tx)[0]

	ok, err = v.IsUnspent(issued.Ref)
	assert.Nil(t, err)
	assert.Equal(t, false, ok)

	unspent, err = v.Unspent()
	assert.Nil(t, err)
	assert.Equal(t, []ledger.StateAndRef{moved}, unspent)

	owned, err = v.UnspentByOwner(bob.Address())
	assert.Nil(t, err)
	assert.Equal(t, 0, len(owned))

	visible, err = v.UnspentFor(alice.Address())
	assert.Nil(t, err)
	assert.Equal(t, []ledger.StateAndRef{moved}, visible)
}

func TestRecordRelevance(t *testing.T) {
	ctx := context.Background()
	v := New(store.MemStore(), ParticipantOf(bob.Address()))

	issue := commit(t, ledgertest.IssueTx(t, notary.Address(), alice.Address(), bob.Address(), 100), alice.Key, bob.Key)
	assert.Nil(t, v.Record(ctx, issue))
	issued := ledger.OutputRefs(ledgertest.TxID(t, issue.Tx), &issue.Tx)[0]

	unspent, err := v.Unspent()
	assert.Nil(t, err)
	assert.Equal(t, []ledger.StateAndRef{issued}, unspent)

	// bob takes no part in the state moved to carol
	transfer := commit(t, transferTx(issued, carol), bob.Key, carol.Key)
	assert.Nil(t, v.Record(ctx, transfer))
	transferID, err := transfer.ID()
	assert.Nil(t, err)
	moved := ledger.OutputRefs(transferID, &transfer.Tx)[0]

	unspent, err = v.Unspent()
	assert.Nil(t, err)
	assert.Equal(t, 0, len(unspent))

	ok, err := v.IsUnspent(moved.Ref)
	assert.Nil(t, err)
	assert.Equal(t, false, ok)

	visible, err := v.UnspentFor(carol.Address())
	assert.Nil(t, err)
	assert.Equal(t, 0, len(visible))

	// the transaction itself is kept
	got, err := v.Transaction(transferID)
	assert.Nil(t, err)
	assert.Equal(t, transferID, got.Certification.TxID)
}

func TestParticipantOf(t *testing.T) {
	state := ledger.TokenState{Issuer: alice.Address(), Owner: bob.Address(), Amount: 1}
	cases := map[string]struct {
		ids  []tokenflow.Address
		want bool
	}{
		"issuer":      {ids: []tokenflow.Address{alice.Address()}, want: true},
		"owner":       {ids: []tokenflow.Address{carol.Address(), bob.Address()}, want: true},
		"stranger":    {ids: []tokenflow.Address{carol.Address()}, want: false},
		"no identity": {want: false},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.want, ParticipantOf(tc.ids...)(state))
		})
	}
}

func TestUnspentOrder(t *testing.T) {
	ctx := context.Background()
	v := New(store.MemStore(), nil)

	var want []ledger.StateAndRef
	for i := byte(1); i <= 5; i++ {
		tx := ledgertest.IssueTx(t, notary.Address(), alice.Address(), bob.Address(), int64(i)*10)
		tx.Salt = ledgertest.Salt(i)
		c := commit(t, tx, alice.Key, bob.Key)
		assert.Nil(t, v.Record(ctx, c))
		want = append(want, ledger.OutputRefs(ledgertest.TxID(t, tx), &tx)...)
	}

	got, err := v.Unspent()
	assert.Nil(t, err)
	assert.Equal(t, want, got)

	owned, err := v.UnspentByOwner(bob.Address())
	assert.Nil(t, err)
	assert.Equal(t, want, owned)
}

func TestTransactionNotFound(t *testing.T) {
	v := New(store.MemStore(), nil)
	_, err := v.Transaction(ledgertest.Salt(4))
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestPersistentVault(t *testing.T) {
	ctx := context.Background()
	cs := iavl.MockCommitStore()
	v := NewPersistent(cs, nil)

	issue := commit(t, ledgertest.IssueTx(t, notary.Address(), alice.Address(), bob.Address(), 100), alice.Key, bob.Key)
	assert.Nil(t, v.Record(ctx, issue))
	assert.Nil(t, v.Record(ctx, issue))

	id, err := cs.LatestVersion()
	assert.Nil(t, err)
	assert.Equal(t, int64(1), id.Version)

	reopened := NewPersistent(cs, nil)
	unspent, err := reopened.Unspent()
	assert.Nil(t, err)
	assert.Equal(t, 1, len(unspent))
}
