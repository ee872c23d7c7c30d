package ledger_test

import (
	"testing"

	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/ledger"
	"github.com/iov-one/tokenflow/ledgertest"
	"github.com/iov-one/tokenflow/ledgertest/assert"
)

func TestNewTokenState(t *testing.T) {
	alice := ledgertest.SequenceAddress(1)
	bob := ledgertest.SequenceAddress(2)

	cases := map[string]struct {
		issuer  []byte
		owner   []byte
		amount  int64
		field   string
		wantErr *errors.Error
	}{
		"valid": {
			issuer: alice, owner: bob, amount: 100,
		},
		"zero amount": {
			issuer: alice, owner: bob, amount: 0,
			field: "Amount", wantErr: errors.ErrValidation,
		},
		"negative amount": {
			issuer: alice, owner: bob, amount: -4,
			field: "Amount", wantErr: errors.ErrValidation,
		},
		"missing owner": {
			issuer: alice, amount: 1,
			field: "Owner", wantErr: errors.ErrValidation,
		},
		"malformed issuer": {
			issuer: []byte("short"), owner: bob, amount: 1,
			field: "Issuer", wantErr: errors.ErrValidation,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			s, err := ledger.NewTokenState(tc.issuer, tc.owner, tc.amount)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr != nil {
				assert.FieldError(t, err, tc.field, tc.wantErr)
				return
			}
			assert.Equal(t, tc.amount, s.Amount)
		})
	}
}

func TestTokenStateIdentity(t *testing.T) {
	alice := ledgertest.SequenceAddress(1)
	bob := ledgertest.SequenceAddress(2)
	carol := ledgertest.SequenceAddress(3)

	a, err := ledger.NewTokenState(alice, bob, 100)
	assert.Nil(t, err)
	b, err := ledger.NewTokenState(alice, bob, 100)
	assert.Nil(t, err)
	if !a.Equals(b) {
		t.Fatal("states with the same values must be equal")
	}

	c, err := a.WithOwner(carol)
	assert.Nil(t, err)
	if c.Equals(a) {
		t.Fatal("states with different owners must differ")
	}
	// the original is never modified
	assert.Equal(t, bob.String(), a.Owner.String())
	assert.Equal(t, carol.String(), c.Owner.String())

	assert.Equal(t, 2, len(a.Participants()))
	self, err := ledger.NewTokenState(alice, alice, 1)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(self.Participants()))
	if !a.IsParticipant(alice) || a.IsParticipant(carol) {
		t.Fatal("invalid participants")
	}
}

func TestStateRefKey(t *testing.T) {
	id := ledgertest.TxID(t, ledgertest.IssueTx(t,
		ledgertest.SequenceAddress(9), ledgertest.SequenceAddress(1), ledgertest.SequenceAddress(2), 5))

	a := ledger.StateRef{TxID: id, Index: 0}
	b := ledger.StateRef{TxID: id, Index: 1}
	assert.Nil(t, a.Validate())
	if string(a.Key()) == string(b.Key()) {
		t.Fatal("keys of different outputs must differ")
	}
	assert.Equal(t, len(id)+4, len(a.Key()))
	assert.IsErr(t, errors.ErrValidation, ledger.StateRef{TxID: []byte("x")}.Validate())

	parsed, err := ledger.ParseTxID(id.String())
	assert.Nil(t, err)
	if !parsed.Equals(id) {
		t.Fatal("transaction id must survive hex round trip")
	}
	_, err = ledger.ParseTxID("zz")
	assert.IsErr(t, errors.ErrInvalidInput, err)
}

func TestCommand(t *testing.T) {
	alice := ledgertest.SequenceAddress(1)
	bob := ledgertest.SequenceAddress(2)

	cmd := ledger.NewCommand(ledger.Issue, alice, bob, alice)
	assert.Equal(t, 2, len(cmd.RequiredSigners()))
	if !cmd.IsRequiredSigner(bob) || cmd.IsRequiredSigner(ledgertest.SequenceAddress(3)) {
		t.Fatal("invalid signer set")
	}
	assert.Equal(t, "Transfer", ledger.Transfer.String())
	assert.Equal(t, "CommandKind(9)", ledger.CommandKind(9).String())
}
