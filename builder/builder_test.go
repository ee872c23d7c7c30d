package builder

import (
	"testing"

	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/ledger"
	"github.com/iov-one/tokenflow/ledgertest"
	"github.com/iov-one/tokenflow/ledgertest/assert"
)

func TestBuild(t *testing.T) {
	notary := ledgertest.SequenceAddress(10)
	alice := ledgertest.SequenceAddress(1)
	bob := ledgertest.SequenceAddress(2)
	issued := ledger.TokenState{Issuer: alice, Owner: bob, Amount: 100}

	cases := map[string]struct {
		build   func() *Builder
		wantErr *errors.Error
	}{
		"valid issue": {
			build: func() *Builder {
				return New(notary).AddOutput(issued).AddCommand(ledger.Issue, alice, bob)
			},
		},
		"two commands": {
			build: func() *Builder {
				return New(notary).AddOutput(issued).
					AddCommand(ledger.Issue, alice, bob).
					AddCommand(ledger.Swap, bob)
			},
			wantErr: errors.ErrValidation,
		},
		"no command": {
			build:   func() *Builder { return New(notary).AddOutput(issued) },
			wantErr: errors.ErrValidation,
		},
		"invalid notary": {
			build: func() *Builder {
				return New(nil).AddOutput(issued).AddCommand(ledger.Issue, alice, bob)
			},
			wantErr: errors.ErrInvalidInput,
		},
		"contract violation": {
			build: func() *Builder {
				return New(notary).AddOutput(issued).AddCommand(ledger.Issue, alice)
			},
			wantErr: errors.ErrValidation,
		},
		"malformed input reference": {
			build: func() *Builder {
				return New(notary).
					AddInput(ledger.StateAndRef{State: issued}).
					AddOutput(issued).AddCommand(ledger.Transfer, alice, bob)
			},
			wantErr: errors.ErrValidation,
		},
		"unknown command": {
			build: func() *Builder {
				return New(notary).AddOutput(issued).AddCommand(ledger.CommandKind(77), alice, bob)
			},
			wantErr: errors.ErrUnrecognizedCommand,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			tx, err := tc.build().Build()
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if err == nil {
				assert.Equal(t, ledger.SaltLength, len(tx.Salt))
				assert.Equal(t, notary.String(), tx.Notary.String())
			}
		})
	}
}

func TestBuildSalt(t *testing.T) {
	notary := ledgertest.SequenceAddress(10)
	alice := ledgertest.SequenceAddress(1)
	out := ledger.TokenState{Issuer: alice, Owner: alice, Amount: 5}

	build := func(salt []byte) ledger.ProposedTx {
		b := New(notary).AddOutput(out).AddCommand(ledger.Issue, alice)
		if salt != nil {
			b = b.WithSalt(salt)
		}
		tx, err := b.Build()
		assert.Nil(t, err)
		return tx
	}

	// identical drafts get distinct identifiers unless the salt is fixed
	if ledgertest.TxID(t, build(nil)).Equals(ledgertest.TxID(t, build(nil))) {
		t.Fatal("random salt expected")
	}
	fixed := ledgertest.Salt(3)
	assert.Equal(t, ledgertest.TxID(t, build(fixed)), ledgertest.TxID(t, build(fixed)))

	_, err := New(notary).AddOutput(out).AddCommand(ledger.Issue, alice).WithSalt([]byte("short")).Build()
	assert.IsErr(t, errors.ErrInvalidInput, err)
}
