package contract

import (
	"testing"

	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/ledger"
	"github.com/iov-one/tokenflow/ledgertest"
	"github.com/iov-one/tokenflow/ledgertest/assert"
)

var (
	issuer   = ledgertest.SequenceAddress(1)
	owner    = ledgertest.SequenceAddress(2)
	newOwner = ledgertest.SequenceAddress(3)
)

func token(iss, own tokenflow.Address, amount int64) ledger.TokenState {
	return ledger.TokenState{Issuer: iss, Owner: own, Amount: amount}
}

func input(s ledger.TokenState) ledger.StateAndRef {
	return ledger.StateAndRef{
		State: s,
		Ref:   ledger.StateRef{TxID: ledgertest.Salt(9), Index: 0},
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]struct {
		inputs  []ledger.StateAndRef
		outputs []ledger.TokenState
		kind    ledger.CommandKind
		signers []tokenflow.Address
		wantErr *errors.Error
		// messages in the order they are reported
		wantMsgs []string
	}{
		"valid issue": {
			outputs: []ledger.TokenState{token(issuer, owner, 100)},
			kind:    ledger.Issue,
			signers: []tokenflow.Address{issuer, owner},
		},
		"issue with an input": {
			inputs:   []ledger.StateAndRef{input(token(issuer, owner, 1))},
			outputs:  []ledger.TokenState{token(issuer, owner, 100)},
			kind:     ledger.Issue,
			signers:  []tokenflow.Address{issuer, owner},
			wantErr:  errors.ErrValidation,
			wantMsgs: []string{"transaction must have no input states"},
		},
		"issue with two outputs": {
			outputs:  []ledger.TokenState{token(issuer, owner, 100), token(issuer, owner, 1)},
			kind:     ledger.Issue,
			signers:  []tokenflow.Address{issuer, owner},
			wantErr:  errors.ErrValidation,
			wantMsgs: []string{"transaction must have exactly one output"},
		},
		"issue without issuer signature": {
			outputs:  []ledger.TokenState{token(issuer, owner, 100)},
			kind:     ledger.Issue,
			signers:  []tokenflow.Address{owner},
			wantErr:  errors.ErrValidation,
			wantMsgs: []string{"issuer account must be a required signer"},
		},
		"issue without owner signature": {
			outputs:  []ledger.TokenState{token(issuer, owner, 100)},
			kind:     ledger.Issue,
			signers:  []tokenflow.Address{issuer},
			wantErr:  errors.ErrValidation,
			wantMsgs: []string{"owner account must be a required signer"},
		},
		"issue of zero amount": {
			outputs:  []ledger.TokenState{token(issuer, owner, 0)},
			kind:     ledger.Issue,
			signers:  []tokenflow.Address{issuer, owner},
			wantErr:  errors.ErrValidation,
			wantMsgs: []string{"amount must be positive"},
		},
		"issue failing every check reports all in order": {
			inputs:  []ledger.StateAndRef{input(token(issuer, owner, 1))},
			outputs: []ledger.TokenState{token(issuer, owner, -1), token(issuer, owner, 1)},
			kind:    ledger.Issue,
			wantErr: errors.ErrValidation,
			wantMsgs: []string{
				"transaction must have no input states",
				"transaction must have exactly one output",
				"issuer account must be a required signer",
				"owner account must be a required signer",
				"amount must be positive",
			},
		},
		"issue without outputs": {
			kind:     ledger.Issue,
			signers:  []tokenflow.Address{issuer, owner},
			wantErr:  errors.ErrValidation,
			wantMsgs: []string{"transaction must have exactly one output"},
		},
		"valid swap": {
			outputs: []ledger.TokenState{token(issuer, newOwner, 100)},
			kind:    ledger.Swap,
			signers: []tokenflow.Address{newOwner},
		},
		"swap without new owner signature": {
			outputs:  []ledger.TokenState{token(issuer, newOwner, 100)},
			kind:     ledger.Swap,
			signers:  []tokenflow.Address{owner},
			wantErr:  errors.ErrValidation,
			wantMsgs: []string{"new owner account must be a required signer"},
		},
		"swap with an input": {
			inputs:   []ledger.StateAndRef{input(token(issuer, owner, 100))},
			outputs:  []ledger.TokenState{token(issuer, newOwner, 100)},
			kind:     ledger.Swap,
			signers:  []tokenflow.Address{owner, newOwner},
			wantErr:  errors.ErrValidation,
			wantMsgs: []string{"transaction must have no input states"},
		},
		"swap of negative amount": {
			outputs:  []ledger.TokenState{token(issuer, newOwner, -5)},
			kind:     ledger.Swap,
			signers:  []tokenflow.Address{newOwner},
			wantErr:  errors.ErrValidation,
			wantMsgs: []string{"amount must be positive"},
		},
		"valid transfer": {
			inputs:  []ledger.StateAndRef{input(token(issuer, owner, 100))},
			outputs: []ledger.TokenState{token(issuer, newOwner, 100)},
			kind:    ledger.Transfer,
			signers: []tokenflow.Address{owner, newOwner},
		},
		"transfer without input": {
			outputs:  []ledger.TokenState{token(issuer, newOwner, 100)},
			kind:     ledger.Transfer,
			signers:  []tokenflow.Address{owner, newOwner},
			wantErr:  errors.ErrValidation,
			wantMsgs: []string{"transaction must have exactly one input state"},
		},
		"transfer not signed by the owner": {
			inputs:   []ledger.StateAndRef{input(token(issuer, owner, 100))},
			outputs:  []ledger.TokenState{token(issuer, newOwner, 100)},
			kind:     ledger.Transfer,
			signers:  []tokenflow.Address{newOwner},
			wantErr:  errors.ErrValidation,
			wantMsgs: []string{"owner account must be a required signer"},
		},
		"transfer changing amount and issuer": {
			inputs:  []ledger.StateAndRef{input(token(issuer, owner, 100))},
			outputs: []ledger.TokenState{token(owner, newOwner, 50)},
			kind:    ledger.Transfer,
			signers: []tokenflow.Address{owner, newOwner},
			wantErr: errors.ErrValidation,
			wantMsgs: []string{
				"amount must not change",
				"issuer must not change",
			},
		},
		"unknown command": {
			outputs: []ledger.TokenState{token(issuer, owner, 100)},
			kind:    ledger.CommandKind(42),
			signers: []tokenflow.Address{issuer, owner},
			wantErr: errors.ErrUnrecognizedCommand,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := Validate(tc.inputs, tc.outputs, ledger.NewCommand(tc.kind, tc.signers...), tc.signers)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if err != nil && !errors.IsValidation(err) {
				t.Fatalf("not a validation error: %+v", err)
			}
			if len(tc.wantMsgs) > 0 {
				assert.ErrMessages(t, err, tc.wantMsgs...)
				assert.ErrMessages(t, errors.First(err), tc.wantMsgs[0])
			}
		})
	}
}

func TestValidateIsPure(t *testing.T) {
	outputs := []ledger.TokenState{token(issuer, owner, 100)}
	signers := []tokenflow.Address{issuer, owner}
	cmd := ledger.NewCommand(ledger.Issue, signers...)

	for i := 0; i < 3; i++ {
		assert.Nil(t, Validate(nil, outputs, cmd, signers))
	}
	assert.Equal(t, int64(100), outputs[0].Amount)
}

func TestVerifyTx(t *testing.T) {
	tx := ledgertest.IssueTx(t, ledgertest.SequenceAddress(8), issuer, owner, 10)
	assert.Nil(t, VerifyTx(tx))

	tx.Command = ledger.NewCommand(ledger.Issue, issuer)
	assert.IsErr(t, errors.ErrValidation, VerifyTx(tx))
}
