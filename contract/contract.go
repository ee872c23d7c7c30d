/*
Package contract holds the rules every token transaction must satisfy.

Validate is pure. It is run by the proposer before asking for signatures,
again by every responder before signing and by the notary before
certifying.
*/
package contract

import (
	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/ledger"
)

// Validate checks a transaction draft against the rules of its command.
// All checks are evaluated and every failing one is reported, in the order
// they are declared. Checks that inspect an input or output state are
// skipped when such a state is absent.
func Validate(inputs []ledger.StateAndRef, outputs []ledger.TokenState, cmd ledger.Command, signers []tokenflow.Address) error {
	r := rules{inputs: inputs, outputs: outputs, signers: signers}
	switch cmd.Kind {
	case ledger.Issue:
		r.noInputs()
		r.oneOutput()
		r.outputSigned(issuerOf, "issuer account must be a required signer")
		r.outputSigned(ownerOf, "owner account must be a required signer")
		r.positiveAmount()
	case ledger.Swap:
		r.noInputs()
		r.oneOutput()
		r.outputSigned(ownerOf, "new owner account must be a required signer")
		r.positiveAmount()
	case ledger.Transfer:
		r.oneInput()
		r.oneOutput()
		r.inputSigned("owner account must be a required signer")
		r.outputSigned(ownerOf, "new owner account must be a required signer")
		r.positiveAmount()
		r.sameAmount()
		r.sameIssuer()
	default:
		return errors.Wrapf(errors.ErrUnrecognizedCommand, "command %s", cmd.Kind)
	}
	return r.err
}

// VerifyTx validates a proposed transaction with the signers its command
// requires.
func VerifyTx(tx ledger.ProposedTx) error {
	return Validate(tx.Inputs, tx.Outputs, tx.Command, tx.Command.Signers)
}

// rules accumulates failures of the checks run against one draft.
type rules struct {
	inputs  []ledger.StateAndRef
	outputs []ledger.TokenState
	signers []tokenflow.Address
	err     error
}

func (r *rules) fail(msg string) {
	r.err = errors.Append(r.err, errors.Wrap(errors.ErrValidation, msg))
}

func (r *rules) noInputs() {
	if len(r.inputs) != 0 {
		r.fail("transaction must have no input states")
	}
}

func (r *rules) oneInput() {
	if len(r.inputs) != 1 {
		r.fail("transaction must have exactly one input state")
	}
}

func (r *rules) oneOutput() {
	if len(r.outputs) != 1 {
		r.fail("transaction must have exactly one output")
	}
}

func (r *rules) output() (ledger.TokenState, bool) {
	if len(r.outputs) == 0 {
		return ledger.TokenState{}, false
	}
	return r.outputs[0], true
}

func (r *rules) input() (ledger.TokenState, bool) {
	if len(r.inputs) == 0 {
		return ledger.TokenState{}, false
	}
	return r.inputs[0].State, true
}

func (r *rules) signed(a tokenflow.Address) bool {
	if len(a) == 0 {
		return false
	}
	for _, s := range r.signers {
		if s.Equals(a) {
			return true
		}
	}
	return false
}

func issuerOf(s ledger.TokenState) tokenflow.Address { return s.Issuer }

func ownerOf(s ledger.TokenState) tokenflow.Address { return s.Owner }

func (r *rules) outputSigned(who func(ledger.TokenState) tokenflow.Address, msg string) {
	if out, ok := r.output(); ok && !r.signed(who(out)) {
		r.fail(msg)
	}
}

func (r *rules) inputSigned(msg string) {
	if in, ok := r.input(); ok && !r.signed(in.Owner) {
		r.fail(msg)
	}
}

func (r *rules) positiveAmount() {
	if out, ok := r.output(); ok && out.Amount <= 0 {
		r.fail("amount must be positive")
	}
}

func (r *rules) sameAmount() {
	in, okIn := r.input()
	out, okOut := r.output()
	if okIn && okOut && in.Amount != out.Amount {
		r.fail("amount must not change")
	}
}

func (r *rules) sameIssuer() {
	in, okIn := r.input()
	out, okOut := r.output()
	if okIn && okOut && !in.Issuer.Equals(out.Issuer) {
		r.fail("issuer must not change")
	}
}
