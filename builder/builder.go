/*
Package builder assembles proposed transactions.

A Builder never returns a transaction that does not pass the contract
rules.
*/
package builder

import (
	"crypto/rand"

	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/contract"
	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/ledger"
)

// Builder collects the parts of a transaction. It is not safe for
// concurrent use.
type Builder struct {
	notary  tokenflow.Address
	inputs  []ledger.StateAndRef
	outputs []ledger.TokenState
	command *ledger.Command
	salt    []byte
	err     error
}

// New returns a builder of a transaction adjudicated by given notary.
func New(notary tokenflow.Address) *Builder {
	return &Builder{notary: notary.Clone()}
}

// AddInput declares a state consumed by the transaction.
func (b *Builder) AddInput(in ledger.StateAndRef) *Builder {
	b.inputs = append(b.inputs, in)
	return b
}

// AddOutput declares a state created by the transaction.
func (b *Builder) AddOutput(out ledger.TokenState) *Builder {
	b.outputs = append(b.outputs, out)
	return b
}

// AddCommand attaches the command and its required signers. Only one
// command per transaction is allowed.
func (b *Builder) AddCommand(kind ledger.CommandKind, signers ...tokenflow.Address) *Builder {
	if b.command != nil {
		b.err = errors.Append(b.err, errors.Wrap(errors.ErrValidation, "only one command per transaction"))
		return b
	}
	cmd := ledger.NewCommand(kind, signers...)
	b.command = &cmd
	return b
}

// WithSalt fixes the salt instead of using a random one.
func (b *Builder) WithSalt(salt []byte) *Builder {
	b.salt = append([]byte(nil), salt...)
	return b
}

// Build returns the proposed transaction after checking it against the
// contract rules.
func (b *Builder) Build() (ledger.ProposedTx, error) {
	if b.err != nil {
		return ledger.ProposedTx{}, b.err
	}
	if b.command == nil {
		return ledger.ProposedTx{}, errors.Wrap(errors.ErrValidation, "transaction must have a command")
	}
	if err := b.notary.Validate(); err != nil {
		return ledger.ProposedTx{}, errors.Field("Notary", err, "invalid notary")
	}
	for i, in := range b.inputs {
		if err := in.Ref.Validate(); err != nil {
			return ledger.ProposedTx{}, errors.Field("Inputs", err, "input %d", i)
		}
	}

	salt := b.salt
	if salt == nil {
		salt = make([]byte, ledger.SaltLength)
		if _, err := rand.Read(salt); err != nil {
			return ledger.ProposedTx{}, errors.Wrapf(errors.ErrHuman, "cannot generate salt: %s", err)
		}
	} else if len(salt) != ledger.SaltLength {
		return ledger.ProposedTx{}, errors.Wrapf(errors.ErrInvalidInput, "salt must be %d bytes", ledger.SaltLength)
	}

	tx := ledger.ProposedTx{
		Inputs:  append([]ledger.StateAndRef(nil), b.inputs...),
		Outputs: append([]ledger.TokenState(nil), b.outputs...),
		Command: *b.command,
		Notary:  b.notary,
		Salt:    salt,
	}
	if err := contract.VerifyTx(tx); err != nil {
		return ledger.ProposedTx{}, err
	}
	return tx, nil
}
