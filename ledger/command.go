package ledger

import (
	"fmt"

	"github.com/iov-one/tokenflow"
)

// CommandKind tags the operation a transaction performs.
type CommandKind int32

const (
	// Issue creates a new token. It has no inputs.
	Issue CommandKind = 1
	// Swap emits a replacement token for a new owner without consuming
	// the prior state.
	Swap CommandKind = 2
	// Transfer consumes a state and emits the same token for a new owner.
	Transfer CommandKind = 3
)

func (k CommandKind) String() string {
	switch k {
	case Issue:
		return "Issue"
	case Swap:
		return "Swap"
	case Transfer:
		return "Transfer"
	default:
		return fmt.Sprintf("CommandKind(%d)", int32(k))
	}
}

// Command carries the kind of a transaction and the set of identities that
// must sign it. The set is fixed once the command is created.
type Command struct {
	Kind    CommandKind
	Signers []tokenflow.Address
}

// NewCommand returns a command. Duplicated signers are dropped, the order
// of first appearance is kept.
func NewCommand(kind CommandKind, signers ...tokenflow.Address) Command {
	cmd := Command{Kind: kind}
	for _, s := range signers {
		if !cmd.IsRequiredSigner(s) {
			cmd.Signers = append(cmd.Signers, s.Clone())
		}
	}
	return cmd
}

// RequiredSigners returns a copy of the signer set.
func (c Command) RequiredSigners() []tokenflow.Address {
	res := make([]tokenflow.Address, len(c.Signers))
	copy(res, c.Signers)
	return res
}

// IsRequiredSigner returns true if given identity must sign.
func (c Command) IsRequiredSigner(a tokenflow.Address) bool {
	for _, s := range c.Signers {
		if s.Equals(a) {
			return true
		}
	}
	return false
}
