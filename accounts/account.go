package accounts

import (
	"regexp"

	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/crypto"
	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/orm"
	amino "github.com/tendermint/go-amino"
)

var isAccountName = regexp.MustCompile(`^[a-zA-Z0-9_\-]{1,32}$`).MatchString

// Account maps a human readable name to an identity and the host that
// acts for it.
type Account struct {
	Name   string
	Host   string
	PubKey *crypto.PublicKey
}

var _ orm.CloneableData = (*Account)(nil)

// Address returns the identity of the account.
func (a *Account) Address() tokenflow.Address {
	return a.PubKey.Address()
}

func (a *Account) Validate() error {
	var err error
	if !isAccountName(a.Name) {
		err = errors.AppendField(err, "Name", errors.Wrapf(errors.ErrInvalidInput, "invalid account name %q", a.Name))
	}
	if a.Host == "" {
		err = errors.AppendField(err, "Host", errors.ErrEmpty)
	}
	if a.PubKey == nil {
		err = errors.AppendField(err, "PubKey", errors.ErrEmpty)
	} else {
		err = errors.AppendField(err, "PubKey", a.PubKey.Validate())
	}
	return err
}

func (a *Account) Copy() orm.CloneableData {
	cpy := *a
	if a.PubKey != nil {
		cpy.PubKey = &crypto.PublicKey{Ed25519: append([]byte(nil), a.PubKey.Ed25519...)}
	}
	return &cpy
}

func (a *Account) Marshal() ([]byte, error) {
	return amino.MarshalBinaryBare(a)
}

func (a *Account) Unmarshal(raw []byte) error {
	*a = Account{}
	return amino.UnmarshalBinaryBare(raw, a)
}

func identityIndexer(obj orm.Object) ([]byte, error) {
	a, ok := obj.Value().(*Account)
	if !ok {
		return nil, errors.WithType(errors.ErrInvalidType, obj.Value())
	}
	return a.Address(), nil
}

func hostIndexer(obj orm.Object) ([]byte, error) {
	a, ok := obj.Value().(*Account)
	if !ok {
		return nil, errors.WithType(errors.ErrInvalidType, obj.Value())
	}
	return []byte(a.Host), nil
}
