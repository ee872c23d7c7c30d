/*
Package accounts resolves account names to identities and hosts.

An identity without an account is a valid answer: callers display it as
unknown.
*/
package accounts

import (
	"sync"

	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/crypto"
	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/orm"
)

// Committer persists the working state of a store.
type Committer interface {
	Commit() (tokenflow.CommitID, error)
}

// Directory stores accounts.
type Directory struct {
	mu     sync.Mutex
	db     tokenflow.CacheableKVStore
	commit Committer
	bucket orm.Bucket
}

// NewDirectory returns a directory keeping its accounts in db.
func NewDirectory(db tokenflow.CacheableKVStore) *Directory {
	return &Directory{
		db: db,
		bucket: orm.NewBucket("account", orm.NewSimpleObj(nil, &Account{})).
			WithIndex("identity", identityIndexer, true).
			WithIndex("host", hostIndexer, false),
	}
}

// NewPersistentDirectory returns a directory that commits given store
// after every created account.
func NewPersistentDirectory(cs tokenflow.CommitKVStore) *Directory {
	d := NewDirectory(cs.Adapter())
	d.commit = cs
	return d
}

// Create registers an account. Names and identities are unique.
func (d *Directory) Create(name, host string, pub *crypto.PublicKey) (*Account, error) {
	acc := &Account{Name: name, Host: host, PubKey: pub}
	if err := acc.Validate(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if has, err := d.bucket.Has(d.db, []byte(name)); err != nil {
		return nil, err
	} else if has {
		return nil, errors.Wrapf(errors.ErrDuplicate, "account %q", name)
	}
	cache := d.db.CacheWrap()
	if err := d.bucket.Save(cache, orm.NewSimpleObj([]byte(name), acc)); err != nil {
		cache.Discard()
		return nil, errors.Wrapf(err, "account %q", name)
	}
	if err := cache.Write(); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if d.commit != nil {
		if _, err := d.commit.Commit(); err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, err.Error())
		}
	}
	return acc, nil
}

// ByName returns the account of given name.
func (d *Directory) ByName(name string) (*Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	obj, err := d.bucket.Get(d.db, []byte(name))
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "account %q", name)
	}
	return asAccount(obj)
}

// ByIdentity returns the account of given identity. False is returned if
// no account is mapped to it.
func (d *Directory) ByIdentity(addr tokenflow.Address) (*Account, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	objs, err := d.bucket.GetIndexed(d.db, "identity", addr)
	if err != nil || len(objs) == 0 {
		return nil, false, err
	}
	acc, err := asAccount(objs[0])
	return acc, err == nil, err
}

// ByHost returns all accounts a host acts for.
func (d *Directory) ByHost(host string) ([]*Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	objs, err := d.bucket.GetIndexed(d.db, "host", []byte(host))
	if err != nil {
		return nil, err
	}
	res := make([]*Account, 0, len(objs))
	for _, obj := range objs {
		acc, err := asAccount(obj)
		if err != nil {
			return nil, err
		}
		res = append(res, acc)
	}
	return res, nil
}

func asAccount(obj orm.Object) (*Account, error) {
	a, ok := obj.Value().(*Account)
	if !ok {
		return nil, errors.WithType(errors.ErrInvalidType, obj.Value())
	}
	return a, nil
}
