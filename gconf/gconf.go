package gconf

import (
	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/errors"
)

// ReadStore is a subset of tokenflow.ReadOnlyKVStore.
type ReadStore interface {
	Get([]byte) ([]byte, error)
}

// Store is a subset of tokenflow.KVStore.
type Store interface {
	ReadStore
	Set([]byte, []byte) error
}

// ValidMarshaler is implemented by object that can serialize itself to a
// binary representation. You must add your own Validate method.
type ValidMarshaler interface {
	Marshal() ([]byte, error)
	Validate() error
}

// Unmarshaler is implemented by object that can load their state from given
// binary representation.
type Unmarshaler interface {
	Unmarshal([]byte) error
}

type Configuration interface {
	ValidMarshaler
	Unmarshaler
}

func key(pkg string) []byte {
	return []byte("_c:" + pkg)
}

// Save will Validate the object, before writing it to a special
// "configuration" singleton for that package name.
func Save(db Store, pkg string, src ValidMarshaler) error {
	k := key(pkg)
	if err := src.Validate(); err != nil {
		return errors.Wrapf(err, "validation: key %q", k)
	}
	raw, err := src.Marshal()
	if err != nil {
		return errors.Wrapf(err, "marshal: key %q", k)
	}
	return db.Set(k, raw)
}

// Load reads the configuration of given package into dst. ErrNotFound is
// returned if it was never saved.
func Load(db ReadStore, pkg string, dst Unmarshaler) error {
	k := key(pkg)
	raw, err := db.Get(k)
	if err != nil {
		return err
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "key %q", k)
	}
	if err := dst.Unmarshal(raw); err != nil {
		return errors.Wrapf(err, "unmarshal: key %q", k)
	}
	return nil
}

// InitConfig will take opts["conf"][pkg], parse it into the given
// Configuration object validate it, and store under the proper key in the
// database.
func InitConfig(db Store, opts tokenflow.Options, pkg string, conf Configuration) error {
	var confOptions tokenflow.Options
	if err := opts.ReadOptions("conf", &confOptions); err != nil {
		return errors.Wrap(err, "read conf")
	}
	if confOptions[pkg] == nil {
		return errors.Wrapf(errors.ErrNotFound, "no configuration in genesis for %q package", pkg)
	}
	if err := confOptions.ReadOptions(pkg, conf); err != nil {
		return errors.Wrapf(err, "read configuration for %s", pkg)
	}
	if err := Save(db, pkg, conf); err != nil {
		return errors.Wrapf(err, "save configuration for %s", pkg)
	}
	return nil
}
