package main

import (
	"encoding/hex"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/crypto"
	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/node"
)

const genesisFile = "genesis.json"

// KeyHolder is an identity declared in genesis together with the seed of
// its key and the host that keeps it.
type KeyHolder struct {
	Name string `json:"name"`
	Host string `json:"host"`
	Seed string `json:"seed"`
}

// Key returns the private key derived from the seed.
func (k KeyHolder) Key() (*crypto.PrivateKey, error) {
	seed, err := hex.DecodeString(k.Seed)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "seed of %q", k.Name)
	}
	key, err := crypto.PrivKeyEd25519FromSeed(seed)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "seed of %q: %s", k.Name, err)
	}
	return key, nil
}

// defaultParties is the demo network written by init.
var defaultParties = []struct{ Name, Host string }{
	{"alice", "partya"},
	{"bob", "partyb"},
	{"carol", "partyc"},
}

// genOptions returns a genesis with freshly generated keys.
func genOptions() (tokenflow.Options, error) {
	accounts := make([]KeyHolder, 0, len(defaultParties))
	for _, p := range defaultParties {
		accounts = append(accounts, KeyHolder{
			Name: p.Name,
			Host: p.Host,
			Seed: hex.EncodeToString(crypto.GenPrivKeyEd25519().Seed()),
		})
	}
	notary := KeyHolder{
		Name: "notary",
		Host: "notary",
		Seed: hex.EncodeToString(crypto.GenPrivKeyEd25519().Seed()),
	}
	conf := map[string]interface{}{
		node.ConfigPkg: node.DefaultConfiguration(),
	}

	opts := make(tokenflow.Options)
	for key, val := range map[string]interface{}{
		"accounts": accounts,
		"notary":   notary,
		"conf":     conf,
	} {
		raw, err := json.Marshal(val)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "encode %s: %s", key, err)
		}
		opts[key] = raw
	}
	return opts, nil
}

// writeGenesis creates the genesis file. An existing file is never
// overwritten.
func writeGenesis(home string, opts tokenflow.Options) (string, error) {
	if err := os.MkdirAll(home, 0700); err != nil {
		return "", errors.Wrapf(errors.ErrDatabase, "create home: %s", err)
	}
	path := filepath.Join(home, genesisFile)
	if _, err := os.Stat(path); err == nil {
		return "", errors.Wrapf(errors.ErrDuplicate, "genesis file %s", path)
	}
	raw, err := json.MarshalIndent(opts, "", "  ")
	if err != nil {
		return "", errors.Wrapf(errors.ErrInvalidInput, "encode genesis: %s", err)
	}
	if err := ioutil.WriteFile(path, raw, 0600); err != nil {
		return "", errors.Wrapf(errors.ErrDatabase, "write genesis: %s", err)
	}
	return path, nil
}

func readGenesis(home string) (tokenflow.Options, error) {
	path := filepath.Join(home, genesisFile)
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "genesis file %s, run init first", path)
	}
	var opts tokenflow.Options
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "parse genesis: %s", err)
	}
	return opts, nil
}

func readAccounts(opts tokenflow.Options) ([]KeyHolder, error) {
	var res []KeyHolder
	err := opts.Stream("accounts", func() interface{} { return &KeyHolder{} }, func(obj interface{}) error {
		k := obj.(*KeyHolder)
		if k.Name == "" || k.Host == "" {
			return errors.Wrap(errors.ErrEmpty, "account name and host are required")
		}
		res = append(res, *k)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, errors.Wrap(errors.ErrEmpty, "no accounts in genesis")
	}
	return res, nil
}

func readNotary(opts tokenflow.Options) (KeyHolder, error) {
	var n KeyHolder
	if err := opts.ReadOptions("notary", &n); err != nil {
		return n, err
	}
	if n.Host == "" || n.Seed == "" {
		return n, errors.Wrap(errors.ErrEmpty, "notary host and seed are required")
	}
	return n, nil
}
