package main

import (
	"context"
	"path/filepath"

	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/accounts"
	"github.com/iov-one/tokenflow/crypto"
	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/gconf"
	"github.com/iov-one/tokenflow/node"
	"github.com/iov-one/tokenflow/notary"
	"github.com/iov-one/tokenflow/store/iavl"
	"github.com/iov-one/tokenflow/transport"
	"github.com/iov-one/tokenflow/vault"
)

// cluster is every node declared in genesis running in this process.
type cluster struct {
	net    *transport.Network
	nodes  map[string]*node.Node
	owners map[string]string
	stores []*iavl.CommitStore
}

// openCluster loads the state of every host from home. The directory and
// configuration of a host are seeded from genesis on first use.
func openCluster(ctx context.Context, home string) (*cluster, error) {
	opts, err := readGenesis(home)
	if err != nil {
		return nil, err
	}
	holders, err := readAccounts(opts)
	if err != nil {
		return nil, err
	}
	nh, err := readNotary(opts)
	if err != nil {
		return nil, err
	}

	c := &cluster{
		net:    transport.NewNetwork(ctx),
		nodes:  make(map[string]*node.Node),
		owners: make(map[string]string),
	}
	dataDir := filepath.Join(home, "data")

	nkey, err := nh.Key()
	if err != nil {
		return nil, c.fail(err)
	}
	ns, err := c.open(dataDir, nh.Host+"_notary")
	if err != nil {
		return nil, c.fail(err)
	}
	if err := c.net.Listen(nh.Host, notary.NewServer(notary.NewPersistentService(nkey, ns))); err != nil {
		return nil, c.fail(err)
	}

	keys := make(map[string][]crypto.Signer)
	var hosts []string
	for _, h := range holders {
		key, err := h.Key()
		if err != nil {
			return nil, c.fail(err)
		}
		if _, ok := keys[h.Host]; !ok {
			hosts = append(hosts, h.Host)
		}
		keys[h.Host] = append(keys[h.Host], key)
		c.owners[h.Name] = h.Host
	}

	for _, host := range hosts {
		meta, err := c.open(dataDir, host+"_meta")
		if err != nil {
			return nil, c.fail(err)
		}
		vs, err := c.open(dataDir, host+"_vault")
		if err != nil {
			return nil, c.fail(err)
		}
		dir := accounts.NewPersistentDirectory(meta)
		if err := bootstrap(meta, dir, opts, holders); err != nil {
			return nil, c.fail(errors.Wrapf(err, "bootstrap %s", host))
		}
		conf, err := node.LoadConfiguration(meta.Adapter())
		if err != nil {
			return nil, c.fail(err)
		}
		n, err := node.New(node.Config{
			Host:          host,
			Keys:          keys[host],
			Vault:         vault.NewPersistent(vs, node.Relevance(keys[host])),
			Directory:     dir,
			Notary:        notary.NewClient(c.net, host, nh.Host, nkey.PublicKey().Address()),
			NotaryAddress: nkey.PublicKey().Address(),
			Network:       c.net,
			Settings:      conf,
		})
		if err != nil {
			return nil, c.fail(err)
		}
		c.nodes[host] = n
	}
	return c, nil
}

// bootstrap seeds an empty host store with the genesis configuration and
// accounts.
func bootstrap(meta *iavl.CommitStore, dir *accounts.Directory, opts tokenflow.Options, holders []KeyHolder) error {
	v, err := meta.LatestVersion()
	if err != nil {
		return err
	}
	if v.Version != 0 {
		return nil
	}
	var conf node.Configuration
	switch err := gconf.InitConfig(meta.Adapter(), opts, node.ConfigPkg, &conf); {
	case err == nil, errors.ErrNotFound.Is(err):
	default:
		return err
	}
	for _, h := range holders {
		key, err := h.Key()
		if err != nil {
			return err
		}
		if _, err := dir.Create(h.Name, h.Host, key.PublicKey()); err != nil {
			return err
		}
	}
	return nil
}

func (c *cluster) open(dir, name string) (*iavl.CommitStore, error) {
	cs, err := iavl.NewCommitStore(dir, name)
	if err != nil {
		return nil, err
	}
	c.stores = append(c.stores, cs)
	return cs, nil
}

func (c *cluster) fail(err error) error {
	c.Close()
	return err
}

// hostOf returns the node keeping the key of given account.
func (c *cluster) hostOf(account string) (*node.Node, error) {
	host, ok := c.owners[account]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "account %q", account)
	}
	return c.nodes[host], nil
}

// Close stops the network and releases all stores.
func (c *cluster) Close() {
	c.net.Close()
	for _, s := range c.stores {
		s.Close()
	}
	c.stores = nil
}
