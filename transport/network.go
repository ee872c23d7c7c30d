package transport

import (
	"context"
	"sync"

	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/errors"
)

// Acceptor serves sessions opened to a host. Serve is called in its own
// goroutine for every accepted session and owns it.
type Acceptor interface {
	Serve(ctx context.Context, s Session)
}

// AcceptorFunc is an adapter to use a function as an Acceptor.
type AcceptorFunc func(ctx context.Context, s Session)

func (fn AcceptorFunc) Serve(ctx context.Context, s Session) {
	fn(ctx, s)
}

// Network is an in-process hub connecting named hosts.
type Network struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.RWMutex
	hosts map[string]Acceptor
	wg    sync.WaitGroup
}

// NewNetwork returns an empty network. Sessions are served with given
// context, that carries the logger.
func NewNetwork(ctx context.Context) *Network {
	ctx, cancel := context.WithCancel(ctx)
	return &Network{
		ctx:    ctx,
		cancel: cancel,
		hosts:  make(map[string]Acceptor),
	}
}

// Listen registers the acceptor of a host.
func (n *Network) Listen(host string, a Acceptor) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.hosts[host]; ok {
		return errors.Wrapf(errors.ErrDuplicate, "host %q already listening", host)
	}
	n.hosts[host] = a
	return nil
}

// Open connects from a host to another one. The remote end is handed to
// the acceptor of the target host.
func (n *Network) Open(ctx context.Context, from, to string) (Session, error) {
	if err := ContextErr(ctx); err != nil {
		return nil, err
	}
	if err := n.ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrSession, "network closed")
	}
	n.mu.RLock()
	a, ok := n.hosts[to]
	n.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(errors.ErrSession, "unknown host %q", to)
	}

	local, remote := Pipe(from, to)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer remote.Close()
		sctx := tokenflow.WithLogInfo(n.ctx, "host", to, "peer", from)
		a.Serve(sctx, remote)
	}()
	return local, nil
}

// Wait blocks until every accepted session was served.
func (n *Network) Wait() {
	n.wg.Wait()
}

// Close cancels all served sessions and waits for them to return.
func (n *Network) Close() {
	n.cancel()
	n.wg.Wait()
}
