package transport

import (
	"context"
	"sync"

	"github.com/iov-one/tokenflow/errors"
)

// Session is a bidirectional message channel between two hosts. Delivery
// within one session is FIFO.
type Session interface {
	// Send delivers an envelope to the peer.
	Send(ctx context.Context, env *Envelope) error
	// Receive blocks until the next envelope from the peer arrives.
	Receive(ctx context.Context) (*Envelope, error)
	// Peer returns the name of the remote host.
	Peer() string
	// Close ends the session for both ends. Envelopes already sent can
	// still be received.
	Close() error
}

// ContextErr maps a finished context to a transport error. An expired
// deadline is a timeout, anything else a session failure.
func ContextErr(ctx context.Context) error {
	switch err := ctx.Err(); err {
	case nil:
		return nil
	case context.DeadlineExceeded:
		return errors.Wrap(errors.ErrTimeout, "session")
	default:
		return errors.Wrapf(errors.ErrSession, "%s", err)
	}
}

// sessionBuffer is the amount of envelopes a peer may have in flight.
const sessionBuffer = 8

type link struct {
	once   sync.Once
	closed chan struct{}
}

func (l *link) close() {
	l.once.Do(func() { close(l.closed) })
}

// pipeEnd is one side of an in-memory session. Envelopes are encoded on
// send so that both ends never share memory.
type pipeEnd struct {
	peer string
	in   <-chan []byte
	out  chan<- []byte
	link *link
}

// Pipe returns both ends of a connected session. Each end reports the
// other host as its peer.
func Pipe(a, b string) (Session, Session) {
	ab := make(chan []byte, sessionBuffer)
	ba := make(chan []byte, sessionBuffer)
	l := &link{closed: make(chan struct{})}
	return &pipeEnd{peer: b, in: ba, out: ab, link: l},
		&pipeEnd{peer: a, in: ab, out: ba, link: l}
}

func (p *pipeEnd) Peer() string {
	return p.peer
}

func (p *pipeEnd) Send(ctx context.Context, env *Envelope) error {
	raw, err := encode(env)
	if err != nil {
		return err
	}
	select {
	case <-p.link.closed:
		return errors.Wrapf(errors.ErrSession, "session with %s closed", p.peer)
	default:
	}
	select {
	case p.out <- raw:
		return nil
	case <-p.link.closed:
		return errors.Wrapf(errors.ErrSession, "session with %s closed", p.peer)
	case <-ctx.Done():
		return ContextErr(ctx)
	}
}

func (p *pipeEnd) Receive(ctx context.Context) (*Envelope, error) {
	select {
	case raw := <-p.in:
		return decode(raw)
	case <-p.link.closed:
		select {
		case raw := <-p.in:
			return decode(raw)
		default:
			return nil, errors.Wrapf(errors.ErrSession, "session with %s closed", p.peer)
		}
	case <-ctx.Done():
		return nil, ContextErr(ctx)
	}
}

func (p *pipeEnd) Close() error {
	p.link.close()
	return nil
}
