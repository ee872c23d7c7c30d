package notary

import (
	"context"

	"github.com/iov-one/tokenflow"
	"github.com/iov-one/tokenflow/errors"
	"github.com/iov-one/tokenflow/ledger"
	"github.com/iov-one/tokenflow/transport"
)

// Dialer opens sessions to other hosts.
type Dialer interface {
	Open(ctx context.Context, from, to string) (transport.Session, error)
}

// Client reaches a notary hosted on another node.
type Client struct {
	dialer Dialer
	from   string
	host   string
	addr   tokenflow.Address
}

var _ Notary = (*Client)(nil)

// NewClient returns a client of the notary with given identity, served by
// given host.
func NewClient(d Dialer, from, host string, addr tokenflow.Address) *Client {
	return &Client{dialer: d, from: from, host: host, addr: addr}
}

// Notarise sends the transaction to the notary host and verifies the
// returned certification.
func (c *Client) Notarise(ctx context.Context, stx ledger.SignedTx) (ledger.Certification, error) {
	id, err := stx.ID()
	if err != nil {
		return ledger.Certification{}, err
	}
	raw, err := stx.Marshal()
	if err != nil {
		return ledger.Certification{}, errors.Wrapf(errors.ErrInvalidState, "encode transaction: %s", err)
	}

	s, err := c.dialer.Open(ctx, c.from, c.host)
	if err != nil {
		return ledger.Certification{}, err
	}
	defer s.Close()

	flow, _ := tokenflow.GetFlow(ctx)
	if err := s.Send(ctx, &transport.Envelope{Kind: transport.Notarise, Flow: flow, Payload: raw}); err != nil {
		return ledger.Certification{}, err
	}
	env, err := s.Receive(ctx)
	if err != nil {
		return ledger.Certification{}, err
	}
	if err := transport.Expect(env, transport.Certified); err != nil {
		return ledger.Certification{}, err
	}
	var cert ledger.Certification
	if err := cert.Unmarshal(env.Payload); err != nil {
		return ledger.Certification{}, errors.Wrapf(errors.ErrInvalidInput, "certification: %s", err)
	}
	if !cert.Notary.Equals(c.addr) {
		return ledger.Certification{}, errors.Wrapf(errors.ErrInvalidSignature, "certified by %s", cert.Notary)
	}
	if err := cert.Verify(id); err != nil {
		return ledger.Certification{}, err
	}
	return cert, nil
}

// Server exposes a notary on a network.
type Server struct {
	notary Notary
}

var _ transport.Acceptor = (*Server)(nil)

// NewServer returns an acceptor answering notarisation requests.
func NewServer(n Notary) *Server {
	return &Server{notary: n}
}

// Serve answers a single notarisation request.
func (srv *Server) Serve(ctx context.Context, s transport.Session) {
	log := tokenflow.GetLogger(ctx)
	env, err := s.Receive(ctx)
	if err != nil {
		log.Error("cannot receive notarisation request", "err", err)
		return
	}
	reply, err := srv.handle(tokenflow.WithFlow(ctx, env.Flow), env)
	if err != nil {
		reply = transport.RejectEnvelope(env.Flow, err)
	}
	if err := s.Send(ctx, reply); err != nil {
		log.Error("cannot answer notarisation request", "err", err)
	}
}

func (srv *Server) handle(ctx context.Context, env *transport.Envelope) (*transport.Envelope, error) {
	if err := transport.Expect(env, transport.Notarise); err != nil {
		return nil, err
	}
	var stx ledger.SignedTx
	if err := stx.Unmarshal(env.Payload); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "signed transaction: %s", err)
	}
	cert, err := srv.notary.Notarise(ctx, stx)
	if err != nil {
		return nil, err
	}
	raw, err := cert.Marshal()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidState, "encode certification: %s", err)
	}
	return &transport.Envelope{Kind: transport.Certified, Flow: env.Flow, Payload: raw}, nil
}
