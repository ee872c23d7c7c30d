package transport

import (
	"fmt"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/tokenflow/errors"
)

// Kind tells the receiver how to interpret the payload of an envelope.
type Kind int32

const (
	KindUnknown Kind = 0
	// SignRequest carries a partially signed transaction and the
	// identities asked to sign it.
	SignRequest Kind = 1
	// Signatures answers a sign request.
	Signatures Kind = 2
	// Reject carries a structured failure reason in code and reason.
	Reject Kind = 3
	// Finality carries a committed transaction.
	Finality Kind = 4
	// Ack confirms a finality envelope was recorded.
	Ack Kind = 5
	// Notarise asks a notary to certify a fully signed transaction.
	Notarise Kind = 6
	// Certified carries the certification issued by a notary.
	Certified Kind = 7
)

var kindNames = map[Kind]string{
	KindUnknown: "UNKNOWN",
	SignRequest: "SIGN_REQUEST",
	Signatures:  "SIGNATURES",
	Reject:      "REJECT",
	Finality:    "FINALITY",
	Ack:         "ACK",
	Notarise:    "NOTARISE",
	Certified:   "CERTIFIED",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int32(k))
}

func init() {
	names := make(map[int32]string, len(kindNames))
	values := make(map[string]int32, len(kindNames))
	for k, s := range kindNames {
		names[int32(k)] = s
		values[s] = int32(k)
	}
	proto.RegisterEnum("tokenflow.transport.Kind", names, values)
	proto.RegisterType((*Envelope)(nil), "tokenflow.transport.Envelope")
}

// Envelope is the only message exchanged over a session.
type Envelope struct {
	Kind Kind `protobuf:"varint,1,opt,name=kind,proto3,enum=tokenflow.transport.Kind" json:"kind,omitempty"`
	// Flow names the protocol the envelope belongs to.
	Flow string `protobuf:"bytes,2,opt,name=flow,proto3" json:"flow,omitempty"`
	// Payload is the amino encoding of the carried model.
	Payload []byte `protobuf:"bytes,3,opt,name=payload,proto3" json:"payload,omitempty"`
	Code    uint32 `protobuf:"varint,4,opt,name=code,proto3" json:"code,omitempty"`
	Reason  string `protobuf:"bytes,5,opt,name=reason,proto3" json:"reason,omitempty"`
}

func (m *Envelope) Reset()         { *m = Envelope{} }
func (m *Envelope) String() string { return proto.CompactTextString(m) }
func (*Envelope) ProtoMessage()    {}

// RejectEnvelope returns an envelope reporting given error to the peer.
func RejectEnvelope(flow string, err error) *Envelope {
	code, reason := errors.Code(err)
	return &Envelope{Kind: Reject, Flow: flow, Code: code, Reason: reason}
}

// RejectError rebuilds the error reported by a reject envelope.
func RejectError(env *Envelope) error {
	if env.Code == errors.SuccessCode {
		return errors.Wrap(errors.ErrSession, "reject without a code")
	}
	return errors.FromCode(env.Code, env.Reason)
}

// Expect returns an error if the envelope is not of given kind. A reject
// envelope is turned into the error it carries.
func Expect(env *Envelope, kind Kind) error {
	switch env.Kind {
	case kind:
		return nil
	case Reject:
		return RejectError(env)
	default:
		return errors.Wrapf(errors.ErrSession, "unexpected %s envelope, want %s", env.Kind, kind)
	}
}

func encode(env *Envelope) ([]byte, error) {
	raw, err := proto.Marshal(env)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrSession, "encode envelope: %s", err)
	}
	return raw, nil
}

func decode(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := proto.Unmarshal(raw, &env); err != nil {
		return nil, errors.Wrapf(errors.ErrSession, "decode envelope: %s", err)
	}
	return &env, nil
}
