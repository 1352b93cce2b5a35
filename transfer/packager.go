/*
Package transfer signs blocks into envelopes and verifies them on receipt.

The primary signature is made by the block owner over

	len(data):u32 | data | target

and the command signature by a second identity over

	cmd:u32 | the envelope serialized without its command group

so a relay can annotate an envelope without touching the owner's signature.
*/
package transfer

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/996BC/996.Mesh/crypto"
	"github.com/996BC/996.Mesh/keystore"
	"github.com/996BC/996.Mesh/params"
	"github.com/996BC/996.Mesh/serialize/cp"
	"github.com/996BC/996.Mesh/serialize/envelope"
	"github.com/996BC/996.Mesh/serialize/status"
	"github.com/996BC/996.Mesh/utils"
)

var logger = utils.NewLogger("transfer")

// CmdStatus is the verification state of an envelope's command group
type CmdStatus int

const (
	CmdAbsent CmdStatus = iota
	CmdVerified
	CmdRejected
)

func (c CmdStatus) String() string {
	switch c {
	case CmdAbsent:
		return "absent"
	case CmdVerified:
		return "verified"
	case CmdRejected:
		return "rejected"
	default:
		return fmt.Sprintf("CmdStatus(%d)", int(c))
	}
}

// Unpacked is a decoded envelope with the result of both signature checks
type Unpacked struct {
	Envelope *envelope.Envelope
	Verified bool
	Cmd      CmdStatus
}

// Packager is stateless apart from its key store, it is safe for concurrent use
// when the Resolver is.
type Packager struct {
	keys keystore.Resolver
}

func NewPackager(keys keystore.Resolver) *Packager {
	return &Packager{keys: keys}
}

// Pack signs block with ownerKeyID and serializes the envelope addressed to target
func (p *Packager) Pack(ownerKeyID string, block *cp.Block, target []byte) ([]byte, error) {
	data, err := block.Marshal()
	if err != nil {
		return nil, err
	}

	sig, pub, err := p.SignBlock(ownerKeyID, data, target)
	if err != nil {
		return nil, err
	}

	return envelope.Serialize(&envelope.Envelope{
		Pub:    pub,
		Sig:    sig,
		Data:   data,
		Target: target,
	})
}

// SignBlock signs already marshaled block bytes for target,
// returning the signature and the signer's public key
func (p *Packager) SignBlock(keyID string, blockBytes []byte, target []byte) ([]byte, []byte, error) {
	key, pub, err := p.keys.Resolve(keyID)
	if err != nil {
		return nil, nil, err
	}

	msg, err := primaryMessage(blockBytes, target)
	if err != nil {
		return nil, nil, err
	}
	sig, err := crypto.Sign(key, msg)
	if err != nil {
		return nil, nil, fmt.Errorf("sign block failed: %w", err)
	}
	return sig, pub, nil
}

// Unpack decodes packed and checks both signatures.
// Only structural problems are errors, a bad signature is reported in the result.
func (p *Packager) Unpack(packed []byte) (*Unpacked, error) {
	env, err := envelope.Deserialize(packed)
	if err != nil {
		return nil, err
	}

	result := &Unpacked{
		Envelope: env,
		Verified: verifyPrimary(env),
		Cmd:      verifyCommand(env),
	}
	if !result.Verified {
		logger.Debug("primary signature of %s rejected\n", utils.ShortHex(env.Pub))
	}
	if result.Cmd == CmdRejected {
		logger.Debug("command signature of %s rejected\n", utils.ShortHex(env.Command.CPub))
	}
	return result, nil
}

// AddCmd returns a copy of env carrying cmd signed by ownerKeyID.
// An existing command group is replaced, the primary fields are kept as is.
func (p *Packager) AddCmd(env *envelope.Envelope, ownerKeyID string, cmd params.Cmd) (*envelope.Envelope, error) {
	key, pub, err := p.keys.Resolve(ownerKeyID)
	if err != nil {
		return nil, err
	}

	msg, err := commandMessage(cmd, env)
	if err != nil {
		return nil, err
	}
	csig, err := crypto.Sign(key, msg)
	if err != nil {
		return nil, fmt.Errorf("sign command failed: %w", err)
	}

	return env.WithCommand(&envelope.Command{
		Cmd:  cmd,
		CSig: csig,
		CPub: pub,
	}), nil
}

// CheckVerified turns a failed verification into ErrUnverified
func CheckVerified(env *envelope.Envelope, verified bool) error {
	if verified {
		return nil
	}
	return ErrUnverified{Pub: env.Pub}
}

// SignStatus creates the acknowledgement of keyID for state
func (p *Packager) SignStatus(keyID string, state uint8) (*status.Status, error) {
	key, pub, err := p.keys.Resolve(keyID)
	if err != nil {
		return nil, err
	}

	s := status.NewStatusV1(state, pub)
	if s.Sig, err = crypto.Sign(key, s.SignContent()); err != nil {
		return nil, fmt.Errorf("sign status failed: %w", err)
	}
	return s, nil
}

// VerifyStatus checks an acknowledgement against the key it carries
func VerifyStatus(s *status.Status) bool {
	return crypto.Verify(s.Pub, s.SignContent(), s.Sig)
}

func verifyPrimary(env *envelope.Envelope) bool {
	msg, err := primaryMessage(env.Data, env.Target)
	if err != nil {
		return false
	}
	return crypto.Verify(env.Pub, msg, env.Sig)
}

func verifyCommand(env *envelope.Envelope) CmdStatus {
	if env.Command == nil {
		return CmdAbsent
	}
	msg, err := commandMessage(env.Command.Cmd, env)
	if err != nil {
		return CmdRejected
	}
	if !crypto.Verify(env.Command.CPub, msg, env.Command.CSig) {
		return CmdRejected
	}
	return CmdVerified
}

func primaryMessage(data []byte, target []byte) ([]byte, error) {
	if uint64(len(data)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: data length %d", envelope.ErrEncoding, len(data))
	}
	result := make([]byte, 4, 4+len(data)+len(target))
	binary.BigEndian.PutUint32(result, utils.Uint32Len(data))
	result = append(result, data...)
	return append(result, target...), nil
}

func commandMessage(cmd params.Cmd, env *envelope.Envelope) ([]byte, error) {
	bare, err := envelope.Serialize(env.WithoutCommand())
	if err != nil {
		return nil, err
	}
	result := make([]byte, 4, 4+len(bare))
	binary.BigEndian.PutUint32(result, uint32(cmd))
	return append(result, bare...), nil
}
