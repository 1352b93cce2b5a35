// Package relay is the receive side of a mesh node: it verifies incoming envelopes,
// runs authorized commands, appends blocks to the sender's beam chain and decides
// whether the envelope is delivered here or forwarded to its target.
package relay

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/996BC/996.Mesh/core/blockchain"
	"github.com/996BC/996.Mesh/db"
	"github.com/996BC/996.Mesh/keystore"
	"github.com/996BC/996.Mesh/params"
	"github.com/996BC/996.Mesh/serialize/cp"
	"github.com/996BC/996.Mesh/serialize/envelope"
	"github.com/996BC/996.Mesh/transfer"
	"github.com/996BC/996.Mesh/utils"
)

var logger = utils.NewLogger("relay")

// Action is what Handle did with an accepted envelope
type Action int

const (
	ActionDelivered Action = iota + 1
	ActionForwarded
	ActionExecuted
)

func (a Action) String() string {
	switch a {
	case ActionDelivered:
		return "delivered"
	case ActionForwarded:
		return "forwarded"
	case ActionExecuted:
		return "executed"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Publisher hands a packed envelope to the next hop towards target
type Publisher interface {
	Publish(target []byte, packed []byte) error
}

// CommandHandler runs a verified command
type CommandHandler func(r *Relay, u *transfer.Unpacked) error

type Config struct {
	// KeyID is the identity of this node in the key store
	KeyID string
	// Difficulty is required from beam chains first seen by this node
	Difficulty cp.Difficulty
	// Store persists beam chains, nil keeps them in memory
	Store *db.DB
	// OnDeliver is called for blocks addressed to this node
	OnDeliver func(block *cp.Block, env *envelope.Envelope)
}

type Relay struct {
	p         *transfer.Packager
	conf      Config
	self      []byte
	publisher Publisher

	chainLock sync.Mutex
	chains    map[string]*blockchain.Chain

	handlerLock sync.RWMutex
	handlers    map[params.Cmd]CommandHandler
}

// New creates a relay for the identity conf.KeyID with the default command handlers
func New(keys keystore.Resolver, conf Config, publisher Publisher) (*Relay, error) {
	_, self, err := keys.Resolve(conf.KeyID)
	if err != nil {
		return nil, err
	}

	r := &Relay{
		p:         transfer.NewPackager(keys),
		conf:      conf,
		self:      self,
		publisher: publisher,
		chains:    make(map[string]*blockchain.Chain),
		handlers:  make(map[params.Cmd]CommandHandler),
	}
	r.Register(params.CmdBroadcast, handleBroadcast)
	r.Register(params.CmdSynchronize, handleSynchronize)
	return r, nil
}

// Self is the public key of this node
func (r *Relay) Self() []byte {
	return r.self
}

// Register sets the handler of cmd, replacing the previous one
func (r *Relay) Register(cmd params.Cmd, h CommandHandler) {
	r.handlerLock.Lock()
	defer r.handlerLock.Unlock()
	r.handlers[cmd] = h
}

// Handle processes one packed envelope. A dropped envelope is reported as an error.
func (r *Relay) Handle(raw []byte) (Action, error) {
	u, err := r.p.Unpack(raw)
	if err != nil {
		return 0, r.drop(err)
	}
	env := u.Envelope

	if err := transfer.CheckVerified(env, u.Verified); err != nil {
		return 0, r.drop(err)
	}

	if env.Command != nil {
		return r.execute(u)
	}

	block, err := cp.BlockFromBytes(env.Data)
	if err != nil {
		return 0, r.drop(err)
	}

	chain, err := r.Chain(env.Pub)
	if err != nil {
		return 0, r.drop(err)
	}
	if err := chain.Insert(block); err != nil {
		return 0, r.drop(fmt.Errorf("insert block of %s failed: %w", utils.ShortHex(env.Pub), err))
	}

	if block.Index == 0 {
		r.announce(env)
	}

	if bytes.Equal(env.Target, r.self) {
		logger.Debug("block %d of %s is delivered\n", block.Index, utils.ShortHex(env.Pub))
		if r.conf.OnDeliver != nil {
			r.conf.OnDeliver(block, env)
		}
		return ActionDelivered, nil
	}

	if err := r.publisher.Publish(env.Target, raw); err != nil {
		return 0, r.drop(fmt.Errorf("forward to %s failed: %w", utils.ShortHex(env.Target), err))
	}
	logger.Debug("block %d of %s is forwarded to %s\n", block.Index,
		utils.ShortHex(env.Pub), utils.ShortHex(env.Target))
	return ActionForwarded, nil
}

func (r *Relay) execute(u *transfer.Unpacked) (Action, error) {
	cmd := u.Envelope.Command
	if u.Cmd != transfer.CmdVerified {
		return 0, r.drop(transfer.ErrUnverified{Pub: cmd.CPub})
	}

	r.handlerLock.RLock()
	h, ok := r.handlers[cmd.Cmd]
	r.handlerLock.RUnlock()
	if !ok {
		return 0, r.drop(ErrNoHandler{cmd.Cmd})
	}

	logger.Debug("received verified cmd %v from %s\n", cmd.Cmd, utils.ShortHex(cmd.CPub))
	if err := h(r, u); err != nil {
		return 0, r.drop(fmt.Errorf("cmd %v failed: %w", cmd.Cmd, err))
	}
	return ActionExecuted, nil
}

// Chain returns the beam chain of pub, creating it on first use
func (r *Relay) Chain(pub []byte) (*blockchain.Chain, error) {
	r.chainLock.Lock()
	defer r.chainLock.Unlock()

	key := string(pub)
	if c, ok := r.chains[key]; ok {
		return c, nil
	}

	c, err := blockchain.New(pub, r.conf.Difficulty, r.conf.Store)
	if err != nil {
		return nil, err
	}
	r.chains[key] = c
	logger.Info("new beam %s\n", utils.ShortHex(pub))
	return c, nil
}

// Beams returns the public keys of every known beam chain
func (r *Relay) Beams() [][]byte {
	r.chainLock.Lock()
	defer r.chainLock.Unlock()

	result := make([][]byte, 0, len(r.chains))
	for k := range r.chains {
		result = append(result, []byte(k))
	}
	return result
}

// announce tells every other known beam that a new one connected
func (r *Relay) announce(env *envelope.Envelope) {
	annotated, err := r.p.AddCmd(env, r.conf.KeyID, params.CmdBroadcast)
	if err != nil {
		logger.Warn("annotate broadcast failed:%v\n", err)
		return
	}
	packed, err := envelope.Serialize(annotated)
	if err != nil {
		logger.Warn("serialize broadcast failed:%v\n", err)
		return
	}

	for _, beam := range r.Beams() {
		if bytes.Equal(beam, env.Pub) {
			continue
		}
		logger.Info("broadcasting connection of %s to %s\n", utils.ShortHex(env.Pub), utils.ShortHex(beam))
		if err := r.publisher.Publish(beam, packed); err != nil {
			logger.Warn("broadcast to %s failed:%v\n", utils.ShortHex(beam), err)
		}
	}
}

func (r *Relay) drop(err error) error {
	logger.Warn("drop envelope:%v\n", err)
	return err
}

// a relay announced a connected beam, remember it
func handleBroadcast(r *Relay, u *transfer.Unpacked) error {
	_, err := r.Chain(u.Envelope.Pub)
	return err
}

// the block is appended to the sender's chain without forwarding
func handleSynchronize(r *Relay, u *transfer.Unpacked) error {
	block, err := cp.BlockFromBytes(u.Envelope.Data)
	if err != nil {
		return err
	}
	chain, err := r.Chain(u.Envelope.Pub)
	if err != nil {
		return err
	}
	return chain.Insert(block)
}
