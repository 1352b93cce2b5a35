package relay

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/996BC/996.Mesh/core/blockchain"
	"github.com/996BC/996.Mesh/crypto"
	"github.com/996BC/996.Mesh/db"
	"github.com/996BC/996.Mesh/keystore"
	"github.com/996BC/996.Mesh/params"
	"github.com/996BC/996.Mesh/serialize/cp"
	"github.com/996BC/996.Mesh/serialize/envelope"
	"github.com/996BC/996.Mesh/transfer"
	"github.com/996BC/996.Mesh/utils"
)

type published struct {
	target []byte
	packed []byte
}

type recordPublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (r *recordPublisher) Publish(target []byte, packed []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, published{target: target, packed: packed})
	return nil
}

func (r *recordPublisher) all() []published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]published(nil), r.sent...)
}

type testEnv struct {
	keys      *keystore.Memory
	p         *transfer.Packager
	relay     *Relay
	publisher *recordPublisher
	self      *keystore.KeyInfo
	sender    *keystore.KeyInfo
	target    *keystore.KeyInfo
	delivered []*cp.Block
}

func newTestEnv(t *testing.T, store *db.DB) *testEnv {
	te := &testEnv{
		keys:      keystore.NewMemory(),
		publisher: &recordPublisher{},
	}
	var err error
	if te.self, err = te.keys.Generate(crypto.AlgoSecp256k1, "self"); err != nil {
		t.Fatal(err)
	}
	te.sender, _ = te.keys.Generate(crypto.AlgoSecp256k1, "sender")
	te.target, _ = te.keys.Generate(crypto.AlgoSecp256k1, "target")
	te.p = transfer.NewPackager(te.keys)

	conf := Config{
		KeyID:      te.self.ID,
		Difficulty: cp.LightDifficulty(0),
		Store:      store,
		OnDeliver: func(block *cp.Block, env *envelope.Envelope) {
			te.delivered = append(te.delivered, block)
		},
	}
	if te.relay, err = New(te.keys, conf, te.publisher); err != nil {
		t.Fatal(err)
	}
	return te
}

func (te *testEnv) block(index uint64, prev []byte) *cp.Block {
	if prev == nil {
		prev = utils.ZeroHash
	}
	return cp.NewBlock(index, prev, cp.LightDifficulty(0), cp.RandBytes())
}

func (te *testEnv) pack(t *testing.T, keyID string, b *cp.Block, target []byte) []byte {
	packed, err := te.p.Pack(keyID, b, target)
	if err != nil {
		t.Fatal(err)
	}
	return packed
}

func expectAction(t *testing.T, te *testEnv, raw []byte, expect Action) {
	action, err := te.relay.Handle(raw)
	if err != nil {
		t.Fatal(err)
	}
	if action != expect {
		t.Fatalf("expect %v, but got %v\n", expect, action)
	}
}

func chainHeight(t *testing.T, te *testEnv, pub []byte) uint64 {
	c, err := te.relay.Chain(pub)
	if err != nil {
		t.Fatal(err)
	}
	return c.Height()
}

func TestNewUnknownKey(t *testing.T) {
	_, err := New(keystore.NewMemory(), Config{KeyID: "missing"}, &recordPublisher{})
	if !errors.As(err, &keystore.ErrKeyNotFound{}) {
		t.Fatalf("expect ErrKeyNotFound, but got %v\n", err)
	}
}

func TestHandleForward(t *testing.T) {
	te := newTestEnv(t, nil)

	genesis := te.block(0, nil)
	raw := te.pack(t, te.sender.ID, genesis, te.target.Pub)
	expectAction(t, te, raw, ActionForwarded)

	sent := te.publisher.all()
	if err := utils.TCheckInt("published", 1, len(sent)); err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckBytes("next hop", te.target.Pub, sent[0].target); err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckBytes("forwarded", raw, sent[0].packed); err != nil {
		t.Fatal(err)
	}

	next := te.block(1, genesis.Hash())
	expectAction(t, te, te.pack(t, te.sender.ID, next, te.target.Pub), ActionForwarded)
	if err := utils.TCheckUint64("sender height", 2, chainHeight(t, te, te.sender.Pub)); err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckInt("delivered", 0, len(te.delivered)); err != nil {
		t.Fatal(err)
	}
}

func TestHandleDeliver(t *testing.T) {
	te := newTestEnv(t, nil)

	genesis := te.block(0, nil)
	expectAction(t, te, te.pack(t, te.sender.ID, genesis, te.self.Pub), ActionDelivered)

	if err := utils.TCheckInt("delivered", 1, len(te.delivered)); err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckBytes("delivered payload", genesis.Payload, te.delivered[0].Payload); err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckInt("published", 0, len(te.publisher.all())); err != nil {
		t.Fatal(err)
	}
}

func TestHandleRejects(t *testing.T) {
	te := newTestEnv(t, nil)

	if _, err := te.relay.Handle([]byte{0x00, 0x01}); err == nil {
		t.Fatal("expect malformed envelope rejected")
	}

	// the primary signature covers the target
	raw := te.pack(t, te.sender.ID, te.block(0, nil), te.target.Pub)
	env, _ := envelope.Deserialize(raw)
	env.Target = te.self.Pub
	redirected, _ := envelope.Serialize(env)
	if _, err := te.relay.Handle(redirected); !errors.As(err, &transfer.ErrUnverified{}) {
		t.Fatalf("expect ErrUnverified, but got %v\n", err)
	}

	// a chain starts from its genesis block
	_, err := te.relay.Handle(te.pack(t, te.sender.ID, te.block(1, nil), te.target.Pub))
	if !errors.As(err, &blockchain.ErrInvalidIndex{}) {
		t.Fatalf("expect ErrInvalidIndex, but got %v\n", err)
	}

	// data that does not decode as a block
	sig, pub, _ := te.p.SignBlock(te.sender.ID, []byte("not a block"), te.target.Pub)
	garbage, _ := envelope.Serialize(&envelope.Envelope{
		Pub: pub, Sig: sig, Data: []byte("not a block"), Target: te.target.Pub,
	})
	if _, err := te.relay.Handle(garbage); !errors.Is(err, cp.ErrDecoding) {
		t.Fatalf("expect ErrDecoding, but got %v\n", err)
	}

	// a failing next hop drops the envelope
	te.publisher.err = errors.New("next hop gone")
	if _, err := te.relay.Handle(te.pack(t, te.sender.ID, te.block(0, nil), te.target.Pub)); err == nil {
		t.Fatal("expect publish failure reported")
	}

	if err := utils.TCheckInt("published", 0, len(te.publisher.all())); err != nil {
		t.Fatal(err)
	}
}

func TestHandleCommand(t *testing.T) {
	te := newTestEnv(t, nil)
	peer, _ := te.keys.Generate(crypto.AlgoDilithium3, "peer")

	raw := te.pack(t, te.sender.ID, te.block(0, nil), te.target.Pub)
	env, _ := envelope.Deserialize(raw)

	synced, err := te.p.AddCmd(env, peer.ID, params.CmdSynchronize)
	if err != nil {
		t.Fatal(err)
	}
	syncRaw, _ := envelope.Serialize(synced)
	expectAction(t, te, syncRaw, ActionExecuted)
	if err := utils.TCheckUint64("synchronized height", 1, chainHeight(t, te, te.sender.Pub)); err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckInt("published", 0, len(te.publisher.all())); err != nil {
		t.Fatal(err)
	}

	handshake, _ := te.p.AddCmd(env, peer.ID, params.CmdHandshakeEncryption)
	handshakeRaw, _ := envelope.Serialize(handshake)
	if _, err := te.relay.Handle(handshakeRaw); !errors.As(err, &ErrNoHandler{}) {
		t.Fatalf("expect ErrNoHandler, but got %v\n", err)
	}

	called := 0
	te.relay.Register(params.CmdHandshakeEncryption, func(r *Relay, u *transfer.Unpacked) error {
		called++
		if !bytes.Equal(u.Envelope.Command.CPub, peer.Pub) {
			t.Error("expect command signed by peer")
		}
		return nil
	})
	expectAction(t, te, handshakeRaw, ActionExecuted)
	if err := utils.TCheckInt("handler called", 1, called); err != nil {
		t.Fatal(err)
	}

	// a command signed by nobody we can verify
	forged := synced.WithCommand(&envelope.Command{
		Cmd:  params.CmdSynchronize,
		CSig: synced.Command.CSig,
		CPub: te.target.Pub,
	})
	forgedRaw, _ := envelope.Serialize(forged)
	if _, err := te.relay.Handle(forgedRaw); !errors.As(err, &transfer.ErrUnverified{}) {
		t.Fatalf("expect ErrUnverified, but got %v\n", err)
	}
}

func TestAnnounce(t *testing.T) {
	te := newTestEnv(t, nil)
	second, _ := te.keys.Generate(crypto.AlgoSecp256k1, "second")

	expectAction(t, te, te.pack(t, te.sender.ID, te.block(0, nil), te.target.Pub), ActionForwarded)
	expectAction(t, te, te.pack(t, second.ID, te.block(0, nil), te.target.Pub), ActionForwarded)

	sent := te.publisher.all()
	if err := utils.TCheckInt("published", 3, len(sent)); err != nil {
		t.Fatal(err)
	}

	var broadcast *published
	for i := range sent {
		if bytes.Equal(sent[i].target, te.sender.Pub) {
			broadcast = &sent[i]
		}
	}
	if broadcast == nil {
		t.Fatal("expect the connection of second announced to sender")
	}

	u, err := te.p.Unpack(broadcast.packed)
	if err != nil {
		t.Fatal(err)
	}
	if u.Cmd != transfer.CmdVerified || u.Envelope.Command.Cmd != params.CmdBroadcast {
		t.Fatalf("expect verified broadcast, but got %v %v\n", u.Cmd, u.Envelope.Command.Cmd)
	}
	if err := utils.TCheckBytes("announced beam", second.Pub, u.Envelope.Pub); err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckBytes("announcer", te.self.Pub, u.Envelope.Command.CPub); err != nil {
		t.Fatal(err)
	}

	otherRelay, _ := New(te.keys, Config{KeyID: te.target.ID, Difficulty: cp.LightDifficulty(0)}, &recordPublisher{})
	action, err := otherRelay.Handle(broadcast.packed)
	if err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckInt("broadcast action", int(ActionExecuted), int(action)); err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckInt("beams learned", 1, len(otherRelay.Beams())); err != nil {
		t.Fatal(err)
	}
}

func TestHandlePersistent(t *testing.T) {
	store, err := db.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	te := newTestEnv(t, store)
	genesis := te.block(0, nil)
	expectAction(t, te, te.pack(t, te.sender.ID, genesis, te.self.Pub), ActionDelivered)

	height, err := store.GetChainHeight(te.sender.Pub)
	if err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckUint64("stored height", 1, height); err != nil {
		t.Fatal(err)
	}
}

func TestActionString(t *testing.T) {
	names := map[Action]string{
		ActionDelivered: "delivered",
		ActionForwarded: "forwarded",
		ActionExecuted:  "executed",
		Action(9):       "Action(9)",
	}
	for a, name := range names {
		if err := utils.TCheckString("action name", name, a.String()); err != nil {
			t.Fatal(err)
		}
	}
}
