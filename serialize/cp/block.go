package cp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/996BC/996.Mesh/crypto"
	"github.com/996BC/996.Mesh/utils"
)

const nonceSize = 8

// Block is one content unit of a beam chain
type Block struct {
	Index      uint64
	PrevRef    []byte
	Difficulty Difficulty
	Payload    []byte
	Nonce      uint64
}

// NewBlock creates a block with zero nonce, no proof-of-work is searched here
func NewBlock(index uint64, prevRef []byte, difficulty Difficulty, payload []byte) *Block {
	return &Block{
		Index:      index,
		PrevRef:    prevRef,
		Difficulty: difficulty,
		Payload:    payload,
	}
}

func UnmarshalBlock(data io.Reader) (*Block, error) {
	result := &Block{}
	var prevRefLen uint16
	var payloadLen uint32
	var err error

	if err = binary.Read(data, binary.BigEndian, &result.Index); err != nil {
		return nil, fmt.Errorf("%w: read index: %v", ErrDecoding, err)
	}

	if err = binary.Read(data, binary.BigEndian, &prevRefLen); err != nil {
		return nil, fmt.Errorf("%w: read prev ref length: %v", ErrDecoding, err)
	}
	if result.PrevRef, err = readBytes(data, int64(prevRefLen)); err != nil {
		return nil, fmt.Errorf("%w: read prev ref: %v", ErrDecoding, err)
	}

	if result.Difficulty, err = UnmarshalDifficulty(data); err != nil {
		return nil, err
	}

	if err = binary.Read(data, binary.BigEndian, &payloadLen); err != nil {
		return nil, fmt.Errorf("%w: read payload length: %v", ErrDecoding, err)
	}
	if result.Payload, err = readBytes(data, int64(payloadLen)); err != nil {
		return nil, fmt.Errorf("%w: read payload: %v", ErrDecoding, err)
	}

	if err = binary.Read(data, binary.BigEndian, &result.Nonce); err != nil {
		return nil, fmt.Errorf("%w: read nonce: %v", ErrDecoding, err)
	}

	return result, nil
}

// BlockFromBytes decodes exactly one block, trailing bytes are rejected
func BlockFromBytes(data []byte) (*Block, error) {
	r := bytes.NewReader(data)
	b, err := UnmarshalBlock(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrDecoding, r.Len())
	}
	return b, nil
}

// readBytes grows the buffer while reading so a forged length
// cannot force a large allocation
func readBytes(data io.Reader, n int64) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	buf := new(bytes.Buffer)
	if _, err := io.CopyN(buf, data, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (b *Block) Marshal() ([]byte, error) {
	if len(b.PrevRef) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: prev ref length %d", ErrEncoding, len(b.PrevRef))
	}
	if uint64(len(b.Payload)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: payload length %d", ErrEncoding, len(b.Payload))
	}
	difficulty, err := b.Difficulty.Marshal()
	if err != nil {
		return nil, err
	}

	result := bytes.NewBuffer(make([]byte, 0, 8+2+len(b.PrevRef)+DifficultySize+4+len(b.Payload)+nonceSize))
	binary.Write(result, binary.BigEndian, b.Index)

	binary.Write(result, binary.BigEndian, utils.Uint16Len(b.PrevRef))
	result.Write(b.PrevRef)

	result.Write(difficulty)

	binary.Write(result, binary.BigEndian, utils.Uint32Len(b.Payload))
	result.Write(b.Payload)

	binary.Write(result, binary.BigEndian, b.Nonce)

	return result.Bytes(), nil
}

// MeetsDifficulty reports whether nonce satisfies the block's proof-of-work gate.
// Hash parameters argon2 refuses never meet the gate.
func (b *Block) MeetsDifficulty(nonce uint64) bool {
	pc, err := NewPowCache(b)
	if err != nil {
		return false
	}
	return pc.Check(nonce)
}

// Verify checks the carried nonce
func (b *Block) Verify() bool {
	return b.MeetsDifficulty(b.Nonce)
}

// Hash is the sha256 of the marshaled block, nil if the block can not be marshaled.
// The next block of a chain refers to it in PrevRef.
func (b *Block) Hash() []byte {
	data, err := b.Marshal()
	if err != nil {
		return nil
	}
	return utils.Hash(data)
}

func (b *Block) ShallowCopy() *Block {
	return &Block{
		Index:      b.Index,
		PrevRef:    b.PrevRef,
		Difficulty: b.Difficulty,
		Payload:    b.Payload,
		Nonce:      b.Nonce,
	}
}

// WithNonce returns a shallow copy carrying nonce
func (b *Block) WithNonce(nonce uint64) *Block {
	result := b.ShallowCopy()
	result.Nonce = nonce
	return result
}

func (b *Block) String() string {
	return fmt.Sprintf("Index %d PrevRef %s Difficulty [%v] Payload %d bytes Nonce %d",
		b.Index, utils.ShortHex(b.PrevRef), b.Difficulty, len(b.Payload), b.Nonce)
}

// digestMeets checks the truncated memory-hard digest of msg against d
func digestMeets(msg []byte, d Difficulty) bool {
	digest, err := crypto.MemHardHash(msg, d.tCost, d.mCost, d.pCost, uint32(d.hashLen))
	if err != nil {
		return false
	}
	return crypto.LeadingZeroBits(digest) >= int(d.nBits)
}
