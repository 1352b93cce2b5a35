package cp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/996BC/996.Mesh/crypto"
)

const (
	// DifficultySize is the wire size of a Difficulty
	DifficultySize = 4 + 4 + 3 + 1 + 1

	// MaxPCost is the largest p_cost a 3 bytes field holds
	MaxPCost = 0xFFFFFF

	minMCostPerLane = 8
)

// Difficulty describes the memory-hard hash cost of a proof-of-work and the
// number of leading zero bits a digest must have.
// It is immutable, use WithNBits to derive a new target.
type Difficulty struct {
	tCost   uint32
	mCost   uint32
	pCost   uint32
	nBits   uint8
	hashLen uint8
}

// Class is the hashing class of a Difficulty, every field except n_bits.
// It is comparable and can be used as a map key.
type Class struct {
	TCost   uint32
	MCost   uint32
	PCost   uint32
	HashLen uint8
}

// NewDifficulty creates a Difficulty, mCost is raised to 8 * pCost when lower
func NewDifficulty(tCost, mCost, pCost uint32, nBits, hashLen uint8) Difficulty {
	return Difficulty{
		tCost:   tCost,
		mCost:   bumpMCost(mCost, pCost),
		pCost:   pCost,
		nBits:   nBits,
		hashLen: hashLen,
	}
}

func bumpMCost(mCost, pCost uint32) uint32 {
	floor := uint64(pCost) * minMCostPerLane
	if uint64(mCost) >= floor {
		return mCost
	}
	if floor > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(floor)
}

func UnmarshalDifficulty(data io.Reader) (Difficulty, error) {
	var raw [DifficultySize]byte
	if _, err := io.ReadFull(data, raw[:]); err != nil {
		return Difficulty{}, fmt.Errorf("%w: difficulty needs %d bytes: %v", ErrDecoding, DifficultySize, err)
	}

	tCost := binary.BigEndian.Uint32(raw[0:4])
	mCost := binary.BigEndian.Uint32(raw[4:8])
	pCost := uint32(raw[8])<<16 | uint32(raw[9])<<8 | uint32(raw[10])
	return NewDifficulty(tCost, mCost, pCost, raw[11], raw[12]), nil
}

// DifficultyFromBytes decodes the first 13 bytes of data
func DifficultyFromBytes(data []byte) (Difficulty, error) {
	return UnmarshalDifficulty(bytes.NewReader(data))
}

func (d Difficulty) Marshal() ([]byte, error) {
	if d.pCost > MaxPCost {
		return nil, fmt.Errorf("%w: p_cost %d exceeds %d", ErrEncoding, d.pCost, MaxPCost)
	}

	result := make([]byte, DifficultySize)
	binary.BigEndian.PutUint32(result[0:4], d.tCost)
	binary.BigEndian.PutUint32(result[4:8], d.mCost)
	result[8] = byte(d.pCost >> 16)
	result[9] = byte(d.pCost >> 8)
	result[10] = byte(d.pCost)
	result[11] = d.nBits
	result[12] = d.hashLen
	return result, nil
}

func (d Difficulty) TCost() uint32  { return d.tCost }
func (d Difficulty) MCost() uint32  { return d.mCost }
func (d Difficulty) PCost() uint32  { return d.pCost }
func (d Difficulty) NBits() uint8   { return d.nBits }
func (d Difficulty) HashLen() uint8 { return d.hashLen }

// WithNBits returns a copy targeting n leading zero bits
func (d Difficulty) WithNBits(n uint8) Difficulty {
	d.nBits = n
	return d
}

func (d Difficulty) Class() Class {
	return Class{
		TCost:   d.tCost,
		MCost:   d.mCost,
		PCost:   d.pCost,
		HashLen: d.hashLen,
	}
}

// Validate reports whether the memory-hard hash accepts the cost parameters.
// A difficulty failing it is never met.
func (d Difficulty) Validate() error {
	return crypto.CheckMemHardParams(d.tCost, d.mCost, d.pCost, uint32(d.hashLen))
}

// Equal compares the hashing class, n_bits is ignored
func (d Difficulty) Equal(other Difficulty) bool {
	return d.Class() == other.Class()
}

func (d Difficulty) String() string {
	return fmt.Sprintf("t_cost %d m_cost %d p_cost %d n_bits %d hash_len %d",
		d.tCost, d.mCost, d.pCost, d.nBits, d.hashLen)
}
