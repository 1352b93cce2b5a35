package cp

import "encoding/binary"

// PowCache keeps the marshaled block so a nonce search only rewrites
// the trailing nonce bytes on each attempt.
// A PowCache is not safe for concurrent use, give each miner its own.
type PowCache struct {
	marshalCache []byte
	difficulty   Difficulty
}

func NewPowCache(b *Block) (*PowCache, error) {
	marshal, err := b.Marshal()
	if err != nil {
		return nil, err
	}
	return &PowCache{
		marshalCache: marshal,
		difficulty:   b.Difficulty,
	}, nil
}

func (p *PowCache) update(nonce uint64) []byte {
	binary.BigEndian.PutUint64(p.marshalCache[len(p.marshalCache)-nonceSize:], nonce)
	return p.marshalCache
}

// Check reports whether nonce meets the difficulty of the cached block
func (p *PowCache) Check(nonce uint64) bool {
	return digestMeets(p.update(nonce), p.difficulty)
}
