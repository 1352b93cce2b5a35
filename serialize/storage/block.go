package storage

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/996BC/996.Mesh/serialize/cp"
)

// ChainBlock is a beam chain block with the time it was accepted
type ChainBlock struct {
	*cp.Block
	Received int64
}

func NewChainBlock(block *cp.Block) *ChainBlock {
	return &ChainBlock{
		Block:    block,
		Received: time.Now().Unix(),
	}
}

func UnmarshalChainBlock(data io.Reader) (*ChainBlock, error) {
	result := &ChainBlock{}
	var err error

	if result.Block, err = cp.UnmarshalBlock(data); err != nil {
		return nil, err
	}
	if err = binary.Read(data, binary.BigEndian, &result.Received); err != nil {
		return nil, err
	}

	return result, nil
}

func (c *ChainBlock) Marshal() ([]byte, error) {
	block, err := c.Block.Marshal()
	if err != nil {
		return nil, err
	}

	result := make([]byte, len(block)+8)
	copy(result, block)
	binary.BigEndian.PutUint64(result[len(block):], uint64(c.Received))
	return result, nil
}
