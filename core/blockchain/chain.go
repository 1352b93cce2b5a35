package blockchain

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/996BC/996.Mesh/core/merkle"
	"github.com/996BC/996.Mesh/db"
	"github.com/996BC/996.Mesh/serialize/cp"
	"github.com/996BC/996.Mesh/serialize/storage"
	"github.com/996BC/996.Mesh/utils"
)

var logger = utils.NewLogger("chain")

// Chain is the ordered block sequence of one beam, identified by its owner's public key.
// Blocks are kept in memory, or in the database when a store is given.
type Chain struct {
	id    []byte
	store *db.DB

	lock       sync.RWMutex
	difficulty cp.Difficulty
	height     uint64
	lastHash   []byte
	blocks     []*cp.Block
}

// New returns the chain of id, reloading its blocks from store when it is not nil
func New(id []byte, difficulty cp.Difficulty, store *db.DB) (*Chain, error) {
	c := &Chain{
		id:         id,
		store:      store,
		difficulty: difficulty,
		lastHash:   utils.ZeroHash,
	}

	if store == nil {
		return c, nil
	}
	if err := c.initFromDB(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Chain) initFromDB() error {
	blocks, err := c.store.GetChainBlocks(c.id)
	if err != nil {
		return err
	}

	for i, b := range blocks {
		if b.Index != uint64(i) {
			return fmt.Errorf("chain %s index %d, broken db data for block", utils.ShortHex(c.id), i)
		}
	}
	if len(blocks) != 0 {
		head := blocks[len(blocks)-1]
		c.height = uint64(len(blocks))
		c.lastHash = head.Hash()
		logger.Debug("chain %s loaded %d blocks\n", utils.ShortHex(c.id), c.height)
	}
	return nil
}

func (c *Chain) ID() []byte {
	return c.id
}

// Height is the number of blocks, the index of the next block
func (c *Chain) Height() uint64 {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.height
}

// LastHash is the hash of the latest block, 32 zero bytes for an empty chain
func (c *Chain) LastHash() []byte {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.lastHash
}

func (c *Chain) Difficulty() cp.Difficulty {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.difficulty
}

// SetDifficulty changes the difficulty required from the next block on
func (c *Chain) SetDifficulty(d cp.Difficulty) {
	c.lock.Lock()
	defer c.lock.Unlock()

	logger.Info("chain %s difficulty [%v] -> [%v]\n", utils.ShortHex(c.id), c.difficulty, d)
	c.difficulty = d
}

// TemplateNextBlock returns an unmined block following the latest one
func (c *Chain) TemplateNextBlock(payload []byte) *cp.Block {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return cp.NewBlock(c.height, c.lastHash, c.difficulty, payload)
}

// Insert appends block after checking its index, prev ref, difficulty and proof-of-work
func (c *Chain) Insert(block *cp.Block) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if block.Index != c.height {
		return ErrInvalidIndex{c.height, block.Index}
	}
	if !bytes.Equal(block.PrevRef, c.lastHash) {
		return ErrInvalidPrevRef{c.lastHash, block.PrevRef}
	}
	if !block.Difficulty.Equal(c.difficulty) || block.Difficulty.NBits() < c.difficulty.NBits() {
		return ErrDifficultyMismatch{c.difficulty, block.Difficulty}
	}
	if !block.Verify() {
		return ErrInvalidPow{block.Index, block.Nonce}
	}

	hash := block.Hash()
	if c.store != nil {
		if err := c.store.PutChainBlock(c.id, storage.NewChainBlock(block)); err != nil {
			return err
		}
	} else {
		c.blocks = append(c.blocks, block)
	}

	c.height++
	c.lastHash = hash
	logger.Debug("chain %s insert block %d\n", utils.ShortHex(c.id), block.Index)
	return nil
}

// GetBlock returns the block at index
func (c *Chain) GetBlock(index uint64) (*cp.Block, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	if index >= c.height {
		return nil, db.ErrNotFound
	}
	if c.store == nil {
		return c.blocks[index], nil
	}

	b, err := c.store.GetChainBlock(c.id, index)
	if err != nil {
		return nil, err
	}
	return b.Block, nil
}

// Blocks returns the whole chain in index order
func (c *Chain) Blocks() ([]*cp.Block, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	if c.store == nil {
		return append([]*cp.Block{}, c.blocks...), nil
	}

	stored, err := c.store.GetChainBlocks(c.id)
	if err != nil {
		return nil, err
	}
	result := make([]*cp.Block, 0, len(stored))
	for _, b := range stored {
		result = append(result, b.Block)
	}
	return result, nil
}

// Root is the merkle root of the block hashes in index order, ZeroHash for an empty chain.
// Two relays holding the same beam agree on it.
func (c *Chain) Root() ([]byte, error) {
	blocks, err := c.Blocks()
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return utils.ZeroHash, nil
	}

	hashes := make([][]byte, 0, len(blocks))
	for _, b := range blocks {
		hashes = append(hashes, b.Hash())
	}
	return merkle.Root(hashes)
}

func (c *Chain) String() string {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return fmt.Sprintf("Chain %s Height %d LastHash %s Difficulty [%v]",
		utils.ShortHex(c.id), c.height, utils.ShortHex(c.lastHash), c.difficulty)
}
