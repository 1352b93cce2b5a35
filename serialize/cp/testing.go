package cp

// testing.go contains some test helpers

import (
	"bytes"
	"fmt"
	"math/rand"
	"time"

	"github.com/996BC/996.Mesh/utils"
)

func errorf(prefix string, expect interface{}, result interface{}) error {
	return fmt.Errorf("%s verify failed, expect %v, result %v", prefix, expect, result)
}

// LightDifficulty is a cheap hashing class for tests, 1 pass over 8 KiB
func LightDifficulty(nBits uint8) Difficulty {
	return NewDifficulty(1, 8, 1, nBits, 32)
}

type BlockParams struct {
	index      uint64
	prevRef    []byte
	difficulty Difficulty
	payload    []byte
	nonce      uint64
}

func NewBlockParams(nBits uint8) *BlockParams {
	return &BlockParams{
		index:      rand.Uint64(),
		prevRef:    utils.Hash(RandBytes()),
		difficulty: LightDifficulty(nBits),
		payload:    RandBytes(),
		nonce:      rand.Uint64(),
	}
}

func GenBlockFromParams(bp *BlockParams) *Block {
	return NewBlock(bp.index, bp.prevRef, bp.difficulty, bp.payload).WithNonce(bp.nonce)
}

func CheckBlock(b *Block, bp *BlockParams) error {
	if b.Index != bp.index {
		return errorf("block index", bp.index, b.Index)
	}
	if !bytes.Equal(b.PrevRef, bp.prevRef) {
		return errorf("block prev ref", bp.prevRef, b.PrevRef)
	}
	if b.Difficulty != bp.difficulty {
		return errorf("block difficulty", bp.difficulty, b.Difficulty)
	}
	if !bytes.Equal(b.Payload, bp.payload) {
		return errorf("block payload", bp.payload, b.Payload)
	}
	if b.Nonce != bp.nonce {
		return errorf("block nonce", bp.nonce, b.Nonce)
	}
	return nil
}

// RandBytes returns a short random message
func RandBytes() []byte {
	// copy from https://golang.org/pkg/math/rand/#Rand Example
	strs := []string{
		"It is certain",
		"It is decidedly so",
		"Without a doubt",
		"Yes definitely",
		"You may rely on it",
		"As I see it yes",
		"Most likely",
		"Outlook good",
		"Yes",
		"Signs point to yes",
		"Reply hazy try again",
		"Ask again later",
		"Better not tell you now",
		"Cannot predict now",
		"Concentrate and ask again",
		"Don't count on it",
		"My reply is no",
		"My sources say no",
		"Outlook not so good",
		"Very doubtful",
	}
	return []byte(fmt.Sprintf("%s -- %d",
		strs[rand.Intn(len(strs))],
		time.Now().UnixNano()))
}
