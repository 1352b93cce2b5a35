package blockchain

import (
	"fmt"

	"github.com/996BC/996.Mesh/serialize/cp"
	"github.com/996BC/996.Mesh/utils"
)

type ErrInvalidIndex struct {
	expect uint64
	got    uint64
}

func (e ErrInvalidIndex) Error() string {
	return fmt.Sprintf("invalid block index %d, expect %d", e.got, e.expect)
}

type ErrInvalidPrevRef struct {
	expect []byte
	got    []byte
}

func (e ErrInvalidPrevRef) Error() string {
	return fmt.Sprintf("invalid prev ref %s, expect %s", utils.ShortHex(e.got), utils.ShortHex(e.expect))
}

type ErrDifficultyMismatch struct {
	expect cp.Difficulty
	got    cp.Difficulty
}

func (e ErrDifficultyMismatch) Error() string {
	return fmt.Sprintf("difficulty [%v] does not satisfy chain difficulty [%v]", e.got, e.expect)
}

type ErrInvalidPow struct {
	index uint64
	nonce uint64
}

func (e ErrInvalidPow) Error() string {
	return fmt.Sprintf("nonce %d of block %d does not meet its difficulty", e.nonce, e.index)
}
