// Package merkle digests an ordered list of hashes into one root
package merkle

import (
	"fmt"

	"github.com/996BC/996.Mesh/utils"
)

// Root calculates the merkle root of leaves keeping their order.
// A node without a sibling moves up unchanged, leaves are not modified.
func Root(leaves [][]byte) ([]byte, error) {
	if len(leaves) == 0 {
		return nil, fmt.Errorf("nil input")
	}

	level := make([][]byte, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		next := level[:0]
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				break
			}
			pair := make([]byte, 0, len(level[i])+len(level[i+1]))
			pair = append(pair, level[i]...)
			next = append(next, utils.Hash(append(pair, level[i+1]...)))
		}
		level = next
	}
	return level[0], nil
}
