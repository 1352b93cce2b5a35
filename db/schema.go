package db

import (
	"encoding/binary"

	"github.com/996BC/996.Mesh/utils"
)

var (
	// chain is the sha256 of the chain owner's public key
	keyPrefix         = []byte("k") // keyPrefix + id -> storage.KeyRecord
	foreignPrefix     = []byte("f") // foreignPrefix + alias -> storage.ForeignKey
	chainBlockPrefix  = []byte("c") // chainBlockPrefix + chain + index -> storage.ChainBlock
	chainHeightPrefix = []byte("C") // chainHeightPrefix + chain -> number of blocks
)

func hbyte(height uint64) []byte {
	result := make([]byte, 8)
	binary.BigEndian.PutUint64(result, height)
	return result
}

func byteh(data []byte) uint64 {
	if len(data) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(data)
}

func concat(parts ...[]byte) []byte {
	var result []byte
	for _, p := range parts {
		result = append(result, p...)
	}
	return result
}

// k..
func getKeyKey(id string) []byte {
	return concat(keyPrefix, []byte(id))
}

// f..
func getForeignKey(alias string) []byte {
	return concat(foreignPrefix, []byte(alias))
}

// c..
func getChainBlockPrefix(chainID []byte) []byte {
	return concat(chainBlockPrefix, utils.Hash(chainID))
}

// c....
func getChainBlockKey(chainID []byte, index uint64) []byte {
	return concat(getChainBlockPrefix(chainID), hbyte(index))
}

// C..
func getChainHeightKey(chainID []byte) []byte {
	return concat(chainHeightPrefix, utils.Hash(chainID))
}
