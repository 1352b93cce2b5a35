package crypto

import (
	"encoding/base32"
	"fmt"

	"github.com/996BC/996.Mesh/utils"
)

var (
	base32Codec = base32.StdEncoding.WithPadding(base32.NoPadding)
)

// PubToID returns the printable id of a wire public key
func PubToID(pub []byte) string {
	return base32Codec.EncodeToString(pub)
}

// IDToPub returns the wire public key of id, it fails unless the key length names a known scheme
func IDToPub(id string) ([]byte, error) {
	pub, err := base32Codec.DecodeString(id)
	if err != nil {
		return nil, fmt.Errorf("invalid key id: %v", err)
	}
	if AlgoOf(pub) == 0 {
		return nil, fmt.Errorf("key id %s names no known scheme", utils.ShortHex(pub))
	}
	return pub, nil
}

// ParsePub accepts a public key as a key id or as hex
func ParsePub(s string) ([]byte, error) {
	if pub, err := IDToPub(s); err == nil {
		return pub, nil
	}
	pub, err := utils.FromHex(s)
	if err != nil || AlgoOf(pub) == 0 {
		return nil, fmt.Errorf("%q is neither a key id nor a hex public key", s)
	}
	return pub, nil
}
