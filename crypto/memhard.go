package crypto

import (
	"fmt"
	"math"

	"github.com/996BC/996.Mesh/params"
	"golang.org/x/crypto/argon2"
)

// MemHardHash is argon2id over message with the network salt.
// tCost is the number of passes, mCost the memory in KiB, pCost the lanes,
// outLen the digest length in bytes.
func MemHardHash(message []byte, tCost, mCost, pCost uint32, outLen uint32) ([]byte, error) {
	if err := CheckMemHardParams(tCost, mCost, pCost, outLen); err != nil {
		return nil, err
	}
	return argon2.IDKey(message, params.PowSalt, tCost, mCost, uint8(pCost), outLen), nil
}

// CheckMemHardParams rejects costs MemHardHash refuses to run, before anything is allocated
func CheckMemHardParams(tCost, mCost, pCost uint32, outLen uint32) error {
	if tCost == 0 || tCost > params.MaxTCost {
		return fmt.Errorf("t_cost %d out of range [1,%d]", tCost, params.MaxTCost)
	}
	if mCost > params.MaxMCost {
		return fmt.Errorf("m_cost %d KiB above the limit %d KiB", mCost, params.MaxMCost)
	}
	if pCost == 0 || pCost > math.MaxUint8 {
		return fmt.Errorf("p_cost %d out of argon2 lane range [1,255]", pCost)
	}
	if outLen == 0 {
		return fmt.Errorf("hash length must be at least 1")
	}
	return nil
}

// LeadingZeroBits counts the zero bits before the first set bit
func LeadingZeroBits(digest []byte) int {
	result := 0
	for _, b := range digest {
		if b == 0 {
			result += 8
			continue
		}
		for mask := byte(0x80); mask != 0 && b&mask == 0; mask >>= 1 {
			result++
		}
		break
	}
	return result
}
