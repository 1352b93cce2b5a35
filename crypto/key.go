package crypto

import (
	"crypto/rand"
	"fmt"

	"github.com/996BC/996.Mesh/utils"
	"github.com/btcsuite/btcd/btcec"
	"github.com/cloudflare/circl/sign/dilithium/mode3"
)

// Algo identifies a signature scheme
type Algo uint8

const (
	AlgoSecp256k1  = Algo(1)
	AlgoDilithium3 = Algo(2)
)

func (a Algo) String() string {
	switch a {
	case AlgoSecp256k1:
		return "secp256k1"
	case AlgoDilithium3:
		return "dilithium3"
	default:
		return fmt.Sprintf("algo(%d)", uint8(a))
	}
}

// ParseAlgo maps a scheme name back to its Algo
func ParseAlgo(name string) (Algo, error) {
	switch name {
	case "secp256k1", "":
		return AlgoSecp256k1, nil
	case "dilithium3":
		return AlgoDilithium3, nil
	}
	return 0, fmt.Errorf("unsupported algorithm %q", name)
}

// PrivateKey is a signing identity.
// Public returns the wire form of the public key, which is what envelopes carry.
type PrivateKey interface {
	Algo() Algo
	Sign(msg []byte) ([]byte, error)
	Public() []byte
	Serialize() []byte
}

// GenerateKey creates a fresh key of the given scheme
func GenerateKey(algo Algo) (PrivateKey, error) {
	switch algo {
	case AlgoSecp256k1:
		key, err := btcec.NewPrivateKey(btcec.S256())
		if err != nil {
			return nil, err
		}
		return &secpKey{key: key}, nil
	case AlgoDilithium3:
		_, sk, err := mode3.GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		return newDilithiumKey(sk)
	}
	return nil, fmt.Errorf("unsupported algorithm %v", algo)
}

// ParsePrivateKey restores a key from the bytes returned by Serialize
func ParsePrivateKey(algo Algo, data []byte) (PrivateKey, error) {
	switch algo {
	case AlgoSecp256k1:
		if len(data) != btcec.PrivKeyBytesLen {
			return nil, fmt.Errorf("invalid secp256k1 private key length %d", len(data))
		}
		key, _ := btcec.PrivKeyFromBytes(btcec.S256(), data)
		if key == nil {
			return nil, fmt.Errorf("parse bytes to private key failed")
		}
		return &secpKey{key: key}, nil
	case AlgoDilithium3:
		sk := new(mode3.PrivateKey)
		if err := sk.UnmarshalBinary(data); err != nil {
			return nil, fmt.Errorf("invalid dilithium3 private key: %v", err)
		}
		return newDilithiumKey(sk)
	}
	return nil, fmt.Errorf("unsupported algorithm %v", algo)
}

type secpKey struct {
	key *btcec.PrivateKey
}

func (k *secpKey) Algo() Algo { return AlgoSecp256k1 }

func (k *secpKey) Sign(msg []byte) ([]byte, error) {
	sig, err := k.key.Sign(utils.Hash(msg))
	if err != nil {
		return nil, err
	}
	return sig.Serialize(), nil
}

func (k *secpKey) Public() []byte {
	return k.key.PubKey().SerializeCompressed()
}

func (k *secpKey) Serialize() []byte {
	return k.key.Serialize()
}

type dilithiumKey struct {
	sk  *mode3.PrivateKey
	pub []byte
}

func newDilithiumKey(sk *mode3.PrivateKey) (*dilithiumKey, error) {
	pk, ok := sk.Public().(*mode3.PublicKey)
	if !ok {
		return nil, fmt.Errorf("unexpected dilithium3 public key type")
	}
	pub, err := pk.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return &dilithiumKey{sk: sk, pub: pub}, nil
}

func (k *dilithiumKey) Algo() Algo { return AlgoDilithium3 }

func (k *dilithiumKey) Sign(msg []byte) ([]byte, error) {
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(k.sk, utils.Hash(msg), sig)
	return sig, nil
}

func (k *dilithiumKey) Public() []byte {
	return k.pub
}

func (k *dilithiumKey) Serialize() []byte {
	data, _ := k.sk.MarshalBinary()
	return data
}
