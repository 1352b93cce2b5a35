package crypto

import (
	"github.com/996BC/996.Mesh/utils"
	"github.com/btcsuite/btcd/btcec"
	"github.com/cloudflare/circl/sign/dilithium/mode3"
)

// Sign signs msg with the private key
func Sign(key PrivateKey, msg []byte) ([]byte, error) {
	return key.Sign(msg)
}

// Verify checks sig over msg against a wire public key.
// The scheme is picked from the public key length; unknown keys never verify.
func Verify(pub []byte, msg []byte, sig []byte) bool {
	switch AlgoOf(pub) {
	case AlgoSecp256k1:
		key, err := btcec.ParsePubKey(pub, btcec.S256())
		if err != nil {
			return false
		}
		signature, err := btcec.ParseSignature(sig, btcec.S256())
		if err != nil {
			return false
		}
		return signature.Verify(utils.Hash(msg), key)
	case AlgoDilithium3:
		if len(sig) != mode3.SignatureSize {
			return false
		}
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return false
		}
		return mode3.Verify(&pk, utils.Hash(msg), sig)
	}
	return false
}

// AlgoOf returns the scheme of a wire public key, 0 if unknown
func AlgoOf(pub []byte) Algo {
	switch len(pub) {
	case btcec.PubKeyBytesLenCompressed:
		return AlgoSecp256k1
	case mode3.PublicKeySize:
		return AlgoDilithium3
	}
	return 0
}
