package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"

	"github.com/996BC/996.Mesh/utils"
	"golang.org/x/crypto/scrypt"
)

/*
A sealed key is a JSON document holding a private key encrypted by AES-256-GCM.
The aes key is derived from the user's passphrase by the scrypt.
*/

const (
	version1   = 1
	kdfName    = "scrypt"
	dkLen      = 32
	saltLen    = 32
	cryptoName = "aes-256-gcm"

	maxScryptN = 1 << 20
)

// SealParams are the scrypt cost parameters used by Seal
type SealParams struct {
	N int
	R int
	P int
}

// DefaultSealParams is used for keys stored on disk
var DefaultSealParams = SealParams{N: 262144, R: 8, P: 1}

type sealedJSON struct {
	Version    int             `json:"version"`
	Algo       string          `json:"algo"`
	KdfName    string          `json:"kdfName"`
	KDF        scryptKDF       `json:"kdf"`
	CryptoName string          `json:"cryptoName"`
	Crypto     aes256GcmCrypto `json:"crypto"`
}

type scryptKDF struct {
	DkLen int    `json:"dkLen"`
	N     int    `json:"n"`
	P     int    `json:"p"`
	R     int    `json:"r"`
	Salt  string `json:"salt"`
}

type aes256GcmCrypto struct {
	CipherText string `json:"cipherText"`
	Nonce      string `json:"nonce"`
}

// Seal encrypts the serialized private key with the passphrase
func Seal(passphrase []byte, key PrivateKey, sp SealParams) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}

	dk, err := scrypt.Key(passphrase, salt, sp.N, sp.R, sp.P, dkLen)
	if err != nil {
		return nil, err
	}

	nonce, cipherText, err := aesEncrypt(key.Serialize(), dk)
	if err != nil {
		return nil, err
	}

	sealed := &sealedJSON{
		Version: version1,
		Algo:    key.Algo().String(),
		KdfName: kdfName,
		KDF: scryptKDF{
			DkLen: dkLen,
			N:     sp.N,
			P:     sp.P,
			R:     sp.R,
			Salt:  utils.ToHex(salt),
		},
		CryptoName: cryptoName,
		Crypto: aes256GcmCrypto{
			CipherText: utils.ToHex(cipherText),
			Nonce:      utils.ToHex(nonce),
		},
	}
	return json.MarshalIndent(sealed, "", "  ")
}

// Open decrypts a document produced by Seal
func Open(passphrase []byte, sealedContent []byte) (PrivateKey, error) {
	sealed := &sealedJSON{}
	if err := json.Unmarshal(sealedContent, sealed); err != nil {
		return nil, err
	}
	if err := checkSealParams(sealed); err != nil {
		return nil, err
	}

	algo, err := ParseAlgo(sealed.Algo)
	if err != nil {
		return nil, err
	}

	salt, err := utils.FromHex(sealed.KDF.Salt)
	if err != nil {
		return nil, fmt.Errorf("invalid salt: %v", err)
	}
	nonce, err := utils.FromHex(sealed.Crypto.Nonce)
	if err != nil {
		return nil, fmt.Errorf("invalid nonce: %v", err)
	}
	cipherText, err := utils.FromHex(sealed.Crypto.CipherText)
	if err != nil {
		return nil, fmt.Errorf("invalid cipher text: %v", err)
	}

	dk, err := scrypt.Key(passphrase, salt, sealed.KDF.N, sealed.KDF.R, sealed.KDF.P, sealed.KDF.DkLen)
	if err != nil {
		return nil, err
	}

	plainText, err := aesDecrypt(cipherText, nonce, dk)
	if err != nil {
		return nil, fmt.Errorf("decrypt failed, wrong passphrase?")
	}

	return ParsePrivateKey(algo, plainText)
}

func checkSealParams(s *sealedJSON) error {
	if s.Version != version1 {
		return fmt.Errorf("unrecognized version:%d", s.Version)
	}
	if s.KdfName != kdfName {
		return fmt.Errorf("unrecognized kdf:%s", s.KdfName)
	}
	if s.CryptoName != cryptoName {
		return fmt.Errorf("unrecognized crypto:%s", s.CryptoName)
	}
	if s.KDF.DkLen != dkLen {
		return fmt.Errorf("unrecognized dkLen:%d", s.KDF.DkLen)
	}
	if s.KDF.N <= 1 || s.KDF.N > maxScryptN || s.KDF.N&(s.KDF.N-1) != 0 {
		return fmt.Errorf("unacceptable n:%d", s.KDF.N)
	}
	if len(s.KDF.Salt) == 0 || len(s.Crypto.CipherText) == 0 ||
		len(s.Crypto.Nonce) == 0 {
		return fmt.Errorf("the essential content is missed")
	}
	return nil
}

func aesEncrypt(plaintext []byte, key []byte) (nonceRet, cipherTextRet []byte, err error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}

	cipherText := aesgcm.Seal(nil, nonce, plaintext, nil)
	return nonce, cipherText, nil
}

func aesDecrypt(cipherText, nonce, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aesgcm.NonceSize() {
		return nil, fmt.Errorf("invalid nonce length %d", len(nonce))
	}
	return aesgcm.Open(nil, nonce, cipherText, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("AES key must be 32 bytes")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
