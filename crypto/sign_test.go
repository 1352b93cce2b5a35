package crypto

import (
	"fmt"
	"testing"

	"github.com/996BC/996.Mesh/utils"
)

var signTestAlgos = []Algo{AlgoSecp256k1, AlgoDilithium3}

func TestSignVerify(t *testing.T) {
	msg := []byte("Without a doubt")

	for _, algo := range signTestAlgos {
		key, err := GenerateKey(algo)
		if err != nil {
			t.Fatalf("[%v] generate key failed:%v\n", algo, err)
		}
		if err := utils.TCheckUint8(fmt.Sprintf("[%v] algo of public key", algo),
			uint8(algo), uint8(AlgoOf(key.Public()))); err != nil {
			t.Fatal(err)
		}

		sig, err := Sign(key, msg)
		if err != nil {
			t.Fatalf("[%v] sign failed:%v\n", algo, err)
		}
		if !Verify(key.Public(), msg, sig) {
			t.Fatalf("[%v] expect valid signature\n", algo)
		}

		if Verify(key.Public(), []byte("Without a doubt."), sig) {
			t.Fatalf("[%v] expect verify failed with other message\n", algo)
		}

		other, _ := GenerateKey(algo)
		if Verify(other.Public(), msg, sig) {
			t.Fatalf("[%v] expect verify failed with other key\n", algo)
		}

		broken := append([]byte{}, sig...)
		broken[len(broken)/2] ^= 0x01
		if Verify(key.Public(), msg, broken) {
			t.Fatalf("[%v] expect verify failed with broken signature\n", algo)
		}
	}
}

func TestVerifyUnknownKey(t *testing.T) {
	if Verify([]byte{1, 2, 3}, []byte("msg"), []byte{4, 5, 6}) {
		t.Fatal("expect unknown public key never verifies")
	}
	if AlgoOf(nil) != 0 {
		t.Fatal("expect unknown algo for empty key")
	}
}

func TestParsePrivateKey(t *testing.T) {
	for _, algo := range signTestAlgos {
		key, _ := GenerateKey(algo)

		restored, err := ParsePrivateKey(algo, key.Serialize())
		if err != nil {
			t.Fatalf("[%v] parse private key failed:%v\n", algo, err)
		}
		if err := utils.TCheckBytes(fmt.Sprintf("[%v] public key", algo),
			key.Public(), restored.Public()); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := ParsePrivateKey(AlgoSecp256k1, []byte{1, 2, 3}); err == nil {
		t.Fatal("expect short secp256k1 key rejected")
	}
	if _, err := ParsePrivateKey(Algo(9), nil); err == nil {
		t.Fatal("expect unknown algo rejected")
	}
}

func TestParseAlgo(t *testing.T) {
	for _, algo := range signTestAlgos {
		parsed, err := ParseAlgo(algo.String())
		if err != nil {
			t.Fatal(err)
		}
		if err := utils.TCheckUint8(algo.String(), uint8(algo), uint8(parsed)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := ParseAlgo("rsa"); err == nil {
		t.Fatal("expect unsupported algo error")
	}
}
