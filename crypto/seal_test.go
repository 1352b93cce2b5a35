package crypto

import (
	"testing"

	"github.com/996BC/996.Mesh/utils"
)

// scrypt parameters cheap enough for tests
var testSealParams = SealParams{N: 1024, R: 8, P: 1}

func TestSealOpen(t *testing.T) {
	pass := []byte("test_password")

	for _, algo := range signTestAlgos {
		key, _ := GenerateKey(algo)

		sealed, err := Seal(pass, key, testSealParams)
		if err != nil {
			t.Fatalf("[%v] seal failed:%v\n", algo, err)
		}

		opened, err := Open(pass, sealed)
		if err != nil {
			t.Fatalf("[%v] open failed:%v\n", algo, err)
		}
		if err := utils.TCheckBytes("opened public key", key.Public(), opened.Public()); err != nil {
			t.Fatal(err)
		}

		if _, err := Open([]byte("wrong_password"), sealed); err == nil {
			t.Fatalf("[%v] expect wrong passphrase failed\n", algo)
		}
	}
}

func TestOpenRejectsParams(t *testing.T) {
	key, _ := GenerateKey(AlgoSecp256k1)
	sealed, _ := Seal([]byte("pass"), key, SealParams{N: 1000, R: 8, P: 1})
	if sealed != nil {
		if _, err := Open([]byte("pass"), sealed); err == nil {
			t.Fatal("expect non power of two n rejected")
		}
	}

	if _, err := Open([]byte("pass"), []byte(`{"version":2}`)); err == nil {
		t.Fatal("expect unknown version rejected")
	}
	if _, err := Open([]byte("pass"), []byte("not json")); err == nil {
		t.Fatal("expect invalid json rejected")
	}
}
