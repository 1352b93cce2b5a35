package crypto

import (
	"os"
	"testing"

	"github.com/996BC/996.Mesh/utils"
)

func TestPKeyFile(t *testing.T) {
	dir := t.TempDir()
	key, _ := GenerateKey(AlgoSecp256k1)

	if err := SavePKey(dir, "alice", key); err != nil {
		t.Fatal(err)
	}
	if err := SavePKey(dir, "alice", key); err == nil {
		t.Fatal("expect existing key file error")
	}

	restored, err := RestorePKey(KeyFilePath(dir, "alice", PlainKeyType))
	if err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckBytes("restored pKey", key.Serialize(), restored.Serialize()); err != nil {
		t.Fatal(err)
	}
}

func TestSKeyFile(t *testing.T) {
	dir := t.TempDir()
	pass := []byte("test_password")
	key, _ := GenerateKey(AlgoDilithium3)

	if err := SaveSKey(dir, "relay", key, pass, testSealParams); err != nil {
		t.Fatal(err)
	}

	file := KeyFilePath(dir, "relay", SealKeyType)
	restored, err := RestoreKeyFile(file, func() ([]byte, error) { return pass, nil })
	if err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckBytes("restored sKey", key.Public(), restored.Public()); err != nil {
		t.Fatal(err)
	}
}

func TestRestoreMissingFile(t *testing.T) {
	if _, err := RestorePKey(os.TempDir() + "/no-such.pKey"); err == nil {
		t.Fatal("expect missing file error")
	}
}
