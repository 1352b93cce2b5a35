package crypto

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/996BC/996.Mesh/utils"
)

/*
Key files are the backups of the key store on the disk.
The pKey holds the plain private key as "algo:HEX", the sKey holds a sealed JSON document.
*/

const (
	PlainKeyType = 1
	PlainKey     = ".pKey"
	SealKeyType  = 2
	SealKey      = ".sKey"
)

// KeyFilePath returns where the key file of id lives in dir
func KeyFilePath(dir string, id string, keyType int) string {
	if keyType == SealKeyType {
		return filepath.Join(dir, id+SealKey)
	}
	return filepath.Join(dir, id+PlainKey)
}

// SavePKey writes the plain key file of id under dir
func SavePKey(dir string, id string, key PrivateKey) error {
	keyFile := KeyFilePath(dir, id, PlainKeyType)
	if err := checkBeforeNewKey(dir, keyFile); err != nil {
		return err
	}

	content := key.Algo().String() + ":" + utils.ToHex(key.Serialize())
	return saveOnDisk([]byte(content), keyFile)
}

// RestorePKey restores private key from the plain key file
func RestorePKey(file string) (PrivateKey, error) {
	content, err := readKeyFile(file)
	if err != nil {
		return nil, err
	}

	name, hexKey, ok := strings.Cut(string(content), ":")
	if !ok {
		return nil, fmt.Errorf("invalid key file %s", file)
	}
	algo, err := ParseAlgo(name)
	if err != nil {
		return nil, err
	}
	raw, err := utils.FromHex(hexKey)
	if err != nil {
		return nil, err
	}
	return ParsePrivateKey(algo, raw)
}

// SaveSKey seals the key with passphrase and writes the sealed key file of id under dir
func SaveSKey(dir string, id string, key PrivateKey, passphrase []byte, sp SealParams) error {
	keyFile := KeyFilePath(dir, id, SealKeyType)
	if err := checkBeforeNewKey(dir, keyFile); err != nil {
		return err
	}

	sealedContent, err := Seal(passphrase, key, sp)
	if err != nil {
		return err
	}
	return saveOnDisk(sealedContent, keyFile)
}

// RestoreSKey restores private key from the sealed key file
func RestoreSKey(file string, passphrase []byte) (PrivateKey, error) {
	content, err := readKeyFile(file)
	if err != nil {
		return nil, err
	}
	return Open(passphrase, content)
}

// RestoreKeyFile picks the restore method from the file extension
func RestoreKeyFile(file string, passphrase func() ([]byte, error)) (PrivateKey, error) {
	if filepath.Ext(file) != SealKey {
		return RestorePKey(file)
	}
	pass, err := passphrase()
	if err != nil {
		return nil, err
	}
	return RestoreSKey(file, pass)
}

func checkBeforeNewKey(path string, file string) error {
	if err := utils.AccessCheck(path); err != nil {
		return err
	}

	if err := utils.AccessCheck(file); err == nil {
		return fmt.Errorf("File %s already exists."+
			"You should remove it before creating a new one in the same directory",
			file)
	}

	return nil
}

func readKeyFile(file string) ([]byte, error) {
	if err := utils.AccessCheck(file); err != nil {
		return nil, err
	}

	content, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, err
	}

	//trim the \n of content
	trimContent := strings.TrimSpace(string(content))
	return []byte(trimContent), nil
}

func saveOnDisk(content []byte, file string) error {
	err := ioutil.WriteFile(file, content, 0600)
	return err
}
