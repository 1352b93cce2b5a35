package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/996BC/996.Mesh/utils"
)

// KeyRecord is a private key owned by this node
type KeyRecord struct {
	Version uint8
	Algo    uint8
	Sealed  bool
	Created int64
	Alias   string
	Pub     []byte
	Key     []byte
}

func NewKeyRecordV1(algo uint8, alias string, pub []byte, key []byte, sealed bool) *KeyRecord {
	return &KeyRecord{
		Version: StorageV1,
		Algo:    algo,
		Sealed:  sealed,
		Created: time.Now().Unix(),
		Alias:   alias,
		Pub:     pub,
		Key:     key,
	}
}

func UnmarshalKeyRecord(data io.Reader) (*KeyRecord, error) {
	result := &KeyRecord{}
	var sealed uint8
	var err error

	if err = binary.Read(data, binary.BigEndian, &result.Version); err != nil {
		return nil, err
	}
	if result.Version != StorageV1 {
		return nil, fmt.Errorf("unknown key record version %d", result.Version)
	}
	if err = binary.Read(data, binary.BigEndian, &result.Algo); err != nil {
		return nil, err
	}
	if err = binary.Read(data, binary.BigEndian, &sealed); err != nil {
		return nil, err
	}
	result.Sealed = sealed == 1
	if err = binary.Read(data, binary.BigEndian, &result.Created); err != nil {
		return nil, err
	}

	if result.Alias, err = readString8(data); err != nil {
		return nil, err
	}
	if result.Pub, err = readBytes16(data); err != nil {
		return nil, err
	}

	var keyLen uint32
	if err = binary.Read(data, binary.BigEndian, &keyLen); err != nil {
		return nil, err
	}
	buf := new(bytes.Buffer)
	if _, err = io.CopyN(buf, data, int64(keyLen)); err != nil {
		return nil, err
	}
	result.Key = buf.Bytes()

	return result, nil
}

func (k *KeyRecord) Marshal() []byte {
	result := new(bytes.Buffer)

	binary.Write(result, binary.BigEndian, k.Version)
	binary.Write(result, binary.BigEndian, k.Algo)
	binary.Write(result, binary.BigEndian, boolByte(k.Sealed))
	binary.Write(result, binary.BigEndian, k.Created)

	writeString8(result, k.Alias)
	writeBytes16(result, k.Pub)

	binary.Write(result, binary.BigEndian, utils.Uint32Len(k.Key))
	result.Write(k.Key)

	return result.Bytes()
}

// ForeignKey is a public key of another node imported by the operator
type ForeignKey struct {
	Version     uint8
	CanEncrypt  bool
	Added       int64
	Alias       string
	Pub         []byte
	Description string
}

func NewForeignKeyV1(alias string, pub []byte, description string, canEncrypt bool) *ForeignKey {
	return &ForeignKey{
		Version:     StorageV1,
		CanEncrypt:  canEncrypt,
		Added:       time.Now().Unix(),
		Alias:       alias,
		Pub:         pub,
		Description: description,
	}
}

func UnmarshalForeignKey(data io.Reader) (*ForeignKey, error) {
	result := &ForeignKey{}
	var canEncrypt uint8
	var err error

	if err = binary.Read(data, binary.BigEndian, &result.Version); err != nil {
		return nil, err
	}
	if result.Version != StorageV1 {
		return nil, fmt.Errorf("unknown foreign key version %d", result.Version)
	}
	if err = binary.Read(data, binary.BigEndian, &canEncrypt); err != nil {
		return nil, err
	}
	result.CanEncrypt = canEncrypt == 1
	if err = binary.Read(data, binary.BigEndian, &result.Added); err != nil {
		return nil, err
	}

	if result.Alias, err = readString8(data); err != nil {
		return nil, err
	}
	if result.Pub, err = readBytes16(data); err != nil {
		return nil, err
	}
	description, err := readBytes16(data)
	if err != nil {
		return nil, err
	}
	result.Description = string(description)

	return result, nil
}

func (f *ForeignKey) Marshal() []byte {
	result := new(bytes.Buffer)

	binary.Write(result, binary.BigEndian, f.Version)
	binary.Write(result, binary.BigEndian, boolByte(f.CanEncrypt))
	binary.Write(result, binary.BigEndian, f.Added)

	writeString8(result, f.Alias)
	writeBytes16(result, f.Pub)
	writeBytes16(result, []byte(f.Description))

	return result.Bytes()
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func readString8(data io.Reader) (string, error) {
	var l uint8
	if err := binary.Read(data, binary.BigEndian, &l); err != nil {
		return "", err
	}
	result := make([]byte, l)
	if _, err := io.ReadFull(data, result); err != nil {
		return "", err
	}
	return string(result), nil
}

func writeString8(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.BigEndian, utils.Uint8Len([]byte(s)))
	buf.WriteString(s)
}

func readBytes16(data io.Reader) ([]byte, error) {
	var l uint16
	if err := binary.Read(data, binary.BigEndian, &l); err != nil {
		return nil, err
	}
	result := make([]byte, l)
	if _, err := io.ReadFull(data, result); err != nil {
		return nil, err
	}
	return result, nil
}

func writeBytes16(buf *bytes.Buffer, data []byte) {
	binary.Write(buf, binary.BigEndian, utils.Uint16Len(data))
	buf.Write(data)
}
