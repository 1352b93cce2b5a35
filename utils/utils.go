package utils

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	HashLength = sha256.Size

	timeFormat = "2006/01/02 15:04:05"
)

// ZeroHash is the predecessor reference of a genesis block
var ZeroHash = make([]byte, HashLength)

var bufPool = &sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// GetBuf gets a *bytes.Buffer from pool
func GetBuf() *bytes.Buffer {
	result := bufPool.Get().(*bytes.Buffer)
	result.Reset()
	return result
}

// ReturnBuf returns a *bytes.Buffer to Pool once you don't need it
func ReturnBuf(buf *bytes.Buffer) {
	bufPool.Put(buf)
}

// AccessCheck checks whether the file or directory exists
func AccessCheck(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("Not found %s or permision denied", err)
	}
	return nil
}

// Uint8Len returns bytes length in uint8 type
func Uint8Len(data []byte) uint8 {
	return uint8(len(data))
}

// Uint16Len returns bytes length in uint16 type
func Uint16Len(data []byte) uint16 {
	return uint16(len(data))
}

// Uint32Len returns bytes length in uint32 type
func Uint32Len(data []byte) uint32 {
	return uint32(len(data))
}

// Hash return sha256sum of data
func Hash(data []byte) []byte {
	h := sha256.Sum256(data)
	return h[:]
}

// ToHex returns the upper case hexadecimal encoding string
func ToHex(data []byte) string {
	return strings.ToUpper(hex.EncodeToString(data))
}

// FromHex returns the bytes represented by the hexadecimal string s,
// an optional 0x prefix and surrounding spaces are ignored
func FromHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hex.DecodeString(s)
}

// ShortHex returns the first bytes of data in hex, used in logs
func ShortHex(data []byte) string {
	const cut = 6
	if len(data) > cut {
		return fmt.Sprintf("%s..(%d)", ToHex(data[:cut]), len(data))
	}
	return ToHex(data)
}

// TimeToString returns a textual representation of the time;
// it only accepts int64 or time.Time type
func TimeToString(t interface{}) string {

	if int64T, ok := t.(int64); ok {
		return time.Unix(int64T, 0).Format(timeFormat)
	}

	if timeT, ok := t.(time.Time); ok {
		return timeT.Format(timeFormat)
	}

	defaultLog.Fatal("invalid call to TimeToString (%v)\n", t)
	return ""
}
