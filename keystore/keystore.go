// Package keystore resolves signing identities by id and foreign public keys by alias
package keystore

import (
	"fmt"

	"github.com/996BC/996.Mesh/crypto"
)

// Resolver is what the packager needs from a key store.
// Implementations must be safe for concurrent reads.
type Resolver interface {
	// Resolve returns the private key of id and its wire public key
	Resolve(id string) (crypto.PrivateKey, []byte, error)
	// ResolvePub returns the public key imported under alias
	ResolvePub(alias string) ([]byte, error)
}

// Manager is a Resolver the operator can provision
type Manager interface {
	Resolver
	Generate(algo crypto.Algo, alias string) (*KeyInfo, error)
	Import(id string, alias string, key crypto.PrivateKey) (*KeyInfo, error)
	ImportPub(alias string, pub []byte, description string, canEncrypt bool) error
	List() ([]*KeyInfo, error)
	ListPub() ([]*ForeignInfo, error)
}

// KeyInfo describes an owned key without its secret
type KeyInfo struct {
	ID      string
	Alias   string
	Algo    crypto.Algo
	Pub     []byte
	Created int64
	Sealed  bool
}

// ForeignInfo describes an imported public key
type ForeignInfo struct {
	Alias       string
	Pub         []byte
	Description string
	CanEncrypt  bool
	Added       int64
}

// ErrKeyNotFound is returned when an id or alias does not resolve
type ErrKeyNotFound struct {
	ID string
}

func (e ErrKeyNotFound) Error() string {
	return fmt.Sprintf("key %q not found", e.ID)
}

// ErrKeyExists is returned when an id or alias is already taken
type ErrKeyExists struct {
	ID string
}

func (e ErrKeyExists) Error() string {
	return fmt.Sprintf("key %q already exists", e.ID)
}

func checkPub(pub []byte) error {
	if crypto.AlgoOf(pub) == 0 {
		return fmt.Errorf("unrecognized public key of %d bytes", len(pub))
	}
	return nil
}
