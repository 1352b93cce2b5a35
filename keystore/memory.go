package keystore

import (
	"sort"
	"sync"
	"time"

	"github.com/996BC/996.Mesh/crypto"
	"github.com/google/uuid"
)

type memoryKey struct {
	info *KeyInfo
	key  crypto.PrivateKey
}

// Memory is a process local key store, used by tests and one-shot CLI runs
type Memory struct {
	mu      sync.RWMutex
	keys    map[string]*memoryKey
	foreign map[string]*ForeignInfo
}

func NewMemory() *Memory {
	return &Memory{
		keys:    make(map[string]*memoryKey),
		foreign: make(map[string]*ForeignInfo),
	}
}

func (m *Memory) Resolve(id string) (crypto.PrivateKey, []byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	k, ok := m.keys[id]
	if !ok {
		return nil, nil, ErrKeyNotFound{id}
	}
	return k.key, k.info.Pub, nil
}

func (m *Memory) ResolvePub(alias string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.foreign[alias]
	if !ok {
		return nil, ErrKeyNotFound{alias}
	}
	return f.Pub, nil
}

// Generate creates a key under a random id
func (m *Memory) Generate(algo crypto.Algo, alias string) (*KeyInfo, error) {
	key, err := crypto.GenerateKey(algo)
	if err != nil {
		return nil, err
	}
	return m.Import(uuid.NewString(), alias, key)
}

func (m *Memory) Import(id string, alias string, key crypto.PrivateKey) (*KeyInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.keys[id]; ok {
		return nil, ErrKeyExists{id}
	}
	info := &KeyInfo{
		ID:      id,
		Alias:   alias,
		Algo:    key.Algo(),
		Pub:     key.Public(),
		Created: time.Now().Unix(),
	}
	m.keys[id] = &memoryKey{info: info, key: key}
	return info, nil
}

func (m *Memory) ImportPub(alias string, pub []byte, description string, canEncrypt bool) error {
	if err := checkPub(pub); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.foreign[alias]; ok {
		return ErrKeyExists{alias}
	}
	m.foreign[alias] = &ForeignInfo{
		Alias:       alias,
		Pub:         pub,
		Description: description,
		CanEncrypt:  canEncrypt,
		Added:       time.Now().Unix(),
	}
	return nil
}

func (m *Memory) List() ([]*KeyInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*KeyInfo, 0, len(m.keys))
	for _, k := range m.keys {
		result = append(result, k.info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) ListPub() ([]*ForeignInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*ForeignInfo, 0, len(m.foreign))
	for _, f := range m.foreign {
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Alias < result[j].Alias })
	return result, nil
}
