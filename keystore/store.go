package keystore

import (
	"errors"
	"fmt"
	"sync"

	"github.com/996BC/996.Mesh/crypto"
	"github.com/996BC/996.Mesh/db"
	"github.com/996BC/996.Mesh/serialize/storage"
	"github.com/996BC/996.Mesh/utils"
	"github.com/google/uuid"
)

var logger = utils.NewLogger("keystore")

// Store keeps keys in the node database.
// With a passphrase, private keys are sealed at rest and opened on first use.
type Store struct {
	d          *db.DB
	passphrase []byte
	sp         crypto.SealParams

	mu     sync.RWMutex
	opened map[string]crypto.PrivateKey
}

// NewStore creates a store over d; a nil passphrase keeps keys in plain form
func NewStore(d *db.DB, passphrase []byte, sp crypto.SealParams) *Store {
	return &Store{
		d:          d,
		passphrase: passphrase,
		sp:         sp,
		opened:     make(map[string]crypto.PrivateKey),
	}
}

func (s *Store) Resolve(id string) (crypto.PrivateKey, []byte, error) {
	s.mu.RLock()
	key, ok := s.opened[id]
	s.mu.RUnlock()
	if ok {
		return key, key.Public(), nil
	}

	rec, err := s.d.GetKey(id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil, ErrKeyNotFound{id}
	}
	if err != nil {
		return nil, nil, err
	}

	if key, err = s.openRecord(rec); err != nil {
		return nil, nil, fmt.Errorf("open key %s failed: %w", id, err)
	}

	s.mu.Lock()
	s.opened[id] = key
	s.mu.Unlock()
	return key, rec.Pub, nil
}

func (s *Store) openRecord(rec *storage.KeyRecord) (crypto.PrivateKey, error) {
	if !rec.Sealed {
		return crypto.ParsePrivateKey(crypto.Algo(rec.Algo), rec.Key)
	}
	if s.passphrase == nil {
		return nil, fmt.Errorf("key is sealed, passphrase required")
	}
	return crypto.Open(s.passphrase, rec.Key)
}

func (s *Store) ResolvePub(alias string) ([]byte, error) {
	fk, err := s.d.GetForeignKey(alias)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrKeyNotFound{alias}
	}
	if err != nil {
		return nil, err
	}
	return fk.Pub, nil
}

// Generate creates a key under a random id
func (s *Store) Generate(algo crypto.Algo, alias string) (*KeyInfo, error) {
	key, err := crypto.GenerateKey(algo)
	if err != nil {
		return nil, err
	}
	return s.Import(uuid.NewString(), alias, key)
}

func (s *Store) Import(id string, alias string, key crypto.PrivateKey) (*KeyInfo, error) {
	material := key.Serialize()
	sealed := false
	if s.passphrase != nil {
		var err error
		if material, err = crypto.Seal(s.passphrase, key, s.sp); err != nil {
			return nil, err
		}
		sealed = true
	}

	rec := storage.NewKeyRecordV1(uint8(key.Algo()), alias, key.Public(), material, sealed)
	err := s.d.PutKey(id, rec)
	if errors.Is(err, db.ErrExists) {
		return nil, ErrKeyExists{id}
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.opened[id] = key
	s.mu.Unlock()

	logger.Info("stored %v key %s (%s)\n", key.Algo(), id, alias)
	return recordInfo(id, rec), nil
}

func (s *Store) ImportPub(alias string, pub []byte, description string, canEncrypt bool) error {
	if err := checkPub(pub); err != nil {
		return err
	}

	err := s.d.PutForeignKey(storage.NewForeignKeyV1(alias, pub, description, canEncrypt))
	if errors.Is(err, db.ErrExists) {
		return ErrKeyExists{alias}
	}
	return err
}

func (s *Store) List() ([]*KeyInfo, error) {
	ids, recs, err := s.d.ListKeys()
	if err != nil {
		return nil, err
	}

	result := make([]*KeyInfo, 0, len(ids))
	for i, id := range ids {
		result = append(result, recordInfo(id, recs[i]))
	}
	return result, nil
}

func (s *Store) ListPub() ([]*ForeignInfo, error) {
	fks, err := s.d.ListForeignKeys()
	if err != nil {
		return nil, err
	}

	result := make([]*ForeignInfo, 0, len(fks))
	for _, fk := range fks {
		result = append(result, &ForeignInfo{
			Alias:       fk.Alias,
			Pub:         fk.Pub,
			Description: fk.Description,
			CanEncrypt:  fk.CanEncrypt,
			Added:       fk.Added,
		})
	}
	return result, nil
}

func recordInfo(id string, rec *storage.KeyRecord) *KeyInfo {
	return &KeyInfo{
		ID:      id,
		Alias:   rec.Alias,
		Algo:    crypto.Algo(rec.Algo),
		Pub:     rec.Pub,
		Created: rec.Created,
		Sealed:  rec.Sealed,
	}
}
