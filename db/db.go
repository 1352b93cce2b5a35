package db

import (
	"bytes"
	"path/filepath"
	"time"

	"github.com/996BC/996.Mesh/serialize/storage"
	"github.com/996BC/996.Mesh/utils"
	"github.com/dgraph-io/badger"
)

var logger = utils.NewLogger("db")

const gcInterval = 10 * time.Minute

// DB keeps the node's keys and beam chains in badger
type DB struct {
	bdb *badger.DB
	lm  *utils.LoopMode
}

// Open opens the database under an existing directory
func Open(path string) (*DB, error) {
	var dbpath string
	var err error

	if dbpath, err = filepath.Abs(path); err != nil {
		return nil, err
	}

	if err = utils.AccessCheck(dbpath); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(dbpath)
	opts = opts.WithLogger(nil)
	opts = opts.WithValueLogFileSize(64 << 20)
	opts = opts.WithMaxTableSize(16 << 20)

	result := &DB{lm: utils.NewLoop()}
	if result.bdb, err = badger.Open(opts); err != nil {
		return nil, result.wrapError(err)
	}

	result.start()
	return result, nil
}

func (d *DB) Close() {
	d.stop()
	if err := d.bdb.Close(); err != nil {
		logger.Warn("close badger failed:%v\n", err)
	}
}

// PutKey stores a new key record, ErrExists if the id is taken
func (d *DB) PutKey(id string, rec *storage.KeyRecord) error {
	return d.putNew(getKeyKey(id), rec.Marshal())
}

func (d *DB) GetKey(id string) (*storage.KeyRecord, error) {
	var result *storage.KeyRecord

	rf := func(tx *badger.Txn) error {
		item, err := tx.Get(getKeyKey(id))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			result, err = storage.UnmarshalKeyRecord(bytes.NewReader(val))
			return err
		})
	}

	return result, d.view(rf)
}

// ListKeys returns the ids and records of every owned key in id order
func (d *DB) ListKeys() ([]string, []*storage.KeyRecord, error) {
	var ids []string
	var recs []*storage.KeyRecord

	err := d.iterate(keyPrefix, func(key, val []byte) error {
		rec, err := storage.UnmarshalKeyRecord(bytes.NewReader(val))
		if err != nil {
			return err
		}
		ids = append(ids, string(key[len(keyPrefix):]))
		recs = append(recs, rec)
		return nil
	})
	return ids, recs, err
}

// PutForeignKey stores a foreign key, ErrExists if the alias is taken
func (d *DB) PutForeignKey(fk *storage.ForeignKey) error {
	return d.putNew(getForeignKey(fk.Alias), fk.Marshal())
}

func (d *DB) GetForeignKey(alias string) (*storage.ForeignKey, error) {
	var result *storage.ForeignKey

	rf := func(tx *badger.Txn) error {
		item, err := tx.Get(getForeignKey(alias))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			result, err = storage.UnmarshalForeignKey(bytes.NewReader(val))
			return err
		})
	}

	return result, d.view(rf)
}

func (d *DB) ListForeignKeys() ([]*storage.ForeignKey, error) {
	var result []*storage.ForeignKey

	err := d.iterate(foreignPrefix, func(key, val []byte) error {
		fk, err := storage.UnmarshalForeignKey(bytes.NewReader(val))
		if err != nil {
			return err
		}
		result = append(result, fk)
		return nil
	})
	return result, err
}

// PutChainBlock appends a block to the chain of chainID.
// The block index must equal the current chain height.
func (d *DB) PutChainBlock(chainID []byte, block *storage.ChainBlock) error {
	data, err := block.Marshal()
	if err != nil {
		return err
	}

	wf := func(tx *badger.Txn) error {
		height, err := d.getHeightTX(chainID, tx)
		if err != nil {
			return err
		}
		if block.Index != height {
			return ErrInvalidHeight{block.Index, height}
		}

		if err := tx.Set(getChainBlockKey(chainID, block.Index), data); err != nil {
			return err
		}
		return tx.Set(getChainHeightKey(chainID), hbyte(height+1))
	}

	return d.update(wf)
}

func (d *DB) GetChainBlock(chainID []byte, index uint64) (*storage.ChainBlock, error) {
	var result *storage.ChainBlock

	rf := func(tx *badger.Txn) error {
		item, err := tx.Get(getChainBlockKey(chainID, index))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			result, err = storage.UnmarshalChainBlock(bytes.NewReader(val))
			return err
		})
	}

	return result, d.view(rf)
}

// GetChainHeight returns the number of blocks in the chain, 0 for unknown chains
func (d *DB) GetChainHeight(chainID []byte) (uint64, error) {
	var result uint64

	rf := func(tx *badger.Txn) error {
		var err error
		result, err = d.getHeightTX(chainID, tx)
		return err
	}

	return result, d.view(rf)
}

// GetChainBlocks returns the whole chain in index order
func (d *DB) GetChainBlocks(chainID []byte) ([]*storage.ChainBlock, error) {
	var result []*storage.ChainBlock

	err := d.iterate(getChainBlockPrefix(chainID), func(key, val []byte) error {
		block, err := storage.UnmarshalChainBlock(bytes.NewReader(val))
		if err != nil {
			return err
		}
		result = append(result, block)
		return nil
	})
	return result, err
}

func (d *DB) getHeightTX(chainID []byte, tx *badger.Txn) (uint64, error) {
	item, err := tx.Get(getChainHeightKey(chainID))
	if err == badger.ErrKeyNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var result uint64
	err = item.Value(func(val []byte) error {
		result = byteh(val)
		return nil
	})
	return result, err
}

func (d *DB) putNew(key []byte, value []byte) error {
	wf := func(tx *badger.Txn) error {
		_, err := tx.Get(key)
		if err == nil {
			return ErrExists
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		return tx.Set(key, value)
	}

	return d.update(wf)
}

func (d *DB) iterate(prefix []byte, fn func(key, val []byte) error) error {
	rf := func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)

			err := item.Value(func(val []byte) error {
				return fn(key, val)
			})
			if err != nil {
				return err
			}
		}
		return nil
	}

	return d.view(rf)
}

func (d *DB) view(fn func(txn *badger.Txn) error) error {
	return d.wrapError(d.bdb.View(fn))
}

func (d *DB) update(fn func(txn *badger.Txn) error) error {
	return d.wrapError(d.bdb.Update(fn))
}

// wrap the error directly get from badger
func (d *DB) wrapError(err error) error {
	if err == nil {
		return nil
	}

	if err == badger.ErrKeyNotFound {
		return ErrNotFound
	}

	switch err.(type) {
	case ErrInvalidHeight:
		return err
	}
	if err == ErrExists {
		return err
	}

	logger.Warn("badger got unexpect err:%v\n", err)
	return ErrInternal
}

func (d *DB) start() {
	d.lm.StartWorking()
	d.lm.Add()
	go d.gcLoop()
}

func (d *DB) stop() {
	d.lm.Stop()
}

func (d *DB) gcLoop() {
	defer d.lm.Done()

	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.lm.D:
			return
		case <-ticker.C:
			if err := d.bdb.RunValueLogGC(0.5); err != nil && err != badger.ErrNoRewrite {
				logger.Debug("value log gc:%v\n", err)
			}
		}
	}
}
