package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/996BC/996.Mesh/serialize/cp"
	"github.com/996BC/996.Mesh/serialize/storage"
	"github.com/996BC/996.Mesh/utils"
)

func setup(t *testing.T) *DB {
	d, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db failed:%v\n", err)
	}
	t.Cleanup(d.Close)
	return d
}

func TestOpenMissingDir(t *testing.T) {
	if _, err := Open(t.TempDir() + "/missing"); err == nil {
		t.Fatal("expect missing directory error")
	}
}

func TestKeys(t *testing.T) {
	d := setup(t)

	alice := storage.NewKeyRecordV1(1, "alice", []byte{1, 2, 3}, []byte{4, 5, 6}, false)
	bob := storage.NewKeyRecordV1(2, "bob", []byte{7, 8}, []byte{9}, true)

	if err := d.PutKey("id-alice", alice); err != nil {
		t.Fatal(err)
	}
	if err := d.PutKey("id-bob", bob); err != nil {
		t.Fatal(err)
	}
	if err := d.PutKey("id-alice", bob); !errors.Is(err, ErrExists) {
		t.Fatalf("expect ErrExists, got %v\n", err)
	}

	r, err := d.GetKey("id-bob")
	if err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckBytes("bob pub", bob.Pub, r.Pub); err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckBool("bob sealed", true, r.Sealed); err != nil {
		t.Fatal(err)
	}

	if _, err := d.GetKey("id-carol"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expect ErrNotFound, got %v\n", err)
	}

	ids, recs, err := d.ListKeys()
	if err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckInt("key size", 2, len(ids)); err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckString("first id", "id-alice", ids[0]); err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckString("first alias", "alice", recs[0].Alias); err != nil {
		t.Fatal(err)
	}
}

func TestForeignKeys(t *testing.T) {
	d := setup(t)

	fk := storage.NewForeignKeyV1("relay", []byte{1, 2, 3}, "Key from relay", false)
	if err := d.PutForeignKey(fk); err != nil {
		t.Fatal(err)
	}
	if err := d.PutForeignKey(fk); !errors.Is(err, ErrExists) {
		t.Fatalf("expect ErrExists, got %v\n", err)
	}

	r, err := d.GetForeignKey("relay")
	if err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckString("description", fk.Description, r.Description); err != nil {
		t.Fatal(err)
	}

	all, err := d.ListForeignKeys()
	if err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckInt("foreign size", 1, len(all)); err != nil {
		t.Fatal(err)
	}
}

func TestChainBlocks(t *testing.T) {
	d := setup(t)
	chainA := []byte("chain-a")
	chainB := []byte("chain-b")

	var blocks []*cp.Block
	for i := uint64(0); i < 3; i++ {
		b := cp.NewBlock(i, utils.ZeroHash, cp.LightDifficulty(0), cp.RandBytes())
		blocks = append(blocks, b)
		if err := d.PutChainBlock(chainA, storage.NewChainBlock(b)); err != nil {
			t.Fatalf("put block %d failed:%v\n", i, err)
		}
	}

	var invalid ErrInvalidHeight
	err := d.PutChainBlock(chainA, storage.NewChainBlock(blocks[0]))
	if !errors.As(err, &invalid) {
		t.Fatalf("expect ErrInvalidHeight, got %v\n", err)
	}

	height, err := d.GetChainHeight(chainA)
	if err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckUint64("height a", 3, height); err != nil {
		t.Fatal(err)
	}
	height, _ = d.GetChainHeight(chainB)
	if err := utils.TCheckUint64("height b", 0, height); err != nil {
		t.Fatal(err)
	}

	second, err := d.GetChainBlock(chainA, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckBytes("second payload", blocks[1].Payload, second.Payload); err != nil {
		t.Fatal(err)
	}
	if _, err := d.GetChainBlock(chainB, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expect ErrNotFound, got %v\n", err)
	}

	all, err := d.GetChainBlocks(chainA)
	if err != nil {
		t.Fatal(err)
	}
	for i, b := range all {
		if err := utils.TCheckUint64(fmt.Sprintf("[%d] index", i), uint64(i), b.Index); err != nil {
			t.Fatal(err)
		}
	}
}

func TestReopen(t *testing.T) {
	dir := t.TempDir()
	d, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	fk := storage.NewForeignKeyV1("relay", []byte{1}, "", false)
	if err := d.PutForeignKey(fk); err != nil {
		t.Fatal(err)
	}
	d.Close()

	d, err = Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	if _, err := d.GetForeignKey("relay"); err != nil {
		t.Fatalf("expect persisted foreign key, got %v\n", err)
	}
}
