package storage

import (
	"bytes"
	"testing"

	"github.com/996BC/996.Mesh/serialize/cp"
	"github.com/996BC/996.Mesh/utils"
)

func TestKeyRecord(t *testing.T) {
	for _, sealed := range []bool{false, true} {
		rec := NewKeyRecordV1(2, "relay-1", utils.Hash([]byte("pub")), make([]byte, 70000), sealed)

		r, err := UnmarshalKeyRecord(bytes.NewReader(rec.Marshal()))
		if err != nil {
			t.Fatalf("unmarshal key record failed:%v\n", err)
		}

		if err := utils.TCheckUint8("algo", rec.Algo, r.Algo); err != nil {
			t.Fatal(err)
		}
		if err := utils.TCheckBool("sealed", sealed, r.Sealed); err != nil {
			t.Fatal(err)
		}
		if err := utils.TCheckInt64("created", rec.Created, r.Created); err != nil {
			t.Fatal(err)
		}
		if err := utils.TCheckString("alias", rec.Alias, r.Alias); err != nil {
			t.Fatal(err)
		}
		if err := utils.TCheckBytes("pub", rec.Pub, r.Pub); err != nil {
			t.Fatal(err)
		}
		if err := utils.TCheckBytes("key", rec.Key, r.Key); err != nil {
			t.Fatal(err)
		}
	}
}

func TestForeignKey(t *testing.T) {
	fk := NewForeignKeyV1("bob", utils.Hash([]byte("bob")), "Key from relay", true)

	r, err := UnmarshalForeignKey(bytes.NewReader(fk.Marshal()))
	if err != nil {
		t.Fatalf("unmarshal foreign key failed:%v\n", err)
	}

	if err := utils.TCheckString("alias", fk.Alias, r.Alias); err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckBytes("pub", fk.Pub, r.Pub); err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckString("description", fk.Description, r.Description); err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckBool("can encrypt", true, r.CanEncrypt); err != nil {
		t.Fatal(err)
	}
}

func TestChainBlock(t *testing.T) {
	bp := cp.NewBlockParams(4)
	cb := NewChainBlock(cp.GenBlockFromParams(bp))

	data, err := cb.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	r, err := UnmarshalChainBlock(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("unmarshal chain block failed:%v\n", err)
	}
	if err := cp.CheckBlock(r.Block, bp); err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckInt64("received", cb.Received, r.Received); err != nil {
		t.Fatal(err)
	}
}

func TestTruncatedRecords(t *testing.T) {
	data := NewForeignKeyV1("bob", []byte{1, 2}, "d", false).Marshal()
	for i := 0; i < len(data); i++ {
		if _, err := UnmarshalForeignKey(bytes.NewReader(data[:i])); err == nil {
			t.Fatalf("[%d] expect truncated foreign key rejected\n", i)
		}
	}
}
