package status

import (
	"bytes"
	"errors"
	"testing"

	"github.com/996BC/996.Mesh/utils"
)

func TestStatus(t *testing.T) {
	s := NewStatusV1(StateConnected, utils.Hash([]byte("pub")))
	s.Sig = utils.Hash([]byte("sig"))

	r, err := UnmarshalStatus(bytes.NewReader(s.Marshal()))
	if err != nil {
		t.Fatalf("unmarshal status failed:%v\n", err)
	}

	if err := utils.TCheckUint8("state", StateConnected, r.State); err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckInt64("time", s.Time, r.Time); err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckBytes("pub", s.Pub, r.Pub); err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckBytes("sig", s.Sig, r.Sig); err != nil {
		t.Fatal(err)
	}
	if !r.IsConnected() {
		t.Fatal("expect connected")
	}
}

func TestStatusSignContent(t *testing.T) {
	s := NewStatusV1(StateClosed, []byte{1, 2, 3})
	before := s.SignContent()

	s.Sig = []byte{9, 9, 9}
	if err := utils.TCheckBytes("content ignores sig", before, s.SignContent()); err != nil {
		t.Fatal(err)
	}

	s.State = StateConnected
	if bytes.Equal(before, s.SignContent()) {
		t.Fatal("expect state covered by signature")
	}
}

func TestStatusMalformed(t *testing.T) {
	data := NewStatusV1(StateConnected, []byte{1, 2, 3}).Marshal()
	for i := 0; i < len(data); i++ {
		if _, err := UnmarshalStatus(bytes.NewReader(data[:i])); !errors.Is(err, ErrInvalidStatus) {
			t.Fatalf("[%d] expect truncated status rejected, got %v\n", i, err)
		}
	}

	data[0] = 2
	if _, err := UnmarshalStatus(bytes.NewReader(data)); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expect unknown version rejected, got %v\n", err)
	}
}
