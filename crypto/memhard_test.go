package crypto

import (
	"fmt"
	"testing"

	"github.com/996BC/996.Mesh/params"
	"github.com/996BC/996.Mesh/utils"
)

func TestLeadingZeroBits(t *testing.T) {
	var cases = []struct {
		digest []byte
		expect int
	}{
		{[]byte{}, 0},
		{[]byte{0x80}, 0},
		{[]byte{0x01}, 7},
		{[]byte{0x00, 0x00}, 16},
		{[]byte{0x00, 0x10, 0xFF}, 11},
		{[]byte{0x00, 0x00, 0x00, 0x01}, 31},
		{[]byte{0x7F, 0x00}, 1},
	}

	for i, c := range cases {
		if err := utils.TCheckInt(fmt.Sprintf("[%d] leading zero bits", i),
			c.expect, LeadingZeroBits(c.digest)); err != nil {
			t.Fatal(err)
		}
	}
}

func TestMemHardHash(t *testing.T) {
	msg := []byte("It is decidedly so")

	a, err := MemHardHash(msg, 1, 8, 1, 32)
	if err != nil {
		t.Fatal(err)
	}
	b, err := MemHardHash(msg, 1, 8, 1, 32)
	if err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckBytes("deterministic digest", a, b); err != nil {
		t.Fatal(err)
	}
	if err := utils.TCheckInt("digest length", 32, len(a)); err != nil {
		t.Fatal(err)
	}

	c, _ := MemHardHash(msg, 2, 8, 1, 32)
	if string(a) == string(c) {
		t.Fatal("expect t_cost changes the digest")
	}

	short, _ := MemHardHash(msg, 1, 8, 1, 4)
	if err := utils.TCheckInt("short digest length", 4, len(short)); err != nil {
		t.Fatal(err)
	}
}

func TestMemHardHashInvalidParams(t *testing.T) {
	var cases = []struct {
		t, m, p, out uint32
	}{
		{0, 8, 1, 32},
		{1, 8, 0, 32},
		{1, 8 * 256, 256, 32},
		{1, 8, 1, 0},
		{1, 0xFFFFFFFF, 1, 32},
		{1, params.MaxMCost + 1, 1, 32},
		{params.MaxTCost + 1, 8, 1, 32},
	}

	for i, c := range cases {
		if err := CheckMemHardParams(c.t, c.m, c.p, c.out); err == nil {
			t.Fatalf("[%d] expect parameter check failure\n", i)
		}
		if _, err := MemHardHash([]byte("x"), c.t, c.m, c.p, c.out); err == nil {
			t.Fatalf("[%d] expect invalid parameter error\n", i)
		} else {
			t.Logf("expect err:%v\n", err)
		}
	}
}
