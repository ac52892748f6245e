package simd

import "testing"

func TestMaskConstructors(t *testing.T) {
	if m := MaskAll(true); m != BoolTrue {
		t.Fatalf("expected %08b; got %08b", BoolTrue, m)
	}
	if m := MaskAll(false); m != BoolFalse {
		t.Fatalf("expected %08b; got %08b", BoolFalse, m)
	}

	for lane := 0; lane < 8; lane++ {
		m := MaskLane(lane)
		for i := 0; i < 8; i++ {
			if got, want := m.Lane(i), i == lane; got != want {
				t.Fatalf("lane %d of MaskLane(%d): expected %t; got %t", i, lane, want, got)
			}
		}
	}
}

func TestMaskPredicates(t *testing.T) {
	testCases := []struct {
		mask           Bool8
		any, all, none bool
		popcount       int
	}{
		{BoolFalse, false, false, true, 0},
		{BoolTrue, true, true, false, 8},
		{MaskFromBits(0x01), true, false, false, 1},
		{MaskFromBits(0xf0), true, false, false, 4},
		{MaskFromBits(0xfe), true, false, false, 7},
	}

	for idx, tc := range testCases {
		if got := tc.mask.Any(); got != tc.any {
			t.Fatalf("[case %d] Any: expected %t; got %t", idx, tc.any, got)
		}
		if got := tc.mask.All(); got != tc.all {
			t.Fatalf("[case %d] All: expected %t; got %t", idx, tc.all, got)
		}
		if got := tc.mask.None(); got != tc.none {
			t.Fatalf("[case %d] None: expected %t; got %t", idx, tc.none, got)
		}
		if got := tc.mask.Popcount(); got != tc.popcount {
			t.Fatalf("[case %d] Popcount: expected %d; got %d", idx, tc.popcount, got)
		}
	}
}

func TestMaskLogic(t *testing.T) {
	a := MaskFromBits(0b00111100)
	b := MaskFromBits(0b01100110)

	if got := a.And(b); got != MaskFromBits(0b00100100) {
		t.Fatalf("And: expected %08b; got %08b", 0b00100100, got)
	}
	if got := a.Or(b); got != MaskFromBits(0b01111110) {
		t.Fatalf("Or: expected %08b; got %08b", 0b01111110, got)
	}
	if got := a.Xor(b); got != MaskFromBits(0b01011010) {
		t.Fatalf("Xor: expected %08b; got %08b", 0b01011010, got)
	}
	if got := a.AndNot(b); got != MaskFromBits(0b00011000) {
		t.Fatalf("AndNot: expected %08b; got %08b", 0b00011000, got)
	}
	if got := a.Not(); got != MaskFromBits(0b11000011) {
		t.Fatalf("Not: expected %08b; got %08b", 0b11000011, got)
	}
}

func TestMaskSelect(t *testing.T) {
	m := MaskFromBits(0b10101010)
	tMask := MaskFromBits(0b11110000)
	fMask := MaskFromBits(0b00001111)

	if got := SelectBool8(m, tMask, fMask); got != MaskFromBits(0b10100101) {
		t.Fatalf("expected %08b; got %08b", 0b10100101, got)
	}
}

func TestMovemask(t *testing.T) {
	m := MaskLane(0).Or(MaskLane(3)).Or(MaskLane(7))
	if got := m.Movemask(); got != 0b10001001 {
		t.Fatalf("expected %08b; got %08b", 0b10001001, got)
	}
}
