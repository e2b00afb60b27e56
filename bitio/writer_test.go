package bitio

import "testing"

func TestWriterBitOrder(t *testing.T) {
	w := NewWriter()
	for _, b := range []uint32{1, 0, 1, 1, 0, 0, 0, 1} {
		w.WriteBit(b)
	}
	got := w.Finish()
	want := []byte{0xB1}
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("Finish() = %#v, want %#v", got, want)
	}
}

func TestWriterRoundTripsReader(t *testing.T) {
	data := []byte{0x8f, 0xe3, 0x5a}
	w := NewWriter()
	for _, b := range data {
		w.WriteBits(uint32(b), 8)
	}
	out := w.Finish()
	r := NewReader(out)
	for i, want := range data {
		got := r.ReadBits(8)
		if got != uint32(want) {
			t.Fatalf("byte %d: got %#x, want %#x", i, got, want)
		}
	}
}

func TestWriterAlignPadsWithZero(t *testing.T) {
	w := NewWriter()
	w.WriteBits(0b101, 3)
	w.AlignToByte()
	got := w.Finish()
	want := byte(0b10100000)
	if len(got) != 1 || got[0] != want {
		t.Fatalf("Finish() = %#08b, want %#08b", got[0], want)
	}
}

func TestWriterBitLength(t *testing.T) {
	w := NewWriter()
	w.WriteBits(0, 5)
	if got := w.BitLength(); got != 5 {
		t.Fatalf("BitLength() = %d, want 5", got)
	}
	w.WriteBits(0, 11)
	if got := w.BitLength(); got != 16 {
		t.Fatalf("BitLength() = %d, want 16", got)
	}
}
