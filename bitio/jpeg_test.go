package bitio

import "testing"

func TestJPEGReaderDestuffsFF00(t *testing.T) {
	// FF 00 inside the entropy section is a single stuffed 0xFF data byte.
	r := NewJPEGReader([]byte{0xFF, 0x00, 0x12})
	if got := r.ReadBits(8); got != 0xFF {
		t.Fatalf("first byte = %#x, want 0xFF (destuffed)", got)
	}
	if got := r.ReadBits(8); got != 0x12 {
		t.Fatalf("second byte = %#x, want 0x12", got)
	}
}

func TestJPEGReaderStopsAtMarker(t *testing.T) {
	// FF D9 (EOI) terminates the entropy section.
	r := NewJPEGReader([]byte{0x12, 0xFF, 0xD9})
	if got := r.ReadBits(8); got != 0x12 {
		t.Fatalf("data byte = %#x, want 0x12", got)
	}
	if !r.AtEnd() {
		t.Fatal("expected AtEnd once the FF D9 marker is reached")
	}
	m, ok := r.MarkerFound()
	if !ok || m != 0xD9 {
		t.Fatalf("MarkerFound() = %#x, %v, want 0xD9, true", m, ok)
	}
}

func TestJPEGReaderRestartMarker(t *testing.T) {
	r := NewJPEGReader([]byte{0xAB, 0xFF, 0xD0, 0xCD})
	if got := r.ReadBits(8); got != 0xAB {
		t.Fatalf("first data byte = %#x, want 0xAB", got)
	}
	if !r.AtRestartMarker() {
		t.Fatal("expected AtRestartMarker before RST0")
	}
	r.SkipRestartMarker()
	if got := r.ReadBits(8); got != 0xCD {
		t.Fatalf("byte after restart marker = %#x, want 0xCD", got)
	}
}

func TestJPEGReaderOverreadPastMarkerIsZero(t *testing.T) {
	r := NewJPEGReader([]byte{0xFF, 0xD9})
	if got := r.ReadBits(16); got != 0 {
		t.Fatalf("read at marker = %#x, want 0", got)
	}
}
