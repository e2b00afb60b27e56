package bitio

import "testing"

func TestReaderReadBits(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		n    []int
		want []uint32
	}{
		{
			name: "single byte split reads",
			data: []byte{0xB1}, // 1011 0001
			n:    []int{1, 1, 1, 1, 1, 1, 1, 1},
			want: []uint32{1, 0, 1, 1, 0, 0, 0, 1},
		},
		{
			name: "reads spanning a byte boundary",
			data: []byte{0x8f, 0xe3},
			n:    []int{4, 2, 4, 6},
			want: []uint32{0x8, 0x3, 0xf, 0x23},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(tt.data)
			for i, n := range tt.n {
				got := r.ReadBits(n)
				if got != tt.want[i] {
					t.Fatalf("ReadBits(%d) #%d = %#x, want %#x", n, i, got, tt.want[i])
				}
			}
		})
	}
}

func TestReaderOverrun(t *testing.T) {
	r := NewReader([]byte{0xFF})
	r.SkipBits(8)
	if !r.IsAtEnd() {
		t.Fatal("expected IsAtEnd after consuming all bits")
	}
	if got := r.ReadBits(8); got != 0 {
		t.Fatalf("over-read should return 0, got %#x", got)
	}
	if rem := r.BitsRemaining(); rem != 0 {
		t.Fatalf("BitsRemaining after overrun = %d, want 0", rem)
	}
}

func TestReaderAlignToByte(t *testing.T) {
	r := NewReader([]byte{0xFF, 0x00})
	r.ReadBits(3)
	r.AlignToByte()
	if r.Pos() != 8 {
		t.Fatalf("Pos after align = %d, want 8", r.Pos())
	}
	r.AlignToByte()
	if r.Pos() != 8 {
		t.Fatalf("Pos after second align = %d, want 8 (no-op)", r.Pos())
	}
	if got := r.ReadBits(8); got != 0x00 {
		t.Fatalf("ReadBits(8) after align = %#x, want 0x00", got)
	}
}

func TestReaderPeekDoesNotAdvance(t *testing.T) {
	r := NewReader([]byte{0xB1})
	peeked := r.PeekBits(4)
	if peeked != 0xB {
		t.Fatalf("PeekBits(4) = %#x, want 0xB", peeked)
	}
	if r.Pos() != 0 {
		t.Fatalf("PeekBits must not advance cursor, pos = %d", r.Pos())
	}
	read := r.ReadBits(4)
	if read != peeked {
		t.Fatalf("ReadBits after Peek = %#x, want %#x", read, peeked)
	}
}
