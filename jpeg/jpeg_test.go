package jpeg

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/corvidfax/pdfcore/errs"
)

// TestZigZagTable checks spec §8 scenario 4's three sample points plus
// the documented endpoints of the natural-order -> zig-zag permutation.
func TestZigZagTable(t *testing.T) {
	cases := []struct {
		natural int
		want    int
	}{
		{1, 1},
		{8, 2},
		{63, 63},
		{0, 0},
	}
	for _, c := range cases {
		r, col := c.natural/8, c.natural%8
		got := zigZagRowCol[r][col]
		if got != c.want {
			t.Fatalf("natural index %d -> zig-zag %d, want %d", c.natural, got, c.want)
		}
	}
}

// TestZigZagTablePermutation checks that zigZagRowCol, read in natural
// row-major order, is a permutation of 0..63 (every zig-zag index used
// exactly once), the property the IDCT/dequantization stage depends on.
func TestZigZagTablePermutation(t *testing.T) {
	seen := make([]bool, 64)
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			z := zigZagRowCol[r][c]
			if z < 0 || z > 63 {
				t.Fatalf("zigZagRowCol[%d][%d] = %d out of range", r, c, z)
			}
			if seen[z] {
				t.Fatalf("zig-zag index %d used more than once", z)
			}
			seen[z] = true
		}
	}
	for z, ok := range seen {
		if !ok {
			t.Fatalf("zig-zag index %d never produced", z)
		}
	}
}

// TestDecodeTruncatedInputNeverPanics exercises spec §8's "JPEG decode
// of an input without SOS markers returns UnsupportedFeature, never
// panics" by checking the shortest possible inputs against the decoder
// boundary, which must fail cleanly rather than index out of range.
func TestDecodeTruncatedInputNeverPanics(t *testing.T) {
	cases := [][]byte{
		nil,
		{},
		{0xff},
		{0xff, 0xd8},
		{0xff, 0xd8, 0xff},
	}
	for _, data := range cases {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Decode(%x) panicked: %v", data, r)
				}
			}()
			_, _, _, _, err := Decode(data)
			if err == nil {
				t.Fatalf("Decode(%x) = nil error, want an error for truncated input", data)
			}
		}()
	}
}

// TestDecodeWrongSignatureIsMalformed checks the explicit signature
// check at the top of Parse, surfaced through the typed error taxonomy.
func TestDecodeWrongSignatureIsMalformed(t *testing.T) {
	_, _, _, _, err := Decode([]byte{0x00, 0x01, 0x02, 0x03})
	var e *errs.Error
	if !errors.As(err, &e) {
		t.Fatalf("expected a typed *errs.Error, got %v", err)
	}
	if e.Kind != errs.Malformed {
		t.Fatalf("Kind = %v, want Malformed", e.Kind)
	}
}

func TestOrientedDimsIdentityAndSwap(t *testing.T) {
	if nc, nr, swapped := orientedDims(10, 20, nil); nc != 10 || nr != 20 || swapped {
		t.Fatalf("nil orientation should be identity, got (%d,%d,%v)", nc, nr, swapped)
	}
	o := &Orientation{Row0: Right, Col0: Top}
	nc, nr, swapped := orientedDims(10, 20, o)
	if !swapped || nc != 20 || nr != 10 {
		t.Fatalf("Row0=Right,Col0=Top should swap dims, got (%d,%d,%v)", nc, nr, swapped)
	}
}

func TestPixelMapperIdentity(t *testing.T) {
	m := pixelMapper(nil, 20, 10)
	r, c := m(3, 4)
	if diff := cmp.Diff([2]uint{3, 4}, [2]uint{r, c}); diff != "" {
		t.Fatalf("identity mapper mismatch (-want +got):\n%s", diff)
	}
}
