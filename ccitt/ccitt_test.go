package ccitt

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/corvidfax/pdfcore/bitio"
)

func TestDecodeRunTerminatingCodeTen(t *testing.T) {
	// White run-length code 10 is "00111" (5 bits, spec §8 scenario 3).
	br := bitio.NewReader([]byte{0b00111_000})
	run, err := decodeRun(br, true)
	if err != nil {
		t.Fatalf("decodeRun: %v", err)
	}
	if run != 10 {
		t.Fatalf("run = %d, want 10", run)
	}
	if br.Pos() != 5 {
		t.Fatalf("consumed %d bits, want 5", br.Pos())
	}
}

func TestEOLCodeLiteral(t *testing.T) {
	// The EOL marker is twelve bits: 000000000001.
	br := bitio.NewReader([]byte{0x00, 0x10})
	if got := br.PeekBits(eolBits); got != eolCode {
		t.Fatalf("EOL peek = %#b, want %#b", got, eolCode)
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	columns := 16
	changes := changingElements{3, 7, 12}
	row := packRow(changes, columns, false)
	got := unpackRow(row, columns, false)
	if diff := cmp.Diff(changes, got); diff != "" {
		t.Fatalf("unpackRow mismatch (-want +got):\n%s", diff)
	}
}

func TestAllWhiteRowRoundTrip(t *testing.T) {
	columns := 64
	// An entirely white row is a single run-length code for 64 sent as
	// white makeup 64 followed by the terminating 0 code.
	bw := bitio.NewWriter()
	encodeRow1D(bw, changingElements{}, columns)
	data := bw.Finish()

	br := bitio.NewReader(data)
	changes, err := decodeRow1D(br, columns)
	if err != nil {
		t.Fatalf("decodeRow1D: %v", err)
	}
	if len(changes) != 0 {
		t.Fatalf("all-white row produced changes %v, want none", changes)
	}
}

func TestOneDimRoundTrip(t *testing.T) {
	columns := 32
	changes := changingElements{5, 20, 25}

	bw := bitio.NewWriter()
	encodeRow1D(bw, changes, columns)
	data := bw.Finish()

	br := bitio.NewReader(data)
	got, err := decodeRow1D(br, columns)
	if err != nil {
		t.Fatalf("decodeRow1D: %v", err)
	}
	if diff := cmp.Diff(changes, got); diff != "" {
		t.Fatalf("decodeRow1D mismatch (-want +got):\n%s", diff)
	}
}

func TestTwoDimRoundTripAgainstWhiteReference(t *testing.T) {
	columns := 32
	ref := newWhiteRow()
	changes := changingElements{10, 15, 22}

	bw := bitio.NewWriter()
	encodeRow2D(bw, ref, changes, columns)
	data := bw.Finish()

	br := bitio.NewReader(data)
	got, err := decodeRow2D(br, ref, columns)
	if err != nil {
		t.Fatalf("decodeRow2D: %v", err)
	}
	if diff := cmp.Diff(changes, got); diff != "" {
		t.Fatalf("decodeRow2D mismatch (-want +got):\n%s", diff)
	}
}

func TestDecompressGroup4RoundTrip(t *testing.T) {
	opts := Options{Group: Group4, Columns: 16, Rows: 2}
	rows := [][]byte{
		packRow(changingElements{4, 9}, 16, false),
		packRow(changingElements{4, 9}, 16, false),
	}
	data := Compress(rows, opts)

	res := Decompress(data, opts, nil)
	if res.Err != nil {
		t.Fatalf("Decompress: %v", res.Err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(res.Rows))
	}
	for i, row := range res.Rows {
		for b := range row {
			if row[b] != rows[i][b] {
				t.Fatalf("row %d byte %d = %#08b, want %#08b", i, b, row[b], rows[i][b])
			}
		}
	}
}

func TestDecompressRejectsZeroColumns(t *testing.T) {
	res := Decompress(nil, Options{}, nil)
	if res.Err == nil {
		t.Fatal("expected BadDimensions error for zero columns")
	}
}
