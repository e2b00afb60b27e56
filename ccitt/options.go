package ccitt

// Group selects the facsimile coding scheme, per spec §4.B "Group"
// parameter.
type Group int

const (
	// Group3OneDim is pure one-dimensional (MH) coding: every row is an
	// independent run-length sequence.
	Group3OneDim Group = iota
	// Group3TwoDim is mixed 1-D/2-D coding (MR): a tag bit after each
	// EOL selects 1-D or 2-D coding for the following row.
	Group3TwoDim
	// Group4 is pure two-dimensional coding (MMR): every row is 2-D
	// coded against the previous row, with no EOL markers.
	Group4
)

// Options configures a Decompress or Compress call, mirroring the
// parameters a PDF CCITTFaxDecode filter dictionary exposes (spec §4.B,
// "Options").
type Options struct {
	Group Group

	// Columns is the pixel width of each row. Required, must be > 0.
	Columns int
	// Rows is the expected number of rows. Zero means decode until
	// end of data or an explicit EndOfBlock marker.
	Rows int

	// BlackIs1 inverts the usual convention: when false (the fax
	// default), a 0 bit in the packed output means black and 1 means
	// white; when true the packing is the literal sense.
	BlackIs1 bool

	// EncodedByteAlign requires each row to start on a byte boundary
	// in the input stream.
	EncodedByteAlign bool

	// EndOfLine expects/emits the 12-bit EOL code before each row
	// (Group3 only).
	EndOfLine bool

	// EndOfBlock expects/emits the EOFB / RTC sequence terminating the
	// data, and stops decoding there rather than at Rows.
	EndOfBlock bool
}

func (o Options) stride() int {
	return (o.Columns + 7) / 8
}
