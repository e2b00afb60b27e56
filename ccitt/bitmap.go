package ccitt

// changingElements is a row represented as the column positions where
// the pixel colour changes, starting from an implicit white pixel at
// column -1 (spec §3, "reference line" / "changing element"). This is
// the representation pdfcpu's and seehuhn's G4 readers both decode into
// before packing to bytes, and the one the A0/A1/B1/B2 search in spec
// §4.B.3 is defined over.
type changingElements []int

// colourIsBlackAfter reports whether the pixel immediately to the right
// of changing element index i is black. Each row starts white, so
// element 0 is the change to black and even indices start black runs.
func colourIsBlackAfter(elementIndex int) bool {
	return elementIndex%2 == 0
}

// packRow converts a changing-element row into packed bits, columns
// wide, using 0 for black unless blackIs1 selects 1 for black.
func packRow(changes changingElements, columns int, blackIs1 bool) []byte {
	stride := (columns + 7) / 8
	row := make([]byte, stride)
	if !blackIs1 {
		for i := range row {
			row[i] = 0xFF // white is a set bit when blackIs1 is false
		}
	}
	pos := 0
	black := false
	for _, c := range changes {
		if c > columns {
			c = columns
		}
		if black {
			setRange(row, pos, c, blackIs1)
		}
		pos = c
		black = !black
		if pos >= columns {
			break
		}
	}
	if black && pos < columns {
		setRange(row, pos, columns, blackIs1)
	}
	return row
}

// setRange sets bits [from,to) to the "black" bit value for the given
// BlackIs1 convention: a set bit means black when blackIs1, a clear bit
// means black otherwise.
func setRange(row []byte, from, to int, blackIs1 bool) {
	for i := from; i < to; i++ {
		byteIdx := i / 8
		bitIdx := uint(7 - i%8)
		if blackIs1 {
			row[byteIdx] |= 1 << bitIdx
		} else {
			row[byteIdx] &^= 1 << bitIdx
		}
	}
}

// unpackRow is the inverse of packRow: it recovers the changing-element
// list of a packed row, used by the encoder.
func unpackRow(row []byte, columns int, blackIs1 bool) changingElements {
	var changes changingElements
	prevBlack := false
	for i := 0; i < columns; i++ {
		byteIdx := i / 8
		bitIdx := uint(7 - i%8)
		bit := row[byteIdx]>>bitIdx&1 != 0
		black := bit == blackIs1
		if black != prevBlack {
			changes = append(changes, i)
			prevBlack = black
		}
	}
	return changes
}

// newWhiteRow returns the implicit all-white reference line used above
// the first row of a page (spec §4.B.3, "imaginary white line").
func newWhiteRow() changingElements {
	return nil
}
