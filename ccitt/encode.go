package ccitt

import "github.com/corvidfax/pdfcore/bitio"

// Compress encodes a packed bitmap (one row per entry, columns wide,
// same BlackIs1 convention as Decompress) into a CCITT bitstream per
// spec §4.B, §6 ("compress" operation). Group3TwoDim emits a 1-D row
// first and then 2-D rows against it, matching a K>0 encoder with no
// forced 1-D interval; Group4 emits no per-row EOL codes (its EOFB
// terminator, written when EndOfBlock is set, is two EOL codes).
func Compress(rows [][]byte, opts Options) []byte {
	bw := bitio.NewWriter()
	ref := newWhiteRow()

	for i, row := range rows {
		if opts.EncodedByteAlign {
			bw.AlignToByte()
		}
		changes := unpackRow(row, opts.Columns, opts.BlackIs1)

		switch opts.Group {
		case Group3OneDim:
			if opts.EndOfLine {
				bw.WriteBits(eolCode, eolBits)
			}
			encodeRow1D(bw, changes, opts.Columns)

		case Group3TwoDim:
			if opts.EndOfLine {
				bw.WriteBits(eolCode, eolBits)
				if i == 0 {
					bw.WriteBit(1) // tag bit: 1-D
				} else {
					bw.WriteBit(0) // tag bit: 2-D
				}
			}
			if i == 0 {
				encodeRow1D(bw, changes, opts.Columns)
			} else {
				encodeRow2D(bw, ref, changes, opts.Columns)
			}

		default: // Group4
			encodeRow2D(bw, ref, changes, opts.Columns)
		}

		ref = changes
	}

	if opts.EndOfBlock {
		switch opts.Group {
		case Group4:
			bw.WriteBits(eolCode, eolBits)
			bw.WriteBits(eolCode, eolBits)
		default:
			for i := 0; i < 6; i++ {
				bw.WriteBits(eolCode, eolBits)
			}
		}
	}

	return bw.Finish()
}

func encodeRow1D(bw *bitio.Writer, changes changingElements, columns int) {
	pos := 0
	white := true
	for _, c := range changes {
		emitRun(bw, c-pos, white)
		pos = c
		white = !white
	}
	if pos < columns {
		emitRun(bw, columns-pos, white)
	}
}

func emitRun(bw *bitio.Writer, run int, white bool) {
	makeup := whiteMakeup
	term := whiteTerm[:]
	if !white {
		makeup = blackMakeup
		term = blackTerm[:]
	}
	for run >= 2560 {
		rc := findRun(extMakeup, 2560)
		bw.WriteBits(uint32(rc.code), int(rc.bits))
		run -= 2560
	}
	for run >= 1792 {
		rc := findRun(extMakeup, run-run%64)
		bw.WriteBits(uint32(rc.code), int(rc.bits))
		run -= run - run%64
	}
	for run >= 64 {
		step := (run / 64) * 64
		if step > 1728 {
			step = 1728
		}
		rc := findRun(makeup, step)
		bw.WriteBits(uint32(rc.code), int(rc.bits))
		run -= step
	}
	rc := term[run]
	bw.WriteBits(uint32(rc.code), int(rc.bits))
}

func findRun(table []runCode, run int) runCode {
	for _, rc := range table {
		if rc.run == run {
			return rc
		}
	}
	// Fall back to the largest entry not exceeding run; callers only
	// pass values constructed to land exactly on a table entry.
	best := table[0]
	for _, rc := range table {
		if rc.run <= run && rc.run > best.run {
			best = rc
		}
	}
	return best
}

// encodeRow2D encodes changes against ref using the A0/A1/B1/B2
// procedure, choosing Pass/Vertical/Horizontal the way a real MMR
// encoder would: Vertical whenever |a1-b1|<=3, Pass when a1 is beyond
// b2, Horizontal otherwise.
func encodeRow2D(bw *bitio.Writer, ref, changes changingElements, columns int) {
	a0 := -1
	white := true
	next := 0

	nextChange := func() (int, bool) {
		if next >= len(changes) {
			return columns, false
		}
		v := changes[next]
		next++
		return v, true
	}

	for a0 < columns {
		b1, b2 := findB1B2(ref, a0, white, columns)
		a1, haveA1 := nextChange()
		if !haveA1 {
			a1 = columns
		}

		switch {
		case abs(a1-b1) <= 3:
			writeMode(bw, verticalMode(a1-b1))
			a0 = a1
			white = !white

		case a1 > b2:
			writeMode(bw, modePass)
			a0 = b2
			// Pass does not consume a changing element or flip colour;
			// undo the nextChange() advance since a1 still applies next.
			next--

		default:
			a2, ok := nextChange()
			if !ok {
				a2 = columns
			}
			writeMode(bw, modeHorizontal)
			base := a0
			if base < 0 {
				base = 0
			}
			emitRun(bw, a1-base, white)
			emitRun(bw, a2-a1, !white)
			a0 = a2
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func verticalMode(delta int) mode {
	switch delta {
	case 0:
		return modeV0
	case 1:
		return modeVR1
	case 2:
		return modeVR2
	case 3:
		return modeVR3
	case -1:
		return modeVL1
	case -2:
		return modeVL2
	case -3:
		return modeVL3
	}
	return modeV0
}

func writeMode(bw *bitio.Writer, m mode) {
	for _, mc := range twoDimModes {
		if mc.mode == m {
			bw.WriteBits(uint32(mc.code), int(mc.bits))
			return
		}
	}
}
