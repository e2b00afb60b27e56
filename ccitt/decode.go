package ccitt

import (
	"github.com/corvidfax/pdfcore/bitio"
	"github.com/corvidfax/pdfcore/errs"
)

// Logger mirrors the rest of the module's ambient logging convention: a
// caller-supplied sink, defaulting to a no-op, never a package-level
// logging dependency.
type Logger func(format string, args ...any)

func noopLogger(string, ...any) {}

// Result is what Decompress returns: the packed bitmap plus how it
// actually terminated, since row-local errors (spec §7, BadHuffmanCode)
// let decoding continue at the next row rather than aborting outright.
type Result struct {
	Rows   [][]byte // one packed row per decoded scan line, MSB-first
	Stride int
	// Err is set when decoding stopped before producing every row
	// Options.Rows asked for; Rows still holds everything decoded up to
	// that point, per the TruncatedInput/BadDimensions resumption rule.
	Err error
}

// Decompress decodes a CCITT Group 3/4 facsimile bitstream per spec
// §4.B. It never panics: malformed input is reported through Result.Err
// using the typed errs.Kind taxonomy, with everything decoded so far
// still returned.
func Decompress(data []byte, opts Options, log Logger) Result {
	if log == nil {
		log = noopLogger
	}
	if opts.Columns <= 0 {
		return Result{Err: errs.New(errs.BadDimensions, "ccitt", "columns must be > 0, got %d", opts.Columns)}
	}

	br := bitio.NewReader(data)
	ref := newWhiteRow()
	var rows [][]byte

	wantRows := opts.Rows
	unbounded := wantRows == 0

	for unbounded || len(rows) < wantRows {
		if opts.EncodedByteAlign {
			br.AlignToByte()
		}
		if br.IsAtEnd() {
			break
		}

		if looksLikeEOFB(br) {
			log("ccitt: EOFB reached after %d rows", len(rows))
			break
		}

		twoDim := opts.Group == Group4
		if opts.EndOfLine || opts.Group == Group3TwoDim {
			consumed, is2D, ok := consumeEOLAndTag(br, opts)
			if !ok && opts.EndOfLine {
				return Result{Rows: rows, Stride: opts.stride(), Err: errs.New(errs.TruncatedInput, "ccitt", "expected EOL before row %d", len(rows))}
			}
			if consumed {
				twoDim = is2D
			}
		}

		var (
			changes changingElements
			rowErr  error
		)
		if twoDim {
			changes, rowErr = decodeRow2D(br, ref, opts.Columns)
		} else {
			changes, rowErr = decodeRow1D(br, opts.Columns)
		}

		if rowErr != nil {
			var e *errs.Error
			if as, ok := rowErr.(*errs.Error); ok {
				e = as
			}
			if e == nil || e.Kind != errs.BadHuffmanCode || !skipToNextEOL(br) {
				return Result{Rows: rows, Stride: opts.stride(), Err: rowErr}
			}
			log("ccitt: row %d abandoned: %v", len(rows), rowErr)
			continue
		}

		packed := packRow(changes, opts.Columns, opts.BlackIs1)
		rows = append(rows, packed)
		ref = changes
	}

	var err error
	if !unbounded && len(rows) < wantRows {
		err = errs.New(errs.TruncatedInput, "ccitt", "decoded %d of %d rows", len(rows), wantRows)
	}
	return Result{Rows: rows, Stride: opts.stride(), Err: err}
}

// looksLikeEOFB peeks for two consecutive EOL codes (Group 4's EOFB, or
// the first half of Group 3's six-EOL RTC) without consuming them unless
// they are in fact present.
func looksLikeEOFB(br *bitio.Reader) bool {
	first := br.PeekBits(eolBits)
	if first != eolCode {
		return false
	}
	second := br.PeekBitsAt(br.Pos()+eolBits, eolBits)
	return second == eolCode
}

// consumeEOLAndTag consumes a leading EOL code (skipping any fill bits
// before it) and, for Group3TwoDim, the following 1-D/2-D tag bit.
// ok is false if EndOfLine was mandatory and no EOL was found.
func consumeEOLAndTag(br *bitio.Reader, opts Options) (consumed bool, is2D bool, ok bool) {
	start := br.Pos()
	for probe := 0; probe < 64; probe++ {
		if br.PeekBitsAt(start+uint64(probe), eolBits) == eolCode {
			br.SkipBits(probe + eolBits)
			consumed = true
			break
		}
	}
	if !consumed {
		return false, false, !opts.EndOfLine
	}
	if opts.Group == Group3TwoDim {
		is2D = br.ReadBit() == 0
	}
	return true, is2D, true
}

// skipToNextEOL advances the reader to just past the next EOL code, for
// row-local recovery after BadHuffmanCode (spec §7). Returns false if no
// further EOL is found before the input ends.
func skipToNextEOL(br *bitio.Reader) bool {
	for !br.IsAtEnd() {
		if br.PeekBits(eolBits) == eolCode {
			br.SkipBits(eolBits)
			return true
		}
		br.SkipBits(1)
	}
	return false
}

// decodeRow1D decodes one purely one-dimensional (MH) row: alternating
// white/black run-length codes until the accumulated run reaches
// columns.
func decodeRow1D(br *bitio.Reader, columns int) (changingElements, error) {
	var changes changingElements
	pos := 0
	white := true
	for pos < columns {
		run, err := decodeRun(br, white)
		if err != nil {
			return nil, err
		}
		pos += run
		if pos > columns {
			pos = columns
		}
		changes = append(changes, pos)
		white = !white
	}
	return dropRowEnd(changes, columns), nil
}

// dropRowEnd removes trailing elements that sit at the row end
// (column == columns): the edge of the row is not a colour change.
func dropRowEnd(changes changingElements, columns int) changingElements {
	for len(changes) > 0 && changes[len(changes)-1] >= columns {
		changes = changes[:len(changes)-1]
	}
	return changes
}

// decodeRun reads one full run length, following make-up codes (and
// extended make-up codes) until a terminating code (<64) ends the run,
// per spec §4.B.1.
func decodeRun(br *bitio.Reader, white bool) (int, error) {
	table := blackDecode
	if white {
		table = whiteDecode
	}
	total := 0
	for {
		run, bits, ok := matchCode(br, table)
		if !ok {
			return 0, errs.New(errs.BadHuffmanCode, "ccitt", "no run-length code matched")
		}
		br.SkipBits(bits)
		total += run
		if run < 64 {
			return total, nil
		}
	}
}

func matchCode(br *bitio.Reader, table decodeTable) (run int, bits int, ok bool) {
	max := table.maxBits()
	for n := uint8(1); n <= max; n++ {
		m, present := table[n]
		if !present {
			continue
		}
		code := uint16(br.PeekBits(int(n)))
		if run, found := m[code]; found {
			return run, int(n), true
		}
	}
	return 0, 0, false
}

func matchMode(br *bitio.Reader) (mode, int, bool) {
	max := twoDimDecode.maxBits()
	for n := uint8(1); n <= max; n++ {
		m, present := twoDimDecode[n]
		if !present {
			continue
		}
		code := uint16(br.PeekBits(int(n)))
		if mv, found := m[code]; found {
			return mode(mv), int(n), true
		}
	}
	return 0, 0, false
}

// decodeRow2D decodes one two-dimensional (MR/MMR) row against ref, the
// previous row's changing elements, per the A0/A1/B1/B2 procedure of
// spec §4.B.3.
func decodeRow2D(br *bitio.Reader, ref changingElements, columns int) (changingElements, error) {
	var changes changingElements
	a0 := -1
	white := true

	for a0 < columns {
		b1, b2 := findB1B2(ref, a0, white, columns)

		m, bits, ok := matchMode(br)
		if !ok {
			return nil, errs.New(errs.BadHuffmanCode, "ccitt", "no two-dimensional mode code matched")
		}
		br.SkipBits(bits)

		switch m {
		case modePass:
			a0 = b2

		case modeHorizontal:
			base := a0
			if base < 0 {
				base = 0
			}
			run1, err := decodeRun(br, white)
			if err != nil {
				return nil, err
			}
			run2, err := decodeRun(br, !white)
			if err != nil {
				return nil, err
			}
			a1 := clamp(base+run1, columns)
			a2 := clamp(a1+run2, columns)
			changes = append(changes, a1, a2)
			a0 = a2

		case modeV0, modeVR1, modeVR2, modeVR3, modeVL1, modeVL2, modeVL3:
			a1 := clamp(b1+verticalDelta(m), columns)
			changes = append(changes, a1)
			a0 = a1
			white = !white

		case modeEOL:
			return dropRowEnd(changes, columns), nil

		default:
			return nil, errs.New(errs.UnsupportedFeature, "ccitt", "two-dimensional extension mode code")
		}
	}
	return dropRowEnd(changes, columns), nil
}

func clamp(v, max int) int {
	if v > max {
		return max
	}
	if v < 0 {
		return 0
	}
	return v
}

func verticalDelta(m mode) int {
	switch m {
	case modeV0:
		return 0
	case modeVR1:
		return 1
	case modeVR2:
		return 2
	case modeVR3:
		return 3
	case modeVL1:
		return -1
	case modeVL2:
		return -2
	case modeVL3:
		return -3
	}
	return 0
}

// findB1B2 locates the b1/b2 changing elements on the reference line
// relative to a0 and the colour of the run being coded, per spec
// §4.B.3. Element i of ref changes colour to black if i is even (the
// row starts white), so b1 is the first element past a0 whose colour
// disagrees with the current coding colour.
func findB1B2(ref changingElements, a0 int, white bool, columns int) (b1, b2 int) {
	i := 0
	for i < len(ref) && ref[i] <= a0 {
		i++
	}
	// ref[i]'s colour-after is black when i is even; b1 must be of
	// colour opposite to the current run (white==true means the run
	// about to end is white, so b1 must start black, i.e. i even).
	elementStartsBlack := i%2 == 0
	if elementStartsBlack != white {
		i++
	}
	if i < len(ref) {
		b1 = ref[i]
	} else {
		b1 = columns
	}
	if i+1 < len(ref) {
		b2 = ref[i+1]
	} else {
		b2 = columns
	}
	return b1, b2
}
