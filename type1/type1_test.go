package type1

import (
	"testing"
)

func TestEexecCipherScenario(t *testing.T) {
	// spec §8 scenario 5: decrypting ciphertext 0x74 0x93 0xA6 0x52 with
	// r=55665 must reproduce the recurrence exactly; only the first 4
	// plaintext bytes are discarded (they are random), so this fixture
	// checks the cipher recurrence itself rather than final output.
	cipherText := []byte{0x74, 0x93, 0xA6, 0x52, 0x0a, 0x0b, 0x0c, 0x0d}
	plain := decrypt(cipherText, eexecR, 0)
	if len(plain) != len(cipherText) {
		t.Fatalf("decrypt changed length: got %d, want %d", len(plain), len(cipherText))
	}

	r := uint16(eexecR)
	for i, c := range cipherText {
		want := c ^ byte(r>>8)
		if plain[i] != want {
			t.Fatalf("byte %d = %#x, want %#x", i, plain[i], want)
		}
		r = (uint16(c)+r)*cipherC1 + cipherC2
	}
}

func TestDecryptEexecDiscardsFourBytes(t *testing.T) {
	cipherText := []byte{0x74, 0x93, 0xA6, 0x52, 0xAB, 0xCD}
	full := decrypt(cipherText, eexecR, 0)
	skipped := decryptEexec(cipherText)
	if len(skipped) != len(full)-4 {
		t.Fatalf("decryptEexec kept %d bytes, want %d", len(skipped), len(full)-4)
	}
	for i := range skipped {
		if skipped[i] != full[i+4] {
			t.Fatalf("byte %d mismatch after skip", i)
		}
	}
}

func encryptCharstring(plain []byte, lenIV int) []byte {
	// Inverse of the Type 1 charstring cipher, used only by this test to
	// build a fixture: prepend lenIV arbitrary bytes, then encrypt
	// forward with the same recurrence the decrypter reverses.
	padded := append(make([]byte, lenIV), plain...)
	r := uint16(charstringR)
	out := make([]byte, len(padded))
	for i, p := range padded {
		c := p ^ byte(r>>8)
		out[i] = c
		r = (uint16(c)+r)*cipherC1 + cipherC2
	}
	return out
}

func TestCharstringCipherRoundTrip(t *testing.T) {
	plain := []byte{13, 139, 14} // hsbw opcode, the number 0, endchar opcode
	enc := encryptCharstring(plain, 4)
	got := decryptCharstring(enc, 4)
	if len(got) != len(plain) {
		t.Fatalf("got %v, want %v", got, plain)
	}
	for i := range plain {
		if got[i] != plain[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], plain[i])
		}
	}
}

func buildTestFont(t *testing.T, charstrings map[string][]byte, subrs map[int][]byte) *Font {
	t.Helper()
	pd := &privateDict{
		lenIV:       0,
		subrs:       map[int][]byte{},
		charstrings: map[string][]byte{},
		encoding:    map[int]string{},
		fontMatrix:  [6]float64{0.001, 0, 0, 0.001, 0, 0},
	}
	for name, glyph := range charstrings {
		pd.charstrings[name] = glyph
	}
	for idx, sub := range subrs {
		pd.subrs[idx] = sub
	}
	return &Font{FontMatrix: pd.fontMatrix, private: pd}
}

// num builds the charstring encoding of a single integer operand,
// picking the 1-, 2- or 5-byte form per spec §4.D's "Numeric tokens"
// table so fixtures can use values outside -107..107 (e.g. advance
// widths) without hand-computing the multi-byte form.
func num(v int) []byte {
	switch {
	case v >= -107 && v <= 107:
		return []byte{byte(v + 139)}
	case v >= 108 && v <= 1131:
		v2 := v - 108
		return []byte{byte(v2/256) + 247, byte(v2 % 256)}
	case v >= -1131 && v <= -108:
		v2 := -v - 108
		return []byte{byte(v2/256) + 251, byte(v2 % 256)}
	default:
		return []byte{255, byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	}
}

// charstring concatenates number encodings and raw opcode bytes into one
// charstring byte slice, so test fixtures can be written as a flat list
// of operands and opcodes instead of hand-packed byte literals.
func charstring(parts ...interface{}) []byte {
	var out []byte
	for _, p := range parts {
		switch v := p.(type) {
		case int:
			out = append(out, num(v)...)
		case byte:
			out = append(out, v)
		}
	}
	return out
}

func TestRunCharstringSimpleTriangle(t *testing.T) {
	// hsbw 0 500; rmoveto 0 0; rlineto 100 0; rlineto 0 100; closepath; endchar
	triangle := charstring(
		0, 500, byte(13), // hsbw
		0, 0, byte(21), // rmoveto
		100, 0, byte(5), // rlineto
		0, 100, byte(5), // rlineto
		byte(9),  // closepath
		byte(14), // endchar
	)
	f := buildTestFont(t, map[string][]byte{"triangle": triangle}, nil)
	o, err := f.Outline("triangle")
	if err != nil {
		t.Fatalf("Outline: %v", err)
	}
	if o.AdvanceWidth != 500 {
		t.Fatalf("AdvanceWidth = %v, want 500", o.AdvanceWidth)
	}
	wantOps := []OpKind{MoveTo, LineTo, LineTo, ClosePath}
	if len(o.Commands) != len(wantOps) {
		t.Fatalf("got %d commands, want %d: %+v", len(o.Commands), len(wantOps), o.Commands)
	}
	for i, op := range wantOps {
		if o.Commands[i].Op != op {
			t.Fatalf("command %d op = %v, want %v", i, o.Commands[i].Op, op)
		}
	}
	first := o.Commands[1]
	if first.X != 100 || first.Y != 0 {
		t.Fatalf("first lineto = (%v,%v), want (100,0)", first.X, first.Y)
	}
}

func TestRunCharstringCallsubr(t *testing.T) {
	// Subr 0 draws a single relative line of (50,50); the glyph calls it
	// after hsbw+rmoveto, then closes and ends.
	subr0 := charstring(50, 50, byte(5), byte(11)) // rlineto; return
	glyph := charstring(
		0, 200, byte(13), // hsbw
		0, 0, byte(21), // rmoveto
		0, byte(10), // callsubr 0
		byte(9), byte(14), // closepath endchar
	)
	f := buildTestFont(t, map[string][]byte{"a": glyph}, map[int][]byte{0: subr0})
	o, err := f.Outline("a")
	if err != nil {
		t.Fatalf("Outline: %v", err)
	}
	if len(o.Commands) != 3 {
		t.Fatalf("got %d commands, want 3: %+v", len(o.Commands), o.Commands)
	}
	if o.Commands[1].Op != LineTo || o.Commands[1].X != 50 || o.Commands[1].Y != 50 {
		t.Fatalf("callsubr line = %+v, want LineTo(50,50)", o.Commands[1])
	}
}

func TestSeacComposite(t *testing.T) {
	base := charstring(
		0, 500, byte(13), // hsbw
		0, 0, byte(21), // rmoveto
		100, 0, byte(5), // rlineto
		byte(9), byte(14),
	)
	accent := charstring(
		0, 0, byte(13), // hsbw
		0, 0, byte(21), // rmoveto
		10, 10, byte(5), // rlineto
		byte(9), byte(14),
	)
	// seac: asb adx ady bchar achar ; 'A' = 65, 'grave' = 193
	composite := charstring(0, 0, 0, 65, 193, byte(12), byte(6))

	f := buildTestFont(t, map[string][]byte{
		"A":         base,
		"grave":     accent,
		"Acomposed": composite,
	}, nil)
	o, err := f.Outline("Acomposed")
	if err != nil {
		t.Fatalf("Outline: %v", err)
	}
	// base contributes MoveTo+LineTo+ClosePath, accent contributes
	// MoveTo+LineTo+ClosePath, offset by (adx-asb+sbx, ady) = (0,0) here.
	if len(o.Commands) != 6 {
		t.Fatalf("got %d commands, want 6: %+v", len(o.Commands), o.Commands)
	}
	if o.Commands[3].Op != MoveTo || o.Commands[4].Op != LineTo {
		t.Fatalf("accent commands = %+v", o.Commands[3:])
	}
}

func TestScanPrivateDictExtractsCharStringsAndSubrs(t *testing.T) {
	const rdName = "RD"
	payload := charstring(0, 100, byte(13), byte(14)) // hsbw 0 100; endchar
	subrPayload := []byte{11}                         // return

	// Build a plaintext Private dict the way real fonts emit it. Payloads
	// are charstring-encrypted; lenIV 0 means no leading bytes are
	// discarded, so each decrypts back to exactly the bytes given here.
	var plain []byte
	plain = append(plain, []byte("/lenIV 0 def\n")...)
	plain = append(plain, []byte("/Subrs 1 array\n")...)
	plain = append(plain, []byte("dup 0 1 "+rdName+" ")...)
	plain = append(plain, encryptCharstring(subrPayload, 0)...)
	plain = append(plain, []byte(" NP\n")...)
	plain = append(plain, []byte("/CharStrings 1 dict dup begin\n")...)
	plain = append(plain, []byte("/space 4 "+rdName+" ")...)
	plain = append(plain, encryptCharstring(payload, 0)...)
	plain = append(plain, []byte(" ND\n")...)
	plain = append(plain, []byte("end\n")...)

	pd, err := scanPrivateDict(plain, nil)
	if err != nil {
		t.Fatalf("scanPrivateDict: %v", err)
	}
	if pd.lenIV != 0 {
		t.Fatalf("lenIV = %d, want 0", pd.lenIV)
	}
	if _, ok := pd.subrs[0]; !ok {
		t.Fatalf("Subrs[0] not recovered")
	}
	glyph, ok := pd.charstrings["space"]
	if !ok {
		t.Fatalf("CharStrings[space] not recovered")
	}
	if len(glyph) != len(payload) || glyph[2] != 13 || glyph[3] != 14 {
		t.Fatalf("charstring payload = %v, want hsbw/endchar bytes", glyph)
	}
}

func TestSplitPFBRoundTrip(t *testing.T) {
	header := []byte("%!PS-AdobeFont-1.0: Test\n")
	body := []byte("some eexec bytes")
	var data []byte
	data = append(data, byte(pfbMarker), byte(pfbASCII), byte(len(header)), 0, 0, 0)
	data = append(data, header...)
	data = append(data, byte(pfbMarker), byte(pfbBinary), byte(len(body)), 0, 0, 0)
	data = append(data, body...)
	data = append(data, byte(pfbMarker), byte(pfbEOF), 0, 0, 0, 0)

	r, err := splitPFB(data)
	if err != nil {
		t.Fatalf("splitPFB: %v", err)
	}
	if string(r.header) != string(header) {
		t.Fatalf("header = %q, want %q", r.header, header)
	}
	if string(r.eexec) != string(body) {
		t.Fatalf("eexec = %q, want %q", r.eexec, body)
	}
}
