package type1

// Private dict scanning: the decrypted eexec plaintext is not run through
// a full PostScript interpreter, only matched for the handful of key
// patterns a Type 1 font's Private dict and CharStrings dict actually
// use. Regular expressions locate the ASCII framing (key names, counts,
// the RD/-| operator) against the plaintext reinterpreted as Latin-1
// text; the payload bytes themselves are always sliced from the
// original byte buffer so binary charstring data is never re-encoded.

import (
	"regexp"
	"strconv"

	"github.com/corvidfax/pdfcore/errs"
)

var (
	lenIVRe      = regexp.MustCompile(`/lenIV\s+(-?\d+)\s+def`)
	fontNameRe   = regexp.MustCompile(`/FontName\s*/([^\s/]+)\s+def`)
	familyNameRe = regexp.MustCompile(`/FamilyName\s*\(([^)]*)\)`)
	fullNameRe   = regexp.MustCompile(`/FullName\s*\(([^)]*)\)`)
	fontMatrixRe = regexp.MustCompile(`/FontMatrix\s*\[\s*([-0-9.eE]+)\s+([-0-9.eE]+)\s+([-0-9.eE]+)\s+([-0-9.eE]+)\s+([-0-9.eE]+)\s+([-0-9.eE]+)\s*\]`)
	fontBBoxRe   = regexp.MustCompile(`/FontBBox\s*\{\s*([-0-9.eE]+)\s+([-0-9.eE]+)\s+([-0-9.eE]+)\s+([-0-9.eE]+)\s*\}`)
	encodingRe   = regexp.MustCompile(`dup\s+(\d+)\s*/([^\s/]+)\s+put`)

	// subrEntryRe and charstringEntryRe locate the "dup i L RD" / "/name L RD"
	// framing; the binary payload that follows is located by offset
	// (match end) rather than captured by the regex itself, since it may
	// contain bytes that are not valid UTF-8/Latin-1 punctuation.
	subrEntryRe       = regexp.MustCompile(`dup\s+(\d+)\s+(\d+)\s+(RD|-\|)[ ]`)
	charstringEntryRe = regexp.MustCompile(`/([^\s/{}()]+)\s+(\d+)\s+(RD|-\|)[ ]`)
)

// privateDict holds everything extracted from the decrypted Private dict
// plaintext needed to build charstrings and interpret them.
type privateDict struct {
	lenIV       int
	subrs       map[int][]byte
	charstrings map[string][]byte
	encoding    map[int]string

	fontName   string
	familyName string
	fullName   string
	fontMatrix [6]float64
	fontBBox   [4]float64
}

// scanPrivateDict extracts lenIV, Subrs, CharStrings and the optional
// metadata fields from decrypted eexec plaintext. header (the cleartext
// portion preceding eexec) supplies Encoding and font-name metadata when
// present there instead, as is common for PFA fonts.
func scanPrivateDict(plain, header []byte) (*privateDict, error) {
	pd := &privateDict{
		lenIV:       4,
		subrs:       map[int][]byte{},
		charstrings: map[string][]byte{},
		encoding:    map[int]string{},
		fontMatrix:  [6]float64{0.001, 0, 0, 0.001, 0, 0},
	}

	if m := lenIVRe.FindSubmatch(plain); m != nil {
		if v, err := strconv.Atoi(string(m[1])); err == nil {
			pd.lenIV = v
		}
	}

	readMetadata(pd, header)
	readMetadata(pd, plain)

	if err := scanSubrs(pd, plain); err != nil {
		return nil, err
	}
	if err := scanCharStrings(pd, plain); err != nil {
		return nil, err
	}
	if len(pd.charstrings) == 0 {
		return nil, errs.New(errs.Malformed, "type1", "scanPrivateDict: no CharStrings found")
	}
	return pd, nil
}

func readMetadata(pd *privateDict, text []byte) {
	if m := fontNameRe.FindSubmatch(text); m != nil {
		pd.fontName = string(m[1])
	}
	if m := familyNameRe.FindSubmatch(text); m != nil {
		pd.familyName = string(m[1])
	}
	if m := fullNameRe.FindSubmatch(text); m != nil {
		pd.fullName = string(m[1])
	}
	if m := fontMatrixRe.FindSubmatch(text); m != nil {
		for i := 0; i < 6; i++ {
			if v, err := strconv.ParseFloat(string(m[i+1]), 64); err == nil {
				pd.fontMatrix[i] = v
			}
		}
	}
	if m := fontBBoxRe.FindSubmatch(text); m != nil {
		for i := 0; i < 4; i++ {
			if v, err := strconv.ParseFloat(string(m[i+1]), 64); err == nil {
				pd.fontBBox[i] = v
			}
		}
	}
	for _, m := range encodingRe.FindAllSubmatch(text, -1) {
		if code, err := strconv.Atoi(string(m[1])); err == nil {
			pd.encoding[code] = string(m[2])
		}
	}
}

// scanSubrs finds every "dup i L RD <L bytes> NP"-shaped entry in plain.
func scanSubrs(pd *privateDict, plain []byte) error {
	matches := subrEntryRe.FindAllSubmatchIndex(plain, -1)
	for _, m := range matches {
		idx, err := strconv.Atoi(string(plain[m[2]:m[3]]))
		if err != nil {
			continue
		}
		length, err := strconv.Atoi(string(plain[m[4]:m[5]]))
		if err != nil || length < 0 {
			continue
		}
		start := m[1] // end of the whole match, i.e. just after "RD "/"-| "
		if start+length > len(plain) {
			return errs.New(errs.TruncatedInput, "type1", "scanSubrs: subr %d payload runs past end of data", idx)
		}
		payload := make([]byte, length)
		copy(payload, plain[start:start+length])
		pd.subrs[idx] = decryptCharstring(payload, pd.lenIV)
	}
	return nil
}

// scanCharStrings finds every "/name L RD <L bytes> ND"-shaped entry in
// plain. Subrs entries ("dup i L RD") are not matched, because
// charstringEntryRe requires a leading /name rather than a numeric index.
func scanCharStrings(pd *privateDict, plain []byte) error {
	matches := charstringEntryRe.FindAllSubmatchIndex(plain, -1)
	for _, m := range matches {
		name := string(plain[m[2]:m[3]])
		if name == "Subrs" || name == "CharStrings" {
			continue
		}
		length, err := strconv.Atoi(string(plain[m[4]:m[5]]))
		if err != nil || length < 0 {
			continue
		}
		start := m[1]
		if start+length > len(plain) {
			return errs.New(errs.TruncatedInput, "type1", "scanCharStrings: glyph %q payload runs past end of data", name)
		}
		payload := make([]byte, length)
		copy(payload, plain[start:start+length])
		pd.charstrings[name] = decryptCharstring(payload, pd.lenIV)
	}
	return nil
}
