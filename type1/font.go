package type1

// Font is a parsed Type 1 font: container detection and decryption have
// already run, and CharStrings/Subrs are decrypted and ready for
// interpretation on demand (spec "Type 1 font").

import (
	"github.com/corvidfax/pdfcore/errs"
)

type Font struct {
	FontName   string
	FamilyName string
	FullName   string
	FontMatrix [6]float64
	FontBBox   [4]float64
	Encoding   map[int]string

	private *privateDict
}

// UnitsPerEm derives the font's design-space scale from FontMatrix[0],
// falling back to the Type 1 default of 1000 when the matrix is
// unparsable or degenerate (spec "Type 1 font").
func (f *Font) UnitsPerEm() int {
	if f.FontMatrix[0] == 0 {
		return 1000
	}
	v := 1.0 / f.FontMatrix[0]
	return int(v + 0.5)
}

// GlyphNames lists every charstring name this font defines.
func (f *Font) GlyphNames() []string {
	names := make([]string, 0, len(f.private.charstrings))
	for n := range f.private.charstrings {
		names = append(names, n)
	}
	return names
}

// Outline interprets the charstring for the named glyph and returns its
// reconstructed drawing program.
func (f *Font) Outline(name string) (*Outline, error) {
	cs, ok := f.private.charstrings[name]
	if !ok {
		return nil, errs.New(errs.Malformed, "type1", "Outline: glyph %q not found", name)
	}
	return runCharstring(f, cs)
}

// buildFont assembles a Font from a split raw container: decrypt the
// eexec section, scan its Private dict (and the cleartext header, for
// Encoding/font-name fields some PFA fonts place outside eexec), and
// validate that at least one glyph was recovered.
func buildFont(r raw) (*Font, error) {
	if len(r.eexec) == 0 {
		return nil, errs.New(errs.Malformed, "type1", "buildFont: empty eexec section")
	}
	plain := decryptEexec(r.eexec)
	pd, err := scanPrivateDict(plain, r.header)
	if err != nil {
		return nil, err
	}
	f := &Font{
		FontName:   pd.fontName,
		FamilyName: pd.familyName,
		FullName:   pd.fullName,
		FontMatrix: pd.fontMatrix,
		FontBBox:   pd.fontBBox,
		Encoding:   pd.encoding,
		private:    pd,
	}
	return f, nil
}

// Parse interprets data as a self-contained Type 1 font: a PFB file (if
// it starts with the 0x80 segment marker) or a PFA file (spec "Type 1
// entry points").
func Parse(data []byte) (*Font, error) {
	r, err := detectAndSplit(data)
	if err != nil {
		return nil, err
	}
	return buildFont(r)
}

// ParseEmbedded interprets data as a PDF FontFile stream, using the
// declared Length1/Length2/Length3 to locate the cleartext header and
// eexec payload (spec "Type 1 entry points", PDF embedded form).
func ParseEmbedded(data []byte, length1, length2, length3 int) (*Font, error) {
	r, err := splitPDFEmbedded(data, length1, length2, length3)
	if err != nil {
		return nil, err
	}
	return buildFont(r)
}
