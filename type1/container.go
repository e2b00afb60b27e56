package type1

// Container detection for the three ways a Type 1 font travels: a PFB
// segmented file, an all-ASCII PFA file, or the three-length form a PDF
// font-file stream declares (Length1/Length2/Length3).

import (
	"encoding/binary"

	"github.com/corvidfax/pdfcore/errs"
)

const (
	pfbMarker  = 0x80
	pfbASCII   = 1
	pfbBinary  = 2
	pfbEOF     = 3
	pfbHdrSize = 6 // marker byte + type byte + 4-byte little-endian length
)

// raw is a font split into its cleartext header and its (still encrypted)
// eexec payload, independent of which container it arrived in.
type raw struct {
	header []byte
	eexec  []byte
}

// splitPFB walks the 0x80-prefixed segment structure of a PFB file,
// concatenating all ASCII segments into header and all binary segments
// into eexec, stopping at the type-3 end marker.
func splitPFB(data []byte) (raw, error) {
	var r raw
	i := 0
	for i < len(data) {
		if data[i] != pfbMarker {
			return raw{}, errs.New(errs.Malformed, "type1", "splitPFB: missing segment marker at offset %d", i)
		}
		if i+pfbHdrSize > len(data) {
			return raw{}, errs.New(errs.TruncatedInput, "type1", "splitPFB: truncated segment header at offset %d", i)
		}
		segType := data[i+1]
		if segType == pfbEOF {
			return r, nil
		}
		length := int(binary.LittleEndian.Uint32(data[i+2 : i+6]))
		start := i + pfbHdrSize
		if length < 0 || start+length > len(data) {
			return raw{}, errs.New(errs.TruncatedInput, "type1", "splitPFB: segment runs past end of data")
		}
		seg := data[start : start+length]
		switch segType {
		case pfbASCII:
			r.header = append(r.header, seg...)
		case pfbBinary:
			r.eexec = append(r.eexec, seg...)
		default:
			return raw{}, errs.New(errs.UnsupportedFeature, "type1", "splitPFB: unknown segment type %d", segType)
		}
		i = start + length
	}
	return raw{}, errs.New(errs.TruncatedInput, "type1", "splitPFB: missing end-of-font segment")
}

// splitPFA locates the "eexec" keyword in an all-ASCII font and treats
// everything before it as the cleartext header and everything after
// (hex-decoded) as the eexec payload, per spec §4.D.
func splitPFA(data []byte) (raw, error) {
	idx := indexOf(data, []byte("eexec"))
	if idx < 0 {
		return raw{}, errs.New(errs.Malformed, "type1", "splitPFA: no eexec keyword found")
	}
	header := data[:idx]
	rest := skipWhitespace(data[idx+len("eexec"):])
	if looksHex(rest) {
		bin, err := decodeHexPayload(rest)
		if err != nil {
			return raw{}, err
		}
		return raw{header: header, eexec: bin}, nil
	}
	return raw{header: header, eexec: rest}, nil
}

// splitPDFEmbedded interprets the three-length form a PDF FontFile stream
// declares. When length1 covers (or exceeds) the whole stream, or equals
// length2, the data is treated as PFA per spec §4.D's fallback rule.
func splitPDFEmbedded(data []byte, length1, length2, length3 int) (raw, error) {
	total := len(data)
	if length1 >= total || length1 == length2 {
		return splitPFA(data)
	}
	if length1 < 0 || length2 < 0 || length1+length2 > total {
		return raw{}, errs.New(errs.TruncatedInput, "type1", "splitPDFEmbedded: lengths exceed stream size")
	}
	header := data[:length1]
	eexecPart := data[length1 : length1+length2]
	if looksHex(skipWhitespace(eexecPart)) {
		bin, err := decodeHexPayload(eexecPart)
		if err != nil {
			return raw{}, err
		}
		return raw{header: header, eexec: bin}, nil
	}
	return raw{header: header, eexec: eexecPart}, nil
}

// detectAndSplit chooses among PFB, PDF-embedded and PFA forms from the
// raw bytes alone, used by the single-argument Parse entry point.
func detectAndSplit(data []byte) (raw, error) {
	if len(data) > 0 && data[0] == pfbMarker {
		return splitPFB(data)
	}
	return splitPFA(data)
}

func indexOf(data, needle []byte) int {
	n := len(needle)
	for i := 0; i+n <= len(data); i++ {
		if string(data[i:i+n]) == string(needle) {
			return i
		}
	}
	return -1
}

func skipWhitespace(b []byte) []byte {
	i := 0
	for i < len(b) {
		switch b[i] {
		case ' ', '\t', '\r', '\n':
			i++
			continue
		}
		break
	}
	return b[i:]
}

func looksHex(b []byte) bool {
	seen := 0
	for _, c := range b {
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			continue
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
			seen++
			if seen >= 4 {
				return true
			}
		default:
			return false
		}
	}
	return seen > 0
}

// decodeHexPayload converts a hex-encoded eexec section to binary,
// stopping at the "512 zeros" trailer sentinel described in spec §4.D
// (a run of ASCII '0' long enough to be the zero-padding line rather than
// genuine ciphertext).
func decodeHexPayload(hex []byte) ([]byte, error) {
	const zeroSentinelRun = 64 // a line's worth of trailing zero digits
	out := make([]byte, 0, len(hex)/2)
	var hi byte
	haveHi := false
	zeroRun := 0
	for _, c := range hex {
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			continue
		case c == '0':
			zeroRun++
		default:
			zeroRun = 0
		}
		if zeroRun >= zeroSentinelRun {
			break
		}
		v, ok := hexDigit(c)
		if !ok {
			return nil, errs.New(errs.Malformed, "type1", "decodeHexPayload: invalid hex digit %q", c)
		}
		if !haveHi {
			hi = v
			haveHi = true
		} else {
			out = append(out, hi<<4|v)
			haveHi = false
		}
	}
	return out, nil
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
