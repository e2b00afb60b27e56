package type1

// Charstring interpretation: a stack machine over the decrypted, lenIV-
// trimmed charstring bytes (spec §4.D "Charstring interpretation").
// Unknown operators clear the stack and continue rather than aborting,
// preserving best-effort rendering for fonts that use vendor extensions
// this interpreter does not know about.

import (
	"github.com/corvidfax/pdfcore/errs"
)

// OpKind identifies the drawing command a Command carries.
type OpKind int

const (
	MoveTo OpKind = iota
	LineTo
	CurveTo
	ClosePath
)

// Command is one step of a reconstructed outline. MoveTo/LineTo use X, Y;
// CurveTo uses the two control points and the end point; ClosePath uses
// no fields.
type Command struct {
	Op                 OpKind
	X, Y               float64
	C1X, C1Y, C2X, C2Y float64
}

// Outline is the ordered drawing program recovered from a charstring,
// plus its advance width and the sidebearing point interpretation starts
// from (spec "Type 1 outline").
type Outline struct {
	Commands     []Command
	AdvanceWidth float64
	SBX, SBY     float64
}

const maxCallDepth = 32 // guards against pathological callsubr recursion

type flexPoint struct{ x, y float64 }

type interp struct {
	font  *Font
	stack []float64
	ps    []float64 // the "PostScript stack" callothersubr/pop exchange through

	x, y   float64
	sbx    float64
	sby    float64
	width  float64
	open   bool
	out    []Command

	inFlex  bool
	flexPts []flexPoint

	depth int
}

// runCharstring interprets cs (already eexec/lenIV-decrypted) against
// font's Subrs for callsubr, producing the glyph's Outline.
func runCharstring(font *Font, cs []byte) (*Outline, error) {
	ip := &interp{font: font}
	if err := ip.exec(cs); err != nil {
		return nil, err
	}
	if ip.open {
		ip.out = append(ip.out, Command{Op: ClosePath})
	}
	return &Outline{Commands: ip.out, AdvanceWidth: ip.width, SBX: ip.sbx, SBY: ip.sby}, nil
}

func (ip *interp) exec(cs []byte) error {
	ip.depth++
	defer func() { ip.depth-- }()
	if ip.depth > maxCallDepth {
		return errs.New(errs.UnsupportedFeature, "type1", "charstring: subroutine call depth exceeds %d", maxCallDepth)
	}

	i := 0
	for i < len(cs) {
		b := cs[i]
		switch {
		case b >= 32 && b <= 246:
			ip.stack = append(ip.stack, float64(int(b)-139))
			i++
		case b >= 247 && b <= 250:
			if i+1 >= len(cs) {
				return errs.New(errs.TruncatedInput, "type1", "charstring: truncated two-byte number")
			}
			ip.stack = append(ip.stack, float64((int(b)-247)*256+int(cs[i+1])+108))
			i += 2
		case b >= 251 && b <= 254:
			if i+1 >= len(cs) {
				return errs.New(errs.TruncatedInput, "type1", "charstring: truncated two-byte number")
			}
			ip.stack = append(ip.stack, float64(-(int(b)-251)*256-int(cs[i+1])-108))
			i += 2
		case b == 255:
			if i+4 >= len(cs) {
				return errs.New(errs.TruncatedInput, "type1", "charstring: truncated four-byte number")
			}
			v := int32(cs[i+1])<<24 | int32(cs[i+2])<<16 | int32(cs[i+3])<<8 | int32(cs[i+4])
			ip.stack = append(ip.stack, float64(v))
			i += 5
		default:
			n, err := ip.op(b, cs, i)
			if err != nil {
				return err
			}
			if n < 0 { // "return" unwinds this exec call
				return nil
			}
			i += n
		}
	}
	return nil
}

// op executes the operator at cs[i] (b == cs[i]) and returns how many
// bytes it consumed, or -1 if it is "return" and exec should stop. pos is
// only used to read escape (12 x) second bytes.
func (ip *interp) op(b byte, cs []byte, pos int) (int, error) {
	switch b {
	case 1, 3: // hstem, vstem
		ip.stack = ip.stack[:0]
		return 1, nil
	case 4: // vmoveto
		ip.moveTo(0, ip.arg(0))
		return 1, nil
	case 5: // rlineto
		ip.lineTo(ip.arg(0), ip.arg(1))
		return 1, nil
	case 6: // hlineto
		ip.lineTo(ip.arg(0), 0)
		return 1, nil
	case 7: // vlineto
		ip.lineTo(0, ip.arg(0))
		return 1, nil
	case 8: // rrcurveto
		ip.curveTo(ip.arg(0), ip.arg(1), ip.arg(2), ip.arg(3), ip.arg(4), ip.arg(5))
		return 1, nil
	case 9: // closepath
		if ip.open {
			ip.out = append(ip.out, Command{Op: ClosePath})
			ip.open = false
		}
		ip.stack = ip.stack[:0]
		return 1, nil
	case 10: // callsubr
		idx, ok := ip.popInt()
		if !ok {
			return 0, errs.New(errs.Malformed, "type1", "charstring: callsubr with empty stack")
		}
		sub, ok := ip.font.private.subrs[idx]
		if !ok {
			return 0, errs.New(errs.UnsupportedFeature, "type1", "charstring: Subrs[%d] undefined", idx)
		}
		if err := ip.exec(sub); err != nil {
			return 0, err
		}
		return 1, nil
	case 11: // return
		return -1, nil
	case 13: // hsbw
		ip.sbx = ip.arg(0)
		ip.width = ip.arg(1)
		ip.x, ip.y = ip.sbx, 0
		ip.stack = ip.stack[:0]
		return 1, nil
	case 14: // endchar
		ip.stack = ip.stack[:0]
		return -1, nil
	case 21: // rmoveto
		ip.moveTo(ip.arg(0), ip.arg(1))
		return 1, nil
	case 22: // hmoveto
		ip.moveTo(ip.arg(0), 0)
		return 1, nil
	case 30: // vhcurveto
		dy1, dx2, dy2, dx3 := ip.arg(0), ip.arg(1), ip.arg(2), ip.arg(3)
		ip.curveTo(0, dy1, dx2, dy2, dx3, 0)
		return 1, nil
	case 31: // hvcurveto
		dx1, dx2, dy2, dy3 := ip.arg(0), ip.arg(1), ip.arg(2), ip.arg(3)
		ip.curveTo(dx1, 0, dx2, dy2, 0, dy3)
		return 1, nil
	case 12: // escape
		if pos+1 >= len(cs) {
			return 0, errs.New(errs.TruncatedInput, "type1", "charstring: truncated escape opcode")
		}
		n, err := ip.escapeOp(cs[pos+1])
		return n + 2, err
	}
	ip.stack = ip.stack[:0] // unknown single-byte op: no-op per spec
	return 1, nil
}

// escapeOp executes a two-byte (12 x) operator. n is 0 on success; the
// caller always adds 2 for the escape prefix itself.
func (ip *interp) escapeOp(sub byte) (int, error) {
	switch sub {
	case 0: // dotsection
		ip.stack = ip.stack[:0]
	case 6: // seac
		return 0, ip.seac()
	case 7: // sbw
		ip.sbx, ip.sby = ip.arg(0), ip.arg(1)
		ip.width = ip.arg(2)
		ip.x, ip.y = ip.sbx, ip.sby
		ip.stack = ip.stack[:0]
	case 12: // div
		if len(ip.stack) < 2 {
			return 0, errs.New(errs.Malformed, "type1", "charstring: div with fewer than 2 operands")
		}
		b := ip.stack[len(ip.stack)-1]
		a := ip.stack[len(ip.stack)-2]
		ip.stack = ip.stack[:len(ip.stack)-2]
		if b == 0 {
			return 0, errs.New(errs.Malformed, "type1", "charstring: div by zero")
		}
		ip.stack = append(ip.stack, a/b)
	case 16: // callothersubr
		ip.callOtherSubr()
	case 17: // pop
		if len(ip.ps) == 0 {
			ip.stack = append(ip.stack, 0)
		} else {
			v := ip.ps[len(ip.ps)-1]
			ip.ps = ip.ps[:len(ip.ps)-1]
			ip.stack = append(ip.stack, v)
		}
	case 33: // setcurrentpoint
		ip.x, ip.y = ip.arg(0), ip.arg(1)
		ip.stack = ip.stack[:0]
	default:
		ip.stack = ip.stack[:0] // unknown escape op: no-op per spec
	}
	return 0, nil
}

// arg returns stack[i] or 0 if absent, matching the spec's "unknown
// commands clear the stack but do not abort" tolerance for short stacks.
func (ip *interp) arg(i int) float64 {
	if i < len(ip.stack) {
		return ip.stack[i]
	}
	return 0
}

func (ip *interp) popInt() (int, bool) {
	if len(ip.stack) == 0 {
		return 0, false
	}
	v := ip.stack[len(ip.stack)-1]
	ip.stack = ip.stack[:len(ip.stack)-1]
	return int(v), true
}

func (ip *interp) moveTo(dx, dy float64) {
	ip.x += dx
	ip.y += dy
	if ip.inFlex {
		ip.flexPts = append(ip.flexPts, flexPoint{ip.x, ip.y})
		ip.stack = ip.stack[:0]
		return
	}
	if ip.open {
		ip.out = append(ip.out, Command{Op: ClosePath})
	}
	ip.out = append(ip.out, Command{Op: MoveTo, X: ip.x, Y: ip.y})
	ip.open = true
	ip.stack = ip.stack[:0]
}

func (ip *interp) lineTo(dx, dy float64) {
	ip.x += dx
	ip.y += dy
	ip.out = append(ip.out, Command{Op: LineTo, X: ip.x, Y: ip.y})
	ip.open = true
	ip.stack = ip.stack[:0]
}

func (ip *interp) curveTo(dx1, dy1, dx2, dy2, dx3, dy3 float64) {
	c1x, c1y := ip.x+dx1, ip.y+dy1
	c2x, c2y := c1x+dx2, c1y+dy2
	ip.x, ip.y = c2x+dx3, c2y+dy3
	ip.out = append(ip.out, Command{Op: CurveTo, C1X: c1x, C1Y: c1y, C2X: c2x, C2Y: c2y, X: ip.x, Y: ip.y})
	ip.open = true
	ip.stack = ip.stack[:0]
}

// callOtherSubr implements the flex-hint subset of OtherSubrs named in
// spec §4.D: 1 starts a flex, 2 records a point (each point arrives via
// the preceding rmoveto while inFlex is set), 0 closes the flex and
// emits the two cubics the seven recorded points describe. Any other
// OtherSubrs index just reflects its arguments onto the PostScript
// stack so a following "pop" sequence does not stall.
func (ip *interp) callOtherSubr() {
	idx, ok := ip.popInt()
	if !ok {
		return
	}
	n, ok := ip.popInt()
	if !ok || n < 0 || n > len(ip.stack) {
		n = 0
	}
	args := append([]float64(nil), ip.stack[len(ip.stack)-n:]...)
	ip.stack = ip.stack[:len(ip.stack)-n]

	switch idx {
	case 1: // start flex
		ip.inFlex = true
		ip.flexPts = ip.flexPts[:0]
	case 2: // record point (point itself was captured by moveTo)
	case 0: // end flex
		ip.inFlex = false
		if len(ip.flexPts) >= 7 {
			p := ip.flexPts
			ip.out = append(ip.out, Command{
				Op: CurveTo, C1X: p[1].x, C1Y: p[1].y, C2X: p[2].x, C2Y: p[2].y, X: p[3].x, Y: p[3].y,
			})
			ip.out = append(ip.out, Command{
				Op: CurveTo, C1X: p[4].x, C1Y: p[4].y, C2X: p[5].x, C2Y: p[5].y, X: p[6].x, Y: p[6].y,
			})
			ip.open = true
			ip.x, ip.y = p[6].x, p[6].y
		}
		// The flex OtherSubr leaves the final x,y on the PS stack for the
		// "2 pop pop setcurrentpoint" sequence that conventionally follows.
		ip.ps = append(ip.ps, ip.y, ip.x)
		return
	default:
		// Hint-replacement and similar: reflect args back so pop works.
	}
	for j := len(args) - 1; j >= 0; j-- {
		ip.ps = append(ip.ps, args[j])
	}
}

// seac composes an accented glyph from two StandardEncoding-indexed base
// glyphs: asb adx ady bchar achar, per Adobe Type 1 Font Format §8.7.
// The accent outline is offset by (adx-asb+sbx, ady) relative to the
// base glyph's own sidebearing and appended after it.
func (ip *interp) seac() error {
	if len(ip.stack) < 5 {
		return errs.New(errs.Malformed, "type1", "charstring: seac with fewer than 5 operands")
	}
	asb, adx, ady := ip.stack[0], ip.stack[1], ip.stack[2]
	bchar, achar := int(ip.stack[3]), int(ip.stack[4])
	ip.stack = ip.stack[:0]

	baseName, ok := standardEncoding[bchar]
	if !ok {
		return errs.New(errs.UnsupportedFeature, "type1", "charstring: seac base code %d not in StandardEncoding", bchar)
	}
	accentName, ok := standardEncoding[achar]
	if !ok {
		return errs.New(errs.UnsupportedFeature, "type1", "charstring: seac accent code %d not in StandardEncoding", achar)
	}

	baseOutline, err := ip.font.Outline(baseName)
	if err != nil {
		return errs.New(errs.UnsupportedFeature, "type1", "charstring: seac base glyph %q unavailable", baseName)
	}
	accentOutline, err := ip.font.Outline(accentName)
	if err != nil {
		return errs.New(errs.UnsupportedFeature, "type1", "charstring: seac accent glyph %q unavailable", accentName)
	}

	ip.out = append(ip.out, baseOutline.Commands...)
	dx := adx - asb + ip.sbx
	dy := ady
	for _, c := range accentOutline.Commands {
		switch c.Op {
		case MoveTo, LineTo:
			ip.out = append(ip.out, Command{Op: c.Op, X: c.X + dx, Y: c.Y + dy})
		case CurveTo:
			ip.out = append(ip.out, Command{
				Op: CurveTo,
				C1X: c.C1X + dx, C1Y: c.C1Y + dy,
				C2X: c.C2X + dx, C2Y: c.C2Y + dy,
				X: c.X + dx, Y: c.Y + dy,
			})
		case ClosePath:
			ip.out = append(ip.out, c)
		}
	}
	ip.open = false
	return nil
}
