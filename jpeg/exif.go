package jpeg

// support for JPEG APP1 (EXIF): orientation tag only. A full EXIF editor
// (arbitrary tag read/write, thumbnail extraction, IFD removal) is out of
// scope for a decode-only core; this keeps just enough of the TIFF/IFD
// walk to recover the one tag that changes how a decoded picture must be
// displayed.

import (
	"encoding/binary"
	"fmt"
	"io"
)

// writeAPP1 re-emits the marker, length and raw payload captured at
// parse time: this trimmed parser never mutates Exif content, only
// drops it wholesale via mRemove.
func writeAPP1(w io.Writer, raw []byte) (n int, err error) {
	hdr := make([]byte, 4)
	binary.BigEndian.PutUint16(hdr, _APP1)
	binary.BigEndian.PutUint16(hdr[2:], uint16(len(raw)+2))
	cw := newCumulativeWriter(w)
	cw.Write(hdr)
	cw.Write(raw)
	return cw.result()
}

const (
	tiffLittleEndian = 0x4949
	tiffBigEndian    = 0x4d4d
	tiffOrientation  = 0x112
	tiffTypeShort    = 3
)

// exifData is the APP1 (Exif) segment kept in Desc.segments. It only
// remembers whether it was asked to be stripped; orientation itself is
// folded into Desc.orientation as soon as the segment is parsed.
type exifData struct {
	raw     []byte // the APP1 payload, starting at "Exif\x00\x00"
	removed bool
}

func (ed *exifData) serialize(w io.Writer) (n int, err error) {
	if ed.removed {
		return 0, nil
	}
	return writeAPP1(w, ed.raw)
}

func (ed *exifData) format(w io.Writer) (int, error) {
	return fmt.Fprintf(w, "APP1 (Exif), %d bytes of TIFF data\n", len(ed.raw))
}

func (ed *exifData) mFormat(w io.Writer, appId int, sIds []int) (int, error) {
	if appId != 1 {
		return 0, nil
	}
	return ed.format(w)
}

func (ed *exifData) mRemove(appId int, sId []int) error {
	if appId == 1 || appId == -1 {
		ed.removed = true
	}
	return nil
}

func (ed *exifData) mThumbnail(tid int, path string) (int, error) {
	// Thumbnail extraction needs the full IFD walk this trimmed parser
	// does not implement; report "no thumbnail available" rather than
	// pretending to support it.
	return 0, nil
}

// tiffReader reads multi-byte TIFF fields honoring the byte order found
// in the TIFF header, the way exifApplication used to delegate to the
// external exif package's own reader.
type tiffReader struct {
	data         []byte
	littleEndian bool
}

func (r tiffReader) u16(offset uint32) uint16 {
	if int(offset)+2 > len(r.data) {
		return 0
	}
	b0, b1 := r.data[offset], r.data[offset+1]
	if r.littleEndian {
		return uint16(b1)<<8 | uint16(b0)
	}
	return uint16(b0)<<8 | uint16(b1)
}

func (r tiffReader) u32(offset uint32) uint32 {
	if int(offset)+4 > len(r.data) {
		return 0
	}
	b := r.data[offset : offset+4]
	if r.littleEndian {
		return uint32(b[3])<<24 | uint32(b[2])<<16 | uint32(b[1])<<8 | uint32(b[0])
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// orientationFromIFD0 walks IFD0 of a TIFF blob (the "Exif\x00\x00"
// payload's TIFF header onward) looking for the Orientation tag (0x112),
// returning 0 if it is absent or malformed.
func orientationFromIFD0(tiff []byte) uint16 {
	if len(tiff) < 8 {
		return 0
	}
	order := uint16(tiff[0])<<8 | uint16(tiff[1])
	var le bool
	switch order {
	case tiffLittleEndian:
		le = true
	case tiffBigEndian:
		le = false
	default:
		return 0
	}
	r := tiffReader{data: tiff, littleEndian: le}
	if r.u16(2) != 0x2a {
		return 0
	}
	ifdOffset := r.u32(4)
	if int(ifdOffset)+2 > len(tiff) {
		return 0
	}
	count := r.u16(ifdOffset)
	entry := ifdOffset + 2
	for i := uint16(0); i < count; i++ {
		if int(entry)+12 > len(tiff) {
			break
		}
		tag := r.u16(entry)
		typ := r.u16(entry + 2)
		if tag == tiffOrientation && typ == tiffTypeShort {
			return r.u16(entry + 8)
		}
		entry += 12
	}
	return 0
}

// orientationFromCode maps the EXIF orientation tag's value (1-8) to the
// Row0/Col0/Effect triple the rest of the package reasons about.
func orientationFromCode(code uint16) *Orientation {
	o := &Orientation{AppSource: 1}
	switch code {
	case 1:
		o.Row0, o.Col0, o.Effect = Top, Left, None
	case 2:
		o.Row0, o.Col0, o.Effect = Top, Right, VerticalMirror
	case 3:
		o.Row0, o.Col0, o.Effect = Bottom, Right, Rotate180
	case 4:
		o.Row0, o.Col0, o.Effect = Bottom, Left, HorizontalMirror
	case 5:
		o.Row0, o.Col0, o.Effect = Left, Top, HorizontalMirrorRotate90
	case 6:
		o.Row0, o.Col0, o.Effect = Right, Top, Rotate90
	case 7:
		o.Row0, o.Col0, o.Effect = Right, Bottom, VerticalMirrorRotate90
	case 8:
		o.Row0, o.Col0, o.Effect = Left, Bottom, Rotate270
	default:
		return nil
	}
	return o
}
