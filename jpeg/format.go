package jpeg

import (
    "io"
)

// FormatSegments writes a human-readable dump of every segment that makes
// up the image (frame headers, scan MCU layout, quantization/Huffman
// tables) to w, for diagnostics — nothing on the decode path depends on
// it. Each segment type's own format method supplies its section.
func (jpg *Desc) FormatSegments( w io.Writer ) (n int, err error) {
    var np int
    for _, s := range jpg.segments {
        np, err = s.format( w )
        if err != nil {
            return
        }
        n += np
    }
    return
}
