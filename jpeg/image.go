package jpeg

// Decode is the package's single-call entry point: parse a baseline JPEG
// stream and return its first frame as both a flat RGB byte buffer and a
// stdlib image.Image, honoring any orientation tag found in APP1.

import (
    "image"
    "image/color"

    "github.com/pkg/errors"

    "github.com/corvidfax/pdfcore/errs"
)

// Decode parses data as a JPEG file and produces the decoded raster of its
// first frame. width and height describe the returned rgb buffer (3 bytes
// per pixel, row-major) after any EXIF-driven reorientation has been
// applied; img wraps the same samples as a stdlib image.Image.
func Decode( data []byte ) ( width, height int, rgb []byte, img image.Image, err error ) {
    jpg, err := Parse( data, &Control{} )
    if err != nil {
        return 0, 0, nil, nil, errors.Wrap( err, "jpeg.Decode: parse" )
    }
    if len( jpg.frames ) == 0 {
        // A stream with no SOF/SOS (e.g. one that ends before any frame
        // starts) is well-formed but has nothing this decoder can
        // rasterize (spec §8, "JPEG decode of an input without SOS
        // markers returns UnsupportedFeature"). SOI immediately followed
        // by EOI gets the same UnsupportedFeature error from Parse.
        return 0, 0, nil, nil, errs.New( errs.UnsupportedFeature, "jpeg", "no frame found (missing SOF/SOS)" )
    }

    samples, err := jpg.MakeFrameRawPicture( 0 )
    if err != nil {
        return 0, 0, nil, nil, errors.Wrap( err, "jpeg.Decode: raw picture" )
    }

    frm := &jpg.frames[0]
    o, _ := jpg.GetImageOrientation()

    switch len( samples ) {
    case 1:
        width, height, rgb, err = jpg.rasterizeGray( frm, samples, o )
    case 3:
        width, height, rgb, err = jpg.rasterizeYCbCr( frm, samples, o )
    default:
        err = errors.Errorf( "jpeg.Decode: unsupported component count %d", len( samples ) )
    }
    if err != nil {
        return 0, 0, nil, nil, errors.Wrap( err, "jpeg.Decode: rasterize" )
    }

    rgba := image.NewRGBA( image.Rect( 0, 0, width, height ) )
    for y := 0; y < height; y++ {
        for x := 0; x < width; x++ {
            i := (y*width + x) * 3
            rgba.SetRGBA( x, y, color.RGBA{ R: rgb[i], G: rgb[i+1], B: rgb[i+2], A: 0xff } )
        }
    }
    return width, height, rgb, rgba, nil
}

// orientedDims returns the width/height of the rasterized picture once the
// given orientation (if any) has swapped rows and columns.
func orientedDims( cols, rows uint, o *Orientation ) (nc, nr uint, swapped bool) {
    if o == nil || (o.Row0 == Top && o.Col0 == Left) ||
        (o.Row0 == Top && o.Col0 == Right) ||
        (o.Row0 == Bottom && o.Col0 == Left) ||
        (o.Row0 == Bottom && o.Col0 == Right) {
        return cols, rows, false
    }
    return rows, cols, true
}

// pixelMapper returns a function translating a destination (row, col) pair
// into the source (row, col) to read, per the eight EXIF orientation codes.
func pixelMapper( o *Orientation, srcRows, srcCols uint ) func(r, c uint) (sr, sc uint) {
    if o == nil || (o.Row0 == Top && o.Col0 == Left) {
        return func(r, c uint) (uint, uint) { return r, c }
    }
    switch {
    case o.Row0 == Top && o.Col0 == Right:
        return func(r, c uint) (uint, uint) { return r, srcCols - 1 - c }
    case o.Row0 == Bottom && o.Col0 == Right:
        return func(r, c uint) (uint, uint) { return srcRows - 1 - r, srcCols - 1 - c }
    case o.Row0 == Bottom && o.Col0 == Left:
        return func(r, c uint) (uint, uint) { return srcRows - 1 - r, c }
    case o.Row0 == Right && o.Col0 == Top:
        return func(r, c uint) (uint, uint) { return c, srcRows - 1 - r }
    case o.Row0 == Right && o.Col0 == Bottom:
        return func(r, c uint) (uint, uint) { return srcCols - 1 - c, srcRows - 1 - r }
    case o.Row0 == Left && o.Col0 == Bottom:
        return func(r, c uint) (uint, uint) { return srcCols - 1 - c, r }
    case o.Row0 == Left && o.Col0 == Top:
        return func(r, c uint) (uint, uint) { return c, r }
    }
    return func(r, c uint) (uint, uint) { return r, c }
}

func (jpg *Desc) rasterizeGray( frm *frame, samples [](*[]uint8), o *Orientation ) (int, int, []byte, error) {
    cols := uint(frm.resolution.nSamplesLine)
    rows := uint(frm.resolution.nLines)
    stride := frm.components[0].nUnitsRow << 3
    Y := samples[0]

    nc, nr, _ := orientedDims( cols, rows, o )
    mapper := pixelMapper( o, rows, cols )

    out := make( []byte, nc*nr*3 )
    for r := uint(0); r < nr; r++ {
        for c := uint(0); c < nc; c++ {
            sr, sc := mapper( r, c )
            v := (*Y)[sr*stride+sc]
            i := (r*nc + c) * 3
            out[i], out[i+1], out[i+2] = v, v, v
        }
    }
    return int(nc), int(nr), out, nil
}

func (jpg *Desc) rasterizeYCbCr( frm *frame, samples [](*[]uint8), o *Orientation ) (int, int, []byte, error) {
    cols := uint(frm.resolution.nSamplesLine)
    rows := uint(frm.resolution.nLines)

    Y, Cb, Cr := samples[0], samples[1], samples[2]
    cmps := frm.components
    yHSF, yVSF := uint(cmps[0].HSF), uint(cmps[0].VSF)
    yStride := cmps[0].nUnitsRow << 3
    CbHSF, CbVSF, CbStride := uint(cmps[1].HSF), uint(cmps[1].VSF), cmps[1].nUnitsRow<<3
    CrHSF, CrVSF, CrStride := uint(cmps[2].HSF), uint(cmps[2].VSF), cmps[2].nUnitsRow<<3

    nc, nr, _ := orientedDims( cols, rows, o )
    mapper := pixelMapper( o, rows, cols )

    out := make( []byte, nc*nr*3 )
    for r := uint(0); r < nr; r++ {
        for c := uint(0); c < nc; c++ {
            sr, sc := mapper( r, c )
            Ys := float32( (*Y)[sr*yStride+sc] )
            Cbs := float32( (*Cb)[((sr*CbVSF)/yVSF)*CbStride+(sc*CbHSF)/yHSF] )
            Crs := float32( (*Cr)[((sr*CrVSF)/yVSF)*CrStride+(sc*CrHSF)/yHSF] )

            rs := int( 0.5 + Ys + 1.402*(Crs-128.0) )
            if rs < 0 { rs = 0 } else if rs > 255 { rs = 255 }
            gs := int( 0.5 + Ys - 0.34414*(Cbs-128.0) - 0.71414*(Crs-128.0) )
            if gs < 0 { gs = 0 } else if gs > 255 { gs = 255 }
            bs := int( 0.5 + Ys + 1.772*(Cbs-128.0) )
            if bs < 0 { bs = 0 } else if bs > 255 { bs = 255 }

            i := (r*nc + c) * 3
            out[i], out[i+1], out[i+2] = byte(rs), byte(gs), byte(bs)
        }
    }
    return int(nc), int(nr), out, nil
}
