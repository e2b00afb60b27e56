// Package errs defines the typed error taxonomy shared by every decoder
// in this module (bitio's callers, ccitt, jpeg, type1, security), so that
// a caller can dispatch on failure class with a single errors.As site
// regardless of which subsystem raised it.
package errs

import "fmt"

// Kind classifies a failure the way the retrieved codecs do: by whether
// resuming makes sense, not by which package raised it.
type Kind int

const (
	// TruncatedInput means the input ended mid-codeword. Some callers can
	// proceed with the partial decode already produced.
	TruncatedInput Kind = iota
	// UnsupportedFeature means the input is well-formed but exercises a
	// feature this decoder deliberately does not implement (progressive
	// JPEG, arithmetic coding, an undocumented CCITT group, LenIV outside
	// [0,16], ...). Always fatal.
	UnsupportedFeature
	// BadHuffmanCode means a bit sequence matched no entry of the active
	// Huffman table. Row-local in CCITT, fatal in JPEG outside a restart
	// interval.
	BadHuffmanCode
	// BadDimensions means a decoded pixel count disagrees with the
	// declared width/height.
	BadDimensions
	// Authentication means a PDF security handler could not validate the
	// supplied password against either the user or owner route.
	Authentication
	// Malformed means a marker, segment, or dictionary could not be
	// parsed at all (bad length, missing required key, ...). Always
	// fatal.
	Malformed
)

func (k Kind) String() string {
	switch k {
	case TruncatedInput:
		return "truncated input"
	case UnsupportedFeature:
		return "unsupported feature"
	case BadHuffmanCode:
		return "bad huffman code"
	case BadDimensions:
		return "bad dimensions"
	case Authentication:
		return "authentication failed"
	case Malformed:
		return "malformed input"
	default:
		return "unknown error"
	}
}

// Error is the concrete type every leaf error in this module uses. It
// carries the stage that detected the problem (e.g. "ccitt", "jpeg.sos",
// "security.algorithm2") alongside the classification. Cause is the
// underlying error that crossed a subsystem boundary to produce this one,
// if any; it's nil for errors built with New.
type Error struct {
	Kind  Kind
	Stage string
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Kind, e.Msg)
}

// Unwrap exposes Cause so errors.Is/errors.As can see past the boundary
// this Error was raised at, down to whatever the underlying library
// (crypto/aes, crypto/rc4, ...) actually returned.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds a typed Error with no wrapped cause.
func New(kind Kind, stage, format string, args ...any) *Error {
	return &Error{Kind: kind, Stage: stage, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds a typed Error that preserves cause as its Unwrap target, for
// use where a lower-level library error crosses into this taxonomy.
func Wrap(kind Kind, stage string, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Stage: stage, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// Is lets errors.Is(err, errs.TruncatedInput) work directly against a
// Kind value, without the caller constructing an *Error to compare.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
