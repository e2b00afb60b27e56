package security

import (
	"github.com/corvidfax/pdfcore/errs"
)

// EncryptDict is the caller-parsed form of a PDF Encrypt dictionary: the
// lexical tokenizer/xref layer above this module is responsible for
// pulling these fields out of the dictionary object, this module only
// interprets them (spec §1, out of scope: "the PDF lexical tokenizer and
// xref parser").
type EncryptDict struct {
	V int
	R int

	O  []byte
	U  []byte
	OE []byte
	UE []byte

	Perms []byte

	P int32

	// EncryptMetadata mirrors /EncryptMetadata (default true).
	EncryptMetadata bool

	// StmCipher is the CFM the StmF crypt filter declares, used for V=4
	// to decide RC4 vs AES-128 (spec §4.E version mapping table).
	StmCipher cipherType
}

// method describes the resolved (cipher, key length) pair for a given
// (V, R) per spec §4.E's version-mapping table.
type method struct {
	cipher   cipherType
	keyBytes int
}

// resolveMethod implements the spec's version mapping table, returning
// UnsupportedFeature for any (V, R) combination outside it.
func (d *EncryptDict) resolveMethod() (method, error) {
	switch {
	case d.V == 1 && d.R == 2:
		return method{cipherRC4, 5}, nil
	case d.V == 2 && d.R == 3:
		return method{cipherRC4, 16}, nil
	case d.V == 4 && d.R == 4:
		if d.StmCipher == cipherAES128 {
			return method{cipherAES128, 16}, nil
		}
		return method{cipherRC4, 16}, nil
	case d.V == 5 && (d.R == 5 || d.R == 6):
		return method{cipherAES256, 32}, nil
	default:
		return method{}, errs.New(errs.UnsupportedFeature, "security", "unsupported V=%d R=%d combination", d.V, d.R)
	}
}

// Permissions decodes the P entry into the documented permission bits.
func (d *EncryptDict) Permissions() Perm {
	return decodePermissions(d.P)
}
