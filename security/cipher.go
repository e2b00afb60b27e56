package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rc4"

	pkgerrors "github.com/pkg/errors"

	"github.com/corvidfax/pdfcore/errs"
)

// cipherType selects the stream/block cipher an object or the file itself
// is protected with (spec §4.E version mapping table).
type cipherType int

const (
	cipherRC4 cipherType = iota
	cipherAES128
	cipherAES256
)

var zero16 = make([]byte, 16)

// rc4Crypt returns a new slice holding buf XORed against the RC4 keystream
// derived from key; buf itself is not modified. RC4 is its own inverse, so
// this serves both directions.
func rc4Crypt(key, buf []byte) ([]byte, error) {
	c, err := rc4.NewCipher(key)
	if err != nil {
		return nil, errs.Wrap(errs.Malformed, "security", pkgerrors.Wrap(err, "rc4"), "rc4 key setup failed")
	}
	out := make([]byte, len(buf))
	c.XORKeyStream(out, buf)
	return out, nil
}

// decryptAESCBC reads the IV from the first 16 bytes of buf, CBC-decrypts
// the remainder, and strips PKCS#7 padding per spec §4.E's AES-CBC
// envelope rule: stripped only when all trailing bytes equal the padding
// length and that length is in [1, 16].
func decryptAESCBC(key, buf []byte) ([]byte, error) {
	if len(buf) < 16 {
		return nil, errs.New(errs.Malformed, "security", "AES-CBC: input shorter than IV (%d bytes)", len(buf))
	}
	iv := buf[:16]
	data := buf[16:]
	if len(data) == 0 {
		return data, nil
	}
	if len(data)%16 != 0 {
		return nil, errs.New(errs.Malformed, "security", "AES-CBC: ciphertext length %d not a multiple of 16", len(data))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errs.Wrap(errs.Malformed, "security", pkgerrors.Wrap(err, "aes"), "AES-CBC key setup failed")
	}
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)

	n := int(out[len(out)-1])
	if n < 1 || n > 16 || n > len(out) {
		return out, nil
	}
	for _, b := range out[len(out)-n:] {
		if int(b) != n {
			return out, nil
		}
	}
	return out[:len(out)-n], nil
}

// encryptAESCBC uses the caller-supplied 16-byte randomIV, PKCS#7-pads buf
// to a whole number of blocks, and CBC-encrypts it, returning
// iv‖ciphertext (the same envelope decryptAESCBC consumes).
func encryptAESCBC(key, buf []byte, randomIV []byte) ([]byte, error) {
	if len(randomIV) != 16 {
		return nil, errs.New(errs.Malformed, "security", "AES-CBC: IV must be 16 bytes")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errs.Wrap(errs.Malformed, "security", pkgerrors.Wrap(err, "aes"), "AES-CBC key setup failed")
	}
	pad := 16 - len(buf)%16
	padded := make([]byte, len(buf)+pad)
	copy(padded, buf)
	for i := len(buf); i < len(padded); i++ {
		padded[i] = byte(pad)
	}
	out := make([]byte, 16+len(padded))
	copy(out, randomIV)
	cipher.NewCBCEncrypter(block, randomIV).CryptBlocks(out[16:], padded)
	return out, nil
}

// aesCBCNoPad runs plain AES-CBC with a fixed IV and no padding; the key
// length selects the AES variant (32-byte keys, as the R6 UE/OE envelopes
// use, give AES-256). slowHash's round loop does its own AES-128-CBC step
// and does not call this helper.
func aesCBCNoPad(key, iv, buf []byte, encrypt bool) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errs.Wrap(errs.Malformed, "security", pkgerrors.Wrap(err, "aes"), "AES-CBC key setup failed")
	}
	out := make([]byte, len(buf))
	if encrypt {
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, buf)
	} else {
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, buf)
	}
	return out, nil
}
