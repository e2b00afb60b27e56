package security

import (
	"crypto/md5"

	"github.com/corvidfax/pdfcore/errs"
)

// KeyHandle is the result of a successful Authenticate call: the derived
// file encryption key plus enough of the resolved method to compute
// per-object keys and pick the right cipher (spec §6, "authenticate(...)
// -> key_handle").
type KeyHandle struct {
	fileKey []byte
	method  method
	r       int
	byOwner bool
}

// AuthenticatedAsOwner reports whether the password that produced this
// handle validated via the owner route (spec §4.E, "A successful
// authentication records whether it was user or owner").
func (k *KeyHandle) AuthenticatedAsOwner() bool { return k.byOwner }

// ObjectKey implements Algorithm 1 (spec §4.E, "Per-object key"):
// file_key ‖ obj_number[0:3] ‖ gen_number[0:2], plus "sAlT" for AES-128,
// MD5'd and truncated to min(keyBytes+5, 16) bytes for RC4; AES-128 keeps
// all 16 bytes. R6/AES-256 uses the file key directly with no per-object
// derivation.
func (k *KeyHandle) ObjectKey(objNum, genNum int) []byte {
	if k.method.cipher == cipherAES256 {
		return k.fileKey
	}

	h := md5.New()
	h.Write(k.fileKey)
	h.Write([]byte{
		byte(objNum), byte(objNum >> 8), byte(objNum >> 16),
		byte(genNum), byte(genNum >> 8),
	})
	if k.method.cipher == cipherAES128 {
		h.Write([]byte("sAlT"))
	}
	sum := h.Sum(nil)

	n := k.method.keyBytes + 5
	if n > 16 || k.method.cipher == cipherAES128 {
		n = 16
	}
	return sum[:n]
}

// Decrypt implements spec §6's "decrypt(key_handle, bytes, obj_num,
// gen_num) -> bytes": derives the per-object key via Algorithm 1 and
// applies RC4 or the AES-CBC envelope depending on the resolved method.
func (k *KeyHandle) Decrypt(buf []byte, objNum, genNum int) ([]byte, error) {
	key := k.ObjectKey(objNum, genNum)
	switch k.method.cipher {
	case cipherRC4:
		return rc4Crypt(key, buf)
	case cipherAES128, cipherAES256:
		return decryptAESCBC(key, buf)
	default:
		return nil, errs.New(errs.Malformed, "security", "unknown cipher")
	}
}

// Encrypt mirrors Decrypt for newly authored documents (spec §6,
// "encrypt(...) mirrors decrypt"). randomIV must be 16 bytes of
// caller-supplied randomness (crypto/rand in practice); this module
// never generates randomness itself, keeping RNG selection the caller's
// responsibility per spec §5's "no subsystem ... global mutable" policy.
func (k *KeyHandle) Encrypt(buf []byte, objNum, genNum int, randomIV []byte) ([]byte, error) {
	key := k.ObjectKey(objNum, genNum)
	switch k.method.cipher {
	case cipherRC4:
		return rc4Crypt(key, buf)
	case cipherAES128, cipherAES256:
		return encryptAESCBC(key, buf, randomIV)
	default:
		return nil, errs.New(errs.Malformed, "security", "unknown cipher")
	}
}
