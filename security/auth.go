package security

import (
	"bytes"

	"github.com/corvidfax/pdfcore/errs"
)

// Authenticate implements spec §6's "authenticate(encrypt_dict,
// document_id, password) -> key_handle | SecurityError". It tries the
// supplied password as both owner and user credential (spec §4.E,
// "Failure surface"); if the password is non-empty and both routes fail,
// it retries once with an empty password before giving up, matching
// readers that fall back to the default user password.
func Authenticate(d *EncryptDict, docID []byte, password string) (*KeyHandle, error) {
	m, err := d.resolveMethod()
	if err != nil {
		return nil, err
	}

	tries := []string{password}
	if password != "" {
		tries = append(tries, "")
	}

	for _, pw := range tries {
		var k *KeyHandle
		var err error
		if d.R == 6 {
			k, err = authenticateR6(d, m, pw)
		} else {
			k, err = authenticateLegacy(d, docID, m, pw)
		}
		if err == nil {
			return k, nil
		}
	}
	return nil, errs.New(errs.Authentication, "security", "password did not validate via user or owner route")
}

// authenticateLegacy covers R2-R4 (Algorithms 4/5/6/7).
func authenticateLegacy(d *EncryptDict, docID []byte, m method, password string) (*KeyHandle, error) {
	padded := padPassword(pdfDocEncode(password))

	// Owner route: recover the user password candidate from O (Algorithm
	// 7), then run it through the user-password check (Algorithm 6).
	if key, ok := recoverUserPasswordViaOwner(d, docID, m, padded); ok {
		return &KeyHandle{fileKey: key, method: m, r: d.R, byOwner: true}, nil
	}

	// User route: Algorithm 2 then Algorithm 6.
	key := fileEncryptionKey(d, padded, docID, m.keyBytes)
	u := computeU(d, docID, key)
	if userUMatches(d, u) {
		return &KeyHandle{fileKey: key, method: m, r: d.R, byOwner: false}, nil
	}
	return nil, errs.New(errs.Authentication, "security", "user/owner password check failed")
}

// recoverUserPasswordViaOwner implements Algorithm 7: derive an
// owner-only key (same as Algorithm 2 but without O/P/id folded in,
// i.e. hashed from the padded owner password alone), RC4-decrypt O with
// it (R2 single pass, R>=3 twenty decreasing iterations) to recover a
// user password candidate, then verify that candidate via Algorithm 6.
func recoverUserPasswordViaOwner(d *EncryptDict, docID []byte, m method, paddedOwnerPwd []byte) ([]byte, bool) {
	ownerKey := ownerOnlyKey(paddedOwnerPwd, d.R, m.keyBytes)

	candidate := make([]byte, len(d.O))
	copy(candidate, d.O)

	var err error
	switch d.R {
	case 2:
		candidate, err = rc4Crypt(ownerKey, candidate)
	default:
		tmp := make([]byte, len(ownerKey))
		for i := 19; i >= 0; i-- {
			for j := range tmp {
				tmp[j] = ownerKey[j] ^ byte(i)
			}
			candidate, err = rc4Crypt(tmp, candidate)
			if err != nil {
				break
			}
		}
	}
	if err != nil {
		return nil, false
	}

	key := fileEncryptionKey(d, candidate, docID, m.keyBytes)
	u := computeU(d, docID, key)
	if userUMatches(d, u) {
		return key, true
	}
	return nil, false
}

func userUMatches(d *EncryptDict, computed []byte) bool {
	if d.R == 2 {
		return bytes.Equal(computed, d.U)
	}
	return len(d.U) >= 16 && bytes.Equal(computed[:16], d.U[:16])
}

// computeU implements Algorithms 4/5: R2 is a single RC4 pass over the
// pad string; R>=3 hashes pad‖docID with MD5, then runs 20 RC4
// iterations keyed by fileKey XOR i for i=0..19.
func computeU(d *EncryptDict, docID, fileKey []byte) []byte {
	switch d.R {
	case 2:
		u, _ := rc4Crypt(fileKey, passwdPad)
		return u
	default:
		h := md5Sum(passwdPad, docID)
		u := h
		tmp := make([]byte, len(fileKey))
		for i := 0; i <= 19; i++ {
			for j := range tmp {
				tmp[j] = fileKey[j] ^ byte(i)
			}
			u, _ = rc4Crypt(tmp, u)
		}
		out := make([]byte, 32)
		copy(out, u[:16])
		return out
	}
}

// ownerOnlyKey derives the Algorithm-2-shaped key used only to decrypt
// O, built from the padded owner password alone (no O/P/docID folded
// in, since O is exactly what this key is used to recover).
func ownerOnlyKey(paddedOwnerPwd []byte, r, keyBytes int) []byte {
	sum := md5Sum(paddedOwnerPwd)
	if r >= 3 {
		for i := 0; i < 50; i++ {
			sum = md5Sum(sum[:keyBytes])
		}
	}
	return sum[:keyBytes]
}

// authenticateR6 covers R6 (Algorithms 8-12): validate against the
// owner route first (mirrors the legacy preference order), then the
// user route, each checking the 32-byte SHA hash before unwrapping the
// file key from UE/OE with a zero IV, then cross-checking Perms.
func authenticateR6(d *EncryptDict, m method, password string) (*KeyHandle, error) {
	pw, err := prepareUTF8Password(password)
	if err != nil {
		return nil, errs.New(errs.Authentication, "security", "password preparation failed: %v", err)
	}

	if len(d.O) >= 48 && len(d.OE) == 32 {
		hash := slowHash(pw, d.O[32:40], d.U)
		if bytes.Equal(hash, d.O[:32]) {
			key, err := aesCBCNoPad(slowHash(pw, d.O[40:48], d.U), zero16, d.OE, false)
			if err == nil && checkPerms(d, key) {
				return &KeyHandle{fileKey: key, method: m, r: d.R, byOwner: true}, nil
			}
		}
	}

	if len(d.U) >= 48 && len(d.UE) == 32 {
		hash := slowHash(pw, d.U[32:40], nil)
		if bytes.Equal(hash, d.U[:32]) {
			key, err := aesCBCNoPad(slowHash(pw, d.U[40:48], nil), zero16, d.UE, false)
			if err == nil && checkPerms(d, key) {
				return &KeyHandle{fileKey: key, method: m, r: d.R, byOwner: false}, nil
			}
		}
	}

	return nil, errs.New(errs.Authentication, "security", "R6 user/owner password check failed")
}

// checkPerms decrypts the Perms entry with the candidate file key and
// cross-validates it against P and EncryptMetadata, per spec §4.E's
// AES-256 paragraph.
func checkPerms(d *EncryptDict, fileKey []byte) bool {
	if len(d.Perms) != 16 {
		return true // no Perms to cross-check against
	}
	buf, err := aesECBDecryptBlock(fileKey, d.Perms)
	if err != nil {
		return false
	}
	if buf[9] != 'a' || buf[10] != 'd' || buf[11] != 'b' {
		return false
	}
	p := int32(uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24)
	if p != d.P {
		return false
	}
	wantMeta := byte('T')
	if !d.EncryptMetadata {
		wantMeta = 'F'
	}
	return buf[8] == wantMeta
}
