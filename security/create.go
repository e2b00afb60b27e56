package security

import (
	"crypto/aes"
	"io"

	"github.com/corvidfax/pdfcore/errs"
)

// CreateEncryptDict implements spec §6's "encrypt(...) mirrors decrypt
// for newly authored documents": given a target method and a pair of
// passwords, it builds a fresh EncryptDict (O/U, or OE/UE/Perms for R6)
// and returns a KeyHandle ready to encrypt objects with. rand supplies
// the randomness this module never generates itself (spec §5).
func CreateEncryptDict(r int, userPwd, ownerPwd string, perm Perm, rand io.Reader, docID []byte, p Params) (*EncryptDict, *KeyHandle, error) {
	if ownerPwd == "" {
		ownerPwd = userPwd
	}

	var m method
	switch r {
	case 2:
		m = method{cipherRC4, 5}
	case 3, 4:
		m = method{cipherRC4, 16}
	case 6:
		m = method{cipherAES256, 32}
	default:
		return nil, nil, errs.New(errs.UnsupportedFeature, "security", "unsupported revision %d", r)
	}

	d := &EncryptDict{
		R:               r,
		P:               encodePermissions(perm),
		EncryptMetadata: true,
	}
	if r == 4 {
		d.V = 4
		d.StmCipher = cipherRC4
	} else if r == 6 {
		d.V = 5
	} else if r == 3 {
		d.V = 2
	} else {
		d.V = 1
	}

	switch r {
	case 2, 3, 4:
		paddedUser := padPassword(pdfDocEncode(userPwd))
		paddedOwner := padPassword(pdfDocEncode(ownerPwd))

		ownerKey := ownerOnlyKey(paddedOwner, r, m.keyBytes)
		o, err := rc4EncryptO(ownerKey, paddedUser, r)
		if err != nil {
			return nil, nil, err
		}
		d.O = o

		fileKey := fileEncryptionKey(d, paddedUser, docID, m.keyBytes)
		d.U = computeU(d, docID, fileKey)

		p.Log.log("security: created R%d encrypt dict", r)
		return d, &KeyHandle{fileKey: fileKey, method: m, r: r, byOwner: true}, nil

	case 6:
		utf8User, err := prepareUTF8Password(userPwd)
		if err != nil {
			return nil, nil, err
		}
		utf8Owner, err := prepareUTF8Password(ownerPwd)
		if err != nil {
			return nil, nil, err
		}

		fileKey := make([]byte, 32)
		if _, err := io.ReadFull(rand, fileKey); err != nil {
			return nil, nil, errs.New(errs.Malformed, "security", "random file key: %v", err)
		}

		u, ue, err := computeUAndUE(rand, utf8User, fileKey)
		if err != nil {
			return nil, nil, err
		}
		d.U, d.UE = u, ue

		o, oe, err := computeOAndOE(rand, utf8Owner, fileKey, d.U)
		if err != nil {
			return nil, nil, err
		}
		d.O, d.OE = o, oe

		d.Perms = computePerms(d, fileKey)

		p.Log.log("security: created R6 encrypt dict")
		return d, &KeyHandle{fileKey: fileKey, method: m, r: r, byOwner: true}, nil

	default:
		panic("unreachable")
	}
}

// rc4EncryptO implements Algorithm 3: RC4-encrypt the padded user
// password with the owner key, then (R>=3) iterate 19 more times with
// the key XORed by 1..19.
func rc4EncryptO(ownerKey, paddedUserPwd []byte, r int) ([]byte, error) {
	o, err := rc4Crypt(ownerKey, paddedUserPwd)
	if err != nil {
		return nil, err
	}
	if r >= 3 {
		tmp := make([]byte, len(ownerKey))
		for i := 1; i <= 19; i++ {
			for j := range tmp {
				tmp[j] = ownerKey[j] ^ byte(i)
			}
			o, err = rc4Crypt(tmp, o)
			if err != nil {
				return nil, err
			}
		}
	}
	return o, nil
}

// computeUAndUE implements Algorithm 8.
func computeUAndUE(rand io.Reader, utf8UserPwd, fileKey []byte) ([]byte, []byte, error) {
	salts := make([]byte, 16)
	if _, err := io.ReadFull(rand, salts); err != nil {
		return nil, nil, errs.New(errs.Malformed, "security", "random salts: %v", err)
	}

	validation := slowHash(utf8UserPwd, salts[:8], nil)
	u := append(append([]byte{}, validation...), salts...)

	key := slowHash(utf8UserPwd, salts[8:], nil)
	ue, err := aesCBCNoPad(key, zero16, fileKey, true)
	if err != nil {
		return nil, nil, err
	}
	return u, ue, nil
}

// computeOAndOE implements Algorithm 9.
func computeOAndOE(rand io.Reader, utf8OwnerPwd, fileKey, u []byte) ([]byte, []byte, error) {
	salts := make([]byte, 16)
	if _, err := io.ReadFull(rand, salts); err != nil {
		return nil, nil, errs.New(errs.Malformed, "security", "random salts: %v", err)
	}

	validation := slowHash(utf8OwnerPwd, salts[:8], u)
	o := append(append([]byte{}, validation...), salts...)

	key := slowHash(utf8OwnerPwd, salts[8:], u)
	oe, err := aesCBCNoPad(key, zero16, fileKey, true)
	if err != nil {
		return nil, nil, err
	}
	return o, oe, nil
}

// computePerms implements Algorithm 10.
func computePerms(d *EncryptDict, fileKey []byte) []byte {
	buf := make([]byte, 16)
	p := uint32(d.P)
	buf[0], buf[1], buf[2], buf[3] = byte(p), byte(p>>8), byte(p>>16), byte(p>>24)
	buf[4], buf[5], buf[6], buf[7] = 0xFF, 0xFF, 0xFF, 0xFF
	if d.EncryptMetadata {
		buf[8] = 'T'
	} else {
		buf[8] = 'F'
	}
	buf[9], buf[10], buf[11] = 'a', 'd', 'b'

	c, _ := aes.NewCipher(fileKey)
	c.Encrypt(buf, buf)
	return buf
}

// encodePermissions is the inverse of decodePermissions: it sets the
// unused high bits per ISO 32000-1 (bits not in Table 22 default to 1).
func encodePermissions(perm Perm) int32 {
	var p int32 = -4 // bits 0-1 reserved 0, rest default 1 (~3)
	set := func(bit int, flag Perm) {
		if perm&flag != 0 {
			p |= 1 << (bit - 1)
		} else {
			p &^= 1 << (bit - 1)
		}
	}
	set(3, PermPrint)
	set(4, PermModifyContents)
	set(5, PermCopyContent)
	set(6, PermModifyAnnotations)
	set(9, PermFillForms)
	set(10, PermExtractForAccessibility)
	set(11, PermAssembleDocument)
	set(12, PermPrintHighQuality)
	return p
}
