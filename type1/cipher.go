package type1

// eexec and charstring decryption share the same stream cipher (Adobe
// Type 1 Font Format §7.3); only the initial state r and the number of
// discarded leading bytes differ between the two uses.

const (
	eexecR      = 55665
	charstringR = 4330
	cipherC1    = 52845
	cipherC2    = 22719
)

// decrypt runs the Type 1 stream cipher over cipherText, discarding the
// first skip plaintext bytes (they are random padding, not real content).
func decrypt(cipherText []byte, r uint16, skip int) []byte {
	plain := make([]byte, 0, len(cipherText))
	for _, c := range cipherText {
		p := c ^ byte(r>>8)
		r = (uint16(c)+r)*cipherC1 + cipherC2
		plain = append(plain, p)
	}
	if skip >= len(plain) {
		return nil
	}
	return plain[skip:]
}

func decryptEexec(cipherText []byte) []byte {
	return decrypt(cipherText, eexecR, 4)
}

func decryptCharstring(cipherText []byte, lenIV int) []byte {
	if lenIV < 0 {
		lenIV = 4
	}
	return decrypt(cipherText, charstringR, lenIV)
}
