// Package security implements the PDF standard security handler (ISO
// 32000-1 §7.6): password-based derivation of the file and per-object
// encryption keys, and the RC4/AES-CBC envelopes those keys protect
// object strings and streams with.
package security

// Logger receives optional diagnostic output from CreateEncryptDict;
// the zero value is a no-op, as with ccitt's Logger.
type Logger func(format string, args ...any)

func (l Logger) log(format string, args ...any) {
	if l != nil {
		l(format, args...)
	}
}

// Params carries the per-call options CreateEncryptDict accepts
// (Authenticate takes none), standing in for configuration the way
// ccitt.Options and jpeg.Control do for their subsystems.
type Params struct {
	Log Logger
}
