package type1

// standardEncoding maps character codes to glyph names per Adobe's
// StandardEncoding vector (PostScript Language Reference, Appendix B).
// It is used only by seac to resolve the base/accent character codes to
// glyph names looked up in CharStrings; codes absent from the map have
// no StandardEncoding glyph.
var standardEncoding = buildStandardEncoding()

func buildStandardEncoding() map[int]string {
	m := map[int]string{
		32: "space", 33: "exclam", 34: "quotedbl", 35: "numbersign",
		36: "dollar", 37: "percent", 38: "ampersand", 39: "quoteright",
		40: "parenleft", 41: "parenright", 42: "asterisk", 43: "plus",
		44: "comma", 45: "hyphen", 46: "period", 47: "slash",
		48: "zero", 49: "one", 50: "two", 51: "three", 52: "four",
		53: "five", 54: "six", 55: "seven", 56: "eight", 57: "nine",
		58: "colon", 59: "semicolon", 60: "less", 61: "equal",
		62: "greater", 63: "question", 64: "at",
		91: "bracketleft", 92: "backslash", 93: "bracketright",
		94: "asciicircum", 95: "underscore", 96: "quoteleft",
		123: "braceleft", 124: "bar", 125: "braceright", 126: "asciitilde",
		161: "exclamdown", 162: "cent", 163: "sterling", 164: "fraction",
		165: "yen", 166: "florin", 167: "section", 168: "currency",
		169: "quotesingle", 170: "quotedblleft", 171: "guillemotleft",
		172: "guilsinglleft", 173: "guilsinglright", 174: "fi", 175: "fl",
		177: "endash", 178: "dagger", 179: "daggerdbl",
		180: "periodcentered", 182: "paragraph", 183: "bullet",
		184: "quotesinglbase", 185: "quotedblbase", 186: "quotedblright",
		187: "guillemotright", 188: "ellipsis", 189: "perthousand",
		191: "questiondown", 193: "grave", 194: "acute", 195: "circumflex",
		196: "tilde", 197: "macron", 198: "breve", 199: "dotaccent",
		200: "dieresis", 202: "ring", 203: "cedilla", 205: "hungarumlaut",
		206: "ogonek", 207: "caron", 208: "emdash", 225: "AE",
		227: "ordfeminine", 232: "Lslash", 233: "Oslash", 234: "OE",
		235: "ordmasculine", 241: "ae", 245: "dotlessi", 248: "lslash",
		249: "oslash", 250: "oe", 251: "germandbls",
	}
	for c := 65; c <= 90; c++ {
		m[c] = string(rune('A' + (c - 65)))
	}
	for c := 97; c <= 122; c++ {
		m[c] = string(rune('a' + (c - 97)))
	}
	return m
}
