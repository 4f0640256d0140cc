package main

// The KLyr payload and the chord markers embedded in tagged MIDI files use
// the legacy Thai single-byte encoding (TIS-620). ASCII passes through
// unchanged, the Thai block U+0E01-U+0E5B maps onto 0xA1-0xFB, and anything
// outside both ranges becomes '?'. The mapping is a fixed arithmetic offset,
// so the transcode is implemented directly instead of going through a
// charmap table.

const tis620Offset = 0x0E01 - 0xA1

// EncodeTIS620 converts a UTF-8 string to TIS-620 bytes.
func EncodeTIS620(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case r < 0x80:
			out = append(out, byte(r))
		case r >= 0x0E01 && r <= 0x0E5B:
			out = append(out, byte(r-tis620Offset))
		default:
			out = append(out, '?')
		}
	}
	return out
}

// DecodeTIS620 converts TIS-620 bytes back to a UTF-8 string.
func DecodeTIS620(data []byte) string {
	out := make([]rune, 0, len(data))
	for _, b := range data {
		switch {
		case b < 0x80:
			out = append(out, rune(b))
		case b >= 0xA1 && b <= 0xFB:
			out = append(out, rune(b)+tis620Offset)
		default:
			out = append(out, '?')
		}
	}
	return string(out)
}
