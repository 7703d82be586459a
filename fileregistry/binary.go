package fileregistry

import (
	"bytes"
	"unicode/utf8"
)

// IsBinary sniffs a leading sample: a NUL byte, or more than 30% of bytes
// outside printable ASCII and common control characters, marks binary
// content. Multi-byte UTF-8 sequences count as text.
func IsBinary(sample []byte) bool {
	if len(sample) == 0 {
		return false
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return true
	}

	nontext := 0
	for i := 0; i < len(sample); {
		b := sample[i]
		switch {
		case b >= 32 && b < 127, b == '\n', b == '\r', b == '\t', b == '\b':
			i++
			continue
		case b >= utf8.RuneSelf:
			r, size := utf8.DecodeRune(sample[i:])
			// A rune cut off by the sample boundary is not evidence either way.
			if r != utf8.RuneError || size > 1 || !utf8.FullRune(sample[i:]) {
				i += size
				continue
			}
		}
		nontext++
		i++
	}

	return float64(nontext)/float64(len(sample)) > binaryThreshold
}
