package handoff

import "strings"

const upperhex = "0123456789ABCDEF"

// Encode percent-encodes s for a URL query value using the same unreserved
// set as JavaScript's encodeURIComponent: letters, digits and -_.!~*'().
// Everything else is escaped byte by byte from its UTF-8 form, so spaces
// become %20 rather than '+'.
func Encode(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
