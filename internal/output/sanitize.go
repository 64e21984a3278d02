package output

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const hexDigits = "0123456789abcdef"

// SanitizeTerminal makes a string safe to print to an interactive
// terminal by rewriting control characters as visible escapes
// ("\x1b", " "). Process names come straight from other users'
// processes and must never be allowed to smuggle escape sequences into
// the caller's terminal. Tabs and newlines pass through; invalid UTF-8
// bytes are escaped byte by byte.
func SanitizeTerminal(s string) string {
	// Fast path: scan until the first byte that needs rewriting.
	idx := 0
	for idx < len(s) {
		r, size := utf8.DecodeRuneInString(s[idx:])
		if r == utf8.RuneError && size == 1 {
			break
		}
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			break
		}
		idx += size
	}
	if idx == len(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	b.WriteString(s[:idx])

	for idx < len(s) {
		r, size := utf8.DecodeRuneInString(s[idx:])
		switch {
		case r == utf8.RuneError && size == 1:
			escapeByte(&b, s[idx])
		case unicode.IsControl(r) && r != '\n' && r != '\t':
			escapeRune(&b, r)
		default:
			b.WriteString(s[idx : idx+size])
		}
		idx += size
	}

	return b.String()
}

func escapeByte(b *strings.Builder, bt byte) {
	b.WriteString(`\x`)
	b.WriteByte(hexDigits[bt>>4])
	b.WriteByte(hexDigits[bt&0x0f])
}

// escapeRune writes "\xHH" for single bytes, "\uHHHH" within the BMP,
// and "\UHHHHHHHH" above it.
func escapeRune(b *strings.Builder, r rune) {
	switch {
	case r <= 0xFF:
		escapeByte(b, byte(r))
	case r <= 0xFFFF:
		b.WriteString(`\u`)
		for shift := 12; shift >= 0; shift -= 4 {
			b.WriteByte(hexDigits[(r>>shift)&0x0f])
		}
	default:
		b.WriteString(`\U`)
		for shift := 28; shift >= 0; shift -= 4 {
			b.WriteByte(hexDigits[(r>>shift)&0x0f])
		}
	}
}
