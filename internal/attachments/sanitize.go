package attachments

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const pdfExtension = ".pdf"

// SanitizeFilename turns untrusted attachment metadata into a safe file name.
// The name is NFKD-decomposed, non-ASCII runes are dropped, everything outside
// [A-Za-z0-9_.-] becomes '_', and ".pdf" is appended when missing. A name that
// sanitizes to nothing becomes "attachment_<index>.pdf".
func SanitizeFilename(name string, index int) string {
	decomposed := norm.NFKD.String(name)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		switch {
		case r > 0x7f:
			// not representable in ASCII
		case isSafeByte(byte(r)):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := b.String()
	if out == "" {
		out = PlaceholderName(index)
	}
	if !strings.HasSuffix(out, pdfExtension) {
		out += pdfExtension
	}
	return out
}

// PlaceholderName is the deterministic stem used for unnamed attachments
func PlaceholderName(index int) string {
	return fmt.Sprintf("attachment_%d", index)
}

// IsSafeFilename reports whether name only uses the sanitized alphabet and
// ends with ".pdf".
func IsSafeFilename(name string) bool {
	if !strings.HasSuffix(name, pdfExtension) {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isSafeByte(name[i]) {
			return false
		}
	}
	return true
}

func isSafeByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_', c == '-', c == '.':
		return true
	}
	return false
}
