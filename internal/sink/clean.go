package sink

import (
	"strings"
	"unicode/utf8"
)

// Clean makes callback text safe to hand across a string boundary: invalid
// UTF-8 sequences become U+FFFD and NUL bytes are removed.
func Clean(s string) string {
	if utf8.ValidString(s) && strings.IndexByte(s, 0) < 0 {
		return s
	}
	s = strings.ToValidUTF8(s, "�")
	return strings.ReplaceAll(s, "\x00", "")
}
