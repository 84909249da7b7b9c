package http

import (
	"strings"
	"unicode"
)

// maxHeaderValue bounds identity header values copied into logs and events.
const maxHeaderValue = 256

// sanitizeHeader trims an identity header, drops control characters and
// caps its length. The values end up in structured logs and the event
// stream, so escape sequences and newlines are removed.
func sanitizeHeader(v string) string {
	v = strings.TrimSpace(v)
	clean := true
	for _, r := range v {
		if unicode.IsControl(r) {
			clean = false
			break
		}
	}
	if !clean {
		var b strings.Builder
		b.Grow(len(v))
		for _, r := range v {
			if !unicode.IsControl(r) {
				b.WriteRune(r)
			}
		}
		v = b.String()
	}
	if len(v) > maxHeaderValue {
		// Cut on a rune boundary.
		cut := maxHeaderValue
		for cut > 0 && !utf8RuneStart(v[cut]) {
			cut--
		}
		v = v[:cut]
	}
	return v
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }
