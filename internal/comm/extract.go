package comm

import "strings"

// ExtractLoginCode pulls the authorization code out of a redirect callback
// payload. It locates the last "code=" marker and consumes the contiguous
// run of alphanumeric characters that follows. Malformed payloads (no
// marker, or a code truncated to nothing) yield an empty string, which
// downstream consumers must reject instead of exchanging.
func ExtractLoginCode(payload string) string {
	const marker = "code="
	pos := strings.LastIndex(payload, marker)
	if pos < 0 {
		return ""
	}
	var b strings.Builder
	for i := pos + len(marker); i < len(payload); i++ {
		ch := payload[i]
		if (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			b.WriteByte(ch)
			continue
		}
		break
	}
	return b.String()
}
