package formdata

import (
	"regexp"
)

// SplitBody splits a raw multipart body into its parts. A delimiter is an
// optional line break, one or more '-' and the literal boundary. The segment
// following the final delimiter is the closing marker plus any epilogue and
// is always dropped. Segments may be empty, typically the preamble.
func SplitBody(body []byte, boundary string) [][]byte {
	delimiter := regexp.MustCompile(`(?:\r\n|\n|\r)?-+` + regexp.QuoteMeta(boundary))

	var parts [][]byte
	start := 0
	for _, loc := range delimiter.FindAllIndex(body, -1) {
		parts = append(parts, body[start:loc[0]])
		start = loc[1]
	}
	parts = append(parts, body[start:])

	return parts[:len(parts)-1]
}

// splitPart separates a part into its header block and payload at the first
// blank line.
func splitPart(part []byte) (header string, payload []byte, ok bool) {
	for i := range part {
		n := lineBreakAt(part, i)
		if n == 0 {
			continue
		}
		if m := lineBreakAt(part, i+n); m > 0 {
			return string(part[:i]), part[i+n+m:], true
		}
	}
	return "", nil, false
}

// lineBreakAt returns the length of the line break starting at b[i]. A CRLF
// is always taken whole, so a lone CRLF is never mistaken for a blank line.
func lineBreakAt(b []byte, i int) int {
	switch {
	case i+1 < len(b) && b[i] == '\r' && b[i+1] == '\n':
		return 2
	case i < len(b) && (b[i] == '\r' || b[i] == '\n'):
		return 1
	}
	return 0
}
