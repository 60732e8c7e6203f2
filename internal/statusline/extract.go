package statusline

import (
	"bytes"
	"strings"
)

// firstLine returns the first line of out, with invalid UTF-8 replaced and
// surrounding whitespace trimmed. A blank line yields nil.
func firstLine(out []byte) *string {
	if i := bytes.IndexByte(out, '\n'); i >= 0 {
		out = out[:i]
	}
	line := strings.TrimSpace(strings.ToValidUTF8(string(out), "\uFFFD"))
	if line == "" {
		return nil
	}
	return &line
}
