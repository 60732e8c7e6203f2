package config

import (
	"fmt"
	"strings"
)

// SplitCommand tokenizes s like a POSIX shell, respecting single and double
// quotes and backslash escapes outside quotes. No variable expansion or
// globbing is performed, so a value such as:
//
//	STATUSLINE_COMMAND='my-renderer --format "{model} on {branch}"'
//
// yields three arguments. Blank input yields a nil argv.
func SplitCommand(s string) ([]string, error) {
	var args []string
	var cur strings.Builder
	inSingle := false
	inDouble := false
	// quoted tracks an empty "" or '' token so it still produces an argument.
	quoted := false

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case inSingle:
			if ch == '\'' {
				inSingle = false
			} else {
				cur.WriteByte(ch)
			}
		case inDouble:
			if ch == '\\' && i+1 < len(s) {
				next := s[i+1]
				if next == '"' || next == '\\' || next == '$' || next == '`' || next == '\n' {
					cur.WriteByte(next)
					i++
				} else {
					cur.WriteByte(ch)
				}
			} else if ch == '"' {
				inDouble = false
			} else {
				cur.WriteByte(ch)
			}
		case ch == '\\':
			if i+1 < len(s) {
				cur.WriteByte(s[i+1])
				i++
			}
		case ch == '\'':
			inSingle = true
			quoted = true
		case ch == '"':
			inDouble = true
			quoted = true
		case ch == ' ' || ch == '\t' || ch == '\n':
			if cur.Len() > 0 || quoted {
				args = append(args, cur.String())
				cur.Reset()
				quoted = false
			}
		default:
			cur.WriteByte(ch)
		}
	}

	if inSingle {
		return nil, fmt.Errorf("unterminated single quote in command")
	}
	if inDouble {
		return nil, fmt.Errorf("unterminated double quote in command")
	}
	if cur.Len() > 0 || quoted {
		args = append(args, cur.String())
	}

	return args, nil
}
