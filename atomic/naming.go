package atomic

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// nameSeparator joins scope text, condition names and the property part of
// a raw class name.
const nameSeparator = ":"

// rawClassName joins naming parts in their fixed order. Base conditions are
// skipped.
func rawClassName(scopeText string, path conditionPath, displayName, value string) string {
	parts := make([]string, 0, len(path)+2)
	if scopeText != "" {
		parts = append(parts, scopeText)
	}
	for _, c := range path {
		if !c.Base {
			parts = append(parts, c.Name)
		}
	}
	parts = append(parts, displayName+"-"+value)
	return strings.Join(parts, nameSeparator)
}

// Escape turns raw text into a CSS identifier. Letters, digits, '-' and '_'
// are kept; every other character is prefixed with a backslash. Control
// characters, which cannot follow a backslash literally, use the
// hexadecimal form "\<hex> ". So does a digit starting the identifier,
// alone or after a single '-', since an identifier cannot start there.
// Raw text must be valid UTF-8, invalid bytes come out as U+FFFD.
func Escape(raw string) string {
	if raw == "-" {
		return "\\-"
	}
	var sb strings.Builder
	sb.Grow(len(raw) + len(raw)/4)
	for i, r := range raw {
		switch {
		case isDigit(r) && (i == 0 || i == 1 && raw[0] == '-'):
			fmt.Fprintf(&sb, "\\%x ", r)
		case isNameRune(r):
			sb.WriteRune(r)
		case r < 0x20 || r == 0x7f || r == utf8.RuneError:
			fmt.Fprintf(&sb, "\\%x ", r)
		default:
			sb.WriteByte('\\')
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Unescape reverses Escape.
func Unescape(name string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(name))
	for i := 0; i < len(name); {
		if name[i] != '\\' {
			r, size := utf8.DecodeRuneInString(name[i:])
			sb.WriteRune(r)
			i += size
			continue
		}
		i++
		if i >= len(name) {
			return "", fmt.Errorf("dangling escape at the end of %q", name)
		}
		// hex digits are never escaped literally, so they always start a
		// code point
		if j := hexRun(name[i:]); j > 0 {
			cp, err := strconv.ParseUint(name[i:i+j], 16, 32)
			if err != nil {
				return "", fmt.Errorf("bad escape in %q: %w", name, err)
			}
			sb.WriteRune(rune(cp))
			i += j
			if i < len(name) && name[i] == ' ' {
				i++
			}
			continue
		}
		r, size := utf8.DecodeRuneInString(name[i:])
		sb.WriteRune(r)
		i += size
	}
	return sb.String(), nil
}

func hexRun(s string) int {
	n := 0
	for n < len(s) && n < 6 && isHex(s[n]) {
		n++
	}
	return n
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-', r == '_':
		return true
	case r >= 0x80 && r != utf8.RuneError:
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}
	return false
}
