package source

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// docText turns the body of a doc comment or doc attribute into lines,
// removing one leading space from each line.
func docText(body string) []string {
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimPrefix(l, " ")
	}
	return lines
}

func lineDocBody(t token) string {
	return strings.TrimPrefix(t.text, "///")
}

func blockDocBody(t token) string {
	s := strings.TrimPrefix(t.text, "/**")
	return strings.TrimSuffix(s, "*/")
}

// unquote returns the value of a Rust string literal token.
func unquote(t token) string {
	s := strings.TrimPrefix(t.text, "b")
	if t.kind == tokRawString {
		s = strings.TrimPrefix(s, "r")
		hashes := len(s) - len(strings.TrimLeft(s, "#"))
		s = s[hashes : len(s)-hashes]
		return strings.TrimSuffix(strings.TrimPrefix(s, `"`), `"`)
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, `"`), `"`)
	if !strings.Contains(s, `\`) {
		return s
	}

	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '0':
			sb.WriteByte(0)
		case '\\', '\'', '"':
			sb.WriteByte(s[i])
		case '\n':
			// Line continuation swallows the newline and leading whitespace.
			for i+1 < len(s) && strings.ContainsRune(" \t\r\n", rune(s[i+1])) {
				i++
			}
		case 'x':
			if i+2 < len(s) {
				if n, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
					sb.WriteByte(byte(n))
					i += 2
					continue
				}
			}
			sb.WriteString(`\x`)
		case 'u':
			end := strings.IndexByte(s[i:], '}')
			if i+1 < len(s) && s[i+1] == '{' && end > 0 {
				hex := strings.ReplaceAll(s[i+2:i+end], "_", "")
				if n, err := strconv.ParseUint(hex, 16, 32); err == nil && utf8.ValidRune(rune(n)) {
					sb.WriteRune(rune(n))
					i += end
					continue
				}
			}
			sb.WriteString(`\u`)
		default:
			sb.WriteByte('\\')
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}
