// Package jssource makes small textual edits to JavaScript and TypeScript
// sources: finding balanced brackets, the end of the import block and
// quoted string members of array literals. It does not parse the language
// and only handles the shapes produced by the create-plugin templates.
package jssource

import (
	"regexp"
	"strings"
)

var importStatement = regexp.MustCompile(`(?m)^import\s[^;]*?['"][^'"\n]+['"][ \t]*;?[ \t]*(?:\n|$)`)

// Closing returns the index of the bracket closing the one opened just
// before start, skipping string and template literals. It returns -1 when
// the brackets are unbalanced.
func Closing(s string, start int, open, close byte) int {
	depth := 1
	var quote byte
	for i := start; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			switch ch {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"', '`':
			quote = ch
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// ImportsEnd returns the offset just past the last top level import
// statement, or -1 if there is none.
func ImportsEnd(src string) int {
	matches := importStatement.FindAllStringIndex(src, -1)
	if len(matches) == 0 {
		return -1
	}
	return matches[len(matches)-1][1]
}

// InsertAfterImports inserts text after the last import statement, or at
// the top of the file when there are no imports.
func InsertAfterImports(src, text string) string {
	end := ImportsEnd(src)
	if end == -1 {
		return text + src
	}
	if end > 0 && src[end-1] != '\n' {
		text = "\n" + text
	}
	return src[:end] + text + src[end:]
}

// HasString reports whether src contains s as a single or double quoted
// string literal.
func HasString(src, s string) bool {
	return strings.Contains(src, "'"+s+"'") || strings.Contains(src, `"`+s+`"`)
}

// AppendToArray adds item as the last element of the array literal whose
// opening bracket is at open. Arrays written one element per line stay that
// way, with item indented to match.
func AppendToArray(src string, open int, item string) (string, bool) {
	end := Closing(src, open+1, '[', ']')
	if end == -1 {
		return src, false
	}
	body := strings.TrimRight(src[open+1:end], " \t\n")
	tail := src[open+1+len(body) : end]
	head := src[:open+1]

	switch {
	case strings.TrimSpace(body) == "":
		return head + item + src[end:], true
	case strings.Contains(tail, "\n"):
		indent := lineIndent(src, end) + "  "
		if !strings.HasSuffix(body, ",") {
			body += ","
		}
		item = strings.ReplaceAll(item, "\n", "\n"+indent)
		return head + body + "\n" + indent + item + "," + tail + src[end:], true
	case strings.HasSuffix(body, ","):
		return head + body + " " + item + tail + src[end:], true
	default:
		return head + body + ", " + item + tail + src[end:], true
	}
}

func lineIndent(src string, at int) string {
	start := strings.LastIndexByte(src[:at], '\n') + 1
	line := src[start:at]
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
