package lang

import "strings"

// stripInlineComment removes a `#`-to-end-of-line comment, respecting
// single- and double-quoted strings so a `#` inside a quoted sample
// name or log message does not truncate it.
func stripInlineComment(line string) string {
	var inSingle, inDouble bool
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '\'' && !inDouble:
			inSingle = !inSingle
		case ch == '"' && !inSingle:
			inDouble = !inDouble
		case ch == '#' && !inSingle && !inDouble:
			return line[:i]
		}
	}
	return line
}

// preprocessLines joins continuation lines (a trailing `,` or `\` after
// comment-stripping continues onto the next line, the backslash itself
// removed) and strips inline comments.F pre-pass.
func preprocessLines(source string) []string {
	raw := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
	var out []string
	var pending string
	for _, line := range raw {
		stripped := stripInlineComment(line)
		trimmedRight := strings.TrimRight(stripped, " \t")
		joined := pending + trimmedRight
		trimmed := strings.TrimRight(joined, " \t")
		if strings.HasSuffix(trimmed, "\\") {
			pending = strings.TrimSuffix(trimmed, "\\")
			continue
		}
		if strings.HasSuffix(trimmed, ",") {
			pending = trimmed + " "
			continue
		}
		pending = ""
		out = append(out, joined)
	}
	if pending != "" {
		out = append(out, pending)
	}
	return out
}

// splitTopLevelCommas splits s on commas that are not nested inside
// parens, brackets, or quotes — used throughout the parser for argument
// lists and list literals.
func splitTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	inSingle, inDouble := false, false
	start := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '\'' && !inDouble:
			inSingle = !inSingle
		case ch == '"' && !inSingle:
			inDouble = !inDouble
		case inSingle || inDouble:
			// inside a quote, ignore delimiters
		case ch == '(' || ch == '[':
			depth++
		case ch == ')' || ch == ']':
			depth--
		case ch == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}
